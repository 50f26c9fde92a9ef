package installer

import (
	"fmt"
	"strings"
)

// DefaultArchiveURL is where framework release archives are downloaded from.
const DefaultArchiveURL = "https://github.com/laravel/laravel/archive"

// releaseTags pins each framework version to the tag whose archive is installed.
var releaseTags = map[string]string{
	"5.2": "v5.2.31",
	"5.3": "v5.3.30",
	"5.4": "v5.4.30",
	"5.5": "v5.5.0",
}

// Formats lists the archive extensions ExtractArchive understands.
var Formats = []string{"zip", "tar.gz", "tgz", "tar.bz2", "tar.xz", "7z"}

// SupportsFormat reports whether archives with extension format can be extracted.
func SupportsFormat(format string) bool {
	format = strings.TrimPrefix(format, ".")
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ArchiveName returns the archive file name for a framework version, e.g. "v5.4.30.zip".
func ArchiveName(framework, format string) (string, error) {
	tag, ok := releaseTags[framework]
	if !ok {
		return "", fmt.Errorf("no release archive known for framework version %s", framework)
	}
	if !SupportsFormat(format) {
		return "", fmt.Errorf("unsupported archive format: %s", format)
	}
	return tag + "." + strings.TrimPrefix(format, "."), nil
}

// ArchiveURL joins the archive base URL and the archive name for a framework version.
func ArchiveURL(baseURL, framework, format string) (string, error) {
	name, err := ArchiveName(framework, format)
	if err != nil {
		return "", err
	}
	if baseURL == "" {
		baseURL = DefaultArchiveURL
	}
	return strings.TrimRight(baseURL, "/") + "/" + name, nil
}
