package installer

import (
	"archive/tar"    // For reading .tar archives
	"archive/zip"    // For reading .zip archives
	"compress/bzip2" // For reading .bz2 compressed data
	"compress/gzip"  // For reading .gz compressed data
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip" // For reading .7z archives
	"github.com/spf13/afero"
	"github.com/xi2/xz" // For reading .xz compressed data

	"github.com/soda-framework/installer/internal/logger"
)

// ExtractArchive routes to the extraction function for src's archive type.
// It returns the path of the archive's top-level entry inside dest.
func ExtractArchive(fs afero.Fs, src, dest string) (string, error) {
	switch {
	case strings.HasSuffix(src, ".zip"):
		logger.Debug("[DEBUG] compression type is zip\n")
		return extractZip(fs, src, dest)
	case strings.HasSuffix(src, ".7z"):
		logger.Debug("[DEBUG] compression type is .7z\n")
		return extract7z(fs, src, dest)
	case strings.HasSuffix(src, ".tar"), strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"),
		strings.HasSuffix(src, ".tar.bz2"), strings.HasSuffix(src, ".tar.xz"):
		logger.Debug("[DEBUG] compression type is .tar.*\n")
		return extractTarArchive(fs, src, dest)
	default:
		return "", fmt.Errorf("unsupported archive format: %s", src)
	}
}

// entryPath maps an archive entry name into dest, rejecting names that escape it.
func entryPath(dest, name string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(name, `\`, "/"))
	if clean == "/" {
		return dest, nil
	}
	target := filepath.Join(dest, filepath.FromSlash(clean))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

// topLevelOf returns the first path element of an archive entry name.
func topLevelOf(name string) string {
	parts := strings.Split(strings.TrimPrefix(name, "./"), "/")
	return parts[0]
}

func writeEntry(fs afero.Fs, target string, mode os.FileMode, r io.Reader) error {
	if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if mode.Perm() == 0 {
		mode = 0o644
	}
	out, err := fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// extractTarArchive handles tar and compressed tar variants
func extractTarArchive(fs afero.Fs, src, dest string) (string, error) {
	logger.Debug("[DEBUG] uncompressing %s to %s\n", src, dest)
	f, err := fs.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var reader io.Reader = f
	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return "", err
		}
		defer gr.Close()
		reader = gr
	case strings.HasSuffix(src, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(src, ".tar.xz"):
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			return "", err
		}
		reader = xzr
	}

	tr := tar.NewReader(reader)
	var topLevel string

	// Iterate over each file in the archive
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break // End of archive
		}
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return "", err
		}
		// GitHub tarballs start with a pax global header that is not a file.
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		if topLevel == "" {
			topLevel = topLevelOf(hdr.Name)
		}

		target, err := entryPath(dest, hdr.Name)
		if err != nil {
			return "", err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := fs.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
		case tar.TypeReg:
			if err := writeEntry(fs, target, os.FileMode(hdr.Mode), tr); err != nil {
				return "", err
			}
		}
	}
	return filepath.Join(dest, topLevel), nil
}

// extractZip extracts a .zip archive
func extractZip(fs afero.Fs, src, dest string) (string, error) {
	f, err := fs.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	// Insecure names are confined by entryPath instead of rejecting the archive.
	r, err := zip.NewReader(f, info.Size())
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return "", err
	}

	var topLevel string
	for _, zf := range r.File {
		if topLevel == "" {
			topLevel = topLevelOf(zf.Name)
		}
		target, err := entryPath(dest, zf.Name)
		if err != nil {
			return "", err
		}
		if zf.FileInfo().IsDir() {
			if err := fs.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return "", err
		}
		err = writeEntry(fs, target, zf.Mode(), rc)
		rc.Close()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dest, topLevel), nil
}

// extract7z handles .7z extraction using the sevenzip library
func extract7z(fs afero.Fs, src, dest string) (string, error) {
	f, err := fs.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	r, err := sevenzip.NewReader(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("failed to open 7z archive: %w", err)
	}

	var topLevel string
	for _, sf := range r.File {
		if topLevel == "" {
			topLevel = topLevelOf(sf.Name)
		}
		target, err := entryPath(dest, sf.Name)
		if err != nil {
			return "", err
		}
		if sf.FileInfo().IsDir() {
			if err := fs.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
			continue
		}
		rc, err := sf.Open()
		if err != nil {
			return "", err
		}
		err = writeEntry(fs, target, sf.Mode(), rc)
		rc.Close()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dest, topLevel), nil
}
