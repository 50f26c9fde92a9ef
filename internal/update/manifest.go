package update

import (
	"runtime/debug"
)

// Manifest reports the locally installed version of a package.
type Manifest interface {
	InstalledVersion(name string) (string, bool)
}

// BuildInfoManifest reads the version `go install` embedded in the running binary.
// Override, when set (via -ldflags), takes precedence over the build info.
type BuildInfoManifest struct {
	Override string
}

// InstalledVersion returns the binary's own version when the main module is name.
// Development builds report "(devel)" and are treated as not installed.
func (m BuildInfoManifest) InstalledVersion(name string) (string, bool) {
	if m.Override != "" {
		return m.Override, true
	}

	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Path != name {
		return "", false
	}
	switch info.Main.Version {
	case "", "(devel)":
		return "", false
	}
	return info.Main.Version, true
}

// StaticManifest is a fixed name → version table.
type StaticManifest map[string]string

func (m StaticManifest) InstalledVersion(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}
