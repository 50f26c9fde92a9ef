package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/soda-framework/installer/internal/installer"
)

var (
	// ErrTargetExists means the project directory is already a file or a non-empty directory.
	ErrTargetExists = errors.New("application already exists")
	// ErrUnsupportedArchive means the configured framework archive cannot be unpacked.
	ErrUnsupportedArchive = errors.New("archive format is not supported")
)

// CheckArchiveSupport fails when archives of format cannot be extracted.
func CheckArchiveSupport(format string) error {
	if !installer.SupportsFormat(format) {
		return fmt.Errorf("%w: %q (supported: %v)", ErrUnsupportedArchive, format, installer.Formats)
	}
	return nil
}

// CheckTarget fails when dir is a file or a non-empty directory. The
// working directory itself may always be reused.
func CheckTarget(fs afero.Fs, dir, workDir string) error {
	if filepath.Clean(dir) == filepath.Clean(workDir) {
		return nil
	}

	info, err := fs.Stat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot inspect %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is a file", ErrTargetExists, dir)
	}

	empty, err := afero.IsEmpty(fs, dir)
	if err != nil {
		return fmt.Errorf("cannot inspect %s: %w", dir, err)
	}
	if !empty {
		return fmt.Errorf("%w: %s is not empty", ErrTargetExists, dir)
	}
	return nil
}
