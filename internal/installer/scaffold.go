package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/soda-framework/installer/internal/logger"
)

// Scaffolder downloads a framework release archive and unpacks it into a project directory.
type Scaffolder struct {
	Fs         afero.Fs
	Downloader *Downloader
	BaseURL    string
	Format     string
	// WorkDir receives the temporary archive. When dir is WorkDir itself the
	// staging directory is created inside it too, so nothing is written above
	// the working directory. It defaults to the directory holding the project.
	WorkDir string
}

// Scaffold installs the framework release into dir. dir may already exist
// as an empty directory (or the working directory); its contents are merged.
func (s *Scaffolder) Scaffold(ctx context.Context, framework, dir string) error {
	url, err := ArchiveURL(s.BaseURL, framework, s.Format)
	if err != nil {
		return err
	}

	parent := filepath.Dir(dir)
	if s.WorkDir != "" && filepath.Clean(dir) == filepath.Clean(s.WorkDir) {
		parent = dir
	}
	if err := s.Fs.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("cannot create parent directory %s: %w", parent, err)
	}
	workDir := s.WorkDir
	if workDir == "" {
		workDir = parent
	}

	archive := filepath.Join(workDir, "laravel_"+uuid.NewString()+"."+strings.TrimPrefix(s.Format, "."))
	defer s.cleanUp(archive)

	logger.Info("[INFO] Downloading %s\n", url)
	if err := s.Downloader.Download(ctx, url, archive); err != nil {
		return err
	}

	// Extract next to the target so the final move never crosses filesystems.
	staging, err := afero.TempDir(s.Fs, parent, ".soda-extract-")
	if err != nil {
		return fmt.Errorf("cannot create staging directory: %w", err)
	}
	defer s.cleanUp(staging)

	extracted, err := ExtractArchive(s.Fs, archive, staging)
	if err != nil {
		return fmt.Errorf("failed to extract archive: %w", err)
	}
	logger.Debug("[DEBUG] Extracted archive to %s\n", extracted)

	return s.moveInto(extracted, dir)
}

// moveInto renames src to dst, or merges src's entries into dst when dst already exists.
func (s *Scaffolder) moveInto(src, dst string) error {
	exists, err := afero.DirExists(s.Fs, dst)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.Fs.Rename(src, dst); err != nil {
			return fmt.Errorf("cannot move %s to %s: %w", src, dst, err)
		}
		return nil
	}

	entries, err := afero.ReadDir(s.Fs, src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dst, entry.Name())
		if err := s.Fs.Rename(from, to); err != nil {
			return fmt.Errorf("cannot move %s to %s: %w", from, to, err)
		}
	}
	return nil
}

// cleanUp removes a temporary file or directory; failures are only logged.
func (s *Scaffolder) cleanUp(path string) {
	if err := s.Fs.RemoveAll(path); err != nil {
		logger.Warn("[WARN] Failed to remove %s: %v\n", path, err)
	}
}
