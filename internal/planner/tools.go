package planner

import (
	"os/exec"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocateTools picks the composer and artisan invocations for a project.
// A composer.phar in workDir wins over a global composer; an artisan file in
// projectDir is run with the resolved PHP binary.
func LocateTools(fs afero.Fs, workDir, projectDir string) Tools {
	tools := Tools{Composer: "composer", Artisan: "php artisan"}

	// Commands run inside the project, so the phar is referenced absolutely.
	if phar := filepath.Join(workDir, "composer.phar"); fileExists(fs, phar) {
		tools.Composer = `"` + phpBinary() + `" "` + phar + `"`
	}
	if fileExists(fs, filepath.Join(projectDir, "artisan")) {
		tools.Artisan = `"` + phpBinary() + `" artisan`
	}
	return tools
}

func fileExists(fs afero.Fs, path string) bool {
	ok, err := afero.Exists(fs, path)
	return ok && err == nil
}

func phpBinary() string {
	if path, err := exec.LookPath("php"); err == nil {
		return path
	}
	return "php"
}
