package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/soda-framework/installer/internal/cache"
	"github.com/soda-framework/installer/internal/config"
	"github.com/soda-framework/installer/internal/installer"
	"github.com/soda-framework/installer/internal/logger"
	"github.com/soda-framework/installer/internal/pipeline"
	"github.com/soda-framework/installer/internal/planner"
	"github.com/soda-framework/installer/internal/project"
	"github.com/soda-framework/installer/internal/update"
)

// newFlags holds the options of the `new` command.
var newFlags struct {
	release    string
	mik        bool
	showOutput bool
	noAnsi     bool
	verbose    bool
	noCache    bool
}

// newCmd creates a Soda CMS application in a new directory, or in the
// working directory when no name is given.
var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Create a new Soda CMS application",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNew,
}

func init() {
	f := newCmd.Flags()
	f.StringVarP(&newFlags.release, "release", "r", "", "Soda CMS release constraint to install (default from config, ^0.9)")
	f.BoolVar(&newFlags.mik, "mik", false, "Install into <name>/src and write the env.erb deploy template")
	f.BoolVar(&newFlags.showOutput, "show-output", false, "Show composer and artisan output")
	f.BoolVar(&newFlags.noAnsi, "no-ansi", false, "Disable ANSI output")
	f.BoolVarP(&newFlags.verbose, "verbose", "v", false, "Pass --verbose to composer and artisan")
	f.BoolVar(&newFlags.noCache, "no-cache", false, "Skip the update check cache")
}

// projectDirectory maps the optional name argument to the install directory.
func projectDirectory(workDir string, args []string, mik bool) string {
	dir := workDir
	if len(args) == 1 && args[0] != "" {
		if filepath.IsAbs(args[0]) {
			dir = filepath.Clean(args[0])
		} else {
			dir = filepath.Join(workDir, args[0])
		}
	}
	if mik {
		dir = filepath.Join(dir, "src")
	}
	return dir
}

func runNew(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %w", err)
	}
	directory := projectDirectory(workDir, args, newFlags.mik)

	release := newFlags.release
	if release == "" {
		release = cfg.Release
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Banner("Soda Installer")

	fs := afero.NewOsFs()
	p := pipeline.New(pipeline.Options{
		Fs:            fs,
		WorkDir:       workDir,
		Directory:     directory,
		Release:       release,
		Package:       cfg.Package,
		ArchiveFormat: cfg.Framework.ArchiveFormat,
		MIK:           newFlags.mik,
		Flags: planner.Flags{
			NoAnsi:     newFlags.noAnsi,
			ShowOutput: newFlags.showOutput,
			Verbose:    newFlags.verbose,
		},
		Runner: &pipeline.ShellRunner{
			Stdout: os.Stdout,
			TTY:    isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		},
		Scaffolder: &installer.Scaffolder{
			Fs:         fs,
			Downloader: &installer.Downloader{Fs: fs},
			BaseURL:    cfg.Framework.ArchiveURL,
			Format:     cfg.Framework.ArchiveFormat,
			WorkDir:    workDir,
		},
		Patcher: &project.Patcher{Fs: fs},
	})

	return install(ctx, p, cfg.Update.Module, func() <-chan update.Status {
		return startUpdateCheck(ctx, cfg)
	})
}

// install runs the preflight checks, then the update check alongside the
// install phases. A preflight failure returns before any network access.
func install(ctx context.Context, p *pipeline.Pipeline, module string, checkUpdates func() <-chan update.Status) error {
	if err := p.Prepare(); err != nil {
		return err
	}
	updates := checkUpdates()

	runErr := p.Run(ctx)
	if runErr == nil {
		logger.Banner("Sweet! Soda has been installed!")
	}

	if status, ok := <-updates; ok {
		update.Report(status, module)
	}
	return runErr
}

// startUpdateCheck looks up the newest installer release in the background.
// The channel yields one status, or closes without a value when the
// installer's own version is unknown.
func startUpdateCheck(ctx context.Context, cfg config.Config) <-chan update.Status {
	result := make(chan update.Status, 1)

	go func() {
		defer close(result)

		ctx, cancel := context.WithTimeout(ctx, cfg.Update.Timeout)
		defer cancel()

		opts := update.Options{
			Module: cfg.Update.Module,
			Index: &update.ProxyIndex{
				BaseURL: cfg.Update.Proxy,
				Client:  &http.Client{Timeout: cfg.Update.Timeout},
			},
			Manifest: update.BuildInfoManifest{Override: version},
		}
		if !newFlags.noCache {
			maxBytes, _ := cfg.Update.CacheMaxBytes()
			fc, err := cache.New(afero.NewOsFs(), config.CacheDir(), cfg.Update.CacheTTL)
			if err != nil {
				logger.Debug("[DEBUG] Update cache unavailable: %v\n", err)
			} else {
				opts.Cache = fc
				opts.GCMaxAge = update.DefaultGCMaxAge
				opts.GCMaxBytes = maxBytes
			}
		}

		status, ok := update.New(opts).Run(ctx)
		if ok {
			result <- status
		}
	}()

	return result
}
