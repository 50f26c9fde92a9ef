package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soda-framework/installer/internal/pipeline"
	"github.com/soda-framework/installer/internal/update"
)

func TestProjectDirectory(t *testing.T) {
	work := filepath.FromSlash("/home/dev")

	assert.Equal(t, work, projectDirectory(work, nil, false))
	assert.Equal(t, filepath.Join(work, "blog"), projectDirectory(work, []string{"blog"}, false))
	assert.Equal(t, filepath.Join(work, "blog", "src"), projectDirectory(work, []string{"blog"}, true))
	assert.Equal(t, filepath.Join(work, "src"), projectDirectory(work, nil, true))
	assert.Equal(t, filepath.FromSlash("/srv/site"), projectDirectory(work, []string{filepath.FromSlash("/srv/site/")}, false))
}

type nopRunner struct{}

func (nopRunner) Run(context.Context, string, []string) error { return nil }

type nopScaffolder struct{}

func (nopScaffolder) Scaffold(context.Context, string, string) error { return nil }

type nopPatcher struct{}

func (nopPatcher) RegisterProvider(string, string) error { return nil }
func (nopPatcher) WriteDeployEnv(string) error           { return nil }

func newTestPipeline(fs afero.Fs, release string) *pipeline.Pipeline {
	work := filepath.FromSlash("/work")
	return pipeline.New(pipeline.Options{
		Fs:            fs,
		WorkDir:       work,
		Directory:     filepath.Join(work, "blog"),
		Release:       release,
		Package:       "soda-framework/cms",
		ArchiveFormat: "zip",
		Runner:        nopRunner{},
		Scaffolder:    nopScaffolder{},
		Patcher:       nopPatcher{},
	})
}

func closedStatus(started *int) func() <-chan update.Status {
	return func() <-chan update.Status {
		*started++
		ch := make(chan update.Status)
		close(ch)
		return ch
	}
}

// TestInstallChecksUpdatesAfterPreflight verifies a rejected target never
// reaches the update check.
func TestInstallChecksUpdatesAfterPreflight(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.FromSlash("/work/blog/index.php"), []byte("<?php"), 0o644))

	started := 0
	err := install(context.Background(), newTestPipeline(fs, "^0.9"), "example.com/soda", closedStatus(&started))
	require.True(t, errors.Is(err, pipeline.ErrTargetExists))
	assert.Zero(t, started)
}

func TestInstallRunsUpdateCheck(t *testing.T) {
	started := 0
	err := install(context.Background(), newTestPipeline(afero.NewMemMapFs(), "^0.9"), "example.com/soda", closedStatus(&started))
	require.NoError(t, err)
	assert.Equal(t, 1, started)
}
