package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soda-framework/installer/internal/planner"
	"github.com/soda-framework/installer/internal/project"
	"github.com/soda-framework/installer/internal/resolver"
)

var (
	workDir    = filepath.FromSlash("/work")
	projectDir = filepath.Join(workDir, "blog")
)

const appConfig = "<?php\nreturn ['providers' => [\n        App\\Providers\\RouteServiceProvider::class,\n]];\n"

// recorder collects the side effects of a run in order.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

type fakeRunner struct {
	rec    *recorder
	failOn string
	calls  [][]string
}

func (f *fakeRunner) Run(_ context.Context, dir string, commands []string) error {
	f.calls = append(f.calls, commands)
	f.rec.add("run %s: %s", dir, strings.Join(commands, " && "))
	for _, c := range commands {
		if f.failOn != "" && strings.Contains(c, f.failOn) {
			return errors.New("exit status 1")
		}
	}
	return nil
}

type fakeScaffolder struct {
	rec *recorder
	fs  afero.Fs
	err error
}

func (f *fakeScaffolder) Scaffold(_ context.Context, framework, dir string) error {
	f.rec.add("scaffold %s into %s", framework, dir)
	if f.err != nil {
		return f.err
	}
	return afero.WriteFile(f.fs, filepath.Join(dir, "config", "app.php"), []byte(appConfig), 0o644)
}

type fakePatcher struct {
	rec *recorder
}

func (f *fakePatcher) RegisterProvider(dir, provider string) error {
	f.rec.add("provider %s", provider)
	return nil
}

func (f *fakePatcher) WriteDeployEnv(dir string) error {
	f.rec.add("env.erb in %s", dir)
	return nil
}

type harness struct {
	fs     afero.Fs
	rec    *recorder
	runner *fakeRunner
	opts   Options
}

func newHarness(release string) *harness {
	fs := afero.NewMemMapFs()
	rec := &recorder{}
	runner := &fakeRunner{rec: rec}
	return &harness{
		fs:     fs,
		rec:    rec,
		runner: runner,
		opts: Options{
			Fs:            fs,
			WorkDir:       workDir,
			Directory:     projectDir,
			Release:       release,
			Package:       "soda-framework/cms",
			ArchiveFormat: "zip",
			Runner:        runner,
			Scaffolder:    &fakeScaffolder{rec: rec, fs: fs},
			Patcher:       &fakePatcher{rec: rec},
		},
	}
}

// TestRunExecutesPhasesInOrder verifies every phase runs once, in order, with flagged commands.
func TestRunExecutesPhasesInOrder(t *testing.T) {
	h := newHarness("^0.9")
	p := New(h.opts)
	assert.Equal(t, StatePending, p.State())

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, StateSucceeded, p.State())
	assert.Equal(t, planner.Selection{
		Framework: resolver.Framework54,
		Bracket:   resolver.CMS08,
		Package:   "soda-framework/cms",
		Release:   "^0.9",
	}, p.Selection())

	run := func(cmds ...string) string {
		return "run " + projectDir + ": " + strings.Join(cmds, " && ")
	}
	assert.Equal(t, []string{
		"scaffold 5.4 into " + projectDir,
		run(
			"composer install --no-scripts --no-suggest --quiet",
			"composer run-script post-root-package-install --quiet",
			"composer run-script post-install-cmd --quiet",
			"composer run-script post-create-project-cmd --quiet",
		),
		run("composer require soda-framework/cms:^0.9 --quiet"),
		`provider Soda\Cms\SodaServiceProvider::class`,
		run(
			"php artisan vendor:publish --quiet",
			"php artisan optimize --quiet",
			"php artisan session:table --quiet",
			"php artisan soda:setup",
		),
		run("php artisan migrate --quiet", "php artisan soda:install --quiet"),
	}, h.rec.events)
}

func TestRunPassesFlags(t *testing.T) {
	h := newHarness("^0.9")
	h.opts.Flags = planner.Flags{NoAnsi: true, ShowOutput: true, Verbose: true}

	require.NoError(t, New(h.opts).Run(context.Background()))

	migrate := h.runner.calls[len(h.runner.calls)-1]
	assert.Equal(t, []string{"php artisan migrate --no-ansi --verbose", "php artisan soda:install --no-ansi --verbose"}, migrate)
}

// TestRunStopsAtFailingPhase verifies no later phase runs after a failure.
func TestRunStopsAtFailingPhase(t *testing.T) {
	h := newHarness("^0.9")
	h.runner.failOn = "require"
	p := New(h.opts)

	err := p.Run(context.Background())
	require.Error(t, err)

	var phaseErr *PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, planner.PhaseAddPackage, phaseErr.Phase)
	assert.Contains(t, err.Error(), "add-package phase failed")
	assert.Equal(t, StateFailed, p.State())
	assert.Equal(t, planner.PhaseAddPackage, p.Phase())
	assert.Len(t, h.runner.calls, 2)
	for _, e := range h.rec.events {
		assert.NotContains(t, e, "provider")
	}
}

func TestRunScaffoldFailure(t *testing.T) {
	h := newHarness("^0.9")
	h.opts.Scaffolder = &fakeScaffolder{rec: h.rec, fs: h.fs, err: errors.New("download failed")}

	err := New(h.opts).Run(context.Background())
	var phaseErr *PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, planner.PhaseScaffold, phaseErr.Phase)
	assert.Empty(t, h.runner.calls)
}

// TestRunRejectsUnresolvedFramework verifies resolution fails before any side effect.
func TestRunRejectsUnresolvedFramework(t *testing.T) {
	h := newHarness("^0.10")
	p := New(h.opts)

	err := p.Run(context.Background())
	var unresolved *resolver.UnresolvedVersionError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "^0.10", unresolved.Requested)
	assert.Empty(t, h.rec.events)
	assert.Equal(t, StateFailed, p.State())
}

func TestRunRejectsPopulatedTarget(t *testing.T) {
	h := newHarness("^0.9")
	require.NoError(t, afero.WriteFile(h.fs, filepath.Join(projectDir, "README.md"), []byte("hi"), 0o644))

	err := New(h.opts).Run(context.Background())
	require.ErrorIs(t, err, ErrTargetExists)
	assert.Empty(t, h.rec.events)
}

func TestRunRejectsUnsupportedArchive(t *testing.T) {
	h := newHarness("^0.9")
	h.opts.ArchiveFormat = "rar"

	err := New(h.opts).Run(context.Background())
	require.ErrorIs(t, err, ErrUnsupportedArchive)
	assert.Empty(t, h.rec.events)
}

func TestRunWritesDeployEnvInMIKMode(t *testing.T) {
	h := newHarness("^0.6")
	h.opts.MIK = true
	h.opts.Directory = filepath.Join(projectDir, "src")

	require.NoError(t, New(h.opts).Run(context.Background()))
	assert.Contains(t, h.rec.events, "env.erb in "+h.opts.Directory)
	assert.Contains(t, h.rec.events, `provider Soda\Cms\SodaServiceProvider::class`)
}

// TestRunRegistersProviderInConfig verifies the real patcher edits the scaffolded config.
func TestRunRegistersProviderInConfig(t *testing.T) {
	h := newHarness("^0.3")
	h.opts.Patcher = &project.Patcher{Fs: h.fs}

	p := New(h.opts)
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, resolver.Framework52, p.Selection().Framework)
	assert.Equal(t, resolver.CMSDefault, p.Selection().Bracket)

	got, err := afero.ReadFile(h.fs, filepath.Join(projectDir, "config", "app.php"))
	require.NoError(t, err)
	assert.Contains(t, string(got), `Soda\Cms\Providers\SodaServiceProvider::class,`)

	migrate := h.runner.calls[len(h.runner.calls)-1]
	assert.Equal(t, []string{"php artisan migrate --quiet", "php artisan soda:migrate --quiet", "php artisan soda:seed --quiet"}, migrate)
}

// TestPrepareHasNoSideEffects verifies preflight resolves versions without
// scaffolding or running anything, and that Run does not repeat it.
func TestPrepareHasNoSideEffects(t *testing.T) {
	h := newHarness("^0.9")
	p := New(h.opts)

	require.NoError(t, p.Prepare())
	assert.Empty(t, h.rec.events)
	assert.Equal(t, StatePending, p.State())
	assert.Equal(t, resolver.CMS08, p.Selection().Bracket)

	require.NoError(t, p.Prepare())
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, StateSucceeded, p.State())
	assert.Len(t, h.runner.calls, 4)
}

func TestPrepareFailureStopsRun(t *testing.T) {
	h := newHarness("^0.10")
	p := New(h.opts)

	var unresolved *resolver.UnresolvedVersionError
	require.ErrorAs(t, p.Prepare(), &unresolved)
	assert.Equal(t, StateFailed, p.State())

	require.Error(t, p.Run(context.Background()))
	assert.Empty(t, h.rec.events)
}

func TestRunOnlyOnce(t *testing.T) {
	h := newHarness("^0.9")
	p := New(h.opts)
	require.NoError(t, p.Run(context.Background()))
	require.Error(t, p.Run(context.Background()))
}

func TestCheckTarget(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(filepath.Join(workDir, "empty"), 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(workDir, "file"), []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(workDir, "full", "a"), []byte("x"), 0o644))

	assert.NoError(t, CheckTarget(fs, workDir, workDir))
	assert.NoError(t, CheckTarget(fs, filepath.Join(workDir, "missing"), workDir))
	assert.NoError(t, CheckTarget(fs, filepath.Join(workDir, "empty"), workDir))
	assert.ErrorIs(t, CheckTarget(fs, filepath.Join(workDir, "file"), workDir), ErrTargetExists)
	assert.ErrorIs(t, CheckTarget(fs, filepath.Join(workDir, "full"), workDir), ErrTargetExists)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
