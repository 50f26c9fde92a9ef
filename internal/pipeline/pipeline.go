// Package pipeline runs the install phases in order: scaffold, add-package,
// configure, migrate. The first failing phase stops the run; nothing is
// rolled back and the project is left as it is for inspection.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/soda-framework/installer/internal/logger"
	"github.com/soda-framework/installer/internal/planner"
	"github.com/soda-framework/installer/internal/resolver"
)

// State is the pipeline's position in its lifecycle.
type State int

const (
	StatePending State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PhaseError reports the phase whose commands failed.
type PhaseError struct {
	Phase planner.Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Runner executes one phase's commands as a single short-circuiting invocation in dir.
type Runner interface {
	Run(ctx context.Context, dir string, commands []string) error
}

// Scaffolder fetches and unpacks a framework release into dir.
type Scaffolder interface {
	Scaffold(ctx context.Context, framework, dir string) error
}

// Patcher edits the generated application's configuration.
type Patcher interface {
	RegisterProvider(dir, provider string) error
	WriteDeployEnv(dir string) error
}

// Options configure a Pipeline.
type Options struct {
	Fs            afero.Fs
	WorkDir       string
	Directory     string
	Release       string
	Package       string
	ArchiveFormat string
	MIK           bool
	Flags         planner.Flags

	Runner     Runner
	Scaffolder Scaffolder
	Patcher    Patcher
	Planner    *planner.Planner
}

// Pipeline is a single-use install run.
type Pipeline struct {
	opts     Options
	state    State
	current  planner.Phase
	sel      planner.Selection
	prepared bool
}

// New returns a pending pipeline.
func New(opts Options) *Pipeline {
	if opts.Planner == nil {
		opts.Planner = planner.New(nil)
	}
	return &Pipeline{opts: opts, state: StatePending}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return p.state
}

// Phase returns the phase running, or the one that failed.
func (p *Pipeline) Phase() planner.Phase {
	return p.current
}

// Selection returns the versions the run resolved to.
func (p *Pipeline) Selection() planner.Selection {
	return p.sel
}

// Prepare runs the preflight checks and resolves the versions without touching
// the network or starting a process. Run calls it when it has not been called.
func (p *Pipeline) Prepare() error {
	if p.prepared {
		return nil
	}
	if p.state != StatePending {
		return errors.New("pipeline has already run")
	}
	if err := p.prepare(); err != nil {
		p.state = StateFailed
		return err
	}
	p.prepared = true
	return nil
}

// Run executes every phase. Preflight failures return before any download
// or command; a phase failure returns a *PhaseError.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.state != StatePending {
		return errors.New("pipeline has already run")
	}
	if err := p.Prepare(); err != nil {
		return err
	}

	p.state = StateRunning
	for _, phase := range planner.Phases {
		p.current = phase
		if err := p.runPhase(ctx, phase); err != nil {
			p.state = StateFailed
			return &PhaseError{Phase: phase, Err: err}
		}
	}
	p.state = StateSucceeded
	return nil
}

// prepare runs the preflight checks and resolves both version brackets.
func (p *Pipeline) prepare() error {
	if err := CheckArchiveSupport(p.opts.ArchiveFormat); err != nil {
		return err
	}
	if err := CheckTarget(p.opts.Fs, p.opts.Directory, p.opts.WorkDir); err != nil {
		return err
	}

	framework, err := resolver.ResolveFramework(p.opts.Release)
	if err != nil {
		return err
	}
	bracket := resolver.ResolveCMS(p.opts.Release)
	logger.Debug("[DEBUG] Release %s resolved to framework %s, CMS bracket %s\n", p.opts.Release, framework, bracket)

	p.sel = planner.Selection{
		Framework: framework,
		Bracket:   bracket,
		Package:   p.opts.Package,
		Release:   p.opts.Release,
	}
	return nil
}

func (p *Pipeline) runPhase(ctx context.Context, phase planner.Phase) error {
	dir := p.opts.Directory

	switch phase {
	case planner.PhaseScaffold:
		logger.Step("Installing Laravel (%s)...\n", p.sel.Framework)
		if err := p.opts.Scaffolder.Scaffold(ctx, string(p.sel.Framework), dir); err != nil {
			return err
		}
		if err := p.runCommands(ctx, phase); err != nil {
			return err
		}
		logger.Step("Laravel installed.\n")
		return nil

	case planner.PhaseAddPackage:
		logger.Step("Pouring Soda...\n")
		return p.runCommands(ctx, phase)

	case planner.PhaseConfigure:
		logger.Step("Caffeinating...\n")
		provider, err := p.opts.Planner.ServiceProvider(p.sel.Bracket)
		if err != nil {
			return err
		}
		if err := p.opts.Patcher.RegisterProvider(dir, provider); err != nil {
			return err
		}
		if p.opts.MIK {
			if err := p.opts.Patcher.WriteDeployEnv(dir); err != nil {
				return err
			}
		}
		return p.runCommands(ctx, phase)

	case planner.PhaseMigrate:
		logger.Step("Loading with sugar...\n")
		return p.runCommands(ctx, phase)
	}
	return fmt.Errorf("unknown phase %q", phase)
}

// runCommands plans phase against the current project contents and hands it to the runner.
func (p *Pipeline) runCommands(ctx context.Context, phase planner.Phase) error {
	sel := p.sel
	sel.Tools = planner.LocateTools(p.opts.Fs, p.opts.WorkDir, p.opts.Directory)

	commands, err := p.opts.Planner.Plan(phase, sel)
	if err != nil {
		return err
	}
	lines := planner.Lines(planner.ApplyFlags(commands, p.opts.Flags))
	logger.Debug("[DEBUG] %s: %v\n", phase, lines)

	return p.opts.Runner.Run(ctx, p.opts.Directory, lines)
}
