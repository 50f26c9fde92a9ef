// Package planner builds the ordered shell commands for each install phase
// and injects the output flags passed through to composer and artisan.
package planner

import (
	"fmt"
	"strings"

	"github.com/soda-framework/installer/internal/resolver"
)

// Phase is one ordered stage of the install pipeline.
type Phase string

const (
	PhaseScaffold   Phase = "scaffold"
	PhaseAddPackage Phase = "add-package"
	PhaseConfigure  Phase = "configure"
	PhaseMigrate    Phase = "migrate"
)

// Phases lists every phase in execution order.
var Phases = []Phase{PhaseScaffold, PhaseAddPackage, PhaseConfigure, PhaseMigrate}

// Command is one shell-level operation. Raw commands are never suffixed with output flags.
type Command struct {
	Line string
	Raw  bool
}

// Flags are the output options forwarded to every flaggable command.
type Flags struct {
	NoAnsi     bool
	ShowOutput bool
	Verbose    bool
}

// Tools are the command prefixes used to invoke the package manager and the framework console.
type Tools struct {
	Composer string
	Artisan  string
}

// Selection carries everything a phase plan depends on.
type Selection struct {
	Framework resolver.Identifier
	Bracket   resolver.Identifier
	Package   string
	Release   string
	Tools     Tools
}

// Planner resolves phase commands through a capability chain.
type Planner struct {
	chain Chain
}

// New returns a Planner over chain; a nil chain means DefaultChain.
func New(chain Chain) *Planner {
	if chain == nil {
		chain = DefaultChain
	}
	return &Planner{chain: chain}
}

// Plan returns the expanded, unflagged commands for phase.
func (p *Planner) Plan(phase Phase, sel Selection) ([]Command, error) {
	var templates []Command

	switch phase {
	case PhaseScaffold:
		templates = scaffoldCommands(sel.Framework)
	case PhaseAddPackage:
		templates = addPackage
	case PhaseConfigure, PhaseMigrate:
		var ok bool
		templates, ok = lookup(p.chain, sel.Bracket, func(d Definition) ([]Command, bool) {
			if phase == PhaseConfigure {
				return d.Configure, len(d.Configure) > 0
			}
			return d.Migrate, len(d.Migrate) > 0
		})
		if !ok {
			return nil, fmt.Errorf("no %s commands defined for CMS bracket %q", phase, sel.Bracket)
		}
	default:
		return nil, fmt.Errorf("unknown phase %q", phase)
	}

	return expand(templates, sel), nil
}

// ServiceProvider returns the provider class registered in the generated app config for bracket.
func (p *Planner) ServiceProvider(bracket resolver.Identifier) (string, error) {
	provider, ok := lookup(p.chain, bracket, func(d Definition) (string, bool) {
		return d.ServiceProvider, d.ServiceProvider != ""
	})
	if !ok {
		return "", fmt.Errorf("no service provider defined for CMS bracket %q", bracket)
	}
	return provider, nil
}

func expand(templates []Command, sel Selection) []Command {
	r := strings.NewReplacer(
		"{composer}", sel.Tools.Composer,
		"{artisan}", sel.Tools.Artisan,
		"{package}", sel.Package,
		"{release}", sel.Release,
	)
	out := make([]Command, len(templates))
	for i, t := range templates {
		out[i] = Command{Line: r.Replace(t.Line), Raw: t.Raw}
	}
	return out
}

// ApplyFlags suffixes every non-raw command with --no-ansi, --quiet and
// --verbose, in that order, according to f. A suffix a command already
// carries is not added twice, so applying the same flags again is a no-op.
func ApplyFlags(commands []Command, f Flags) []Command {
	var suffixes []string
	if f.NoAnsi {
		suffixes = append(suffixes, "--no-ansi")
	}
	if !f.ShowOutput {
		suffixes = append(suffixes, "--quiet")
	}
	if f.Verbose {
		suffixes = append(suffixes, "--verbose")
	}

	out := make([]Command, len(commands))
	for i, c := range commands {
		line := strings.TrimRight(c.Line, " ")
		if !c.Raw {
			for _, s := range suffixes {
				if !hasArg(line, s) {
					line += " " + s
				}
			}
		}
		out[i] = Command{Line: line, Raw: c.Raw}
	}
	return out
}

func hasArg(line, arg string) bool {
	for _, field := range strings.Fields(line) {
		if field == arg {
			return true
		}
	}
	return false
}

// Lines returns the command lines of a plan.
func Lines(commands []Command) []string {
	out := make([]string, len(commands))
	for i, c := range commands {
		out[i] = c.Line
	}
	return out
}

// Join renders a plan as one short-circuiting shell invocation.
func Join(commands []Command) string {
	return strings.Join(Lines(commands), " && ")
}
