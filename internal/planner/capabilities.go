package planner

import (
	"github.com/soda-framework/installer/internal/resolver"
)

// Definition records the phase behavior a CMS bracket introduced.
// Empty fields inherit the value of the nearest earlier Definition in the chain.
type Definition struct {
	Bracket         resolver.Identifier
	ServiceProvider string
	Configure       []Command
	Migrate         []Command
}

// Chain is a chronological list of Definitions; the first entry must define every capability.
type Chain []Definition

// Command templates may reference {composer}, {artisan}, {package} and {release}.
func cmd(line string) Command    { return Command{Line: line} }
func rawCmd(line string) Command { return Command{Line: line, Raw: true} }

// DefaultChain describes how the CMS setup changed across releases.
var DefaultChain = Chain{
	{
		Bracket:         resolver.CMSDefault,
		ServiceProvider: `Soda\Cms\Providers\SodaServiceProvider::class`,
		Configure: []Command{
			cmd("{artisan} vendor:publish"),
			cmd("{artisan} optimize"),
			cmd("{artisan} session:table"),
			rawCmd("{artisan} soda:setup"),
		},
		Migrate: []Command{
			cmd("{artisan} migrate"),
			cmd("{artisan} soda:migrate"),
			cmd("{artisan} soda:seed"),
		},
	},
	{
		Bracket:         resolver.CMS06,
		ServiceProvider: `Soda\Cms\SodaServiceProvider::class`,
	},
	{
		Bracket: resolver.CMS08,
		Migrate: []Command{
			cmd("{artisan} migrate"),
			cmd("{artisan} soda:install"),
		},
	},
	{
		Bracket: resolver.CMS010,
		Configure: []Command{
			cmd(`{artisan} vendor:publish --provider="Soda\Cms\SodaServiceProvider"`),
			cmd("{artisan} session:table"),
			cmd("{artisan} optimize"),
			cmd("{artisan} key:generate"),
			rawCmd("{artisan} soda:setup"),
		},
	},
}

// legacyScaffold covers framework releases up to 5.4, which still shipped
// post-install-cmd and accepted --no-suggest.
var legacyScaffold = []Command{
	cmd("{composer} install --no-scripts --no-suggest"),
	cmd("{composer} run-script post-root-package-install"),
	cmd("{composer} run-script post-install-cmd"),
	cmd("{composer} run-script post-create-project-cmd"),
}

var currentScaffold = []Command{
	cmd("{composer} install --no-scripts"),
	cmd("{composer} run-script post-root-package-install"),
	cmd("{composer} run-script post-create-project-cmd"),
	cmd("{composer} run-script post-autoload-dump"),
}

var addPackage = []Command{
	cmd("{composer} require {package}:{release}"),
}

func scaffoldCommands(framework resolver.Identifier) []Command {
	switch framework {
	case "5.0", "5.1", resolver.Framework52, resolver.Framework53, resolver.Framework54:
		return legacyScaffold
	default:
		return currentScaffold
	}
}

// index returns the position of bracket in the chain, or -1.
func (c Chain) index(bracket resolver.Identifier) int {
	for i, def := range c {
		if def.Bracket == bracket {
			return i
		}
	}
	return -1
}

// lookup walks the chain backward from bracket until pick finds an override.
func lookup[T any](c Chain, bracket resolver.Identifier, pick func(Definition) (T, bool)) (T, bool) {
	var zero T
	start := c.index(bracket)
	if start < 0 {
		return zero, false
	}
	for i := start; i >= 0; i-- {
		if v, ok := pick(c[i]); ok {
			return v, true
		}
	}
	return zero, false
}
