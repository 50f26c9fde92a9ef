// Package resolver maps a requested CMS release range onto an entry of an
// ordered bracket table. Resolution is first-match in declaration order:
// narrower or newer brackets must be declared before broader catch-alls.
package resolver

import (
	"fmt"

	"github.com/soda-framework/installer/internal/semver"
)

// Identifier names the target selected by a bracket: a framework version
// such as "5.4" or a CMS capability set such as "0.8".
type Identifier string

// Bracket maps a set of acceptable requested constraints to one target.
type Bracket struct {
	Target      Identifier
	Constraints []string
}

// Table is an ordered list of brackets. Order is significant.
type Table []Bracket

// Matcher tests whether a requested range is compatible with a candidate.
type Matcher func(requested, candidate string) bool

// FailPolicy decides what Resolve does when no bracket matches.
type FailPolicy struct {
	fallback Identifier
}

// Strict makes an unmatched request an *UnresolvedVersionError.
func Strict() FailPolicy {
	return FailPolicy{}
}

// FallbackTo makes an unmatched request resolve to target.
func FallbackTo(target Identifier) FailPolicy {
	return FailPolicy{fallback: target}
}

// UnresolvedVersionError is returned by a strict resolution that matched no bracket.
type UnresolvedVersionError struct {
	Requested string
}

func (e *UnresolvedVersionError) Error() string {
	return fmt.Sprintf("could not determine a compatible framework version for release constraint %q", e.Requested)
}

// Resolve returns the target of the first bracket owning a constraint that
// intersects requested, using semver.Intersects.
func Resolve(requested string, table Table, policy FailPolicy) (Identifier, error) {
	return ResolveWith(semver.Intersects, requested, table, policy)
}

// ResolveWith is Resolve with an explicit matcher.
func ResolveWith(match Matcher, requested string, table Table, policy FailPolicy) (Identifier, error) {
	for _, bracket := range table {
		for _, candidate := range bracket.Constraints {
			if match(requested, candidate) {
				return bracket.Target, nil
			}
		}
	}

	if policy.fallback != "" {
		return policy.fallback, nil
	}
	return "", &UnresolvedVersionError{Requested: requested}
}
