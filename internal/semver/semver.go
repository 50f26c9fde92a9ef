package semver

import (
	"fmt"
	"regexp"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a semantic version.
//
// This is a thin wrapper around github.com/Masterminds/semver/v3.
type Version struct {
	v *mm.Version
}

// Constraint is a Composer-style version constraint.
//
// Examples:
// - "^0.6"
// - ">=0.4 <0.6"
// - "^0.8 || ^0.9"
// - "dev-master"
//
// Branch constraints ("dev-<name>") carry no numeric range; they only ever
// intersect the same branch.
//
// Ranges follow Composer in admitting the prereleases of their boundary
// releases: "^0.6" accepts "0.6.0-beta1" but not "0.7.0-beta1".
type Constraint struct {
	raw    string
	c      *mm.Constraints
	branch string
	// exact is a single "=x.y.z" version; it never widens to prereleases.
	exact bool
	// prerelease is set when a version literal in raw carries a prerelease,
	// in which case the range already compares prereleases itself.
	prerelease bool
}

const branchPrefix = "dev-"

var (
	// stabilityFlag matches Composer's "@dev", "@beta", ... suffixes.
	stabilityFlag = regexp.MustCompile(`@[a-zA-Z]+`)
	// orSeparator matches Composer's "|" and "||" OR separators with surrounding space.
	orSeparator = regexp.MustCompile(`\s*\|\|?\s*`)
	// versionLiteral finds every version mentioned in a constraint expression.
	versionLiteral = regexp.MustCompile(`v?(\d+)(?:\.(\d+|[xX*]))?(?:\.(\d+|[xX*]))?(?:-([0-9A-Za-z.-]+))?`)
	// exactVersion matches a constraint naming one full version.
	exactVersion = regexp.MustCompile(`^=?\s*v?\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)
)

func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool {
	return v.v == nil
}

// String returns the version as originally written (e.g. "v1.2.0").
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.Original()
}

func ParseConstraint(raw string) (Constraint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Constraint{}, fmt.Errorf("semver: empty constraint")
	}
	normalized := strings.TrimSpace(stabilityFlag.ReplaceAllString(trimmed, ""))
	if strings.HasPrefix(normalized, branchPrefix) {
		return Constraint{raw: normalized, branch: strings.TrimPrefix(normalized, branchPrefix)}, nil
	}
	normalized = orSeparator.ReplaceAllString(normalized, " || ")

	c, err := mm.NewConstraint(normalized)
	if err != nil {
		return Constraint{}, fmt.Errorf("semver: parse constraint %q: %w", raw, err)
	}

	prerelease := false
	for _, m := range versionLiteral.FindAllStringSubmatch(normalized, -1) {
		if m[4] != "" {
			prerelease = true
		}
	}
	return Constraint{
		raw:        normalized,
		c:          c,
		exact:      exactVersion.MatchString(normalized),
		prerelease: prerelease,
	}, nil
}

func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the normalized constraint expression.
func (c Constraint) String() string {
	return c.raw
}

// IsBranch reports whether c names a development branch rather than a range.
func (c Constraint) IsBranch() bool {
	return c.c == nil && c.branch != ""
}

func Satisfies(v Version, c Constraint) bool {
	if v.v == nil || c.c == nil {
		return false
	}
	return c.c.Check(v.v)
}

// Compare compares a and b, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// MaxSatisfying returns the highest version in candidates that satisfies c.
//
// If multiple versions are equal, the first encountered wins.
func MaxSatisfying(c Constraint, candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if !Satisfies(candidate, c) {
			continue
		}
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}

// Intersects reports whether at least one version is admitted by both
// the requested and the candidate constraint. It is total: an expression
// that does not parse intersects nothing.
func Intersects(requested, candidate string) bool {
	a, err := ParseConstraint(requested)
	if err != nil {
		return false
	}
	b, err := ParseConstraint(candidate)
	if err != nil {
		return false
	}
	return ConstraintsIntersect(a, b)
}

// ConstraintsIntersect is Intersects for already parsed constraints.
//
// Every bound of a caret, tilde, wildcard, hyphen or comparison range is a
// version literal of its expression, so when two ranges overlap the lower
// edge of the overlap is one of those literals or lies just above one.
// Testing each literal and its next patch, minor and major release (plus
// 0.0.0 for ranges without a lower bound) therefore finds a common version
// whenever one exists.
func ConstraintsIntersect(a, b Constraint) bool {
	if a.IsBranch() || b.IsBranch() {
		return a.IsBranch() && b.IsBranch() && a.branch == b.branch
	}
	if a.c == nil || b.c == nil {
		return false
	}

	for _, w := range witnesses(a.raw, b.raw) {
		if a.admits(w) && b.admits(w) {
			return true
		}
	}
	return false
}

// admits is Check with Composer's prerelease rule: a prerelease of a release
// inside a range without prerelease literals is inside the range too.
func (c Constraint) admits(w *mm.Version) bool {
	if c.c.Check(w) {
		return true
	}
	if w.Prerelease() == "" || c.exact || c.prerelease {
		return false
	}
	return c.c.Check(mm.New(w.Major(), w.Minor(), w.Patch(), "", ""))
}

func witnesses(exprs ...string) []*mm.Version {
	seen := map[string]bool{}
	out := []*mm.Version{}
	add := func(v *mm.Version) {
		key := v.String()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, v)
	}

	add(mm.New(0, 0, 0, "", ""))
	for _, expr := range exprs {
		for _, m := range versionLiteral.FindAllStringSubmatch(expr, -1) {
			v, err := mm.NewVersion(literal(m))
			if err != nil {
				continue
			}
			patch, minor, major := v.IncPatch(), v.IncMinor(), v.IncMajor()
			add(v)
			add(&patch)
			add(&minor)
			add(&major)
		}
	}
	return out
}

// literal rebuilds a full major.minor.patch[-pre] string from a versionLiteral
// match, reading wildcards and missing parts as zero.
func literal(m []string) string {
	part := func(s string) string {
		if s == "" || s == "x" || s == "X" || s == "*" {
			return "0"
		}
		return s
	}
	s := m[1] + "." + part(m[2]) + "." + part(m[3])
	if m[4] != "" {
		s += "-" + m[4]
	}
	return s
}
