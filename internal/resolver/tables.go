package resolver

// Framework versions the installer knows how to scaffold.
const (
	Framework52 Identifier = "5.2"
	Framework53 Identifier = "5.3"
	Framework54 Identifier = "5.4"
)

// CMS capability brackets, oldest first.
const (
	CMSDefault Identifier = "default"
	CMS06      Identifier = "0.6"
	CMS08      Identifier = "0.8"
	CMS010     Identifier = "0.10"
)

// LatestCMS is assumed forward-compatible with releases newer than any table entry.
const LatestCMS = CMS010

// FrameworkVersions maps CMS release constraints to the framework release they were built on.
var FrameworkVersions = Table{
	{Target: Framework54, Constraints: []string{
		"^0.9", "^0.8", "^0.7", "^0.6",
		"dev-release/0.9", "dev-release/0.8", "dev-release/0.7", "dev-release/0.6",
		"dev-master", "dev-develop",
	}},
	{Target: Framework53, Constraints: []string{"^0.5", "^0.4"}},
	{Target: Framework52, Constraints: []string{"^0.3", "^0.2", "^0.1", "^0.0"}},
}

// CMSVersions maps CMS release constraints to the capability bracket whose
// setup steps apply to them.
var CMSVersions = Table{
	{Target: CMSDefault, Constraints: []string{"^0.5", "^0.4", "^0.3", "^0.2", "^0.1", "^0.0"}},
	{Target: CMS06, Constraints: []string{"^0.6", "^0.7"}},
	{Target: CMS08, Constraints: []string{"^0.8", "^0.9"}},
}

// ResolveFramework picks the framework release to download for requested.
// Guessing here would download the wrong archive, so an unmatched request
// is an error.
func ResolveFramework(requested string) (Identifier, error) {
	return Resolve(requested, FrameworkVersions, Strict())
}

// ResolveCMS picks the capability bracket for requested. Unlike
// ResolveFramework it never fails: releases newer than the table are
// installed with the latest known steps.
func ResolveCMS(requested string) Identifier {
	id, _ := Resolve(requested, CMSVersions, FallbackTo(LatestCMS))
	return id
}
