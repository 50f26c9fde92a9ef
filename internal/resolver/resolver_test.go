package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bracket6 Identifier = "Bracket_6"

var scenarioTable = Table{
	{Target: CMSDefault, Constraints: []string{"^0.0", "^0.1", "^0.2", "^0.3", "^0.4", "^0.5"}},
	{Target: bracket6, Constraints: []string{"^0.6", "^0.7"}},
}

// TestResolveScenarioA verifies ^0.6 selects the bracket listing it and the 5.4 framework.
func TestResolveScenarioA(t *testing.T) {
	id, err := Resolve("^0.6", scenarioTable, FallbackTo(LatestCMS))
	require.NoError(t, err)
	assert.Equal(t, bracket6, id)

	framework, err := ResolveFramework("^0.6")
	require.NoError(t, err)
	assert.Equal(t, Framework54, framework)
}

// TestResolveScenarioB verifies an unlisted release falls back for the CMS
// but is an error for the framework.
func TestResolveScenarioB(t *testing.T) {
	assert.Equal(t, LatestCMS, ResolveCMS("^0.10"))

	_, err := ResolveFramework("^0.10")
	require.Error(t, err)

	var unresolved *UnresolvedVersionError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "^0.10", unresolved.Requested)
	assert.Contains(t, err.Error(), `"^0.10"`)
}

func TestResolveFramework(t *testing.T) {
	cases := map[string]Identifier{
		"^0.9":            Framework54,
		"^0.6":            Framework54,
		"dev-master":      Framework54,
		"dev-release/0.8": Framework54,
		"^0.5":            Framework53,
		"^0.4":            Framework53,
		"^0.3":            Framework52,
		"^0.0":            Framework52,
		"0.4.2":           Framework53,
		"0.6.0-beta1":     Framework54,
		"0.8.1-rc.1":      Framework54,
		"0.5.0-alpha":     Framework53,
		"dev-master@dev":  Framework54,
	}
	for requested, want := range cases {
		got, err := ResolveFramework(requested)
		require.NoError(t, err, requested)
		assert.Equal(t, want, got, requested)
	}
}

func TestResolveCMS(t *testing.T) {
	cases := map[string]Identifier{
		"^0.5":        CMSDefault,
		"^0.1":        CMSDefault,
		"^0.6":        CMS06,
		"^0.7":        CMS06,
		"^0.8":        CMS08,
		"^0.9":        CMS08,
		"^0.10":       CMS010,
		"^1.0":        CMS010,
		"dev-master":  CMS010,
		"0.6.0-beta1": CMS06,
		"0.8.1-rc.1":  CMS08,
		"0.4.0-beta":  CMSDefault,
	}
	for requested, want := range cases {
		assert.Equal(t, want, ResolveCMS(requested), requested)
	}
}

// TestResolveFirstMatchWins verifies that when several brackets match, the
// one declared first is chosen.
func TestResolveFirstMatchWins(t *testing.T) {
	table := Table{
		{Target: "narrow", Constraints: []string{"^0.8"}},
		{Target: "broad", Constraints: []string{">=0.0"}},
	}
	id, err := Resolve("^0.8", table, Strict())
	require.NoError(t, err)
	assert.Equal(t, Identifier("narrow"), id)

	id, err = Resolve("^0.3", table, Strict())
	require.NoError(t, err)
	assert.Equal(t, Identifier("broad"), id)

	reversed := Table{table[1], table[0]}
	id, err = Resolve("^0.8", reversed, Strict())
	require.NoError(t, err)
	assert.Equal(t, Identifier("broad"), id)
}

// TestResolveIsDeterministic verifies repeated resolution gives the same answer.
func TestResolveIsDeterministic(t *testing.T) {
	for _, requested := range []string{"^0.6", "^0.9", "^0.10", "dev-develop", ">=0.4 <0.6"} {
		first := ResolveCMS(requested)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, ResolveCMS(requested), requested)
		}
	}
}

// TestResolveWithMatcher verifies the matcher decides membership and
// declaration order is respected.
func TestResolveWithMatcher(t *testing.T) {
	var calls []string
	exact := func(requested, candidate string) bool {
		calls = append(calls, candidate)
		return requested == candidate
	}
	table := Table{
		{Target: "a", Constraints: []string{"x", "y"}},
		{Target: "b", Constraints: []string{"z"}},
	}

	id, err := ResolveWith(exact, "z", table, Strict())
	require.NoError(t, err)
	assert.Equal(t, Identifier("b"), id)
	assert.Equal(t, []string{"x", "y", "z"}, calls)

	id, err = ResolveWith(exact, "q", table, FallbackTo("b"))
	require.NoError(t, err)
	assert.Equal(t, Identifier("b"), id)

	_, err = ResolveWith(exact, "", Table{}, Strict())
	var unresolved *UnresolvedVersionError
	require.ErrorAs(t, err, &unresolved)
}
