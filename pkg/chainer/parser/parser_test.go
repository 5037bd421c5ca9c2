package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/kb"
	"github.com/cognicore/chainer/pkg/chainer/term"
)

func TestParseFactLine(t *testing.T) {
	f, err := ParseFactLine("  is_a   bert transformer \n")
	require.NoError(t, err)
	assert.True(t, f.Predicate.Equal(term.NewPredicate("is_a", "bert", "transformer")))
	assert.True(t, f.Asserted)

	f, err = ParseFactLine("likes ?who pizza")
	require.NoError(t, err)
	assert.True(t, f.Predicate.Terms[0].IsVariable())

	_, err = ParseFactLine("   ")
	assert.True(t, errors.Is(err, internalerr.ErrParse))

	_, err = ParseFactLine("p a & q a")
	assert.True(t, errors.Is(err, internalerr.ErrParse))
}

func TestParseRuleLine(t *testing.T) {
	r, err := ParseRuleLine("parent ?x ?y & parent ?y ?z -> grandparent ?x ?z")
	require.NoError(t, err)
	require.Len(t, r.LHS, 2)
	assert.Equal(t, "parent ?x ?y", r.LHS[0].String())
	assert.Equal(t, "parent ?y ?z", r.LHS[1].String())
	assert.Equal(t, "grandparent ?x ?z", r.RHS.String())
	assert.True(t, r.Asserted)

	r, err = ParseRuleLine("p ?x->q ?x")
	require.NoError(t, err)
	assert.Equal(t, "p ?x -> q ?x", r.String())
}

func TestParseRuleLineErrors(t *testing.T) {
	bad := []string{
		"p ?x q ?x",
		"p ?x -> q ?x -> r ?x",
		"p ?x ->",
		"-> q a",
		"p ?x & & r ?x -> q ?x",
	}
	for _, line := range bad {
		_, err := ParseRuleLine(line)
		assert.True(t, errors.Is(err, internalerr.ErrParse), line)
	}
}

func TestParseStatement(t *testing.T) {
	item, err := ParseStatement("p a")
	require.NoError(t, err)
	assert.IsType(t, &kb.Fact{}, item)

	item, err = ParseStatement("p ?x -> q ?x")
	require.NoError(t, err)
	assert.IsType(t, &kb.Rule{}, item)
}

func TestParseFactsSkipsCommentsAndBlanks(t *testing.T) {
	input := `
# AI taxonomy
is_a bert transformer

is_a transformer neural-network
`
	facts, err := ParseFacts(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "is_a transformer neural-network", facts[1].String())
}

func TestParseRulesReportsLine(t *testing.T) {
	input := "p ?x -> q ?x\n# ok\nbroken rule\n"
	_, err := ParseRules(strings.NewReader(input))
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrParse))
	assert.Contains(t, err.Error(), "line 3")
}

func TestParseStatementsMixed(t *testing.T) {
	items, err := ParseStatements(strings.NewReader("p a\np ?x -> q ?x\n"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p a", items[0].String())
	assert.Equal(t, "p ?x -> q ?x", items[1].String())
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	factsPath := filepath.Join(dir, "facts.txt")
	rulesPath := filepath.Join(dir, "rules.txt")
	require.NoError(t, os.WriteFile(factsPath, []byte("p a\np b\n"), 0644))
	require.NoError(t, os.WriteFile(rulesPath, []byte("p ?x -> q ?x\n"), 0644))

	facts, err := ParseFactsFile(factsPath)
	require.NoError(t, err)
	assert.Len(t, facts, 2)

	rules, err := ParseRulesFile(rulesPath)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	_, err = ParseFactsFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
	_, err = ParseRulesFile(factsPath)
	assert.Contains(t, err.Error(), factsPath)
}
