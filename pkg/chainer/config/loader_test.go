package config

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	require.NoError(t, err, "empty loader should succeed")
	assert.Equal(t, Default(), comp.Config)
	assert.Empty(t, comp.Facts)
	assert.Empty(t, comp.Rules)
}

func TestLoaderFiles(t *testing.T) {
	loader := Loader{
		ConfigPath: writeFile(t, "chainer.yaml", "engine:\n  max_derivations: 10\n"),
		FactsPath:  writeFile(t, "facts.txt", "# people\nparent alice bob\nparent bob carol\n"),
		RulesPath:  writeFile(t, "rules.txt", "parent ?x ?y -> ancestor ?x ?y\n"),
	}

	comp, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 10, comp.Config.Engine.MaxDerivations)
	require.Len(t, comp.Facts, 2)
	assert.Equal(t, "parent alice bob", comp.Facts[0].String())
	require.Len(t, comp.Rules, 1)
	assert.Equal(t, "parent ?x ?y -> ancestor ?x ?y", comp.Rules[0].String())
}

func TestLoaderNonExistentFacts(t *testing.T) {
	loader := Loader{FactsPath: "/nonexistent/facts.txt"}

	_, err := loader.Load()
	assert.Error(t, err)
}

func TestLoaderBadRules(t *testing.T) {
	loader := Loader{RulesPath: writeFile(t, "rules.txt", "p ?x q ?x\n")}

	_, err := loader.Load()
	assert.True(t, errors.Is(err, internalerr.ErrParse))
}
