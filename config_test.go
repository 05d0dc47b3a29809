package main

import (
	"os"
	"path/filepath"
	"testing"

	deobfmid "github.com/deobfsec/ldapstrip/middlewares/deobfuscate"
	"github.com/deobfsec/ldapstrip/parser"
	"github.com/stretchr/testify/assert"
)

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yml")
	data := []byte(`
chain: PBX
node_percent: 75
seed: 1337
track: true
adjacent_types:
  - GroupStart
  - Value
`)
	assert.NoError(t, os.WriteFile(path, data, 0o644))

	p, err := LoadProfile(path)
	assert.NoError(t, err)
	assert.Equal(t, "PBX", p.Chain)
	assert.Equal(t, 75, *p.NodePercent)
	assert.Nil(t, p.CharPercent)
	assert.Equal(t, int64(1337), *p.Seed)
	assert.True(t, *p.Track)
	assert.Equal(t, []string{"GroupStart", "Value"}, p.AdjacentTypes)
}

func TestLoadProfile_Missing(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorContains(t, err, "reading profile")
}

func TestParseAdjacentTypes(t *testing.T) {
	types, err := parseAdjacentTypes([]string{"GroupStart", " value ", "BOOLEANOPERATOR"})
	assert.NoError(t, err)
	assert.Equal(t, []parser.TokenType{
		parser.TokenGroupStart,
		parser.TokenValue,
		parser.TokenBooleanOperator,
	}, types)

	_, err = parseAdjacentTypes([]string{"Whitespace"})
	assert.ErrorContains(t, err, "unknown token type")
}

func TestBuildChain(t *testing.T) {
	SetupFilterMidMap(deobfmid.Options{RandomNodePercent: 100, RandomCharPercent: 100})

	chain, err := BuildChain("PBISWX")
	assert.NoError(t, err)
	var names []string
	for _, m := range chain.Middlewares {
		names = append(names, m.Name)
		assert.NotNil(t, m.Func)
	}
	assert.Equal(t, []string{"Parens", "BoolOp", "Inversion", "Spacing", "Wildcard", "ExtMatch"}, names)

	_, err = BuildChain("PZ")
	assert.ErrorContains(t, err, "unknown middleware flag")
}

func TestBuildObfChain(t *testing.T) {
	SetupObfMidMap(nil, 100)

	chain, err := BuildObfChain("PD")
	assert.NoError(t, err)
	assert.Len(t, chain.Middlewares, 2)
	assert.Equal(t, "AddParens", chain.Middlewares[0].Name)
	assert.Equal(t, "DblNegBool", chain.Middlewares[1].Name)

	_, err = BuildObfChain("Q")
	assert.ErrorContains(t, err, "unknown middleware flag")
}

func TestNewRand(t *testing.T) {
	assert.Nil(t, newRand(0))

	a, b := newRand(7), newRand(7)
	for i := 0; i < 8; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV("  "))
	assert.Equal(t, []string{"a", "b"}, splitCSV("a,b"))
}
