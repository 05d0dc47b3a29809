package obfmid

import (
	"math/rand"
	"testing"

	"github.com/deobfsec/ldapstrip/ast"
	deobfmid "github.com/deobfsec/ldapstrip/middlewares/deobfuscate"
	"github.com/deobfsec/ldapstrip/parser"
	"github.com/stretchr/testify/assert"
)

func runObf(t *testing.T, m FilterMiddleware, src string) string {
	t.Helper()
	root, err := parser.Parse(src)
	assert.NoError(t, err)
	out, err := m(root)
	assert.NoError(t, err)
	return out.String()
}

func TestRandAddParensObf(t *testing.T) {
	mid := RandAddParensObf(nil, 1, 100)
	assert.Equal(t, "((name=sabi))", runObf(t, mid, "(name=sabi)"))
}

func TestRandDblNegBoolObf(t *testing.T) {
	mid := RandDblNegBoolObf(nil, 100)
	assert.Equal(t, "(!(!(name=sabi)))", runObf(t, mid, "(name=sabi)"))
}

func TestRandSpacingObf(t *testing.T) {
	mid := RandSpacingObf(nil, 1, 100)
	out := runObf(t, mid, "(name=sabi)")
	assert.Equal(t, "( name =sabi )", out)
	// The padded form still parses and means the same thing.
	_, err := parser.Parse(out)
	assert.NoError(t, err)
}

func TestRandAddWildcardObf(t *testing.T) {
	mid := RandAddWildcardObf(nil, 1, 100)
	assert.Equal(t, "(name=sa**bi)", runObf(t, mid, "(name=sa*bi)"))
	// Values without wildcards are left alone: adding one would change the
	// match semantics, not just the spelling.
	assert.Equal(t, "(name=sabi)", runObf(t, mid, "(name=sabi)"))
}

func TestRandHexValueObf(t *testing.T) {
	mid := RandHexValueObf(nil, 100)
	assert.Equal(t, `(name=\73\61\62\69)`, runObf(t, mid, "(name=sabi)"))
	// Wildcards keep their meaning only unescaped.
	assert.Equal(t, `(name=\73\61*\62\69)`, runObf(t, mid, "(name=sa*bi)"))
}

func TestRandAddBoolObf_PreservesSemantics(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	mid := RandAddBoolObf(r, 2, 100)
	out := runObf(t, mid, "(name=sabi)")

	before, err := ast.QueryToFilter("(name=sabi)")
	assert.NoError(t, err)
	after, err := ast.QueryToFilter(out)
	assert.NoError(t, err)
	qb, err := ast.FilterToQuery(before)
	assert.NoError(t, err)
	qa, err := ast.FilterToQuery(after)
	assert.NoError(t, err)
	assert.Equal(t, qb, qa)
}

// Obfuscate, deobfuscate, and check the canonical forms meet in the middle.
func TestObfuscationRoundTrip(t *testing.T) {
	queries := []string{
		"(name=sabi)",
		"(&(a=1)(b=2))",
		"(|(name=sa*bi)(!c=3))",
	}

	r := rand.New(rand.NewSource(11))
	obfChain := &FilterMiddlewareChain{}
	obfChain.Add(FilterMiddlewareDefinition{Name: "AddParens", Func: RandAddParensObf(r, 2, 100)})
	obfChain.Add(FilterMiddlewareDefinition{Name: "DblNegBool", Func: RandDblNegBoolObf(r, 100)})
	obfChain.Add(FilterMiddlewareDefinition{Name: "Spacing", Func: RandSpacingObf(r, 2, 100)})
	obfChain.Add(FilterMiddlewareDefinition{Name: "AddWildcard", Func: RandAddWildcardObf(r, 2, 100)})
	obfChain.Add(FilterMiddlewareDefinition{Name: "HexValue", Func: RandHexValueObf(r, 100)})

	opts := deobfmid.Options{RandomNodePercent: 100, RandomCharPercent: 100}
	deobfChain := &deobfmid.FilterMiddlewareChain{}
	deobfChain.Add(deobfmid.FilterMiddlewareDefinition{Name: "Parens", Func: deobfmid.RemoveRandParensDeobf(opts)})
	deobfChain.Add(deobfmid.FilterMiddlewareDefinition{Name: "BoolOp", Func: deobfmid.RemoveRandBoolOpDeobf(opts)})
	deobfChain.Add(deobfmid.FilterMiddlewareDefinition{Name: "Inversion", Func: deobfmid.RemoveRandInversionDeobf(opts)})
	deobfChain.Add(deobfmid.FilterMiddlewareDefinition{Name: "Spacing", Func: deobfmid.RemoveRandWhitespaceDeobf(opts)})
	deobfChain.Add(deobfmid.FilterMiddlewareDefinition{Name: "Wildcard", Func: deobfmid.RemoveRandWildcardDeobf(opts)})

	for _, query := range queries {
		root, err := parser.Parse(query)
		assert.NoError(t, err)
		obfuscated, err := obfChain.Execute(root, false)
		assert.NoError(t, err)
		assert.NotEqual(t, query, obfuscated.String())

		cleaned := obfuscated
		prev := cleaned.String()
		for i := 0; i < 16; i++ {
			cleaned, err = deobfChain.Execute(cleaned, false)
			assert.NoError(t, err)
			if s := cleaned.String(); s == prev {
				break
			} else {
				prev = s
			}
		}

		before, err := ast.QueryToFilter(query)
		assert.NoError(t, err)
		after, err := ast.QueryToFilter(cleaned.String())
		assert.NoError(t, err)
		qb, err := ast.FilterToQuery(before)
		assert.NoError(t, err)
		qa, err := ast.FilterToQuery(after)
		assert.NoError(t, err)
		assert.Equal(t, qb, qa, "query %q obfuscated to %q cleaned to %q",
			query, obfuscated.String(), cleaned.String())
	}
}
