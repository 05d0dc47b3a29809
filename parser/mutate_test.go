package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, src string) *Branch {
	t.Helper()
	root, err := Parse(src)
	assert.NoError(t, err)
	return root
}

func TestFilter_AddToken(t *testing.T) {
	root := mustParse(t, "(name=sabi)")
	f := root.NestedBranches()[0].Filter

	ws := NewToken(TokenWhitespace, "  ")
	assert.NoError(t, f.AddToken(LocAfterGroupStart, ws))
	assert.Equal(t, "(  name=sabi)", f.Content)
	assert.True(t, ws.Modified)
}

func TestFilter_AddToken_NextOfKinFallback(t *testing.T) {
	// No operator token yet: the operator location falls back to the spot
	// right after the opening parenthesis.
	root := mustParse(t, "(name=sabi)")
	f := root.NestedBranches()[0].Filter
	assert.NoError(t, f.AddToken(LocAfterBooleanOperator, NewToken(TokenBooleanOperator, "!")))
	assert.Equal(t, "(!name=sabi)", f.Content)
}

func TestFilter_AddToken_BareClause(t *testing.T) {
	root := mustParse(t, "name=sabi")
	f := root.NestedBranches()[0].Filter
	assert.NoError(t, f.AddToken(LocAfterGroupStart, NewToken(TokenWhitespace, " ")))
	assert.Equal(t, " name=sabi", f.Content)
}

func TestFilter_AddToken_UnknownLocation(t *testing.T) {
	root := mustParse(t, "(name=sabi)")
	f := root.NestedBranches()[0].Filter
	err := f.AddToken(TokenLocation("beside_value"), NewToken(TokenWhitespace, " "))
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "AddToken", verr.Op)
}

func TestFilter_RemoveToken(t *testing.T) {
	root := mustParse(t, "(!name=sabi)")
	f := root.NestedBranches()[0].Filter
	assert.NoError(t, f.RemoveToken(TokenBooleanOperator))
	assert.Equal(t, "(name=sabi)", f.Content)
	assert.Nil(t, f.OperatorToken())

	assert.Error(t, f.RemoveToken(TokenBooleanOperator))
}

func TestFilter_EditToken(t *testing.T) {
	root := mustParse(t, "(name=sabi)")
	f := root.NestedBranches()[0].Filter
	assert.NoError(t, f.EditToken(TokenValue, "dbo"))
	assert.Equal(t, "(name=dbo)", f.Content)
	assert.True(t, f.ValueToken().Modified)
}

func TestFilter_EditToken_RederivesRDN(t *testing.T) {
	root := mustParse(t, "(member=x)")
	f := root.NestedBranches()[0].Filter
	assert.NoError(t, f.EditToken(TokenValue, "CN=sabi,OU=users"))
	assert.NotEmpty(t, f.ValueToken().TokenList)
	assert.Equal(t, "CN=sabi,OU=users", rdnContent(f.ValueToken().TokenList))

	assert.NoError(t, f.EditToken(TokenValue, "plain"))
	assert.Empty(t, f.ValueToken().TokenList)
}

func TestStripGroup(t *testing.T) {
	root := mustParse(t, "((name=sabi))")
	outer := root.NestedBranches()[0]
	assert.NoError(t, StripGroup(root, outer))
	assert.Equal(t, "(name=sabi)", root.String())
}

func TestStripGroup_Refusals(t *testing.T) {
	// Operator-bearing group.
	root := mustParse(t, "(&(name=sabi))")
	assert.Error(t, StripGroup(root, root.NestedBranches()[0]))

	// Multiple children.
	root = mustParse(t, "(&(a=1)(b=2))")
	list := root.NestedBranches()[0]
	assert.Error(t, StripGroup(root, list))

	// Synthetic root.
	assert.Error(t, StripGroup(nil, root))

	// Filter branch.
	root = mustParse(t, "(name=sabi)")
	assert.Error(t, StripGroup(root, root.NestedBranches()[0]))
}

func TestBranch_RemoveOperator(t *testing.T) {
	root := mustParse(t, "(|(name=sabi))")
	list := root.NestedBranches()[0]
	assert.NoError(t, list.RemoveOperator())
	assert.Equal(t, "", list.BooleanOperator)
	assert.Equal(t, "((name=sabi))", root.String())
}

func TestBranch_RemoveOperator_ClauseScope(t *testing.T) {
	root := mustParse(t, "(!name=sabi)")
	clause := root.NestedBranches()[0]
	assert.NoError(t, clause.RemoveOperator())
	assert.Equal(t, "(name=sabi)", root.String())
	assert.Equal(t, "", clause.BooleanOperator)
}

func TestBranch_RemoveOperator_MultiChildGuard(t *testing.T) {
	root := mustParse(t, "(&(a=1)(b=2))")
	list := root.NestedBranches()[0]
	assert.Error(t, list.RemoveOperator())
	assert.Equal(t, "&", list.BooleanOperator)
}

func TestBranch_SetOperator(t *testing.T) {
	root := mustParse(t, "(&(a=1)(b=2))")
	list := root.NestedBranches()[0]
	assert.NoError(t, list.SetOperator("|"))
	assert.Equal(t, "(|(a=1)(b=2))", root.String())
	assert.True(t, list.OperatorToken().Modified)
}

func TestBranch_SetOperator_InstallsWhenAbsent(t *testing.T) {
	root := mustParse(t, "((name=sabi))")
	list := root.NestedBranches()[0]
	assert.NoError(t, list.SetOperator("&"))
	assert.Equal(t, "(&(name=sabi))", root.String())

	assert.Error(t, list.SetOperator("x"))
	assert.Error(t, list.SetOperator(""))
	assert.Error(t, list.SetOperator("&&"))
}

func TestWrapGroup(t *testing.T) {
	root := mustParse(t, "(name=sabi)")
	clause := root.NestedBranches()[0]

	wrapper, err := WrapGroup(root, clause, "")
	assert.NoError(t, err)
	assert.Equal(t, "((name=sabi))", root.String())
	assert.Equal(t, "", wrapper.BooleanOperator)

	_, err = WrapGroup(root, wrapper, "!")
	assert.NoError(t, err)
	assert.Equal(t, "(!((name=sabi)))", root.String())
}

func TestWrapGroup_Refusals(t *testing.T) {
	root := mustParse(t, "(name=sabi)")
	clause := root.NestedBranches()[0]

	_, err := WrapGroup(nil, root, "")
	assert.Error(t, err)
	_, err = WrapGroup(root, clause, "&&")
	assert.Error(t, err)
}

func TestWrapGroup_RebuildRestoresInvariants(t *testing.T) {
	root := mustParse(t, "(name=sabi)")
	clause := root.NestedBranches()[0]
	_, err := WrapGroup(root, clause, "|")
	assert.NoError(t, err)

	fresh, err := Rebuild(root)
	assert.NoError(t, err)
	assert.Equal(t, "(|(name=sabi))", fresh.String())
	inner := fresh.NestedBranches()[0].NestedBranches()[0]
	assert.Equal(t, "|", inner.Context.BooleanOperator.Chain())
}
