package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func evalQuery(t *testing.T, query string, entry Entry) bool {
	t.Helper()
	f, err := QueryToFilter(query)
	assert.NoError(t, err)
	return Matches(f, entry)
}

func TestMatches_Equality(t *testing.T) {
	entry := Entry{"cn": {"John Doe"}, "sAMAccountName": {"jdoe"}}
	assert.True(t, evalQuery(t, "(cn=John Doe)", entry))
	// Attribute names and values compare case-insensitively.
	assert.True(t, evalQuery(t, "(CN=john doe)", entry))
	assert.True(t, evalQuery(t, "(samaccountname=JDOE)", entry))
	assert.False(t, evalQuery(t, "(cn=Jane)", entry))
	assert.False(t, evalQuery(t, "(missing=x)", entry))
}

func TestMatches_Present(t *testing.T) {
	entry := Entry{"mail": {"a@b.c"}}
	assert.True(t, evalQuery(t, "(mail=*)", entry))
	assert.False(t, evalQuery(t, "(phone=*)", entry))
}

func TestMatches_Substring(t *testing.T) {
	entry := Entry{"cn": {"Administrator"}}
	assert.True(t, evalQuery(t, "(cn=Admin*)", entry))
	assert.True(t, evalQuery(t, "(cn=*strator)", entry))
	assert.True(t, evalQuery(t, "(cn=Ad*ni*or)", entry))
	assert.False(t, evalQuery(t, "(cn=Admin*x)", entry))
	assert.False(t, evalQuery(t, "(cn=x*)", entry))
}

func TestMatches_Ordering(t *testing.T) {
	entry := Entry{"age": {"30"}, "name": {"bob"}}
	assert.True(t, evalQuery(t, "(age>=25)", entry))
	assert.True(t, evalQuery(t, "(age<=30)", entry))
	// Numeric, not lexicographic: "30" >= "25" even though '3' > '2' both ways.
	assert.False(t, evalQuery(t, "(age>=100)", entry))
	// Non-numeric falls back to string ordering.
	assert.True(t, evalQuery(t, "(name>=alice)", entry))
}

func TestMatches_BooleanComposition(t *testing.T) {
	entry := Entry{"a": {"1"}, "b": {"2"}}
	assert.True(t, evalQuery(t, "(&(a=1)(b=2))", entry))
	assert.False(t, evalQuery(t, "(&(a=1)(b=3))", entry))
	assert.True(t, evalQuery(t, "(|(a=9)(b=2))", entry))
	assert.True(t, evalQuery(t, "(!(a=9))", entry))
	assert.False(t, evalQuery(t, "(!(a=1))", entry))
}

func TestMatches_BitwiseRules(t *testing.T) {
	entry := Entry{"userAccountControl": {"514"}} // 0x202: disabled account
	assert.True(t, evalQuery(t, "(userAccountControl:1.2.840.113556.1.4.803:=2)", entry))
	assert.False(t, evalQuery(t, "(userAccountControl:1.2.840.113556.1.4.803:=3)", entry))
	assert.True(t, evalQuery(t, "(userAccountControl:1.2.840.113556.1.4.804:=3)", entry))
	assert.False(t, evalQuery(t, "(userAccountControl:1.2.840.113556.1.4.804:=8)", entry))
}

func TestMatches_InChainDegradesToEquality(t *testing.T) {
	entry := Entry{"memberOf": {"CN=admins,DC=x"}}
	assert.True(t, evalQuery(t, "(memberOf:1.2.840.113556.1.4.1941:=CN=admins,DC=x)", entry))
}

func TestMatches_UnknownRules(t *testing.T) {
	entry := Entry{"name": {"sabi"}}
	// No period: the server ignores the rule and matches plainly.
	assert.True(t, evalQuery(t, "(name:timeSaved:=sabi)", entry))
	// Period-bearing bogus rule: permanently false, so the negation is
	// permanently true.
	assert.False(t, evalQuery(t, "(name:1.3.3.7:=sabi)", entry))
	assert.True(t, evalQuery(t, "(!name:1.3.3.7:=sabi)", entry))
	assert.True(t, evalQuery(t, "(!name:.:=sabi)", entry))
}
