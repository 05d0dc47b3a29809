package ast

import (
	"testing"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/stretchr/testify/assert"
)

// encode/decode through real BER bytes so the decoded packet carries the
// byte values the way a packet read off the wire would.
func berRoundTrip(t *testing.T, f Filter) Filter {
	t.Helper()
	packet := FilterToPacket(f)
	assert.NotNil(t, packet)
	decoded, err := ber.DecodePacketErr(packet.Bytes())
	assert.NoError(t, err)
	out, err := PacketToFilter(decoded)
	assert.NoError(t, err)
	return out
}

func assertSameQuery(t *testing.T, want, got Filter) {
	t.Helper()
	qw, err := FilterToQuery(want)
	assert.NoError(t, err)
	qg, err := FilterToQuery(got)
	assert.NoError(t, err)
	assert.Equal(t, qw, qg)
}

func TestBER_EqualityMatch(t *testing.T) {
	f := &FilterEqualityMatch{AttributeDesc: "cn", AssertionValue: "John Doe"}
	assertSameQuery(t, f, berRoundTrip(t, f))
}

func TestBER_Composite(t *testing.T) {
	f := &FilterAnd{Filters: []Filter{
		&FilterEqualityMatch{AttributeDesc: "objectClass", AssertionValue: "user"},
		&FilterNot{Filter: &FilterOr{Filters: []Filter{
			&FilterEqualityMatch{AttributeDesc: "cn", AssertionValue: "admin"},
			&FilterGreaterOrEqual{AttributeDesc: "age", AssertionValue: "65"},
		}}},
	}}
	assertSameQuery(t, f, berRoundTrip(t, f))
}

func TestBER_Substring(t *testing.T) {
	f := &FilterSubstring{AttributeDesc: "cn", Substrings: []SubstringFilter{
		{Initial: "John"},
		{Any: []string{"Q"}},
		{Final: "Doe"},
	}}
	assertSameQuery(t, f, berRoundTrip(t, f))
}

func TestBER_Present(t *testing.T) {
	f := &FilterPresent{AttributeDesc: "objectClass"}
	assertSameQuery(t, f, berRoundTrip(t, f))
}

func TestBER_ExtensibleMatch(t *testing.T) {
	f := &FilterExtensibleMatch{
		MatchingRule:  "1.2.840.113556.1.4.803",
		AttributeDesc: "userAccountControl",
		MatchValue:    "2",
		DNAttributes:  true,
	}
	out := berRoundTrip(t, f)
	em, ok := out.(*FilterExtensibleMatch)
	assert.True(t, ok)
	assert.Equal(t, f.MatchingRule, em.MatchingRule)
	assert.Equal(t, f.AttributeDesc, em.AttributeDesc)
	assert.Equal(t, f.MatchValue, em.MatchValue)
	assert.True(t, em.DNAttributes)
}

func TestBER_RejectsMalformed(t *testing.T) {
	packet := ber.Encode(ber.ClassContext, ber.TypeConstructed, tagNot, nil, "NOT")
	_, err := PacketToFilter(packet)
	assert.ErrorContains(t, err, "exactly 1 child")
}
