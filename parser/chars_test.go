package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChars_Plain(t *testing.T) {
	chars := ParseChars("aB3*")
	assert.Len(t, chars, 4)
	assert.Equal(t, 'a', chars[0].Decoded)
	assert.Equal(t, CharClassAlpha, chars[0].Class)
	assert.Equal(t, CharCaseLower, chars[0].Case)
	assert.Equal(t, CharCaseUpper, chars[1].Case)
	assert.Equal(t, CharClassDigit, chars[2].Class)
	assert.Equal(t, CharClassSpecial, chars[3].Class)
	for _, c := range chars {
		assert.False(t, c.IsEscape)
		assert.Equal(t, string(c.Decoded), c.Encoded)
	}
}

func TestParseChars_HexEscapes(t *testing.T) {
	chars := ParseChars(`\73\61\62\69`)
	assert.Len(t, chars, 4)
	assert.Equal(t, "sabi", DecodeEscapes(`\73\61\62\69`))
	assert.Equal(t, `\73`, chars[0].Encoded)
	assert.True(t, chars[0].IsEscape)
}

func TestParseChars_LenientBackslash(t *testing.T) {
	// A backslash not followed by two hex digits stays a literal.
	chars := ParseChars(`a\zb`)
	assert.Len(t, chars, 4)
	assert.Equal(t, '\\', chars[1].Decoded)
	assert.False(t, chars[1].IsEscape)

	// Truncated escape at end of input.
	chars = ParseChars(`a\7`)
	assert.Len(t, chars, 3)
	assert.Equal(t, '\\', chars[1].Decoded)
}

func TestEncodeChars_RoundTrip(t *testing.T) {
	src := `ad\6din*`
	assert.Equal(t, src, EncodeChars(ParseChars(src)))
}

func TestToken_WildcardCount(t *testing.T) {
	tok := NewToken(TokenValue, `*sa\2abi*`)
	// The escaped \2a is a literal asterisk, not a wildcard.
	assert.Equal(t, 2, tok.WildcardCount())
	assert.False(t, tok.IsWildcardOnly())

	only := NewToken(TokenValue, "***")
	assert.Equal(t, 3, only.WildcardCount())
	assert.True(t, only.IsWildcardOnly())

	assert.False(t, NewToken(TokenValue, "").IsWildcardOnly())
	assert.False(t, NewToken(TokenValue, `\2a`).IsWildcardOnly())
}

func TestToken_DecodedContent(t *testing.T) {
	tok := NewToken(TokenValue, `s\61bi`)
	assert.Equal(t, "sabi", tok.DecodedContent())
	assert.Equal(t, 4, tok.DecodedLength())
	assert.Equal(t, 6, tok.Length)
}
