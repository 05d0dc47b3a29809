package parser

import (
	"strings"

	"github.com/google/uuid"
)

/*
   Token-level model for LDAP search filters
   References:
	- RFC4510 - LDAP: Technical Specification
	- RFC4515 - LDAP: String Representation of Search Filters
	- MS-ADTS 3.1.1.3.1.3.1 - Search Filters
*/

// TokenType classifies a lexed slice of a search filter.
type TokenType int

const (
	TokenUnknown TokenType = iota
	TokenGroupStart
	TokenGroupEnd
	TokenBooleanOperator
	TokenAttribute
	TokenExtensibleMatchFilter
	TokenComparisonOperator
	TokenValue
	TokenWhitespace
	TokenCommaDelimiter
)

var tokenTypeNames = map[TokenType]string{
	TokenUnknown:               "Unknown",
	TokenGroupStart:            "GroupStart",
	TokenGroupEnd:              "GroupEnd",
	TokenBooleanOperator:       "BooleanOperator",
	TokenAttribute:             "Attribute",
	TokenExtensibleMatchFilter: "ExtensibleMatchFilter",
	TokenComparisonOperator:    "ComparisonOperator",
	TokenValue:                 "Value",
	TokenWhitespace:            "Whitespace",
	TokenCommaDelimiter:        "CommaDelimiter",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// TokenSubType refines TokenType for tokens that live inside another token.
type TokenSubType int

const (
	SubTypeNone TokenSubType = iota

	// SubTypeRDN marks a token that is one component of an RDN
	// decomposition nested inside a distinguished-name Value token.
	SubTypeRDN
)

// Token is one lexed unit of a search filter. Content always holds the raw
// source text, hex escapes included; the decoded view lives in Chars.
//
// Start is the offset into the source the token was lexed from, or -1 for
// tokens synthesized by a mutation primitive. Guid survives serialization
// round trips and is the identity used to find a token again after a
// reparse.
type Token struct {
	Guid    uuid.UUID
	Content string
	Type    TokenType
	SubType TokenSubType
	Start   int
	Length  int
	Depth   int

	// Enrichment layer: the types of the adjacent tokens in the flat
	// token stream. TokenUnknown at the stream boundaries.
	TypeBefore TokenType
	TypeAfter  TokenType

	// Nested tokens: RDN components of a DN-shaped Value, or the original
	// runs of a merged Whitespace token.
	TokenList []*Token

	// Per-character parse metadata (hex escapes resolved).
	Chars []ParsedChar

	// Modified is set when a transform created or rewrote this token.
	Modified bool
}

// NewToken builds a synthesized token (Start = -1). It is the only sanctioned
// way to create tokens outside the lexer.
func NewToken(typ TokenType, content string) *Token {
	t := &Token{
		Guid:    uuid.New(),
		Content: content,
		Type:    typ,
		Start:   -1,
		Length:  len(content),
	}
	t.Chars = ParseChars(content)
	return t
}

func newLexedToken(typ TokenType, content string, start int, depth int) *Token {
	t := &Token{
		Guid:    uuid.New(),
		Content: content,
		Type:    typ,
		Start:   start,
		Length:  len(content),
		Depth:   depth,
	}
	t.Chars = ParseChars(content)
	return t
}

// SetContent rewrites the raw content and re-derives the per-character
// metadata. Callers outside this package must go through EditToken.
func (t *Token) SetContent(content string) {
	t.Content = content
	t.Length = len(content)
	t.Chars = ParseChars(content)
	t.TokenList = nil
}

// DecodedContent returns the content with all \XX hex escapes resolved.
func (t *Token) DecodedContent() string {
	var b strings.Builder
	for _, c := range t.Chars {
		b.WriteRune(c.Decoded)
	}
	return b.String()
}

// DecodedLength is the character count after escape resolution. Several
// transforms size their edits on the decoded form while editing the encoded
// form, so both lengths stay queryable.
func (t *Token) DecodedLength() int {
	return len(t.Chars)
}

// WildcardCount counts literal (unescaped) '*' characters.
func (t *Token) WildcardCount() int {
	n := 0
	for _, c := range t.Chars {
		if c.Decoded == '*' && !c.IsEscape {
			n++
		}
	}
	return n
}

// IsWildcardOnly reports whether the decoded content is a nonempty run of
// literal wildcards.
func (t *Token) IsWildcardOnly() bool {
	if len(t.Chars) == 0 {
		return false
	}
	for _, c := range t.Chars {
		if c.Decoded != '*' || c.IsEscape {
			return false
		}
	}
	return true
}

// matches reports whether other denotes the same token: identity first, then
// content and position as a consistency cross-check.
func (t *Token) matches(other *Token) bool {
	return t.Guid == other.Guid && t.Content == other.Content && t.Start == other.Start
}
