package parser

import "strings"

/*
   Lexer for string-form LDAP search filters

   The lexer keeps every source byte: whitespace, hex escapes and operator
   spelling all survive as tokens, because the deobfuscation transforms need
   to observe and edit exactly what the obfuscator wrote. Offsets and depths
   are annotated on every token; no recovery is attempted on malformed input.
*/

func isFilterWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isBooleanOperatorChar(c byte) bool {
	return c == '&' || c == '|' || c == '!'
}

func isAttributeChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == ';' || c == '_':
		return true
	}
	return false
}

type lexer struct {
	src    string
	pos    int
	depth  int
	tokens []*Token
}

// Lex converts a raw search filter string into its flat token sequence.
// Malformed input yields a *ParseError carrying the offending offset.
func Lex(s string) ([]*Token, error) {
	lx := &lexer{src: s}
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == '(':
			lx.emit(TokenGroupStart, lx.src[lx.pos:lx.pos+1], lx.pos, lx.depth)
			lx.depth++
			lx.pos++
		case c == ')':
			if lx.depth == 0 {
				return nil, parseErrorf(lx.pos, "unbalanced parenthesis: unexpected ')'")
			}
			lx.depth--
			lx.emit(TokenGroupEnd, lx.src[lx.pos:lx.pos+1], lx.pos, lx.depth)
			lx.pos++
		case isFilterWhitespace(c):
			lx.lexWhitespace()
		case isBooleanOperatorChar(c) && lx.lastSignificantType() == TokenGroupStart:
			lx.emit(TokenBooleanOperator, lx.src[lx.pos:lx.pos+1], lx.pos, lx.depth)
			lx.pos++
		default:
			if err := lx.lexFilterBody(); err != nil {
				return nil, err
			}
		}
	}
	if lx.depth != 0 {
		return nil, parseErrorf(len(lx.src), "unbalanced parenthesis: %d unclosed group(s)", lx.depth)
	}
	return lx.tokens, nil
}

func (lx *lexer) emit(typ TokenType, content string, start, depth int) *Token {
	t := newLexedToken(typ, content, start, depth)
	lx.tokens = append(lx.tokens, t)
	return t
}

func (lx *lexer) lastSignificantType() TokenType {
	for i := len(lx.tokens) - 1; i >= 0; i-- {
		if lx.tokens[i].Type != TokenWhitespace {
			return lx.tokens[i].Type
		}
	}
	return TokenUnknown
}

func (lx *lexer) lexWhitespace() {
	start := lx.pos
	for lx.pos < len(lx.src) && isFilterWhitespace(lx.src[lx.pos]) {
		lx.pos++
	}
	lx.emit(TokenWhitespace, lx.src[start:lx.pos], start, lx.depth)
}

// lexFilterBody consumes one comparison clause body:
// attribute, optional extensible-match infix, comparison operator, value.
func (lx *lexer) lexFilterBody() error {
	start := lx.pos
	for lx.pos < len(lx.src) && isAttributeChar(lx.src[lx.pos]) {
		lx.pos++
	}
	if lx.pos == start {
		return parseErrorf(lx.pos, "unexpected character %q", lx.src[lx.pos])
	}
	lx.emit(TokenAttribute, lx.src[start:lx.pos], start, lx.depth)

	if lx.pos < len(lx.src) && isFilterWhitespace(lx.src[lx.pos]) {
		lx.lexWhitespace()
	}
	if lx.pos >= len(lx.src) {
		return parseErrorf(lx.pos, "missing comparison operator")
	}

	switch c := lx.src[lx.pos]; {
	case c == ':':
		eq := strings.IndexByte(lx.src[lx.pos:], '=')
		if eq < 0 {
			return parseErrorf(lx.pos, "extensible match filter is not terminated by '='")
		}
		infix := lx.src[lx.pos : lx.pos+eq]
		if !strings.HasSuffix(infix, ":") {
			return parseErrorf(lx.pos+eq, "extensible match filter must end with ':' before '='")
		}
		lx.emit(TokenExtensibleMatchFilter, infix, lx.pos, lx.depth)
		lx.pos += eq
		lx.emit(TokenComparisonOperator, "=", lx.pos, lx.depth)
		lx.pos++
	case c == '=':
		lx.emit(TokenComparisonOperator, "=", lx.pos, lx.depth)
		lx.pos++
	case (c == '~' || c == '>' || c == '<') && lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '=':
		lx.emit(TokenComparisonOperator, lx.src[lx.pos:lx.pos+2], lx.pos, lx.depth)
		lx.pos += 2
	default:
		return parseErrorf(lx.pos, "expected comparison operator, found %q", c)
	}

	if lx.pos < len(lx.src) && isFilterWhitespace(lx.src[lx.pos]) {
		lx.lexWhitespace()
	}

	valStart := lx.pos
	for lx.pos < len(lx.src) && lx.src[lx.pos] != ')' && lx.src[lx.pos] != '(' {
		lx.pos++
	}
	if lx.pos < len(lx.src) && lx.src[lx.pos] == '(' {
		return parseErrorf(lx.pos, "unescaped '(' inside value")
	}
	raw := lx.src[valStart:lx.pos]

	end := len(raw)
	for end > 0 && isFilterWhitespace(raw[end-1]) {
		end--
	}
	value := lx.emit(TokenValue, raw[:end], valStart, lx.depth)
	value.TokenList = parseRDNTokens(raw[:end], valStart, lx.depth)
	if end < len(raw) {
		lx.emit(TokenWhitespace, raw[end:], valStart+end, lx.depth)
	}
	return nil
}
