package parser

import "regexp"

/*
   RDN decomposition of distinguished-name values

   Attribute-schema knowledge is out of scope, so whether a Value holds a DN
   is decided syntactically: at least two comma-separated components, each
   shaped like attr=value. The decomposition is stored as nested sub-tokens
   on the Value token and round-trips: concatenating the sub-token contents
   reproduces the value exactly.
*/

var rdnComponentPattern = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z0-9-]*\s*=`)

// splitUnescapedCommas splits s on commas not preceded by a backslash.
func splitUnescapedCommas(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' && (i == 0 || s[i-1] != '\\') {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// parseRDNTokens decomposes a DN-shaped value into RDN sub-tokens, or returns
// nil when the value is not DN-shaped. start and depth describe the enclosing
// Value token; offsets of sub-tokens are absolute source offsets.
func parseRDNTokens(value string, start, depth int) []*Token {
	parts := splitUnescapedCommas(value)
	if len(parts) < 2 {
		return nil
	}
	for _, part := range parts {
		if !rdnComponentPattern.MatchString(part) {
			return nil
		}
	}

	synthesized := start < 0
	offset := start
	pos := 0
	emit := func(typ TokenType, content string) *Token {
		tokStart := -1
		if !synthesized {
			tokStart = offset + pos
		}
		t := newLexedToken(typ, content, tokStart, depth)
		t.SubType = SubTypeRDN
		pos += len(content)
		return t
	}

	var tokens []*Token
	for i, part := range parts {
		if i > 0 {
			tokens = append(tokens, emit(TokenCommaDelimiter, ","))
		}

		j := 0
		for j < len(part) && isFilterWhitespace(part[j]) {
			j++
		}
		if j > 0 {
			tokens = append(tokens, emit(TokenWhitespace, part[:j]))
		}

		k := j
		for k < len(part) && part[k] != '=' && !isFilterWhitespace(part[k]) {
			k++
		}
		tokens = append(tokens, emit(TokenAttribute, part[j:k]))

		w := k
		for w < len(part) && isFilterWhitespace(part[w]) {
			w++
		}
		if w > k {
			tokens = append(tokens, emit(TokenWhitespace, part[k:w]))
		}

		// The component pattern guarantees part[w] == '='.
		tokens = append(tokens, emit(TokenComparisonOperator, "="))
		w++

		tokens = append(tokens, emit(TokenValue, part[w:]))
	}
	return tokens
}

// rdnContent reassembles a value from its RDN sub-tokens.
func rdnContent(tokens []*Token) string {
	out := ""
	for _, t := range tokens {
		out += t.Content
	}
	return out
}
