package deobfmid

import (
	"strings"

	"github.com/deobfsec/ldapstrip/parser"
)

// RemoveRandWildcardDeobf collapses runs of adjacent unescaped wildcards in
// assertion values: "a**b" matches exactly what "a*b" matches. Escaped
// wildcards (\2a) are literal characters and never touched. Each redundant
// '*' beyond the first of a run is dropped with RandomCharPercent.
func RemoveRandWildcardDeobf(opts Options) FilterMiddleware {
	return func(root *parser.Branch) (*parser.Branch, error) {
		parser.VisitAll(root, func(b, parent *parser.Branch) {
			if b.Type != parser.BranchFilter || b.Filter == nil {
				return
			}
			if !scopeAllows(opts.Scope, b) {
				return
			}
			value := b.Filter.ValueToken()
			if value == nil || value.WildcardCount() < 2 {
				return
			}
			if !opts.chanceNode() {
				return
			}

			var sb strings.Builder
			inRun := false
			changed := false
			for _, c := range value.Chars {
				wild := c.Decoded == '*' && !c.IsEscape
				if wild && inRun && opts.chanceChar() {
					changed = true
					continue
				}
				inRun = wild
				sb.WriteString(c.Encoded)
			}
			if !changed {
				return
			}
			_ = b.Filter.EditToken(parser.TokenValue, sb.String())

			// A value collapsed down to a lone '*' is a presence test;
			// trailing whitespace adds nothing to it.
			if b.Filter.ValueToken().IsWildcardOnly() {
				for i := len(b.Filter.Tokens) - 1; i >= 0; i-- {
					t := b.Filter.Tokens[i]
					if t.Type == parser.TokenWhitespace && t.TypeBefore == parser.TokenValue {
						_ = b.Filter.RemoveTokenAt(i)
					}
				}
			}
		})
		return parser.Rebuild(root)
	}
}
