package deobfmid

import (
	"github.com/deobfsec/ldapstrip/parser"
)

// RemoveRandWhitespaceDeobf removes insignificant whitespace: runs between
// grouping tokens and operators, runs around comparison operators inside
// clauses, and runs between the components of DN-shaped values. Whitespace
// inside a value's assertion text is significant and never touched.
//
// AdjacentTypes, when set, restricts removal to runs that touch at least
// one token of the given types.
func RemoveRandWhitespaceDeobf(opts Options) FilterMiddleware {
	adjacentOK := func(before, after parser.TokenType) bool {
		if len(opts.AdjacentTypes) == 0 {
			return true
		}
		for _, t := range opts.AdjacentTypes {
			if t == before || t == after {
				return true
			}
		}
		return false
	}

	return func(root *parser.Branch) (*parser.Branch, error) {
		parser.VisitAll(root, func(b, parent *parser.Branch) {
			if !scopeAllows(opts.Scope, b) {
				return
			}
			if b.Type == parser.BranchFilterList {
				var kept []parser.Item
				for _, it := range b.Items {
					if it.Token != nil && it.Token.Type == parser.TokenWhitespace &&
						adjacentOK(it.Token.TypeBefore, it.Token.TypeAfter) && opts.chanceNode() {
						continue
					}
					kept = append(kept, it)
				}
				b.Items = kept
				return
			}

			f := b.Filter
			if f == nil {
				return
			}
			for i := len(f.Tokens) - 1; i >= 0; i-- {
				t := f.Tokens[i]
				if t.Type == parser.TokenWhitespace &&
					adjacentOK(t.TypeBefore, t.TypeAfter) && opts.chanceNode() {
					_ = f.RemoveTokenAt(i)
					continue
				}
				if t.Type == parser.TokenValue && len(t.TokenList) > 0 {
					stripRDNWhitespace(f, t.TokenList, adjacentOK, opts)
				}
			}
		})
		return parser.Rebuild(root)
	}
}

// stripRDNWhitespace drops gated whitespace runs from a DN-shaped value's
// RDN decomposition and writes the reassembled text back through EditToken,
// which re-derives the decomposition.
func stripRDNWhitespace(f *parser.Filter, subs []*parser.Token, adjacentOK func(a, b parser.TokenType) bool, opts Options) {
	changed := false
	content := ""
	for i, sub := range subs {
		if sub.Type == parser.TokenWhitespace {
			before, after := parser.TokenUnknown, parser.TokenUnknown
			if i > 0 {
				before = subs[i-1].Type
			}
			if i+1 < len(subs) {
				after = subs[i+1].Type
			}
			if adjacentOK(before, after) && opts.chanceNode() {
				changed = true
				continue
			}
		}
		content += sub.Content
	}
	if changed {
		_ = f.EditToken(parser.TokenValue, content)
	}
}
