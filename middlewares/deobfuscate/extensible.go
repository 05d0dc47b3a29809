package deobfmid

import (
	"strings"

	"github.com/deobfsec/ldapstrip/parser"
)

// RemoveRandExtMatchDeobf normalizes extensible-match infixes. Segments
// naming a rule the server evaluates ('dn', bitwise AND/OR, in-chain) are
// kept. A bogus segment without a period is ignored by the server, so it is
// dropped; a period-bearing bogus segment makes the clause permanently
// false and is normalized to the canonical ':.:' marker instead of being
// removed.
func RemoveRandExtMatchDeobf(opts Options) FilterMiddleware {
	return func(root *parser.Branch) (*parser.Branch, error) {
		parser.VisitAll(root, func(b, parent *parser.Branch) {
			if b.Type != parser.BranchFilter || b.Filter == nil {
				return
			}
			if !scopeAllows(opts.Scope, b) {
				return
			}
			emf := b.Filter.ExtensibleMatchToken()
			if emf == nil {
				return
			}

			trimmed := strings.Trim(emf.Content, ":")
			if trimmed == "" {
				return
			}
			var supported []string
			alwaysFalse := false
			dirty := false
			for _, seg := range strings.Split(trimmed, ":") {
				if parser.IsSupportedMatchingRule(seg) {
					supported = append(supported, seg)
					continue
				}
				dirty = true
				if strings.Contains(parser.DecodeEscapes(seg), ".") {
					alwaysFalse = true
				}
			}
			if !dirty || !opts.chanceNode() {
				return
			}

			switch {
			case alwaysFalse:
				_ = b.Filter.EditToken(parser.TokenExtensibleMatchFilter, ":.:")
			case len(supported) == 0:
				_ = b.Filter.RemoveToken(parser.TokenExtensibleMatchFilter)
			default:
				_ = b.Filter.EditToken(parser.TokenExtensibleMatchFilter,
					":"+strings.Join(supported, ":")+":")
			}
		})
		return parser.Rebuild(root)
	}
}
