package obfmid

import (
	"math/rand"
	"strings"

	"github.com/deobfsec/ldapstrip/middlewares/helpers"
	"github.com/deobfsec/ldapstrip/parser"
)

/*
   Obfuscation FilterMiddlewares

   The inverse direction: these wrap, pad and re-encode a filter without
   changing its logic. They exist to exercise the deobfuscation middlewares
   against realistic layered input and to reproduce obfuscated samples for
   analysis.

   References:
	- DEFCON32 - MaLDAPtive
*/

func eligiblePairs(root *parser.Branch) [][2]*parser.Branch {
	var pairs [][2]*parser.Branch
	parser.VisitAll(root, func(b, parent *parser.Branch) {
		if parent != nil {
			pairs = append(pairs, [2]*parser.Branch{b, parent})
		}
	})
	return pairs
}

// RandAddParensObf wraps random branches in redundant grouping parentheses,
// up to maxDepth layers each.
func RandAddParensObf(r *rand.Rand, maxDepth int, prob int) FilterMiddleware {
	return func(root *parser.Branch) (*parser.Branch, error) {
		for _, pair := range eligiblePairs(root) {
			b, parent := pair[0], pair[1]
			depth := helpers.Intn(r, maxDepth) + 1
			for i := 0; i < depth; i++ {
				if !helpers.Chance(r, prob) {
					continue
				}
				wrapper, err := parser.WrapGroup(parent, b, "")
				if err != nil {
					break
				}
				b = wrapper
			}
		}
		return parser.Rebuild(root)
	}
}

// RandAddBoolObf wraps random branches in single-term '&' or '|' groups,
// which evaluate to the term itself.
func RandAddBoolObf(r *rand.Rand, maxDepth int, prob int) FilterMiddleware {
	return func(root *parser.Branch) (*parser.Branch, error) {
		for _, pair := range eligiblePairs(root) {
			b, parent := pair[0], pair[1]
			depth := helpers.Intn(r, maxDepth) + 1
			for i := 0; i < depth; i++ {
				if !helpers.Chance(r, prob) {
					continue
				}
				op := "&"
				if helpers.Intn(r, 2) == 0 {
					op = "|"
				}
				wrapper, err := parser.WrapGroup(parent, b, op)
				if err != nil {
					break
				}
				b = wrapper
			}
		}
		return parser.Rebuild(root)
	}
}

// RandDblNegBoolObf wraps random branches in double negations.
func RandDblNegBoolObf(r *rand.Rand, prob int) FilterMiddleware {
	return func(root *parser.Branch) (*parser.Branch, error) {
		for _, pair := range eligiblePairs(root) {
			b, parent := pair[0], pair[1]
			if !helpers.Chance(r, prob) {
				continue
			}
			inner, err := parser.WrapGroup(parent, b, "!")
			if err != nil {
				continue
			}
			// A lone '!' wrap flips the logic; the pair must land together.
			if _, err := parser.WrapGroup(parent, inner, "!"); err != nil {
				return nil, err
			}
		}
		return parser.Rebuild(root)
	}
}

// RandSpacingObf sprays whitespace into the spots the grammar tolerates:
// after opening parentheses and operators, around comparison operators and
// after values.
func RandSpacingObf(r *rand.Rand, maxSpaces int, prob int) FilterMiddleware {
	pad := func() string {
		return strings.Repeat(" ", helpers.Intn(r, maxSpaces)+1)
	}
	locations := []parser.TokenLocation{
		parser.LocAfterGroupStart,
		parser.LocAfterAttribute,
		parser.LocAfterValue,
	}
	return func(root *parser.Branch) (*parser.Branch, error) {
		parser.VisitAll(root, func(b, parent *parser.Branch) {
			if b.Type != parser.BranchFilter || b.Filter == nil {
				return
			}
			for _, loc := range locations {
				if helpers.Chance(r, prob) {
					_ = b.Filter.AddToken(loc, parser.NewToken(parser.TokenWhitespace, pad()))
				}
			}
		})
		return parser.Rebuild(root)
	}
}

// RandAddWildcardObf duplicates existing wildcards in assertion values:
// "a*b" and "a***b" select the same entries.
func RandAddWildcardObf(r *rand.Rand, maxExtra int, prob int) FilterMiddleware {
	return func(root *parser.Branch) (*parser.Branch, error) {
		parser.VisitAll(root, func(b, parent *parser.Branch) {
			if b.Type != parser.BranchFilter || b.Filter == nil {
				return
			}
			value := b.Filter.ValueToken()
			if value == nil || value.WildcardCount() == 0 {
				return
			}
			var sb strings.Builder
			changed := false
			for _, c := range value.Chars {
				sb.WriteString(c.Encoded)
				if c.Decoded == '*' && !c.IsEscape && helpers.Chance(r, prob) {
					sb.WriteString(strings.Repeat("*", helpers.Intn(r, maxExtra)+1))
					changed = true
				}
			}
			if changed {
				_ = b.Filter.EditToken(parser.TokenValue, sb.String())
			}
		})
		return parser.Rebuild(root)
	}
}

// RandHexValueObf re-spells assertion value characters as \XX escapes.
// Wildcards are left alone: escaping one turns it into a literal asterisk.
func RandHexValueObf(r *rand.Rand, percent int) FilterMiddleware {
	return func(root *parser.Branch) (*parser.Branch, error) {
		parser.VisitAll(root, func(b, parent *parser.Branch) {
			if b.Type != parser.BranchFilter || b.Filter == nil {
				return
			}
			value := b.Filter.ValueToken()
			if value == nil || len(value.Content) == 0 {
				return
			}
			var sb strings.Builder
			changed := false
			for _, c := range value.Chars {
				if !c.IsEscape && c.Decoded != '*' && c.Decoded < 0x80 && helpers.Chance(r, percent) {
					sb.WriteString(helpers.HexEncodeChar(c.Decoded))
					changed = true
					continue
				}
				sb.WriteString(c.Encoded)
			}
			if changed {
				_ = b.Filter.EditToken(parser.TokenValue, sb.String())
			}
		})
		return parser.Rebuild(root)
	}
}
