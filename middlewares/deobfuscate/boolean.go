package deobfmid

import (
	"github.com/deobfsec/ldapstrip/parser"
)

/*
   Redundant boolean operator removal

   Over a single term, '&' and '|' are identities and '!' pairs cancel, so
   obfuscators stack them freely. An operator may be removed when the
   operator chain every affected leaf inherits reduces to the same minimal
   form with and without it. Operators of filter lists holding more than
   one branch are never touched: the string form cannot express the
   juxtaposition without them.
*/

// downstreamChain walks below b while the path is unambiguous, collecting
// the operator contents it passes. Reports whether the path ends at a
// single comparison clause.
func downstreamChain(b *parser.Branch) (string, bool) {
	chain := ""
	cur := b
	for {
		if cur.Type == parser.BranchFilter {
			return chain, true
		}
		nested := cur.NestedBranches()
		if len(nested) != 1 {
			return chain, false
		}
		child := nested[0]
		if op := child.OperatorToken(); op != nil {
			chain += op.Content
		}
		cur = child
	}
}

// chainEquivalent checks that dropping removed from above the downstream
// chain keeps the reduced form intact. The chains of enclosing groups are
// identical with and without the operator and stay out of the comparison:
// folding them in lets an ancestor negation mask a real polarity change on
// the branch under edit. When the downstream path fans out before reaching
// a clause, the trailing negations belong to the subtrees below the
// fan-out and are excluded as well.
func chainEquivalent(removed, down string, singleTerm bool) bool {
	before := removed + down
	if !singleTerm {
		return parser.ReduceBooleanChain(before, true) == parser.ReduceBooleanChain(down, true)
	}
	return parser.EquivalentBooleanChains(before, down, true)
}

// RemoveRandBoolOpDeobf removes boolean operators whose presence does not
// change the filter's logic. Double negations spanning two directly nested
// groups are removed as a pair.
func RemoveRandBoolOpDeobf(opts Options) FilterMiddleware {
	return func(root *parser.Branch) (*parser.Branch, error) {
		// Deepest first: removing an operator below a candidate never
		// invalidates the candidate's own ancestor chain.
		var candidates []*parser.Branch
		parser.VisitModify(root, func(b, parent *parser.Branch) {
			if parent != nil && b.OperatorToken() != nil {
				candidates = append(candidates, b)
			}
		})

		for _, b := range candidates {
			op := b.OperatorToken()
			if op == nil {
				// Already removed as part of a pair.
				continue
			}
			if !scopeAllows(opts.Scope, b) {
				continue
			}
			if b.Type == parser.BranchFilterList && len(b.NestedBranches()) > 1 {
				continue
			}
			if !opts.chanceNode() {
				continue
			}

			down, singleTerm := downstreamChain(b)

			if chainEquivalent(op.Content, down, singleTerm) {
				_ = b.RemoveOperator()
				continue
			}

			// Paired removal: '!' directly wrapping another '!'.
			if op.Content == "!" && b.Type == parser.BranchFilterList {
				nested := b.NestedBranches()
				if len(nested) == 1 && nested[0].BooleanOperator == "!" &&
					len(nested[0].NestedBranches()) <= 1 {
					innerDown, innerSingle := downstreamChain(nested[0])
					if chainEquivalent("!!", innerDown, innerSingle) {
						_ = b.RemoveOperator()
						_ = nested[0].RemoveOperator()
					}
				}
			}
		}
		return parser.Rebuild(root)
	}
}
