package deobfmid

import (
	"github.com/deobfsec/ldapstrip/parser"
)

// RemoveRandParensDeobf strips redundant grouping parentheses: groups that
// hold exactly one nested branch and define no boolean operator of their
// own.
//
// Within one pass a group whose nested group was already stripped is left
// alone, so alternating layers of a deep wrapper chain come off one pass at
// a time. Running the middleware repeatedly converges on a tree with no
// redundant groups.
func RemoveRandParensDeobf(opts Options) FilterMiddleware {
	return func(root *parser.Branch) (*parser.Branch, error) {
		childStripped := make(map[*parser.Branch]bool)
		parser.VisitModify(root, func(b, parent *parser.Branch) {
			if parent == nil || b.Type != parser.BranchFilterList {
				return
			}
			if b.OperatorToken() != nil {
				return
			}
			nested := b.NestedBranches()
			if len(nested) != 1 {
				return
			}
			if !scopeAllows(opts.Scope, nested[0]) {
				return
			}
			if childStripped[b] {
				return
			}
			if !opts.chanceNode() {
				return
			}
			if err := parser.StripGroup(parent, b); err == nil {
				childStripped[parent] = true
			}
		})
		return parser.Rebuild(root)
	}
}
