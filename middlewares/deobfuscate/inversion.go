package deobfmid

import (
	"github.com/deobfsec/ldapstrip/parser"
)

/*
   Inversion removal

   A '!' on a filter list is pushed down De Morgan style: the list's '&' or
   '|' flips and the negation distributes onto the children, where it either
   cancels an existing '!' or lands on a comparison clause as a clause-scope
   '!'. A push-down is only committed when it does not increase the total
   number of negations in the subtree.
*/

type inversionAction struct {
	branch *parser.Branch
	// op is the operator to install; "" removes the branch's operator,
	// "!"/"&"/"|" replace or add it.
	op     string
	remove bool
}

// planPushdown simulates distributing a negation into b and returns the
// edits plus the negation delta (added minus removed). ok is false when the
// negation cannot be absorbed.
func planPushdown(b *parser.Branch) (actions []inversionAction, delta int, ok bool) {
	type job struct{ b *parser.Branch }
	work := []job{{b}}
	for len(work) > 0 {
		cur := work[len(work)-1].b
		work = work[:len(work)-1]

		if cur.Type == parser.BranchFilter {
			switch cur.BooleanOperator {
			case "!":
				actions = append(actions, inversionAction{branch: cur, remove: true})
				delta--
			default:
				// '&' and '|' are inert on a single term; '!' replaces them.
				actions = append(actions, inversionAction{branch: cur, op: "!"})
				delta++
			}
			continue
		}

		switch cur.BooleanOperator {
		case "!":
			actions = append(actions, inversionAction{branch: cur, remove: true})
			delta--
		case "&":
			actions = append(actions, inversionAction{branch: cur, op: "|"})
			for _, child := range cur.NestedBranches() {
				work = append(work, job{child})
			}
		case "|":
			actions = append(actions, inversionAction{branch: cur, op: "&"})
			for _, child := range cur.NestedBranches() {
				work = append(work, job{child})
			}
		case "":
			nested := cur.NestedBranches()
			if len(nested) != 1 {
				return nil, 0, false
			}
			work = append(work, job{nested[0]})
		default:
			return nil, 0, false
		}
	}
	return actions, delta, true
}

// RemoveRandInversionDeobf removes '!' operators from filter lists by
// distributing them into the subtree.
func RemoveRandInversionDeobf(opts Options) FilterMiddleware {
	return func(root *parser.Branch) (*parser.Branch, error) {
		var candidates []*parser.Branch
		parser.VisitAll(root, func(b, parent *parser.Branch) {
			if parent == nil || b.Type != parser.BranchFilterList {
				return
			}
			if b.BooleanOperator != "!" || len(b.NestedBranches()) != 1 {
				return
			}
			candidates = append(candidates, b)
		})

		for _, b := range candidates {
			if b.BooleanOperator != "!" {
				// A deeper push-down from an enclosing candidate consumed it.
				continue
			}
			if !scopeAllows(opts.Scope, b) || !opts.chanceNode() {
				continue
			}
			actions, delta, ok := planPushdown(b.NestedBranches()[0])
			if !ok || delta-1 > 0 {
				continue
			}
			if err := b.RemoveOperator(); err != nil {
				continue
			}
			for _, a := range actions {
				if a.remove {
					_ = a.branch.RemoveOperator()
				} else {
					_ = a.branch.SetOperator(a.op)
				}
			}
		}
		return parser.Rebuild(root)
	}
}
