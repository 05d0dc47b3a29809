package parser

/*
   Branch traversal

   All walks use explicit stacks. Obfuscated filters nest hundreds of
   groups deep, so the tree code never recurses on the call stack.
*/

// VisitAll walks the tree pre-order, parents before children, calling fn on
// every branch with its parent (nil for the root).
func VisitAll(root *Branch, fn func(b, parent *Branch)) {
	type frame struct{ b, parent *Branch }
	stack := []frame{{root, nil}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(f.b, f.parent)
		nested := f.b.NestedBranches()
		for i := len(nested) - 1; i >= 0; i-- {
			stack = append(stack, frame{nested[i], f.b})
		}
	}
}

// VisitFirst returns the first branch in pre-order for which fn reports
// true, or nil.
func VisitFirst(root *Branch, fn func(b *Branch) bool) *Branch {
	stack := []*Branch{root}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if fn(b) {
			return b
		}
		nested := b.NestedBranches()
		for i := len(nested) - 1; i >= 0; i-- {
			stack = append(stack, nested[i])
		}
	}
	return nil
}

// VisitModify walks children before parents, so fn may restructure the
// subtree below the branch it receives without upsetting the walk.
func VisitModify(root *Branch, fn func(b, parent *Branch)) {
	type frame struct{ b, parent *Branch }
	var order []frame
	stack := []frame{{root, nil}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, f)
		nested := f.b.NestedBranches()
		for i := len(nested) - 1; i >= 0; i-- {
			stack = append(stack, frame{nested[i], f.b})
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		fn(order[i].b, order[i].parent)
	}
}
