package parser

/*
   Tree builder: flat token stream -> Branch tree

   Construction is a single left-to-right pass over the tokens with an
   explicit group stack; nothing here recurses on the call stack, so input
   depth is bounded by memory rather than goroutine stack. A second pass
   annotates operator contexts top-down and folds the subtree counters
   bottom-up over the reversed visit order.
*/

// Parse lexes, enriches and builds a search filter string in one call.
func Parse(s string) (*Branch, error) {
	tokens, err := Lex(s)
	if err != nil {
		return nil, err
	}
	return Build(EnrichTokens(tokens))
}

type openGroup struct {
	items []Item
	start *Token
}

// Build assembles the branch tree from an enriched token stream. The result
// is always rooted at a synthetic FilterList that owns no parentheses, even
// for a single bare clause.
func Build(tokens []*Token) (*Branch, error) {
	stack := []*openGroup{{}}
	for _, tok := range tokens {
		switch tok.Type {
		case TokenGroupStart:
			stack = append(stack, &openGroup{items: []Item{{Token: tok}}, start: tok})
		case TokenGroupEnd:
			if len(stack) == 1 {
				return nil, parseErrorf(tok.Start, "unbalanced parenthesis: unexpected ')'")
			}
			g := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			g.items = append(g.items, Item{Token: tok})
			br, err := closeGroup(g, tok)
			if err != nil {
				return nil, err
			}
			top := stack[len(stack)-1]
			top.items = append(top.items, Item{Branch: br})
		default:
			top := stack[len(stack)-1]
			top.items = append(top.items, Item{Token: tok})
		}
	}
	if len(stack) != 1 {
		last := stack[len(stack)-1]
		return nil, parseErrorf(last.start.Start, "unbalanced parenthesis: unclosed group")
	}

	root, err := closeRoot(stack[0].items)
	if err != nil {
		return nil, err
	}
	annotate(root)
	return root, nil
}

// hasClauseBody reports whether the direct tokens of a group contain
// comparison-clause material.
func hasClauseBody(items []Item) bool {
	for _, it := range items {
		if it.Token == nil {
			continue
		}
		switch it.Token.Type {
		case TokenAttribute, TokenComparisonOperator, TokenValue, TokenExtensibleMatchFilter:
			return true
		}
	}
	return false
}

func countBranches(items []Item) int {
	n := 0
	for _, it := range items {
		if it.Branch != nil {
			n++
		}
	}
	return n
}

func closeGroup(g *openGroup, end *Token) (*Branch, error) {
	children := countBranches(g.items)
	body := hasClauseBody(g.items)

	switch {
	case children > 0 && body:
		return nil, parseErrorf(end.Start, "group mixes a comparison clause with nested groups")
	case children > 0:
		b := &Branch{
			Type:  BranchFilterList,
			Items: g.items,
			Depth: g.start.Depth,
			Start: g.start.Start,
		}
		if op := b.OperatorToken(); op != nil {
			b.BooleanOperator = op.Content
		}
		if children > 1 && b.BooleanOperator == "" {
			return nil, parseErrorf(end.Start, "filter list with multiple filters is missing a boolean operator")
		}
		return b, nil
	case body:
		var toks []*Token
		for _, it := range g.items {
			toks = append(toks, it.Token)
		}
		f, err := newFilter(toks, end.Start)
		if err != nil {
			return nil, err
		}
		b := &Branch{
			Type:   BranchFilter,
			Filter: f,
			Depth:  g.start.Depth,
			Start:  g.start.Start,
		}
		b.BooleanOperator = f.BooleanOperator()
		return b, nil
	}
	return nil, parseErrorf(end.Start, "empty group")
}

// closeRoot wraps the top-level items in the synthetic root. A bare clause
// (no parentheses at all) becomes the root's single Filter child, keeping
// its surrounding whitespace.
func closeRoot(items []Item) (*Branch, error) {
	children := countBranches(items)
	body := hasClauseBody(items)

	switch {
	case children > 0 && body:
		for _, it := range items {
			if it.Token != nil && it.Token.Type != TokenWhitespace {
				return nil, parseErrorf(it.Token.Start, "unexpected text outside of a group")
			}
		}
	case children == 0 && !body:
		return nil, parseErrorf(0, "empty filter")
	case body:
		var toks []*Token
		for _, it := range items {
			toks = append(toks, it.Token)
		}
		f, err := newFilter(toks, len(joinTokenContent(toks)))
		if err != nil {
			return nil, err
		}
		child := &Branch{Type: BranchFilter, Filter: f, BooleanOperator: f.BooleanOperator()}
		items = []Item{{Branch: child}}
		children = 1
	}

	if children > 1 {
		seen := 0
		for _, it := range items {
			if it.Branch == nil {
				continue
			}
			seen++
			if seen == 2 {
				return nil, parseErrorf(it.Branch.Start, "multiple top-level groups")
			}
		}
	}
	return &Branch{Type: BranchFilterList, Items: items}, nil
}

func joinTokenContent(toks []*Token) string {
	s := ""
	for _, t := range toks {
		s += t.Content
	}
	return s
}

// annotate recomputes the operator contexts and the subtree maxima of the
// whole tree. Contexts flow top-down along an explicit stack; the counters
// fold bottom-up over the reversed pre-order.
func annotate(root *Branch) {
	type frame struct {
		b     *Branch
		chain []*Token
	}
	var order []*Branch
	stack := []frame{{root, nil}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b := f.b

		b.Context.BooleanOperator.FilterListBooleanOperatorTokenList = f.chain
		if b.Type == BranchFilter && b.Filter != nil {
			b.Context.BooleanOperator.FilterBooleanOperatorTokenList = b.Filter.operatorTokens()
		} else {
			b.Context.BooleanOperator.FilterBooleanOperatorTokenList = nil
		}
		order = append(order, b)

		childChain := f.chain
		if b.Type == BranchFilterList {
			if op := b.OperatorToken(); op != nil {
				childChain = append(append([]*Token(nil), f.chain...), op)
			}
		}
		nested := b.NestedBranches()
		for i := len(nested) - 1; i >= 0; i-- {
			stack = append(stack, frame{nested[i], childChain})
		}
	}

	for i := len(order) - 1; i >= 0; i-- {
		b := order[i]
		own, wild := 0, 0
		if b.Type == BranchFilter {
			if b.Filter != nil {
				own = len(b.Filter.operatorTokens())
				if v := b.Filter.ValueToken(); v != nil {
					wild = v.WildcardCount()
				}
			}
		} else {
			for _, t := range b.directTokens() {
				if t.Type == TokenBooleanOperator {
					own++
				}
			}
		}

		childCount, childLogical, depthMax := 0, 0, b.Depth
		for _, c := range b.NestedBranches() {
			if c.BooleanOperatorCountMax > childCount {
				childCount = c.BooleanOperatorCountMax
			}
			if c.BooleanOperatorLogicalCountMax > childLogical {
				childLogical = c.BooleanOperatorLogicalCountMax
			}
			if c.DepthMax > depthMax {
				depthMax = c.DepthMax
			}
		}
		b.BooleanOperatorCountMax = own + childCount
		b.BooleanOperatorLogicalCountMax = own + wild + childLogical
		b.DepthMax = depthMax
	}
}
