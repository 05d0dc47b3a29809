package parser

import "fmt"

/*
   Branch: one node of the structural filter tree

   A Filter branch holds a single comparison clause. A FilterList branch
   holds an ordered mix of direct tokens (its own parentheses, operator and
   whitespace) and nested branches. The synthetic root is always a
   FilterList, even when the source is a single bare clause.
*/

// BranchType discriminates terminal clauses from grouping nodes.
type BranchType int

const (
	BranchFilter BranchType = iota
	BranchFilterList
)

func (t BranchType) String() string {
	switch t {
	case BranchFilter:
		return "Filter"
	case BranchFilterList:
		return "FilterList"
	}
	return fmt.Sprintf("BranchType(%d)", int(t))
}

// Item is one ordered element of a FilterList body: exactly one of Token or
// Branch is set.
type Item struct {
	Token  *Token
	Branch *Branch
}

// BooleanOperatorContext carries the operator tokens that scope a branch.
// FilterListBooleanOperatorTokenList holds the operators of strictly
// enclosing FilterLists, outermost first. FilterBooleanOperatorTokenList
// holds, for a Filter branch, the operator tokens inside its own clause.
type BooleanOperatorContext struct {
	FilterListBooleanOperatorTokenList []*Token
	FilterBooleanOperatorTokenList     []*Token
}

// Chain concatenates the context operators into the raw chain string the
// boolean-logic reducer consumes, ancestors first.
func (c BooleanOperatorContext) Chain() string {
	chain := ""
	for _, t := range c.FilterListBooleanOperatorTokenList {
		chain += t.Content
	}
	for _, t := range c.FilterBooleanOperatorTokenList {
		chain += t.Content
	}
	return chain
}

// Context aggregates the inherited state of a branch.
type Context struct {
	BooleanOperator BooleanOperatorContext
}

// Branch is a node of the parsed filter tree.
type Branch struct {
	Type    BranchType
	Items   []Item
	Filter  *Filter
	Depth   int
	Start   int
	Context Context

	// BooleanOperator is the operator directly defined on this branch, or ""
	// when the branch has none of its own.
	BooleanOperator string

	// Subtree maxima, computed at build time for protocol-limit checks.
	BooleanOperatorCountMax        int
	BooleanOperatorLogicalCountMax int
	DepthMax                       int
}

// NestedBranches lists the direct child branches in order.
func (b *Branch) NestedBranches() []*Branch {
	var out []*Branch
	for _, it := range b.Items {
		if it.Branch != nil {
			out = append(out, it.Branch)
		}
	}
	return out
}

// directTokens lists the branch's own tokens (not those of nested branches).
func (b *Branch) directTokens() []*Token {
	var out []*Token
	for _, it := range b.Items {
		if it.Token != nil {
			out = append(out, it.Token)
		}
	}
	return out
}

// OperatorToken returns the operator token directly defined on this branch:
// the FilterList-scope operator for a grouping node, the clause operator for
// a Filter node. Nil when the branch has none.
func (b *Branch) OperatorToken() *Token {
	if b.Type == BranchFilter {
		if b.Filter != nil {
			return b.Filter.OperatorToken()
		}
		return nil
	}
	for _, it := range b.Items {
		if it.Token != nil && it.Token.Type == TokenBooleanOperator {
			return it.Token
		}
	}
	return nil
}

func (b *Branch) groupStartToken() *Token {
	for _, it := range b.Items {
		if it.Token != nil && it.Token.Type == TokenGroupStart {
			return it.Token
		}
	}
	return nil
}

func (b *Branch) groupEndToken() *Token {
	for i := len(b.Items) - 1; i >= 0; i-- {
		if b.Items[i].Token != nil && b.Items[i].Token.Type == TokenGroupEnd {
			return b.Items[i].Token
		}
	}
	return nil
}

// isRoot reports whether the branch is the synthetic outermost node, which
// owns no parentheses of its own.
func (b *Branch) isRoot() bool {
	return b.Type == BranchFilterList && b.groupStartToken() == nil
}

// Default protocol limits, after Active Directory's documented behavior.
const (
	DefaultMaxDepth            = 100
	DefaultMaxBooleanOperators = 512
	DefaultMaxLogicalOperators = 1024
)

// LimitWarning flags a subtree measure that exceeds a protocol limit. The
// parse itself is never rejected on limits; callers decide what to surface.
type LimitWarning struct {
	Kind  string
	Count int
	Max   int
}

func (w LimitWarning) String() string {
	return fmt.Sprintf("%s count %d exceeds limit %d", w.Kind, w.Count, w.Max)
}

// CheckLimits compares the tree's precomputed maxima against the default
// protocol limits and returns one warning per exceeded limit.
func CheckLimits(b *Branch) []LimitWarning {
	var warns []LimitWarning
	if b.DepthMax > DefaultMaxDepth {
		warns = append(warns, LimitWarning{Kind: "nesting depth", Count: b.DepthMax, Max: DefaultMaxDepth})
	}
	if b.BooleanOperatorCountMax > DefaultMaxBooleanOperators {
		warns = append(warns, LimitWarning{Kind: "boolean operator", Count: b.BooleanOperatorCountMax, Max: DefaultMaxBooleanOperators})
	}
	if b.BooleanOperatorLogicalCountMax > DefaultMaxLogicalOperators {
		warns = append(warns, LimitWarning{Kind: "logical operator", Count: b.BooleanOperatorLogicalCountMax, Max: DefaultMaxLogicalOperators})
	}
	return warns
}
