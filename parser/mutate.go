package parser

import "strings"

/*
   Mutation primitives

   Transforms edit the tree through these and nothing else. Each primitive
   keeps the edited clause internally consistent (Content, TokenDict); tree
   offsets, contexts and counters go stale and are recomputed by the
   Rebuild round-trip after every transform pass.
*/

// TokenLocation names an insertion point inside a clause, relative to one
// of its structural tokens.
type TokenLocation string

const (
	LocBeforeAttribute       TokenLocation = "before_attribute"
	LocAfterAttribute        TokenLocation = "after_attribute"
	LocBeforeComparison      TokenLocation = "before_comparisonoperator"
	LocAfterComparison       TokenLocation = "after_comparisonoperator"
	LocBeforeValue           TokenLocation = "before_value"
	LocAfterValue            TokenLocation = "after_value"
	LocBeforeBooleanOperator TokenLocation = "before_booleanoperator"
	LocAfterBooleanOperator  TokenLocation = "after_booleanoperator"
	LocBeforeExtensibleMatch TokenLocation = "before_extensiblematchfilter"
	LocAfterExtensibleMatch  TokenLocation = "after_extensiblematchfilter"
	LocAfterGroupStart       TokenLocation = "after_groupstart"
	LocBeforeGroupEnd        TokenLocation = "before_groupend"
)

var locationAnchors = map[TokenLocation]struct {
	typ    TokenType
	before bool
}{
	LocBeforeAttribute:       {TokenAttribute, true},
	LocAfterAttribute:        {TokenAttribute, false},
	LocBeforeComparison:      {TokenComparisonOperator, true},
	LocAfterComparison:       {TokenComparisonOperator, false},
	LocBeforeValue:           {TokenValue, true},
	LocAfterValue:            {TokenValue, false},
	LocBeforeBooleanOperator: {TokenBooleanOperator, true},
	LocAfterBooleanOperator:  {TokenBooleanOperator, false},
	LocBeforeExtensibleMatch: {TokenExtensibleMatchFilter, true},
	LocAfterExtensibleMatch:  {TokenExtensibleMatchFilter, false},
	LocAfterGroupStart:       {TokenGroupStart, false},
	LocBeforeGroupEnd:        {TokenGroupEnd, true},
}

// nextOfKin supplies a fallback anchor when the requested one is absent
// from the clause, e.g. placing an operator in a clause that has none yet.
var nextOfKin = map[TokenLocation]TokenLocation{
	LocBeforeBooleanOperator: LocAfterGroupStart,
	LocAfterBooleanOperator:  LocAfterGroupStart,
	LocBeforeExtensibleMatch: LocAfterAttribute,
	LocAfterExtensibleMatch:  LocBeforeComparison,
}

func (f *Filter) tokenIndex(typ TokenType) int {
	for i, t := range f.Tokens {
		if t.Type == typ {
			return i
		}
	}
	return -1
}

func (f *Filter) insertIndex(loc TokenLocation) (int, error) {
	anchor, ok := locationAnchors[loc]
	if !ok {
		return 0, validationErrorf("AddToken", "unknown token location %q", loc)
	}
	idx := f.tokenIndex(anchor.typ)
	if idx < 0 {
		if kin, ok := nextOfKin[loc]; ok {
			return f.insertIndex(kin)
		}
		if anchor.typ == TokenGroupStart {
			// Bare clause without parentheses.
			return 0, nil
		}
		return 0, validationErrorf("AddToken", "clause has no %s token to anchor %s", anchor.typ, loc)
	}
	if anchor.before {
		return idx, nil
	}
	return idx + 1, nil
}

// AddToken inserts t into the clause at the named location. Absent anchors
// fall back along the next-of-kin table before failing.
func (f *Filter) AddToken(loc TokenLocation, t *Token) error {
	idx, err := f.insertIndex(loc)
	if err != nil {
		return err
	}
	f.Tokens = append(f.Tokens, nil)
	copy(f.Tokens[idx+1:], f.Tokens[idx:])
	f.Tokens[idx] = t
	t.Modified = true
	f.refresh()
	return nil
}

// RemoveToken removes the clause's first token of the given type.
func (f *Filter) RemoveToken(typ TokenType) error {
	idx := f.tokenIndex(typ)
	if idx < 0 {
		return validationErrorf("RemoveToken", "clause has no %s token", typ)
	}
	f.Tokens = append(f.Tokens[:idx], f.Tokens[idx+1:]...)
	f.refresh()
	return nil
}

// RemoveTokenAt removes one token by position, for edits that target a
// specific occurrence (e.g. one whitespace run among several).
func (f *Filter) RemoveTokenAt(idx int) error {
	if idx < 0 || idx >= len(f.Tokens) {
		return validationErrorf("RemoveToken", "token index %d out of range", idx)
	}
	f.Tokens = append(f.Tokens[:idx], f.Tokens[idx+1:]...)
	f.refresh()
	return nil
}

// EditToken replaces the content of the clause's first token of the given
// type and marks it modified.
func (f *Filter) EditToken(typ TokenType, content string) error {
	idx := f.tokenIndex(typ)
	if idx < 0 {
		return validationErrorf("EditToken", "clause has no %s token", typ)
	}
	t := f.Tokens[idx]
	t.SetContent(content)
	t.Modified = true
	if typ == TokenValue {
		t.TokenList = parseRDNTokens(content, -1, t.Depth)
	}
	f.refresh()
	return nil
}

// StripGroup replaces b with its single nested branch in parent's item
// list, discarding b's parentheses. Refused when the group's parentheses
// are load-bearing: an operator of its own, multiple children, or the
// synthetic root.
func StripGroup(parent, b *Branch) error {
	if b.Type != BranchFilterList {
		return validationErrorf("StripGroup", "branch is not a filter list")
	}
	if b.isRoot() || parent == nil {
		return validationErrorf("StripGroup", "cannot strip the outermost branch")
	}
	if b.OperatorToken() != nil {
		return validationErrorf("StripGroup", "group defines a boolean operator")
	}
	nested := b.NestedBranches()
	if len(nested) != 1 {
		return validationErrorf("StripGroup", "group has %d nested branches, need exactly 1", len(nested))
	}
	for i := range parent.Items {
		if parent.Items[i].Branch == b {
			parent.Items[i].Branch = nested[0]
			return nil
		}
	}
	return validationErrorf("StripGroup", "branch not found in parent")
}

// RemoveOperator deletes the branch's directly-defined boolean operator.
// A FilterList holding more than one nested branch keeps its operator: the
// string form has no way to express the juxtaposition.
func (b *Branch) RemoveOperator() error {
	if b.Type == BranchFilter {
		if b.Filter == nil || b.Filter.OperatorToken() == nil {
			return validationErrorf("RemoveOperator", "branch has no boolean operator")
		}
		if err := b.Filter.RemoveToken(TokenBooleanOperator); err != nil {
			return err
		}
		b.BooleanOperator = ""
		return nil
	}
	if len(b.NestedBranches()) > 1 {
		return validationErrorf("RemoveOperator", "filter list with multiple branches requires its operator")
	}
	for i := range b.Items {
		if t := b.Items[i].Token; t != nil && t.Type == TokenBooleanOperator {
			b.Items = append(b.Items[:i], b.Items[i+1:]...)
			b.BooleanOperator = ""
			return nil
		}
	}
	return validationErrorf("RemoveOperator", "branch has no boolean operator")
}

// SetOperator replaces the branch's operator content in place, or installs
// a new operator token right after the opening parenthesis.
func (b *Branch) SetOperator(op string) error {
	if len(op) != 1 || !isBooleanOperatorChar(op[0]) {
		return validationErrorf("SetOperator", "invalid boolean operator %q", op)
	}
	if b.Type == BranchFilter {
		if b.Filter == nil {
			return validationErrorf("SetOperator", "filter branch without clause")
		}
		if b.Filter.OperatorToken() != nil {
			if err := b.Filter.EditToken(TokenBooleanOperator, op); err != nil {
				return err
			}
		} else {
			if err := b.Filter.AddToken(LocAfterGroupStart, NewToken(TokenBooleanOperator, op)); err != nil {
				return err
			}
		}
		b.BooleanOperator = op
		return nil
	}

	if t := b.OperatorToken(); t != nil {
		t.SetContent(op)
		t.Modified = true
		b.BooleanOperator = op
		return nil
	}
	insert := 0
	for i := range b.Items {
		if t := b.Items[i].Token; t != nil && t.Type == TokenGroupStart {
			insert = i + 1
			break
		}
	}
	tok := NewToken(TokenBooleanOperator, op)
	tok.Modified = true
	b.Items = append(b.Items, Item{})
	copy(b.Items[insert+1:], b.Items[insert:])
	b.Items[insert] = Item{Token: tok}
	b.BooleanOperator = op
	return nil
}

// WrapGroup encloses b in a new group, optionally carrying a boolean
// operator: (&<b>) for op "&", (<b>) for op "". The inverse of StripGroup.
func WrapGroup(parent, b *Branch, op string) (*Branch, error) {
	if parent == nil {
		return nil, validationErrorf("WrapGroup", "cannot wrap the outermost branch")
	}
	if op != "" && (len(op) != 1 || !isBooleanOperatorChar(op[0])) {
		return nil, validationErrorf("WrapGroup", "invalid boolean operator %q", op)
	}

	items := []Item{{Token: NewToken(TokenGroupStart, "(")}}
	if op != "" {
		items = append(items, Item{Token: NewToken(TokenBooleanOperator, op)})
	}
	items = append(items, Item{Branch: b}, Item{Token: NewToken(TokenGroupEnd, ")")})
	for _, it := range items {
		if it.Token != nil {
			it.Token.Modified = true
		}
	}

	wrapper := &Branch{
		Type:            BranchFilterList,
		Items:           items,
		BooleanOperator: op,
		Depth:           b.Depth,
		Start:           b.Start,
	}
	for i := range parent.Items {
		if parent.Items[i].Branch == b {
			parent.Items[i].Branch = wrapper
			return wrapper, nil
		}
	}
	return nil, validationErrorf("WrapGroup", "branch not found in parent")
}

// normalizeLocation accepts the documented "{before|after}_{type}" spelling
// with any casing.
func normalizeLocation(loc string) TokenLocation {
	return TokenLocation(strings.ToLower(strings.TrimSpace(loc)))
}
