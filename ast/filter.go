package ast

import (
	"fmt"
	"strings"

	"github.com/deobfsec/ldapstrip/parser"
)

/*
   Semantic filter model
   References:
	- RFC4510 - LDAP: Technical Specification
	- RFC4515 - LDAP: String Representation of Search Filters
*/

// FilterType represents the various LDAP filter types.
type FilterType int

const (
	And FilterType = iota
	Or
	Not
	EqualityMatch
	Substring
	GreaterOrEqual
	LessOrEqual
	Present
	ApproxMatch
	ExtensibleMatch
)

// Filter is an interface for all LDAP filter types.
type Filter interface {
	// Type returns the type of the filter.
	Type() FilterType
}

// FilterAnd represents an AND filter.
type FilterAnd struct {
	Filters []Filter
}

func (f *FilterAnd) Type() FilterType { return And }

// FilterOr represents an OR filter.
type FilterOr struct {
	Filters []Filter
}

func (f *FilterOr) Type() FilterType { return Or }

// FilterNot represents a NOT filter.
type FilterNot struct {
	Filter Filter
}

func (f *FilterNot) Type() FilterType { return Not }

// FilterEqualityMatch represents an equality match filter.
type FilterEqualityMatch struct {
	AttributeDesc  string
	AssertionValue string
}

func (f *FilterEqualityMatch) Type() FilterType { return EqualityMatch }

// FilterPresent represents a presence filter.
type FilterPresent struct {
	AttributeDesc string
}

func (f *FilterPresent) Type() FilterType { return Present }

// FilterSubstring represents a substring filter.
type FilterSubstring struct {
	AttributeDesc string
	Substrings    []SubstringFilter
}

func (f *FilterSubstring) Type() FilterType { return Substring }

// FilterGreaterOrEqual represents a greater-or-equal filter.
type FilterGreaterOrEqual struct {
	AttributeDesc  string
	AssertionValue string
}

func (f *FilterGreaterOrEqual) Type() FilterType { return GreaterOrEqual }

// FilterLessOrEqual represents a less-or-equal filter.
type FilterLessOrEqual struct {
	AttributeDesc  string
	AssertionValue string
}

func (f *FilterLessOrEqual) Type() FilterType { return LessOrEqual }

// FilterApproxMatch represents an approximate match filter.
type FilterApproxMatch struct {
	AttributeDesc  string
	AssertionValue string
}

func (f *FilterApproxMatch) Type() FilterType { return ApproxMatch }

// FilterExtensibleMatch represents an extensible match filter.
type FilterExtensibleMatch struct {
	MatchingRule  string
	AttributeDesc string
	MatchValue    string
	DNAttributes  bool
}

func (f *FilterExtensibleMatch) Type() FilterType { return ExtensibleMatch }

// SubstringFilter represents a component of a substring filter.
type SubstringFilter struct {
	Initial string
	Any     []string
	Final   string
}

// QueryToFilter parses a string-form search filter into its semantic model.
func QueryToFilter(query string) (Filter, error) {
	root, err := parser.Parse(query)
	if err != nil {
		return nil, err
	}
	return FromBranch(root)
}

// FromBranch converts a parsed branch tree into its semantic model.
// Operator-less groups and single-term '&'/'|' collapse away here, so two
// filters that differ only in obfuscation convert to equal models.
func FromBranch(b *parser.Branch) (Filter, error) {
	if b.Type == parser.BranchFilter {
		return clauseToFilter(b.Filter)
	}

	nested := b.NestedBranches()
	var subs []Filter
	for _, child := range nested {
		sub, err := FromBranch(child)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("empty filter list")
	}

	switch b.BooleanOperator {
	case "&":
		if len(subs) == 1 {
			return subs[0], nil
		}
		return &FilterAnd{Filters: subs}, nil
	case "|":
		if len(subs) == 1 {
			return subs[0], nil
		}
		return &FilterOr{Filters: subs}, nil
	case "!":
		if len(subs) != 1 {
			return nil, fmt.Errorf("NOT filter should have exactly 1 child")
		}
		return &FilterNot{Filter: subs[0]}, nil
	case "":
		if len(subs) != 1 {
			return nil, fmt.Errorf("filter list without operator should have exactly 1 child")
		}
		return subs[0], nil
	}
	return nil, fmt.Errorf("unknown boolean operator %q", b.BooleanOperator)
}

func clauseToFilter(f *parser.Filter) (Filter, error) {
	if f == nil {
		return nil, fmt.Errorf("filter branch without clause")
	}
	attr := strings.TrimSpace(f.AttributeToken().Content)
	value := f.ValueToken()
	decoded := value.DecodedContent()

	var leaf Filter
	switch comp := f.ComparisonToken().Content; comp {
	case ">=":
		leaf = &FilterGreaterOrEqual{AttributeDesc: attr, AssertionValue: decoded}
	case "<=":
		leaf = &FilterLessOrEqual{AttributeDesc: attr, AssertionValue: decoded}
	case "~=":
		leaf = &FilterApproxMatch{AttributeDesc: attr, AssertionValue: decoded}
	case "=":
		switch {
		case f.ExtensibleMatchToken() != nil:
			rule, dn, err := splitExtensibleInfix(f.ExtensibleMatchToken().Content)
			if err != nil {
				return nil, err
			}
			leaf = &FilterExtensibleMatch{
				MatchingRule:  rule,
				AttributeDesc: attr,
				MatchValue:    decoded,
				DNAttributes:  dn,
			}
		case value.IsWildcardOnly():
			leaf = &FilterPresent{AttributeDesc: attr}
		case value.WildcardCount() > 0:
			leaf = &FilterSubstring{AttributeDesc: attr, Substrings: splitSubstrings(value)}
		default:
			leaf = &FilterEqualityMatch{AttributeDesc: attr, AssertionValue: decoded}
		}
	default:
		return nil, fmt.Errorf("unknown comparison operator %q", comp)
	}

	// A clause-scope '!' negates the single term; '&' and '|' are inert.
	if f.BooleanOperator() == "!" {
		return &FilterNot{Filter: leaf}, nil
	}
	return leaf, nil
}

// splitExtensibleInfix decomposes ":dn:1.2.840.113556.1.4.803:" into the
// matching rule and the dn-attributes flag.
func splitExtensibleInfix(infix string) (rule string, dn bool, err error) {
	trimmed := strings.Trim(infix, ":")
	if trimmed == "" {
		return "", false, nil
	}
	for _, seg := range strings.Split(trimmed, ":") {
		decoded := strings.ToLower(parser.DecodeEscapes(seg))
		if decoded == "dn" {
			dn = true
			continue
		}
		if rule != "" {
			return "", false, fmt.Errorf("extensible match with multiple matching rules")
		}
		rule = strings.TrimPrefix(decoded, "oid.")
	}
	return rule, dn, nil
}

// splitSubstrings cuts a wildcard value on its unescaped '*' characters.
// Escaped wildcards (\2a) stay inside their segment.
func splitSubstrings(value *parser.Token) []SubstringFilter {
	var segs []string
	var cur strings.Builder
	for _, c := range value.Chars {
		if c.Decoded == '*' && !c.IsEscape {
			segs = append(segs, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(c.Decoded)
	}
	segs = append(segs, cur.String())

	var subs []SubstringFilter
	for i, seg := range segs {
		switch {
		case i == 0:
			if seg != "" {
				subs = append(subs, SubstringFilter{Initial: seg})
			}
		case i == len(segs)-1:
			if seg != "" {
				subs = append(subs, SubstringFilter{Final: seg})
			}
		default:
			if seg != "" {
				subs = append(subs, SubstringFilter{Any: []string{seg}})
			}
		}
	}
	return subs
}

// FilterToQuery renders the semantic model back to canonical string form.
func FilterToQuery(f Filter) (string, error) {
	switch filter := f.(type) {
	case *FilterAnd:
		return renderList("&", filter.Filters)
	case *FilterOr:
		return renderList("|", filter.Filters)
	case *FilterNot:
		sub, err := FilterToQuery(filter.Filter)
		if err != nil {
			return "", err
		}
		return "(!" + sub + ")", nil
	case *FilterEqualityMatch:
		return "(" + filter.AttributeDesc + "=" + EscapeValue(filter.AssertionValue) + ")", nil
	case *FilterPresent:
		return "(" + filter.AttributeDesc + "=*)", nil
	case *FilterSubstring:
		initial, final := "", ""
		var anys []string
		for _, sub := range filter.Substrings {
			if sub.Initial != "" {
				initial = sub.Initial
			}
			anys = append(anys, sub.Any...)
			if sub.Final != "" {
				final = sub.Final
			}
		}
		var sb strings.Builder
		sb.WriteString("(" + filter.AttributeDesc + "=" + EscapeValue(initial) + "*")
		for _, any := range anys {
			sb.WriteString(EscapeValue(any) + "*")
		}
		sb.WriteString(EscapeValue(final) + ")")
		return sb.String(), nil
	case *FilterGreaterOrEqual:
		return "(" + filter.AttributeDesc + ">=" + EscapeValue(filter.AssertionValue) + ")", nil
	case *FilterLessOrEqual:
		return "(" + filter.AttributeDesc + "<=" + EscapeValue(filter.AssertionValue) + ")", nil
	case *FilterApproxMatch:
		return "(" + filter.AttributeDesc + "~=" + EscapeValue(filter.AssertionValue) + ")", nil
	case *FilterExtensibleMatch:
		var sb strings.Builder
		sb.WriteString("(" + filter.AttributeDesc)
		if filter.DNAttributes {
			sb.WriteString(":dn")
		}
		if filter.MatchingRule != "" {
			sb.WriteString(":" + filter.MatchingRule)
		}
		sb.WriteString(":=" + EscapeValue(filter.MatchValue) + ")")
		return sb.String(), nil
	}
	return "", fmt.Errorf("unknown filter type %v", f.Type())
}

func renderList(op string, filters []Filter) (string, error) {
	var sb strings.Builder
	sb.WriteString("(" + op)
	for _, sub := range filters {
		s, err := FilterToQuery(sub)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	sb.WriteString(")")
	return sb.String(), nil
}

// EscapeValue escapes the characters RFC4515 reserves inside assertion
// values.
func EscapeValue(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', ')', '*', '\\', 0x00:
			sb.WriteString(fmt.Sprintf("\\%02x", c))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// FilterToString renders an indented debug dump of the semantic model.
func FilterToString(filter Filter, level int) string {
	var result strings.Builder
	indent := strings.Repeat("  ", level)

	switch f := filter.(type) {
	case *FilterAnd:
		result.WriteString(fmt.Sprintf("%sAND filter with %d sub-filters:\n", indent, len(f.Filters)))
		for _, subFilter := range f.Filters {
			result.WriteString(FilterToString(subFilter, level+1))
		}
	case *FilterOr:
		result.WriteString(fmt.Sprintf("%sOR filter with %d sub-filters:\n", indent, len(f.Filters)))
		for _, subFilter := range f.Filters {
			result.WriteString(FilterToString(subFilter, level+1))
		}
	case *FilterNot:
		result.WriteString(fmt.Sprintf("%sNOT filter:\n", indent))
		result.WriteString(FilterToString(f.Filter, level+1))
	case *FilterEqualityMatch:
		result.WriteString(fmt.Sprintf("%sEquality Match - Attribute: %s, Value: %s\n", indent, f.AttributeDesc, f.AssertionValue))
	case *FilterPresent:
		result.WriteString(fmt.Sprintf("%sPresent - Attribute: %s\n", indent, f.AttributeDesc))
	case *FilterSubstring:
		result.WriteString(fmt.Sprintf("%sSubstring - Attribute: %s (%d components)\n", indent, f.AttributeDesc, len(f.Substrings)))
		for _, sub := range f.Substrings {
			if sub.Initial != "" {
				result.WriteString(fmt.Sprintf("%s  Initial: %s\n", indent, sub.Initial))
			}
			for i, any := range sub.Any {
				result.WriteString(fmt.Sprintf("%s  Any[%d]: %s\n", indent, i, any))
			}
			if sub.Final != "" {
				result.WriteString(fmt.Sprintf("%s  Final: %s\n", indent, sub.Final))
			}
		}
	case *FilterGreaterOrEqual:
		result.WriteString(fmt.Sprintf("%sGreater Or Equal - Attribute: %s, Value: %s\n", indent, f.AttributeDesc, f.AssertionValue))
	case *FilterLessOrEqual:
		result.WriteString(fmt.Sprintf("%sLess Or Equal - Attribute: %s, Value: %s\n", indent, f.AttributeDesc, f.AssertionValue))
	case *FilterApproxMatch:
		result.WriteString(fmt.Sprintf("%sApprox Match - Attribute: %s, Value: %s\n", indent, f.AttributeDesc, f.AssertionValue))
	case *FilterExtensibleMatch:
		result.WriteString(fmt.Sprintf("%sExtensible Match - Matching Rule: %s, Attribute: %s, Value: %s, DN Attributes: %t\n",
			indent, f.MatchingRule, f.AttributeDesc, f.MatchValue, f.DNAttributes))
	default:
		result.WriteString(fmt.Sprintf("%sUnknown filter type.\n", indent))
	}

	return result.String()
}
