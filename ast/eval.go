package ast

import (
	"strconv"
	"strings"
)

// Entry is a directory object as the evaluator sees it: attribute name to
// values. Attribute names are matched case-insensitively, like AD does.
type Entry map[string][]string

func (e Entry) values(attr string) []string {
	for name, vals := range e {
		if strings.EqualFold(name, attr) {
			return vals
		}
	}
	return nil
}

// Matches evaluates a filter against an entry. The evaluator is deliberately
// simple-minded about syntaxes: values compare case-insensitively, ordering
// comparisons go numeric when both sides parse as integers. It exists to
// check that a rewritten filter selects the same entries as the original,
// not to replace a directory server.
func Matches(f Filter, entry Entry) bool {
	switch filter := f.(type) {
	case *FilterAnd:
		for _, sub := range filter.Filters {
			if !Matches(sub, entry) {
				return false
			}
		}
		return true
	case *FilterOr:
		for _, sub := range filter.Filters {
			if Matches(sub, entry) {
				return true
			}
		}
		return false
	case *FilterNot:
		return !Matches(filter.Filter, entry)
	case *FilterEqualityMatch:
		return anyValue(entry, filter.AttributeDesc, func(v string) bool {
			return strings.EqualFold(v, filter.AssertionValue)
		})
	case *FilterPresent:
		return len(entry.values(filter.AttributeDesc)) > 0
	case *FilterSubstring:
		return anyValue(entry, filter.AttributeDesc, func(v string) bool {
			return matchSubstrings(filter.Substrings, v)
		})
	case *FilterGreaterOrEqual:
		return anyValue(entry, filter.AttributeDesc, func(v string) bool {
			return compareValues(v, filter.AssertionValue) >= 0
		})
	case *FilterLessOrEqual:
		return anyValue(entry, filter.AttributeDesc, func(v string) bool {
			return compareValues(v, filter.AssertionValue) <= 0
		})
	case *FilterApproxMatch:
		return anyValue(entry, filter.AttributeDesc, func(v string) bool {
			return strings.EqualFold(v, filter.AssertionValue)
		})
	case *FilterExtensibleMatch:
		return matchExtensible(filter, entry)
	}
	return false
}

func anyValue(entry Entry, attr string, pred func(string) bool) bool {
	for _, v := range entry.values(attr) {
		if pred(v) {
			return true
		}
	}
	return false
}

func compareValues(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func matchSubstrings(subs []SubstringFilter, value string) bool {
	v := strings.ToLower(value)
	initial, final := "", ""
	var anys []string
	for _, sub := range subs {
		if sub.Initial != "" {
			initial = strings.ToLower(sub.Initial)
		}
		for _, any := range sub.Any {
			anys = append(anys, strings.ToLower(any))
		}
		if sub.Final != "" {
			final = strings.ToLower(sub.Final)
		}
	}

	if !strings.HasPrefix(v, initial) {
		return false
	}
	v = v[len(initial):]
	for _, any := range anys {
		idx := strings.Index(v, any)
		if idx < 0 {
			return false
		}
		v = v[idx+len(any):]
	}
	return strings.HasSuffix(v, final)
}

// matchExtensible handles the three matching rules AD evaluates. Anything
// else makes the clause permanently false, which is exactly why obfuscators
// plant bogus rules inside negations.
func matchExtensible(f *FilterExtensibleMatch, entry Entry) bool {
	rule := strings.TrimPrefix(strings.ToLower(f.MatchingRule), "oid.")
	switch rule {
	case "", "1.2.840.113556.1.4.1941":
		// LDAP_MATCHING_RULE_IN_CHAIN needs link traversal; over a flat
		// entry it degrades to equality.
		return anyValue(entry, f.AttributeDesc, func(v string) bool {
			return strings.EqualFold(v, f.MatchValue)
		})
	case "1.2.840.113556.1.4.803":
		mask, err := strconv.ParseInt(f.MatchValue, 10, 64)
		if err != nil {
			return false
		}
		return anyValue(entry, f.AttributeDesc, func(v string) bool {
			n, err := strconv.ParseInt(v, 10, 64)
			return err == nil && n&mask == mask
		})
	case "1.2.840.113556.1.4.804":
		mask, err := strconv.ParseInt(f.MatchValue, 10, 64)
		if err != nil {
			return false
		}
		return anyValue(entry, f.AttributeDesc, func(v string) bool {
			n, err := strconv.ParseInt(v, 10, 64)
			return err == nil && n&mask != 0
		})
	}
	// AD ignores an unrecognized rule without a period and treats the clause
	// as a plain match; a period-bearing unrecognized rule never matches.
	if !strings.Contains(rule, ".") {
		return anyValue(entry, f.AttributeDesc, func(v string) bool {
			return strings.EqualFold(v, f.MatchValue)
		})
	}
	return false
}
