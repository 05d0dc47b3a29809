package parser

import (
	"regexp"
	"strings"
)

// IsOID checks if a string matches OID pattern (numbers separated by dots)
func IsOID(s string) bool {
	oidPattern := regexp.MustCompile(`^(?i:oid\.)?\d+(\.\d+)*$`)
	return oidPattern.MatchString(s)
}

// Matching rules Active Directory actually evaluates. Anything else inside an
// extensible-match infix is either ignored (no period) or makes the clause
// permanently non-matching (period present).
// https://learn.microsoft.com/en-us/openspecs/windows_protocols/ms-adts
const (
	MatchingRuleBitAnd  = "1.2.840.113556.1.4.803"
	MatchingRuleBitOr   = "1.2.840.113556.1.4.804"
	MatchingRuleInChain = "1.2.840.113556.1.4.1941"
)

var supportedMatchingRules = map[string]bool{
	MatchingRuleBitAnd:  true,
	MatchingRuleBitOr:   true,
	MatchingRuleInChain: true,
}

// IsSupportedMatchingRule reports whether a single colon-delimited segment of
// an extensible-match infix resolves to a rule AD supports. Hex escapes are
// resolved and an "oid." prefix is stripped before the comparison; the "dn"
// flag segment counts as supported.
func IsSupportedMatchingRule(segment string) bool {
	decoded := strings.ToLower(DecodeEscapes(segment))
	decoded = strings.TrimPrefix(decoded, "oid.")
	if decoded == "dn" {
		return true
	}
	return supportedMatchingRules[decoded]
}
