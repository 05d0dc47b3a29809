package parser

import "strings"

/*
   Boolean chain reduction

   A branch inherits a chain of boolean operators from its enclosing groups,
   e.g. "!|!!" for (!(|(!(!(...))))). Over a single term '&' and '|' are
   identities, so any chain reduces to an optional '!' followed by an
   optional final '&' or '|'. The transforms compare reduced chains before
   and after an edit to decide whether removing an operator keeps the
   filter's logic intact.
*/

// ReduceBooleanChain reduces an operator chain (outermost first) to its
// minimal equivalent: "", "&", "|", "!", "!&" or "!|".
//
// ignoreTrailingNegation drops the innermost run of '!' before reducing,
// for call sites where the negation belongs to the branch below the one
// under edit.
func ReduceBooleanChain(chain string, ignoreTrailingNegation bool) string {
	if ignoreTrailingNegation {
		chain = strings.TrimRight(chain, "!")
	}

	// The final '&' or '|' survives unless an odd number of negations
	// follows it.
	base := ""
	if i := strings.LastIndexAny(chain, "&|"); i >= 0 && (len(chain)-i-1)%2 == 0 {
		base = string(chain[i])
	}

	// Any run of '!' that does not cancel itself out leaves the chain
	// negated.
	negated := false
	run := 0
	for i := 0; i <= len(chain); i++ {
		if i < len(chain) && chain[i] == '!' {
			run++
			continue
		}
		if run%2 == 1 {
			negated = true
		}
		run = 0
	}

	if negated {
		return "!" + base
	}
	return base
}

// EquivalentBooleanChains reports whether two operator chains evaluate
// identically. For a chain scoping a single comparison clause the final '&'
// or '|' is inert, so singleTerm relaxes the comparison to ignore it.
func EquivalentBooleanChains(before, after string, singleTerm bool) bool {
	rb := ReduceBooleanChain(before, false)
	ra := ReduceBooleanChain(after, false)
	if rb == ra {
		return true
	}
	if !singleTerm {
		return false
	}
	return strings.TrimRight(rb, "&|") == strings.TrimRight(ra, "&|")
}
