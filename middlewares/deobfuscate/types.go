package deobfmid

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/deobfsec/ldapstrip/middlewares/helpers"
	"github.com/deobfsec/ldapstrip/parser"
)

/*
   Deobfuscation FilterMiddlewares

   Each middleware rewrites a parsed filter tree into a logically equivalent
   one with less obfuscation, then rebuilds the tree so offsets, contexts
   and counters are fresh for the next middleware in the chain.

   References:
	- RFC4515 - LDAP: String Representation of Search Filters
	- DEFCON32 - MaLDAPtive
	- Microsoft Open Specifications - MS-ADTS
	  https://learn.microsoft.com/en-us/openspecs/windows_protocols/ms-adts
*/

// Scope restricts which branches a middleware touches.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeFilter
	ScopeFilterList
)

func scopeAllows(s Scope, b *parser.Branch) bool {
	switch s {
	case ScopeFilter:
		return b.Type == parser.BranchFilter
	case ScopeFilterList:
		return b.Type == parser.BranchFilterList
	}
	return true
}

// Options carries the knobs shared by every deobfuscation middleware.
// The zero value applies nothing; set RandomNodePercent (and, for
// character-level middlewares, RandomCharPercent) to 100 for deterministic
// full application.
type Options struct {
	// RandomNodePercent is the per-node application probability (0-100).
	RandomNodePercent int

	// RandomCharPercent is the per-character probability (0-100) used by
	// middlewares that edit inside token content.
	RandomCharPercent int

	// Scope limits eligible branches by type.
	Scope Scope

	// AdjacentTypes restricts whitespace removal to runs adjacent to at
	// least one of the given token types. Empty means any whitespace.
	AdjacentTypes []parser.TokenType

	// Target is the representation Apply renders.
	Target parser.Format

	// TrackModification keeps the Modified marks left on edited tokens so
	// callers can highlight what changed. When false, Apply wipes them.
	TrackModification bool

	// Rand drives all random decisions. Nil uses the global source; pass a
	// seeded source for reproducible runs.
	Rand *rand.Rand
}

func (o Options) chanceNode() bool { return helpers.Chance(o.Rand, o.RandomNodePercent) }
func (o Options) chanceChar() bool { return helpers.Chance(o.Rand, o.RandomCharPercent) }

// FilterMiddleware is a function that takes a filter tree and returns an
// equivalent, rebuilt tree.
type FilterMiddleware func(*parser.Branch) (*parser.Branch, error)

type FilterMiddlewareDefinition struct {
	Name string
	Func FilterMiddleware
}

type FilterMiddlewareChain struct {
	Middlewares []FilterMiddlewareDefinition
}

func (c *FilterMiddlewareChain) Add(m FilterMiddlewareDefinition) {
	c.Middlewares = append(c.Middlewares, m)
}

func (c *FilterMiddlewareChain) Execute(b *parser.Branch, verbose bool) (*parser.Branch, error) {
	current := b
	for _, middleware := range c.Middlewares {
		if verbose {
			log.Printf("[+] Applying middleware on Filter: %s\n", middleware.Name)
		}
		next, err := middleware.Func(current)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", middleware.Name, err)
		}
		current = next
	}
	return current, nil
}

// Apply runs a middleware chain over any filter representation - string,
// token stream, clause list or tree - and renders the result in the target
// format from opts.
func Apply(input interface{}, chain *FilterMiddlewareChain, opts Options) (interface{}, error) {
	b, err := toBranch(input)
	if err != nil {
		return nil, err
	}
	out, err := chain.Execute(b, false)
	if err != nil {
		return nil, err
	}
	if !opts.TrackModification {
		clearModified(out)
	}
	return parser.Convert(out, opts.Target), nil
}

func toBranch(input interface{}) (*parser.Branch, error) {
	switch v := input.(type) {
	case *parser.Branch:
		return v, nil
	case string:
		return parser.Parse(v)
	case []*parser.Token:
		return parser.Build(parser.EnrichTokens(v))
	case []*parser.Filter:
		joined := ""
		for _, f := range v {
			joined += f.Content
		}
		return parser.Parse(joined)
	}
	return nil, fmt.Errorf("unsupported filter representation %T", input)
}

func clearModified(b *parser.Branch) {
	for _, t := range parser.FlatTokens(b) {
		t.Modified = false
		for _, sub := range t.TokenList {
			sub.Modified = false
		}
	}
}
