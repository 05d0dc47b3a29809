package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"

	deobfmid "github.com/deobfsec/ldapstrip/middlewares/deobfuscate"
	obfmid "github.com/deobfsec/ldapstrip/middlewares/obfuscate"
	"github.com/deobfsec/ldapstrip/parser"
	"gopkg.in/yaml.v3"
)

var filterMidMap map[string]deobfmid.FilterMiddleware
var obfMidMap map[string]obfmid.FilterMiddleware

var filterMidFlags map[rune]string = map[rune]string{
	'P': "Parens",
	'B': "BoolOp",
	'I': "Inversion",
	'S': "Spacing",
	'W': "Wildcard",
	'X': "ExtMatch",
}

var obfMidFlags map[rune]string = map[rune]string{
	'P': "AddParens",
	'B': "AddBool",
	'D': "DblNegBool",
	'S': "Spacing",
	'W': "AddWildcard",
	'X': "HexValue",
}

// Profile is an on-disk preset for a deobfuscation run.
type Profile struct {
	Chain         string   `yaml:"chain"`
	NodePercent   *int     `yaml:"node_percent"`
	CharPercent   *int     `yaml:"char_percent"`
	Format        string   `yaml:"format"`
	Seed          *int64   `yaml:"seed"`
	Track         *bool    `yaml:"track"`
	AdjacentTypes []string `yaml:"adjacent_types"`
}

// LoadProfile reads a YAML preset from disk.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %q: %w", path, err)
	}
	return &p, nil
}

var tokenTypesByName = map[string]parser.TokenType{
	"groupstart":            parser.TokenGroupStart,
	"groupend":              parser.TokenGroupEnd,
	"booleanoperator":       parser.TokenBooleanOperator,
	"attribute":             parser.TokenAttribute,
	"extensiblematchfilter": parser.TokenExtensibleMatchFilter,
	"comparisonoperator":    parser.TokenComparisonOperator,
	"value":                 parser.TokenValue,
	"commadelimiter":        parser.TokenCommaDelimiter,
}

func parseAdjacentTypes(names []string) ([]parser.TokenType, error) {
	var out []parser.TokenType
	for _, name := range names {
		typ, ok := tokenTypesByName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown token type %q", name)
		}
		out = append(out, typ)
	}
	return out, nil
}

func SetupFilterMidMap(opts deobfmid.Options) {
	filterMidMap = map[string]deobfmid.FilterMiddleware{
		"Parens":    deobfmid.RemoveRandParensDeobf(opts),
		"BoolOp":    deobfmid.RemoveRandBoolOpDeobf(opts),
		"Inversion": deobfmid.RemoveRandInversionDeobf(opts),
		"Spacing":   deobfmid.RemoveRandWhitespaceDeobf(opts),
		"Wildcard":  deobfmid.RemoveRandWildcardDeobf(opts),
		"ExtMatch":  deobfmid.RemoveRandExtMatchDeobf(opts),
	}
}

func SetupObfMidMap(r *rand.Rand, prob int) {
	obfMidMap = map[string]obfmid.FilterMiddleware{
		"AddParens":   obfmid.RandAddParensObf(r, 2, prob),
		"AddBool":     obfmid.RandAddBoolObf(r, 2, prob),
		"DblNegBool":  obfmid.RandDblNegBoolObf(r, prob),
		"Spacing":     obfmid.RandSpacingObf(r, 3, prob),
		"AddWildcard": obfmid.RandAddWildcardObf(r, 2, prob),
		"HexValue":    obfmid.RandHexValueObf(r, prob),
	}
}

// BuildObfChain assembles the obfuscation chain named by the flag letters.
func BuildObfChain(letters string) (*obfmid.FilterMiddlewareChain, error) {
	chain := &obfmid.FilterMiddlewareChain{}
	for _, letter := range letters {
		name, ok := obfMidFlags[letter]
		if !ok {
			return nil, fmt.Errorf("unknown middleware flag %q", letter)
		}
		chain.Add(obfmid.FilterMiddlewareDefinition{
			Name: name,
			Func: obfMidMap[name],
		})
	}
	return chain, nil
}

// BuildChain assembles the middleware chain named by the flag letters, in
// order. Unknown letters are an error so typos do not silently skip steps.
func BuildChain(letters string) (*deobfmid.FilterMiddlewareChain, error) {
	chain := &deobfmid.FilterMiddlewareChain{}
	for _, letter := range letters {
		name, ok := filterMidFlags[letter]
		if !ok {
			return nil, fmt.Errorf("unknown middleware flag %q", letter)
		}
		chain.Add(deobfmid.FilterMiddlewareDefinition{
			Name: name,
			Func: filterMidMap[name],
		})
	}
	return chain, nil
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewSource(seed))
}
