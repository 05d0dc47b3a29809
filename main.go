package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/deobfsec/ldapstrip/ast"
	"github.com/deobfsec/ldapstrip/log"
	deobfmid "github.com/deobfsec/ldapstrip/middlewares/deobfuscate"
	obfmid "github.com/deobfsec/ldapstrip/middlewares/obfuscate"
	"github.com/deobfsec/ldapstrip/parser"
	"github.com/fatih/color"
	"github.com/spf13/pflag"
)

var green = color.New(color.FgGreen)
var red = color.New(color.FgRed)
var yellow = color.New(color.FgYellow)
var blue = color.New(color.FgBlue)

var (
	chainFlag   string
	obfFlag     string
	nodePercent int
	charPercent int
	formatFlag  string
	seedFlag    int64
	trackFlag   bool
	verifyFlag  bool
	profileFlag string
	adjacentCSV string
	maxPasses   int
	verbose     bool
	logFile     string
)

func init() {
	pflag.StringVarP(&chainFlag, "chain", "c", "PBISWX", "Chain of deobfuscation middlewares to apply")
	pflag.StringVarP(&obfFlag, "obfuscate", "O", "", "Obfuscate with this middleware chain instead of deobfuscating")
	pflag.IntVar(&nodePercent, "node-percent", 100, "Per-node application probability (0-100)")
	pflag.IntVar(&charPercent, "char-percent", 100, "Per-character application probability (0-100)")
	pflag.StringVarP(&formatFlag, "format", "f", "string", "Output format (string, tokens, tokens_enriched, filters, filters_merged, tree)")
	pflag.Int64Var(&seedFlag, "seed", 0, "Random seed for reproducible runs (0 = nondeterministic)")
	pflag.BoolVarP(&trackFlag, "track", "t", false, "Highlight the tokens the middlewares touched")
	pflag.BoolVar(&verifyFlag, "verify", false, "Check that input and output normalize to the same query")
	pflag.StringVarP(&profileFlag, "profile", "p", "", "YAML profile with preset options")
	pflag.StringVar(&adjacentCSV, "adjacent", "", "Comma-separated token types restricting whitespace removal")
	pflag.IntVar(&maxPasses, "max-passes", 10, "Upper bound on chain repetitions while the filter keeps shrinking")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Log each middleware application")
	pflag.StringVar(&logFile, "log", "", "Also append log output to this file")
}

func main() {
	pflag.Parse()
	log.InitLog(logFile)

	if profileFlag != "" {
		p, err := LoadProfile(profileFlag)
		if err != nil {
			red.Fprintf(os.Stderr, "[ERROR] %s\n", err)
			os.Exit(1)
		}
		applyProfile(p)
	}

	format, err := parser.ParseFormat(formatFlag)
	if err != nil {
		red.Fprintf(os.Stderr, "[ERROR] %s\n", err)
		os.Exit(1)
	}
	adjacent, err := parseAdjacentTypes(splitCSV(adjacentCSV))
	if err != nil {
		red.Fprintf(os.Stderr, "[ERROR] %s\n", err)
		os.Exit(1)
	}

	opts := deobfmid.Options{
		RandomNodePercent: nodePercent,
		RandomCharPercent: charPercent,
		AdjacentTypes:     adjacent,
		Target:            format,
		TrackModification: trackFlag,
		Rand:              newRand(seedFlag),
	}
	exitCode := 0
	if obfFlag != "" {
		SetupObfMidMap(opts.Rand, nodePercent)
		obfChain, err := BuildObfChain(obfFlag)
		if err != nil {
			red.Fprintf(os.Stderr, "[ERROR] %s\n", err)
			os.Exit(1)
		}
		for _, query := range inputQueries() {
			if err := processObfQuery(query, obfChain, format); err != nil {
				red.Fprintf(os.Stderr, "[ERROR] %s\n", err)
				exitCode = 1
			}
		}
		os.Exit(exitCode)
	}

	SetupFilterMidMap(opts)
	chain, err := BuildChain(chainFlag)
	if err != nil {
		red.Fprintf(os.Stderr, "[ERROR] %s\n", err)
		os.Exit(1)
	}
	for _, query := range inputQueries() {
		if err := processQuery(query, chain, opts, format); err != nil {
			red.Fprintf(os.Stderr, "[ERROR] %s\n", err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func processObfQuery(query string, chain *obfmid.FilterMiddlewareChain, format parser.Format) error {
	branch, err := parser.Parse(query)
	if err != nil {
		return err
	}
	blue.Printf("[<] %s\n", query)
	branch, err = chain.Execute(branch, verbose)
	if err != nil {
		return err
	}
	if verifyFlag {
		if err := verifyEquivalence(query, branch.String()); err != nil {
			yellow.Printf("[!] %s\n", err)
		}
	}
	printResult(branch, format)
	return nil
}

func applyProfile(p *Profile) {
	set := func(name string) bool { return pflag.CommandLine.Changed(name) }
	if p.Chain != "" && !set("chain") {
		chainFlag = p.Chain
	}
	if p.NodePercent != nil && !set("node-percent") {
		nodePercent = *p.NodePercent
	}
	if p.CharPercent != nil && !set("char-percent") {
		charPercent = *p.CharPercent
	}
	if p.Format != "" && !set("format") {
		formatFlag = p.Format
	}
	if p.Seed != nil && !set("seed") {
		seedFlag = *p.Seed
	}
	if p.Track != nil && !set("track") {
		trackFlag = *p.Track
	}
	if len(p.AdjacentTypes) > 0 && !set("adjacent") {
		adjacentCSV = strings.Join(p.AdjacentTypes, ",")
	}
}

func inputQueries() []string {
	if args := pflag.Args(); len(args) > 0 {
		return args
	}
	var queries []string
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			queries = append(queries, line)
		}
	}
	return queries
}

func processQuery(query string, chain *deobfmid.FilterMiddlewareChain, opts deobfmid.Options, format parser.Format) error {
	branch, err := parser.Parse(query)
	if err != nil {
		return err
	}
	blue.Printf("[<] %s\n", query)
	for _, warn := range parser.CheckLimits(branch) {
		yellow.Printf("[!] %s\n", warn)
	}

	// Layered obfuscation peels off one layer per chain run; keep going
	// until the output settles.
	prev := branch.String()
	for i := 0; i < maxPasses; i++ {
		branch, err = chain.Execute(branch, verbose)
		if err != nil {
			return err
		}
		if s := branch.String(); s != prev {
			prev = s
		} else {
			break
		}
	}

	if verifyFlag {
		if err := verifyEquivalence(query, branch.String()); err != nil {
			yellow.Printf("[!] %s\n", err)
		}
	}
	printResult(branch, format)
	return nil
}

// verifyEquivalence cross-checks the rewrite through the semantic model:
// both sides must normalize to the same canonical query.
func verifyEquivalence(before, after string) error {
	fb, err := ast.QueryToFilter(before)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	fa, err := ast.QueryToFilter(after)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	qb, err := ast.FilterToQuery(fb)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	qa, err := ast.FilterToQuery(fa)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if qb != qa {
		return fmt.Errorf("verify: canonical forms differ: %s vs %s", qb, qa)
	}
	return nil
}

func printResult(branch *parser.Branch, format parser.Format) {
	switch format {
	case parser.FormatTokens, parser.FormatTokensEnriched:
		for _, t := range parser.Convert(branch, format).([]*parser.Token) {
			printer := green
			if t.Modified {
				printer = red
			}
			printer.Printf("[>] %-22s %q\n", t.Type, t.Content)
		}
	case parser.FormatFilters:
		for _, f := range parser.Filters(branch) {
			green.Printf("[>] %s\n", f.Content)
		}
	case parser.FormatFiltersMerged:
		green.Printf("[>] %s\n", parser.MergedFilters(branch))
	case parser.FormatTree:
		printTree(branch)
	default:
		if trackFlag {
			fmt.Print("[>] ")
			for _, t := range parser.FlatTokens(branch) {
				if t.Modified {
					red.Print(t.Content)
				} else {
					green.Print(t.Content)
				}
			}
			fmt.Println()
		} else {
			green.Printf("[>] %s\n", branch.String())
		}
	}
}

func printTree(root *parser.Branch) {
	type frame struct {
		b      *parser.Branch
		indent int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pad := strings.Repeat("  ", f.indent)
		if f.b.Type == parser.BranchFilter {
			green.Printf("%s%s %s\n", pad, f.b.Type, f.b.Filter.Content)
			continue
		}
		op := f.b.BooleanOperator
		if op == "" {
			op = "-"
		}
		green.Printf("%s%s [%s]\n", pad, f.b.Type, op)
		nested := f.b.NestedBranches()
		for i := len(nested) - 1; i >= 0; i-- {
			stack = append(stack, frame{nested[i], f.indent + 1})
		}
	}
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
