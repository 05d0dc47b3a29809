package parser

import (
	"fmt"
	"strings"
)

/*
   Serialization and representation conversion

   The tree, the enriched token stream, the raw token stream, the clause
   list and the plain string are interchangeable views of the same filter.
   Rebuild is the canonical way back to a fresh tree after structural edits:
   it re-lexes the serialized text and carries token identity (Guid) and
   modification marks across by character-span alignment.
*/

// Format names one representation of a search filter.
type Format int

const (
	FormatString Format = iota
	FormatTokens
	FormatTokensEnriched
	FormatFilters
	FormatFiltersMerged
	FormatTree
)

func (f Format) String() string {
	switch f {
	case FormatString:
		return "string"
	case FormatTokens:
		return "tokens"
	case FormatTokensEnriched:
		return "tokens_enriched"
	case FormatFilters:
		return "filters"
	case FormatFiltersMerged:
		return "filters_merged"
	case FormatTree:
		return "tree"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat resolves a format name as used in profiles and on the command
// line.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string":
		return FormatString, nil
	case "tokens":
		return FormatTokens, nil
	case "tokens_enriched", "enriched":
		return FormatTokensEnriched, nil
	case "filters":
		return FormatFilters, nil
	case "filters_merged", "merged":
		return FormatFiltersMerged, nil
	case "tree":
		return FormatTree, nil
	}
	return FormatString, fmt.Errorf("unknown filter format %q", name)
}

// TokensToString concatenates a token stream back into filter text.
func TokensToString(tokens []*Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Content)
	}
	return sb.String()
}

// String serializes the subtree back to filter text. Every source byte the
// lexer kept comes back out, so an untouched tree round-trips exactly.
func (b *Branch) String() string {
	var sb strings.Builder
	type frame struct {
		b   *Branch
		idx int
	}
	stack := []frame{{b, 0}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.b.Type == BranchFilter {
			if f.b.Filter != nil {
				sb.WriteString(f.b.Filter.Content)
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if f.idx >= len(f.b.Items) {
			stack = stack[:len(stack)-1]
			continue
		}
		it := f.b.Items[f.idx]
		f.idx++
		if it.Token != nil {
			sb.WriteString(it.Token.Content)
		} else if it.Branch != nil {
			stack = append(stack, frame{it.Branch, 0})
		}
	}
	return sb.String()
}

// FlatTokens lists the tree's tokens in serialization order, in their
// enriched (whitespace-merged) form.
func FlatTokens(b *Branch) []*Token {
	var out []*Token
	type frame struct {
		b   *Branch
		idx int
	}
	stack := []frame{{b, 0}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.b.Type == BranchFilter {
			if f.b.Filter != nil {
				out = append(out, f.b.Filter.Tokens...)
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if f.idx >= len(f.b.Items) {
			stack = stack[:len(stack)-1]
			continue
		}
		it := f.b.Items[f.idx]
		f.idx++
		if it.Token != nil {
			out = append(out, it.Token)
		} else if it.Branch != nil {
			stack = append(stack, frame{it.Branch, 0})
		}
	}
	return out
}

// decomposeWhitespace undoes whitespace merging, restoring the raw lexed
// stream. Value tokens keep their RDN sub-tokens nested.
func decomposeWhitespace(tokens []*Token) []*Token {
	out := make([]*Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Type == TokenWhitespace && len(t.TokenList) > 0 {
			out = append(out, t.TokenList...)
			continue
		}
		out = append(out, t)
	}
	return out
}

// Filters lists the comparison clauses of the subtree in serialization
// order.
func Filters(b *Branch) []*Filter {
	var out []*Filter
	VisitAll(b, func(br, _ *Branch) {
		if br.Type == BranchFilter && br.Filter != nil {
			out = append(out, br.Filter)
		}
	})
	return out
}

// MergedFilters concatenates only the comparison clauses, dropping the
// grouping syntax around them.
func MergedFilters(b *Branch) string {
	var sb strings.Builder
	for _, f := range Filters(b) {
		sb.WriteString(f.Content)
	}
	return sb.String()
}

// Convert renders the tree in the requested representation. The concrete
// type of the result depends on the format: string, []*Token, []*Filter or
// *Branch.
func Convert(b *Branch, target Format) interface{} {
	switch target {
	case FormatTokens:
		return decomposeWhitespace(FlatTokens(b))
	case FormatTokensEnriched:
		return FlatTokens(b)
	case FormatFilters:
		return Filters(b)
	case FormatFiltersMerged:
		return MergedFilters(b)
	case FormatTree:
		return b
	}
	return b.String()
}

// Rebuild serializes the tree and parses it again, producing a fresh tree
// with correct offsets, depths, contexts and counters. Tokens that survive
// the round-trip byte-for-byte keep their Guid; new tokens overlapping a
// modified region inherit the modification mark.
func Rebuild(b *Branch) (*Branch, error) {
	src := b.String()
	fresh, err := Lex(src)
	if err != nil {
		return nil, err
	}
	transferIdentity(decomposeWhitespace(FlatTokens(b)), fresh)
	return Build(EnrichTokens(fresh))
}

// transferIdentity aligns two token streams over the same text by character
// span. Concatenated old content equals the new source, so cumulative
// offsets line the streams up without consulting stale Start fields.
func transferIdentity(oldToks, newToks []*Token) {
	type span struct {
		start, end int
		tok        *Token
	}
	spans := make([]span, 0, len(oldToks))
	pos := 0
	for _, t := range oldToks {
		spans = append(spans, span{pos, pos + len(t.Content), t})
		pos += len(t.Content)
	}

	i := 0
	npos := 0
	for _, nt := range newToks {
		nstart, nend := npos, npos+len(nt.Content)
		npos = nend
		for i < len(spans) && spans[i].end <= nstart {
			i++
		}
		for j := i; j < len(spans) && spans[j].start < nend; j++ {
			if spans[j].tok.Modified {
				nt.Modified = true
			}
			if spans[j].start == nstart && spans[j].end == nend && spans[j].tok.Content == nt.Content {
				nt.Guid = spans[j].tok.Guid
			}
		}
	}
}
