package parser

/*
   Enrichment layer: adjacent-type annotation and whitespace merging.
*/

// EnrichTokens annotates every token with the types of its neighbors in the
// flat stream and merges runs of adjacent Whitespace tokens into a single
// token that keeps the original runs in its TokenList. Returns the (possibly
// shorter) stream; the input slice is not reused.
func EnrichTokens(tokens []*Token) []*Token {
	merged := make([]*Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Type != TokenWhitespace {
			merged = append(merged, t)
			continue
		}
		run := []*Token{t}
		for i+1 < len(tokens) && tokens[i+1].Type == TokenWhitespace {
			i++
			run = append(run, tokens[i])
		}
		if len(run) == 1 {
			merged = append(merged, t)
			continue
		}
		content := ""
		modified := false
		for _, w := range run {
			content += w.Content
			modified = modified || w.Modified
		}
		m := newLexedToken(TokenWhitespace, content, run[0].Start, run[0].Depth)
		m.Guid = run[0].Guid
		m.TokenList = run
		m.Modified = modified
		merged = append(merged, m)
	}

	for i, t := range merged {
		if i > 0 {
			t.TypeBefore = merged[i-1].Type
		} else {
			t.TypeBefore = TokenUnknown
		}
		if i < len(merged)-1 {
			t.TypeAfter = merged[i+1].Type
		} else {
			t.TypeAfter = TokenUnknown
		}
	}
	return merged
}
