package parser

/*
   Filter: a single comparison clause, e.g. (name=sabi) or (&cn=*admin*)

   A Filter owns its component tokens twice over: as the ordered list that
   serializes back to text, and as a type-keyed lookup for the structural
   tokens. Content is derived and kept equal to the concatenation of the
   token contents after every edit.
*/

// Filter is one comparison clause of a search filter, parentheses included
// when the clause was parenthesized in the source.
type Filter struct {
	Tokens    []*Token
	TokenDict map[TokenType]*Token
	Content   string
}

func newFilter(tokens []*Token, errOffset int) (*Filter, error) {
	f := &Filter{Tokens: tokens}
	f.refresh()

	if f.TokenDict[TokenAttribute] == nil {
		return nil, parseErrorf(errOffset, "missing attribute in filter")
	}
	if f.TokenDict[TokenComparisonOperator] == nil {
		return nil, parseErrorf(errOffset, "missing comparison operator in filter")
	}
	if f.TokenDict[TokenValue] == nil {
		return nil, parseErrorf(errOffset, "missing value in filter")
	}
	return f, nil
}

// refresh re-derives Content and TokenDict from the token list. TokenDict
// keeps the first token of each type; a well-formed clause has exactly one
// Attribute, ComparisonOperator and Value anyway.
func (f *Filter) refresh() {
	f.TokenDict = make(map[TokenType]*Token, len(f.Tokens))
	content := ""
	for _, t := range f.Tokens {
		content += t.Content
		if _, seen := f.TokenDict[t.Type]; !seen {
			f.TokenDict[t.Type] = t
		}
	}
	f.Content = content
}

// OperatorToken returns the clause's in-parenthesis boolean operator token,
// or nil. A Filter-scope operator applies to a single term, so '&' and '|'
// here are identities and '!' negates the clause.
func (f *Filter) OperatorToken() *Token {
	return f.TokenDict[TokenBooleanOperator]
}

// operatorTokens lists every boolean operator token of the clause in order.
func (f *Filter) operatorTokens() []*Token {
	var ops []*Token
	for _, t := range f.Tokens {
		if t.Type == TokenBooleanOperator {
			ops = append(ops, t)
		}
	}
	return ops
}

// BooleanOperator returns the clause operator content, or "".
func (f *Filter) BooleanOperator() string {
	if t := f.OperatorToken(); t != nil {
		return t.Content
	}
	return ""
}

func (f *Filter) AttributeToken() *Token {
	return f.TokenDict[TokenAttribute]
}

func (f *Filter) ComparisonToken() *Token {
	return f.TokenDict[TokenComparisonOperator]
}

func (f *Filter) ValueToken() *Token {
	return f.TokenDict[TokenValue]
}

func (f *Filter) ExtensibleMatchToken() *Token {
	return f.TokenDict[TokenExtensibleMatchFilter]
}
