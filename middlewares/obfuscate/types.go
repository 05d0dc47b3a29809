package obfmid

import (
	"fmt"
	"log"

	"github.com/deobfsec/ldapstrip/parser"
)

// FilterMiddleware is a function that takes a filter tree and returns an
// obfuscated, rebuilt tree.
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
