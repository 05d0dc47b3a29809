package deobfmid

import (
	"testing"

	"github.com/deobfsec/ldapstrip/parser"
	"github.com/stretchr/testify/assert"
)

func TestRemoveWhitespace_AroundClause(t *testing.T) {
	mid := RemoveRandWhitespaceDeobf(fullOpts())
	assert.Equal(t, "(name=sabi)", runMiddleware(t, mid, "  (  name=   sabi)  "))
}

func TestRemoveWhitespace_InsideFilterList(t *testing.T) {
	mid := RemoveRandWhitespaceDeobf(fullOpts())
	assert.Equal(t, "(&(a=1)(b=2))", runMiddleware(t, mid, "( & (a=1) (b=2) )"))
}

func TestRemoveWhitespace_ValueTextUntouched(t *testing.T) {
	// Whitespace inside the assertion value is significant.
	mid := RemoveRandWhitespaceDeobf(fullOpts())
	assert.Equal(t, "(cn=John Doe)", runMiddleware(t, mid, "( cn= John Doe)"))
}

func TestRemoveWhitespace_RDNComponents(t *testing.T) {
	mid := RemoveRandWhitespaceDeobf(fullOpts())
	assert.Equal(t, "(member=CN=sabi,OU=users)",
		runMiddleware(t, mid, "(member=CN =sabi, OU=users)"))
}

func TestRemoveWhitespace_AdjacentTypeRestriction(t *testing.T) {
	opts := fullOpts()
	opts.AdjacentTypes = []parser.TokenType{parser.TokenGroupStart}
	mid := RemoveRandWhitespaceDeobf(opts)
	// Only the runs touching a GroupStart go; the one between '=' and the
	// value stays.
	assert.Equal(t, "(name= sabi)", runMiddleware(t, mid, "  ( name= sabi)"))
}

func TestRemoveWhitespace_ZeroPercent(t *testing.T) {
	mid := RemoveRandWhitespaceDeobf(Options{RandomNodePercent: 0})
	src := "  (  name=   sabi)  "
	assert.Equal(t, src, runMiddleware(t, mid, src))
}
