package deobfmid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveWildcard_CollapsesRuns(t *testing.T) {
	mid := RemoveRandWildcardDeobf(fullOpts())
	assert.Equal(t, "(name=*sa*bi)", runMiddleware(t, mid, "(name=***sa**bi)"))
}

func TestRemoveWildcard_EscapedAsterisksAreLiterals(t *testing.T) {
	mid := RemoveRandWildcardDeobf(fullOpts())
	assert.Equal(t, `(name=*\2a*sa)`, runMiddleware(t, mid, `(name=*\2a*sa)`))
	assert.Equal(t, `(name=*\2a)`, runMiddleware(t, mid, `(name=**\2a)`))
}

func TestRemoveWildcard_CollapseToPresence(t *testing.T) {
	mid := RemoveRandWildcardDeobf(fullOpts())
	assert.Equal(t, "(name=*)", runMiddleware(t, mid, "(name=****)"))
	// Trailing whitespace after the collapsed presence value goes with it.
	assert.Equal(t, "(name=*)", runMiddleware(t, mid, "(name=**   )"))
}

func TestRemoveWildcard_SeparatedWildcardsKept(t *testing.T) {
	mid := RemoveRandWildcardDeobf(fullOpts())
	assert.Equal(t, "(name=*sa*)", runMiddleware(t, mid, "(name=*sa*)"))
}

func TestRemoveWildcard_ZeroCharPercent(t *testing.T) {
	mid := RemoveRandWildcardDeobf(Options{RandomNodePercent: 100, RandomCharPercent: 0})
	assert.Equal(t, "(name=**sabi)", runMiddleware(t, mid, "(name=**sabi)"))
}
