package deobfmid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveExtMatch_DropsIgnoredRule(t *testing.T) {
	// A bogus rule without a period is ignored by the server.
	mid := RemoveRandExtMatchDeobf(fullOpts())
	assert.Equal(t, "(name=sabi)", runMiddleware(t, mid, "(name:timeSaved:=sabi)"))
}

func TestRemoveExtMatch_PeriodRuleBecomesMarker(t *testing.T) {
	// A bogus OID-shaped rule makes the clause permanently false; the ':.:'
	// marker preserves that.
	mid := RemoveRandExtMatchDeobf(fullOpts())
	assert.Equal(t, "(!name:.:=sabi)", runMiddleware(t, mid, "(!name:1.3.3.7:=sabi)"))
}

func TestRemoveExtMatch_SupportedRulesKept(t *testing.T) {
	mid := RemoveRandExtMatchDeobf(fullOpts())
	for _, src := range []string{
		"(flags:1.2.840.113556.1.4.803:=2)",
		"(member:1.2.840.113556.1.4.1941:=x)",
		"(name:dn:=sabi)",
	} {
		assert.Equal(t, src, runMiddleware(t, mid, src))
	}
}

func TestRemoveExtMatch_MixedSegments(t *testing.T) {
	mid := RemoveRandExtMatchDeobf(fullOpts())
	assert.Equal(t, "(name:dn:1.2.840.113556.1.4.804:=x)",
		runMiddleware(t, mid, "(name:dn:bogusRule:1.2.840.113556.1.4.804:=x)"))
}

func TestRemoveExtMatch_PeriodWinsOverSupported(t *testing.T) {
	mid := RemoveRandExtMatchDeobf(fullOpts())
	assert.Equal(t, "(name:.:=x)", runMiddleware(t, mid, "(name:dn:1.3.3.7:=x)"))
}

func TestRemoveExtMatch_HexEncodedRuleNotDirty(t *testing.T) {
	// The escaped segment decodes to a supported rule and is left as-is.
	mid := RemoveRandExtMatchDeobf(fullOpts())
	src := `(flags:1.2.840.113556.1.4.80\33:=2)`
	assert.Equal(t, src, runMiddleware(t, mid, src))
}

func TestRemoveExtMatch_ZeroPercent(t *testing.T) {
	mid := RemoveRandExtMatchDeobf(Options{RandomNodePercent: 0})
	src := "(name:timeSaved:=sabi)"
	assert.Equal(t, src, runMiddleware(t, mid, src))
}
