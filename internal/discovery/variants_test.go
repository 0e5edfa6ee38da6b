package discovery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariantsLengthAndSuffixes(t *testing.T) {
	g := NewVariantGenerator(nil)

	for _, domain := range []string{"example.se", "foo.com", "long-name.nu", "unusual.org"} {
		variants := g.Variants(domain)
		assert.Len(t, variants, len(DefaultSuffixes), "domain %s", domain)

		for _, v := range variants {
			matched := false
			for _, suffix := range DefaultSuffixes {
				if strings.HasSuffix(v, suffix) {
					matched = true
					break
				}
			}
			assert.True(t, matched, "variant %s has no configured suffix", v)
		}
	}
}

func TestVariantsIncludeBaseForKnownSuffix(t *testing.T) {
	g := NewVariantGenerator(nil)
	assert.Contains(t, g.Variants("example.se"), "example.se")
}

func TestVariantsStem(t *testing.T) {
	g := NewVariantGenerator(nil)
	variants := g.Variants("example.org")
	assert.Equal(t, []string{"example.se", "example.com", "example.no", "example.fi", "example.dk", "example.nu"}, variants)
}

func TestVariantsCustomSuffixesNormalized(t *testing.T) {
	g := NewVariantGenerator([]string{"de", ".AT"})
	assert.Equal(t, []string{".de", ".at"}, g.Suffixes())
	assert.Equal(t, []string{"example.de", "example.at"}, g.Variants("www.Example.com"))
}
