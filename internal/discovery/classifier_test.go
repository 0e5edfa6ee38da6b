package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtjerneld/domainkin/pkg/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name           string
		base           string
		redirectTarget string
		dnsMatch       bool
		expected       models.MatchType
	}{
		{"redirect back to base", "example.se", "https://example.se/", false, models.MatchRedirectBack},
		{"redirect back with www", "example.se", "https://www.example.se/start", false, models.MatchRedirectBack},
		{"redirect back beats dns", "example.se", "https://example.se/", true, models.MatchRedirectBack},
		{"subdomain is not redirect back", "example.com", "https://shop.example.com/", false, models.MatchUnrelated},
		{"subdomain with dns evidence", "example.com", "https://shop.example.com/", true, models.MatchSameDNS},
		{"dns only", "example.se", "", true, models.MatchSameDNS},
		{"unrelated redirect", "example.se", "https://other.net/", false, models.MatchUnrelated},
		{"nothing", "example.se", "", false, models.MatchUnrelated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.base, tc.redirectTarget, tc.dnsMatch))
		})
	}
}
