package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtjerneld/domainkin/pkg/models"
)

func set(domains ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		s[d] = struct{}{}
	}
	return s
}

func TestCollectVariantMatches(t *testing.T) {
	rows := []models.VariantResult{
		{BaseDomain: "example.se", Variant: "example.com", MatchType: models.MatchRedirectBack,
			RedirectTarget: "https://example.se/"},
		{BaseDomain: "example.se", Variant: "example.nu", MatchType: models.MatchSameDNS, DNSMatch: true},
		{BaseDomain: "example.se", Variant: "example.no", MatchType: models.MatchUnrelated},
	}

	records := New(nil).Collect(rows, set("example.se"), set(), set("example.se"))

	assert.Len(t, records, 2)
	assert.Equal(t, models.MatchRecord{Domain: "example.com", Reason: models.ReasonRedirectBack, SourceDomain: "example.se"}, records[0])
	assert.Equal(t, models.MatchRecord{Domain: "example.nu", Reason: models.ReasonDNSMatch, SourceDomain: "example.se"}, records[1])
}

func TestCollectSeedRedirectTargetTrusted(t *testing.T) {
	// The seed's own row redirecting elsewhere: trusted unconditionally
	// as long as the row is not Unrelated.
	rows := []models.VariantResult{
		{BaseDomain: "example.se", Variant: "example.se", MatchType: models.MatchSameDNS, DNSMatch: true,
			RedirectTarget: "https://brand.com/"},
	}

	records := New(nil).Collect(rows, set("example.se"), set(), set("example.se"))

	// The SameDNS variant is the seed itself and is filtered by the
	// known set; only the redirect target remains.
	assert.Len(t, records, 1)
	assert.Equal(t, models.MatchRecord{Domain: "brand.com", Reason: models.ReasonOriginalDomain, SourceDomain: "example.se"}, records[0])
}

func TestCollectRedirectTargetReasons(t *testing.T) {
	rows := []models.VariantResult{
		// Seed row with redirect evidence: target qualifies as "Original domain".
		{BaseDomain: "example.se", Variant: "example.se", MatchType: models.MatchSameDNS, DNSMatch: true,
			RedirectTarget: "https://newbrand.se/"},
		// Frontier row with DNS evidence: target qualifies as "Discovered redirect".
		{BaseDomain: "brand.com", Variant: "brand.se", MatchType: models.MatchSameDNS, DNSMatch: true,
			RedirectTarget: "https://other.net/"},
		// Frontier row without evidence: target skipped.
		{BaseDomain: "brand.com", Variant: "brand.no", MatchType: models.MatchUnrelated,
			RedirectTarget: "https://stranger.org/"},
	}

	seeds := set("example.se")
	frontier := set("brand.com")
	known := set("example.se", "example.com", "brand.com", "brand.se")

	records := New(nil).Collect(rows, seeds, frontier, known)

	byDomain := make(map[string]models.MatchRecord)
	for _, r := range records {
		byDomain[r.Domain] = r
	}

	assert.Contains(t, byDomain, "newbrand.se")
	assert.Contains(t, byDomain, "other.net")
	assert.NotContains(t, byDomain, "stranger.org")
	assert.Equal(t, models.ReasonOriginalDomain, byDomain["newbrand.se"].Reason)
	assert.Equal(t, models.ReasonDiscoveredRedirect, byDomain["other.net"].Reason)
}

func TestCollectSelfRedirectNeverDiscovered(t *testing.T) {
	rows := []models.VariantResult{
		// Variant redirecting to itself (after www normalization): valid
		// SameDNS row, but its target must never become a candidate.
		{BaseDomain: "example.se", Variant: "example.dk", MatchType: models.MatchSameDNS, DNSMatch: true,
			RedirectTarget: "https://www.example.dk/"},
	}

	records := New(nil).Collect(rows, set("example.se"), set(), set("example.se", "example.dk"))

	assert.Empty(t, records, "self-redirect target must not qualify even with DNS evidence")
}

func TestCollectIdempotentAgainstKnown(t *testing.T) {
	rows := []models.VariantResult{
		{BaseDomain: "example.se", Variant: "example.com", MatchType: models.MatchRedirectBack,
			RedirectTarget: "https://example.se/"},
	}
	seeds := set("example.se")

	first := New(nil).Collect(rows, seeds, set(), set("example.se"))
	assert.Len(t, first, 1)

	// Simulate a second run after persistence: everything is known now.
	known := set("example.se", "example.com")
	second := New(nil).Collect(rows, seeds, set(), known)
	assert.Empty(t, second)
}

func TestCollectDeduplicatesCandidates(t *testing.T) {
	rows := []models.VariantResult{
		{BaseDomain: "example.se", Variant: "example.com", MatchType: models.MatchRedirectBack,
			RedirectTarget: "https://example.se/"},
		{BaseDomain: "example.nu", Variant: "example.com", MatchType: models.MatchSameDNS, DNSMatch: true},
	}

	records := New(nil).Collect(rows, set("example.se", "example.nu"), set(), set("example.se", "example.nu"))

	assert.Len(t, records, 1)
	assert.Equal(t, models.ReasonRedirectBack, records[0].Reason, "first qualifying reason wins")
}
