package discovery

import (
	"github.com/mtjerneld/domainkin/pkg/models"
)

// Classify assigns the mutually exclusive MatchType for one variant row.
// Priority order: RedirectBack, then SameDNS, then Unrelated. A variant
// redirecting to itself can still classify RedirectBack or SameDNS here;
// self-redirects are filtered out later, at the aggregation stage, where
// discovery candidates are selected.
func Classify(baseDomain, redirectTarget string, dnsMatch bool) models.MatchType {
	base := models.NormalizeDomain(baseDomain)

	if target := models.HostOf(redirectTarget); target != "" && target == base {
		return models.MatchRedirectBack
	}
	if dnsMatch {
		return models.MatchSameDNS
	}
	return models.MatchUnrelated
}
