package aggregate

import (
	"github.com/sirupsen/logrus"

	"github.com/mtjerneld/domainkin/pkg/models"
)

// Aggregator turns the full result table into the set of domains
// eligible to be written back to the seed file, each with a structured
// reason explaining why it qualifies.
type Aggregator struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Aggregator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Aggregator{logger: logger}
}

// Collect selects persistence candidates from the result rows.
//
// seeds holds the original input domains, frontier the round-2 entries,
// and known every domain already present in the seed file (commented
// lines included). All sets are keyed by normalized domain.
func (a *Aggregator) Collect(rows []models.VariantResult, seeds, frontier, known map[string]struct{}) []models.MatchRecord {
	var records []models.MatchRecord
	picked := make(map[string]struct{})

	add := func(domain string, reason models.MatchReason, source string) {
		if domain == "" {
			return
		}
		if _, dup := picked[domain]; dup {
			return
		}
		if _, exists := known[domain]; exists {
			a.logger.Debugf("Skipping %s: already in seed file", domain)
			return
		}
		picked[domain] = struct{}{}
		records = append(records, models.MatchRecord{
			Domain:       domain,
			Reason:       reason,
			SourceDomain: models.NormalizeDomain(source),
		})
	}

	// Matching variants first: the variant hostname itself qualifies.
	for _, row := range rows {
		switch row.MatchType {
		case models.MatchRedirectBack:
			add(models.NormalizeDomain(row.Variant), models.ReasonRedirectBack, row.BaseDomain)
		case models.MatchSameDNS:
			add(models.NormalizeDomain(row.Variant), models.ReasonDNSMatch, row.BaseDomain)
		}
	}

	// Then redirect targets, which need a justified reason: trusted
	// unconditionally for original seeds, corroborated by DNS or
	// redirect evidence for round-2 discoveries.
	for _, row := range rows {
		target := models.HostOf(row.RedirectTarget)
		if target == "" {
			continue
		}
		if target == models.NormalizeDomain(row.Variant) {
			// Self-redirect, e.g. a www or scheme bounce. Never a
			// discovery, whatever the row classified as.
			continue
		}

		base := models.NormalizeDomain(row.BaseDomain)
		if _, isSeed := seeds[base]; isSeed && row.MatchType != models.MatchUnrelated {
			add(target, models.ReasonOriginalDomain, row.BaseDomain)
			continue
		}
		if _, isFrontier := frontier[base]; isFrontier && (row.DNSMatch || row.MatchType == models.MatchRedirectBack) {
			add(target, models.ReasonDiscoveredRedirect, row.BaseDomain)
		}
	}

	return records
}
