package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mtjerneld/domainkin/internal/discovery"
	"github.com/mtjerneld/domainkin/internal/fingerprint"
	"github.com/mtjerneld/domainkin/internal/probe"
	"github.com/mtjerneld/domainkin/pkg/models"
	"github.com/mtjerneld/domainkin/pkg/utils"
)

// Fingerprinter resolves and caches a domain's DNS fingerprint.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, domain string) models.DomainFingerprint
}

// Prober issues a single non-redirecting HEAD probe.
type Prober interface {
	Probe(ctx context.Context, rawURL string) probe.Result
}

// ProgressFunc receives advisory progress events: round number, 1-based
// index, total domains in the round, and the domain being probed.
type ProgressFunc func(round, index, total int, domain string)

type Config struct {
	Parallel bool `yaml:"parallel" json:"parallel"`
	Workers  int  `yaml:"workers" json:"workers"`
}

// RunResult is everything downstream stages need: the ordered result
// table plus the seed and frontier sets keyed by normalized domain.
type RunResult struct {
	Rows     []models.VariantResult
	Seeds    map[string]struct{}
	Frontier map[string]struct{}
}

// Engine drives the two-round discovery pipeline: round 1 probes every
// seed, the frontier rule selects second-degree candidates, and round 2
// probes those. Depth never exceeds 2; the tested set
// guarantees no domain is probed twice in a run.
type Engine struct {
	fingerprints Fingerprinter
	prober       Prober
	variants     *discovery.VariantGenerator
	logger       *logrus.Logger
	config       Config
	progress     ProgressFunc
	metrics      *utils.MetricsCollector

	mu     sync.Mutex
	rows   []models.VariantResult
	tested map[string]struct{}
}

func NewEngine(fingerprints Fingerprinter, prober Prober, variants *discovery.VariantGenerator, config Config, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	if variants == nil {
		variants = discovery.NewVariantGenerator(nil)
	}
	if config.Workers <= 0 {
		config.Workers = 8
	}
	return &Engine{
		fingerprints: fingerprints,
		prober:       prober,
		variants:     variants,
		logger:       logger,
		config:       config,
		tested:       make(map[string]struct{}),
	}
}

func (e *Engine) SetProgressFunc(fn ProgressFunc) { e.progress = fn }

func (e *Engine) SetMetrics(m *utils.MetricsCollector) {
	e.metrics = m
	if m != nil {
		_ = m.RegisterCounter("domainkin_domains_probed_total", "Domains run through the variant pipeline", "round")
		_ = m.RegisterCounter("domainkin_http_probes_total", "HTTP HEAD probes issued", "scheme")
		_ = m.RegisterCounter("domainkin_matches_total", "Variant rows classified as related", "match_type")
	}
}

// Run executes both rounds and returns the merged result table.
func (e *Engine) Run(ctx context.Context, seeds []string) (*RunResult, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed domains to probe")
	}

	seedSet := make(map[string]struct{}, len(seeds))
	normalized := make([]string, 0, len(seeds))
	for _, s := range seeds {
		d := models.NormalizeDomain(s)
		if d == "" {
			continue
		}
		if _, dup := seedSet[d]; dup {
			continue
		}
		seedSet[d] = struct{}{}
		normalized = append(normalized, d)
	}

	e.logger.Infof("Round 1: probing %d seed domains (%d TLD variants each)",
		len(normalized), len(e.variants.Suffixes()))

	if e.config.Parallel {
		if err := e.runRoundParallel(ctx, 1, normalized); err != nil {
			return nil, err
		}
	} else {
		if err := e.runRoundSequential(ctx, 1, normalized); err != nil {
			return nil, err
		}
	}

	frontier := e.selectFrontier()
	frontierSet := make(map[string]struct{}, len(frontier))
	for _, d := range frontier {
		frontierSet[d] = struct{}{}
	}

	e.logger.Infof("Round 2: probing %d discovered domains", len(frontier))

	// Round 2 is always sequential: the frontier is only known once
	// round 1 has fully drained, and second-degree fan-out is small.
	if len(frontier) > 0 {
		if err := e.runRoundSequential(ctx, 2, frontier); err != nil {
			return nil, err
		}
	}

	return &RunResult{Rows: e.rows, Seeds: seedSet, Frontier: frontierSet}, nil
}

// RunSingle executes one per-domain pipeline invocation without frontier
// expansion. This is the worker-mode entry point.
func (e *Engine) RunSingle(ctx context.Context, domain string) []models.VariantResult {
	return e.probeDomain(ctx, 1, domain)
}

func (e *Engine) runRoundSequential(ctx context.Context, round int, domains []string) error {
	for i, domain := range domains {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.emitProgress(round, i+1, len(domains), domain)
		rows := e.probeDomain(ctx, round, domain)
		e.appendRows(rows)
	}
	return nil
}

func (e *Engine) runRoundParallel(ctx context.Context, round int, domains []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)

	var done int
	var progressMu sync.Mutex

	for _, domain := range domains {
		domain := domain
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows := e.probeDomain(ctx, round, domain)
			e.appendRows(rows)

			progressMu.Lock()
			done++
			index := done
			progressMu.Unlock()
			e.emitProgress(round, index, len(domains), domain)
			return nil
		})
	}
	return g.Wait()
}

// probeDomain runs the identical per-domain pipeline both rounds use:
// variant generation, DNS fingerprint, redirect probe, classification.
// All variants of a domain are fully resolved before its rows are final.
func (e *Engine) probeDomain(ctx context.Context, round int, baseDomain string) []models.VariantResult {
	base := models.NormalizeDomain(baseDomain)
	baseFp := e.fingerprints.Fingerprint(ctx, base)

	variants := e.variants.Variants(base)
	rows := make([]models.VariantResult, 0, len(variants))

	for _, variant := range variants {
		fp := e.fingerprints.Fingerprint(ctx, variant)
		dnsMatch := fingerprint.Overlap(baseFp, fp)

		result := e.probeVariant(ctx, variant)
		matchType := discovery.Classify(base, result.Location, dnsMatch)

		if e.metrics != nil && matchType != models.MatchUnrelated {
			e.metrics.IncCounter("domainkin_matches_total", 1, prometheus.Labels{"match_type": string(matchType)})
		}

		rows = append(rows, models.VariantResult{
			BaseDomain:     base,
			Variant:        variant,
			RedirectTarget: result.Location,
			HTTPStatus:     result.StatusCode,
			Fingerprint:    fp,
			DNSMatch:       dnsMatch,
			MatchType:      matchType,
		})
	}

	e.markTested(base)
	if e.metrics != nil {
		e.metrics.IncCounter("domainkin_domains_probed_total", 1, prometheus.Labels{"round": fmt.Sprintf("%d", round)})
	}
	return rows
}

// probeVariant tries http then https and keeps the first response with a
// Location header; failing that, whatever status code it obtained.
func (e *Engine) probeVariant(ctx context.Context, variant string) probe.Result {
	var fallback probe.Result
	for _, scheme := range []string{"http", "https"} {
		if e.metrics != nil {
			e.metrics.IncCounter("domainkin_http_probes_total", 1, prometheus.Labels{"scheme": scheme})
		}
		result := e.prober.Probe(ctx, scheme+"://"+variant)
		if result.Location != "" {
			return result
		}
		if fallback.StatusCode == 0 && result.StatusCode != 0 {
			fallback = result
		}
	}
	return fallback
}

// selectFrontier applies the round-2 transition rule: (a) the seed's own
// direct redirect target (the row whose variant equals its base) when
// the row matched, and (b) any variant that classified SameDNS or
// RedirectBack. Domains already probed are skipped.
func (e *Engine) selectFrontier() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var frontier []string
	queued := make(map[string]struct{})

	enqueue := func(domain string) {
		if domain == "" {
			return
		}
		if _, done := e.tested[domain]; done {
			return
		}
		if _, dup := queued[domain]; dup {
			return
		}
		queued[domain] = struct{}{}
		frontier = append(frontier, domain)
	}

	for _, row := range e.rows {
		base := models.NormalizeDomain(row.BaseDomain)
		variant := models.NormalizeDomain(row.Variant)

		if variant == base && row.MatchType != models.MatchUnrelated {
			enqueue(models.HostOf(row.RedirectTarget))
		}
		if row.MatchType == models.MatchSameDNS || row.MatchType == models.MatchRedirectBack {
			enqueue(variant)
		}
	}
	return frontier
}

func (e *Engine) appendRows(rows []models.VariantResult) {
	e.mu.Lock()
	e.rows = append(e.rows, rows...)
	e.mu.Unlock()
}

// markTested records that a domain has been run through the pipeline as
// a base. Frontier selection dedupes against this set, which both caps
// the BFS at depth 2 and prevents duplicate pipeline runs.
func (e *Engine) markTested(base string) {
	e.mu.Lock()
	e.tested[base] = struct{}{}
	e.mu.Unlock()
}

func (e *Engine) emitProgress(round, index, total int, domain string) {
	if e.progress != nil {
		e.progress(round, index, total, domain)
	}
}
