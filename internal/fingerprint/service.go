package fingerprint

import (
	"context"
	"sort"
	"strings"
	"sync"

	mdns "github.com/miekg/dns"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mtjerneld/domainkin/pkg/models"
)

// Service resolves DNS fingerprints and memoizes them for the lifetime
// of a run. Fingerprint never fails: a record type that cannot be
// resolved simply yields an empty list.
type Service struct {
	lookuper Lookuper
	logger   *logrus.Logger

	mu    sync.RWMutex
	cache map[string]models.DomainFingerprint

	onLookup func(recordType string, cached bool)
}

func NewService(lookuper Lookuper, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		lookuper: lookuper,
		logger:   logger,
		cache:    make(map[string]models.DomainFingerprint),
	}
}

// SetLookupObserver installs an advisory callback fired once per
// Fingerprint call, used for metrics.
func (s *Service) SetLookupObserver(fn func(recordType string, cached bool)) {
	s.onLookup = fn
}

func (s *Service) Fingerprint(ctx context.Context, domain string) models.DomainFingerprint {
	key := models.NormalizeDomain(domain)

	s.mu.RLock()
	fp, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		if s.onLookup != nil {
			s.onLookup("all", true)
		}
		return fp
	}

	fp = s.resolveAll(ctx, key)

	s.mu.Lock()
	// Another goroutine may have resolved the same domain concurrently;
	// the first stored fingerprint wins so lookups stay idempotent.
	if existing, dup := s.cache[key]; dup {
		fp = existing
	} else {
		s.cache[key] = fp
	}
	s.mu.Unlock()

	if s.onLookup != nil {
		s.onLookup("all", false)
	}
	return fp
}

func (s *Service) resolveAll(ctx context.Context, domain string) models.DomainFingerprint {
	fp := models.DomainFingerprint{Domain: domain}

	targets := []struct {
		qtype uint16
		dest  *[]string
	}{
		{mdns.TypeA, &fp.A},
		{mdns.TypeAAAA, &fp.AAAA},
		{mdns.TypeCNAME, &fp.CNAME},
		{mdns.TypeNS, &fp.NS},
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			values, err := s.lookuper.Lookup(ctx, domain, t.qtype)
			if err != nil {
				s.logger.Debugf("lookup %s type %s failed: %v", domain, mdns.TypeToString[t.qtype], err)
				return nil
			}
			mu.Lock()
			*t.dest = normalizeValues(values)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return fp
}

// CacheSize reports how many distinct domains have been fingerprinted.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func normalizeValues(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(v, ".")))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Overlap reports whether two fingerprints share enough DNS evidence to
// count as a match: at least one common A, AAAA or CNAME value, or at
// least two common nameservers. A single shared NS is registrar noise.
func Overlap(a, b models.DomainFingerprint) bool {
	if countCommon(a.A, b.A) >= 1 {
		return true
	}
	if countCommon(a.AAAA, b.AAAA) >= 1 {
		return true
	}
	if countCommon(a.CNAME, b.CNAME) >= 1 {
		return true
	}
	return countCommon(a.NS, b.NS) >= 2
}

func countCommon(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[strings.ToLower(v)] = struct{}{}
	}
	n := 0
	for _, v := range b {
		if _, ok := set[strings.ToLower(v)]; ok {
			n++
		}
	}
	return n
}
