package models

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

type MatchType string

const (
	MatchRedirectBack MatchType = "RedirectBack"
	MatchSameDNS      MatchType = "SameDNS"
	MatchUnrelated    MatchType = "Unrelated"
)

type MatchReason string

const (
	ReasonOriginalDomain     MatchReason = "Original domain"
	ReasonDiscoveredRedirect MatchReason = "Discovered redirect"
	ReasonDNSMatch           MatchReason = "DNS match"
	ReasonRedirectBack       MatchReason = "RedirectBack"
	ReasonVariantMatch       MatchReason = "Variant match"
)

// DomainFingerprint holds the resolved record values for one domain.
// It is produced once per normalized domain and never mutated afterwards.
type DomainFingerprint struct {
	Domain string   `json:"domain"`
	A      []string `json:"a"`
	AAAA   []string `json:"aaaa"`
	CNAME  []string `json:"cname"`
	NS     []string `json:"ns"`
}

// VariantResult is one row of the engine's output table: a single TLD
// variant of a base domain, with its probe evidence and classification.
type VariantResult struct {
	BaseDomain     string            `json:"base_domain"`
	Variant        string            `json:"variant"`
	RedirectTarget string            `json:"redirect_target,omitempty"`
	HTTPStatus     int               `json:"http_status,omitempty"`
	Fingerprint    DomainFingerprint `json:"fingerprint"`
	DNSMatch       bool              `json:"dns_match"`
	MatchType      MatchType         `json:"match_type"`
}

// MatchRecord is the human-auditable trace of why a discovered domain
// qualifies for persistence into the seed file.
type MatchRecord struct {
	Domain       string      `json:"domain"`
	Reason       MatchReason `json:"reason"`
	SourceDomain string      `json:"source_domain"`
}

// NormalizeDomain lowercases a domain, strips surrounding whitespace, a
// leading "www." and a trailing dot, and converts IDN labels to ASCII.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimSuffix(d, ".")
	d = strings.TrimPrefix(d, "www.")
	if ascii, err := idna.ToASCII(d); err == nil && ascii != "" {
		d = ascii
	}
	return d
}

// HostOf extracts the normalized hostname from a redirect target, which
// may be a full URL or a bare host.
func HostOf(target string) string {
	t := strings.TrimSpace(target)
	if t == "" {
		return ""
	}
	if strings.Contains(t, "://") {
		if u, err := url.Parse(t); err == nil && u.Hostname() != "" {
			return NormalizeDomain(u.Hostname())
		}
	}
	if i := strings.IndexAny(t, "/?#"); i >= 0 {
		t = t[:i]
	}
	if i := strings.IndexByte(t, ':'); i >= 0 {
		t = t[:i]
	}
	return NormalizeDomain(t)
}
