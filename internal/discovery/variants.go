package discovery

import (
	"strings"

	"github.com/mtjerneld/domainkin/pkg/models"
	"github.com/mtjerneld/domainkin/pkg/utils"
)

// DefaultSuffixes is the TLD set probed for every base domain.
var DefaultSuffixes = []string{".se", ".com", ".no", ".fi", ".dk", ".nu"}

type VariantGenerator struct {
	suffixes []string
}

func NewVariantGenerator(suffixes []string) *VariantGenerator {
	if len(suffixes) == 0 {
		suffixes = DefaultSuffixes
	}
	normalized := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		normalized = append(normalized, s)
	}
	return &VariantGenerator{suffixes: utils.RemoveDuplicates(normalized)}
}

func (g *VariantGenerator) Suffixes() []string {
	out := make([]string, len(g.suffixes))
	copy(out, g.suffixes)
	return out
}

// Variants reattaches every configured suffix to the base domain's stem
// (everything before the last dot). The base itself reappears when its
// own suffix is in the set; that redundancy doubles as a self-check that
// probing behaves consistently for the known-good case.
func (g *VariantGenerator) Variants(baseDomain string) []string {
	base := models.NormalizeDomain(baseDomain)
	stem := base
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		stem = base[:i]
	}

	out := make([]string, 0, len(g.suffixes))
	for _, suffix := range g.suffixes {
		out = append(out, stem+suffix)
	}
	return out
}
