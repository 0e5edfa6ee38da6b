package seedfile

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mtjerneld/domainkin/pkg/models"
	"github.com/mtjerneld/domainkin/pkg/utils"
)

// File reads and appends to the flat seed-domain file. Lines starting
// with '#' and blank lines are skipped when building the seed set, but
// commented domains still count as "known" for dedup purposes.
type File struct {
	path   string
	logger *logrus.Logger
}

func New(path string, logger *logrus.Logger) *File {
	if logger == nil {
		logger = logrus.New()
	}
	return &File{path: path, logger: logger}
}

func (f *File) Path() string { return f.path }

// Seeds returns the active (uncommented) domains, normalized.
func (f *File) Seeds() ([]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer file.Close()

	var seeds []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Strip inline annotations appended by earlier runs.
		if i := strings.IndexAny(line, "# \t"); i >= 0 {
			line = line[:i]
		}
		domain := models.NormalizeDomain(line)
		if domain == "" {
			continue
		}
		if !utils.IsValidDomain(domain) {
			f.logger.Warnf("Skipping invalid seed entry %q", line)
			continue
		}
		if _, dup := seen[domain]; dup {
			continue
		}
		seen[domain] = struct{}{}
		seeds = append(seeds, domain)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return seeds, nil
}

// Known returns every domain present in the file, commented or not,
// normalized. Used to keep persistence idempotent: a domain already
// recorded as a comment must not be re-added.
func (f *File) Known() (map[string]struct{}, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer file.Close()

	known := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if line == "" {
			continue
		}
		// A commented line may carry trailing annotations; the domain is
		// the first whitespace-separated token.
		if i := strings.IndexAny(line, " \t"); i >= 0 {
			line = line[:i]
		}
		if domain := models.NormalizeDomain(line); domain != "" {
			known[domain] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return known, nil
}

// Append writes the records under a single timestamped comment header.
// Existing content and ordering are never rewritten.
func (f *File) Append(records []models.MatchRecord) error {
	if len(records) == 0 {
		return nil
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open seed file for append: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "\n# Added %s by domainkin discovery\n", time.Now().Format("2006-01-02 15:04:05"))
	for _, rec := range records {
		fmt.Fprintf(w, "%s # %s (via %s)\n", rec.Domain, rec.Reason, rec.SourceDomain)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("append to seed file: %w", err)
	}

	f.logger.Infof("Appended %d discovered domains to %s", len(records), f.path)
	return nil
}
