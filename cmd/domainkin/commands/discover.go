package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mtjerneld/domainkin/internal/aggregate"
	"github.com/mtjerneld/domainkin/internal/discovery"
	"github.com/mtjerneld/domainkin/internal/export"
	"github.com/mtjerneld/domainkin/internal/fingerprint"
	"github.com/mtjerneld/domainkin/internal/orchestration"
	"github.com/mtjerneld/domainkin/internal/probe"
	"github.com/mtjerneld/domainkin/internal/seedfile"
	"github.com/mtjerneld/domainkin/pkg/models"
	"github.com/mtjerneld/domainkin/pkg/utils"
)

func NewDiscoverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover domains related to the seed list",
		Long: `Probe every seed domain's TLD variants, compare DNS fingerprints and
follow first-hop HTTP redirects to find operationally related domains,
then recursively probe the discoveries (second-degree, depth capped at 2).`,
		RunE: runDiscover,
	}

	cmd.Flags().StringP("input", "i", "", "seed domain file (one domain per line, required)")
	cmd.Flags().StringP("output-csv", "o", "", "write the full result table as CSV (use - for stdout)")
	cmd.Flags().IntP("timeout-seconds", "t", 5, "HTTP and DNS timeout per request")
	cmd.Flags().Bool("parallel", false, "probe round-1 seeds concurrently")
	cmd.Flags().Int("workers", 8, "worker count for --parallel")
	cmd.Flags().Bool("add-matches", false, "append qualifying discoveries to the seed file")
	cmd.Flags().Bool("prompt-add-matches", false, "ask for confirmation before appending discoveries")
	cmd.Flags().Bool("dry-run", false, "report would-be additions without touching the seed file")
	cmd.Flags().StringSlice("resolvers", nil, "DNS servers to query (default: system resolvers)")
	cmd.Flags().Float64("requests-per-second", 0, "HTTP probe rate limit (0 = unlimited)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address during the run")
	_ = cmd.MarkFlagRequired("input")

	_ = viper.BindPFlag("discover.input", cmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("discover.output_csv", cmd.Flags().Lookup("output-csv"))
	_ = viper.BindPFlag("discover.timeout_seconds", cmd.Flags().Lookup("timeout-seconds"))
	_ = viper.BindPFlag("discover.parallel", cmd.Flags().Lookup("parallel"))
	_ = viper.BindPFlag("discover.workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("discover.add_matches", cmd.Flags().Lookup("add-matches"))
	_ = viper.BindPFlag("discover.prompt_add_matches", cmd.Flags().Lookup("prompt-add-matches"))
	_ = viper.BindPFlag("discover.dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("discover.resolvers", cmd.Flags().Lookup("resolvers"))
	_ = viper.BindPFlag("discover.requests_per_second", cmd.Flags().Lookup("requests-per-second"))
	_ = viper.BindPFlag("discover.metrics_addr", cmd.Flags().Lookup("metrics-addr"))

	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	inputPath := viper.GetString("discover.input")
	if !utils.FileExists(inputPath) {
		// The only fatal condition before probing begins.
		return fmt.Errorf("seed file not found: %s", inputPath)
	}

	logger := logrus.StandardLogger()
	seeds := seedfile.New(inputPath, logger)
	seedDomains, err := seeds.Seeds()
	if err != nil {
		return err
	}
	if len(seedDomains) == 0 {
		return fmt.Errorf("seed file %s contains no domains", inputPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received interrupt signal, shutting down...")
		cancel()
	}()

	engine, fingerprints := buildEngine(logger)

	var metrics *utils.MetricsCollector
	if addr := viper.GetString("discover.metrics_addr"); addr != "" {
		metrics = utils.NewMetricsCollector(true)
		engine.SetMetrics(metrics)
		wireFingerprintMetrics(metrics, fingerprints)
		if err := metrics.StartServerWithContext(ctx, addr); err != nil {
			logger.Warnf("Failed to start metrics server on %s: %v", addr, err)
		}
	}

	start := time.Now()
	result, err := engine.Run(ctx, seedDomains)
	if err != nil {
		return fmt.Errorf("discovery run failed: %w", err)
	}

	if csvPath := viper.GetString("discover.output_csv"); csvPath != "" {
		if err := export.WriteCSVFile(csvPath, result.Rows, logger); err != nil {
			return err
		}
	}

	known, err := seeds.Known()
	if err != nil {
		return err
	}
	records := aggregate.New(logger).Collect(result.Rows, result.Seeds, result.Frontier, known)

	printSummary(result, records, time.Since(start))

	return persistMatches(seeds, records, logger)
}

func buildEngine(logger *logrus.Logger) (*orchestration.Engine, *fingerprint.Service) {
	timeout := time.Duration(viper.GetInt("discover.timeout_seconds")) * time.Second

	resolver := fingerprint.NewResolver(viper.GetStringSlice("discover.resolvers"), timeout, logger)
	fingerprints := fingerprint.NewService(resolver, logger)
	prober := probe.NewProber(timeout, viper.GetFloat64("discover.requests_per_second"), logger)
	variants := discovery.NewVariantGenerator(viper.GetStringSlice("discover.suffixes"))

	engine := orchestration.NewEngine(fingerprints, prober, variants, orchestration.Config{
		Parallel: viper.GetBool("discover.parallel"),
		Workers:  viper.GetInt("discover.workers"),
	}, logger)

	engine.SetProgressFunc(func(round, index, total int, domain string) {
		logger.Infof("Round %d [%d/%d] %s", round, index, total, domain)
	})

	return engine, fingerprints
}

func wireFingerprintMetrics(metrics *utils.MetricsCollector, fingerprints *fingerprint.Service) {
	_ = metrics.RegisterCounter("domainkin_dns_fingerprints_total", "Fingerprint lookups by cache outcome", "outcome")
	fingerprints.SetLookupObserver(func(_ string, cached bool) {
		outcome := "resolved"
		if cached {
			outcome = "cached"
		}
		metrics.IncCounter("domainkin_dns_fingerprints_total", 1, prometheus.Labels{"outcome": outcome})
	})
}

func printSummary(result *orchestration.RunResult, records []models.MatchRecord, elapsed time.Duration) {
	counts := make(map[models.MatchType]int)
	for _, row := range result.Rows {
		counts[row.MatchType]++
	}

	fmt.Printf(`
Discovery Summary:
───────────────────────────────────────────────
Seeds probed:       %d
Frontier (round 2): %d
Result rows:        %d
  RedirectBack:     %d
  SameDNS:          %d
  Unrelated:        %d
New matches:        %d
Duration:           %v
───────────────────────────────────────────────
`,
		len(result.Seeds),
		len(result.Frontier),
		len(result.Rows),
		counts[models.MatchRedirectBack],
		counts[models.MatchSameDNS],
		counts[models.MatchUnrelated],
		len(records),
		elapsed.Round(time.Millisecond),
	)
}

func persistMatches(seeds *seedfile.File, records []models.MatchRecord, logger *logrus.Logger) error {
	if len(records) == 0 {
		logger.Info("No new domains qualified for the seed file")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("  + %s  (%s, via %s)\n", rec.Domain, rec.Reason, rec.SourceDomain)
	}

	switch {
	case viper.GetBool("discover.dry_run"):
		logger.Infof("Dry run: %d domains would be added to %s", len(records), seeds.Path())
		return nil
	case viper.GetBool("discover.add_matches"):
		return seeds.Append(records)
	case viper.GetBool("discover.prompt_add_matches"):
		ok, err := confirm(fmt.Sprintf("Append %d domains to %s?", len(records), seeds.Path()))
		if err != nil {
			return err
		}
		if !ok {
			logger.Info("Skipped appending discoveries")
			return nil
		}
		return seeds.Append(records)
	default:
		logger.Info("Re-run with --add-matches (or --prompt-add-matches) to persist discoveries")
		return nil
	}
}

func confirm(prompt string) (bool, error) {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
