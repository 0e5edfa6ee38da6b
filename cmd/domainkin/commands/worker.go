package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mtjerneld/domainkin/pkg/models"
)

// NewWorkerCommand exposes the single-domain pipeline for external
// drivers: one base domain in, a flat JSON array of result rows out.
// Zero matches is not an error; the command exits non-zero only when it
// cannot write the output file.
func NewWorkerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "worker <domain>",
		Short:  "Run the variant pipeline for a single domain (machine interface)",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE:   runWorker,
	}

	cmd.Flags().String("out", "", "output file for the JSON result rows (required)")
	cmd.Flags().IntP("timeout-seconds", "t", 5, "HTTP and DNS timeout per request")
	cmd.Flags().StringSlice("resolvers", nil, "DNS servers to query")
	_ = cmd.MarkFlagRequired("out")

	_ = viper.BindPFlag("worker.out", cmd.Flags().Lookup("out"))
	_ = viper.BindPFlag("discover.timeout_seconds", cmd.Flags().Lookup("timeout-seconds"))
	_ = viper.BindPFlag("discover.resolvers", cmd.Flags().Lookup("resolvers"))

	return cmd
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger := logrus.StandardLogger()
	engine, _ := buildEngine(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	rows := engine.RunSingle(ctx, args[0])
	if rows == nil {
		rows = []models.VariantResult{}
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal worker output: %w", err)
	}
	if err := os.WriteFile(viper.GetString("worker.out"), data, 0o644); err != nil {
		return fmt.Errorf("write worker output: %w", err)
	}
	return nil
}
