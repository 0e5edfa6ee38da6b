package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mtjerneld/domainkin/pkg/models"
)

// Multi-value DNS fields are joined with a colon so the CSV stays
// parseable without quoting tricks.
const valueSeparator = ":"

var csvHeader = []string{
	"BaseDomain", "Variant", "RedirectTarget", "HttpStatus",
	"DNS_A", "DNS_AAAA", "DNS_CNAME", "DNS_NS",
	"DNSMatch", "MatchType",
}

func WriteCSV(w io.Writer, rows []models.VariantResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		status := ""
		if row.HTTPStatus != 0 {
			status = strconv.Itoa(row.HTTPStatus)
		}
		record := []string{
			row.BaseDomain,
			row.Variant,
			row.RedirectTarget,
			status,
			strings.Join(row.Fingerprint.A, valueSeparator),
			strings.Join(row.Fingerprint.AAAA, valueSeparator),
			strings.Join(row.Fingerprint.CNAME, valueSeparator),
			strings.Join(row.Fingerprint.NS, valueSeparator),
			strconv.FormatBool(row.DNSMatch),
			string(row.MatchType),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile exports the result table to path, or to stdout when the
// path is "-".
func WriteCSVFile(path string, rows []models.VariantResult, logger *logrus.Logger) error {
	if logger == nil {
		logger = logrus.New()
	}
	if path == "-" {
		return WriteCSV(os.Stdout, rows)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, rows); err != nil {
		return err
	}
	logger.Infof("Wrote %d result rows to %s", len(rows), path)
	return nil
}
