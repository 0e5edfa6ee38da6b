package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtjerneld/domainkin/pkg/models"
)

func TestWriteCSV(t *testing.T) {
	rows := []models.VariantResult{
		{
			BaseDomain:     "example.se",
			Variant:        "example.com",
			RedirectTarget: "https://example.se/",
			HTTPStatus:     301,
			Fingerprint: models.DomainFingerprint{
				A:  []string{"192.0.2.1", "192.0.2.2"},
				NS: []string{"ns1.example.net", "ns2.example.net"},
			},
			DNSMatch:  true,
			MatchType: models.MatchRedirectBack,
		},
		{
			BaseDomain: "example.se",
			Variant:    "example.no",
			MatchType:  models.MatchUnrelated,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	parsed, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 3)

	assert.Equal(t, csvHeader, parsed[0])
	assert.Equal(t, "192.0.2.1:192.0.2.2", parsed[1][4], "multi-value fields join with a colon, never a comma")
	assert.Equal(t, "RedirectBack", parsed[1][9])
	assert.Equal(t, "", parsed[2][3], "absent status stays empty")
}
