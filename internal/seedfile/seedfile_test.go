package seedfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtjerneld/domainkin/pkg/models"
)

func writeSeedFile(t *testing.T, content string) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return New(path, nil)
}

func TestSeedsSkipsCommentsAndBlanks(t *testing.T) {
	f := writeSeedFile(t, "example.se\n\n# retired.se\nWWW.Example.COM\nexample.se\n")

	seeds, err := f.Seeds()
	require.NoError(t, err)
	assert.Equal(t, []string{"example.se", "example.com"}, seeds)
}

func TestSeedsStripsInlineAnnotations(t *testing.T) {
	f := writeSeedFile(t, "example.nu # DNS match (via example.se)\n")

	seeds, err := f.Seeds()
	require.NoError(t, err)
	assert.Equal(t, []string{"example.nu"}, seeds)
}

func TestKnownIncludesCommentedLines(t *testing.T) {
	f := writeSeedFile(t, "example.se\n# retired.no\n#www.old.dk some note\n")

	known, err := f.Known()
	require.NoError(t, err)
	assert.Contains(t, known, "example.se")
	assert.Contains(t, known, "retired.no")
	assert.Contains(t, known, "old.dk")
}

func TestAppendIsReadableAndIdempotencyFriendly(t *testing.T) {
	f := writeSeedFile(t, "example.se\n")

	records := []models.MatchRecord{
		{Domain: "example.com", Reason: models.ReasonRedirectBack, SourceDomain: "example.se"},
		{Domain: "example.nu", Reason: models.ReasonDNSMatch, SourceDomain: "example.se"},
	}
	require.NoError(t, f.Append(records))

	seeds, err := f.Seeds()
	require.NoError(t, err)
	assert.Equal(t, []string{"example.se", "example.com", "example.nu"}, seeds)

	// Appended entries count as known, so a second identical run has
	// nothing left to add.
	known, err := f.Known()
	require.NoError(t, err)
	assert.Contains(t, known, "example.com")
	assert.Contains(t, known, "example.nu")
}

func TestAppendNothingLeavesFileUntouched(t *testing.T) {
	f := writeSeedFile(t, "example.se\n")
	before, err := os.ReadFile(f.Path())
	require.NoError(t, err)

	require.NoError(t, f.Append(nil))

	after, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSeedsMissingFile(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "missing.txt"), nil)
	_, err := f.Seeds()
	assert.Error(t, err)
}
