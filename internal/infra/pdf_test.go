package infra

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *dto.BatchResultResponse {
	first := 1
	existing := int64(42)
	return &dto.BatchResultResponse{
		BatchID:           "eod/2024-03-15",
		Provenance:        "pos_system",
		Actor:             "ops",
		TotalRows:         4,
		Successful:        1,
		SkippedDuplicates: 2,
		Duplicates: []dto.DuplicateEntry{
			{Row: 2, Reason: "duplicate-within-batch", FirstRow: &first},
			{Row: 3, Reason: "duplicate-of-existing", ExistingTransactionID: &existing},
		},
		Errors:         []dto.RowIssue{{Row: 4, Kind: "unknown_serial", Message: `no inventory item with serial "X"`}},
		Warnings:       []dto.RowIssue{{Row: 1, Kind: "missing_cost_basis", Message: "item RLX-0001 has no cost price"}},
		TransactionIDs: []int64{101},
		TotalSales:     decimal.RequireFromString("9999.95"),
		StartedAt:      "2024-03-15T18:00:00Z",
		FinishedAt:     "2024-03-15T18:00:01Z",
	}
}

func TestWriteImportReportPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteImportReportPDF(sampleResult(), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestGenerateImportReportPDF_SanitizesFileName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := GenerateImportReportPDF(sampleResult(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "import_eod_2024-03-15.pdf"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestMailer_NotConfigured(t *testing.T) {
	m := NewMailer(&config.Config{SMTPUser: "reports@example.com"})
	assert.False(t, m.Configured())
	assert.Error(t, m.SendImportReport("a@example.com", "s", "b", ""))
	assert.Equal(t, "reports@example.com", m.from, "sender falls back to the SMTP user")
}
