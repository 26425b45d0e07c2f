package infra

// pdf.go renders the import report with go-pdf/fpdf: an A4 page with the
// batch header, the count summary, then one table each for errors,
// duplicates and warnings. Stored as storagePath/import_{batchId}.pdf or
// streamed straight to an HTTP response.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"

	"github.com/go-pdf/fpdf"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// GenerateImportReportPDF writes the report for result into storagePath
// (created if needed) and returns the file path.
func GenerateImportReportPDF(result *dto.BatchResultResponse, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("import_%s.pdf", unsafeFileChars.ReplaceAllString(result.BatchID, "_"))
	filePath := filepath.Join(storagePath, fileName)

	pdf := buildImportReport(result)
	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// WriteImportReportPDF streams the report to w.
func WriteImportReportPDF(result *dto.BatchResultResponse, w io.Writer) error {
	pdf := buildImportReport(result)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render: %w", err)
	}
	return nil
}

func buildImportReport(result *dto.BatchResultResponse) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Sales Import Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Batch: "+result.BatchID, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Source: "+result.Provenance, "", 1, "L", false, 0, "")
	if result.Actor != "" {
		pdf.CellFormat(contentW, 5, "Imported by: "+result.Actor, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Started %s, finished %s", result.StartedAt, result.FinishedAt), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Summary ──────────────────────────────────────────────────────────────
	labelW := contentW * 0.6
	valueW := contentW * 0.4
	summary := [][2]string{
		{"Rows received", strconv.Itoa(result.TotalRows)},
		{"Committed", strconv.Itoa(result.Successful)},
		{"Skipped duplicates", strconv.Itoa(result.SkippedDuplicates)},
		{"Errors", strconv.Itoa(len(result.Errors))},
		{"Warnings", strconv.Itoa(len(result.Warnings))},
		{"Total sales value", "$" + result.TotalSales.StringFixed(2)},
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 7, "Summary", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range summary {
		pdf.CellFormat(labelW, 6, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, line[1], "", 1, "R", false, 0, "")
	}

	// ── Errors ───────────────────────────────────────────────────────────────
	if len(result.Errors) > 0 {
		rows := make([][]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			rows = append(rows, []string{strconv.Itoa(e.Row), e.Kind, e.Message})
		}
		issueTable(pdf, contentW, "Errors", rows)
	}

	// ── Duplicates ───────────────────────────────────────────────────────────
	if len(result.Duplicates) > 0 {
		rows := make([][]string, 0, len(result.Duplicates))
		for _, d := range result.Duplicates {
			ref := ""
			if d.ExistingTransactionID != nil {
				ref = fmt.Sprintf("transaction #%d", *d.ExistingTransactionID)
			}
			if d.FirstRow != nil {
				if ref != "" {
					ref += ", "
				}
				ref += fmt.Sprintf("first seen on row %d", *d.FirstRow)
			}
			rows = append(rows, []string{strconv.Itoa(d.Row), d.Reason, ref})
		}
		issueTable(pdf, contentW, "Duplicates", rows)
	}

	// ── Warnings ─────────────────────────────────────────────────────────────
	if len(result.Warnings) > 0 {
		rows := make([][]string, 0, len(result.Warnings))
		for _, w := range result.Warnings {
			rows = append(rows, []string{strconv.Itoa(w.Row), w.Kind, w.Message})
		}
		issueTable(pdf, contentW, "Warnings", rows)
	}

	return pdf
}

// issueTable renders row | kind | detail with the detail column wrapping.
func issueTable(pdf *fpdf.Fpdf, contentW float64, title string, rows [][]string) {
	col1 := contentW * 0.08
	col2 := contentW * 0.27
	col3 := contentW * 0.65

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 7, title, "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 6, "Row", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Kind", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "Detail", "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, r := range rows {
		x, y := pdf.GetX(), pdf.GetY()
		pdf.CellFormat(col1, 5, r[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, r[1], "", 0, "L", false, 0, "")
		pdf.MultiCell(col3, 5, r[2], "", "L", false)
		if pdf.GetY() < y+5 {
			pdf.SetXY(x, y+5)
		}
	}
}
