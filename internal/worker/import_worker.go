package worker

// import_worker.go
// Runs CSV imports queued through POST /v1/imports/async. When the uploader
// asked for a notification, renders the PDF report and enqueues an email.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/infra"

	"github.com/rs/zerolog/log"
)

// ImportJobPayload is the job envelope sent to QueueImport. The CSV travels
// inline; uploads are capped by IMPORT_MAX_ROWS before they are queued.
type ImportJobPayload struct {
	BatchID     string `json:"batch_id"`
	Provenance  string `json:"provenance"`
	Actor       string `json:"actor"`
	NotifyEmail string `json:"notify_email,omitempty"`
	CSV         []byte `json:"csv"`
}

// ImportRunner executes a queued import. Implemented by the import service.
type ImportRunner interface {
	RunImportJob(ctx context.Context, payload ImportJobPayload) (*dto.BatchResultResponse, error)
}

// EmailEnqueuer is satisfied by *Dispatcher.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type ImportWorker struct {
	runner    ImportRunner
	emails    EmailEnqueuer
	reportDir string
}

func NewImportWorker(runner ImportRunner, emails EmailEnqueuer, reportDir string) *ImportWorker {
	return &ImportWorker{runner: runner, emails: emails, reportDir: reportDir}
}

// Process handles a single import job:
//  1. Run the batch through the import engine
//  2. Render the PDF report (only when a notification was requested)
//  3. Enqueue the notification email
func (w *ImportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ImportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("import_worker: invalid payload: %w", err)
	}

	result, err := w.runner.RunImportJob(ctx, payload)
	if err != nil {
		return fmt.Errorf("import_worker: batch %s: %w", payload.BatchID, err)
	}
	log.Info().
		Str("batch_id", result.BatchID).
		Int("successful", result.Successful).
		Int("errors", len(result.Errors)).
		Msg("import_worker: batch imported")

	if payload.NotifyEmail == "" || w.emails == nil {
		return nil
	}

	pdfPath, err := infra.GenerateImportReportPDF(result, w.reportDir)
	if err != nil {
		// the summary in the body is still useful without the attachment
		log.Warn().Err(err).Str("batch_id", result.BatchID).Msg("import_worker: PDF generation failed")
		pdfPath = ""
	}

	emailJob := EmailJobPayload{
		BatchID: result.BatchID,
		ToEmail: payload.NotifyEmail,
		Subject: fmt.Sprintf("Sales import %s: %d committed, %d errors", result.BatchID, result.Successful, len(result.Errors)),
		Body:    summaryText(result),
		PDFPath: pdfPath,
	}
	if err := w.emails.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("email", payload.NotifyEmail).Msg("import_worker: failed to enqueue email")
		return nil
	}
	log.Info().Str("email", payload.NotifyEmail).Msg("import_worker: email job enqueued")
	return nil
}

func summaryText(r *dto.BatchResultResponse) string {
	return fmt.Sprintf(
		"Batch %s (%s)\n\nRows: %d\nCommitted: %d\nSkipped duplicates: %d\nErrors: %d\nWarnings: %d\nTotal sales: $%s\n",
		r.BatchID, r.Provenance, r.TotalRows, r.Successful, r.SkippedDuplicates,
		len(r.Errors), len(r.Warnings), r.TotalSales.StringFixed(2))
}
