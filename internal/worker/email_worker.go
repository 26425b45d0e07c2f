package worker

// email_worker.go
// Processes email jobs from QueueEmail. Delivery goes through the SMTP circuit
// breaker with exponential backoff; exhausted jobs land in the DLQ.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/infra"

	"github.com/rs/zerolog/log"
)

const emailMaxAttempts = 3

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	BatchID string `json:"batch_id,omitempty"`
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// ReportMailer is satisfied by *infra.Mailer.
type ReportMailer interface {
	SendImportReport(to, subject, body, pdfPath string) error
}

type EmailWorker struct {
	mailer  ReportMailer
	breaker *infra.CircuitBreaker
	backoff time.Duration
}

// NewEmailWorker creates an EmailWorker with the provided mailer and breaker.
func NewEmailWorker(mailer ReportMailer, breaker *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{mailer: mailer, breaker: breaker, backoff: time.Second}
}

// Process sends one email. Empty recipients are dropped, not dead-lettered.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email: skipping")
		return nil
	}

	err := withRetry(ctx, emailMaxAttempts, w.backoff, func(attempt int) error {
		err := w.breaker.Execute(func() error {
			return w.mailer.SendImportReport(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
		})
		if errors.Is(err, infra.ErrCircuitOpen) {
			return backoffStop{err}
		}
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("to", payload.ToEmail).Msg("email_worker: send failed, retrying")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("email_worker: %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: import report sent")
	return nil
}

// backoffStop aborts withRetry immediately.
type backoffStop struct{ err error }

func (b backoffStop) Error() string { return b.err.Error() }
func (b backoffStop) Unwrap() error { return b.err }

// withRetry calls fn up to maxAttempts times with exponential backoff
// (base, 2*base, ...). A backoffStop error ends the loop early.
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := base * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err := fn(i)
		if err == nil {
			return nil
		}
		var stop backoffStop
		if errors.As(err, &stop) {
			return stop.err
		}
		lastErr = err
	}
	return lastErr
}
