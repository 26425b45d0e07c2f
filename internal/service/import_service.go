package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/cache"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BatchRequest is one import run. An empty BatchID gets a generated one.
type BatchRequest struct {
	BatchID    string
	Provenance string
	Rows       []RawRow
	Actor      string
}

// ImportOptions carries the tunables read from config.
type ImportOptions struct {
	MaxRows   int
	LockTTL   time.Duration
	ResultTTL time.Duration
}

type ImportService interface {
	ImportBatch(ctx context.Context, req BatchRequest) (*dto.BatchResultResponse, error)
	ImportCSV(ctx context.Context, r io.Reader, batchID, provenance, actor string) (*dto.BatchResultResponse, error)
	EnqueueCSV(ctx context.Context, content []byte, form dto.CSVImportForm, actor string) (string, error)
	RunImportJob(ctx context.Context, payload worker.ImportJobPayload) (*dto.BatchResultResponse, error)
	GetResult(ctx context.Context, batchID string) (*dto.BatchResultResponse, error)
}

type importService struct {
	resolver   *identityResolver
	pricer     *pricer
	txRepo     repository.TransactionRepository
	txService  TransactionService
	locker     cache.BatchLocker
	results    cache.ResultStore
	dispatcher *worker.Dispatcher
	opts       ImportOptions
}

func NewImportService(
	inventoryRepo repository.InventoryRepository,
	clientRepo repository.ClientRepository,
	storeRepo repository.StoreRepository,
	salesPersonRepo repository.SalesPersonRepository,
	txRepo repository.TransactionRepository,
	txService TransactionService,
	locker cache.BatchLocker,
	results cache.ResultStore,
	dispatcher *worker.Dispatcher,
	opts ImportOptions,
) ImportService {
	if locker == nil {
		locker = cache.NewLocalBatchLocker()
	}
	if results == nil {
		results = cache.NewMemoryResultStore()
	}
	return &importService{
		resolver:   newIdentityResolver(inventoryRepo, clientRepo, storeRepo, salesPersonRepo),
		pricer:     newPricer(txRepo),
		txRepo:     txRepo,
		txService:  txService,
		locker:     locker,
		results:    results,
		dispatcher: dispatcher,
		opts:       opts,
	}
}

// batchRun is the mutable state of one ImportBatch call.
type batchRun struct {
	req      BatchRequest
	result   *dto.BatchResultResponse
	detector *duplicateDetector
}

// ── ImportBatch ─────────────────────────────────────────────────────────────
// Rows are processed sequentially in input order:
//   normalize → resolve → dedup → price → commit
// A failing row is recorded and the batch continues. Only an unreachable
// store aborts; rows committed before that stay committed.

func (s *importService) ImportBatch(ctx context.Context, req BatchRequest) (*dto.BatchResultResponse, error) {
	if !ValidProvenance(req.Provenance) {
		return nil, ErrInvalidProvenance
	}
	if s.opts.MaxRows > 0 && len(req.Rows) > s.opts.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit is %d", ErrBatchTooLarge, len(req.Rows), s.opts.MaxRows)
	}
	if req.BatchID == "" {
		req.BatchID = uuid.NewString()
	}

	acquired, err := s.locker.Acquire(ctx, req.BatchID, s.opts.LockTTL)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("batch_id", req.BatchID).Msg("import: batch lock unavailable, continuing unlocked")
	case !acquired:
		return nil, ErrBatchInProgress
	default:
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), req.BatchID); err != nil {
				log.Warn().Err(err).Str("batch_id", req.BatchID).Msg("import: failed to release batch lock")
			}
		}()
	}

	started := time.Now().UTC()
	run := &batchRun{
		req: req,
		result: &dto.BatchResultResponse{
			BatchID:        req.BatchID,
			Provenance:     req.Provenance,
			Actor:          req.Actor,
			TotalRows:      len(req.Rows),
			Duplicates:     []dto.DuplicateEntry{},
			Errors:         []dto.RowIssue{},
			Warnings:       []dto.RowIssue{},
			TransactionIDs: []int64{},
			TotalSales:     decimal.Zero,
			StartedAt:      started.Format(time.RFC3339),
		},
		detector: newDuplicateDetector(s.txRepo),
	}

	log.Info().
		Str("batch_id", req.BatchID).
		Str("provenance", req.Provenance).
		Str("actor", req.Actor).
		Int("rows", len(req.Rows)).
		Msg("import: batch started")

	for i, raw := range req.Rows {
		rowNum := raw.rowNumber(i + 1)
		if err := s.processRow(ctx, run, raw, rowNum); err != nil {
			log.Error().Err(err).
				Str("batch_id", req.BatchID).
				Int("row", rowNum).
				Int("committed", run.result.Successful).
				Msg("import: batch aborted")
			return nil, err
		}
	}

	res := run.result
	res.FinishedAt = time.Now().UTC().Format(time.RFC3339)

	log.Info().
		Str("batch_id", req.BatchID).
		Int("total", res.TotalRows).
		Int("successful", res.Successful).
		Int("duplicates", res.SkippedDuplicates).
		Int("errors", len(res.Errors)).
		Int("warnings", len(res.Warnings)).
		Dur("elapsed", time.Since(started)).
		Msg("import: batch finished")

	if err := s.results.Save(ctx, res, s.opts.ResultTTL); err != nil {
		log.Warn().Err(err).Str("batch_id", req.BatchID).Msg("import: failed to store batch result")
	}
	return res, nil
}

// processRow returns a non-nil error only when the batch must abort.
func (s *importService) processRow(ctx context.Context, run *batchRun, raw RawRow, row int) error {
	cand, err := NormalizeRow(raw, run.req.Provenance, run.req.BatchID, row)
	if err != nil {
		return run.rowFailed(row, err)
	}
	cand.Actor = run.req.Actor

	rc, err := s.resolver.Resolve(ctx, cand)
	if err != nil {
		return run.rowFailed(row, err)
	}

	dup, err := run.detector.Check(ctx, rc)
	if err != nil {
		return run.rowFailed(row, err)
	}
	if dup != nil {
		run.result.Duplicates = append(run.result.Duplicates, *dup)
		run.result.SkippedDuplicates++
		return nil
	}

	pc, err := s.pricer.Price(ctx, rc)
	if err != nil {
		return run.rowFailed(row, err)
	}

	id, err := s.txService.Commit(ctx, pc)
	if err != nil {
		return run.rowFailed(row, err)
	}
	run.detector.Committed(rc, id)

	res := run.result
	res.Successful++
	res.TransactionIDs = append(res.TransactionIDs, id)
	if pc.TransactionType == model.TxTypeSale {
		res.TotalSales = res.TotalSales.Add(pc.SellingPrice)
	}
	for _, w := range pc.Warnings {
		res.Warnings = append(res.Warnings, dto.RowIssue{Row: row, Kind: w.Kind, Message: w.Message})
	}
	return nil
}

// rowFailed records err against the row, or hands it back when it must abort
// the batch.
func (r *batchRun) rowFailed(row int, err error) error {
	if !errIsRowScoped(err) {
		return err
	}
	kind, msg := rowIssue(err)
	switch kind {
	case KindConflict:
		log.Warn().Err(err).Str("batch_id", r.req.BatchID).Int("row", row).Msg("import: row conflict")
	case KindIntegrity:
		log.Error().Err(err).Str("batch_id", r.req.BatchID).Int("row", row).Msg("import: data integrity error")
	case KindStoreError:
		log.Error().Err(err).Str("batch_id", r.req.BatchID).Int("row", row).Msg("import: row failed")
	}
	r.result.Errors = append(r.result.Errors, dto.RowIssue{Row: row, Kind: kind, Message: msg})
	return nil
}

// ── CSV entry points ────────────────────────────────────────────────────────

func (s *importService) ImportCSV(ctx context.Context, r io.Reader, batchID, provenance, actor string) (*dto.BatchResultResponse, error) {
	rows, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	return s.ImportBatch(ctx, BatchRequest{BatchID: batchID, Provenance: provenance, Rows: rows, Actor: actor})
}

// EnqueueCSV validates the file up front so the caller learns about a bad or
// oversized upload synchronously, then hands it to the worker pool.
func (s *importService) EnqueueCSV(ctx context.Context, content []byte, form dto.CSVImportForm, actor string) (string, error) {
	if s.dispatcher == nil {
		return "", errors.New("async imports are not available: no job queue configured")
	}
	provenance := form.Provenance
	if provenance == "" {
		provenance = model.SourceCSVImport
	}
	rows, err := ParseCSV(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	if s.opts.MaxRows > 0 && len(rows) > s.opts.MaxRows {
		return "", fmt.Errorf("%w: %d rows, limit is %d", ErrBatchTooLarge, len(rows), s.opts.MaxRows)
	}

	batchID := form.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	payload := worker.ImportJobPayload{
		BatchID:     batchID,
		Provenance:  provenance,
		Actor:       actor,
		NotifyEmail: form.NotifyEmail,
		CSV:         content,
	}
	if err := s.dispatcher.EnqueueImport(ctx, payload); err != nil {
		return "", fmt.Errorf("enqueueing import: %w", err)
	}
	log.Info().Str("batch_id", batchID).Int("rows", len(rows)).Msg("import: batch queued")
	return batchID, nil
}

// RunImportJob is called by the import worker for queued batches.
func (s *importService) RunImportJob(ctx context.Context, payload worker.ImportJobPayload) (*dto.BatchResultResponse, error) {
	return s.ImportCSV(ctx, bytes.NewReader(payload.CSV), payload.BatchID, payload.Provenance, payload.Actor)
}

func (s *importService) GetResult(ctx context.Context, batchID string) (*dto.BatchResultResponse, error) {
	res, ok, err := s.results.Load(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("loading batch result: %w", err)
	}
	if !ok {
		return nil, ErrResultNotFound
	}
	return res, nil
}
