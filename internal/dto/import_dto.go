package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ManualImportRequest is the body of POST /v1/imports/manual. Rows keep the
// CSV column names (itemSerialNumber, saleDate, sellingPrice, ...) so manual
// entry and file uploads share one normalizer.
type ManualImportRequest struct {
	BatchID *string          `json:"batch_id" validate:"omitempty,max=64"`
	Rows    []map[string]any `json:"rows"     validate:"required,min=1"`
}

// CSVImportForm is bound from the multipart form of the CSV upload routes.
// The file itself travels in the "file" part.
type CSVImportForm struct {
	BatchID     string `form:"batch_id"     validate:"omitempty,max=64"`
	Provenance  string `form:"provenance"   validate:"omitempty,oneof=csv_import pos_system"`
	NotifyEmail string `form:"notify_email" validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// DuplicateEntry describes a skipped row. Reason is "duplicate-within-batch"
// or "duplicate-of-existing".
type DuplicateEntry struct {
	Row                   int    `json:"row"`
	Reason                string `json:"reason"`
	ExistingTransactionID *int64 `json:"existingTransactionId"`
	FirstRow              *int   `json:"firstRow"`
}

// RowIssue is one per-row error or warning.
type RowIssue struct {
	Row     int    `json:"row"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// BatchResultResponse is the summary returned for every import that was not
// aborted, and the document kept in the result store.
type BatchResultResponse struct {
	BatchID           string           `json:"batchId"`
	Provenance        string           `json:"provenance"`
	Actor             string           `json:"actor,omitempty"`
	TotalRows         int              `json:"totalRows"`
	Successful        int              `json:"successful"`
	SkippedDuplicates int              `json:"skippedDuplicates"`
	Duplicates        []DuplicateEntry `json:"duplicates"`
	Errors            []RowIssue       `json:"errors"`
	Warnings          []RowIssue       `json:"warnings"`
	TransactionIDs    []int64          `json:"transactionIds"`
	TotalSales        decimal.Decimal  `json:"totalSales"`
	StartedAt         string           `json:"startedAt"`
	FinishedAt        string           `json:"finishedAt"`
}

// AsyncImportResponse is returned with 202 when a file is queued.
type AsyncImportResponse struct {
	BatchID string `json:"batchId"`
	Status  string `json:"status"`
}
