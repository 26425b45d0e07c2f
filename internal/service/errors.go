package service

import (
	"errors"
	"fmt"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"
)

// Top-level failures. Anything else that happens to a row is reported inside
// the batch result and never aborts the batch.
var (
	ErrStoreUnavailable    = errors.New("persistence store unavailable")
	ErrBatchInProgress     = errors.New("batch is already being imported")
	ErrBatchTooLarge       = errors.New("batch exceeds the maximum number of rows")
	ErrInvalidProvenance   = errors.New("provenance must be manual, csv_import or pos_system")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrResultNotFound      = errors.New("import result not found")
)

// Row error kinds, as they appear in BatchResultResponse.errors[].kind.
const (
	KindMalformedRow    = "malformed_row"
	KindMissingField    = "missing_field"
	KindMalformedDate   = "malformed_date"
	KindMalformedNumber = "malformed_number"
	KindInvalidTypeEnum = "invalid_type_enum"
	KindUnknownSerial   = "unknown_serial"
	KindUnknownCustomer = "unknown_customer"
	KindUnknownEmployee = "unknown_employee"
	KindUnknownStore    = "unknown_store"
	KindConflict        = "conflict"
	KindIntegrity       = "integrity"
	KindStoreError      = "store_error"
)

// Warning kinds attached to committed rows.
const (
	WarnLowConfidenceClient = "low_confidence_client_match"
	WarnMissingCostBasis    = "missing_cost_basis"
	WarnMissingRetailPrice  = "missing_retail_price"
	WarnUnlinkedCredit      = "unlinked_credit"
	WarnOriginalMismatch    = "original_transaction_mismatch"
)

// Duplicate reasons.
const (
	DupWithinBatch = "duplicate-within-batch"
	DupOfExisting  = "duplicate-of-existing"
)

// RowError is a field-level problem found while normalizing a raw row.
type RowError struct {
	Kind    string
	Field   string
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ResolutionError means a reference in the row does not match any record.
type ResolutionError struct {
	Kind string
	Ref  string
}

func (e *ResolutionError) Error() string {
	switch e.Kind {
	case KindUnknownSerial:
		return fmt.Sprintf("no inventory item with serial %q", e.Ref)
	case KindUnknownCustomer:
		return fmt.Sprintf("no client matches %s", e.Ref)
	case KindUnknownEmployee:
		return fmt.Sprintf("no sales person with employee id %q", e.Ref)
	case KindUnknownStore:
		return fmt.Sprintf("no store with code %q", e.Ref)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Ref)
}

// ConflictError means the row lost a race or found the item in a state that
// does not allow the transaction. Retrying the row later may succeed.
type ConflictError struct {
	Message string
	Err     error
}

func (e *ConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConflictError) Unwrap() error { return e.Err }

// IntegrityError means stored data violates an assumption the engine relies
// on (duplicate serials, constraint violations). It needs a human.
type IntegrityError struct {
	Message string
	Err     error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// storeReadErr turns a repository read failure into either the batch-aborting
// ErrStoreUnavailable or a plain wrapped error scoped to the row.
func storeReadErr(what string, err error) error {
	if repository.IsConnectivity(err) {
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// classifyWriteErr maps a failed commit unit to the taxonomy.
func classifyWriteErr(err error) error {
	var conflict *ConflictError
	var integrity *IntegrityError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &conflict), errors.As(err, &integrity):
		return err
	case errors.Is(err, ErrTransactionNotFound):
		return err
	case repository.IsLockConflict(err):
		return &ConflictError{Message: "concurrent update, retry later", Err: err}
	case repository.IsUniqueViolation(err), repository.IsForeignKeyViolation(err):
		return &IntegrityError{Message: "constraint violation", Err: err}
	case repository.IsConnectivity(err):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

// rowIssue flattens any row-scoped error into kind + message.
func rowIssue(err error) (string, string) {
	var rowErr *RowError
	var resErr *ResolutionError
	var conflict *ConflictError
	var integrity *IntegrityError
	switch {
	case errors.As(err, &rowErr):
		return rowErr.Kind, rowErr.Error()
	case errors.As(err, &resErr):
		return resErr.Kind, resErr.Error()
	case errors.As(err, &conflict):
		return KindConflict, conflict.Message
	case errors.As(err, &integrity):
		return KindIntegrity, integrity.Message
	}
	return KindStoreError, err.Error()
}
