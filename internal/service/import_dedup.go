package service

import (
	"context"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"
)

type dedupKey struct {
	itemID int64
	txType string
	day    string // UTC YYYY-MM-DD
}

func keyOf(rc *ResolvedCandidate) dedupKey {
	return dedupKey{
		itemID: rc.Item.ID,
		txType: rc.TransactionType,
		day:    rc.SaleDate.UTC().Format("2006-01-02"),
	}
}

type batchClaim struct {
	row  int
	txID *int64
}

// duplicateDetector lives for one batch. Price and notes are not part of the
// key: re-keyed prices for the same sale are still the same sale.
type duplicateDetector struct {
	txRepo repository.TransactionRepository
	seen   map[dedupKey]*batchClaim
}

func newDuplicateDetector(txRepo repository.TransactionRepository) *duplicateDetector {
	return &duplicateDetector{txRepo: txRepo, seen: make(map[dedupKey]*batchClaim)}
}

// Check returns a duplicate entry, or nil when the row is unique. Only a row
// that has committed claims its key, so a row that fails later in the pipeline
// leaves the key open for an identical row further down the batch.
func (d *duplicateDetector) Check(ctx context.Context, rc *ResolvedCandidate) (*dto.DuplicateEntry, error) {
	key := keyOf(rc)
	if claim, ok := d.seen[key]; ok {
		first := claim.row
		return &dto.DuplicateEntry{
			Row:                   rc.Row,
			Reason:                DupWithinBatch,
			FirstRow:              &first,
			ExistingTransactionID: claim.txID,
		}, nil
	}

	dayStart, dayEnd := dayBounds(rc.SaleDate)
	existing, err := d.txRepo.FindByDedupKey(ctx, rc.Item.ID, rc.TransactionType, dayStart, dayEnd)
	switch {
	case err == nil:
		id := existing.ID
		return &dto.DuplicateEntry{Row: rc.Row, Reason: DupOfExisting, ExistingTransactionID: &id}, nil
	case !repository.IsNotFound(err):
		return nil, storeReadErr("checking for existing transaction", err)
	}
	return nil, nil
}

// Committed claims the row's key together with the transaction created for it.
func (d *duplicateDetector) Committed(rc *ResolvedCandidate, txID int64) {
	key := keyOf(rc)
	if _, ok := d.seen[key]; ok {
		return
	}
	d.seen[key] = &batchClaim{row: rc.Row, txID: &txID}
}
