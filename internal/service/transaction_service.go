package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/cache"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Activity log actions written by the state updater.
const (
	ActionTransactionCreated = "transaction_created"
	ActionTransactionDeleted = "transaction_deleted"
	EntitySalesTransaction   = "sales_transaction"
)

// TransactionService is the only writer of item status and client lifetime
// aggregates. Commit and Delete are exact inverses except for the zero floor
// on client aggregates.
type TransactionService interface {
	Commit(ctx context.Context, pc *PricedCandidate) (int64, error)
	Delete(ctx context.Context, id int64, actor string) error
	Get(ctx context.Context, id int64) (*dto.TransactionResponse, error)
	List(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error)
}

type transactionService struct {
	txRepo        repository.TransactionRepository
	inventoryRepo repository.InventoryRepository
	clientRepo    repository.ClientRepository
	activityRepo  repository.ActivityLogRepository
	metricsCache  cache.ClientMetricsCache
}

func NewTransactionService(
	txRepo repository.TransactionRepository,
	inventoryRepo repository.InventoryRepository,
	clientRepo repository.ClientRepository,
	activityRepo repository.ActivityLogRepository,
	metricsCache cache.ClientMetricsCache,
) TransactionService {
	if metricsCache == nil {
		metricsCache = cache.NoopClientMetricsCache{}
	}
	return &transactionService{
		txRepo:        txRepo,
		inventoryRepo: inventoryRepo,
		clientRepo:    clientRepo,
		activityRepo:  activityRepo,
		metricsCache:  metricsCache,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// itemTransition returns the statuses an item may be in for the transaction
// type and the status it ends in. exchange and warranty leave a sold item sold.
func itemTransition(txType string) ([]string, string) {
	switch txType {
	case model.TxTypeSale:
		return []string{model.ItemStatusInStock, model.ItemStatusReserved}, model.ItemStatusSold
	case model.TxTypeCredit:
		return []string{model.ItemStatusSold}, model.ItemStatusInStock
	}
	return []string{model.ItemStatusSold}, model.ItemStatusSold
}

// reverseItemTransition is the undo of itemTransition. ok=false means the
// transaction type did not move the item.
func reverseItemTransition(txType string) (from []string, to string, ok bool) {
	switch txType {
	case model.TxTypeSale:
		return []string{model.ItemStatusSold}, model.ItemStatusInStock, true
	case model.TxTypeCredit:
		return []string{model.ItemStatusInStock}, model.ItemStatusSold, true
	}
	return nil, "", false
}

// clientDelta is +1/+price for a sale and -1/-price for a credit. reverse
// flips the sign. Results are floored at zero.
func clientDelta(c *model.Client, txType string, price decimal.Decimal, reverse bool) (int, decimal.Decimal, bool) {
	sign := 0
	switch txType {
	case model.TxTypeSale:
		sign = 1
	case model.TxTypeCredit:
		sign = -1
	default:
		return c.TotalPurchases, c.TotalSpend, false
	}
	if reverse {
		sign = -sign
	}

	purchases := c.TotalPurchases + sign
	spend := c.TotalSpend.Add(price.Mul(decimal.NewFromInt(int64(sign))))
	if purchases < 0 {
		purchases = 0
	}
	if spend.IsNegative() {
		spend = decimal.Zero
	}
	return purchases, spend, true
}

// ── Commit ──────────────────────────────────────────────────────────────────
// One unit of work:
//  1. mark the linked original sale as credited (credits only)
//  2. compare-and-set the item status
//  3. insert the transaction
//  4. update client aggregates under a row lock
//  5. append the activity log entry
// Both compare-and-set steps run before any other write, so a row that loses
// a race fails before touching anything. Any failure rolls back all five.

func (s *transactionService) Commit(ctx context.Context, pc *PricedCandidate) (int64, error) {
	var created model.SalesTransaction

	err := runTx(ctx, s.txRepo.DB(), func(tx *gorm.DB) error {
		if pc.TransactionType == model.TxTypeCredit && pc.LinkedSaleID != nil {
			marked, err := s.txRepo.UpdateStatusTx(tx, *pc.LinkedSaleID, model.TxStatusRecorded, model.TxStatusCredited)
			if err != nil {
				return fmt.Errorf("marking original sale credited: %w", err)
			}
			if !marked {
				return &ConflictError{Message: fmt.Sprintf("original sale %d is already credited", *pc.LinkedSaleID)}
			}
		}

		from, to := itemTransition(pc.TransactionType)
		moved, err := s.inventoryRepo.UpdateStatusTx(tx, pc.Item.ID, from, to)
		if err != nil {
			return fmt.Errorf("updating item status: %w", err)
		}
		if !moved {
			return &ConflictError{Message: fmt.Sprintf(
				"item %s is not in a state that allows a %s (expected %v)", pc.SerialNumber, pc.TransactionType, from)}
		}

		created = buildTransaction(pc)
		if err := s.txRepo.CreateTx(tx, &created); err != nil {
			return fmt.Errorf("inserting transaction: %w", err)
		}

		if err := s.applyClientDelta(tx, pc.ClientID, pc.TransactionType, pc.SellingPrice, false); err != nil {
			return err
		}

		entry := &model.ActivityLog{
			Action:      ActionTransactionCreated,
			EntityType:  EntitySalesTransaction,
			EntityID:    created.ID,
			Description: describeCommit(pc, created.ID),
			Actor:       pc.Actor,
			BatchID:     optionalString(pc.BatchID),
		}
		if err := s.activityRepo.CreateTx(tx, entry); err != nil {
			return fmt.Errorf("appending activity log: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, classifyWriteErr(err)
	}

	s.invalidateClient(ctx, pc.ClientID)
	return created.ID, nil
}

func (s *transactionService) applyClientDelta(tx *gorm.DB, clientID int64, txType string, price decimal.Decimal, reverse bool) error {
	if txType != model.TxTypeSale && txType != model.TxTypeCredit {
		return nil
	}
	client, err := s.clientRepo.LockByIDTx(tx, clientID)
	if err != nil {
		return fmt.Errorf("locking client %d: %w", clientID, err)
	}
	purchases, spend, changed := clientDelta(client, txType, price, reverse)
	if !changed {
		return nil
	}
	if err := s.clientRepo.UpdateMetricsTx(tx, clientID, purchases, spend); err != nil {
		return fmt.Errorf("updating client metrics: %w", err)
	}
	return nil
}

func (s *transactionService) invalidateClient(ctx context.Context, clientID int64) {
	if err := s.metricsCache.Invalidate(ctx, clientID); err != nil {
		log.Warn().Err(err).Int64("client_id", clientID).Msg("transactions: failed to invalidate client metrics cache")
	}
}

func buildTransaction(pc *PricedCandidate) model.SalesTransaction {
	row := pc.Row
	t := model.SalesTransaction{
		ClientID:              pc.ClientID,
		InventoryItemID:       pc.Item.ID,
		TransactionType:       pc.TransactionType,
		SaleDate:              pc.SaleDate,
		SellingPrice:          pc.SellingPrice,
		RetailPrice:           pc.Retail,
		ProfitMargin:          pc.Margin,
		SalesPersonID:         pc.SalesPersonID,
		StoreID:               pc.StoreID,
		Source:                pc.Provenance,
		OriginalTransactionID: pc.LinkedSaleID,
		CSVBatchID:            optionalString(pc.BatchID),
		BatchRow:              &row,
		Notes:                 optionalString(pc.Notes),
		Status:                model.TxStatusRecorded,
		CreatedBy:             pc.Actor,
	}
	return t
}

func describeCommit(pc *PricedCandidate, id int64) string {
	desc := fmt.Sprintf("%s #%d of item %s for client %d at %s",
		pc.TransactionType, id, pc.SerialNumber, pc.ClientID, pc.SellingPrice.StringFixed(2))
	if pc.BatchID != "" {
		desc += fmt.Sprintf(" (batch %s row %d)", pc.BatchID, pc.Row)
	}
	return desc
}

// ── Delete ──────────────────────────────────────────────────────────────────
// Reverses Commit in one unit of work, then removes the row. A sale that has
// been credited must have its credit deleted first.

func (s *transactionService) Delete(ctx context.Context, id int64, actor string) error {
	var clientID int64

	err := runTx(ctx, s.txRepo.DB(), func(tx *gorm.DB) error {
		t, err := s.txRepo.LockByIDTx(tx, id)
		if repository.IsNotFound(err) {
			return ErrTransactionNotFound
		}
		if err != nil {
			return fmt.Errorf("loading transaction %d: %w", id, err)
		}
		clientID = t.ClientID

		if t.TransactionType == model.TxTypeSale && t.Status == model.TxStatusCredited {
			return &ConflictError{Message: fmt.Sprintf("sale %d has been credited, delete the credit first", id)}
		}

		if from, to, ok := reverseItemTransition(t.TransactionType); ok {
			moved, err := s.inventoryRepo.UpdateStatusTx(tx, t.InventoryItemID, from, to)
			if err != nil {
				return fmt.Errorf("reverting item status: %w", err)
			}
			if !moved {
				return &ConflictError{Message: fmt.Sprintf(
					"item %d is no longer %v, cannot reverse %s %d", t.InventoryItemID, from, t.TransactionType, id)}
			}
		}

		if err := s.applyClientDelta(tx, t.ClientID, t.TransactionType, t.SellingPrice, true); err != nil {
			return err
		}

		if t.TransactionType == model.TxTypeCredit && t.OriginalTransactionID != nil {
			if _, err := s.txRepo.UpdateStatusTx(tx, *t.OriginalTransactionID, model.TxStatusCredited, model.TxStatusRecorded); err != nil {
				return fmt.Errorf("resetting original sale status: %w", err)
			}
		}

		entry := &model.ActivityLog{
			Action:     ActionTransactionDeleted,
			EntityType: EntitySalesTransaction,
			EntityID:   id,
			Description: fmt.Sprintf("deleted %s #%d of item %d for client %d at %s",
				t.TransactionType, id, t.InventoryItemID, t.ClientID, t.SellingPrice.StringFixed(2)),
			Actor:   actor,
			BatchID: t.CSVBatchID,
		}
		if err := s.activityRepo.CreateTx(tx, entry); err != nil {
			return fmt.Errorf("appending activity log: %w", err)
		}

		return s.txRepo.DeleteTx(tx, id)
	})
	if err != nil {
		return classifyWriteErr(err)
	}

	log.Info().Int64("transaction_id", id).Str("actor", actor).Msg("transactions: deleted")
	s.invalidateClient(ctx, clientID)
	return nil
}

// ── Read side ───────────────────────────────────────────────────────────────

func (s *transactionService) Get(ctx context.Context, id int64) (*dto.TransactionResponse, error) {
	t, err := s.txRepo.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := toTransactionResponse(t)
	return &resp, nil
}

func (s *transactionService) List(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	txs, total, err := s.txRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.TransactionResponse, 0, len(txs))
	for i := range txs {
		data = append(data, toTransactionResponse(&txs[i]))
	}
	return &dto.TransactionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func toTransactionResponse(t *model.SalesTransaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:                    t.ID,
		ClientID:              t.ClientID,
		InventoryItemID:       t.InventoryItemID,
		TransactionType:       t.TransactionType,
		SaleDate:              t.SaleDate.UTC().Format("2006-01-02"),
		SellingPrice:          t.SellingPrice,
		RetailPrice:           t.RetailPrice,
		ProfitMargin:          t.ProfitMargin,
		SalesPersonID:         t.SalesPersonID,
		StoreID:               t.StoreID,
		Source:                t.Source,
		OriginalTransactionID: t.OriginalTransactionID,
		CSVBatchID:            t.CSVBatchID,
		BatchRow:              t.BatchRow,
		Notes:                 t.Notes,
		Status:                t.Status,
		CreatedBy:             t.CreatedBy,
		CreatedAt:             t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.InventoryItem != nil {
		resp.SerialNumber = t.InventoryItem.SerialNumber
	}
	return resp
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// errIsRowScoped reports whether err should be recorded against the row
// rather than abort the batch.
func errIsRowScoped(err error) bool {
	return !errors.Is(err, ErrStoreUnavailable)
}
