//go:build integration

package service

// Run with: go test -tags integration ./internal/service/...

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/infra"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func newPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("vault_crm"),
		tcPostgres.WithUsername("vault"),
		tcPostgres.WithPassword("vault"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := infra.NewDatabase(dsn)
	require.NoError(t, err)
	return db
}

type pgEngine struct {
	db      *gorm.DB
	txs     TransactionService
	imports ImportService
	item    *model.InventoryItem
	client  *model.Client
}

func setupPostgres(t *testing.T) *pgEngine {
	t.Helper()
	db := newPostgres(t)
	ctx := context.Background()

	code, email := "C-1001", "amelia.hart@example.com"
	client := &model.Client{CustomerCode: &code, FullName: "Amelia Hart", Email: &email}
	require.NoError(t, repository.NewClientRepository(db).Create(ctx, client))

	cost, retail := decimal.RequireFromString("5000.00"), decimal.RequireFromString("9999.95")
	item := &model.InventoryItem{SerialNumber: "RLX-0001", Brand: "Rolex", Model: "Submariner Date",
		Status: model.ItemStatusInStock, CostPrice: &cost, RetailPrice: &retail}
	require.NoError(t, repository.NewInventoryRepository(db).Create(ctx, item))

	txRepo := repository.NewTransactionRepository(db)
	inv := repository.NewInventoryRepository(db)
	clients := repository.NewClientRepository(db)
	txSvc := NewTransactionService(txRepo, inv, clients, repository.NewActivityLogRepository(db), nil)
	imp := NewImportService(inv, clients, repository.NewStoreRepository(db), repository.NewSalesPersonRepository(db),
		txRepo, txSvc, nil, nil, nil, testOpts)

	return &pgEngine{db: db, txs: txSvc, imports: imp, item: item, client: client}
}

type ledgerState struct {
	itemStatus     string
	purchases      int
	spend          string
	txCount        int64
	activityCount  int64
	originalStatus string
}

func (e *pgEngine) snapshot(t *testing.T, originalID int64) ledgerState {
	t.Helper()
	var s ledgerState

	var item model.InventoryItem
	require.NoError(t, e.db.First(&item, e.item.ID).Error)
	s.itemStatus = item.Status

	var client model.Client
	require.NoError(t, e.db.First(&client, e.client.ID).Error)
	s.purchases = client.TotalPurchases
	s.spend = client.TotalSpend.StringFixed(2)

	require.NoError(t, e.db.Model(&model.SalesTransaction{}).Count(&s.txCount).Error)
	require.NoError(t, e.db.Model(&model.ActivityLog{}).Count(&s.activityCount).Error)

	if originalID != 0 {
		var orig model.SalesTransaction
		require.NoError(t, e.db.First(&orig, originalID).Error)
		s.originalStatus = orig.Status
	}
	return s
}

func TestCommit_FailureAfterStatusChangeRollsBackEverything(t *testing.T) {
	e := setupPostgres(t)
	ctx := context.Background()

	before := e.snapshot(t, 0)

	// The item compare-and-set succeeds, then the insert trips the
	// non-negative price constraint.
	pc := priced(e.item, e.client.ID, model.TxTypeSale, "0")
	pc.SellingPrice = decimal.RequireFromString("-1.00")
	_, err := e.txs.Commit(ctx, pc)
	require.Error(t, err)

	assert.Equal(t, before, e.snapshot(t, 0))
	assert.Equal(t, model.ItemStatusInStock, before.itemStatus)
}

func TestCommit_CreditOfCreditedSaleLeavesNoTrace(t *testing.T) {
	e := setupPostgres(t)
	ctx := context.Background()

	saleID, err := e.txs.Commit(ctx, priced(e.item, e.client.ID, model.TxTypeSale, "9999.95"))
	require.NoError(t, err)

	credit := priced(e.item, e.client.ID, model.TxTypeCredit, "9999.95")
	credit.LinkedSaleID = &saleID
	_, err = e.txs.Commit(ctx, credit)
	require.NoError(t, err)

	// put the item back on the shelf and sell it again so a second credit
	// can pass the item check but not the original-sale check
	_, err = e.txs.Commit(ctx, priced(e.item, e.client.ID, model.TxTypeSale, "9999.95"))
	require.NoError(t, err)
	before := e.snapshot(t, saleID)
	require.Equal(t, model.ItemStatusSold, before.itemStatus)
	require.Equal(t, model.TxStatusCredited, before.originalStatus)

	again := priced(e.item, e.client.ID, model.TxTypeCredit, "9999.95")
	again.LinkedSaleID = &saleID
	_, err = e.txs.Commit(ctx, again)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	kind, _ := rowIssue(err)
	assert.Equal(t, KindConflict, kind)
	assert.Equal(t, before, e.snapshot(t, saleID))
}

func TestCommit_ConcurrentSalesOfOneItem(t *testing.T) {
	e := setupPostgres(t)
	ctx := context.Background()

	const workers = 2
	var wg sync.WaitGroup
	errs := make([]error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = e.txs.Commit(ctx, priced(e.item, e.client.ID, model.TxTypeSale, "9999.95"))
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		kind, _ := rowIssue(err)
		if kind == KindConflict {
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	s := e.snapshot(t, 0)
	assert.Equal(t, model.ItemStatusSold, s.itemStatus)
	assert.Equal(t, 1, s.purchases)
	assert.Equal(t, "9999.95", s.spend)
	assert.Equal(t, int64(1), s.txCount)
	assert.Equal(t, int64(1), s.activityCount)
}

func TestImportBatch_ConcurrentBatchesSellItemOnce(t *testing.T) {
	e := setupPostgres(t)
	ctx := context.Background()

	batches := []string{"eod-till-1", "eod-till-2"}
	results := make([]*dto.BatchResultResponse, len(batches))
	errs := make([]error, len(batches))
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i, id := range batches {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			<-start
			results[i], errs[i] = e.imports.ImportBatch(ctx, BatchRequest{
				BatchID:    id,
				Provenance: model.SourcePOSSystem,
				Rows:       []RawRow{saleRow("RLX-0001", "2024-03-15", "9999.95")},
			})
		}(i, id)
	}
	close(start)
	wg.Wait()

	committed := 0
	for i, res := range results {
		require.NoError(t, errs[i])
		committed += res.Successful
		if res.Successful == 0 {
			// the loser either saw the winner's row or lost the status race
			if len(res.Errors) == 1 {
				assert.Equal(t, KindConflict, res.Errors[0].Kind)
			} else {
				assert.Len(t, res.Duplicates, 1)
			}
		}
	}
	assert.Equal(t, 1, committed)

	s := e.snapshot(t, 0)
	assert.Equal(t, int64(1), s.txCount)
	assert.Equal(t, 1, s.purchases)
}
