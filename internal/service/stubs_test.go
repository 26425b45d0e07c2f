package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory store ───────────────────────────────────────────────────────────
// All stub repositories share one memStore so the effects of a commit are
// visible to later lookups, like a real database.

type memStore struct {
	items    map[int64]*model.InventoryItem
	clients  map[int64]*model.Client
	stores   map[string]*model.Store
	staff    map[string]*model.SalesPerson
	txs      map[int64]*model.SalesTransaction
	activity []model.ActivityLog

	nextID int64

	// injected failures
	serialErr error
	createErr error

	// statusErrOnce fails the next item status update, then clears itself.
	statusErrOnce error
}

func newMemStore() *memStore {
	return &memStore{
		items:   make(map[int64]*model.InventoryItem),
		clients: make(map[int64]*model.Client),
		stores:  make(map[string]*model.Store),
		staff:   make(map[string]*model.SalesPerson),
		txs:     make(map[int64]*model.SalesTransaction),
		nextID:  100,
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func (m *memStore) addItem(serial, cost, retail, status string) *model.InventoryItem {
	it := &model.InventoryItem{ID: m.id(), SerialNumber: serial, Brand: "Rolex", Model: "Submariner", Status: status}
	if cost != "" {
		it.CostPrice = decPtr(cost)
	}
	if retail != "" {
		it.RetailPrice = decPtr(retail)
	}
	m.items[it.ID] = it
	return it
}

func (m *memStore) addClient(code, name, email string) *model.Client {
	c := &model.Client{ID: m.id(), FullName: name, TotalSpend: decimal.Zero, CreatedAt: time.Now().Add(time.Duration(m.nextID) * time.Second)}
	if code != "" {
		c.CustomerCode = strPtr(code)
	}
	if email != "" {
		c.Email = strPtr(email)
	}
	m.clients[c.ID] = c
	return c
}

func (m *memStore) addSale(itemID, clientID int64, date time.Time, price, margin string) *model.SalesTransaction {
	t := &model.SalesTransaction{
		ID:              m.id(),
		ClientID:        clientID,
		InventoryItemID: itemID,
		TransactionType: model.TxTypeSale,
		SaleDate:        date,
		SellingPrice:    dec(price),
		Source:          model.SourceManual,
		Status:          model.TxStatusRecorded,
	}
	if margin != "" {
		t.ProfitMargin = decPtr(margin)
	}
	m.txs[t.ID] = t
	return t
}

func (m *memStore) txsOfType(txType string) []*model.SalesTransaction {
	var out []*model.SalesTransaction
	for _, t := range m.txs {
		if t.TransactionType == txType {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ── Inventory ─────────────────────────────────────────────────────────────────

type stubInventoryRepo struct{ m *memStore }

func (r *stubInventoryRepo) Create(_ context.Context, item *model.InventoryItem) error {
	item.ID = r.m.id()
	cp := *item
	r.m.items[item.ID] = &cp
	return nil
}

func (r *stubInventoryRepo) FindByID(_ context.Context, id int64) (*model.InventoryItem, error) {
	it, ok := r.m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *stubInventoryRepo) FindBySerial(_ context.Context, serial string) ([]model.InventoryItem, error) {
	if r.m.serialErr != nil {
		return nil, r.m.serialErr
	}
	var out []model.InventoryItem
	for _, it := range r.m.items {
		if it.SerialNumber == serial {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubInventoryRepo) UpdateStatusTx(_ *gorm.DB, id int64, from []string, to string) (bool, error) {
	if err := r.m.statusErrOnce; err != nil {
		r.m.statusErrOnce = nil
		return false, err
	}
	it, ok := r.m.items[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if it.Status == f {
			it.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *stubInventoryRepo) DB() *gorm.DB { return nil }

var _ repository.InventoryRepository = (*stubInventoryRepo)(nil)

// ── Clients ───────────────────────────────────────────────────────────────────

type stubClientRepo struct{ m *memStore }

func (r *stubClientRepo) Create(_ context.Context, c *model.Client) error {
	c.ID = r.m.id()
	cp := *c
	r.m.clients[c.ID] = &cp
	return nil
}

func (r *stubClientRepo) FindByID(_ context.Context, id int64) (*model.Client, error) {
	c, ok := r.m.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubClientRepo) FindByCustomerCode(_ context.Context, code string) (*model.Client, error) {
	for _, c := range r.m.clients {
		if c.CustomerCode != nil && *c.CustomerCode == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClientRepo) FindByNameEmail(_ context.Context, name, email string) ([]model.Client, error) {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	var out []model.Client
	for _, c := range r.m.clients {
		if c.Email == nil {
			continue
		}
		if norm(c.FullName) == norm(name) && norm(*c.Email) == norm(email) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *stubClientRepo) LockByIDTx(_ *gorm.DB, id int64) (*model.Client, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubClientRepo) UpdateMetricsTx(_ *gorm.DB, id int64, purchases int, spend decimal.Decimal) error {
	c, ok := r.m.clients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.TotalPurchases = purchases
	c.TotalSpend = spend
	return nil
}

func (r *stubClientRepo) DB() *gorm.DB { return nil }

var _ repository.ClientRepository = (*stubClientRepo)(nil)

// ── Stores / staff ────────────────────────────────────────────────────────────

type stubStoreRepo struct{ m *memStore }

func (r *stubStoreRepo) Create(_ context.Context, s *model.Store) error {
	s.ID = r.m.id()
	cp := *s
	r.m.stores[s.Code] = &cp
	return nil
}

func (r *stubStoreRepo) FindByCode(_ context.Context, code string) (*model.Store, error) {
	s, ok := r.m.stores[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubStoreRepo) List(_ context.Context) ([]model.Store, error) {
	var out []model.Store
	for _, s := range r.m.stores {
		out = append(out, *s)
	}
	return out, nil
}

var _ repository.StoreRepository = (*stubStoreRepo)(nil)

type stubSalesPersonRepo struct{ m *memStore }

func (r *stubSalesPersonRepo) Create(_ context.Context, sp *model.SalesPerson) error {
	sp.ID = r.m.id()
	cp := *sp
	r.m.staff[sp.EmployeeID] = &cp
	return nil
}

func (r *stubSalesPersonRepo) FindByEmployeeID(_ context.Context, employeeID string) (*model.SalesPerson, error) {
	sp, ok := r.m.staff[employeeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *sp
	return &cp, nil
}

var _ repository.SalesPersonRepository = (*stubSalesPersonRepo)(nil)

// ── Transactions ──────────────────────────────────────────────────────────────

type stubTxRepo struct{ m *memStore }

func (r *stubTxRepo) FindByID(_ context.Context, id int64) (*model.SalesTransaction, error) {
	t, ok := r.m.txs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	if it, ok := r.m.items[t.InventoryItemID]; ok {
		item := *it
		cp.InventoryItem = &item
	}
	return &cp, nil
}

func (r *stubTxRepo) FindByDedupKey(_ context.Context, itemID int64, txType string, dayStart, dayEnd time.Time) (*model.SalesTransaction, error) {
	var found *model.SalesTransaction
	for _, t := range r.m.txs {
		if t.InventoryItemID != itemID || t.TransactionType != txType {
			continue
		}
		if t.SaleDate.Before(dayStart) || !t.SaleDate.Before(dayEnd) {
			continue
		}
		if found == nil || t.ID < found.ID {
			found = t
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *stubTxRepo) FindLatestSale(_ context.Context, itemID int64) (*model.SalesTransaction, error) {
	var found *model.SalesTransaction
	for _, t := range r.m.txs {
		if t.InventoryItemID != itemID || t.TransactionType != model.TxTypeSale {
			continue
		}
		if found == nil || t.SaleDate.After(found.SaleDate) || (t.SaleDate.Equal(found.SaleDate) && t.ID > found.ID) {
			found = t
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *stubTxRepo) List(_ context.Context, filter dto.TransactionFilter) ([]model.SalesTransaction, int64, error) {
	var out []model.SalesTransaction
	for _, t := range r.m.txs {
		if filter.BatchID != "" && (t.CSVBatchID == nil || *t.CSVBatchID != filter.BatchID) {
			continue
		}
		if filter.ClientID != 0 && t.ClientID != filter.ClientID {
			continue
		}
		if filter.Type != "" && t.TransactionType != filter.Type {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubTxRepo) CreateTx(_ *gorm.DB, t *model.SalesTransaction) error {
	if r.m.createErr != nil {
		return r.m.createErr
	}
	t.ID = r.m.id()
	t.CreatedAt = time.Now()
	cp := *t
	r.m.txs[t.ID] = &cp
	return nil
}

func (r *stubTxRepo) LockByIDTx(_ *gorm.DB, id int64) (*model.SalesTransaction, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubTxRepo) UpdateStatusTx(_ *gorm.DB, id int64, from, to string) (bool, error) {
	t, ok := r.m.txs[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (r *stubTxRepo) DeleteTx(_ *gorm.DB, id int64) error {
	delete(r.m.txs, id)
	return nil
}

func (r *stubTxRepo) DB() *gorm.DB { return nil }

var _ repository.TransactionRepository = (*stubTxRepo)(nil)

// ── Activity log ──────────────────────────────────────────────────────────────

type stubActivityRepo struct{ m *memStore }

func (r *stubActivityRepo) CreateTx(_ *gorm.DB, entry *model.ActivityLog) error {
	entry.ID = int64(len(r.m.activity) + 1)
	entry.CreatedAt = time.Now()
	r.m.activity = append(r.m.activity, *entry)
	return nil
}

func (r *stubActivityRepo) List(_ context.Context, filter dto.ActivityFilter) ([]model.ActivityLog, int64, error) {
	var out []model.ActivityLog
	for _, e := range r.m.activity {
		if filter.BatchID != "" && (e.BatchID == nil || *e.BatchID != filter.BatchID) {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

var _ repository.ActivityLogRepository = (*stubActivityRepo)(nil)

// ── Wiring ────────────────────────────────────────────────────────────────────

type testEngine struct {
	store   *memStore
	txs     TransactionService
	imports ImportService
}

func newTestEngine(m *memStore, opts ImportOptions) *testEngine {
	txRepo := &stubTxRepo{m}
	inv := &stubInventoryRepo{m}
	clients := &stubClientRepo{m}
	txSvc := NewTransactionService(txRepo, inv, clients, &stubActivityRepo{m}, nil)
	imp := NewImportService(inv, clients, &stubStoreRepo{m}, &stubSalesPersonRepo{m}, txRepo, txSvc, nil, nil, nil, opts)
	return &testEngine{store: m, txs: txSvc, imports: imp}
}

// row builds a RawRow from alternating key/value pairs.
func row(kv ...string) RawRow {
	fields := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return NewRawRow(fields)
}
