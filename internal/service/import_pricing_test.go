package service

import (
	"context"
	"testing"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolved(item *model.InventoryItem, txType, price string) *ResolvedCandidate {
	return &ResolvedCandidate{
		Candidate: Candidate{
			Row:             1,
			SerialNumber:    item.SerialNumber,
			SaleDate:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			SellingPrice:    dec(price),
			TransactionType: txType,
		},
		Item: *item,
	}
}

func warningKinds(ws []Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Kind)
	}
	return out
}

func TestPrice_ExactDecimalMargin(t *testing.T) {
	m := newMemStore()
	item := m.addItem("RLX-0001", "5000.00", "12000.00", model.ItemStatusInStock)

	pc, err := newPricer(&stubTxRepo{m}).Price(context.Background(), resolved(item, model.TxTypeSale, "9999.95"))
	require.NoError(t, err)
	require.NotNil(t, pc.Margin)
	assert.Equal(t, "4999.95", pc.Margin.StringFixed(2))
	require.NotNil(t, pc.Retail)
	assert.Equal(t, "12000.00", pc.Retail.StringFixed(2), "retail falls back to the catalog")
	assert.Empty(t, pc.Warnings)
}

func TestPrice_RowRetailWins(t *testing.T) {
	m := newMemStore()
	item := m.addItem("RLX-0001", "5000.00", "12000.00", model.ItemStatusInStock)
	rc := resolved(item, model.TxTypeSale, "9999.95")
	rc.RetailPrice = decPtr("11500.00")

	pc, err := newPricer(&stubTxRepo{m}).Price(context.Background(), rc)
	require.NoError(t, err)
	assert.Equal(t, "11500.00", pc.Retail.StringFixed(2))
}

func TestPrice_MissingCostAndRetail(t *testing.T) {
	m := newMemStore()
	item := m.addItem("HRM-0004", "", "", model.ItemStatusInStock)

	pc, err := newPricer(&stubTxRepo{m}).Price(context.Background(), resolved(item, model.TxTypeSale, "21500.00"))
	require.NoError(t, err)
	assert.Nil(t, pc.Margin)
	assert.Nil(t, pc.Retail)
	assert.ElementsMatch(t, []string{WarnMissingRetailPrice, WarnMissingCostBasis}, warningKinds(pc.Warnings))
}

func TestPrice_CreditNegatesOriginalMargin(t *testing.T) {
	m := newMemStore()
	item := m.addItem("RLX-0001", "5000.00", "", model.ItemStatusSold)
	client := m.addClient("C-1001", "Amelia Hart", "amelia@example.com")
	m.addSale(item.ID, client.ID, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "9000.00", "4000.00")
	latest := m.addSale(item.ID, client.ID, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), "9999.95", "4999.95")

	pc, err := newPricer(&stubTxRepo{m}).Price(context.Background(), resolved(item, model.TxTypeCredit, "9999.95"))
	require.NoError(t, err)
	require.NotNil(t, pc.LinkedSaleID)
	assert.Equal(t, latest.ID, *pc.LinkedSaleID)
	require.NotNil(t, pc.Margin)
	assert.Equal(t, "-4999.95", pc.Margin.StringFixed(2))
}

func TestPrice_CreditWithoutOriginal(t *testing.T) {
	m := newMemStore()
	item := m.addItem("RLX-0001", "5000.00", "9999.95", model.ItemStatusSold)

	pc, err := newPricer(&stubTxRepo{m}).Price(context.Background(), resolved(item, model.TxTypeCredit, "9999.95"))
	require.NoError(t, err)
	assert.Nil(t, pc.LinkedSaleID)
	assert.Nil(t, pc.Margin)
	assert.Equal(t, []string{WarnUnlinkedCredit}, warningKinds(pc.Warnings))
}

func TestPrice_ExplicitOriginalMismatchLeavesCreditUnlinked(t *testing.T) {
	m := newMemStore()
	item := m.addItem("RLX-0001", "5000.00", "9999.95", model.ItemStatusSold)
	other := m.addItem("OMG-0002", "3200.00", "6450.00", model.ItemStatusSold)
	client := m.addClient("C-1001", "Amelia Hart", "amelia@example.com")
	m.addSale(item.ID, client.ID, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), "9999.95", "4999.95")
	wrong := m.addSale(other.ID, client.ID, time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC), "6450.00", "3250.00")

	t.Run("sale of another item", func(t *testing.T) {
		rc := resolved(item, model.TxTypeCredit, "9999.95")
		rc.OriginalTransactionID = &wrong.ID

		pc, err := newPricer(&stubTxRepo{m}).Price(context.Background(), rc)
		require.NoError(t, err)
		assert.Nil(t, pc.LinkedSaleID, "must not fall back to the item's latest sale")
		assert.Nil(t, pc.Margin)
		assert.Equal(t, []string{WarnOriginalMismatch, WarnUnlinkedCredit}, warningKinds(pc.Warnings))
	})

	t.Run("unknown id", func(t *testing.T) {
		missing := int64(9999)
		rc := resolved(item, model.TxTypeCredit, "9999.95")
		rc.OriginalTransactionID = &missing

		pc, err := newPricer(&stubTxRepo{m}).Price(context.Background(), rc)
		require.NoError(t, err)
		assert.Nil(t, pc.LinkedSaleID)
		assert.Equal(t, []string{WarnOriginalMismatch, WarnUnlinkedCredit}, warningKinds(pc.Warnings))
	})
}

func TestPrice_ExchangeLinksAndComputesMargin(t *testing.T) {
	m := newMemStore()
	item := m.addItem("RLX-0001", "5000.00", "9999.95", model.ItemStatusSold)
	client := m.addClient("C-1001", "Amelia Hart", "amelia@example.com")
	sale := m.addSale(item.ID, client.ID, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), "9999.95", "4999.95")

	pc, err := newPricer(&stubTxRepo{m}).Price(context.Background(), resolved(item, model.TxTypeExchange, "0"))
	require.NoError(t, err)
	require.NotNil(t, pc.LinkedSaleID)
	assert.Equal(t, sale.ID, *pc.LinkedSaleID)
	require.NotNil(t, pc.Margin)
	assert.Equal(t, "-5000.00", pc.Margin.StringFixed(2))
	assert.Empty(t, pc.Warnings)
}
