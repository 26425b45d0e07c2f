package service

import (
	"context"
	"fmt"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"
)

// pricer fills in retail price, profit margin and the original-sale link.
// All arithmetic is decimal; nothing here writes.
type pricer struct {
	txRepo repository.TransactionRepository
}

func newPricer(txRepo repository.TransactionRepository) *pricer {
	return &pricer{txRepo: txRepo}
}

func (p *pricer) Price(ctx context.Context, rc *ResolvedCandidate) (*PricedCandidate, error) {
	pc := &PricedCandidate{ResolvedCandidate: *rc}
	pc.Warnings = append([]Warning(nil), rc.Warnings...)

	switch {
	case rc.RetailPrice != nil:
		v := *rc.RetailPrice
		pc.Retail = &v
	case rc.Item.RetailPrice != nil:
		v := *rc.Item.RetailPrice
		pc.Retail = &v
	default:
		pc.warn(WarnMissingRetailPrice, fmt.Sprintf("no retail price for item %s", rc.SerialNumber))
	}

	if rc.TransactionType == model.TxTypeCredit || rc.TransactionType == model.TxTypeExchange {
		original, err := p.linkOriginal(ctx, pc)
		if err != nil {
			return nil, err
		}
		if original != nil {
			id := original.ID
			pc.LinkedSaleID = &id
		}

		if rc.TransactionType == model.TxTypeCredit {
			switch {
			case original == nil:
				pc.warn(WarnUnlinkedCredit, fmt.Sprintf("no original sale found for item %s", rc.SerialNumber))
			case original.ProfitMargin == nil:
				pc.warn(WarnUnlinkedCredit, fmt.Sprintf("original sale %d has no profit margin", original.ID))
			default:
				m := original.ProfitMargin.Neg()
				pc.Margin = &m
			}
			return pc, nil
		}
		if original == nil {
			pc.warn(WarnUnlinkedCredit, fmt.Sprintf("no original sale found for exchanged item %s", rc.SerialNumber))
		}
	}

	if rc.Item.CostPrice == nil {
		pc.warn(WarnMissingCostBasis, fmt.Sprintf("item %s has no cost price", rc.SerialNumber))
		return pc, nil
	}
	m := rc.SellingPrice.Sub(*rc.Item.CostPrice)
	pc.Margin = &m
	return pc, nil
}

// linkOriginal returns the explicit original transaction when the row names
// one, otherwise the item's latest sale. An explicit id that is not a sale of
// this item links nothing: guessing another sale would credit the wrong one.
// nil means nothing to link.
func (p *pricer) linkOriginal(ctx context.Context, pc *PricedCandidate) (*model.SalesTransaction, error) {
	if pc.OriginalTransactionID != nil {
		orig, err := p.txRepo.FindByID(ctx, *pc.OriginalTransactionID)
		switch {
		case err == nil && orig.TransactionType == model.TxTypeSale && orig.InventoryItemID == pc.Item.ID:
			return orig, nil
		case err != nil && !repository.IsNotFound(err):
			return nil, storeReadErr("looking up original transaction", err)
		}
		pc.warn(WarnOriginalMismatch, fmt.Sprintf(
			"original transaction %d is not a sale of item %s, leaving the row unlinked",
			*pc.OriginalTransactionID, pc.SerialNumber))
		return nil, nil
	}

	latest, err := p.txRepo.FindLatestSale(ctx, pc.Item.ID)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storeReadErr("looking up latest sale", err)
	}
	return latest, nil
}

func (pc *PricedCandidate) warn(kind, msg string) {
	pc.Warnings = append(pc.Warnings, Warning{Kind: kind, Message: msg})
}
