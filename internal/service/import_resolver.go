package service

import (
	"context"
	"fmt"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"
)

// identityResolver is the only import component that reads reference data.
type identityResolver struct {
	inventoryRepo   repository.InventoryRepository
	clientRepo      repository.ClientRepository
	storeRepo       repository.StoreRepository
	salesPersonRepo repository.SalesPersonRepository
}

func newIdentityResolver(
	inventoryRepo repository.InventoryRepository,
	clientRepo repository.ClientRepository,
	storeRepo repository.StoreRepository,
	salesPersonRepo repository.SalesPersonRepository,
) *identityResolver {
	return &identityResolver{
		inventoryRepo:   inventoryRepo,
		clientRepo:      clientRepo,
		storeRepo:       storeRepo,
		salesPersonRepo: salesPersonRepo,
	}
}

// Resolve maps every reference on the candidate to a stored id. Errors are a
// *ResolutionError, an *IntegrityError, or wrap ErrStoreUnavailable.
func (r *identityResolver) Resolve(ctx context.Context, c *Candidate) (*ResolvedCandidate, error) {
	rc := &ResolvedCandidate{Candidate: *c}

	item, err := r.resolveItem(ctx, c.SerialNumber)
	if err != nil {
		return nil, err
	}
	rc.Item = *item

	clientID, warn, err := r.resolveClient(ctx, c.Client)
	if err != nil {
		return nil, err
	}
	rc.ClientID = clientID
	if warn != nil {
		rc.Warnings = append(rc.Warnings, *warn)
	}

	if c.SalesPersonRef != "" {
		sp, err := r.salesPersonRepo.FindByEmployeeID(ctx, c.SalesPersonRef)
		if repository.IsNotFound(err) {
			return nil, &ResolutionError{Kind: KindUnknownEmployee, Ref: c.SalesPersonRef}
		}
		if err != nil {
			return nil, storeReadErr("looking up sales person", err)
		}
		rc.SalesPersonID = &sp.ID
	}

	if c.StoreRef != "" {
		st, err := r.storeRepo.FindByCode(ctx, c.StoreRef)
		if repository.IsNotFound(err) {
			return nil, &ResolutionError{Kind: KindUnknownStore, Ref: c.StoreRef}
		}
		if err != nil {
			return nil, storeReadErr("looking up store", err)
		}
		rc.StoreID = &st.ID
	}
	return rc, nil
}

func (r *identityResolver) resolveItem(ctx context.Context, serial string) (*model.InventoryItem, error) {
	items, err := r.inventoryRepo.FindBySerial(ctx, serial)
	if err != nil {
		return nil, storeReadErr("looking up inventory item", err)
	}
	switch len(items) {
	case 0:
		return nil, &ResolutionError{Kind: KindUnknownSerial, Ref: serial}
	case 1:
		return &items[0], nil
	}
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return nil, &IntegrityError{Message: fmt.Sprintf("serial %q matches %d inventory items %v", serial, len(items), ids)}
}

// resolveClient tries id, then customer code, then name+email. A code that
// matches nobody falls through to name+email when both are present.
func (r *identityResolver) resolveClient(ctx context.Context, ref ClientRef) (int64, *Warning, error) {
	if ref.ID != nil {
		c, err := r.clientRepo.FindByID(ctx, *ref.ID)
		if repository.IsNotFound(err) {
			return 0, nil, &ResolutionError{Kind: KindUnknownCustomer, Ref: ref.String()}
		}
		if err != nil {
			return 0, nil, storeReadErr("looking up client", err)
		}
		return c.ID, nil, nil
	}

	if ref.CustomerCode != "" {
		c, err := r.clientRepo.FindByCustomerCode(ctx, ref.CustomerCode)
		if err == nil {
			return c.ID, nil, nil
		}
		if !repository.IsNotFound(err) {
			return 0, nil, storeReadErr("looking up client", err)
		}
		if ref.Name == "" || ref.Email == "" {
			return 0, nil, &ResolutionError{Kind: KindUnknownCustomer, Ref: ref.String()}
		}
	}

	matches, err := r.clientRepo.FindByNameEmail(ctx, ref.Name, ref.Email)
	if err != nil {
		return 0, nil, storeReadErr("looking up client", err)
	}
	switch len(matches) {
	case 0:
		return 0, nil, &ResolutionError{Kind: KindUnknownCustomer, Ref: "name " + ref.Name + " / email " + ref.Email}
	case 1:
		return matches[0].ID, nil, nil
	}
	// newest first
	return matches[0].ID, &Warning{
		Kind:    WarnLowConfidenceClient,
		Message: fmt.Sprintf("%d clients match %s / %s, using client %d", len(matches), ref.Name, ref.Email, matches[0].ID),
	}, nil
}
