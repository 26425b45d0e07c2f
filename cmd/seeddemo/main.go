// cmd/seeddemo loads a small boutique catalog (stores, sales staff, clients and
// serialized inventory) and prints a development token per role.
// Usage: go run ./cmd/seeddemo
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/infra"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/middleware"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.IsProduction() {
		log.Fatal().Msg("refusing to seed demo data in production")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	ctx := context.Background()

	if err := seed(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	storeList, err := repository.NewStoreRepository(db).List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list stores")
	}
	for _, s := range storeList {
		log.Info().Str("code", s.Code).Int64("id", s.ID).Msg("store ready")
	}
	log.Info().Msg("demo data ready")

	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn().Msg("JWT_SECRET empty: tokens below only work against a server with the same empty secret")
	}
	for _, role := range []string{middleware.RoleSales, middleware.RoleManager, middleware.RoleAdmin} {
		tok, err := middleware.SignToken(secret, middleware.JWTClaims{
			UserID: "demo-" + role,
			Name:   "Demo " + role,
			Role:   role,
		}, 24*time.Hour)
		if err != nil {
			log.Fatal().Err(err).Str("role", role).Msg("failed to sign token")
		}
		fmt.Printf("%-8s %s\n", role, tok)
	}
}

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func str(s string) *string { return &s }

func seed(ctx context.Context, db *gorm.DB) error {
	stores := repository.NewStoreRepository(db)
	staff := repository.NewSalesPersonRepository(db)
	clients := repository.NewClientRepository(db)
	inventory := repository.NewInventoryRepository(db)

	storeIDs := map[string]int64{}
	for _, s := range []model.Store{
		{Code: "CPT-VA", Name: "Cape Town V&A Waterfront", Active: true},
		{Code: "JHB-SAN", Name: "Johannesburg Sandton", Active: true},
	} {
		existing, err := stores.FindByCode(ctx, s.Code)
		switch {
		case err == nil:
			storeIDs[s.Code] = existing.ID
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("store %s: %w", s.Code, err)
		}
		s := s
		if err := stores.Create(ctx, &s); err != nil {
			return fmt.Errorf("store %s: %w", s.Code, err)
		}
		storeIDs[s.Code] = s.ID
	}

	for _, sp := range []model.SalesPerson{
		{EmployeeID: "EMP-001", Name: "Thandi Mokoena", StoreID: ptr(storeIDs["CPT-VA"]), Active: true},
		{EmployeeID: "EMP-002", Name: "Pieter van Wyk", StoreID: ptr(storeIDs["JHB-SAN"]), Active: true},
	} {
		_, err := staff.FindByEmployeeID(ctx, sp.EmployeeID)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("sales person %s: %w", sp.EmployeeID, err)
		}
		sp := sp
		if err := staff.Create(ctx, &sp); err != nil {
			return fmt.Errorf("sales person %s: %w", sp.EmployeeID, err)
		}
	}

	for _, c := range []model.Client{
		{CustomerCode: str("C-1001"), FullName: "Amelia Hart", Email: str("amelia.hart@example.com")},
		{CustomerCode: str("C-1002"), FullName: "Jonas Berg", Email: str("jonas.berg@example.com")},
		{FullName: "Lindiwe Dube", Email: str("lindiwe.dube@example.com")},
	} {
		if c.CustomerCode != nil {
			if _, err := clients.FindByCustomerCode(ctx, *c.CustomerCode); err == nil {
				continue
			}
		} else if found, err := clients.FindByNameEmail(ctx, c.FullName, *c.Email); err == nil && len(found) > 0 {
			continue
		}
		c := c
		if err := clients.Create(ctx, &c); err != nil {
			return fmt.Errorf("client %s: %w", c.FullName, err)
		}
	}

	for _, it := range []model.InventoryItem{
		{SerialNumber: "RLX-126610LN-0001", Brand: "Rolex", Model: "Submariner Date", CostPrice: money("5000.00"), RetailPrice: money("9999.95"), StoreID: ptr(storeIDs["CPT-VA"])},
		{SerialNumber: "OMG-31030425-0002", Brand: "Omega", Model: "Speedmaster Moonwatch", CostPrice: money("3200.00"), RetailPrice: money("6450.00"), StoreID: ptr(storeIDs["CPT-VA"])},
		{SerialNumber: "CRT-WSSA0018-0003", Brand: "Cartier", Model: "Santos de Cartier", CostPrice: money("3900.00"), RetailPrice: money("7400.00"), StoreID: ptr(storeIDs["JHB-SAN"])},
		{SerialNumber: "HRM-BIRKIN30-0004", Brand: "Hermes", Model: "Birkin 30", RetailPrice: money("21500.00"), StoreID: ptr(storeIDs["JHB-SAN"])},
		{SerialNumber: "TAG-CBN2A1B-0005", Brand: "TAG Heuer", Model: "Carrera", CostPrice: money("2100.00"), StoreID: ptr(storeIDs["JHB-SAN"])},
	} {
		found, err := inventory.FindBySerial(ctx, it.SerialNumber)
		if err != nil {
			return fmt.Errorf("item %s: %w", it.SerialNumber, err)
		}
		if len(found) > 0 {
			continue
		}
		it := it
		it.Status = model.ItemStatusInStock
		if err := inventory.Create(ctx, &it); err != nil {
			return fmt.Errorf("item %s: %w", it.SerialNumber, err)
		}
	}
	return nil
}

func ptr(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
