package dto

import "github.com/shopspring/decimal"

// ClientMetricsResponse carries the lifetime aggregates maintained by the
// transaction state updater.
type ClientMetricsResponse struct {
	ClientID       int64           `json:"client_id"`
	FullName       string          `json:"full_name"`
	CustomerCode   *string         `json:"customer_code"`
	TotalPurchases int             `json:"total_purchases"`
	TotalSpend     decimal.Decimal `json:"total_spend"`
}
