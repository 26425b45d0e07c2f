package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// TransactionFilter is bound from the query string of GET /v1/transactions.
type TransactionFilter struct {
	BatchID  string `form:"batch_id"`
	ClientID int64  `form:"client_id"        validate:"min=0"`
	Type     string `form:"type"             validate:"omitempty,oneof=sale credit exchange warranty"`
	DateFrom string `form:"date_from"        validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to"          validate:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type TransactionResponse struct {
	ID                    int64            `json:"id"`
	ClientID              int64            `json:"client_id"`
	InventoryItemID       int64            `json:"inventory_item_id"`
	SerialNumber          string           `json:"serial_number,omitempty"`
	TransactionType       string           `json:"transaction_type"`
	SaleDate              string           `json:"sale_date"`
	SellingPrice          decimal.Decimal  `json:"selling_price"`
	RetailPrice           *decimal.Decimal `json:"retail_price"`
	ProfitMargin          *decimal.Decimal `json:"profit_margin"`
	SalesPersonID         *int64           `json:"sales_person_id"`
	StoreID               *int64           `json:"store_id"`
	Source                string           `json:"source"`
	OriginalTransactionID *int64           `json:"original_transaction_id"`
	CSVBatchID            *string          `json:"csv_batch_id"`
	BatchRow              *int             `json:"batch_row"`
	Notes                 *string          `json:"notes"`
	Status                string           `json:"status"`
	CreatedBy             string           `json:"created_by"`
	CreatedAt             string           `json:"created_at"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
