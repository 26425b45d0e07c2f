package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"

	"github.com/shopspring/decimal"
)

// saleDateLayouts are tried in order. time.Parse rejects impossible calendar
// dates such as 2024-02-30.
var saleDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
}

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// NormalizeRow validates and types one raw row. It performs no I/O.
// row is the 1-based data row number. The returned error is always a *RowError.
func NormalizeRow(raw RawRow, provenance, batchID string, row int) (*Candidate, error) {
	if msg, ok := raw.parseError(); ok {
		return nil, &RowError{Kind: KindMalformedRow, Field: "row", Message: msg}
	}
	c := &Candidate{Row: row, Provenance: provenance, BatchID: batchID}

	serial, ok := raw.Get(FieldSerial)
	if !ok {
		return nil, missing(FieldSerial)
	}
	c.SerialNumber = serial

	dateStr, ok := raw.Get(FieldSaleDate)
	if !ok {
		return nil, missing(FieldSaleDate)
	}
	saleDate, err := parseSaleDate(dateStr)
	if err != nil {
		return nil, &RowError{Kind: KindMalformedDate, Field: FieldSaleDate, Message: fmt.Sprintf("cannot parse %q as a date", dateStr)}
	}
	c.SaleDate = saleDate

	priceStr, ok := raw.Get(FieldSellingPrice)
	if !ok {
		return nil, missing(FieldSellingPrice)
	}
	price, err := parseAmount(priceStr)
	if err != nil {
		return nil, malformedNumber(FieldSellingPrice, priceStr)
	}
	c.SellingPrice = price

	if retailStr, ok := raw.Get(FieldRetailPrice); ok {
		retail, err := parseAmount(retailStr)
		if err != nil {
			return nil, malformedNumber(FieldRetailPrice, retailStr)
		}
		c.RetailPrice = &retail
	}

	txType, err := normalizeType(raw, provenance)
	if err != nil {
		return nil, err
	}
	c.TransactionType = txType

	ref, err := clientRef(raw)
	if err != nil {
		return nil, err
	}
	c.Client = ref

	if origStr, ok := raw.Get(FieldOriginalTxnID); ok {
		id, err := parsePositiveID(origStr)
		if err != nil {
			return nil, malformedNumber(FieldOriginalTxnID, origStr)
		}
		c.OriginalTransactionID = &id
	}

	c.SalesPersonRef, _ = raw.Get(FieldSalesPerson)
	c.StoreRef, _ = raw.Get(FieldStore)
	c.Notes, _ = raw.Get(FieldNotes)
	return c, nil
}

func normalizeType(raw RawRow, provenance string) (string, error) {
	v, ok := raw.Get(FieldType)
	if !ok {
		if provenance == model.SourceManual {
			return model.TxTypeSale, nil
		}
		return "", missing(FieldType)
	}
	switch t := strings.ToLower(v); t {
	case model.TxTypeSale, model.TxTypeCredit, model.TxTypeExchange, model.TxTypeWarranty:
		return t, nil
	}
	return "", &RowError{
		Kind:    KindInvalidTypeEnum,
		Field:   FieldType,
		Message: fmt.Sprintf("%q is not one of sale, credit, exchange, warranty", v),
	}
}

func clientRef(raw RawRow) (ClientRef, error) {
	var ref ClientRef
	if idStr, ok := raw.Get(FieldClientID); ok {
		id, err := parsePositiveID(idStr)
		if err != nil {
			return ref, malformedNumber(FieldClientID, idStr)
		}
		ref.ID = &id
	}
	ref.CustomerCode, _ = raw.Get(FieldCustomerCode)
	ref.Name, _ = raw.Get(FieldClientName)
	ref.Email, _ = raw.Get(FieldClientEmail)

	if ref.ID == nil && ref.CustomerCode == "" && (ref.Name == "" || ref.Email == "") {
		return ref, &RowError{
			Kind:    KindMissingField,
			Field:   FieldClientID,
			Message: "a client reference is required (clientId, customerCode, or clientName with clientEmail)",
		}
	}
	return ref, nil
}

func parseSaleDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range saleDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			// The wall clock as written, not the instant: an offset must not
			// move the sale onto another calendar day.
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseAmount accepts non-negative amounts with at most two decimals, an
// optional leading "$" and "," thousands separators.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if !amountPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return decimal.NewFromString(s)
}

func parsePositiveID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return id, nil
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

func missing(field string) *RowError {
	return &RowError{Kind: KindMissingField, Field: field, Message: "is required"}
}

func malformedNumber(field, value string) *RowError {
	return &RowError{Kind: KindMalformedNumber, Field: field, Message: fmt.Sprintf("%q is not a valid number", value)}
}
