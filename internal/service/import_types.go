package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"

	"github.com/shopspring/decimal"
)

// Canonical raw-row field names. Incoming headers and JSON keys are mapped onto
// these through fieldAliases.
const (
	FieldSerial        = "itemSerialNumber"
	FieldSaleDate      = "saleDate"
	FieldSellingPrice  = "sellingPrice"
	FieldRetailPrice   = "retailPrice"
	FieldType          = "transactionType"
	FieldClientID      = "clientId"
	FieldCustomerCode  = "customerCode"
	FieldClientName    = "clientName"
	FieldClientEmail   = "clientEmail"
	FieldSalesPerson   = "salesPerson"
	FieldStore         = "store"
	FieldNotes         = "notes"
	FieldOriginalTxnID = "originalTransactionId"
)

// fieldAliases is keyed by the squashed form of a header: lower case with
// spaces, underscores and hyphens removed.
var fieldAliases = map[string]string{
	"itemserialnumber":      FieldSerial,
	"serialnumber":          FieldSerial,
	"serial":                FieldSerial,
	"serialno":              FieldSerial,
	"saledate":              FieldSaleDate,
	"date":                  FieldSaleDate,
	"transactiondate":       FieldSaleDate,
	"sellingprice":          FieldSellingPrice,
	"saleprice":             FieldSellingPrice,
	"price":                 FieldSellingPrice,
	"amount":                FieldSellingPrice,
	"retailprice":           FieldRetailPrice,
	"retail":                FieldRetailPrice,
	"rrp":                   FieldRetailPrice,
	"transactiontype":       FieldType,
	"type":                  FieldType,
	"clientid":              FieldClientID,
	"customerid":            FieldClientID,
	"customercode":          FieldCustomerCode,
	"clientcode":            FieldCustomerCode,
	"clientname":            FieldClientName,
	"customername":          FieldClientName,
	"clientemail":           FieldClientEmail,
	"customeremail":         FieldClientEmail,
	"email":                 FieldClientEmail,
	"salesperson":           FieldSalesPerson,
	"salespersonid":         FieldSalesPerson,
	"employeeid":            FieldSalesPerson,
	"store":                 FieldStore,
	"storecode":             FieldStore,
	"notes":                 FieldNotes,
	"note":                  FieldNotes,
	"comments":              FieldNotes,
	"originaltransactionid": FieldOriginalTxnID,
	"originaltransaction":   FieldOriginalTxnID,
}

// CanonicalField maps a header or JSON key to its canonical field name.
// Unknown names come back unchanged with ok=false.
func CanonicalField(name string) (string, bool) {
	squashed := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
	canon, ok := fieldAliases[squashed]
	if !ok {
		return name, false
	}
	return canon, true
}

// RawRow is one unparsed input row keyed by canonical field name.
type RawRow map[string]string

// Keys ParseCSV stores next to the canonical fields. No alias maps onto them,
// so NewRawRow never produces them from input.
const (
	rowKeyLine       = "#line"
	rowKeyParseError = "#parseError"
)

// NewRawRow canonicalizes keys and drops columns nobody consumes. When several
// keys alias one field, a key spelled exactly as the canonical name is taken
// first, then the others in sorted order; the first non-empty value wins.
func NewRawRow(fields map[string]string) RawRow {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := isCanonicalName(keys[i]), isCanonicalName(keys[j])
		if ci != cj {
			return ci
		}
		return keys[i] < keys[j]
	})

	row := make(RawRow, len(fields))
	for _, k := range keys {
		if canon, ok := CanonicalField(k); ok {
			row.fill(canon, fields[k])
		}
	}
	return row
}

func isCanonicalName(name string) bool {
	canon, ok := CanonicalField(name)
	return ok && canon == name
}

// fill sets field unless an earlier column already gave it a value.
func (r RawRow) fill(field, value string) {
	if strings.TrimSpace(r[field]) == "" {
		r[field] = value
	}
}

// rowNumber is the data row number recorded by ParseCSV, counted from the
// header line, or fallback for rows that did not come from a file.
func (r RawRow) rowNumber(fallback int) int {
	if n, err := strconv.Atoi(r[rowKeyLine]); err == nil && n > 0 {
		return n
	}
	return fallback
}

// parseError is the CSV syntax error recorded for a record that could not be
// split into fields.
func (r RawRow) parseError() (string, bool) {
	msg, ok := r[rowKeyParseError]
	return msg, ok
}

// Get returns the trimmed value and whether it is non-empty.
func (r RawRow) Get(field string) (string, bool) {
	v := strings.TrimSpace(r[field])
	return v, v != ""
}

// ClientRef is whichever client reference the row carried.
type ClientRef struct {
	ID           *int64
	CustomerCode string
	Name         string
	Email        string
}

func (c ClientRef) String() string {
	switch {
	case c.ID != nil:
		return "client id " + formatID(*c.ID)
	case c.CustomerCode != "":
		return "customer code " + c.CustomerCode
	}
	return "name " + c.Name + " / email " + c.Email
}

// Candidate is a normalized row: typed, validated, not yet resolved.
type Candidate struct {
	Row                   int
	SerialNumber          string
	SaleDate              time.Time
	SellingPrice          decimal.Decimal
	RetailPrice           *decimal.Decimal
	TransactionType       string
	Client                ClientRef
	SalesPersonRef        string
	StoreRef              string
	Notes                 string
	OriginalTransactionID *int64
	Provenance            string
	BatchID               string
	Actor                 string
}

// Warning is a non-fatal observation attached to a committed row.
type Warning struct {
	Kind    string
	Message string
}

// ResolvedCandidate carries the ids every reference resolved to.
type ResolvedCandidate struct {
	Candidate
	Item          model.InventoryItem
	ClientID      int64
	SalesPersonID *int64
	StoreID       *int64
	Warnings      []Warning
}

// PricedCandidate is ready for the state updater.
type PricedCandidate struct {
	ResolvedCandidate
	Retail       *decimal.Decimal
	Margin       *decimal.Decimal
	LinkedSaleID *int64
}

// ValidProvenance reports whether p names a known row source.
func ValidProvenance(p string) bool {
	switch p {
	case model.SourceManual, model.SourceCSVImport, model.SourcePOSSystem:
		return true
	}
	return false
}

// dayBounds returns the UTC calendar day containing t as [start, end).
func dayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
