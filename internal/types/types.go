// =============================================================================
// Wave Sales Export - Shared Types
// =============================================================================
//
// This package contains the types shared by the export pipeline stages so that
// no stage has to import another. Types defined here are used by:
//   - client       (decodes API pages into Invoice values)
//   - paginator    (aggregates PageResult values)
//   - denormalizer (turns Invoice values into FlatRow values)
//   - exporter     (writes FlatRow values)
//
// The invoice types mirror the GraphQL response shape. Optional nested objects
// are pointers so a missing address or product decodes to nil instead of
// failing; the accessor methods below never panic on nil receivers.
//
// =============================================================================

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAGINATION TYPES
// =============================================================================

// PageInfo is the pagination metadata returned with every invoice page.
type PageInfo struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalCount  int `json:"totalCount"`
}

// PageResult is one fetched page: its invoices in edge order plus PageInfo.
type PageResult struct {
	Invoices []Invoice
	PageInfo PageInfo
}

// =============================================================================
// INVOICE TYPES
// =============================================================================

// Invoice is a single invoice node.
type Invoice struct {
	CreatedAt     string     `json:"createdAt"`
	InvoiceNumber string     `json:"invoiceNumber"`
	InvoiceDate   string     `json:"invoiceDate"`
	DueDate       string     `json:"dueDate"`
	Total         *Money     `json:"total"`
	Customer      *Customer  `json:"customer"`
	Items         []LineItem `json:"items"`
}

// Money holds a decimal amount as the API serializes it.
type Money struct {
	Value string `json:"value"`
}

// Customer is the invoiced customer. Address is the billing address.
type Customer struct {
	Name            string           `json:"name"`
	Address         *Address         `json:"address"`
	ShippingDetails *ShippingDetails `json:"shippingDetails"`
}

// ShippingDetails wraps the shipping address.
type ShippingDetails struct {
	Address *Address `json:"address"`
}

// Address is a postal address. Every field is optional.
type Address struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	PostalCode   string `json:"postalCode"`
}

// LineItem is one product entry of an invoice.
//
// Quantity and Price keep the literal the API sent ("2", "2.0", "12.50") so it
// reaches the output unchanged.
type LineItem struct {
	Product  *Product   `json:"product"`
	Quantity Numeric    `json:"quantity"`
	Price    Numeric    `json:"price"`
	Taxes    []TaxEntry `json:"taxes"`
}

// Numeric is the raw text of a numeric field. It decodes from a JSON number,
// a JSON string (numeric or not) or null, so an odd value is exported as sent
// instead of failing the whole page.
type Numeric string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("numeric field: %w", err)
		}
		*n = Numeric(s)
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("numeric field: unexpected %s", data)
	default:
		*n = Numeric(data)
	}
	return nil
}

// String returns the raw text.
func (n Numeric) String() string { return string(n) }

// Decimal parses the text. It fails for empty or non-numeric values.
func (n Numeric) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(string(n)))
}

// Product identifies the sold product.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaxEntry is one sales tax applied to a line item.
type TaxEntry struct {
	Amount   *Money    `json:"amount"`
	SalesTax *SalesTax `json:"salesTax"`
}

// SalesTax identifies the tax (for US sales taxes the name is the county).
type SalesTax struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// =============================================================================
// NIL-SAFE ACCESSORS
// =============================================================================

// CustomerName returns the customer name, or "" when there is no customer.
func (i *Invoice) CustomerName() string {
	if i == nil || i.Customer == nil {
		return ""
	}
	return i.Customer.Name
}

// TotalValue returns the invoice total, or "" when absent.
func (i *Invoice) TotalValue() string {
	if i == nil || i.Total == nil {
		return ""
	}
	return i.Total.Value
}

// BillingAddress returns the customer's address, or nil.
func (c *Customer) BillingAddress() *Address {
	if c == nil {
		return nil
	}
	return c.Address
}

// ShippingAddress returns the customer's shipping address, or nil.
func (c *Customer) ShippingAddress() *Address {
	if c == nil || c.ShippingDetails == nil {
		return nil
	}
	return c.ShippingDetails.Address
}

// ProductName returns the product name, or "" when the item has no product.
func (li *LineItem) ProductName() string {
	if li == nil || li.Product == nil {
		return ""
	}
	return li.Product.Name
}

// FirstTax returns the first tax entry, or nil when the item carries none.
func (li *LineItem) FirstTax() *TaxEntry {
	if li == nil || len(li.Taxes) == 0 {
		return nil
	}
	return &li.Taxes[0]
}

// AmountValue returns the tax amount and whether one was present.
func (t *TaxEntry) AmountValue() (string, bool) {
	if t == nil || t.Amount == nil {
		return "", false
	}
	return t.Amount.Value, true
}

// TaxName returns the sales tax name and whether one was present.
func (t *TaxEntry) TaxName() (string, bool) {
	if t == nil || t.SalesTax == nil {
		return "", false
	}
	return t.SalesTax.Name, true
}

// =============================================================================
// FLAT ROW TYPES
// =============================================================================

// Field is one column of a FlatRow. Value is a string, a Numeric, or nil
// when the source field was absent.
type Field struct {
	Column string
	Value  any
}

// FlatRow is one denormalized line item. Column order is significant: the
// exporter derives the header from the first row's columns.
type FlatRow []Field

// Columns returns the column names in order.
func (r FlatRow) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Column
	}
	return cols
}

// Get returns the value stored under column and whether the column exists.
func (r FlatRow) Get(column string) (any, bool) {
	for _, f := range r {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

// Text returns the rendered value of column, "" when absent.
func (r FlatRow) Text(column string) string {
	v, _ := r.Get(column)
	return FormatValue(v)
}

// Strings renders every value in column order.
func (r FlatRow) Strings() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = FormatValue(f.Value)
	}
	return out
}

// FormatValue renders a FlatRow value as a cell. Absent values become "".
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case Numeric:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
