// Package variant describes the two export flavours.
//
// A variant fixes everything that differs between a plain sales export and a
// sales-tax export: the GraphQL document, the CSV columns, whether rows are
// sorted by invoice date, whether the one-tax-per-item rule is enforced, and
// the default output file name.
package variant

import (
	"fmt"
	"strings"
)

// Variant selects the query document and column set.
type Variant string

const (
	// Basic exports product, quantity, price and invoice identity only.
	Basic Variant = "basic"
	// Tax adds customer addresses and the single sales tax per line item.
	Tax Variant = "tax"
)

// Column names as they appear in the CSV header.
const (
	ColProduct          = "Product"
	ColInvoiceDate      = "Invoice date"
	ColQuantity         = "Bottles sold"
	ColPrice            = "Price"
	ColCustomer         = "Customer"
	ColInvoiceNumber    = "Invoice #"
	ColInvoiceCreated   = "Invoice created"
	ColSalesTaxAmount   = "Sales tax amount"
	ColSalesTaxCounty   = "Sales tax county"
	ColCustomerZip      = "Customer zip"
	ColShippingZip      = "Shipping zip"
	ColCustomerAddress1 = "Customer address line 1"
	ColCustomerAddress2 = "Customer address line 2"
	ColCustomerCity     = "Customer city"
)

var basicColumns = []string{
	ColProduct,
	ColQuantity,
	ColPrice,
	ColCustomer,
	ColInvoiceNumber,
	ColInvoiceDate,
	ColInvoiceCreated,
}

var taxColumns = []string{
	ColProduct,
	ColInvoiceDate,
	ColQuantity,
	ColPrice,
	ColCustomer,
	ColInvoiceNumber,
	ColInvoiceCreated,
	ColSalesTaxAmount,
	ColSalesTaxCounty,
	ColCustomerZip,
	ColShippingZip,
	ColCustomerAddress1,
	ColCustomerAddress2,
	ColCustomerCity,
}

// Parse converts a flag or config value into a Variant.
func Parse(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic", "sales":
		return Basic, nil
	case "tax", "tax-detail", "tax_detail":
		return Tax, nil
	default:
		return "", fmt.Errorf("unknown variant %q (expected basic or tax)", s)
	}
}

// Valid reports whether v is one of the known variants.
func (v Variant) Valid() bool {
	return v == Basic || v == Tax
}

// Query returns the GraphQL document for the variant.
func (v Variant) Query() string {
	if v == Tax {
		return taxQuery
	}
	return basicQuery
}

// Columns returns a copy of the ordered column set.
func (v Variant) Columns() []string {
	src := basicColumns
	if v == Tax {
		src = taxColumns
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// SortsByInvoiceDate reports whether the exporter sorts rows by invoice date.
func (v Variant) SortsByInvoiceDate() bool {
	return v == Tax
}

// EnforcesSingleTax reports whether line items with several taxes are rejected.
func (v Variant) EnforcesSingleTax() bool {
	return v == Tax
}

// DefaultFileName is the output name template used when none is configured.
// Placeholders are expanded by utils.GenerateOutputFileName.
func (v Variant) DefaultFileName() string {
	if v == Tax {
		return "tax-sales-{date}.csv"
	}
	return "sales.csv"
}

func (v Variant) String() string {
	return string(v)
}
