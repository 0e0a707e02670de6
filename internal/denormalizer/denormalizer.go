// =============================================================================
// Wave Sales Export - Denormalizer
// =============================================================================
//
// The denormalizer expands every invoice into one flat row per line item,
// repeating the invoice and customer fields on each row.
//
// ORDER:
//   Rows come out in invoice order, then item order within the invoice. No
//   sorting happens here.
//
// TAX VARIANT:
//   Each item is validated before its row is built. An item with more than one
//   tax aborts the whole call: no rows are returned, only the error. Items
//   with no tax get absent tax amount/name cells.
//
// =============================================================================

package denormalizer

import (
	"github.com/ginjaninja78/wave-sales-export/internal/types"
	"github.com/ginjaninja78/wave-sales-export/internal/validation"
	"github.com/ginjaninja78/wave-sales-export/internal/variant"
)

// Denormalizer flattens invoices for one variant.
type Denormalizer struct {
	variant   variant.Variant
	columns   []string
	validator *validation.Validator
}

// New creates a Denormalizer for the given variant.
func New(v variant.Variant) *Denormalizer {
	return &Denormalizer{
		variant:   v,
		columns:   v.Columns(),
		validator: validation.NewValidator(v),
	}
}

// Columns returns the column order every produced row follows.
func (d *Denormalizer) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Denormalize returns one FlatRow per line item across all invoices.
func (d *Denormalizer) Denormalize(invoices []types.Invoice) ([]types.FlatRow, error) {
	total := 0
	for i := range invoices {
		total += len(invoices[i].Items)
	}
	rows := make([]types.FlatRow, 0, total)

	for i := range invoices {
		inv := &invoices[i]
		for j := range inv.Items {
			item := &inv.Items[j]
			if err := d.validator.ValidateLineItem(inv, j, item); err != nil {
				return nil, err
			}
			rows = append(rows, d.buildRow(inv, item))
		}
	}

	return rows, nil
}

// buildRow lays out the row in the variant's column order.
func (d *Denormalizer) buildRow(inv *types.Invoice, item *types.LineItem) types.FlatRow {
	values := map[string]any{
		variant.ColProduct:        productName(item),
		variant.ColInvoiceDate:    inv.InvoiceDate,
		variant.ColQuantity:       number(item.Quantity),
		variant.ColPrice:          number(item.Price),
		variant.ColCustomer:       customerName(inv),
		variant.ColInvoiceNumber:  inv.InvoiceNumber,
		variant.ColInvoiceCreated: inv.CreatedAt,
	}

	if d.variant == variant.Tax {
		tax := item.FirstTax()
		billing := inv.Customer.BillingAddress()
		shipping := inv.Customer.ShippingAddress()

		values[variant.ColSalesTaxAmount] = optional(tax.AmountValue())
		values[variant.ColSalesTaxCounty] = optional(tax.TaxName())
		values[variant.ColCustomerZip] = addressField(billing, func(a *types.Address) string { return a.PostalCode })
		values[variant.ColShippingZip] = addressField(shipping, func(a *types.Address) string { return a.PostalCode })
		values[variant.ColCustomerAddress1] = addressField(billing, func(a *types.Address) string { return a.AddressLine1 })
		values[variant.ColCustomerAddress2] = addressField(billing, func(a *types.Address) string { return a.AddressLine2 })
		values[variant.ColCustomerCity] = addressField(billing, func(a *types.Address) string { return a.City })
	}

	row := make(types.FlatRow, len(d.columns))
	for i, col := range d.columns {
		row[i] = types.Field{Column: col, Value: values[col]}
	}
	return row
}

// =============================================================================
// LOOKUP HELPERS
// =============================================================================
// Each helper returns nil when an intermediate object is missing, so a
// customer without an address or an item without a product exports empty
// cells instead of failing.

func productName(item *types.LineItem) any {
	if item.Product == nil {
		return nil
	}
	return item.Product.Name
}

func customerName(inv *types.Invoice) any {
	if inv.Customer == nil {
		return nil
	}
	return inv.Customer.Name
}

func addressField(addr *types.Address, get func(*types.Address) string) any {
	if addr == nil {
		return nil
	}
	return get(addr)
}

func optional(value string, ok bool) any {
	if !ok {
		return nil
	}
	return value
}

func number(n types.Numeric) any {
	if n == "" {
		return nil
	}
	return n
}
