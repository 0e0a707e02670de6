// =============================================================================
// Wave Sales Export - Validation Engine
// =============================================================================
//
// This module checks fetched invoices before and during denormalization.
//
// VALIDATION LEVELS:
//   1. Line item (fatal): in the tax variant a line item may carry at most one
//      sales tax. The denormalizer calls ValidateLineItem for every item before
//      building its row and stops at the first violation.
//   2. Document (warnings): Inspect walks all invoices and reports data that
//      will export but probably deserves a look (invoices without items, rows
//      with no invoice date to sort on, non-numeric quantities).
//
// Warnings never stop the run; they are logged by the pipeline.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/wave-sales-export/internal/types"
	"github.com/ginjaninja78/wave-sales-export/internal/variant"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// MultipleTaxesError reports a line item with more than one tax entry.
type MultipleTaxesError struct {
	// InvoiceNumber identifies the offending invoice.
	InvoiceNumber string

	// ItemIndex is the zero-based position of the item within the invoice.
	ItemIndex int

	// TaxCount is the number of tax entries found on the item.
	TaxCount int
}

func (e *MultipleTaxesError) Error() string {
	return fmt.Sprintf("more than one tax on invoice # %s (item %d has %d taxes)",
		e.InvoiceNumber, e.ItemIndex+1, e.TaxCount)
}

// Severity levels for Issue.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is a single non-fatal finding from Inspect.
type Issue struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// InvoiceNumber is the invoice the issue belongs to.
	InvoiceNumber string

	// ItemIndex is the zero-based item position, or -1 for invoice-level issues.
	ItemIndex int

	// Rule names the check that produced the issue.
	Rule string

	// Message is a human-readable description.
	Message string
}

func (i Issue) String() string {
	if i.ItemIndex >= 0 {
		return fmt.Sprintf("[%s] invoice %s, item %d: %s", strings.ToUpper(i.Severity), i.InvoiceNumber, i.ItemIndex+1, i.Message)
	}
	return fmt.Sprintf("[%s] invoice %s: %s", strings.ToUpper(i.Severity), i.InvoiceNumber, i.Message)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator applies the rules of one variant.
type Validator struct {
	variant variant.Variant
}

// NewValidator creates a Validator for the given variant.
func NewValidator(v variant.Variant) *Validator {
	return &Validator{variant: v}
}

// ValidateLineItem checks the fatal line-item rules. It returns a
// *MultipleTaxesError when the variant enforces a single tax and the item has
// more than one.
func (v *Validator) ValidateLineItem(invoice *types.Invoice, index int, item *types.LineItem) error {
	if !v.variant.EnforcesSingleTax() {
		return nil
	}
	if n := len(item.Taxes); n > 1 {
		return &MultipleTaxesError{
			InvoiceNumber: invoice.InvoiceNumber,
			ItemIndex:     index,
			TaxCount:      n,
		}
	}
	return nil
}

// Inspect reports non-fatal data problems across all invoices.
func (v *Validator) Inspect(invoices []types.Invoice) []Issue {
	var issues []Issue

	for i := range invoices {
		inv := &invoices[i]

		if len(inv.Items) == 0 {
			issues = append(issues, Issue{
				Severity:      SeverityWarning,
				InvoiceNumber: inv.InvoiceNumber,
				ItemIndex:     -1,
				Rule:          "no_items",
				Message:       "invoice has no line items and produces no rows",
			})
		}

		if v.variant.SortsByInvoiceDate() && inv.InvoiceDate == "" {
			issues = append(issues, Issue{
				Severity:      SeverityWarning,
				InvoiceNumber: inv.InvoiceNumber,
				ItemIndex:     -1,
				Rule:          "no_invoice_date",
				Message:       "invoice date is empty; rows sort first",
			})
		}

		for j := range inv.Items {
			item := &inv.Items[j]
			if item.Product == nil {
				issues = append(issues, Issue{
					Severity:      SeverityWarning,
					InvoiceNumber: inv.InvoiceNumber,
					ItemIndex:     j,
					Rule:          "no_product",
					Message:       "line item has no product",
				})
			}
			if msg := validateDecimal(item.Quantity.String()); msg != "" {
				issues = append(issues, Issue{
					Severity:      SeverityWarning,
					InvoiceNumber: inv.InvoiceNumber,
					ItemIndex:     j,
					Rule:          "quantity",
					Message:       "quantity " + msg,
				})
			}
			if msg := validateDecimal(item.Price.String()); msg != "" {
				issues = append(issues, Issue{
					Severity:      SeverityWarning,
					InvoiceNumber: inv.InvoiceNumber,
					ItemIndex:     j,
					Rule:          "price",
					Message:       "price " + msg,
				})
			}
		}
	}

	return issues
}

// validateDecimal returns "" when value is empty or a valid decimal.
func validateDecimal(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if _, err := decimal.NewFromString(value); err != nil {
		return fmt.Sprintf("'%s' is not a valid decimal number", value)
	}
	return ""
}
