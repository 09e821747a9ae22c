package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dec "github.com/rezonia/einvoice/internal/decimal"
)

// Defaults applied when the upstream record leaves a field empty
const (
	DefaultCurrency    = "EUR"
	DefaultCountryCode = "DE"
	DefaultUnitCode    = "HUR"
)

// InvoiceRecord is the read-only business invoice handed in by the
// application layer.
type InvoiceRecord struct {
	Number    string    `json:"number"`
	IssueDate time.Time `json:"issue_date"`
	DueDate   time.Time `json:"due_date"`
	Currency  string    `json:"currency,omitempty"`

	// PaymentReference defaults to Number
	PaymentReference string `json:"payment_reference,omitempty"`
	BuyerReference   string `json:"buyer_reference,omitempty"`

	NetAmount  decimal.Decimal `json:"net_amount"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	GrossTotal decimal.Decimal `json:"gross_total"`
	TaxRate    decimal.Decimal `json:"tax_rate"` // percent, e.g. 19

	Company  Party      `json:"company"`
	Customer Party      `json:"customer"`
	Items    []LineItem `json:"items"`
}

// Party is a seller or buyer
type Party struct {
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"` // free text, one line per address row
	CountryCode string `json:"country_code,omitempty"`
	TaxID       string `json:"tax_id,omitempty"`
	VATID       string `json:"vat_id,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// LineItem is one printed invoice line
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	UnitCode    string          `json:"unit_code,omitempty"`
}

// CurrencyCode returns the currency, falling back to EUR
func (inv *InvoiceRecord) CurrencyCode() string {
	if c := strings.TrimSpace(inv.Currency); c != "" {
		return strings.ToUpper(c)
	}
	return DefaultCurrency
}

// Reference returns the payment reference, falling back to the invoice number
func (inv *InvoiceRecord) Reference() string {
	if inv.PaymentReference != "" {
		return inv.PaymentReference
	}
	return inv.Number
}

// Check verifies the monetary invariants: gross == net + tax and every line
// total == quantity * unit price, each within one cent.
func (inv *InvoiceRecord) Check() error {
	expected := inv.NetAmount.Add(inv.TaxAmount)
	if !dec.WithinTolerance(expected, inv.GrossTotal) {
		return NewInputError("gross_total", fmt.Sprintf(
			"gross total %s does not equal net %s + tax %s",
			dec.Amount(inv.GrossTotal), dec.Amount(inv.NetAmount), dec.Amount(inv.TaxAmount)))
	}

	for i, item := range inv.Items {
		if !dec.WithinTolerance(dec.Mul(item.Quantity, item.UnitPrice), item.Total) {
			return NewInputError(fmt.Sprintf("items[%d].total", i), fmt.Sprintf(
				"line total %s does not equal %s x %s",
				dec.Amount(item.Total), item.Quantity.String(), dec.Amount(item.UnitPrice)))
		}
	}
	return nil
}

// Corrected returns a copy of inv with rounding drift repaired and codes
// normalized, plus one note per change. Amounts are rounded to cents, line
// totals recomputed from quantity and unit price, and the gross total
// recomputed from net and tax when they disagree by more than a cent.
func (inv InvoiceRecord) Corrected() (InvoiceRecord, []string) {
	var notes []string
	note := func(field, from, to string) {
		notes = append(notes, fmt.Sprintf("%s: %s -> %s", field, from, to))
	}
	round := func(field string, d *decimal.Decimal) {
		if r := d.Round(2); !r.Equal(*d) {
			note(field, d.String(), dec.Amount(r))
			*d = r
		}
	}
	code := func(field string, s *string) {
		if *s == "" {
			return
		}
		if c := strings.ToUpper(strings.TrimSpace(*s)); c != *s {
			note(field, *s, c)
			*s = c
		}
	}

	code("currency", &inv.Currency)
	code("company.country_code", &inv.Company.CountryCode)
	code("customer.country_code", &inv.Customer.CountryCode)

	inv.Items = append([]LineItem(nil), inv.Items...)
	for i := range inv.Items {
		item := &inv.Items[i]
		field := fmt.Sprintf("items[%d].total", i)
		round(field, &item.Total)
		if want := dec.Mul(item.Quantity, item.UnitPrice); !dec.WithinTolerance(want, item.Total) {
			note(field, dec.Amount(item.Total), dec.Amount(want))
			item.Total = want
		}
	}

	round("net_amount", &inv.NetAmount)
	round("tax_amount", &inv.TaxAmount)
	round("gross_total", &inv.GrossTotal)
	if want := inv.NetAmount.Add(inv.TaxAmount); !dec.WithinTolerance(want, inv.GrossTotal) {
		note("gross_total", dec.Amount(inv.GrossTotal), dec.Amount(want))
		inv.GrossTotal = want
	}

	return inv, notes
}

// Country returns the ISO country code, falling back to DE
func (p Party) Country() string {
	if c := strings.TrimSpace(p.CountryCode); c != "" {
		return strings.ToUpper(c)
	}
	return DefaultCountryCode
}

// TaxRegistration returns the VAT id if present, otherwise the local tax
// number, with the matching scheme id ("VA" or "FC").
func (p Party) TaxRegistration() (id, scheme string) {
	if p.VATID != "" {
		return p.VATID, "VA"
	}
	if p.TaxID != "" {
		return p.TaxID, "FC"
	}
	return "", ""
}

// Unit returns the UN/ECE unit code, falling back to HUR (hours)
func (li LineItem) Unit() string {
	if li.UnitCode != "" {
		return li.UnitCode
	}
	return DefaultUnitCode
}
