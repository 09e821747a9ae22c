package builder

import (
	"fmt"
	"time"

	"github.com/rezonia/einvoice/internal/address"
	dec "github.com/rezonia/einvoice/internal/decimal"
	"github.com/rezonia/einvoice/internal/model"
)

// Date layouts: CII qualifier 102 and ISO 8601 for UBL
const (
	layoutCII = "20060102"
	layoutUBL = "2006-01-02"
)

type partyView struct {
	Name       string
	Street     string
	PostalCode string
	City       string
	Country    string
	TaxID      string
	TaxScheme  string
	Email      string
}

type documentView struct {
	Number           string
	IssueDate        string
	DueDate          string
	Currency         string
	PaymentReference string
	BuyerReference   string

	Seller partyView
	Buyer  partyView

	Net   string
	Tax   string
	Gross string
	Rate  string

	Items string

	// CII
	Guideline string

	// UBL
	Customization string
	Profile       string
}

// checkRecord returns an InputError for the first required value that is
// missing or inconsistent.
func checkRecord(inv model.InvoiceRecord, seller model.Party) error {
	switch {
	case inv.Number == "":
		return model.MissingField("number")
	case inv.IssueDate.IsZero():
		return model.MissingField("issue_date")
	case inv.DueDate.IsZero():
		return model.MissingField("due_date")
	case seller.Name == "":
		return model.MissingField("company.name")
	case inv.Customer.Name == "":
		return model.MissingField("customer.name")
	case len(inv.Items) == 0:
		return model.MissingField("items")
	}
	if id, _ := seller.TaxRegistration(); id == "" {
		return model.MissingField("company.vat_id")
	}
	for i, item := range inv.Items {
		if item.Description == "" {
			return model.MissingField(fmt.Sprintf("items[%d].description", i))
		}
	}
	return inv.Check()
}

func sellerOf(inv model.InvoiceRecord, company model.Party) model.Party {
	if company.Name != "" {
		return company
	}
	return inv.Company
}

func newPartyView(p model.Party) partyView {
	fields := address.Normalize(p.Address)
	id, scheme := p.TaxRegistration()
	return partyView{
		Name:       p.Name,
		Street:     fields.FirstLine,
		PostalCode: fields.PostalCode,
		City:       fields.City,
		Country:    p.Country(),
		TaxID:      id,
		TaxScheme:  scheme,
		Email:      p.Email,
	}
}

func newDocumentView(inv model.InvoiceRecord, seller model.Party, layout string) documentView {
	return documentView{
		Number:           inv.Number,
		IssueDate:        formatDate(inv.IssueDate, layout),
		DueDate:          formatDate(inv.DueDate, layout),
		Currency:         inv.CurrencyCode(),
		PaymentReference: inv.Reference(),
		BuyerReference:   inv.BuyerReference,
		Seller:           newPartyView(seller),
		Buyer:            newPartyView(inv.Customer),
		Net:              dec.Amount(inv.NetAmount),
		Tax:              dec.Amount(inv.TaxAmount),
		Gross:            dec.Amount(inv.GrossTotal),
		Rate:             dec.Percent(inv.TaxRate),
	}
}

func formatDate(t time.Time, layout string) string {
	return t.Format(layout)
}
