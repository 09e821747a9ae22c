package container

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	dec "github.com/rezonia/einvoice/internal/decimal"
	"github.com/rezonia/einvoice/internal/model"
)

// Renderer draws the human-readable invoice that serves as the container
// when the caller supplies none.
type Renderer struct {
	clock func() time.Time
}

// NewRenderer creates a renderer. clock stamps the PDF creation date; nil
// means time.Now.
func NewRenderer(clock func() time.Time) *Renderer {
	if clock == nil {
		clock = time.Now
	}
	return &Renderer{clock: clock}
}

// Render returns a one-document PDF for inv
func (r *Renderer) Render(inv model.InvoiceRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	now := r.clock()
	pdf.SetTitle(tr("Rechnung "+inv.Number), false)
	pdf.SetCreator(Creator, false)
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetCatalogSort(true)

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Rechnung "+inv.Number), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, tr(inv.Company.Name+"\n"+inv.Company.Address), "", "L", false)
	pdf.Ln(4)
	pdf.MultiCell(0, 5, tr(inv.Customer.Name+"\n"+inv.Customer.Address), "", "L", false)
	pdf.Ln(4)

	pdf.CellFormat(0, 5, "Rechnungsdatum: "+inv.IssueDate.Format("02.01.2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, tr("Fällig am: ")+inv.DueDate.Format("02.01.2006"), "", 1, "L", false, 0, "")
	if id, _ := inv.Company.TaxRegistration(); id != "" {
		pdf.CellFormat(0, 5, "USt-IdNr./Steuernummer: "+id, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	widths := []float64{90, 25, 35, 40}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range []string{"Beschreibung", "Menge", "Einzelpreis", "Gesamt"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, h, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	currency := inv.CurrencyCode()
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range inv.Items {
		pdf.CellFormat(widths[0], 6, tr(item.Description), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, dec.Amount(item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, money(item.UnitPrice.StringFixed(2), currency), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, money(item.Total.StringFixed(2), currency), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	total := func(label, amount string) {
		pdf.CellFormat(widths[0]+widths[1]+widths[2], 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, money(amount, currency), "", 1, "R", false, 0, "")
	}
	total("Nettobetrag", dec.Amount(inv.NetAmount))
	total(fmt.Sprintf("USt. %s %%", dec.Percent(inv.TaxRate)), dec.Amount(inv.TaxAmount))
	pdf.SetFont("Helvetica", "B", 10)
	total("Gesamtbetrag", dec.Amount(inv.GrossTotal))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(amount, currency string) string {
	return amount + " " + currency
}
