// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/einvoice/internal/model"
)

// Company returns a seller party with a German VAT id
func Company() model.Party {
	return model.Party{
		Name:    "Muster Software GmbH",
		Address: "Hauptstraße 12\n10115 Berlin",
		VATID:   "DE123456789",
		TaxID:   "30/123/45678",
		Email:   "rechnung@muster-software.de",
		Phone:   "+49 30 1234567",
	}
}

// Invoice returns a consistent invoice: net 100.00, 19% tax, gross 119.00,
// one line of 1 x 100.00.
func Invoice() model.InvoiceRecord {
	return model.InvoiceRecord{
		Number:     "RE-2025-0042",
		IssueDate:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC),
		NetAmount:  decimal.RequireFromString("100.00"),
		TaxAmount:  decimal.RequireFromString("19.00"),
		GrossTotal: decimal.RequireFromString("119.00"),
		TaxRate:    decimal.NewFromInt(19),
		Company:    Company(),
		Customer: model.Party{
			Name:    "Beispiel AG",
			Address: "Königsallee 5\n40212 Düsseldorf",
			Email:   "einkauf@beispiel.de",
		},
		Items: []model.LineItem{
			{
				Description: "Beratung",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.RequireFromString("100.00"),
				Total:       decimal.RequireFromString("100.00"),
			},
		},
	}
}

// MultiLineInvoice returns an invoice with three lines in a fixed order
func MultiLineInvoice() model.InvoiceRecord {
	inv := Invoice()
	inv.Number = "RE-2025-0043"
	inv.NetAmount = decimal.RequireFromString("350.00")
	inv.TaxAmount = decimal.RequireFromString("66.50")
	inv.GrossTotal = decimal.RequireFromString("416.50")
	inv.Items = []model.LineItem{
		{Description: "Zeta", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("50.00"), Total: decimal.RequireFromString("100.00")},
		{Description: "Alpha", Quantity: decimal.RequireFromString("1.5"), UnitPrice: decimal.RequireFromString("100.00"), Total: decimal.RequireFromString("150.00")},
		{Description: "Mid", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.RequireFromString("25.00"), Total: decimal.RequireFromString("100.00"), UnitCode: "C62"},
	}
	return inv
}

// CIIMetadata returns COMFORT-level metadata
func CIIMetadata() model.CIIMetadata {
	return model.CIIMetadata{ConformanceLevel: model.ConformanceComfort}
}

// UBLMetadata returns XRechnung metadata with a routing id
func UBLMetadata() model.UBLMetadata {
	return model.UBLMetadata{
		BuyerReference: "04011000-12345-34",
		RoutingID:      "04011000-12345-34",
	}
}

// Signature returns a fixed signature record
func Signature() model.SignatureRecord {
	start := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return model.SignatureRecord{
		SerialNumber:      "TSE-0001",
		Algorithm:         "ecdsa-plain-SHA256",
		TransactionNumber: "4711",
		StartTime:         start,
		FinishTime:        start.Add(2 * time.Second),
		Signature:         "MEUCIQDw2b3Jm0xq",
		PublicKey:         "BHhWOeisRpPBTGQ1W4VUH95TXx2GARf8",
		CertificateSerial: "CERT-42",
	}
}
