package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice/internal/model"
)

func sampleInvoice() model.InvoiceRecord {
	return model.InvoiceRecord{
		Number:     "RE-2025-001",
		IssueDate:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC),
		NetAmount:  decimal.RequireFromString("100.00"),
		TaxAmount:  decimal.RequireFromString("19.00"),
		GrossTotal: decimal.RequireFromString("119.00"),
		TaxRate:    decimal.NewFromInt(19),
		Items: []model.LineItem{
			{
				Description: "Consulting",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.RequireFromString("100.00"),
				Total:       decimal.RequireFromString("100.00"),
			},
		},
	}
}

func TestInvoiceRecord_Check(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.InvoiceRecord)
		wantField string
	}{
		{name: "consistent totals", mutate: func(*model.InvoiceRecord) {}},
		{
			name:   "gross within one cent",
			mutate: func(inv *model.InvoiceRecord) { inv.GrossTotal = decimal.RequireFromString("119.01") },
		},
		{
			name:      "gross mismatch",
			mutate:    func(inv *model.InvoiceRecord) { inv.GrossTotal = decimal.RequireFromString("120.00") },
			wantField: "gross_total",
		},
		{
			name:      "line total mismatch",
			mutate:    func(inv *model.InvoiceRecord) { inv.Items[0].Total = decimal.RequireFromString("90.00") },
			wantField: "items[0].total",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := sampleInvoice()
			tt.mutate(&inv)

			err := inv.Check()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var inputErr *model.InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.wantField, inputErr.Field)
		})
	}
}

func TestInvoiceRecord_Corrected(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.InvoiceRecord)
		wantNotes []string
		check     func(t *testing.T, inv model.InvoiceRecord)
	}{
		{name: "consistent invoice unchanged", mutate: func(*model.InvoiceRecord) {}},
		{
			name:   "gross within one cent kept",
			mutate: func(inv *model.InvoiceRecord) { inv.GrossTotal = decimal.RequireFromString("119.01") },
			check: func(t *testing.T, inv model.InvoiceRecord) {
				assert.Equal(t, "119.01", inv.GrossTotal.String())
			},
		},
		{
			name:      "gross recomputed from net and tax",
			mutate:    func(inv *model.InvoiceRecord) { inv.GrossTotal = decimal.RequireFromString("120.00") },
			wantNotes: []string{"gross_total: 120.00 -> 119.00"},
			check: func(t *testing.T, inv model.InvoiceRecord) {
				assert.Equal(t, "119", inv.GrossTotal.String())
			},
		},
		{
			name:      "line total recomputed",
			mutate:    func(inv *model.InvoiceRecord) { inv.Items[0].Total = decimal.RequireFromString("90.00") },
			wantNotes: []string{"items[0].total: 90.00 -> 100.00"},
		},
		{
			name:      "amounts rounded to cents",
			mutate:    func(inv *model.InvoiceRecord) { inv.NetAmount = decimal.RequireFromString("100.004") },
			wantNotes: []string{"net_amount: 100.004 -> 100.00"},
		},
		{
			name: "codes normalized",
			mutate: func(inv *model.InvoiceRecord) {
				inv.Currency = " eur"
				inv.Customer.CountryCode = "at"
			},
			wantNotes: []string{"currency:  eur -> EUR", "customer.country_code: at -> AT"},
			check: func(t *testing.T, inv model.InvoiceRecord) {
				assert.Equal(t, "EUR", inv.Currency)
				assert.Equal(t, "AT", inv.Customer.CountryCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := sampleInvoice()
			tt.mutate(&inv)

			got, notes := inv.Corrected()
			assert.Equal(t, tt.wantNotes, notes)
			require.NoError(t, got.Check())
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestInvoiceRecord_CorrectedLeavesInputAlone(t *testing.T) {
	inv := sampleInvoice()
	inv.Items[0].Total = decimal.RequireFromString("90.00")

	got, _ := inv.Corrected()
	assert.Equal(t, "100", got.Items[0].Total.String())
	assert.Equal(t, "90", inv.Items[0].Total.String())
}

func TestInvoiceRecord_Defaults(t *testing.T) {
	inv := sampleInvoice()
	assert.Equal(t, "EUR", inv.CurrencyCode())
	assert.Equal(t, "RE-2025-001", inv.Reference())

	inv.Currency = "chf"
	inv.PaymentReference = "PAY-1"
	assert.Equal(t, "CHF", inv.CurrencyCode())
	assert.Equal(t, "PAY-1", inv.Reference())

	assert.Equal(t, "DE", model.Party{}.Country())
	assert.Equal(t, "AT", model.Party{CountryCode: "at"}.Country())
	assert.Equal(t, "HUR", model.LineItem{}.Unit())
	assert.Equal(t, "C62", model.LineItem{UnitCode: "C62"}.Unit())
}

func TestParty_TaxRegistration(t *testing.T) {
	id, scheme := model.Party{VATID: "DE123456789", TaxID: "12/345/67890"}.TaxRegistration()
	assert.Equal(t, "DE123456789", id)
	assert.Equal(t, "VA", scheme)

	id, scheme = model.Party{TaxID: "12/345/67890"}.TaxRegistration()
	assert.Equal(t, "12/345/67890", id)
	assert.Equal(t, "FC", scheme)

	id, scheme = model.Party{}.TaxRegistration()
	assert.Empty(t, id)
	assert.Empty(t, scheme)
}

func TestParseFormatTag(t *testing.T) {
	tests := []struct {
		input    string
		expected model.FormatTag
		wantErr  bool
	}{
		{"cii", model.FormatCII, false},
		{"ZUGFeRD", model.FormatCII, false},
		{"factur-x", model.FormatCII, false},
		{"ubl", model.FormatUBL, false},
		{"xrechnung", model.FormatUBL, false},
		{"edifact", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tag, err := model.ParseFormatTag(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tag)
			assert.True(t, tag.Valid())
		})
	}
}

func TestParseStandard(t *testing.T) {
	s, err := model.ParseStandard("comfort")
	require.NoError(t, err)
	assert.Equal(t, model.StandardComfort, s)

	_, err = model.ParseStandard("MINIMUM")
	require.Error(t, err)
}

func TestDetectStandard(t *testing.T) {
	cii := func(guideline, buyer string) string {
		return `<rsm:CrossIndustryInvoice xmlns:rsm="urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100" xmlns:ram="urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100">` +
			`<rsm:ExchangedDocumentContext><ram:GuidelineSpecifiedDocumentContextParameter><ram:ID>` + guideline + `</ram:ID></ram:GuidelineSpecifiedDocumentContextParameter></rsm:ExchangedDocumentContext>` +
			`<rsm:SupplyChainTradeTransaction><ram:ApplicableHeaderTradeAgreement><ram:BuyerTradeParty><ram:Name>` + buyer + `</ram:Name></ram:BuyerTradeParty></ram:ApplicableHeaderTradeAgreement></rsm:SupplyChainTradeTransaction>` +
			`</rsm:CrossIndustryInvoice>`
	}
	ubl := func(customization, party string) string {
		return `<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2" xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2" xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2">` +
			`<cbc:CustomizationID>` + customization + `</cbc:CustomizationID>` +
			`<cac:AccountingCustomerParty><cac:Party><cac:PartyName><cbc:Name>` + party + `</cbc:Name></cac:PartyName></cac:Party></cac:AccountingCustomerParty>` +
			`</Invoice>`
	}

	tests := []struct {
		name string
		doc  string
		want model.Standard
	}{
		{"cii basic", cii(model.GuidelineBasic, "Muster GmbH"), model.StandardBasic},
		{"cii extended", cii(model.GuidelineExtended, "Muster GmbH"), model.StandardExtended},
		{"cii en16931", cii(model.GuidelineComfort, "Muster GmbH"), model.StandardEN16931},
		{"cii party name ignored", cii(model.GuidelineComfort, "BASIC Solutions GmbH"), model.StandardEN16931},
		{"cii description ignored", cii(model.GuidelineComfort, "EXTENDED warranty"), model.StandardEN16931},
		{"ubl xrechnung", ubl(model.DefaultUBLCustomization, "BASIC Solutions GmbH"), model.StandardEN16931},
		{"ubl extended", ubl(model.GuidelineExtended, "Muster GmbH"), model.StandardExtended},
		{"no guideline", "<Invoice/>", model.StandardEN16931},
		{"not xml", "BASIC EXTENDED", model.StandardEN16931},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.DetectStandard(tt.doc))
		})
	}
}

func TestStandardFromID(t *testing.T) {
	assert.Equal(t, model.StandardBasic, model.StandardFromID(model.GuidelineBasic))
	assert.Equal(t, model.StandardExtended, model.StandardFromID(model.GuidelineExtended))
	assert.Equal(t, model.StandardComfort, model.StandardFromID("urn:ferd:CrossIndustryDocument:invoice:1p0:comfort"))
	assert.Equal(t, model.StandardEN16931, model.StandardFromID(model.GuidelineComfort))
}

func TestArtifact_Check(t *testing.T) {
	a := model.ComplianceArtifact{
		InvoiceID:          "inv-1",
		OwnerID:            "owner-1",
		Document:           "<doc/>",
		ValidationOutcome:  model.OutcomeValid,
		TransmissionStatus: model.StatusSent,
	}
	require.NoError(t, a.Check())

	a.ValidationOutcome = model.OutcomeInvalid
	require.Error(t, a.Check())

	a.TransmissionStatus = model.StatusDraft
	require.NoError(t, a.Check())

	a.Document = ""
	require.Error(t, a.Check())
}

func TestCollaboratorError_Unwrap(t *testing.T) {
	cause := errors.New("device offline")
	err := model.NewCollaboratorError(model.CollaboratorSignature, "request", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "signature request failed")
}
