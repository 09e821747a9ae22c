package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice/internal/model"
)

func TestCIIMetadata_Guideline(t *testing.T) {
	tests := []struct {
		meta     model.CIIMetadata
		expected string
	}{
		{model.CIIMetadata{ConformanceLevel: model.ConformanceBasic}, model.GuidelineBasic},
		{model.CIIMetadata{ConformanceLevel: model.ConformanceComfort}, model.GuidelineComfort},
		{model.CIIMetadata{ConformanceLevel: model.ConformanceExtended}, model.GuidelineExtended},
		{model.CIIMetadata{ConformanceLevel: model.ConformanceBasic, GuidelineID: "urn:custom"}, "urn:custom"},
	}

	for _, tt := range tests {
		t.Run(string(tt.meta.ConformanceLevel), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.meta.Guideline())
		})
	}
}

func TestUBLMetadata_Defaults(t *testing.T) {
	m := model.UBLMetadata{RoutingID: "991-12345-67"}
	assert.Equal(t, model.DefaultUBLCustomization, m.Customization())
	assert.Equal(t, model.DefaultUBLProfile, m.Profile())
	assert.Equal(t, "991-12345-67", m.Reference())

	m.BuyerReference = "PO-7"
	assert.Equal(t, "PO-7", m.Reference())
}

func TestDefaultMetadata(t *testing.T) {
	cfg := model.DefaultConfiguration("owner-1")
	cfg.DefaultStandard = model.StandardExtended
	cfg.Routing.RoutingID = "991-12345-67"

	meta, err := model.DefaultMetadata(model.FormatCII, cfg)
	require.NoError(t, err)
	cii, ok := meta.(model.CIIMetadata)
	require.True(t, ok)
	assert.Equal(t, model.ConformanceExtended, cii.ConformanceLevel)

	meta, err = model.DefaultMetadata(model.FormatUBL, cfg)
	require.NoError(t, err)
	ubl, ok := meta.(model.UBLMetadata)
	require.True(t, ok)
	assert.Equal(t, "991-12345-67", ubl.RoutingID)
	assert.Equal(t, model.FormatUBL, ubl.Format())

	_, err = model.DefaultMetadata("edi", cfg)
	require.Error(t, err)
}
