package address_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezonia/einvoice/internal/address"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected address.Fields
	}{
		{
			name:  "street and city lines",
			input: "Hauptstraße 12\n10115 Berlin",
			expected: address.Fields{
				PostalCode: "10115",
				City:       "Berlin",
				FirstLine:  "Hauptstraße 12",
			},
		},
		{
			name:  "single line",
			input: "Marktplatz 1, 80331 München",
			expected: address.Fields{
				PostalCode: "80331",
				City:       "München",
				FirstLine:  "Marktplatz 1, 80331 München",
			},
		},
		{
			name:  "windows line endings",
			input: "Am Hafen 3\r\n20457 Hamburg\r\n",
			expected: address.Fields{
				PostalCode: "20457",
				City:       "Hamburg",
				FirstLine:  "Am Hafen 3",
			},
		},
		{
			name:  "postal code without city",
			input: "Postfach\n50667",
			expected: address.Fields{
				PostalCode: "50667",
				FirstLine:  "Postfach",
			},
		},
		{
			name:  "first postal code wins",
			input: "Lager 11111\n22222 Bremen",
			expected: address.Fields{
				PostalCode: "11111",
				City:       "Bremen",
				FirstLine:  "Lager 11111",
			},
		},
		{
			name:     "no structure",
			input:    "somewhere",
			expected: address.Fields{FirstLine: "somewhere"},
		},
		{
			name:     "empty",
			input:    "",
			expected: address.Fields{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, address.Normalize(tt.input))
		})
	}
}

func TestFieldHelpers(t *testing.T) {
	addr := "Königsallee 5\n40212 Düsseldorf"

	assert.Equal(t, "40212", address.PostalCode(addr))
	assert.Equal(t, "Düsseldorf", address.City(addr))
	assert.Equal(t, "Königsallee 5", address.FirstLine(addr))
}
