package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPriceFullArchive(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     bool
	}{
		{
			name:     "standard full price archive",
			filename: "PriceFull7290027600007-001-202608290300.gz",
			want:     true,
		},
		{
			name:     "lowercase prefix",
			filename: "pricefull7290027600007-012-202608290300.gz",
			want:     true,
		},
		{
			name:     "promo full archive rejected",
			filename: "PromoFull7290027600007-001-202608290300.gz",
			want:     false,
		},
		{
			name:     "price full promo rejected",
			filename: "PriceFullPromo7290027600007-001-202608290300.gz",
			want:     false,
		},
		{
			name:     "partial price archive rejected",
			filename: "Price7290027600007-001-202608290300.gz",
			want:     false,
		},
		{
			name:     "wrong extension rejected",
			filename: "PriceFull7290027600007-001-202608290300.zip",
			want:     false,
		},
		{
			name:     "empty filename rejected",
			filename: "",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPriceFullArchive(tt.filename))
		})
	}
}

func TestExtractStoreID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *string
	}{
		{
			name:  "standard filename",
			input: "PriceFull7290027600007-001-202608290300.gz",
			want:  ptr("001"),
		},
		{
			name:  "unpadded store id gets padded",
			input: "PriceFull7290027600007-1-202608290300.gz",
			want:  ptr("001"),
		},
		{
			name:  "long form with sub chain segment",
			input: "PriceFull7290027600007-123-097-20260829-030000.gz",
			want:  ptr("097"),
		},
		{
			name:  "full url input",
			input: "https://prices.example.com/files/PriceFull7290027600007-042-202608290300.gz?token=abc",
			want:  ptr("042"),
		},
		{
			name:  "no store id present",
			input: "catalog.gz",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractStoreID(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestFilenameFromURL(t *testing.T) {
	assert.Equal(t,
		"PriceFull7290027600007-001-202608290300.gz",
		FilenameFromURL("https://prices.example.com/download/PriceFull7290027600007-001-202608290300.gz?sig=xyz"),
	)

	// Unparseable input still yields a usable scratch name.
	fallback := FilenameFromURL("://not-a-url")
	assert.NotEmpty(t, fallback)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t,
		"PriceFull_001_.._evil.gz",
		SanitizeFilename("PriceFull 001/../evil.gz"),
	)
	assert.Equal(t, "plain-name.gz", SanitizeFilename("plain-name.gz"))
}

func ptr(s string) *string {
	return &s
}
