package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesintel/internal/exporter"
	"salesintel/pkg/contracts/domain"
)

func TestParseFX(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[domain.Currency]float64
		wantErr bool
	}{
		{name: "empty", input: "", want: map[domain.Currency]float64{}},
		{name: "comma pairs", input: "EUR=11.2,usd=10.4", want: map[domain.Currency]float64{domain.EUR: 11.2, domain.USD: 10.4}},
		{name: "semicolon pairs with decimal comma", input: "EUR=11,5;GBP=13", want: map[domain.Currency]float64{domain.EUR: 11.5, domain.GBP: 13}},
		{name: "decimal comma one digit", input: "EUR=11,2", want: map[domain.Currency]float64{domain.EUR: 11.2}},
		{name: "decimal comma two digits", input: "EUR=11,20", want: map[domain.Currency]float64{domain.EUR: 11.2}},
		{name: "decimal dot", input: "EUR=11.2", want: map[domain.Currency]float64{domain.EUR: 11.2}},
		{name: "semicolon pairs one digit decimals", input: "EUR=11,2;USD=10,5", want: map[domain.Currency]float64{domain.EUR: 11.2, domain.USD: 10.5}},
		{name: "comma pairs with decimal commas", input: "EUR=11,2,USD=10,45", want: map[domain.Currency]float64{domain.EUR: 11.2, domain.USD: 10.45}},
		{name: "mixed decimal marks", input: "EUR=1.234,5", wantErr: true},
		{name: "trailing junk", input: "EUR=11.2,abc", wantErr: true},
		{name: "base currency", input: "SEK=1", wantErr: true},
		{name: "unknown currency", input: "NOK=1", wantErr: true},
		{name: "missing equals", input: "EUR", wantErr: true},
		{name: "not a number", input: "EUR=abc", wantErr: true},
		{name: "zero", input: "EUR=0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFX(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormats(t *testing.T) {
	got, err := parseFormats("xlsx, CSV,,json")
	require.NoError(t, err)
	assert.Equal(t, []exporter.Format{exporter.FormatXLSX, exporter.FormatCSV, exporter.FormatJSON}, got)

	_, err = parseFormats("pdf")
	assert.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	f, err := parseFlags([]string{"-mode", "sales", "-in", "a.xlsx", "-workers", "3", "b.xlsx"}, "out")
	require.NoError(t, err)
	assert.Equal(t, "sales", f.mode)
	assert.Equal(t, []string{"a.xlsx", "b.xlsx"}, f.inputs)
	assert.Equal(t, 3, f.workers)
	assert.Equal(t, "out", f.out)
	assert.Equal(t, "xlsx", f.formats)

	_, err = parseFlags([]string{"-mode", "sales"}, "out")
	assert.Error(t, err)
}
