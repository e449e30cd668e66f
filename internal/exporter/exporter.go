package exporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"salesintel/pkg/contracts/domain"
)

// ErrUnsupported is returned when a report kind has no writer for a format.
var ErrUnsupported = errors.New("format not supported for this report")

// Supported lists the formats each report kind can be written in.
func Supported(report any) []Format {
	switch report.(type) {
	case *domain.OrderBookReport:
		return []Format{FormatJSON, FormatXLSX, FormatCSV}
	case *domain.SalesReport:
		return []Format{FormatJSON, FormatXLSX, FormatCSV}
	case *domain.IntelligenceReport:
		return []Format{FormatJSON, FormatXLSX, FormatCSV, FormatHTML}
	default:
		return nil
	}
}

// Write encodes report in format f.
func Write(w io.Writer, f Format, report any) error {
	if f == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}

	if f == FormatCSV {
		opts, err := CSVFor(report)
		if err != nil {
			return err
		}
		return writeCSV(w, opts)
	}

	switch r := report.(type) {
	case *domain.OrderBookReport:
		if f == FormatXLSX {
			return WriteOrderBookXLSX(w, r)
		}
	case *domain.SalesReport:
		if f == FormatXLSX {
			return WriteSalesXLSX(w, r)
		}
	case *domain.IntelligenceReport:
		switch f {
		case FormatXLSX:
			return WriteIntelligenceXLSX(w, r)
		case FormatHTML:
			return WriteIntelligenceHTML(w, r)
		}
	}
	return fmt.Errorf("%w: %T as %s", ErrUnsupported, report, f)
}
