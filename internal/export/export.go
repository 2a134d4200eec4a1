// Package export writes quote series to common tabular formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Alliabson/cotacaoprodutos/internal/quote"
)

// Format selects an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv or json)", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// Write encodes quotes in the given format.
func Write(w io.Writer, f Format, quotes []quote.Quote) error {
	if f == FormatJSON {
		return WriteJSON(w, quotes)
	}
	return WriteCSV(w, quotes)
}

// WriteCSV writes quotes as CSV with a fixed header:
// product_id,date,price,unit
func WriteCSV(w io.Writer, quotes []quote.Quote) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"product_id", "date", "price", "unit"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, q := range quotes {
		rec := []string{q.ProductID, q.Date.String(), q.Price.String(), q.Unit}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes quotes as an indented JSON array of records.
func WriteJSON(w io.Writer, quotes []quote.Quote) error {
	if quotes == nil {
		quotes = []quote.Quote{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(quotes)
}

// ToFile writes quotes to a file at path in the given format.
func ToFile(path string, f Format, quotes []quote.Quote) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	if err := Write(file, f, quotes); err != nil {
		return err
	}
	return file.Close()
}
