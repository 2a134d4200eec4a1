package quote

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Category classifies a product in the reference list.
type Category string

const (
	CategoryLivestock Category = "livestock"
	CategoryGrain     Category = "grain"
	CategoryOther     Category = "other"
)

// Product is an entry in the static product reference list.
// The list is loaded once at startup and read-only afterwards.
type Product struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Category    Category `json:"category"`
	Unit        string   `json:"unit"`
}

// Quote is a single price observation for a product on a date.
// Immutable once stored; uniquely identified by (ProductID, Date).
type Quote struct {
	ProductID string          `json:"product_id"`
	Date      Date            `json:"date"`
	Price     decimal.Decimal `json:"price"`
	Unit      string          `json:"unit,omitempty"`
}

// Normalize returns a copy of quotes sorted ascending by date with
// duplicate dates removed (the last occurrence wins). This is the
// invariant every stored or processed quote sequence must satisfy.
func Normalize(quotes []Quote) []Quote {
	if len(quotes) == 0 {
		return []Quote{}
	}
	byDate := make(map[string]Quote, len(quotes))
	for _, q := range quotes {
		byDate[q.Date.String()] = q
	}
	out := make([]Quote, 0, len(byDate))
	for _, q := range byDate {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Clip returns the quotes that fall inside r, preserving order.
func Clip(quotes []Quote, r DateRange) []Quote {
	out := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if r.Contains(q.Date) {
			out = append(out, q)
		}
	}
	return out
}
