// Package analysis contains pure functions over quote series: filtering,
// moving averages, percentage changes and descriptive statistics. All
// functions are deterministic and return empty results (never errors) for
// empty input.
package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/Alliabson/cotacaoprodutos/internal/quote"
)

// Point is one (date, value) observation in a derived series.
type Point struct {
	Date  quote.Date      `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// Result is the aggregated view of a quote series.
type Result struct {
	Series        []Point `json:"series"`
	MovingAverage []Point `json:"moving_average"`
}

// Aggregate builds the price series and its trailing moving average. The
// moving average uses a full window: the first point falls on the window-th
// date. Input order does not matter; quotes are normalized first.
func Aggregate(quotes []quote.Quote, window int) Result {
	if window < 1 {
		window = 1
	}
	qs := quote.Normalize(quotes)

	series := make([]Point, 0, len(qs))
	for _, q := range qs {
		series = append(series, Point{Date: q.Date, Value: q.Price})
	}

	ma := make([]Point, 0)
	if len(qs) >= window {
		div := decimal.NewFromInt(int64(window))
		sum := decimal.Zero
		for i, q := range qs {
			sum = sum.Add(q.Price)
			if i >= window {
				sum = sum.Sub(qs[i-window].Price)
			}
			if i >= window-1 {
				ma = append(ma, Point{Date: q.Date, Value: sum.Div(div)})
			}
		}
	}

	return Result{Series: series, MovingAverage: ma}
}

// PercentChange returns the day-over-day percentage change of the price
// series, starting at the second observation. Observations following a
// zero price are skipped.
func PercentChange(quotes []quote.Quote) []Point {
	qs := quote.Normalize(quotes)
	out := make([]Point, 0)
	hundred := decimal.NewFromInt(100)
	for i := 1; i < len(qs); i++ {
		prev := qs[i-1].Price
		if prev.Sign() == 0 {
			continue
		}
		change := qs[i].Price.Sub(prev).Div(prev).Mul(hundred)
		out = append(out, Point{Date: qs[i].Date, Value: change})
	}
	return out
}

// ChangeOver returns the percentage change between the last observation and
// the one `periods` observations earlier. ok is false when there is not
// enough data or the base price is zero.
func ChangeOver(quotes []quote.Quote, periods int) (decimal.Decimal, bool) {
	qs := quote.Normalize(quotes)
	if periods < 1 || len(qs) <= periods {
		return decimal.Decimal{}, false
	}
	base := qs[len(qs)-1-periods].Price
	if base.Sign() == 0 {
		return decimal.Decimal{}, false
	}
	last := qs[len(qs)-1].Price
	return last.Sub(base).Div(base).Mul(decimal.NewFromInt(100)), true
}
