package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alliabson/cotacaoprodutos/internal/quote"
)

// Stats are descriptive statistics over a price series.
type Stats struct {
	Count  int             `json:"count"`
	Mean   decimal.Decimal `json:"mean"`
	Std    float64         `json:"std"`
	Min    decimal.Decimal `json:"min"`
	Q1     decimal.Decimal `json:"q1"`
	Median decimal.Decimal `json:"median"`
	Q3     decimal.Decimal `json:"q3"`
	Max    decimal.Decimal `json:"max"`
}

// Describe computes count, mean, sample standard deviation and the
// min/quartile/max spread of the prices. Empty input yields a zero Stats.
func Describe(quotes []quote.Quote) Stats {
	qs := quote.Normalize(quotes)
	if len(qs) == 0 {
		return Stats{}
	}

	prices := make([]decimal.Decimal, len(qs))
	sum := decimal.Zero
	for i, q := range qs {
		prices[i] = q.Price
		sum = sum.Add(q.Price)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })

	n := len(prices)
	mean := sum.Div(decimal.NewFromInt(int64(n)))

	std := 0.0
	if n > 1 {
		m := mean.InexactFloat64()
		var ss float64
		for _, p := range prices {
			d := p.InexactFloat64() - m
			ss += d * d
		}
		std = math.Sqrt(ss / float64(n-1))
	}

	return Stats{
		Count:  n,
		Mean:   mean,
		Std:    std,
		Min:    prices[0],
		Q1:     quantile(prices, 0.25),
		Median: quantile(prices, 0.5),
		Q3:     quantile(prices, 0.75),
		Max:    prices[n-1],
	}
}

// quantile interpolates linearly between the two nearest order statistics,
// matching the convention the dashboard's statistics table has always used.
func quantile(sorted []decimal.Decimal, q float64) decimal.Decimal {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := decimal.NewFromFloat(pos - float64(lo))
	return sorted[lo].Add(sorted[hi].Sub(sorted[lo]).Mul(frac))
}

// MonthlyPoint is the mean price for one calendar month.
type MonthlyPoint struct {
	Year  int             `json:"year"`
	Month time.Month      `json:"month"`
	Mean  decimal.Decimal `json:"mean"`
}

// MonthlyAverages groups the series by (year, month) and returns the mean
// price per month in chronological order.
func MonthlyAverages(quotes []quote.Quote) []MonthlyPoint {
	qs := quote.Normalize(quotes)
	type bucket struct {
		sum decimal.Decimal
		n   int64
	}
	keys := make([]int, 0)
	buckets := make(map[int]*bucket)
	for _, q := range qs {
		key := q.Date.Year()*100 + int(q.Date.Month())
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			keys = append(keys, key)
		}
		b.sum = b.sum.Add(q.Price)
		b.n++
	}
	sort.Ints(keys)

	out := make([]MonthlyPoint, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		out = append(out, MonthlyPoint{
			Year:  key / 100,
			Month: time.Month(key % 100),
			Mean:  b.sum.Div(decimal.NewFromInt(b.n)),
		})
	}
	return out
}

// Correlation computes the Pearson correlation of two products' prices over
// their common dates. ok is false with fewer than two common dates or when
// either series has zero variance.
func Correlation(a, b []quote.Quote) (float64, bool) {
	as := quote.Normalize(a)
	bByDate := make(map[string]decimal.Decimal)
	for _, q := range quote.Normalize(b) {
		bByDate[q.Date.String()] = q.Price
	}

	var xs, ys []float64
	for _, q := range as {
		if p, ok := bByDate[q.Date.String()]; ok {
			xs = append(xs, q.Price.InexactFloat64())
			ys = append(ys, p.InexactFloat64())
		}
	}
	n := len(xs)
	if n < 2 {
		return 0, false
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}
