// Package service wires the cache, fetcher and processor together:
// cache lookup → (on miss) fetch → cache write → process.
package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Alliabson/cotacaoprodutos/internal/analysis"
	"github.com/Alliabson/cotacaoprodutos/internal/bcb"
	"github.com/Alliabson/cotacaoprodutos/internal/cache"
	"github.com/Alliabson/cotacaoprodutos/internal/catalog"
	"github.com/Alliabson/cotacaoprodutos/internal/fetcher"
	"github.com/Alliabson/cotacaoprodutos/internal/quote"
)

// changePeriods is how many observations back the headline variation
// metric looks (the dashboard's "30-day variation").
const changePeriods = 30

// Service answers quote requests for the UI layer.
type Service struct {
	catalog *catalog.Catalog
	fetcher fetcher.Fetcher
	store   *cache.Store // nil disables caching
	rates   *bcb.Client  // nil disables USD annotation
	logger  *slog.Logger
}

// New creates a service. store and rates may be nil, in which case caching
// and USD annotation are disabled.
func New(cat *catalog.Catalog, f fetcher.Fetcher, store *cache.Store, rates *bcb.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: cat, fetcher: f, store: store, rates: rates, logger: logger}
}

// Products returns the static product reference list.
func (s *Service) Products() []quote.Product {
	return s.catalog.Products()
}

// History returns the quotes for a product within the range, served from
// the cache when possible. Cache IO failures degrade to a direct fetch.
func (s *Service) History(ctx context.Context, productID string, r quote.DateRange) ([]quote.Quote, error) {
	if err := r.Validate(); err != nil {
		return nil, fetcher.NewValidationError(err.Error())
	}
	product, ok := s.catalog.Get(productID)
	if !ok {
		return nil, fetcher.NewNotFoundError(productID)
	}

	if s.store != nil {
		entry, hit, err := s.store.Get(productID, r)
		if err != nil {
			s.logger.Warn("cache read failed, fetching directly", "product", productID, "error", err)
		} else if hit {
			s.logger.Debug("cache hit", "product", productID, "range", r.String())
			return quote.Clip(entry.Quotes, r), nil
		}
	}

	quotes, err := s.fetcher.Fetch(ctx, productID, r)
	if err != nil {
		return nil, err
	}
	for i := range quotes {
		if quotes[i].Unit == "" {
			quotes[i].Unit = product.Unit
		}
	}

	if s.store != nil {
		if err := s.store.Put(productID, r, quotes); err != nil {
			s.logger.Warn("cache write failed, continuing without cache", "product", productID, "error", err)
		}
	}

	return quote.Clip(quotes, r), nil
}

// Analysis is the processed view of a product's history.
type Analysis struct {
	Product       quote.Product    `json:"product"`
	Range         quote.DateRange  `json:"range"`
	Window        int              `json:"window"`
	Series        []analysis.Point `json:"series"`
	MovingAverage []analysis.Point `json:"moving_average"`
	PercentChange []analysis.Point `json:"percent_change"`
}

// Analyze fetches the history and derives series, moving average and daily
// percentage change.
func (s *Service) Analyze(ctx context.Context, productID string, r quote.DateRange, window int) (*Analysis, error) {
	quotes, err := s.History(ctx, productID, r)
	if err != nil {
		return nil, err
	}
	product, _ := s.catalog.Get(productID)

	agg := analysis.Aggregate(quotes, window)
	return &Analysis{
		Product:       product,
		Range:         r,
		Window:        window,
		Series:        agg.Series,
		MovingAverage: agg.MovingAverage,
		PercentChange: analysis.PercentChange(quotes),
	}, nil
}

// Summary is the statistics view of a product's history.
type Summary struct {
	Product         quote.Product           `json:"product"`
	Range           quote.DateRange         `json:"range"`
	Stats           analysis.Stats          `json:"stats"`
	LatestDate      *quote.Date             `json:"latest_date,omitempty"`
	LatestPrice     *decimal.Decimal        `json:"latest_price,omitempty"`
	LatestPriceUSD  *decimal.Decimal        `json:"latest_price_usd,omitempty"`
	Change30d       *decimal.Decimal        `json:"change_30d,omitempty"`
	MonthlyAverages []analysis.MonthlyPoint `json:"monthly_averages"`
}

// Summarize computes descriptive statistics and headline metrics for a
// product. The USD price uses the PTAX rate for the latest quote date.
func (s *Service) Summarize(ctx context.Context, productID string, r quote.DateRange) (*Summary, error) {
	quotes, err := s.History(ctx, productID, r)
	if err != nil {
		return nil, err
	}
	product, _ := s.catalog.Get(productID)

	sum := &Summary{
		Product:         product,
		Range:           r,
		Stats:           analysis.Describe(quotes),
		MonthlyAverages: analysis.MonthlyAverages(quotes),
	}
	if change, ok := analysis.ChangeOver(quotes, changePeriods); ok {
		sum.Change30d = &change
	}
	if len(quotes) > 0 {
		last := quotes[len(quotes)-1]
		sum.LatestDate = &last.Date
		sum.LatestPrice = &last.Price
		if s.rates != nil {
			rate := s.rates.DollarRate(ctx, last.Date)
			usd := last.Price.DivRound(rate, 4)
			sum.LatestPriceUSD = &usd
		}
	}
	return sum, nil
}

// Comparison relates two products over their common dates.
type Comparison struct {
	ProductA    quote.Product   `json:"product_a"`
	ProductB    quote.Product   `json:"product_b"`
	Range       quote.DateRange `json:"range"`
	Correlation *float64        `json:"correlation,omitempty"`
}

// Compare computes the price correlation between two products over the
// range. Correlation is omitted when there is not enough overlapping data.
func (s *Service) Compare(ctx context.Context, aID, bID string, r quote.DateRange) (*Comparison, error) {
	qa, err := s.History(ctx, aID, r)
	if err != nil {
		return nil, err
	}
	qb, err := s.History(ctx, bID, r)
	if err != nil {
		return nil, err
	}
	pa, _ := s.catalog.Get(aID)
	pb, _ := s.catalog.Get(bID)

	cmp := &Comparison{ProductA: pa, ProductB: pb, Range: r}
	if corr, ok := analysis.Correlation(qa, qb); ok {
		cmp.Correlation = &corr
	}
	return cmp, nil
}
