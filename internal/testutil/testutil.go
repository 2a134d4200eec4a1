package testutil

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Alliabson/cotacaoprodutos/internal/fetcher"
	"github.com/Alliabson/cotacaoprodutos/internal/quote"
)

// MockFetcher is a mock implementation of the Fetcher interface for testing
type MockFetcher struct {
	FetchFunc  func(ctx context.Context, productID string, r quote.DateRange) ([]quote.Quote, error)
	SourceFunc func() string

	// Calls counts Fetch invocations.
	Calls int
}

var _ fetcher.Fetcher = (*MockFetcher)(nil)

// Fetch implements the Fetcher interface
func (m *MockFetcher) Fetch(ctx context.Context, productID string, r quote.DateRange) ([]quote.Quote, error) {
	m.Calls++
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, productID, r)
	}
	return nil, nil
}

// Source implements the Fetcher interface
func (m *MockFetcher) Source() string {
	if m.SourceFunc != nil {
		return m.SourceFunc()
	}
	return "mock"
}

// NewMockFetcher creates a simple mock fetcher with predefined values
func NewMockFetcher(quotes []quote.Quote, err error) *MockFetcher {
	return &MockFetcher{
		FetchFunc: func(ctx context.Context, productID string, r quote.DateRange) ([]quote.Quote, error) {
			return quotes, err
		},
	}
}

// Quotes builds a daily quote series for productID starting at start, one
// quote per price, for use in tests.
func Quotes(productID string, start quote.Date, prices ...string) []quote.Quote {
	out := make([]quote.Quote, 0, len(prices))
	for i, p := range prices {
		out = append(out, quote.Quote{
			ProductID: productID,
			Date:      start.AddDays(i),
			Price:     decimal.RequireFromString(p),
			Unit:      "@",
		})
	}
	return out
}
