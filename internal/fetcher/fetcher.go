package fetcher

import (
	"context"

	"github.com/Alliabson/cotacaoprodutos/internal/quote"
)

// Fetcher retrieves historical quotes for a product over a date range.
// Implementations issue a single attempt per call; callers decide how a
// failure is surfaced.
type Fetcher interface {
	// Fetch returns quotes for the product within the range, sorted
	// ascending by date with no duplicate dates.
	Fetch(ctx context.Context, productID string, r quote.DateRange) ([]quote.Quote, error)

	// Source names the upstream provider, used for logging and cache
	// attribution. Examples:
	//   - agroapi
	//   - bcb
	Source() string
}
