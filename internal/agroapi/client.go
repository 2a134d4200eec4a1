// Package agroapi implements the quote provider client for the commodity
// price API.
package agroapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"github.com/Alliabson/cotacaoprodutos/internal/fetcher"
	"github.com/Alliabson/cotacaoprodutos/internal/quote"
	"github.com/Alliabson/cotacaoprodutos/internal/ratelimit"
)

// quoteRecord is a single raw record from the provider. Price is kept raw
// so a malformed value drops the record instead of the whole response.
type quoteRecord struct {
	Data    string          `json:"data"`
	Preco   json.RawMessage `json:"preco"`
	Unidade string          `json:"unidade"`
}

// quotesResponse is the provider response envelope. Cotacoes is a pointer
// so a response missing the field can be told apart from an empty list.
type quotesResponse struct {
	Cotacoes *[]quoteRecord `json:"cotacoes"`
}

// Client fetches historical commodity quotes from the provider.
type Client struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// New creates a provider client. The API key is sent as a Bearer token.
func New(apiKey, baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, logger *slog.Logger) *Client {
	client := fetcher.NewHTTPClient(baseURL, timeout).
		SetAuthToken(apiKey)

	if logger == nil {
		logger = slog.Default()
	}
	return &Client{client: client, limiter: limiter, logger: logger}
}

// Source returns the provider name
func (c *Client) Source() string { return "agroapi" }

// Fetch retrieves quotes for a product within the date range. The result is
// sorted ascending by date with duplicate dates removed.
func (c *Client) Fetch(ctx context.Context, productID string, r quote.DateRange) ([]quote.Quote, error) {
	if err := r.Validate(); err != nil {
		return nil, fetcher.NewValidationError(err.Error())
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, ratelimit.APIAgro); err != nil {
			return nil, fetcher.NewProviderError(err)
		}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"produto": productID,
			"inicio":  r.Start.String(),
			"fim":     r.End.String(),
		}).
		Get("/cotacoes")

	if err != nil {
		return nil, fetcher.NewProviderError(fmt.Errorf("fetch quotes for %s: %w", productID, err))
	}
	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode(), productID)
	}

	var body quotesResponse
	if err := json.Unmarshal(resp.Bytes(), &body); err != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("malformed provider response: %v", err))
	}
	if body.Cotacoes == nil {
		return nil, fetcher.NewValidationError("provider response missing cotacoes field")
	}

	quotes := make([]quote.Quote, 0, len(*body.Cotacoes))
	dropped := 0
	for _, rec := range *body.Cotacoes {
		d, err := quote.ParseDate(rec.Data)
		if err != nil {
			dropped++
			continue
		}
		price, err := parsePrice(rec.Preco)
		if err != nil || price.Sign() <= 0 {
			dropped++
			continue
		}
		quotes = append(quotes, quote.Quote{
			ProductID: productID,
			Date:      d,
			Price:     price,
			Unit:      rec.Unidade,
		})
	}
	if dropped > 0 {
		c.logger.Debug("dropped invalid quote records",
			"product", productID,
			"dropped", dropped,
			"kept", len(quotes))
	}

	return quote.Normalize(quotes), nil
}

// parsePrice accepts both JSON numbers and numeric strings, the two shapes
// the provider has been seen to emit.
func parsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Decimal{}, fmt.Errorf("missing price")
	}
	s = strings.Trim(s, `"`)
	return decimal.NewFromString(s)
}
