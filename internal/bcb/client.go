// Package bcb looks up the historical USD exchange rate from the Banco
// Central do Brasil PTAX service.
package bcb

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"github.com/Alliabson/cotacaoprodutos/internal/fetcher"
	"github.com/Alliabson/cotacaoprodutos/internal/quote"
	"github.com/Alliabson/cotacaoprodutos/internal/ratelimit"
)

// ptaxDateLayout is the date format the Olinda OData endpoint expects.
const ptaxDateLayout = "01-02-2006"

// fallbackRate is used whenever PTAX cannot be reached or has no rate for
// the requested date (weekends, holidays, future dates).
var fallbackRate = decimal.NewFromInt(5)

type ptaxQuote struct {
	CotacaoCompra json.Number `json:"cotacaoCompra"`
	CotacaoVenda  json.Number `json:"cotacaoVenda"`
}

type ptaxResponse struct {
	Value []ptaxQuote `json:"value"`
}

// Client fetches the PTAX buy rate for a calendar date.
type Client struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

func New(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client:  fetcher.NewHTTPClient(baseURL, timeout),
		limiter: limiter,
		logger:  logger,
	}
}

// DollarRate returns the PTAX buy rate for the given date. It never fails:
// any error degrades to the fallback rate, logged at debug level.
func (c *Client) DollarRate(ctx context.Context, d quote.Date) decimal.Decimal {
	if d.After(quote.Today()) {
		return fallbackRate
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, ratelimit.APIBCB); err != nil {
			return fallbackRate
		}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("@dataCotacao", "'"+d.Format(ptaxDateLayout)+"'").
		SetQueryParam("$format", "json").
		Get("/olinda/servico/PTAX/versao/v1/odata/CotacaoDolarDia(dataCotacao=@dataCotacao)")

	if err != nil || !resp.IsSuccess() {
		c.logger.Debug("ptax lookup failed, using fallback rate", "date", d, "error", err)
		return fallbackRate
	}

	var body ptaxResponse
	if err := json.Unmarshal(resp.Bytes(), &body); err != nil || len(body.Value) == 0 {
		c.logger.Debug("ptax returned no rate, using fallback", "date", d)
		return fallbackRate
	}

	rate, err := decimal.NewFromString(body.Value[0].CotacaoCompra.String())
	if err != nil || rate.Sign() <= 0 {
		c.logger.Debug("ptax rate unparseable, using fallback", "date", d)
		return fallbackRate
	}
	return rate
}
