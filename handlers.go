package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Alliabson/cotacaoprodutos/internal/export"
	"github.com/Alliabson/cotacaoprodutos/internal/fetcher"
	"github.com/Alliabson/cotacaoprodutos/internal/quote"
	"github.com/Alliabson/cotacaoprodutos/internal/service"
)

// maxRangeDays caps a requested history window. The dashboard works on
// short windows; anything longer is rejected up front.
const maxRangeDays = 90

// defaultRangeDays is the window used when the request omits dates.
const defaultRangeDays = 30

type server struct {
	svc           *service.Service
	logger        *slog.Logger
	defaultWindow int
}

func newServer(svc *service.Service, logger *slog.Logger, defaultWindow int) *server {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultWindow < 1 {
		defaultWindow = defaultRangeDays
	}
	return &server{svc: svc, logger: logger, defaultWindow: defaultWindow}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/products", s.handleProducts)
	mux.HandleFunc("GET /api/quotes", s.handleQuotes)
	mux.HandleFunc("GET /api/analysis", s.handleAnalysis)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/compare", s.handleCompare)
	mux.HandleFunc("GET /api/export", s.handleExport)
	return s.recoverPanic(s.logRequests(mux))
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *server) handleProducts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"products": s.svc.Products()})
}

func (s *server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	productID, dr, err := s.parseQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	quotes, err := s.svc.History(r.Context(), productID, dr)
	if err != nil {
		s.writeFetchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"product_id": productID,
		"range":      dr,
		"quotes":     quotes,
	})
}

func (s *server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	productID, dr, err := s.parseQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	window := s.defaultWindow
	if v := r.URL.Query().Get("window"); v != "" {
		window, err = strconv.Atoi(v)
		if err != nil || window < 1 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid window %q", v))
			return
		}
	}
	result, err := s.svc.Analyze(r.Context(), productID, dr, window)
	if err != nil {
		s.writeFetchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	productID, dr, err := s.parseQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	summary, err := s.svc.Summarize(r.Context(), productID, dr)
	if err != nil {
		s.writeFetchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *server) handleCompare(w http.ResponseWriter, r *http.Request) {
	a := r.URL.Query().Get("a")
	b := r.URL.Query().Get("b")
	if a == "" || b == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("missing a or b product param"))
		return
	}
	dr, err := s.parseRange(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	cmp, err := s.svc.Compare(r.Context(), a, b, dr)
	if err != nil {
		s.writeFetchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cmp)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	productID, dr, err := s.parseQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	format := export.FormatCSV
	if v := r.URL.Query().Get("format"); v != "" {
		format, err = export.ParseFormat(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	// Fetch before touching response headers so fetch failures get the
	// same status mapping as every other endpoint.
	quotes, err := s.svc.History(r.Context(), productID, dr)
	if err != nil {
		s.writeFetchError(w, err)
		return
	}

	filename := fmt.Sprintf("cotacao_%s_%s_%s.%s", productID, dr.Start, dr.End, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.Write(w, format, quotes); err != nil {
		// Headers are already committed; log and drop the connection.
		s.logger.Error("export failed", "product", productID, "error", err)
	}
}

// parseQuery extracts the product id and date range shared by most handlers.
func (s *server) parseQuery(r *http.Request) (string, quote.DateRange, error) {
	productID := r.URL.Query().Get("product")
	if productID == "" {
		return "", quote.DateRange{}, fmt.Errorf("missing product query param")
	}
	dr, err := s.parseRange(r)
	return productID, dr, err
}

// parseRange reads start/end query params. Omitted dates default to the
// trailing defaultRangeDays window ending today.
func (s *server) parseRange(r *http.Request) (quote.DateRange, error) {
	q := r.URL.Query()
	end := quote.Today()
	if v := q.Get("end"); v != "" {
		var err error
		end, err = quote.ParseDate(v)
		if err != nil {
			return quote.DateRange{}, err
		}
	}
	start := end.AddDays(-(defaultRangeDays - 1))
	if v := q.Get("start"); v != "" {
		var err error
		start, err = quote.ParseDate(v)
		if err != nil {
			return quote.DateRange{}, err
		}
	}
	dr, err := quote.NewDateRange(start, end)
	if err != nil {
		return quote.DateRange{}, err
	}
	if dr.Days() > maxRangeDays {
		return quote.DateRange{}, fmt.Errorf("range spans %d days, maximum is %d", dr.Days(), maxRangeDays)
	}
	return dr, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeFetchError maps the fetch error taxonomy to HTTP statuses. No error
// here is fatal to the process; everything is scoped to the one request.
func (s *server) writeFetchError(w http.ResponseWriter, err error) {
	switch fetcher.TypeOf(err) {
	case fetcher.ErrorTypeNotFound:
		s.writeError(w, http.StatusNotFound, err)
	default:
		// auth, provider and validation failures are all upstream problems
		s.writeError(w, http.StatusBadGateway, err)
	}
}

// logRequests logs each request with its duration.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// recoverPanic protects handlers from panics.
func (s *server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", "panic", rec, "path", r.URL.Path)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
