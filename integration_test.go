package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Alliabson/cotacaoprodutos/internal/agroapi"
	"github.com/Alliabson/cotacaoprodutos/internal/cache"
	"github.com/Alliabson/cotacaoprodutos/internal/catalog"
	"github.com/Alliabson/cotacaoprodutos/internal/quote"
	"github.com/Alliabson/cotacaoprodutos/internal/service"
)

// newProviderStub serves a fixed three-day series for milho and standard
// provider errors otherwise.
func newProviderStub(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.Header.Get("Authorization") != "Bearer test_key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("produto") != "milho" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"cotacoes": [
				{"data": "2024-01-01", "preco": 10.0, "unidade": "sc"},
				{"data": "2024-01-02", "preco": 12.0, "unidade": "sc"},
				{"data": "2024-01-03", "preco": 11.0, "unidade": "sc"}
			]
		}`))
	}))
}

func newTestServer(t *testing.T, providerURL string) *httptest.Server {
	t.Helper()
	store, err := cache.NewStore(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	provider := agroapi.New("test_key", providerURL, 5*time.Second, nil, nil)
	svc := service.New(catalog.Default(), provider, store, nil, nil)
	return httptest.NewServer(newServer(svc, nil, 30).routes())
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestIntegration_QuotesFlow(t *testing.T) {
	var providerCalls int
	provider := newProviderStub(t, &providerCalls)
	defer provider.Close()
	server := newTestServer(t, provider.URL)
	defer server.Close()

	url := server.URL + "/api/quotes?product=milho&start=2024-01-01&end=2024-01-03"

	resp, body := get(t, url)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var payload struct {
		ProductID string        `json:"product_id"`
		Quotes    []quote.Quote `json:"quotes"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.ProductID != "milho" || len(payload.Quotes) != 3 {
		t.Fatalf("payload = %+v, want 3 milho quotes", payload)
	}
	if providerCalls != 1 {
		t.Fatalf("provider calls = %d, want 1", providerCalls)
	}

	// Same request again: served from the file cache
	resp, _ = get(t, url)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second request status = %d", resp.StatusCode)
	}
	if providerCalls != 1 {
		t.Errorf("provider calls after cached request = %d, want 1", providerCalls)
	}
}

func TestIntegration_Analysis(t *testing.T) {
	var calls int
	provider := newProviderStub(t, &calls)
	defer provider.Close()
	server := newTestServer(t, provider.URL)
	defer server.Close()

	resp, body := get(t, server.URL+"/api/analysis?product=milho&start=2024-01-01&end=2024-01-03&window=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var payload struct {
		MovingAverage []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"moving_average"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.MovingAverage) != 2 {
		t.Fatalf("moving average has %d points, want 2: %s", len(payload.MovingAverage), body)
	}
	if payload.MovingAverage[0].Value != "11" || payload.MovingAverage[1].Value != "11.5" {
		t.Errorf("moving average = %+v, want [11, 11.5]", payload.MovingAverage)
	}
}

func TestIntegration_UnknownProduct(t *testing.T) {
	var calls int
	provider := newProviderStub(t, &calls)
	defer provider.Close()
	server := newTestServer(t, provider.URL)
	defer server.Close()

	// In the catalog but unknown to the provider
	resp, _ := get(t, server.URL+"/api/quotes?product=soja&start=2024-01-01&end=2024-01-03")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("provider-unknown product status = %d, want 404", resp.StatusCode)
	}

	// Not in the catalog at all: never reaches the provider
	before := calls
	resp, _ = get(t, server.URL+"/api/quotes?product=petroleo&start=2024-01-01&end=2024-01-03")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("catalog-unknown product status = %d, want 404", resp.StatusCode)
	}
	if calls != before {
		t.Errorf("catalog-unknown product hit the provider")
	}
}

func TestIntegration_AuthErrorIsBadGateway(t *testing.T) {
	var calls int
	provider := newProviderStub(t, &calls)
	defer provider.Close()

	store, err := cache.NewStore(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	badClient := agroapi.New("wrong_key", provider.URL, 5*time.Second, nil, nil)
	svc := service.New(catalog.Default(), badClient, store, nil, nil)
	server := httptest.NewServer(newServer(svc, nil, 30).routes())
	defer server.Close()

	resp, body := get(t, server.URL+"/api/quotes?product=milho&start=2024-01-01&end=2024-01-03")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502; body = %s", resp.StatusCode, body)
	}
}

func TestIntegration_ExportCSV(t *testing.T) {
	var calls int
	provider := newProviderStub(t, &calls)
	defer provider.Close()
	server := newTestServer(t, provider.URL)
	defer server.Close()

	resp, body := get(t, server.URL+"/api/export?product=milho&start=2024-01-01&end=2024-01-03&format=csv")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "cotacao_milho_2024-01-01_2024-01-03.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 4 {
		t.Fatalf("CSV has %d lines, want header + 3 records:\n%s", len(lines), body)
	}
	if lines[0] != "product_id,date,price,unit" {
		t.Errorf("CSV header = %q", lines[0])
	}
}

func TestIntegration_ExportFetchErrors(t *testing.T) {
	var calls int
	provider := newProviderStub(t, &calls)
	defer provider.Close()
	server := newTestServer(t, provider.URL)
	defer server.Close()

	// Provider-unknown product: a 404 error body, not an empty attachment
	resp, body := get(t, server.URL+"/api/export?product=soja&start=2024-01-01&end=2024-01-03&format=csv")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404; body = %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q, want application/json error body", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		t.Errorf("Content-Disposition = %q, want none on a failed export", cd)
	}

	// Rejected credential maps like every other endpoint
	badClient := agroapi.New("wrong_key", provider.URL, 5*time.Second, nil, nil)
	badSvc := service.New(catalog.Default(), badClient, nil, nil, nil)
	badServer := httptest.NewServer(newServer(badSvc, nil, 30).routes())
	defer badServer.Close()

	resp, _ = get(t, badServer.URL+"/api/export?product=milho&start=2024-01-01&end=2024-01-03")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("auth failure status = %d, want 502", resp.StatusCode)
	}
}

func TestIntegration_Products(t *testing.T) {
	var calls int
	provider := newProviderStub(t, &calls)
	defer provider.Close()
	server := newTestServer(t, provider.URL)
	defer server.Close()

	resp, body := get(t, server.URL+"/api/products")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload struct {
		Products []quote.Product `json:"products"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Products) != catalog.Default().Len() {
		t.Errorf("products = %d, want %d", len(payload.Products), catalog.Default().Len())
	}
}

func TestIntegration_BadRequests(t *testing.T) {
	var calls int
	provider := newProviderStub(t, &calls)
	defer provider.Close()
	server := newTestServer(t, provider.URL)
	defer server.Close()

	tests := []struct {
		name string
		path string
	}{
		{"missing product", "/api/quotes?start=2024-01-01&end=2024-01-03"},
		{"bad date", "/api/quotes?product=milho&start=01/01/2024&end=2024-01-03"},
		{"inverted range", "/api/quotes?product=milho&start=2024-02-01&end=2024-01-01"},
		{"oversized range", "/api/quotes?product=milho&start=2024-01-01&end=2024-06-01"},
		{"bad window", "/api/analysis?product=milho&start=2024-01-01&end=2024-01-03&window=zero"},
		{"bad format", "/api/export?product=milho&start=2024-01-01&end=2024-01-03&format=xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, server.URL+tt.path)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", resp.StatusCode, body)
			}
		})
	}
}

func TestIntegration_Health(t *testing.T) {
	var calls int
	provider := newProviderStub(t, &calls)
	defer provider.Close()
	server := newTestServer(t, provider.URL)
	defer server.Close()

	resp, body := get(t, server.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("healthz = %d %q, want 200 ok", resp.StatusCode, body)
	}
}
