// Package catalog holds the static product reference list. The list is
// loaded once at startup and passed explicitly to whoever needs it; there
// is no package-level state.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Alliabson/cotacaoprodutos/internal/quote"
)

// Catalog is the read-only set of products the service can quote.
type Catalog struct {
	products []quote.Product
	byID     map[string]quote.Product
}

// defaultProducts mirrors the product list the dashboard has always shipped
// with. A products file, when present, replaces it entirely.
var defaultProducts = []quote.Product{
	{ID: "boi-gordo", DisplayName: "Boi Gordo", Category: quote.CategoryLivestock, Unit: "@"},
	{ID: "bezerro", DisplayName: "Bezerro", Category: quote.CategoryLivestock, Unit: "cab"},
	{ID: "milho", DisplayName: "Milho", Category: quote.CategoryGrain, Unit: "sc"},
	{ID: "soja", DisplayName: "Soja", Category: quote.CategoryGrain, Unit: "sc"},
	{ID: "cafe", DisplayName: "Café", Category: quote.CategoryOther, Unit: "sc"},
	{ID: "feijao", DisplayName: "Feijão", Category: quote.CategoryGrain, Unit: "sc"},
}

// Default returns a catalog with the built-in product list.
func Default() *Catalog {
	return build(defaultProducts)
}

// Load reads a product list from a JSON file. A missing file (or empty
// path) falls back to the built-in defaults; a malformed file is an error.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read products file: %w", err)
	}
	var products []quote.Product
	if err := json.Unmarshal(b, &products); err != nil {
		return nil, fmt.Errorf("parse products file %s: %w", path, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("products file %s contains no products", path)
	}
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("products file %s: product %d has no id", path, i)
		}
		if p.Category == "" {
			products[i].Category = quote.CategoryOther
		}
	}
	return build(products), nil
}

func build(products []quote.Product) *Catalog {
	byID := make(map[string]quote.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Catalog{products: products, byID: byID}
}

// Products returns a copy of the product list.
func (c *Catalog) Products() []quote.Product {
	out := make([]quote.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get looks up a product by id.
func (c *Catalog) Get(id string) (quote.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int {
	return len(c.products)
}
