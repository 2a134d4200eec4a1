package analysis

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Alliabson/cotacaoprodutos/internal/quote"
)

func q(day int, price string) quote.Quote {
	return quote.Quote{
		ProductID: "milho",
		Date:      quote.NewDate(2024, 1, day),
		Price:     decimal.RequireFromString(price),
	}
}

func TestAggregate_MovingAverage(t *testing.T) {
	quotes := []quote.Quote{q(1, "10.0"), q(2, "12.0"), q(3, "11.0")}

	result := Aggregate(quotes, 2)

	if len(result.Series) != 3 {
		t.Fatalf("Series has %d points, want 3", len(result.Series))
	}
	if len(result.MovingAverage) != 2 {
		t.Fatalf("MovingAverage has %d points, want 2", len(result.MovingAverage))
	}

	wantMA := []struct {
		date  string
		value string
	}{
		{"2024-01-02", "11"},
		{"2024-01-03", "11.5"},
	}
	for i, want := range wantMA {
		got := result.MovingAverage[i]
		if got.Date.String() != want.date {
			t.Errorf("MA[%d].Date = %s, want %s", i, got.Date, want.date)
		}
		if !got.Value.Equal(decimal.RequireFromString(want.value)) {
			t.Errorf("MA[%d].Value = %s, want %s", i, got.Value, want.value)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	result := Aggregate(nil, 7)
	if result.Series == nil || len(result.Series) != 0 {
		t.Errorf("Series = %v, want empty non-nil slice", result.Series)
	}
	if result.MovingAverage == nil || len(result.MovingAverage) != 0 {
		t.Errorf("MovingAverage = %v, want empty non-nil slice", result.MovingAverage)
	}
}

func TestAggregate_WindowLargerThanSeries(t *testing.T) {
	result := Aggregate([]quote.Quote{q(1, "10"), q(2, "11")}, 5)
	if len(result.Series) != 2 {
		t.Errorf("Series has %d points, want 2", len(result.Series))
	}
	if len(result.MovingAverage) != 0 {
		t.Errorf("MovingAverage has %d points, want 0", len(result.MovingAverage))
	}
}

func TestAggregate_WindowOne(t *testing.T) {
	quotes := []quote.Quote{q(1, "10"), q(2, "12")}
	result := Aggregate(quotes, 1)
	if len(result.MovingAverage) != len(result.Series) {
		t.Fatalf("window=1 MA has %d points, want %d", len(result.MovingAverage), len(result.Series))
	}
	for i := range result.Series {
		if !result.MovingAverage[i].Value.Equal(result.Series[i].Value) {
			t.Errorf("window=1 MA[%d] = %s, want %s", i, result.MovingAverage[i].Value, result.Series[i].Value)
		}
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	// Unsorted input with a duplicate: output must not depend on order
	quotes := []quote.Quote{q(3, "11"), q(1, "10"), q(2, "12"), q(2, "12")}

	a := Aggregate(quotes, 2)
	b := Aggregate(quotes, 2)
	if !reflect.DeepEqual(a, b) {
		t.Error("Aggregate() is not deterministic for identical input")
	}

	reversed := []quote.Quote{q(2, "12"), q(2, "12"), q(1, "10"), q(3, "11")}
	c := Aggregate(reversed, 2)
	if !reflect.DeepEqual(a, c) {
		t.Error("Aggregate() depends on input order")
	}
}

func TestPercentChange(t *testing.T) {
	quotes := []quote.Quote{q(1, "100"), q(2, "110"), q(3, "99")}
	out := PercentChange(quotes)

	if len(out) != 2 {
		t.Fatalf("PercentChange() has %d points, want 2", len(out))
	}
	if !out[0].Value.Equal(decimal.RequireFromString("10")) {
		t.Errorf("day 2 change = %s, want 10", out[0].Value)
	}
	if !out[1].Value.Equal(decimal.RequireFromString("-10")) {
		t.Errorf("day 3 change = %s, want -10", out[1].Value)
	}
}

func TestPercentChange_Empty(t *testing.T) {
	if out := PercentChange(nil); len(out) != 0 {
		t.Errorf("PercentChange(nil) = %v, want empty", out)
	}
}

func TestChangeOver(t *testing.T) {
	quotes := []quote.Quote{q(1, "100"), q(2, "105"), q(3, "120")}

	change, ok := ChangeOver(quotes, 2)
	if !ok {
		t.Fatal("ChangeOver() ok = false, want true")
	}
	if !change.Equal(decimal.RequireFromString("20")) {
		t.Errorf("ChangeOver() = %s, want 20", change)
	}

	if _, ok := ChangeOver(quotes, 3); ok {
		t.Error("ChangeOver() ok = true with too few observations")
	}
	if _, ok := ChangeOver(nil, 1); ok {
		t.Error("ChangeOver(nil) ok = true, want false")
	}
}
