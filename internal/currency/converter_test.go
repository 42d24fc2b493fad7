package currency

import (
	"math"
	"testing"
)

func TestConvert(t *testing.T) {
	c := NewConverter(DefaultConfig())

	tests := []struct {
		name   string
		amount float64
		from   string
		to     string
		want   float64
	}{
		{"usd to eur", 100, "USD", "EUR", 92.0},
		{"eur to usd", 100, "EUR", "USD", 108.70},
		{"usd to mkd", 100, "USD", "MKD", 5650.0},
		{"mkd to eur", 565, "MKD", "EUR", 9.2},
		{"zero amount", 0, "USD", "EUR", 0},
		{"unknown target treated as usd", 100, "USD", "XYZ", 100.0},
		{"unknown source treated as usd", 50, "XYZ", "USD", 50.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Convert(tt.amount, tt.from, tt.to)
			if got != tt.want {
				t.Errorf("Convert(%v, %q, %q) = %v, want %v", tt.amount, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvert_Identity(t *testing.T) {
	c := NewConverter(DefaultConfig())

	// Same-currency conversions must return the amount bit-for-bit, even for
	// values that 2-decimal rounding would otherwise alter.
	for _, amount := range []float64{0, 1, 99.999, 1234.5678, -42.125} {
		for _, code := range []string{"USD", "EUR", "MKD", "XYZ"} {
			if got := c.Convert(amount, code, code); got != amount {
				t.Errorf("Convert(%v, %q, %q) = %v, want identical amount", amount, code, code, got)
			}
		}
	}
}

func TestConvert_RoundTrip(t *testing.T) {
	c := NewConverter(DefaultConfig())

	pairs := [][2]string{
		{"USD", "EUR"},
		{"USD", "MKD"},
		{"EUR", "MKD"},
	}

	for _, p := range pairs {
		for _, amount := range []float64{1, 10, 100, 2500} {
			there := c.Convert(amount, p[0], p[1])
			back := c.Convert(there, p[1], p[0])
			if math.Abs(back-amount) > 0.01 {
				t.Errorf("round trip %v %s->%s->%s = %v, want within 0.01", amount, p[0], p[1], p[0], back)
			}
		}
	}
}

func TestSymbol(t *testing.T) {
	c := NewConverter(DefaultConfig())

	tests := []struct {
		code string
		want string
	}{
		{"USD", "$"},
		{"EUR", "€"},
		{"MKD", "den"},
		{"GBP", "GBP"},
	}

	for _, tt := range tests {
		if got := c.Symbol(tt.code); got != tt.want {
			t.Errorf("Symbol(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestConvert_InjectedRates(t *testing.T) {
	c := NewConverter(Config{
		Rates:   map[string]float64{"USD": 1.0, "GBP": 0.5},
		Symbols: map[string]string{"GBP": "£"},
	})

	if got := c.Convert(100, "USD", "GBP"); got != 50.0 {
		t.Errorf("Convert(100, USD, GBP) = %v, want 50", got)
	}
	if got := c.Symbol("GBP"); got != "£" {
		t.Errorf("Symbol(GBP) = %q, want £", got)
	}
}
