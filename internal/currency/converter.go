// Package currency converts amounts between currency codes through a fixed
// units-per-USD rate table.
package currency

import (
	"github.com/shopspring/decimal"
)

// Config holds the rate and symbol tables for a Converter. Rates are
// units-per-USD. A live-feed implementation can be swapped in by building a
// Config from fetched rates; callers of Convert never change.
type Config struct {
	Rates   map[string]float64
	Symbols map[string]string
}

// DefaultConfig returns the static table the application ships with.
func DefaultConfig() Config {
	return Config{
		Rates: map[string]float64{
			"USD": 1.0,
			"EUR": 0.92,
			"MKD": 56.5,
		},
		Symbols: map[string]string{
			"USD": "$",
			"EUR": "€",
			"MKD": "den",
		},
	}
}

// Converter converts amounts between currencies. It is pure and safe for
// concurrent use; the tables are never mutated after construction.
type Converter struct {
	rates   map[string]float64
	symbols map[string]string
}

// NewConverter builds a Converter from the given tables.
func NewConverter(cfg Config) *Converter {
	return &Converter{
		rates:   cfg.Rates,
		symbols: cfg.Symbols,
	}
}

// rate returns the units-per-USD rate for code, falling back to 1.0 for
// unknown codes. The fallback is a defined behavior, not an error.
func (c *Converter) rate(code string) float64 {
	if r, ok := c.rates[code]; ok {
		return r
	}
	return 1.0
}

// Convert converts amount from one currency to another via USD. When the
// codes are equal the amount is returned untouched, with no rounding.
// Otherwise the result is rounded half-up to 2 decimal places exactly once,
// after both legs of the conversion.
func (c *Converter) Convert(amount float64, from, to string) float64 {
	if from == to {
		return amount
	}

	usd := decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(c.rate(from)))
	target := usd.Mul(decimal.NewFromFloat(c.rate(to)))

	f, _ := target.Round(2).Float64()
	return f
}

// Supported reports whether a code is present in the rate table. Convert
// itself never rejects unknown codes; this exists for write paths that
// validate a household's base currency choice.
func (c *Converter) Supported(code string) bool {
	_, ok := c.rates[code]
	return ok
}

// Symbol returns the display symbol for a currency code, or the code itself
// when unmapped.
func (c *Converter) Symbol(code string) string {
	if s, ok := c.symbols[code]; ok {
		return s
	}
	return code
}
