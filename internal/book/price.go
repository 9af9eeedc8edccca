// Package book holds the per-order, per-price-level primitives that make up
// one side of an order book: Price, Order, PriceLevel and SideBook.
package book

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrParse is returned when a price or size string is not a valid decimal.
var ErrParse = errors.New("book: invalid decimal")

// Price is an exact, fixed-precision value used for both prices and sizes.
// It is a thin wrapper over decimal.Decimal so that float64 never touches
// the book: all arithmetic and comparisons are exact.
//
// inf marks the positive-unbounded sentinel (Infinity below). It is never
// produced by parsing or arithmetic, only by the Infinity constant itself,
// so ordinary Price values never need to check it.
type Price struct {
	d   decimal.Decimal
	inf bool
}

// Zero is the additive identity, and the padding value top_n uses for a
// shallow bid side.
var Zero = Price{d: decimal.Zero}

// Infinity is a positive-unbounded sentinel used to pad a shallow ask side
// so that downstream spread computations never go negative or misleading.
// It compares greater than every finite Price and must not be used in
// arithmetic.
var Infinity = Price{inf: true}

// ParsePrice parses a decimal string such as "100.50" into a Price.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("%w: %q: %v", ErrParse, s, err)
	}
	return Price{d: d}, nil
}

// MustParsePrice is ParsePrice but panics on a malformed string; useful in
// tests and for compile-time-known constants.
func MustParsePrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Price) Add(o Price) Price { return Price{d: p.d.Add(o.d)} }
func (p Price) Sub(o Price) Price { return Price{d: p.d.Sub(o.d)} }

// Cmp returns -1, 0 or 1 as p is less than, equal to, or greater than o.
// Infinity compares greater than any finite value and equal to itself.
func (p Price) Cmp(o Price) int {
	switch {
	case p.inf && o.inf:
		return 0
	case p.inf:
		return 1
	case o.inf:
		return -1
	default:
		return p.d.Cmp(o.d)
	}
}

func (p Price) LessThan(o Price) bool    { return p.Cmp(o) < 0 }
func (p Price) GreaterThan(o Price) bool { return p.Cmp(o) > 0 }
func (p Price) Equal(o Price) bool       { return p.Cmp(o) == 0 }

// IsZero reports whether p is exactly zero.
func (p Price) IsZero() bool { return !p.inf && p.d.IsZero() }

// IsPositive reports whether p is strictly greater than zero. Size uses this
// to enforce the "size > 0 while live" invariant.
func (p Price) IsPositive() bool { return p.inf || p.d.IsPositive() }

// StringFixed formats p with exactly places fractional digits. Infinity
// formats as "+Inf" regardless of places.
func (p Price) StringFixed(places int32) string {
	if p.inf {
		return "+Inf"
	}
	return p.d.StringFixed(places)
}

func (p Price) String() string {
	if p.inf {
		return "+Inf"
	}
	return p.d.String()
}

// Size is an alias of Price: both are exact decimals, but keeping the name
// distinct documents intent at call sites.
type Size = Price
