package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice_Valid(t *testing.T) {
	p, err := ParsePrice("100.50")
	require.NoError(t, err)
	assert.Equal(t, "100.50", p.StringFixed(2))
}

func TestParsePrice_Invalid(t *testing.T) {
	_, err := ParsePrice("not-a-decimal")
	assert.ErrorIs(t, err, ErrParse)
}

func TestPrice_ExactArithmetic(t *testing.T) {
	// 0.1 + 0.2 must be exact decimal, unlike float64.
	a := MustParsePrice("0.1")
	b := MustParsePrice("0.2")
	assert.True(t, a.Add(b).Equal(MustParsePrice("0.3")))
}

func TestPrice_Comparisons(t *testing.T) {
	lo := MustParsePrice("99.00")
	hi := MustParsePrice("100.00")
	assert.True(t, lo.LessThan(hi))
	assert.True(t, hi.GreaterThan(lo))
	assert.False(t, lo.Equal(hi))
	assert.True(t, lo.Equal(MustParsePrice("99.00")))
}

func TestInfinity_ComparesGreaterThanAnyFinitePrice(t *testing.T) {
	p := MustParsePrice("1000000.00")
	assert.True(t, Infinity.GreaterThan(p))
	assert.True(t, p.LessThan(Infinity))
	assert.True(t, Infinity.Equal(Infinity))
}

func TestZero_IsNonPositiveSentinel(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, Zero.IsPositive())
	assert.True(t, MustParsePrice("0.01").IsPositive())
}
