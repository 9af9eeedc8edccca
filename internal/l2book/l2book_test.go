package l2book

import (
	"testing"

	"fenrir/internal/book"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lvl(price, size string) Level {
	return Level{Price: book.MustParsePrice(price), Size: book.MustParsePrice(size)}
}

func TestApplySnapshot_ResetsBothSides(t *testing.T) {
	b := New()
	b.ApplySnapshot(L2Snapshot{
		Bids: []Level{lvl("100.00", "1.0"), lvl("99.00", "2.0")},
		Asks: []Level{lvl("101.00", "1.5")},
	})

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(book.MustParsePrice("100.00")))

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Equal(book.MustParsePrice("101.00")))
}

func TestApplyUpdate_OverwritesExistingPrice(t *testing.T) {
	b := New()
	b.ApplySnapshot(L2Snapshot{Bids: []Level{lvl("100.00", "1.0")}})

	b.ApplyUpdate(L2Update{Side: book.Buy, Price: book.MustParsePrice("100.00"), Size: book.MustParsePrice("5.0")})

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(book.MustParsePrice("100.00")))

	level, ok := b.bids.GetLevel(book.MustParsePrice("100.00"))
	require.True(t, ok)
	assert.True(t, level.AggregatedSize().Equal(book.MustParsePrice("5.0")))
}

func TestApplyUpdate_ZeroSizeRemovesPrice(t *testing.T) {
	b := New()
	b.ApplySnapshot(L2Snapshot{Bids: []Level{lvl("100.00", "1.0"), lvl("99.00", "1.0")}})

	b.ApplyUpdate(L2Update{Side: book.Buy, Price: book.MustParsePrice("100.00"), Size: book.Zero})

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(book.MustParsePrice("99.00")), "best bid must fall back to the next level after removal")
}

func TestBestBidAsk_EmptySide(t *testing.T) {
	b := New()
	_, ok := b.BestBid()
	assert.False(t, ok)
	_, ok = b.BestAsk()
	assert.False(t, ok)
}
