// Package l2book implements the coarser level-2 aggregated book variant:
// size-per-price only, with no per-order identity and no sequence discipline.
// Reconnect and resubscribe is the transport's recovery mechanism here, not
// this package's concern.
package l2book

import (
	"fenrir/internal/book"
)

// Level is one size-per-price row of a level-2 snapshot or update.
type Level struct {
	Price book.Price
	Size  book.Size
}

// L2Snapshot is the full level-2 book reset payload.
type L2Snapshot struct {
	Bids []Level
	Asks []Level
}

// L2Update is a single price-level overwrite or removal.
type L2Update struct {
	Side  book.Side
	Price book.Price
	Size  book.Size
}

// aggregateOrderID is the synthetic order id every level-2 price is stored
// under in the underlying SideBook. A level-2 feed has no order identity of
// its own, so each price holds exactly one "order" carrying the whole
// level's aggregated size.
const aggregateOrderID = "l2-aggregate"

// L2AggregatedBook is a price -> aggregate-size book driven by a level-2
// feed. It reuses book.SideBook's btree-ordered price map for both sides,
// so BestBid/BestAsk stay O(log n) and price equality follows decimal value
// rather than string formatting.
type L2AggregatedBook struct {
	bids *book.SideBook
	asks *book.SideBook
}

// New returns an empty L2AggregatedBook.
func New() *L2AggregatedBook {
	return &L2AggregatedBook{
		bids: book.NewSideBook(book.Buy),
		asks: book.NewSideBook(book.Sell),
	}
}

// ApplySnapshot resets both sides to snap.
func (b *L2AggregatedBook) ApplySnapshot(snap L2Snapshot) {
	b.bids.Clear()
	b.asks.Clear()
	for _, lvl := range snap.Bids {
		b.bids.InsertOrder(&book.Order{ID: aggregateOrderID, Side: book.Buy, Price: lvl.Price, Size: lvl.Size})
	}
	for _, lvl := range snap.Asks {
		b.asks.InsertOrder(&book.Order{ID: aggregateOrderID, Side: book.Sell, Price: lvl.Price, Size: lvl.Size})
	}
}

// ApplyUpdate overwrites the level at upd.Price with upd.Size, or removes it
// entirely when upd.Size is zero.
func (b *L2AggregatedBook) ApplyUpdate(upd L2Update) {
	side := b.bids
	if upd.Side == book.Sell {
		side = b.asks
	}
	if upd.Size.IsZero() {
		side.RemoveOrder(upd.Price, aggregateOrderID)
		return
	}
	if o := side.FindOrder(upd.Price, aggregateOrderID); o != nil {
		o.Size = upd.Size
		return
	}
	side.InsertOrder(&book.Order{ID: aggregateOrderID, Side: upd.Side, Price: upd.Price, Size: upd.Size})
}

// BestBid returns the highest bid price, or false if the bid side is empty.
func (b *L2AggregatedBook) BestBid() (book.Price, bool) {
	return b.bids.Best()
}

// BestAsk returns the lowest ask price, or false if the ask side is empty.
func (b *L2AggregatedBook) BestAsk() (book.Price, bool) {
	return b.asks.Best()
}
