package book

import "github.com/tidwall/btree"

// levels is an ordered map Price -> *PriceLevel, backed by a generic BTree
// whose comparator encodes "which side is best" so lookups, inserts and
// best-price reads all stay O(log n) regardless of side.
type levels = btree.BTreeG[*PriceLevel]

// SideBook is an ordered map Price -> PriceLevel for one side of the book.
// No empty PriceLevel is ever stored: a level is deleted the instant its
// last order is removed.
type SideBook struct {
	side Side
	tree *levels
}

// NewSideBook builds an empty SideBook for side. Bids order with the
// highest price "best" (tree-first); asks order with the lowest price best.
func NewSideBook(side Side) *SideBook {
	var less func(a, b *PriceLevel) bool
	if side == Buy {
		less = func(a, b *PriceLevel) bool { return a.Price.GreaterThan(b.Price) }
	} else {
		less = func(a, b *PriceLevel) bool { return a.Price.LessThan(b.Price) }
	}
	return &SideBook{side: side, tree: btree.NewBTreeG(less)}
}

// GetLevel returns the level at price, if one exists.
func (sb *SideBook) GetLevel(price Price) (*PriceLevel, bool) {
	return sb.tree.Get(&PriceLevel{Price: price})
}

// InsertOrder finds or creates the level at order.Price and appends order
// to its tail.
func (sb *SideBook) InsertOrder(o *Order) {
	lvl, ok := sb.tree.GetMut(&PriceLevel{Price: o.Price})
	if !ok {
		lvl = newPriceLevel(o.Price, sb.side)
		sb.tree.Set(lvl)
	}
	lvl.Append(o)
}

// RemoveOrder removes the order with id from the level at price. If the
// level becomes empty, its key is deleted from the map. Reports whether an
// order was actually removed.
func (sb *SideBook) RemoveOrder(price Price, id string) bool {
	lvl, ok := sb.tree.GetMut(&PriceLevel{Price: price})
	if !ok {
		return false
	}
	removed := lvl.RemoveByID(id)
	if removed && lvl.IsEmpty() {
		sb.tree.Delete(&PriceLevel{Price: price})
	}
	return removed
}

// FindOrder returns the order with id at price, for in-place size mutation
// by match/change, or nil if no such order is resting at that price.
func (sb *SideBook) FindOrder(price Price, id string) *Order {
	lvl, ok := sb.tree.GetMut(&PriceLevel{Price: price})
	if !ok {
		return nil
	}
	return lvl.FindByID(id)
}

// Best returns the best price on this side (max for bids, min for asks).
func (sb *SideBook) Best() (Price, bool) {
	lvl, ok := sb.tree.Min()
	if !ok {
		return Zero, false
	}
	return lvl.Price, true
}

// Level is one row of a top_n result: a price and the aggregated size of
// every order resting at it.
type Level struct {
	Price Price
	Size  Size
}

// TopN returns the n best levels on this side, in best-first order. If
// fewer than n levels exist, the result is padded: Zero for a shallow bid
// side, Infinity for a shallow ask side — downstream spread computations
// must never see a negative or misleading value.
func (sb *SideBook) TopN(n int) []Level {
	out := make([]Level, 0, n)
	sb.tree.Scan(func(lvl *PriceLevel) bool {
		if len(out) >= n {
			return false
		}
		out = append(out, Level{Price: lvl.Price, Size: lvl.AggregatedSize()})
		return true
	})
	pad := Zero
	if sb.side == Sell {
		pad = Infinity
	}
	for len(out) < n {
		out = append(out, Level{Price: pad, Size: Zero})
	}
	return out
}

// Len reports how many distinct price levels are resting on this side.
func (sb *SideBook) Len() int { return sb.tree.Len() }

// Clear removes every level, used when a snapshot load resets the side.
func (sb *SideBook) Clear() {
	var less func(a, b *PriceLevel) bool
	if sb.side == Buy {
		less = func(a, b *PriceLevel) bool { return a.Price.GreaterThan(b.Price) }
	} else {
		less = func(a, b *PriceLevel) bool { return a.Price.LessThan(b.Price) }
	}
	sb.tree = btree.NewBTreeG(less)
}
