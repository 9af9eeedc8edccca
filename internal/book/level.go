package book

// PriceLevel is the ordered sequence of live orders resting at a single
// price on one side. Order within a level is arrival order: the first order
// appended is the front. All orders in a level share its price and side, and
// no two orders in a level share an order id.
type PriceLevel struct {
	Price  Price
	Side   Side
	Orders []*Order
}

func newPriceLevel(price Price, side Side) *PriceLevel {
	return &PriceLevel{Price: price, Side: side}
}

// Append adds order to the tail of the level.
func (lvl *PriceLevel) Append(o *Order) {
	lvl.Orders = append(lvl.Orders, o)
}

// FindByID returns the order matching id, or nil. Callers may mutate the
// returned order's Size in place (e.g. to apply a match or change).
func (lvl *PriceLevel) FindByID(id string) *Order {
	for _, o := range lvl.Orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// RemoveByID removes the first order with the given id and reports whether
// one was found. Duplicate ids are not expected; if encountered, the first
// match (in arrival order) is removed.
func (lvl *PriceLevel) RemoveByID(id string) bool {
	for i, o := range lvl.Orders {
		if o.ID == id {
			lvl.Orders = append(lvl.Orders[:i], lvl.Orders[i+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty reports whether the level has no live orders.
func (lvl *PriceLevel) IsEmpty() bool { return len(lvl.Orders) == 0 }

// AggregatedSize sums order.Size over every order in the level.
func (lvl *PriceLevel) AggregatedSize() Size {
	total := Zero
	for _, o := range lvl.Orders {
		total = total.Add(o.Size)
	}
	return total
}
