package orderbook

import "fenrir/internal/book"

// MessageType tags a feed message's kind.
type MessageType string

const (
	Open     MessageType = "open"
	Done     MessageType = "done"
	Match    MessageType = "match"
	Change   MessageType = "change"
	Received MessageType = "received"
	Activate MessageType = "activate"
)

// FeedMessage is the tagged structure delivered by a FeedTransport. Fields
// that do not apply to a message's Type are left at their zero value; the
// *Set booleans distinguish "absent" from "present but zero", which matters
// for Done (price present vs absent) and Change (new_size/price present).
type FeedMessage struct {
	Type           MessageType
	Sequence       int64
	Side           book.Side
	OrderID        string
	MakerOrderID   string
	Price          book.Price
	PriceSet       bool
	Size           book.Size
	RemainingSize  book.Size
	NewSize        book.Size
	NewSizeSet     bool
}

// Snapshot is the one-shot REST response: the full book state plus the
// sequence of the last incorporated update.
type Snapshot struct {
	Bids     []SnapshotOrder
	Asks     []SnapshotOrder
	Sequence int64
}

// SnapshotOrder is a single resting order as reported by the snapshot feed.
type SnapshotOrder struct {
	Price   book.Price
	Size    book.Size
	OrderID string
}
