// Package engine wires a FeedTransport and a SnapshotSource to a
// FullOrderBook and publishes BookSnapshots to a Viewer over a bounded
// channel. It only ever mirrors exchange-reported state; it never matches
// or crosses orders.
package engine

import (
	"context"

	"fenrir/internal/book"
	"fenrir/internal/orderbook"
)

// FeedTransport is the push collaborator: it delivers FeedMessages and
// connection-lifecycle events. Authentication, reconnect and backoff are
// the transport's own concern, out of scope here.
type FeedTransport interface {
	// Start begins delivering messages to sink until ctx is cancelled or
	// Close is called.
	Start(ctx context.Context, sink FeedSink) error
	Close() error
}

// FeedSink receives callbacks from a FeedTransport. BookEngine implements
// this to drive FullOrderBook.
type FeedSink interface {
	OnOpen()
	OnClose()
	OnMessage(msg orderbook.FeedMessage)
	OnSequenceGap(from, to int64)
}

// Viewer is the handoff contract for a rendering sink. Any rendering
// technology — a TUI, a GUI, a plain terminal printer — satisfies it by
// implementing Render.
type Viewer interface {
	Render(snap BookSnapshot)
}

// BookSnapshot is published to the Viewer after each applied feed message:
// the top-N levels per side plus the spread.
type BookSnapshot struct {
	ProductID string
	TopBids   []book.Level
	TopAsks   []book.Level
	Spread    book.Price
	Sequence  int64
}
