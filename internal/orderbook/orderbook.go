// Package orderbook implements the full-channel order book: the two-sided
// book plus the sequence state machine that reconciles an asynchronous
// delta feed with a one-shot REST snapshot.
package orderbook

import (
	"context"
	"errors"
	"fmt"

	"fenrir/internal/book"

	"github.com/rs/zerolog/log"
)

// ErrSnapshot wraps a SnapshotSource failure; the caller stays in Loading
// and the engine is expected to retry.
var ErrSnapshot = errors.New("orderbook: snapshot fetch failed")

// state is the book's lifecycle: a named type instead of integer sequence
// sentinels, so the lifecycle is never confused with a sequence number.
type state int

const (
	stateNeedsLoad state = iota
	stateLoading
	stateReady
)

func (s state) String() string {
	switch s {
	case stateNeedsLoad:
		return "needs_load"
	case stateLoading:
		return "loading"
	case stateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// defaultMaxPending bounds the replay buffer while a snapshot is in
// flight, dropping the oldest buffered message on overflow and relying on
// the next message's sequence gap to trigger a fresh reload.
const defaultMaxPending = 4096

// FullOrderBook is the two-sided order book: bids, asks, the sequence state
// machine, and the pending-message buffer used while a snapshot load is in
// flight.
type FullOrderBook struct {
	productID string
	source    SnapshotSource

	state    state
	sequence int64 // only meaningful when state == stateReady

	bids *book.SideBook
	asks *book.SideBook

	pending    []FeedMessage
	maxPending int

	// OnSequenceGap, if set, is invoked whenever a gap is detected (from, to),
	// so a caller can log or count it without FullOrderBook depending on a
	// logging-specific callback signature.
	OnSequenceGap func(from, to int64)
}

// New constructs a FullOrderBook in the NEEDS_LOAD state for productID,
// pulling snapshots from source.
func New(productID string, source SnapshotSource) *FullOrderBook {
	return &FullOrderBook{
		productID:  productID,
		source:     source,
		state:      stateNeedsLoad,
		bids:       book.NewSideBook(book.Buy),
		asks:       book.NewSideBook(book.Sell),
		maxPending: defaultMaxPending,
	}
}

// Sequence returns the last successfully applied sequence number, or -1
// whenever the book is not ready (before the first snapshot load completes,
// or while a reload is pending).
func (fb *FullOrderBook) Sequence() int64 {
	if fb.state != stateReady {
		return -1
	}
	return fb.sequence
}

// Ready reports whether the book has a snapshot installed and is applying
// feed messages; it is false again while a reload is pending.
func (fb *FullOrderBook) Ready() bool { return fb.state == stateReady }

// Bids and Asks expose the two sides for top-of-book / top-N reads.
func (fb *FullOrderBook) Bids() *book.SideBook { return fb.bids }
func (fb *FullOrderBook) Asks() *book.SideBook { return fb.asks }

// Spread returns bestAsk - bestBid, or false if either side is empty.
func (fb *FullOrderBook) Spread() (book.Price, bool) {
	bid, ok := fb.bids.Best()
	if !ok {
		return book.Zero, false
	}
	ask, ok := fb.asks.Best()
	if !ok {
		return book.Zero, false
	}
	return ask.Sub(bid), true
}

// OnMessage is the single entry point for feed delivery.
func (fb *FullOrderBook) OnMessage(ctx context.Context, msg FeedMessage) error {
	switch fb.state {
	case stateNeedsLoad:
		fb.appendPending(msg)
		fb.state = stateLoading
		return fb.LoadSnapshot(ctx)
	case stateLoading:
		fb.appendPending(msg)
		return nil
	default: // stateReady
		return fb.applyReady(ctx, msg)
	}
}

// applyReady runs the book's steady-state message handling: discard stale
// messages, trigger a reload on a gap, or apply a contiguous message.
func (fb *FullOrderBook) applyReady(ctx context.Context, msg FeedMessage) error {
	switch {
	case msg.Sequence <= fb.sequence:
		// Stale or duplicate: silently discard.
		return nil
	case msg.Sequence > fb.sequence+1:
		from, to := fb.sequence, msg.Sequence
		log.Warn().Int64("from", from).Int64("to", to).Str("product", fb.productID).
			Msg("orderbook: sequence gap detected, reloading")
		if fb.OnSequenceGap != nil {
			fb.OnSequenceGap(from, to)
		}
		fb.state = stateNeedsLoad
		// Re-enter message handling from the top with msg still buffered.
		return fb.OnMessage(ctx, msg)
	default: // msg.Sequence == fb.sequence+1
		fb.dispatch(msg)
		fb.sequence = msg.Sequence
		return nil
	}
}

// dispatch applies msg by type. Only reached once the book is ready and the
// message is contiguous with the last applied sequence number.
func (fb *FullOrderBook) dispatch(msg FeedMessage) {
	switch msg.Type {
	case Open:
		fb.applyOpen(msg)
	case Done:
		if msg.PriceSet {
			fb.sideBook(msg.Side).RemoveOrder(msg.Price, msg.OrderID)
		}
		// Done without a price is a market order terminating: ignore.
	case Match:
		fb.applyMatch(msg)
	case Change:
		if msg.NewSizeSet && msg.PriceSet {
			fb.applyChange(msg)
		}
		// Otherwise ignore: a change needs both fields to be actionable.
	default:
		// received, activate, and any future type: ignore.
	}
}

func (fb *FullOrderBook) applyOpen(msg FeedMessage) {
	size := msg.RemainingSize
	if size.IsZero() && msg.Size.IsPositive() {
		size = msg.Size
	}
	fb.sideBook(msg.Side).InsertOrder(&book.Order{
		ID:    msg.OrderID,
		Side:  msg.Side,
		Price: msg.Price,
		Size:  size,
	})
}

func (fb *FullOrderBook) applyMatch(msg FeedMessage) {
	sb := fb.sideBook(msg.Side)
	maker := sb.FindOrder(msg.Price, msg.MakerOrderID)
	if maker == nil {
		// The maker may have already been filled or cancelled out from
		// under us; silently ignore.
		return
	}
	maker.Size = maker.Size.Sub(msg.Size)
	if !maker.Size.IsPositive() {
		sb.RemoveOrder(msg.Price, msg.MakerOrderID)
	}
}

func (fb *FullOrderBook) applyChange(msg FeedMessage) {
	sb := fb.sideBook(msg.Side)
	order := sb.FindOrder(msg.Price, msg.OrderID)
	if order == nil {
		return
	}
	// Overwrite size in place, even to zero, without removing the order:
	// a change event resizes a resting order, it never closes it.
	order.Size = msg.NewSize
}

func (fb *FullOrderBook) sideBook(side book.Side) *book.SideBook {
	if side == book.Buy {
		return fb.bids
	}
	return fb.asks
}

// appendPending buffers msg while the book is not ready. Overflow drops the
// oldest buffered message rather than growing unboundedly.
func (fb *FullOrderBook) appendPending(msg FeedMessage) {
	if len(fb.pending) >= fb.maxPending {
		fb.pending = fb.pending[1:]
	}
	fb.pending = append(fb.pending, msg)
}

// LoadSnapshot pulls a fresh snapshot from the SnapshotSource, installs it,
// and replays any messages buffered while the pull was in flight. It may be
// called directly (initial start) or re-entrantly from OnMessage's
// needs-load/gap branches.
func (fb *FullOrderBook) LoadSnapshot(ctx context.Context) error {
	fb.state = stateLoading

	// Drain pending to a fresh buffer; any message arriving through
	// OnMessage during Fetch (re-entrantly, on the same goroutine) lands in
	// the new buffer, which is replayed after the drained messages.
	drained := fb.pending
	fb.pending = nil

	snap, err := fb.source.Fetch(ctx, fb.productID)
	if err != nil {
		// State stays Loading; caller is expected to retry with backoff.
		fb.pending = append(drained, fb.pending...)
		return fmt.Errorf("%w: product %s: %v", ErrSnapshot, fb.productID, err)
	}

	fb.bids.Clear()
	fb.asks.Clear()
	for _, o := range snap.Bids {
		fb.bids.InsertOrder(&book.Order{ID: o.OrderID, Side: book.Buy, Price: o.Price, Size: o.Size})
	}
	for _, o := range snap.Asks {
		fb.asks.InsertOrder(&book.Order{ID: o.OrderID, Side: book.Sell, Price: o.Price, Size: o.Size})
	}
	fb.sequence = snap.Sequence
	fb.state = stateReady

	log.Info().Str("product", fb.productID).Int64("sequence", snap.Sequence).
		Int("bids", len(snap.Bids)).Int("asks", len(snap.Asks)).
		Msg("orderbook: snapshot loaded")

	replay := append(drained, fb.pending...)
	fb.pending = nil
	for _, msg := range replay {
		if err := fb.applyReady(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}
