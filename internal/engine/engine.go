package engine

import (
	"context"
	"time"

	"fenrir/internal/orderbook"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// DefaultViewerPollInterval is how often RunViewer drains the publish
// channel when the caller does not specify one.
const DefaultViewerPollInterval = 200 * time.Millisecond

// BookEngine drives a FullOrderBook from a FeedTransport and a
// SnapshotSource, and publishes a BookSnapshot after every applied feed
// message to a capacity-1 channel a Viewer can drain.
//
// The feed handler (this type) and the viewer are two logically parallel
// activities: BookEngine owns the book exclusively and never blocks on the
// viewer. The publish channel uses a non-blocking send and drops the newest
// snapshot on a full channel — the slot holds the oldest-unseen snapshot,
// not the newest, so the viewer is guaranteed to see *some* snapshot every
// drain interval without unbounded queuing. A "latest-wins" variant
// (overwrite on full) would trade a little viewer freshness lag for extra
// CPU; this engine keeps the oldest-unseen behavior instead.
type BookEngine struct {
	ProductID string
	Levels    int

	book      *orderbook.FullOrderBook
	transport FeedTransport

	publish chan BookSnapshot
	t       *tomb.Tomb
}

// New builds a BookEngine for productID, publishing the top `levels`
// prices per side. source is pulled for the initial snapshot and on every
// reload; transport is started on Run.
func New(productID string, levels int, source orderbook.SnapshotSource, transport FeedTransport) *BookEngine {
	e := &BookEngine{
		ProductID: productID,
		Levels:    levels,
		transport: transport,
		publish:   make(chan BookSnapshot, 1),
	}
	e.book = orderbook.New(productID, source)
	e.book.OnSequenceGap = func(from, to int64) {
		log.Warn().Str("product", productID).Int64("from", from).Int64("to", to).
			Msg("engine: book-level sequence gap")
	}
	return e
}

// Publish returns the capacity-1 channel BookSnapshots are delivered on.
func (e *BookEngine) Publish() <-chan BookSnapshot { return e.publish }

// Book exposes the underlying FullOrderBook, mainly for tests.
func (e *BookEngine) Book() *orderbook.FullOrderBook { return e.book }

// Run pulls the initial snapshot (retrying once a second until it succeeds)
// and starts the transport, blocking until ctx is cancelled or the transport
// fails. The transport's Start is expected
// to invoke this BookEngine's FeedSink callbacks synchronously from its own
// read loop, so that all book mutation happens on one goroutine.
func (e *BookEngine) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)
	e.t = t

	t.Go(func() error {
		for {
			err := e.book.LoadSnapshot(ctx)
			if err == nil {
				break
			}
			log.Error().Err(err).Str("product", e.ProductID).
				Msg("engine: initial snapshot load failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
		return e.transport.Start(ctx, e)
	})

	<-t.Dying()
	if err := e.transport.Close(); err != nil {
		log.Error().Err(err).Msg("engine: error closing transport")
	}
	return t.Err()
}

// Shutdown signals the engine's tomb to die, stopping the feed handler and
// closing the transport.
func (e *BookEngine) Shutdown() {
	if e.t != nil {
		e.t.Kill(nil)
	}
}

// --- FeedSink ---------------------------------------------------------

func (e *BookEngine) OnOpen() {
	log.Info().Str("product", e.ProductID).Msg("engine: feed connected")
}

func (e *BookEngine) OnClose() {
	log.Info().Str("product", e.ProductID).Msg("engine: feed closed")
}

func (e *BookEngine) OnMessage(msg orderbook.FeedMessage) {
	ctx := context.Background()
	if e.t != nil {
		ctx = e.t.Context(ctx)
	}
	if err := e.book.OnMessage(ctx, msg); err != nil {
		log.Error().Err(err).Str("product", e.ProductID).Int64("seq", msg.Sequence).
			Msg("engine: failed to apply feed message")
		return
	}
	e.publishSnapshot()
}

// OnSequenceGap is the transport-level gap notification: distinct from the
// book's own sequence-number bookkeeping, this fires when the transport
// itself detects missed deliveries (e.g. a heartbeat counter) and forces an
// immediate resync.
func (e *BookEngine) OnSequenceGap(from, to int64) {
	log.Warn().Str("product", e.ProductID).Int64("from", from).Int64("to", to).
		Msg("engine: transport-level sequence gap, forcing reload")
	ctx := context.Background()
	if e.t != nil {
		ctx = e.t.Context(ctx)
	}
	if err := e.book.LoadSnapshot(ctx); err != nil {
		log.Error().Err(err).Str("product", e.ProductID).Msg("engine: reload after gap failed")
	}
	e.publishSnapshot()
}

func (e *BookEngine) publishSnapshot() {
	if !e.book.Ready() {
		return
	}
	spread, _ := e.book.Spread()
	snap := BookSnapshot{
		ProductID: e.ProductID,
		TopBids:   e.book.Bids().TopN(e.Levels),
		TopAsks:   e.book.Asks().TopN(e.Levels),
		Spread:    spread,
		Sequence:  e.book.Sequence(),
	}
	select {
	case e.publish <- snap:
	default:
		// Channel full: drop the newest snapshot, keep the oldest-unseen
		// one in the slot.
	}
}

// RunViewer drains the publish channel on a periodic, non-blocking poll
// and forwards each snapshot to viewer. It runs independently of the
// engine's tomb: the viewer must never be able to block engine shutdown,
// and the engine must never be able to block on the viewer.
func RunViewer(ctx context.Context, publish <-chan BookSnapshot, viewer Viewer, pollInterval time.Duration) {
	if pollInterval <= 0 {
		pollInterval = DefaultViewerPollInterval
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case snap := <-publish:
				viewer.Render(snap)
			default:
			}
		}
	}
}
