package engine

import (
	"context"
	"testing"
	"time"

	"fenrir/internal/book"
	"fenrir/internal/orderbook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSnapshotSource serves one canned snapshot per Fetch call.
type fakeSnapshotSource struct {
	snapshots []orderbook.Snapshot
	calls     int
}

func (f *fakeSnapshotSource) Fetch(ctx context.Context, productID string) (orderbook.Snapshot, error) {
	idx := f.calls
	if idx > len(f.snapshots)-1 {
		idx = len(f.snapshots) - 1
	}
	f.calls++
	return f.snapshots[idx], nil
}

// blockingTransport calls OnOpen and then delivers nothing on its own; tests
// drive the engine's FeedSink methods directly, since BookEngine implements
// FeedSink itself.
type blockingTransport struct {
	closed chan struct{}
}

func newBlockingTransport() *blockingTransport {
	return &blockingTransport{closed: make(chan struct{})}
}

func (b *blockingTransport) Start(ctx context.Context, sink FeedSink) error {
	sink.OnOpen()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.closed:
		return nil
	}
}

func (b *blockingTransport) Close() error {
	close(b.closed)
	return nil
}

func snapOrder(price, size, id string) orderbook.SnapshotOrder {
	return orderbook.SnapshotOrder{Price: book.MustParsePrice(price), Size: book.MustParsePrice(size), OrderID: id}
}

func newTestEngine() (*BookEngine, *fakeSnapshotSource) {
	src := &fakeSnapshotSource{snapshots: []orderbook.Snapshot{
		{
			Sequence: 100,
			Bids:     []orderbook.SnapshotOrder{snapOrder("100.00", "1.0", "a")},
			Asks:     []orderbook.SnapshotOrder{snapOrder("101.00", "2.0", "b")},
		},
	}}
	eng := New("BTC-USD", 5, src, newBlockingTransport())
	return eng, src
}

func TestBookEngine_PublishesAfterAppliedMessage(t *testing.T) {
	eng, _ := newTestEngine()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go eng.Run(ctx)
	require.Eventually(t, eng.Book().Ready, time.Second, time.Millisecond)

	eng.OnMessage(orderbook.FeedMessage{
		Type: orderbook.Open, Sequence: 101, Side: book.Buy, OrderID: "c",
		Price: book.MustParsePrice("100.50"), PriceSet: true,
		RemainingSize: book.MustParsePrice("0.5"),
	})

	select {
	case snap := <-eng.Publish():
		require.True(t, snap.TopBids[0].Price.Equal(book.MustParsePrice("100.50")))
		assert.Equal(t, int64(101), snap.Sequence)
	case <-time.After(time.Second):
		t.Fatal("expected a published snapshot")
	}

	eng.Shutdown()
}

func TestBookEngine_DropsSnapshotOnFullChannel(t *testing.T) {
	eng, _ := newTestEngine()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go eng.Run(ctx)
	require.Eventually(t, eng.Book().Ready, time.Second, time.Millisecond)

	// First message fills the capacity-1 channel; do not drain it.
	eng.OnMessage(orderbook.FeedMessage{
		Type: orderbook.Open, Sequence: 101, Side: book.Buy, OrderID: "c",
		Price: book.MustParsePrice("100.50"), PriceSet: true,
		RemainingSize: book.MustParsePrice("0.5"),
	})
	// Second message should be dropped (newest-drop-on-full): the channel
	// keeps holding the oldest-unseen snapshot, for seq 101.
	eng.OnMessage(orderbook.FeedMessage{
		Type: orderbook.Open, Sequence: 102, Side: book.Buy, OrderID: "d",
		Price: book.MustParsePrice("100.75"), PriceSet: true,
		RemainingSize: book.MustParsePrice("0.1"),
	})

	select {
	case snap := <-eng.Publish():
		assert.Equal(t, int64(101), snap.Sequence, "channel must hold the oldest-unseen snapshot, not the newest")
	case <-time.After(time.Second):
		t.Fatal("expected a published snapshot")
	}
	// Nothing else queued: the seq-102 snapshot was dropped, not enqueued.
	select {
	case snap := <-eng.Publish():
		t.Fatalf("unexpected second snapshot: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}

	eng.Shutdown()
}

func TestBookEngine_TransportLevelGapForcesReload(t *testing.T) {
	src := &fakeSnapshotSource{snapshots: []orderbook.Snapshot{
		{Sequence: 100, Bids: []orderbook.SnapshotOrder{snapOrder("100.00", "1.0", "a")}},
		{Sequence: 200, Bids: []orderbook.SnapshotOrder{snapOrder("150.00", "1.0", "z")}},
	}}
	eng := New("BTC-USD", 5, src, newBlockingTransport())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go eng.Run(ctx)
	require.Eventually(t, eng.Book().Ready, time.Second, time.Millisecond)
	require.Equal(t, int64(100), eng.Book().Sequence())

	eng.OnSequenceGap(100, 150)
	require.Eventually(t, func() bool { return eng.Book().Sequence() == 200 }, time.Second, time.Millisecond)

	eng.Shutdown()
}
