package orderbook

import "context"

// SnapshotSource is the one-shot REST collaborator: fetch the full book for
// a product. It is pulled by FullOrderBook.LoadSnapshot on initial start and
// on every sequence-gap reload.
type SnapshotSource interface {
	Fetch(ctx context.Context, productID string) (Snapshot, error)
}
