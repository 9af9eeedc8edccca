package transport

import (
	"context"
	"fmt"

	"fenrir/internal/book"
	"fenrir/internal/orderbook"

	resty "github.com/go-resty/resty/v2"
)

// RESTConfig configures a REST SnapshotSource.
type RESTConfig struct {
	BaseURL string
	Level   int // book depth level requested from the venue, typically 3 (full)
}

// RESTSnapshotSource implements orderbook.SnapshotSource over a REST
// endpoint returning the full book for a product.
type RESTSnapshotSource struct {
	client *resty.Client
	cfg    RESTConfig
}

// NewRESTSnapshotSource builds a RESTSnapshotSource from cfg.
func NewRESTSnapshotSource(cfg RESTConfig) *RESTSnapshotSource {
	if cfg.Level == 0 {
		cfg.Level = 3
	}
	return &RESTSnapshotSource{
		client: resty.New().SetBaseURL(cfg.BaseURL),
		cfg:    cfg,
	}
}

// snapshotResponse mirrors the REST payload: bids/asks as
// [price, size, order_id] string triples, plus the sequence number of the
// last incorporated update.
type snapshotResponse struct {
	Bids     [][3]string `json:"bids"`
	Asks     [][3]string `json:"asks"`
	Sequence int64       `json:"sequence"`
}

// Fetch requests the full order book for productID.
func (r *RESTSnapshotSource) Fetch(ctx context.Context, productID string) (orderbook.Snapshot, error) {
	var payload snapshotResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("level", fmt.Sprintf("%d", r.cfg.Level)).
		SetResult(&payload).
		Get(fmt.Sprintf("/products/%s/book", productID))
	if err != nil {
		return orderbook.Snapshot{}, fmt.Errorf("transport: snapshot request: %w", err)
	}
	if resp.IsError() {
		return orderbook.Snapshot{}, fmt.Errorf("transport: snapshot request: status %d", resp.StatusCode())
	}

	snap := orderbook.Snapshot{Sequence: payload.Sequence}
	snap.Bids, err = decodeSnapshotOrders(payload.Bids)
	if err != nil {
		return orderbook.Snapshot{}, err
	}
	snap.Asks, err = decodeSnapshotOrders(payload.Asks)
	if err != nil {
		return orderbook.Snapshot{}, err
	}
	return snap, nil
}

func decodeSnapshotOrders(rows [][3]string) ([]orderbook.SnapshotOrder, error) {
	out := make([]orderbook.SnapshotOrder, 0, len(rows))
	for _, row := range rows {
		price, err := book.ParsePrice(row[0])
		if err != nil {
			return nil, err
		}
		size, err := book.ParsePrice(row[1])
		if err != nil {
			return nil, err
		}
		out = append(out, orderbook.SnapshotOrder{Price: price, Size: size, OrderID: row[2]})
	}
	return out, nil
}
