package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fenrir/internal/engine"
	"fenrir/internal/transport"
	"fenrir/internal/viewer"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	product := flag.String("product", "BTC-USD", "product id to stream")
	levels := flag.Int("levels", 10, "number of top-of-book levels to publish per side")
	wsURL := flag.String("ws-url", "wss://ws-feed.exchange.example/", "full-channel websocket feed url")
	restURL := flag.String("rest-url", "https://api.exchange.example", "REST base url for snapshot requests")
	pollInterval := flag.Duration("poll-interval", engine.DefaultViewerPollInterval, "viewer drain interval")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := transport.NewRESTSnapshotSource(transport.RESTConfig{BaseURL: *restURL})
	feed := transport.NewWS(transport.WSConfig{
		URL:       *wsURL,
		ProductID: *product,
		Channels:  []string{"full"},
	})

	eng := engine.New(*product, *levels, source, feed)
	view := viewer.NewCLI(os.Stdout)

	go engine.RunViewer(ctx, eng.Publish(), view, *pollInterval)

	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("fenrir: engine exited with error")
		os.Exit(1)
	}
}
