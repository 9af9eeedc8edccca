// Package viewer provides a concrete Viewer: a terminal renderer that
// prints a BookSnapshot in a box-drawing, fixed-width layout.
package viewer

import (
	"fmt"
	"io"

	"fenrir/internal/engine"
)

// CLI is a Viewer that writes a human-readable book dump to an io.Writer.
// It never touches book state directly — it only ever sees the BookSnapshot
// values handed to it over the engine's publish channel.
type CLI struct {
	w io.Writer
}

// NewCLI returns a CLI viewer writing to w.
func NewCLI(w io.Writer) *CLI {
	return &CLI{w: w}
}

// Render prints snap to the underlying writer.
func (c *CLI) Render(snap engine.BookSnapshot) {
	fmt.Fprintf(c.w, "\n═══════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(c.w, "  %s order book (seq %d)\n", snap.ProductID, snap.Sequence)
	fmt.Fprintf(c.w, "═══════════════════════════════════════════════════════════════\n\n")

	fmt.Fprintf(c.w, "  %-15s %-15s\n", "ASK SIZE", "ASK PRICE")
	fmt.Fprintf(c.w, "  %-15s %-15s\n", "--------", "---------")
	for i := len(snap.TopAsks) - 1; i >= 0; i-- {
		lvl := snap.TopAsks[i]
		fmt.Fprintf(c.w, "  %-15s %-15s\n", lvl.Size.StringFixed(4), lvl.Price.StringFixed(2))
	}

	fmt.Fprintf(c.w, "\n  %-15s %s\n\n", "SPREAD", snap.Spread.StringFixed(2))

	fmt.Fprintf(c.w, "  %-15s %-15s\n", "BID SIZE", "BID PRICE")
	fmt.Fprintf(c.w, "  %-15s %-15s\n", "--------", "---------")
	for _, lvl := range snap.TopBids {
		fmt.Fprintf(c.w, "  %-15s %-15s\n", lvl.Size.StringFixed(4), lvl.Price.StringFixed(2))
	}
	fmt.Fprintln(c.w)
}
