package bot

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/zhuravin/rentline/internal/chat"
)

// Daemon owns the bot's main loop: it connects the chat adapter, drains its
// event stream through the router, and runs the optional digest scheduler
// until the context is cancelled.
type Daemon struct {
	adapter chat.Adapter
	router  *Router
	digest  *Digest
	out     io.Writer
}

// DaemonOpts holds parameters for creating a Daemon.
type DaemonOpts struct {
	Adapter chat.Adapter
	Router  *Router
	Digest  *Digest // optional
	Out     io.Writer // defaults to os.Stdout
}

// NewDaemon creates a Daemon.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: daemon: adapter is required")
	}
	if opts.Router == nil {
		return nil, fmt.Errorf("bot: daemon: router is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Daemon{
		adapter: opts.Adapter,
		router:  opts.Router,
		digest:  opts.Digest,
		out:     out,
	}, nil
}

// Run connects the adapter and processes inbound events until the context
// is cancelled or the event stream closes. Events are handled sequentially,
// preserving per-user arrival order.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("bot: daemon: connect: %w", err)
	}
	defer d.adapter.Close()

	events, err := d.adapter.Listen(ctx)
	if err != nil {
		return fmt.Errorf("bot: daemon: listen: %w", err)
	}

	if d.digest != nil {
		go d.digest.Run(ctx)
	}

	fmt.Fprintf(d.out, "bot: daemon: running\n")
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "bot: daemon: shutting down\n")
			return nil
		case ev, ok := <-events:
			if !ok {
				fmt.Fprintf(d.out, "bot: daemon: event stream closed\n")
				return nil
			}
			d.router.Handle(ctx, ev)
		}
	}
}
