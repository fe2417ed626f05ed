package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zhuravin/rentline/internal/chat"
	"github.com/zhuravin/rentline/internal/store"
)

// Digest delivers a scheduled statistics report to each administrator as a
// direct message.
type Digest struct {
	store   *store.Store
	adapter chat.Adapter
	admins  []string
	expr    string // 5-field cron expression
}

// DigestOpts holds parameters for creating a Digest.
type DigestOpts struct {
	Store   *store.Store
	Adapter chat.Adapter
	Admins  []string
	Cron    string
}

// NewDigest creates a Digest.
func NewDigest(opts DigestOpts) (*Digest, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("bot: digest: store is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: digest: adapter is required")
	}
	if len(opts.Admins) == 0 {
		return nil, fmt.Errorf("bot: digest: at least one admin is required")
	}
	if _, err := cronParser.Parse(opts.Cron); err != nil {
		return nil, fmt.Errorf("bot: digest: parse cron %q: %w", opts.Cron, err)
	}
	return &Digest{
		store:   opts.Store,
		adapter: opts.Adapter,
		admins:  opts.Admins,
		expr:    opts.Cron,
	}, nil
}

// Run fires the digest on schedule until the context is cancelled.
func (d *Digest) Run(ctx context.Context) {
	for {
		wait := nextCronDuration(d.expr)
		if wait == 0 {
			log.Printf("bot: digest: bad schedule %q, stopping", d.expr)
			return
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			d.Fire(ctx)
		}
	}
}

// Fire builds and delivers one digest immediately.
func (d *Digest) Fire(ctx context.Context) {
	stats, err := d.store.CollectStats()
	if err != nil {
		log.Printf("bot: digest: collect stats: %v", err)
		return
	}
	text := chat.FormatStats(stats)
	for _, admin := range d.admins {
		msg := chat.Message{UserID: admin, Text: text}
		if err := d.adapter.Send(ctx, msg); err != nil {
			log.Printf("bot: digest: send to %s: %v", admin, err)
		}
	}
}
