// Package notify fans out new-listing alerts to subscribed users.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zhuravin/rentline/internal/chat"
	"github.com/zhuravin/rentline/internal/models"
	"github.com/zhuravin/rentline/internal/store"
)

// Summary reports the outcome of one fan-out.
type Summary struct {
	Sent         int
	Failed       int
	Unsubscribed int // recipients auto-unsubscribed after a blocked delivery
}

// Notifier delivers new-listing alerts to every opted-in user, one at a time.
// A failure for one recipient never aborts delivery to the rest.
type Notifier struct {
	store   *store.Store
	adapter chat.Adapter
	exclude []string // admin identities, never notified
}

// Opts holds parameters for creating a Notifier.
type Opts struct {
	Store   *store.Store
	Adapter chat.Adapter
	Exclude []string
}

// New creates a Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("notify: store is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("notify: adapter is required")
	}
	return &Notifier{store: opts.Store, adapter: opts.Adapter, exclude: opts.Exclude}, nil
}

// Announce sends a new-listing alert to every opted-in user. The recipient
// set is snapshotted up front; users who block the bot are unsubscribed so
// the next fan-out skips them.
func (n *Notifier) Announce(ctx context.Context, listing *models.Listing) Summary {
	recipients, err := n.store.NotificationRecipients(n.exclude)
	if err != nil {
		log.Printf("notify: load recipients: %v", err)
		return Summary{}
	}

	var sum Summary
	for _, user := range recipients {
		msg := chat.Message{
			UserID:   user.ChatIdentity,
			Text:     chat.NewListingAlert,
			Keyboard: chat.ViewKeyboard(listing.ID),
		}
		if err := n.adapter.Send(ctx, msg); err != nil {
			sum.Failed++
			if errors.Is(err, chat.ErrRecipientBlocked) {
				if err := n.store.SetNotifications(user.ChatIdentity, false); err != nil {
					log.Printf("notify: unsubscribe %s: %v", user.ChatIdentity, err)
				} else {
					sum.Unsubscribed++
				}
				continue
			}
			log.Printf("notify: send to %s: %v", user.ChatIdentity, err)
			continue
		}
		sum.Sent++
	}

	log.Printf("notify: listing %d: %d sent, %d failed, %d unsubscribed",
		listing.ID, sum.Sent, sum.Failed, sum.Unsubscribed)
	return sum
}
