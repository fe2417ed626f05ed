// Package bot routes inbound chat events to the conversation engine, the
// feed engine, or static command handlers, and runs the daemon loop.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/zhuravin/rentline/internal/chat"
	"github.com/zhuravin/rentline/internal/conversation"
	"github.com/zhuravin/rentline/internal/feed"
	"github.com/zhuravin/rentline/internal/store"
)

// Slash commands.
const (
	CommandStart         = "/start"
	CommandBrowse        = "/browse"
	CommandNotifications = "/notifications"
	CommandAdmin         = "/admin"
)

// Router classifies inbound chat events and routes them: global cancel
// first, then flow-owned signals to the conversation engine, browsing
// actions to the feed engine, admin actions behind the admin gate, and
// free-form text/media to whichever conversation is active.
type Router struct {
	store   *store.Store
	conv    *conversation.Engine
	feed    *feed.Engine
	adapter chat.Adapter
	admins  map[string]bool
	out     io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	Store        *store.Store
	Conversation *conversation.Engine
	Feed         *feed.Engine
	Adapter      chat.Adapter
	Admins       []string
	Out          io.Writer // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("bot: router: store is required")
	}
	if opts.Conversation == nil {
		return nil, fmt.Errorf("bot: router: conversation engine is required")
	}
	if opts.Feed == nil {
		return nil, fmt.Errorf("bot: router: feed engine is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: router: adapter is required")
	}
	admins := make(map[string]bool, len(opts.Admins))
	for _, id := range opts.Admins {
		admins[id] = true
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		store:   opts.Store,
		conv:    opts.Conversation,
		feed:    opts.Feed,
		adapter: opts.Adapter,
		admins:  admins,
		out:     out,
	}, nil
}

// IsAdmin reports whether a chat identity is an administrator.
func (r *Router) IsAdmin(chatIdentity string) bool {
	return r.admins[chatIdentity]
}

// Handle classifies and routes a single inbound event. Routing paths:
//  1. Register/refresh the sender.
//  2. Global cancel — priority override from any state.
//  3. Button actions (browse, admin, flow signals).
//  4. Slash commands.
//  5. Photos and free text — to the active conversation, else ignored.
func (r *Router) Handle(ctx context.Context, ev chat.Event) {
	if _, err := r.store.UpsertUser(ev.UserID, ev.UserName, ev.FirstName, ev.LastName); err != nil {
		log.Printf("bot: router: upsert user %s: %v", ev.UserID, err)
	}

	if ev.IsAction() {
		fmt.Fprintf(r.out, "bot: router: action [user=%s] %q\n", ev.UserID, ev.Action)
		r.handleAction(ctx, ev)
		return
	}

	text := strings.TrimSpace(ev.Text)
	if strings.HasPrefix(text, "/") {
		fmt.Fprintf(r.out, "bot: router: command [user=%s] %q\n", ev.UserID, text)
		r.handleCommand(ctx, ev, text)
		return
	}

	if ev.IsPhoto() {
		if r.conv.Active(ev.UserID) {
			r.conv.HandlePhoto(ctx, ev)
		}
		return
	}

	if text != "" && r.conv.Active(ev.UserID) {
		r.conv.HandleText(ctx, ev)
		return
	}

	fmt.Fprintf(r.out, "bot: router: ignore [user=%s]\n", ev.UserID)
}

func (r *Router) handleCommand(ctx context.Context, ev chat.Event, text string) {
	switch strings.Fields(text)[0] {
	case CommandStart:
		r.send(ctx, ev.ChannelID, chat.Message{Text: chat.WelcomeMessage, Keyboard: chat.StartKeyboard()})
	case CommandBrowse:
		r.feed.ShowFirst(ctx, ev.UserID, ev.ChannelID)
	case CommandNotifications:
		r.toggleNotifications(ctx, ev)
	case CommandAdmin:
		if !r.gate(ctx, ev) {
			return
		}
		r.send(ctx, ev.ChannelID, chat.Message{Text: chat.AdminMenuMessage, Keyboard: chat.AdminMenuKeyboard()})
	default:
		r.send(ctx, ev.ChannelID, chat.Message{Text: chat.WelcomeMessage, Keyboard: chat.StartKeyboard()})
	}
}

func (r *Router) handleAction(ctx context.Context, ev chat.Event) {
	// Cancel overrides everything, regardless of flow state.
	if ev.Action == chat.ActionCancel {
		r.conv.Cancel(ctx, ev.UserID, ev.ChannelID)
		return
	}

	switch ev.Action {
	case chat.ActionShowAds:
		r.feed.ShowFirst(ctx, ev.UserID, ev.ChannelID)
		return
	case chat.ActionToggleNotifications:
		r.toggleNotifications(ctx, ev)
		return
	case chat.ActionPhotosDone, chat.ActionConfirm:
		if !r.gate(ctx, ev) {
			return
		}
		r.conv.HandleAction(ctx, ev)
		return
	case chat.ActionAddListing:
		if !r.gate(ctx, ev) {
			return
		}
		r.conv.StartAdd(ctx, ev.UserID, ev.ChannelID)
		return
	case chat.ActionAddPromo:
		if !r.gate(ctx, ev) {
			return
		}
		r.conv.StartAddPromo(ctx, ev.UserID, ev.ChannelID)
		return
	case chat.ActionEditListing:
		if !r.gate(ctx, ev) {
			return
		}
		r.listListings(ctx, ev, "📝 Pick a listing to edit:", chat.ActionEditAd)
		return
	case chat.ActionDeleteListing:
		if !r.gate(ctx, ev) {
			return
		}
		r.listListings(ctx, ev, "❌ Pick a listing to delete:", chat.ActionDeleteAd)
		return
	case chat.ActionStats:
		if !r.gate(ctx, ev) {
			return
		}
		r.showStats(ctx, ev)
		return
	case chat.ActionBackAdmin:
		if !r.gate(ctx, ev) {
			return
		}
		r.send(ctx, ev.ChannelID, chat.Message{Text: chat.AdminMenuMessage, Keyboard: chat.AdminMenuKeyboard()})
		return
	}

	name, id, ok := chat.SplitListingAction(ev.Action)
	if !ok {
		fmt.Fprintf(r.out, "bot: router: unknown action %q\n", ev.Action)
		return
	}

	switch name {
	case chat.ActionNext:
		r.feed.Navigate(ctx, ev.UserID, ev.ChannelID, true)
	case chat.ActionPrev:
		r.feed.Navigate(ctx, ev.UserID, ev.ChannelID, false)
	case chat.ActionRent:
		r.feed.ContactManager(ctx, ev.ChannelID, id)
	case chat.ActionView:
		r.feed.ViewListing(ctx, ev.UserID, ev.ChannelID, id)
	case chat.ActionEditAd:
		if !r.gate(ctx, ev) {
			return
		}
		r.send(ctx, ev.ChannelID, chat.Message{
			Text:     fmt.Sprintf("📝 Editing listing ID %d. What do you want to change?", id),
			Keyboard: chat.EditFieldKeyboard(id),
		})
	case chat.ActionEditPhotos:
		if !r.gate(ctx, ev) {
			return
		}
		r.conv.StartEdit(ctx, ev.UserID, ev.ChannelID, conversation.StateEditPhotos, id)
	case chat.ActionEditDesc:
		if !r.gate(ctx, ev) {
			return
		}
		r.conv.StartEdit(ctx, ev.UserID, ev.ChannelID, conversation.StateEditDescription, id)
	case chat.ActionEditPrice:
		if !r.gate(ctx, ev) {
			return
		}
		r.conv.StartEdit(ctx, ev.UserID, ev.ChannelID, conversation.StateEditPrice, id)
	case chat.ActionEditManager:
		if !r.gate(ctx, ev) {
			return
		}
		r.conv.StartEdit(ctx, ev.UserID, ev.ChannelID, conversation.StateEditManager, id)
	case chat.ActionDeleteAd:
		if !r.gate(ctx, ev) {
			return
		}
		r.send(ctx, ev.ChannelID, chat.Message{
			Text:     fmt.Sprintf("❗ Delete listing ID %d? This cannot be undone.", id),
			Keyboard: chat.DeleteConfirmKeyboard(id),
		})
	case chat.ActionConfirmDelete:
		if !r.gate(ctx, ev) {
			return
		}
		r.deleteListing(ctx, ev, id)
	default:
		fmt.Fprintf(r.out, "bot: router: unknown action %q\n", ev.Action)
	}
}

// gate short-circuits admin-only actions for non-admin senders before any
// handler logic runs.
func (r *Router) gate(ctx context.Context, ev chat.Event) bool {
	if r.admins[ev.UserID] {
		return true
	}
	r.send(ctx, ev.ChannelID, chat.Message{Text: chat.NotAdminMessage})
	return false
}

func (r *Router) toggleNotifications(ctx context.Context, ev chat.Event) {
	enabled, err := r.store.ToggleNotifications(ev.UserID)
	if err != nil {
		log.Printf("bot: router: toggle notifications for %s: %v", ev.UserID, err)
		r.send(ctx, ev.ChannelID, chat.Message{Text: chat.GenericFailureMessage})
		return
	}
	text := "🔕 Notifications disabled."
	if enabled {
		text = "🔔 Notifications enabled!"
	}
	r.send(ctx, ev.ChannelID, chat.Message{Text: text})
}

func (r *Router) listListings(ctx context.Context, ev chat.Event, header, action string) {
	listings, err := r.store.RegularListings()
	if err != nil {
		log.Printf("bot: router: list listings: %v", err)
		r.send(ctx, ev.ChannelID, chat.Message{Text: chat.GenericFailureMessage})
		return
	}
	if len(listings) == 0 {
		r.send(ctx, ev.ChannelID, chat.Message{Text: chat.NoListingsMessage, Keyboard: chat.AdminMenuKeyboard()})
		return
	}
	r.send(ctx, ev.ChannelID, chat.Message{
		Text:     chat.FormatListingList(header, listings),
		Keyboard: chat.ListingListKeyboard(listings, action),
	})
}

func (r *Router) deleteListing(ctx context.Context, ev chat.Event, id uint) {
	err := r.store.DeleteListing(id)
	if errors.Is(err, store.ErrNotFound) {
		r.send(ctx, ev.ChannelID, chat.Message{Text: chat.ListingGoneNotice, Keyboard: chat.AdminMenuKeyboard()})
		return
	}
	if err != nil {
		log.Printf("bot: router: delete listing %d: %v", id, err)
		r.send(ctx, ev.ChannelID, chat.Message{Text: chat.GenericFailureMessage})
		return
	}
	r.send(ctx, ev.ChannelID, chat.Message{
		Text:     fmt.Sprintf("✅ Listing ID %d deleted.", id),
		Keyboard: chat.AdminMenuKeyboard(),
	})
}

func (r *Router) showStats(ctx context.Context, ev chat.Event) {
	stats, err := r.store.CollectStats()
	if err != nil {
		log.Printf("bot: router: collect stats: %v", err)
		r.send(ctx, ev.ChannelID, chat.Message{Text: chat.GenericFailureMessage})
		return
	}
	r.send(ctx, ev.ChannelID, chat.Message{Text: chat.FormatStats(stats), Keyboard: chat.AdminMenuKeyboard()})
}

func (r *Router) send(ctx context.Context, channelID string, msg chat.Message) {
	msg.ChannelID = channelID
	if err := r.adapter.Send(ctx, msg); err != nil {
		log.Printf("bot: router: send: %v", err)
	}
}
