package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zhuravin/rentline/internal/chat"
	"github.com/zhuravin/rentline/internal/models"
	"github.com/zhuravin/rentline/internal/notify"
	"github.com/zhuravin/rentline/internal/store"
)

// DefaultMaxPhotos caps how many photos one listing collects.
const DefaultMaxPhotos = 10

// Step prompts. Validation failures re-send the same prompt without a state
// transition.
const (
	promptPhotos      = "📸 Send photos for the listing (several are fine).\nPress 'Done' when you have uploaded them all."
	promptDescription = "📝 Now send the listing description:"
	promptPrice       = "💰 Enter the price (a number):"
	promptManager     = "👤 Send the manager contact:"
	promptPromoText   = "📝 Now send the promo text:"

	noticeNeedPhoto    = "❌ You need to upload at least one photo!"
	noticeBadPrice     = "❌ Invalid price! Enter a positive number:"
	noticeMaxPhotos    = "❌ Photo limit reached — press 'Done' to continue."
	noticeUseButtons   = "Use the buttons below: Save or Cancel."
	noticeSendPhotos   = "Send photos, or press 'Done' when finished."
	noticeCancelled    = "❌ Action cancelled"
	noticeCreated      = "✅ Listing created!"
	noticePromoCreated = "✅ Promotional listing created!"
	noticePhotosSaved  = "✅ Photos updated!"
	noticeDescSaved    = "✅ Description updated!"
	noticePriceSaved   = "✅ Price updated!"
	noticeManagerSaved = "✅ Manager contact updated!"
)

// Announcer broadcasts a newly created listing to subscribed users.
type Announcer interface {
	Announce(ctx context.Context, listing *models.Listing) notify.Summary
}

// Engine is the conversation state machine. One session per user; entering
// any flow cancels whatever that user had in progress.
type Engine struct {
	store     *store.Store
	adapter   chat.Adapter
	sessions  *Sessions
	announcer Announcer
	maxPhotos int
}

// EngineOpts holds parameters for creating an Engine.
type EngineOpts struct {
	Store     *store.Store
	Adapter   chat.Adapter
	Announcer Announcer // optional; enables new-listing notifications
	MaxPhotos int       // defaults to DefaultMaxPhotos
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOpts) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("conversation: store is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("conversation: adapter is required")
	}
	maxPhotos := opts.MaxPhotos
	if maxPhotos <= 0 {
		maxPhotos = DefaultMaxPhotos
	}
	return &Engine{
		store:     opts.Store,
		adapter:   opts.Adapter,
		sessions:  NewSessions(),
		announcer: opts.Announcer,
		maxPhotos: maxPhotos,
	}, nil
}

// Active reports whether the user has a flow in progress.
func (e *Engine) Active(userID string) bool {
	return e.sessions.Active(userID)
}

// Session returns the user's session for inspection (tests, diagnostics).
func (e *Engine) Session(userID string) (*Session, bool) {
	return e.sessions.Get(userID)
}

// StartAdd begins the listing-creation flow.
func (e *Engine) StartAdd(ctx context.Context, userID, channelID string) {
	e.sessions.Put(userID, &Session{State: StateAwaitingPhotos, ChannelID: channelID})
	e.send(ctx, channelID, chat.Message{Text: promptPhotos, Keyboard: chat.PhotoUploadKeyboard()})
}

// StartAddPromo begins the promotional-listing flow: photos plus a single
// free-text field instead of description, price and manager.
func (e *Engine) StartAddPromo(ctx context.Context, userID, channelID string) {
	e.sessions.Put(userID, &Session{State: StatePromoPhotos, ChannelID: channelID, Promo: true})
	e.send(ctx, channelID, chat.Message{Text: promptPhotos, Keyboard: chat.PhotoUploadKeyboard()})
}

// StartEdit begins a single-field edit sub-flow for an existing listing.
// field is one of StateEditPhotos, StateEditDescription, StateEditPrice,
// StateEditManager. If the listing is gone, the user is told and no session
// is created.
func (e *Engine) StartEdit(ctx context.Context, userID, channelID string, field State, listingID uint) {
	if _, err := e.store.GetListing(listingID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.send(ctx, channelID, chat.Message{Text: chat.ListingGoneNotice, Keyboard: chat.AdminMenuKeyboard()})
			return
		}
		log.Printf("conversation: start edit %d: %v", listingID, err)
		e.send(ctx, channelID, chat.Message{Text: chat.GenericFailureMessage})
		return
	}

	e.sessions.Put(userID, &Session{State: field, ChannelID: channelID, EditingID: listingID})
	switch field {
	case StateEditPhotos:
		e.send(ctx, channelID, chat.Message{Text: promptPhotos, Keyboard: chat.PhotoUploadKeyboard()})
	case StateEditDescription:
		e.send(ctx, channelID, chat.Message{Text: promptDescription, Keyboard: chat.CancelKeyboard()})
	case StateEditPrice:
		e.send(ctx, channelID, chat.Message{Text: promptPrice, Keyboard: chat.CancelKeyboard()})
	case StateEditManager:
		e.send(ctx, channelID, chat.Message{Text: promptManager, Keyboard: chat.CancelKeyboard()})
	}
}

// Cancel clears the user's session unconditionally. Safe from any state,
// including idle.
func (e *Engine) Cancel(ctx context.Context, userID, channelID string) {
	e.sessions.Delete(userID)
	e.send(ctx, channelID, chat.Message{Text: noticeCancelled, Keyboard: chat.AdminMenuKeyboard()})
}

// HandlePhoto processes a photo upload for the active session.
func (e *Engine) HandlePhoto(ctx context.Context, ev chat.Event) {
	sess, ok := e.sessions.Get(ev.UserID)
	if !ok {
		e.expired(ctx, ev.ChannelID)
		return
	}

	switch sess.State {
	case StateAwaitingPhotos, StatePromoPhotos, StateEditPhotos:
		if len(sess.PhotoRefs) >= e.maxPhotos {
			e.send(ctx, ev.ChannelID, chat.Message{Text: noticeMaxPhotos, Keyboard: chat.PhotoUploadKeyboard()})
			return
		}
		sess.PhotoRefs = append(sess.PhotoRefs, ev.MediaRef)
		text := fmt.Sprintf("✅ Photo #%d uploaded! Send more or press 'Done'", len(sess.PhotoRefs))
		e.send(ctx, ev.ChannelID, chat.Message{Text: text, Keyboard: chat.PhotoUploadKeyboard()})
	default:
		// Photos outside a photo-collection state are ignored with a nudge.
		e.send(ctx, ev.ChannelID, chat.Message{Text: noticeUseButtons})
	}
}

// HandleText processes a free-text submission for the active session.
func (e *Engine) HandleText(ctx context.Context, ev chat.Event) {
	sess, ok := e.sessions.Get(ev.UserID)
	if !ok {
		e.expired(ctx, ev.ChannelID)
		return
	}

	switch sess.State {
	case StateAwaitingDescription:
		sess.Description = ev.Text
		sess.State = StateAwaitingPrice
		e.send(ctx, ev.ChannelID, chat.Message{Text: promptPrice})

	case StateAwaitingPrice:
		price, err := ParsePrice(ev.Text)
		if err != nil {
			e.send(ctx, ev.ChannelID, chat.Message{Text: noticeBadPrice})
			return
		}
		sess.Price = price
		sess.State = StateAwaitingManager
		e.send(ctx, ev.ChannelID, chat.Message{Text: promptManager})

	case StateAwaitingManager:
		sess.Manager = ev.Text
		sess.State = StateAwaitingConfirm
		e.send(ctx, ev.ChannelID, chat.Message{
			Text:      chat.FormatPreview(sess.Description, sess.Price, sess.Manager, len(sess.PhotoRefs)),
			PhotoRefs: sess.PhotoRefs,
			Keyboard:  chat.ConfirmKeyboard(),
		})

	case StatePromoContent:
		sess.Content = ev.Text
		sess.State = StateAwaitingConfirm
		e.send(ctx, ev.ChannelID, chat.Message{
			Text:      chat.FormatPromoPreview(sess.Content, len(sess.PhotoRefs)),
			PhotoRefs: sess.PhotoRefs,
			Keyboard:  chat.ConfirmKeyboard(),
		})

	case StateEditDescription:
		e.saveEdit(ctx, ev, sess, noticeDescSaved, func() error {
			return e.store.UpdateDescription(sess.EditingID, ev.Text)
		})

	case StateEditPrice:
		price, err := ParsePrice(ev.Text)
		if err != nil {
			e.send(ctx, ev.ChannelID, chat.Message{Text: noticeBadPrice})
			return
		}
		e.saveEdit(ctx, ev, sess, noticePriceSaved, func() error {
			return e.store.UpdatePrice(sess.EditingID, price)
		})

	case StateEditManager:
		e.saveEdit(ctx, ev, sess, noticeManagerSaved, func() error {
			return e.store.UpdateManagerContact(sess.EditingID, ev.Text)
		})

	case StateAwaitingPhotos, StatePromoPhotos, StateEditPhotos:
		e.send(ctx, ev.ChannelID, chat.Message{Text: noticeSendPhotos, Keyboard: chat.PhotoUploadKeyboard()})

	case StateAwaitingConfirm:
		e.send(ctx, ev.ChannelID, chat.Message{Text: noticeUseButtons, Keyboard: chat.ConfirmKeyboard()})
	}
}

// HandleAction processes a flow-owned button press: the photo-collection
// "done" sentinel, confirm, or cancel.
func (e *Engine) HandleAction(ctx context.Context, ev chat.Event) {
	if ev.Action == chat.ActionCancel {
		e.Cancel(ctx, ev.UserID, ev.ChannelID)
		return
	}

	sess, ok := e.sessions.Get(ev.UserID)
	if !ok {
		e.expired(ctx, ev.ChannelID)
		return
	}

	switch ev.Action {
	case chat.ActionPhotosDone:
		e.photosDone(ctx, ev, sess)
	case chat.ActionConfirm:
		e.confirm(ctx, ev, sess)
	}
}

// photosDone advances out of a photo-collection state. An empty photo list
// is rejected: the user is re-prompted and the state is unchanged.
func (e *Engine) photosDone(ctx context.Context, ev chat.Event, sess *Session) {
	switch sess.State {
	case StateAwaitingPhotos, StatePromoPhotos, StateEditPhotos:
	default:
		return
	}

	if len(sess.PhotoRefs) == 0 {
		e.send(ctx, ev.ChannelID, chat.Message{Text: noticeNeedPhoto, Keyboard: chat.PhotoUploadKeyboard()})
		return
	}

	switch sess.State {
	case StateAwaitingPhotos:
		sess.State = StateAwaitingDescription
		e.send(ctx, ev.ChannelID, chat.Message{Text: promptDescription})
	case StatePromoPhotos:
		sess.State = StatePromoContent
		e.send(ctx, ev.ChannelID, chat.Message{Text: promptPromoText})
	case StateEditPhotos:
		err := e.store.ReplacePhotos(sess.EditingID, sess.PhotoRefs)
		if errors.Is(err, store.ErrNotFound) {
			e.sessions.Delete(ev.UserID)
			e.send(ctx, ev.ChannelID, chat.Message{Text: chat.ListingGoneNotice, Keyboard: chat.AdminMenuKeyboard()})
			return
		}
		if err != nil {
			log.Printf("conversation: replace photos for listing %d: %v", sess.EditingID, err)
			e.send(ctx, ev.ChannelID, chat.Message{Text: chat.GenericFailureMessage})
			return
		}
		e.sessions.Delete(ev.UserID)
		e.send(ctx, ev.ChannelID, chat.Message{Text: noticePhotosSaved, Keyboard: chat.AdminMenuKeyboard()})
	}
}

// confirm persists the collected listing atomically and, for regular
// listings, triggers the notification fan-out.
func (e *Engine) confirm(ctx context.Context, ev chat.Event, sess *Session) {
	if sess.State != StateAwaitingConfirm {
		return
	}

	listing := &models.Listing{}
	if sess.Promo {
		listing.Description = sess.Content
		listing.IsPromotional = true
	} else {
		listing.Description = sess.Description
		listing.Price = sess.Price
		listing.ManagerContact = sess.Manager
	}

	if err := e.store.CreateListing(listing, sess.PhotoRefs); err != nil {
		// The transaction rolled back; the session survives so the admin
		// can press Save again.
		log.Printf("conversation: create listing: %v", err)
		e.send(ctx, ev.ChannelID, chat.Message{Text: chat.GenericFailureMessage, Keyboard: chat.ConfirmKeyboard()})
		return
	}

	e.sessions.Delete(ev.UserID)
	notice := noticeCreated
	if sess.Promo {
		notice = noticePromoCreated
	}
	e.send(ctx, ev.ChannelID, chat.Message{Text: notice, Keyboard: chat.AdminMenuKeyboard()})

	if !sess.Promo && e.announcer != nil {
		summary := e.announcer.Announce(ctx, listing)
		log.Printf("conversation: listing %d announced: %d sent, %d failed",
			listing.ID, summary.Sent, summary.Failed)
	}
}

// saveEdit applies a single-field update, handling the listing having been
// deleted mid-flow.
func (e *Engine) saveEdit(ctx context.Context, ev chat.Event, sess *Session, notice string, update func() error) {
	err := update()
	if errors.Is(err, store.ErrNotFound) {
		e.sessions.Delete(ev.UserID)
		e.send(ctx, ev.ChannelID, chat.Message{Text: chat.ListingGoneNotice, Keyboard: chat.AdminMenuKeyboard()})
		return
	}
	if err != nil {
		log.Printf("conversation: save edit for listing %d: %v", sess.EditingID, err)
		e.send(ctx, ev.ChannelID, chat.Message{Text: chat.GenericFailureMessage})
		return
	}
	e.sessions.Delete(ev.UserID)
	e.send(ctx, ev.ChannelID, chat.Message{Text: notice, Keyboard: chat.AdminMenuKeyboard()})
}

// expired handles a step event arriving with no session — e.g. after a
// process restart mid-flow. Implicit return to idle with a fresh prompt.
func (e *Engine) expired(ctx context.Context, channelID string) {
	e.send(ctx, channelID, chat.Message{Text: chat.SessionExpiredMessage, Keyboard: chat.AdminMenuKeyboard()})
}

// send delivers a message to the flow's channel, logging delivery failures.
func (e *Engine) send(ctx context.Context, channelID string, msg chat.Message) {
	msg.ChannelID = channelID
	if err := e.adapter.Send(ctx, msg); err != nil {
		log.Printf("conversation: send: %v", err)
	}
}
