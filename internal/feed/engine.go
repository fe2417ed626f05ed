package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/zhuravin/rentline/internal/chat"
	"github.com/zhuravin/rentline/internal/store"
)

// DefaultPromoRate is the probability of a promotional interlude per forward
// transition.
const DefaultPromoRate = 0.20

// browseSession tracks one user's position in the feed. Cursor is zero-based
// over the regular listings in creation-time-descending order. promoShown is
// set while the last render was an interlude.
type browseSession struct {
	cursor     int
	promoShown bool
}

// Engine drives listing browsing: first-show, paging in both directions,
// deep-link views and the contact-manager action.
type Engine struct {
	store   *store.Store
	adapter chat.Adapter
	rate    float64

	mu       sync.Mutex
	rng      *rand.Rand
	sessions map[string]*browseSession
}

// Opts holds parameters for creating an Engine.
type Opts struct {
	Store     *store.Store
	Adapter   chat.Adapter
	PromoRate float64    // defaults to DefaultPromoRate
	Rand      *rand.Rand // optional; tests inject a seeded source
}

// NewEngine creates an Engine.
func NewEngine(opts Opts) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("feed: store is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("feed: adapter is required")
	}
	rate := opts.PromoRate
	if rate == 0 {
		rate = DefaultPromoRate
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		store:    opts.Store,
		adapter:  opts.Adapter,
		rate:     rate,
		rng:      rng,
		sessions: make(map[string]*browseSession),
	}, nil
}

// Cursor returns a user's zero-based cursor, for tests and diagnostics.
func (e *Engine) Cursor(userID string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, ok := e.sessions[userID]
	if !ok {
		return 0, false
	}
	return sess.cursor, true
}

// ShowFirst opens a browsing session at the newest listing.
func (e *Engine) ShowFirst(ctx context.Context, userID, channelID string) {
	listings, err := e.store.RegularListings()
	if err != nil {
		log.Printf("feed: load listings: %v", err)
		e.send(ctx, channelID, chat.Message{Text: chat.GenericFailureMessage})
		return
	}
	if len(listings) == 0 {
		e.send(ctx, channelID, chat.Message{Text: chat.NoListingsMessage})
		return
	}

	e.setSession(userID, &browseSession{})
	e.render(ctx, channelID, listings[0].ID, 1, len(listings))
}

// Navigate pages the user's feed. forward selects next vs previous. A
// missing or out-of-range session degrades to re-showing the first listing.
func (e *Engine) Navigate(ctx context.Context, userID, channelID string, forward bool) {
	listings, err := e.store.RegularListings()
	if err != nil {
		log.Printf("feed: load listings: %v", err)
		e.send(ctx, channelID, chat.Message{Text: chat.GenericFailureMessage})
		return
	}
	if len(listings) == 0 {
		e.send(ctx, channelID, chat.Message{Text: chat.NoListingsMessage})
		return
	}

	sess, ok := e.session(userID)
	if !ok || sess.cursor >= len(listings) {
		// Restarted mid-browse, or the listing under the cursor was deleted.
		e.setSession(userID, &browseSession{})
		e.render(ctx, channelID, listings[0].ID, 1, len(listings))
		return
	}

	next, err := Advance(sess.cursor, len(listings), forward)
	if errors.Is(err, ErrAtEnd) {
		e.send(ctx, channelID, chat.Message{Text: chat.LastListingNotice})
		return
	}
	if errors.Is(err, ErrAtStart) {
		e.send(ctx, channelID, chat.Message{Text: chat.FirstListingNotice})
		return
	}

	if forward {
		promos, err := e.store.PromotionalListings()
		if err != nil {
			log.Printf("feed: load promos: %v", err)
			promos = nil
		}
		if InjectPromo(e.roll(), e.rate, len(promos), sess.promoShown) {
			promo := promos[e.pick(len(promos))]
			sess.promoShown = true
			e.render(ctx, channelID, promo.ID, sess.cursor+1, len(listings))
			return
		}
	}

	sess.cursor = next
	sess.promoShown = false
	e.render(ctx, channelID, listings[next].ID, next+1, len(listings))
}

// ViewListing jumps directly to a listing from a notification deep link and
// anchors a browsing session there. A deleted listing degrades to the first
// available one.
func (e *Engine) ViewListing(ctx context.Context, userID, channelID string, id uint) {
	listings, err := e.store.RegularListings()
	if err != nil {
		log.Printf("feed: load listings: %v", err)
		e.send(ctx, channelID, chat.Message{Text: chat.GenericFailureMessage})
		return
	}
	for i, l := range listings {
		if l.ID == id {
			e.setSession(userID, &browseSession{cursor: i})
			e.render(ctx, channelID, id, i+1, len(listings))
			return
		}
	}

	e.send(ctx, channelID, chat.Message{Text: chat.ListingGoneNotice})
	if len(listings) > 0 {
		e.setSession(userID, &browseSession{})
		e.render(ctx, channelID, listings[0].ID, 1, len(listings))
	}
}

// ContactManager resolves the rent action for a listing.
func (e *Engine) ContactManager(ctx context.Context, channelID string, id uint) {
	listing, err := e.store.GetListing(id)
	if errors.Is(err, store.ErrNotFound) {
		e.send(ctx, channelID, chat.Message{Text: chat.ListingGoneNotice})
		return
	}
	if err != nil {
		log.Printf("feed: contact manager for listing %d: %v", id, err)
		e.send(ctx, channelID, chat.Message{Text: chat.GenericFailureMessage})
		return
	}
	e.send(ctx, channelID, chat.Message{Text: chat.FormatManagerContact(listing.ManagerContact)})
}

// render fetches the listing with its photos, delivers it with paging
// controls, and counts the view. position is 1-based.
func (e *Engine) render(ctx context.Context, channelID string, id uint, position, total int) {
	listing, err := e.store.GetListing(id)
	if errors.Is(err, store.ErrNotFound) {
		e.send(ctx, channelID, chat.Message{Text: chat.ListingGoneNotice})
		return
	}
	if err != nil {
		log.Printf("feed: render listing %d: %v", id, err)
		e.send(ctx, channelID, chat.Message{Text: chat.GenericFailureMessage})
		return
	}

	refs := make([]string, 0, len(listing.Photos))
	for _, p := range listing.Photos {
		refs = append(refs, p.MediaRef)
	}
	e.send(ctx, channelID, chat.Message{
		Text:      chat.FormatListing(listing, position, total),
		PhotoRefs: refs,
		Keyboard:  chat.NavigationKeyboard(listing, position, total),
	})

	if err := e.store.RecordView(listing.ID); err != nil {
		log.Printf("feed: record view for listing %d: %v", listing.ID, err)
	}
}

func (e *Engine) session(userID string) (*browseSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, ok := e.sessions[userID]
	return sess, ok
}

func (e *Engine) setSession(userID string, sess *browseSession) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[userID] = sess
}

func (e *Engine) roll() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

func (e *Engine) pick(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

func (e *Engine) send(ctx context.Context, channelID string, msg chat.Message) {
	msg.ChannelID = channelID
	if err := e.adapter.Send(ctx, msg); err != nil {
		log.Printf("feed: send: %v", err)
	}
}
