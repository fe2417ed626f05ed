// Package conversation drives the per-user finite-state machine for creating
// and editing listings through multi-step chat flows.
package conversation

import "sync"

// State identifies a step in a listing flow. A user with no session is idle;
// entering any flow replaces whatever session the user had before.
type State string

const (
	StateAwaitingPhotos      State = "awaiting_photos"
	StateAwaitingDescription State = "awaiting_description"
	StateAwaitingPrice       State = "awaiting_price"
	StateAwaitingManager     State = "awaiting_manager"
	StateAwaitingConfirm     State = "awaiting_confirm"

	StateEditPhotos      State = "edit_photos"
	StateEditDescription State = "edit_description"
	StateEditPrice       State = "edit_price"
	StateEditManager     State = "edit_manager"

	StatePromoPhotos  State = "promo_photos"
	StatePromoContent State = "promo_content"
)

// Session holds the fields collected so far in a flow. Ephemeral by design:
// loss on restart is acceptable, and handlers treat a missing session as an
// implicit return to idle.
type Session struct {
	State     State
	ChannelID string
	Promo     bool // promotional-creation flow
	EditingID uint // listing being edited, for edit sub-flows

	PhotoRefs   []string
	Description string
	Price       string
	Manager     string
	Content     string // promo free-text content
}

// Sessions maps user identities to their active conversation session. Each
// user's event stream is processed sequentially by the platform, but the map
// itself is shared across users, hence the lock.
type Sessions struct {
	mu sync.RWMutex
	m  map[string]*Session
}

// NewSessions creates an empty session map.
func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*Session)}
}

// Get returns the session for a user, if any.
func (s *Sessions) Get(userID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.m[userID]
	return sess, ok
}

// Put stores a session for a user, replacing any existing one.
func (s *Sessions) Put(userID string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = sess
}

// Delete removes a user's session.
func (s *Sessions) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}

// Active reports whether a user has a session in progress.
func (s *Sessions) Active(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[userID]
	return ok
}
