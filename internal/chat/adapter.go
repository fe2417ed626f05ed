// Package chat bridges Rentline to chat platforms (Discord, Slack, etc.).
package chat

import (
	"context"
	"errors"
	"time"
)

// ErrRecipientBlocked is the permanent-failure class of delivery error:
// the recipient has blocked the bot or can no longer be messaged. Adapters
// wrap platform-specific errors with it; the notifier reacts by durably
// disabling the recipient's notifications.
var ErrRecipientBlocked = errors.New("chat: recipient blocked the sender")

// Adapter is the interface that platform-specific implementations must
// satisfy. Each adapter handles connection management, event delivery, and
// message sending for a single chat platform.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound events from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan Event, error)

	// Send delivers an outbound message. If msg.UserID is set the message
	// goes to that user directly; otherwise it goes to msg.ChannelID.
	Send(ctx context.Context, msg Message) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// Event represents an inbound event from the chat platform: a text message,
// a photo upload, or a button press.
type Event struct {
	Platform  string    // e.g. "discord", "slack"
	ChannelID string    // platform-specific channel identifier
	UserID    string    // platform-specific user identifier
	UserName  string    // human-readable username
	FirstName string    // display name parts, when the platform provides them
	LastName  string
	Text      string    // raw message text (commands included)
	MediaRef  string    // opaque photo upload handle, set for photo events
	Action    string    // button callback action, set for button presses
	Timestamp time.Time // when the event occurred
}

// IsPhoto reports whether the event carries a photo upload.
func (e Event) IsPhoto() bool { return e.MediaRef != "" }

// IsAction reports whether the event is a button press.
func (e Event) IsAction() bool { return e.Action != "" }

// Message represents an outbound message: text, an optional ordered photo
// set rendered as an album, and an optional inline keyboard.
type Message struct {
	ChannelID string    // target channel
	UserID    string    // target user for direct messages (takes precedence)
	Text      string    // message text / photo caption
	PhotoRefs []string  // media refs to render as an album, in order
	Keyboard  *Keyboard // inline action buttons
}

// Keyboard is a grid of action buttons attached to a message.
type Keyboard struct {
	Rows [][]Button
}

// Button is a single pressable action.
type Button struct {
	Label  string
	Action string
}

// Row appends a row of buttons and returns the keyboard for chaining.
func (k *Keyboard) Row(buttons ...Button) *Keyboard {
	k.Rows = append(k.Rows, buttons)
	return k
}
