// Package discord implements the chat Adapter for Discord using the Gateway WebSocket.
package discord

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/zhuravin/rentline/internal/chat"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff duration for rate-limit retries.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential backoff.
	maxBackoff = 2 * time.Minute
	// cannotMessageUserCode is Discord's error code for DMs the recipient
	// has disabled or blocked.
	cannotMessageUserCode = 50007
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) AddHandler(handler interface{}) func() {
	return r.s.AddHandler(handler)
}
func (r *realSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendComplex(channelID, data, options...)
}
func (r *realSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return r.s.UserChannelCreate(recipientID, options...)
}
func (r *realSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	return r.s.InteractionRespond(interaction, resp, options...)
}

// Adapter implements chat.Adapter for Discord via the Gateway WebSocket.
// Keyboards become message components; button presses arrive as interaction
// events carrying the action in the custom ID.
type Adapter struct {
	sess      session
	botToken  string
	channelID string // default channel for messages
	botUserID string
	mu        sync.Mutex
	connected bool
	closed    bool
	inbound   chan chat.Event
	removers  []func()
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken  string // Discord bot token
	ChannelID string // default channel to post to
	// For testing: inject a mock session instead of real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	a := &Adapter{
		botToken:  opts.BotToken,
		channelID: opts.ChannelID,
		inbound:   make(chan chat.Event, 100),
	}
	if opts.Session != nil {
		a.sess = opts.Session
	}
	return a, nil
}

// Connect establishes the Discord Gateway WebSocket connection.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("discord: adapter already closed")
	}
	if a.connected {
		return nil
	}

	if a.sess == nil {
		dg, err := discordgo.New("Bot " + a.botToken)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuildMessages |
			discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
		a.sess = &realSession{s: dg}
	}

	a.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.mu.Lock()
		a.botUserID = r.User.ID
		a.mu.Unlock()
		log.Printf("discord: connected as %s (ID: %s)", r.User.Username, r.User.ID)
	})
	a.sess.AddHandler(func(_ *discordgo.Session, d *discordgo.Disconnect) {
		log.Printf("discord: gateway disconnected, discordgo will auto-reconnect")
	})

	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}

	a.connected = true
	return nil
}

// Listen returns a channel of inbound events. Registers handlers for
// messages (text, photo uploads) and component interactions (button
// presses). Must be called after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan chat.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("discord: not connected")
	}

	a.removers = append(a.removers,
		a.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			a.handleMessage(m)
		}),
		a.sess.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
			a.handleInteraction(i)
		}),
	)
	return a.inbound, nil
}

// Send delivers a message. A non-empty UserID takes precedence over
// ChannelID: the message goes to the user's DM channel. A recipient who has
// blocked the bot or disabled DMs surfaces as chat.ErrRecipientBlocked.
func (a *Adapter) Send(ctx context.Context, msg chat.Message) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("discord: not connected")
	}
	a.mu.Unlock()

	channelID := msg.ChannelID
	if msg.UserID != "" {
		ch, err := a.sess.UserChannelCreate(msg.UserID)
		if err != nil {
			if isBlocked(err) {
				return fmt.Errorf("discord: dm %s: %w", msg.UserID, chat.ErrRecipientBlocked)
			}
			return fmt.Errorf("discord: open dm with %s: %w", msg.UserID, err)
		}
		channelID = ch.ID
	}
	if channelID == "" {
		channelID = a.channelID
	}
	if channelID == "" {
		return fmt.Errorf("discord: no channel specified")
	}

	data := buildMessageSend(msg)
	err := a.retryOnRateLimit(ctx, func() error {
		_, sendErr := a.sess.ChannelMessageSendComplex(channelID, data)
		return sendErr
	})
	if err != nil {
		if isBlocked(err) {
			return fmt.Errorf("discord: send to %s: %w", channelID, chat.ErrRecipientBlocked)
		}
		return fmt.Errorf("discord: send message: %w", err)
	}
	return nil
}

// Close gracefully shuts down the adapter connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	for _, remove := range a.removers {
		remove()
	}
	close(a.inbound)
	if a.sess != nil {
		return a.sess.Close()
	}
	return nil
}

// handleMessage converts a Discord message event to a chat.Event. Attachments
// become photo events, one per attachment, so photo-collection flows see each
// upload individually.
func (a *Adapter) handleMessage(m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	a.mu.Lock()
	botID := a.botUserID
	a.mu.Unlock()
	if m.Author.ID == botID {
		return
	}

	ts, _ := discordgo.SnowflakeTimestamp(m.ID)
	base := chat.Event{
		Platform:  "discord",
		ChannelID: m.ChannelID,
		UserID:    m.Author.ID,
		UserName:  m.Author.Username,
		FirstName: m.Author.GlobalName,
		Timestamp: ts,
	}

	for _, att := range m.Attachments {
		ev := base
		ev.MediaRef = att.URL
		a.inbound <- ev
	}
	if m.Content != "" {
		ev := base
		ev.Text = m.Content
		a.inbound <- ev
	}
}

// handleInteraction converts a button press to an action event. The
// interaction is acknowledged with a deferred update so Discord doesn't show
// a failure to the user; the real response arrives as a regular message.
func (a *Adapter) handleInteraction(i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	user := i.User
	if user == nil && i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}

	if err := a.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		log.Printf("discord: ack interaction: %v", err)
	}

	a.inbound <- chat.Event{
		Platform:  "discord",
		ChannelID: i.ChannelID,
		UserID:    user.ID,
		UserName:  user.Username,
		FirstName: user.GlobalName,
		Action:    i.MessageComponentData().CustomID,
		Timestamp: time.Now(),
	}
}

// buildMessageSend translates a chat.Message into a Discord MessageSend.
// Photos are rendered as image embeds; the keyboard becomes button rows.
func buildMessageSend(msg chat.Message) *discordgo.MessageSend {
	data := &discordgo.MessageSend{Content: msg.Text}

	for _, ref := range msg.PhotoRefs {
		data.Embeds = append(data.Embeds, &discordgo.MessageEmbed{
			Image: &discordgo.MessageEmbedImage{URL: ref},
		})
	}

	if msg.Keyboard != nil {
		for _, row := range msg.Keyboard.Rows {
			var buttons []discordgo.MessageComponent
			for _, b := range row {
				buttons = append(buttons, discordgo.Button{
					Label:    b.Label,
					Style:    discordgo.SecondaryButton,
					CustomID: b.Action,
				})
			}
			data.Components = append(data.Components, discordgo.ActionsRow{Components: buttons})
		}
	}
	return data
}

// isBlocked reports whether an API error means the recipient cannot receive
// DMs from the bot.
func isBlocked(err error) bool {
	restErr, ok := err.(*discordgo.RESTError)
	return ok && restErr.Message != nil && restErr.Message.Code == cannotMessageUserCode
}

// retryOnRateLimit calls fn and retries with exponential backoff on Discord
// rate limit errors. It respects context cancellation.
func (a *Adapter) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		restErr, ok := err.(*discordgo.RESTError)
		if !ok || restErr.Response == nil || restErr.Response.StatusCode != 429 {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * baseBackoff
		if wait > maxBackoff {
			wait = maxBackoff
		}
		log.Printf("discord: rate limited (attempt %d/%d), retrying in %v",
			attempt+1, maxRetries, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
