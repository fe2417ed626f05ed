// Package slack implements the chat Adapter for Slack using Socket Mode.
package slack

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/zhuravin/rentline/internal/chat"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff duration for reconnection.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential backoff for reconnection.
	maxBackoff = 2 * time.Minute
	// maxReconnectAttempts limits reconnection retries before giving up.
	maxReconnectAttempts = 10
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	AuthTest() (*slackapi.AuthTestResponse, error)
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
	OpenConversation(params *slackapi.OpenConversationParameters) (*slackapi.Channel, bool, bool, error)
	GetUserInfo(userID string) (*slackapi.User, error)
}

// socketClient abstracts the Socket Mode client methods we use.
type socketClient interface {
	Run() error
	EventsChan() chan socketmode.Event
	Ack(req socketmode.Request, payload ...interface{})
}

// realSocketClient wraps *socketmode.Client to implement socketClient.
type realSocketClient struct {
	client *socketmode.Client
}

func (r *realSocketClient) Run() error                        { return r.client.Run() }
func (r *realSocketClient) EventsChan() chan socketmode.Event { return r.client.Events }
func (r *realSocketClient) Ack(req socketmode.Request, payload ...interface{}) {
	r.client.Ack(req, payload...)
}

// Adapter implements chat.Adapter for Slack Socket Mode. Keyboards become
// Block Kit button blocks; presses arrive as block action interactions.
type Adapter struct {
	client       slackClient
	socket       socketClient
	botUserID    string
	appToken     string
	botToken     string
	channelID    string // default channel for messages without explicit channel
	mu           sync.Mutex
	connected    bool
	closed       bool
	inbound      chan chat.Event
	cancelFunc   context.CancelFunc
	baseBackoff  time.Duration
	maxBackoff   time.Duration
	maxReconnect int
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	AppToken  string // xapp-... Slack app-level token for Socket Mode
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // default channel to post to
	// For testing: inject mock clients instead of real Slack API.
	Client slackClient
	Socket socketClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.Socket == nil && opts.AppToken == "" {
		return nil, fmt.Errorf("slack: app token is required for socket mode")
	}

	a := &Adapter{
		appToken:     opts.AppToken,
		botToken:     opts.BotToken,
		channelID:    opts.ChannelID,
		inbound:      make(chan chat.Event, 100),
		baseBackoff:  baseBackoff,
		maxBackoff:   maxBackoff,
		maxReconnect: maxReconnectAttempts,
	}
	if opts.Client != nil {
		a.client = opts.Client
	}
	if opts.Socket != nil {
		a.socket = opts.Socket
	}
	return a, nil
}

// Connect establishes the Socket Mode WebSocket connection.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("slack: adapter already closed")
	}
	if a.connected {
		return nil
	}

	if a.client == nil {
		api := slackapi.New(a.botToken, slackapi.OptionAppLevelToken(a.appToken))
		a.client = api
		a.socket = &realSocketClient{client: socketmode.New(api)}
	}

	auth, err := a.client.AuthTest()
	if err != nil {
		return fmt.Errorf("slack: auth test: %w", err)
	}
	a.botUserID = auth.UserID

	a.connected = true
	return nil
}

// Listen returns a channel of inbound events. Starts the Socket Mode event
// pump in a background goroutine. Must be called after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan chat.Event, error) {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return nil, fmt.Errorf("slack: not connected")
	}
	a.mu.Unlock()

	listenCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancelFunc = cancel
	a.mu.Unlock()

	go a.runWithReconnect(listenCtx)
	go a.pumpEvents(listenCtx)

	return a.inbound, nil
}

// Send delivers a message. A non-empty UserID takes precedence over
// ChannelID: a DM conversation is opened with that user. A recipient the
// bot cannot message surfaces as chat.ErrRecipientBlocked.
func (a *Adapter) Send(ctx context.Context, msg chat.Message) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("slack: not connected")
	}
	a.mu.Unlock()

	channelID := msg.ChannelID
	if msg.UserID != "" {
		ch, _, _, err := a.client.OpenConversation(&slackapi.OpenConversationParameters{
			Users: []string{msg.UserID},
		})
		if err != nil {
			if isBlocked(err) {
				return fmt.Errorf("slack: dm %s: %w", msg.UserID, chat.ErrRecipientBlocked)
			}
			return fmt.Errorf("slack: open dm with %s: %w", msg.UserID, err)
		}
		channelID = ch.ID
	}
	if channelID == "" {
		channelID = a.channelID
	}
	if channelID == "" {
		return fmt.Errorf("slack: no channel specified")
	}

	options := buildMessageOptions(msg)
	err := retryOnRateLimit(ctx, func() error {
		_, _, postErr := a.client.PostMessage(channelID, options...)
		return postErr
	})
	if err != nil {
		if isBlocked(err) {
			return fmt.Errorf("slack: post to %s: %w", channelID, chat.ErrRecipientBlocked)
		}
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// Close shuts down the adapter and closes the inbound channel.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	close(a.inbound)
	return nil
}

// BotUserID returns the bot's Slack user ID (available after Connect).
func (a *Adapter) BotUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.botUserID
}

// runWithReconnect runs the Socket Mode client and retries with exponential
// backoff when Run() returns an error.
func (a *Adapter) runWithReconnect(ctx context.Context) {
	for attempt := 0; attempt < a.maxReconnect; attempt++ {
		err := a.socket.Run()
		if err == nil {
			return // clean shutdown
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * a.baseBackoff
		if wait > a.maxBackoff {
			wait = a.maxBackoff
		}
		log.Printf("slack: socket mode disconnected (attempt %d/%d): %v, reconnecting in %v",
			attempt+1, a.maxReconnect, err, wait)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
	log.Printf("slack: socket mode exhausted %d reconnection attempts, giving up", a.maxReconnect)
}

// pumpEvents reads Socket Mode events and converts them to chat events.
func (a *Adapter) pumpEvents(ctx context.Context) {
	events := a.socket.EventsChan()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			a.handleSocketEvent(evt)
		}
	}
}

// handleSocketEvent processes a single Socket Mode event.
func (a *Adapter) handleSocketEvent(evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			a.socket.Ack(*evt.Request)
		}
		a.handleEventsAPI(eventsAPIEvent)

	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slackapi.InteractionCallback)
		if !ok {
			return
		}
		if evt.Request != nil {
			a.socket.Ack(*evt.Request)
		}
		a.handleInteraction(callback)

	case socketmode.EventTypeConnecting:
		log.Printf("slack: connecting to Socket Mode...")

	case socketmode.EventTypeConnected:
		log.Printf("slack: connected to Socket Mode")

	case socketmode.EventTypeConnectionError:
		log.Printf("slack: connection error: %v", evt.Data)

	case socketmode.EventTypeDisconnect:
		log.Printf("slack: server requested disconnect, will reconnect")
	}
}

// handleEventsAPI processes Events API callbacks.
func (a *Adapter) handleEventsAPI(event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	if ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok {
		a.handleMessage(ev)
	}
}

// handleMessage converts a Slack message event to chat events. File shares
// become one photo event per file, carrying the file ID as the media ref.
func (a *Adapter) handleMessage(ev *slackevents.MessageEvent) {
	if ev.User == a.botUserID {
		return
	}
	if ev.BotID != "" {
		return
	}
	if ev.SubType != "" && ev.SubType != "file_share" {
		return
	}

	base := chat.Event{
		Platform:  "slack",
		ChannelID: ev.Channel,
		UserID:    ev.User,
		UserName:  a.resolveUserName(ev.User),
		Timestamp: parseSlackTimestamp(ev.TimeStamp),
	}

	for _, f := range ev.Files {
		e := base
		e.MediaRef = f.ID
		a.inbound <- e
	}
	if ev.Text != "" {
		e := base
		e.Text = ev.Text
		a.inbound <- e
	}
}

// handleInteraction converts a Block Kit button press to an action event.
func (a *Adapter) handleInteraction(callback slackapi.InteractionCallback) {
	if callback.Type != slackapi.InteractionTypeBlockActions {
		return
	}
	if len(callback.ActionCallback.BlockActions) == 0 {
		return
	}
	action := callback.ActionCallback.BlockActions[0]

	a.inbound <- chat.Event{
		Platform:  "slack",
		ChannelID: callback.Channel.ID,
		UserID:    callback.User.ID,
		UserName:  callback.User.Name,
		Action:    action.ActionID,
		Timestamp: time.Now(),
	}
}

// resolveUserName looks up a user's display name. Falls back to user ID.
func (a *Adapter) resolveUserName(userID string) string {
	if userID == "" {
		return ""
	}
	user, err := a.client.GetUserInfo(userID)
	if err != nil {
		return userID
	}
	if user.Profile.DisplayName != "" {
		return user.Profile.DisplayName
	}
	return user.RealName
}

// buildMessageOptions translates a chat.Message into Slack MsgOptions:
// text section, one image block per photo, and an actions block per
// keyboard row.
func buildMessageOptions(msg chat.Message) []slackapi.MsgOption {
	var blocks []slackapi.Block

	if msg.Text != "" {
		blocks = append(blocks, slackapi.NewSectionBlock(
			slackapi.NewTextBlockObject(slackapi.PlainTextType, msg.Text, true, false),
			nil, nil,
		))
	}
	for i, ref := range msg.PhotoRefs {
		blocks = append(blocks, slackapi.NewImageBlock(
			ref, fmt.Sprintf("photo %d", i+1), "", nil,
		))
	}
	if msg.Keyboard != nil {
		for _, row := range msg.Keyboard.Rows {
			var buttons []slackapi.BlockElement
			for _, b := range row {
				buttons = append(buttons, slackapi.NewButtonBlockElement(
					b.Action, b.Action,
					slackapi.NewTextBlockObject(slackapi.PlainTextType, b.Label, true, false),
				))
			}
			blocks = append(blocks, slackapi.NewActionBlock("", buttons...))
		}
	}

	options := []slackapi.MsgOption{slackapi.MsgOptionBlocks(blocks...)}
	if msg.Text != "" {
		options = append(options, slackapi.MsgOptionText(msg.Text, false))
	}
	return options
}

// isBlocked reports whether an API error means the recipient cannot receive
// messages from the bot.
func isBlocked(err error) bool {
	var serr slackapi.SlackErrorResponse
	if errors.As(err, &serr) {
		return blockedCode(serr.Err)
	}
	return blockedCode(err.Error())
}

func blockedCode(code string) bool {
	switch code {
	case "user_disabled", "cannot_dm_bot", "message_blocked", "user_not_found":
		return true
	}
	return false
}

// retryOnRateLimit calls fn and retries with backoff on Slack rate limit
// errors. It respects context cancellation and the RetryAfter duration.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}

// parseSlackTimestamp converts a Slack timestamp (e.g. "1234567890.123456")
// to a time.Time.
func parseSlackTimestamp(ts string) time.Time {
	parts := strings.SplitN(ts, ".", 2)
	if len(parts) == 0 {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
