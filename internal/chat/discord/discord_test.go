package discord

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/zhuravin/rentline/internal/chat"
)

// mockSession implements the session interface for tests.
type mockSession struct {
	opened      bool
	closed      bool
	sent        []*discordgo.MessageSend
	sentTo      []string
	sendErr     error
	dmErr       error
	dmChannels  map[string]string // userID -> channelID
	interactAck int
}

func (m *mockSession) Open() error                    { m.opened = true; return nil }
func (m *mockSession) Close() error                   { m.closed = true; return nil }
func (m *mockSession) AddHandler(interface{}) func()  { return func() {} }
func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sent = append(m.sent, data)
	m.sentTo = append(m.sentTo, channelID)
	return &discordgo.Message{ID: "1"}, nil
}
func (m *mockSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if m.dmErr != nil {
		return nil, m.dmErr
	}
	ch := "dm-" + recipientID
	if m.dmChannels != nil {
		ch = m.dmChannels[recipientID]
	}
	return &discordgo.Channel{ID: ch}, nil
}
func (m *mockSession) InteractionRespond(*discordgo.Interaction, *discordgo.InteractionResponse, ...discordgo.RequestOption) error {
	m.interactAck++
	return nil
}

func connectedAdapter(t *testing.T, sess *mockSession) *Adapter {
	t.Helper()
	a, err := New(AdapterOpts{Session: sess, ChannelID: "chan-default"})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return a
}

func blockedErr() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden},
		Message:  &discordgo.APIErrorMessage{Code: cannotMessageUserCode},
	}
}

func TestSend_KeyboardBecomesComponents(t *testing.T) {
	sess := &mockSession{}
	a := connectedAdapter(t, sess)

	kb := (&chat.Keyboard{}).
		Row(chat.Button{Label: "Next", Action: "next-3"}).
		Row(chat.Button{Label: "Rent", Action: "rent-3"})
	err := a.Send(context.Background(), chat.Message{
		ChannelID: "chan-1",
		Text:      "listing",
		PhotoRefs: []string{"https://cdn/photo.jpg"},
		Keyboard:  kb,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	data := sess.sent[0]
	if data.Content != "listing" {
		t.Errorf("content = %q", data.Content)
	}
	if len(data.Embeds) != 1 || data.Embeds[0].Image.URL != "https://cdn/photo.jpg" {
		t.Errorf("embeds = %+v", data.Embeds)
	}
	if len(data.Components) != 2 {
		t.Fatalf("component rows = %d", len(data.Components))
	}
	row := data.Components[0].(discordgo.ActionsRow)
	btn := row.Components[0].(discordgo.Button)
	if btn.Label != "Next" || btn.CustomID != "next-3" {
		t.Errorf("button = %+v", btn)
	}
}

func TestSend_UserIDTakesPrecedence(t *testing.T) {
	sess := &mockSession{}
	a := connectedAdapter(t, sess)

	err := a.Send(context.Background(), chat.Message{
		ChannelID: "chan-1",
		UserID:    "user-9",
		Text:      "hi",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sess.sentTo[0] != "dm-user-9" {
		t.Errorf("sent to %q, want DM channel", sess.sentTo[0])
	}
}

func TestSend_BlockedRecipient(t *testing.T) {
	sess := &mockSession{dmErr: blockedErr()}
	a := connectedAdapter(t, sess)

	err := a.Send(context.Background(), chat.Message{UserID: "user-9", Text: "hi"})
	if !errors.Is(err, chat.ErrRecipientBlocked) {
		t.Errorf("err = %v, want ErrRecipientBlocked", err)
	}

	sess = &mockSession{sendErr: blockedErr()}
	a = connectedAdapter(t, sess)
	err = a.Send(context.Background(), chat.Message{ChannelID: "chan-1", Text: "hi"})
	if !errors.Is(err, chat.ErrRecipientBlocked) {
		t.Errorf("channel send err = %v, want ErrRecipientBlocked", err)
	}
}

func TestHandleMessage_AttachmentsAndText(t *testing.T) {
	sess := &mockSession{}
	a := connectedAdapter(t, sess)
	if _, err := a.Listen(context.Background()); err != nil {
		t.Fatalf("listen: %v", err)
	}

	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "123456789",
		ChannelID: "chan-1",
		Author:    &discordgo.User{ID: "user-1", Username: "tester"},
		Content:   "caption",
		Attachments: []*discordgo.MessageAttachment{
			{URL: "https://cdn/a.jpg"},
			{URL: "https://cdn/b.jpg"},
		},
	}})

	first := <-a.inbound
	if !first.IsPhoto() || first.MediaRef != "https://cdn/a.jpg" {
		t.Errorf("first event = %+v", first)
	}
	second := <-a.inbound
	if second.MediaRef != "https://cdn/b.jpg" {
		t.Errorf("second event = %+v", second)
	}
	third := <-a.inbound
	if third.Text != "caption" || third.UserID != "user-1" {
		t.Errorf("third event = %+v", third)
	}
}

func TestHandleMessage_IgnoresBots(t *testing.T) {
	sess := &mockSession{}
	a := connectedAdapter(t, sess)

	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:      "1",
		Author:  &discordgo.User{ID: "bot-1", Bot: true},
		Content: "beep",
	}})
	select {
	case ev := <-a.inbound:
		t.Errorf("bot message produced event %+v", ev)
	default:
	}
}

func TestHandleInteraction_ButtonPress(t *testing.T) {
	sess := &mockSession{}
	a := connectedAdapter(t, sess)

	a.handleInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: "chan-1",
		User:      &discordgo.User{ID: "user-1", Username: "tester"},
		Data:      discordgo.MessageComponentInteractionData{CustomID: "show-ads"},
	}})

	ev := <-a.inbound
	if !ev.IsAction() || ev.Action != "show-ads" || ev.UserID != "user-1" {
		t.Errorf("event = %+v", ev)
	}
	if sess.interactAck != 1 {
		t.Errorf("interaction not acknowledged")
	}
}
