package slack

import (
	"context"
	"errors"
	"testing"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/zhuravin/rentline/internal/chat"
)

// mockClient implements slackClient for tests.
type mockClient struct {
	postedTo []string
	postErr  error
	openErr  error
	opened   []string
}

func (m *mockClient) AuthTest() (*slackapi.AuthTestResponse, error) {
	return &slackapi.AuthTestResponse{UserID: "BOT123"}, nil
}
func (m *mockClient) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postErr != nil {
		return "", "", m.postErr
	}
	m.postedTo = append(m.postedTo, channelID)
	return channelID, "1234567890.000001", nil
}
func (m *mockClient) OpenConversation(params *slackapi.OpenConversationParameters) (*slackapi.Channel, bool, bool, error) {
	if m.openErr != nil {
		return nil, false, false, m.openErr
	}
	m.opened = append(m.opened, params.Users[0])
	ch := &slackapi.Channel{}
	ch.ID = "D" + params.Users[0]
	return ch, false, false, nil
}
func (m *mockClient) GetUserInfo(userID string) (*slackapi.User, error) {
	return &slackapi.User{RealName: "Test " + userID}, nil
}

// mockSocket implements socketClient for tests.
type mockSocket struct {
	events chan socketmode.Event
	acks   int
}

func newMockSocket() *mockSocket {
	return &mockSocket{events: make(chan socketmode.Event, 10)}
}
func (m *mockSocket) Run() error                          { return nil }
func (m *mockSocket) EventsChan() chan socketmode.Event   { return m.events }
func (m *mockSocket) Ack(socketmode.Request, ...interface{}) { m.acks++ }

func connectedAdapter(t *testing.T, client *mockClient) *Adapter {
	t.Helper()
	a, err := New(AdapterOpts{Client: client, Socket: newMockSocket(), ChannelID: "C0DEFAULT"})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return a
}

func TestConnect_SetsBotUserID(t *testing.T) {
	a := connectedAdapter(t, &mockClient{})
	if a.BotUserID() != "BOT123" {
		t.Errorf("bot user id = %q", a.BotUserID())
	}
}

func TestSend_DefaultChannel(t *testing.T) {
	client := &mockClient{}
	a := connectedAdapter(t, client)

	if err := a.Send(context.Background(), chat.Message{Text: "hello"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if client.postedTo[0] != "C0DEFAULT" {
		t.Errorf("posted to %q", client.postedTo[0])
	}
}

func TestSend_UserIDOpensDM(t *testing.T) {
	client := &mockClient{}
	a := connectedAdapter(t, client)

	err := a.Send(context.Background(), chat.Message{
		ChannelID: "C1", UserID: "U42", Text: "hi",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(client.opened) != 1 || client.opened[0] != "U42" {
		t.Errorf("opened = %v", client.opened)
	}
	if client.postedTo[0] != "DU42" {
		t.Errorf("posted to %q, want DM channel", client.postedTo[0])
	}
}

func TestSend_BlockedRecipient(t *testing.T) {
	client := &mockClient{openErr: slackapi.SlackErrorResponse{Err: "cannot_dm_bot"}}
	a := connectedAdapter(t, client)

	err := a.Send(context.Background(), chat.Message{UserID: "U42", Text: "hi"})
	if !errors.Is(err, chat.ErrRecipientBlocked) {
		t.Errorf("err = %v, want ErrRecipientBlocked", err)
	}
}

func TestHandleMessage_FilesAndText(t *testing.T) {
	a := connectedAdapter(t, &mockClient{})

	a.handleMessage(&slackevents.MessageEvent{
		Channel:   "C1",
		User:      "U1",
		Text:      "caption",
		SubType:   "file_share",
		TimeStamp: "1700000000.000100",
		Files: []slackevents.File{
			{ID: "F001"},
			{ID: "F002"},
		},
	})

	first := <-a.inbound
	if !first.IsPhoto() || first.MediaRef != "F001" {
		t.Errorf("first event = %+v", first)
	}
	second := <-a.inbound
	if second.MediaRef != "F002" {
		t.Errorf("second event = %+v", second)
	}
	third := <-a.inbound
	if third.Text != "caption" || third.ChannelID != "C1" {
		t.Errorf("third event = %+v", third)
	}
}

func TestHandleMessage_IgnoresSelfAndBots(t *testing.T) {
	a := connectedAdapter(t, &mockClient{})

	a.handleMessage(&slackevents.MessageEvent{User: "BOT123", Text: "self"})
	a.handleMessage(&slackevents.MessageEvent{User: "U1", BotID: "B9", Text: "bot"})
	a.handleMessage(&slackevents.MessageEvent{User: "U1", SubType: "message_changed", Text: "edit"})

	select {
	case ev := <-a.inbound:
		t.Errorf("filtered message produced event %+v", ev)
	default:
	}
}

func TestHandleInteraction_ButtonPress(t *testing.T) {
	a := connectedAdapter(t, &mockClient{})

	callback := slackapi.InteractionCallback{
		Type: slackapi.InteractionTypeBlockActions,
		User: slackapi.User{ID: "U1", Name: "tester"},
		ActionCallback: slackapi.ActionCallbacks{
			BlockActions: []*slackapi.BlockAction{{ActionID: "next-7"}},
		},
	}
	callback.Channel.ID = "C1"

	a.handleInteraction(callback)
	ev := <-a.inbound
	if !ev.IsAction() || ev.Action != "next-7" || ev.UserID != "U1" || ev.ChannelID != "C1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestParseSlackTimestamp(t *testing.T) {
	ts := parseSlackTimestamp("1700000000.000100")
	if ts.Unix() != 1700000000 {
		t.Errorf("parsed = %v", ts)
	}
	if !parseSlackTimestamp("junk").IsZero() {
		t.Error("junk timestamp should parse to zero time")
	}
}
