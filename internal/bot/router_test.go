package bot

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zhuravin/rentline/internal/chat"
	"github.com/zhuravin/rentline/internal/conversation"
	"github.com/zhuravin/rentline/internal/feed"
	"github.com/zhuravin/rentline/internal/models"
	"github.com/zhuravin/rentline/internal/notify"
	"github.com/zhuravin/rentline/internal/store"
)

const (
	adminID = "admin-1"
	userID  = "user-1"
)

func setup(t *testing.T) (*store.Store, *chat.MockAdapter, *Router) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Listing{}, &models.Photo{}, &models.User{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	s, err := store.New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	adapter := chat.NewMockAdapter()
	if err := adapter.Connect(context.Background()); err != nil {
		t.Fatalf("connect mock: %v", err)
	}

	admins := []string{adminID}
	notifier, err := notify.New(notify.Opts{Store: s, Adapter: adapter, Exclude: admins})
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	conv, err := conversation.NewEngine(conversation.EngineOpts{
		Store: s, Adapter: adapter, Announcer: notifier,
	})
	if err != nil {
		t.Fatalf("new conversation engine: %v", err)
	}
	fd, err := feed.NewEngine(feed.Opts{
		Store: s, Adapter: adapter, Rand: rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("new feed engine: %v", err)
	}
	r, err := NewRouter(RouterOpts{
		Store: s, Conversation: conv, Feed: fd, Adapter: adapter,
		Admins: admins, Out: io.Discard,
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return s, adapter, r
}

func textEvent(user, text string) chat.Event {
	return chat.Event{ChannelID: "dm-" + user, UserID: user, UserName: user, Text: text}
}

func actionEvent(user, action string) chat.Event {
	return chat.Event{ChannelID: "dm-" + user, UserID: user, UserName: user, Action: action}
}

func photoEvent(user, ref string) chat.Event {
	return chat.Event{ChannelID: "dm-" + user, UserID: user, UserName: user, MediaRef: ref}
}

func lastText(t *testing.T, adapter *chat.MockAdapter) string {
	t.Helper()
	msg, ok := adapter.LastSent()
	if !ok {
		t.Fatal("no message sent")
	}
	return msg.Text
}

func TestHandle_StartRegistersUser(t *testing.T) {
	s, adapter, r := setup(t)
	r.Handle(context.Background(), textEvent(userID, "/start"))

	if got := lastText(t, adapter); got != chat.WelcomeMessage {
		t.Errorf("response = %q, want welcome", got)
	}
	user, err := s.GetUser(userID)
	if err != nil {
		t.Fatalf("user not registered: %v", err)
	}
	if !user.NotificationsEnabled {
		t.Error("new user not subscribed by default")
	}
}

func TestHandle_AdminGate(t *testing.T) {
	_, adapter, r := setup(t)
	ctx := context.Background()

	for _, action := range []string{
		chat.ActionAddListing, chat.ActionAddPromo, chat.ActionEditListing,
		chat.ActionDeleteListing, chat.ActionStats, "edit-desc-1", "confirm-delete-1",
	} {
		r.Handle(ctx, actionEvent(userID, action))
		if got := lastText(t, adapter); got != chat.NotAdminMessage {
			t.Errorf("action %q: response = %q, want denial", action, got)
		}
	}

	r.Handle(ctx, textEvent(userID, "/admin"))
	if got := lastText(t, adapter); got != chat.NotAdminMessage {
		t.Errorf("/admin by non-admin: %q", got)
	}

	r.Handle(ctx, textEvent(adminID, "/admin"))
	if got := lastText(t, adapter); got != chat.AdminMenuMessage {
		t.Errorf("/admin by admin: %q", got)
	}
}

func TestHandle_ToggleNotifications(t *testing.T) {
	s, adapter, r := setup(t)
	ctx := context.Background()

	r.Handle(ctx, textEvent(userID, "/notifications"))
	if got := lastText(t, adapter); !strings.Contains(got, "disabled") {
		t.Errorf("first toggle: %q", got)
	}
	user, err := s.GetUser(userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.NotificationsEnabled {
		t.Error("toggle did not persist")
	}

	r.Handle(ctx, actionEvent(userID, chat.ActionToggleNotifications))
	if got := lastText(t, adapter); !strings.Contains(got, "enabled") {
		t.Errorf("second toggle: %q", got)
	}
}

func TestHandle_StrayTextIgnored(t *testing.T) {
	_, adapter, r := setup(t)
	r.Handle(context.Background(), textEvent(userID, "hello there"))
	if n := adapter.SentCount(); n != 0 {
		t.Errorf("stray text produced %d messages", n)
	}
}

func TestHandle_DeleteFlow(t *testing.T) {
	s, adapter, r := setup(t)
	ctx := context.Background()

	l := &models.Listing{Description: "Flat", Price: "1000", ManagerContact: "@m"}
	if err := s.CreateListing(l, []string{"media-1"}); err != nil {
		t.Fatalf("create listing: %v", err)
	}

	r.Handle(ctx, actionEvent(adminID, chat.ActionDeleteListing))
	msg, _ := adapter.LastSent()
	if !strings.Contains(msg.Text, "delete") && !strings.Contains(msg.Text, "Delete") {
		t.Errorf("selection list = %q", msg.Text)
	}

	r.Handle(ctx, actionEvent(adminID, chat.ListingAction(chat.ActionDeleteAd, l.ID)))
	if got := lastText(t, adapter); !strings.Contains(got, "cannot be undone") {
		t.Errorf("confirm prompt = %q", got)
	}

	r.Handle(ctx, actionEvent(adminID, chat.ListingAction(chat.ActionConfirmDelete, l.ID)))
	if got := lastText(t, adapter); !strings.Contains(got, "deleted") {
		t.Errorf("delete ack = %q", got)
	}
	if _, err := s.GetListing(l.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("listing still present: %v", err)
	}

	// Deleting again degrades to the gone notice.
	r.Handle(ctx, actionEvent(adminID, chat.ListingAction(chat.ActionConfirmDelete, l.ID)))
	if got := lastText(t, adapter); got != chat.ListingGoneNotice {
		t.Errorf("double delete = %q", got)
	}
}

func TestHandle_StatsAction(t *testing.T) {
	s, adapter, r := setup(t)
	l := &models.Listing{Description: "Flat", Price: "1000", ManagerContact: "@m"}
	if err := s.CreateListing(l, []string{"media-1"}); err != nil {
		t.Fatalf("create listing: %v", err)
	}

	r.Handle(context.Background(), actionEvent(adminID, chat.ActionStats))
	if got := lastText(t, adapter); !strings.Contains(got, "statistics") {
		t.Errorf("stats response = %q", got)
	}
}

// Full path: admin creates a listing through the conversation flow and a
// subscribed non-admin user is notified with a deep link to it.
func TestEndToEnd_AddListingNotifiesSubscriber(t *testing.T) {
	s, adapter, r := setup(t)
	ctx := context.Background()

	r.Handle(ctx, textEvent(userID, "/start")) // registers the subscriber

	r.Handle(ctx, actionEvent(adminID, chat.ActionAddListing))
	r.Handle(ctx, photoEvent(adminID, "media-1"))
	r.Handle(ctx, photoEvent(adminID, "media-2"))
	r.Handle(ctx, actionEvent(adminID, chat.ActionPhotosDone))
	r.Handle(ctx, textEvent(adminID, "Test flat"))
	r.Handle(ctx, textEvent(adminID, "1500.50"))
	r.Handle(ctx, textEvent(adminID, "@m"))
	r.Handle(ctx, actionEvent(adminID, chat.ActionConfirm))

	listings, err := s.RegularListings()
	if err != nil {
		t.Fatalf("regular listings: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings, want 1", len(listings))
	}
	l := listings[0]
	if l.Description != "Test flat" || l.Price != "1500.50" || l.ManagerContact != "@m" {
		t.Errorf("stored listing = %+v", l)
	}
	photos, err := s.Photos(l.ID)
	if err != nil {
		t.Fatalf("photos: %v", err)
	}
	if len(photos) != 2 || photos[0].Position != 0 || photos[1].Position != 1 {
		t.Errorf("stored photos = %+v", photos)
	}

	var alert *chat.Message
	for _, msg := range adapter.AllSent() {
		if msg.UserID == userID && msg.Text == chat.NewListingAlert {
			m := msg
			alert = &m
		}
	}
	if alert == nil {
		t.Fatal("subscriber received no notification")
	}
	wantAction := chat.ListingAction(chat.ActionView, l.ID)
	if alert.Keyboard == nil || alert.Keyboard.Rows[0][0].Action != wantAction {
		t.Errorf("alert keyboard = %+v, want deep link %q", alert.Keyboard, wantAction)
	}

	// The deep link anchors a browsing session on that listing.
	adapter.Reset()
	r.Handle(ctx, actionEvent(userID, wantAction))
	if got := lastText(t, adapter); !strings.Contains(got, "Test flat") {
		t.Errorf("deep-link render = %q", got)
	}
}

func TestHandle_CancelOverridesFlow(t *testing.T) {
	_, adapter, r := setup(t)
	ctx := context.Background()

	r.Handle(ctx, actionEvent(adminID, chat.ActionAddListing))
	r.Handle(ctx, photoEvent(adminID, "media-1"))
	r.Handle(ctx, actionEvent(adminID, chat.ActionCancel))
	if got := lastText(t, adapter); !strings.Contains(got, "cancelled") {
		t.Errorf("cancel response = %q", got)
	}

	// A fresh flow starts with an empty photo list.
	r.Handle(ctx, actionEvent(adminID, chat.ActionAddListing))
	r.Handle(ctx, actionEvent(adminID, chat.ActionPhotosDone))
	if got := lastText(t, adapter); !strings.Contains(got, "at least one photo") {
		t.Errorf("new flow kept old photos: %q", got)
	}
}

func TestHandle_BrowseCommand(t *testing.T) {
	s, adapter, r := setup(t)
	l := &models.Listing{Description: "Flat", Price: "1000", ManagerContact: "@m"}
	if err := s.CreateListing(l, []string{"media-1"}); err != nil {
		t.Fatalf("create listing: %v", err)
	}

	r.Handle(context.Background(), textEvent(userID, "/browse"))
	if got := lastText(t, adapter); !strings.Contains(got, "1 of 1") {
		t.Errorf("/browse response = %q", got)
	}
}
