package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zhuravin/rentline/internal/chat"
	"github.com/zhuravin/rentline/internal/models"
)

func TestDaemon_RoutesInboundEvents(t *testing.T) {
	_, adapter, r := setup(t)
	d, err := NewDaemon(DaemonOpts{Adapter: adapter, Router: r})
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	adapter.SimulateInbound(textEvent(userID, "/start"))

	deadline := time.After(2 * time.Second)
	for adapter.SentCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("daemon never processed the event")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if got := lastText(t, adapter); got != chat.WelcomeMessage {
		t.Errorf("response = %q, want welcome", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not shut down")
	}
}

func TestDaemon_StopsWhenStreamCloses(t *testing.T) {
	_, adapter, r := setup(t)
	d, err := NewDaemon(DaemonOpts{Adapter: adapter, Router: r})
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	// Give the daemon a moment to reach the receive loop, then close.
	time.Sleep(20 * time.Millisecond)
	adapter.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop on stream close")
	}
}

func TestDigest_Fire(t *testing.T) {
	s, adapter, _ := setup(t)
	l := &models.Listing{Description: "Flat", Price: "1000", ManagerContact: "@m"}
	if err := s.CreateListing(l, []string{"media-1"}); err != nil {
		t.Fatalf("create listing: %v", err)
	}

	dg, err := NewDigest(DigestOpts{
		Store: s, Adapter: adapter,
		Admins: []string{adminID, "admin-2"},
		Cron:   "0 9 * * *",
	})
	if err != nil {
		t.Fatalf("new digest: %v", err)
	}

	dg.Fire(context.Background())
	sent := adapter.AllSent()
	if len(sent) != 2 {
		t.Fatalf("sent %d messages, want one per admin", len(sent))
	}
	for _, msg := range sent {
		if !strings.Contains(msg.Text, "statistics") {
			t.Errorf("digest to %s = %q", msg.UserID, msg.Text)
		}
	}
}

func TestNewDigest_BadCron(t *testing.T) {
	s, adapter, _ := setup(t)
	_, err := NewDigest(DigestOpts{
		Store: s, Adapter: adapter, Admins: []string{adminID}, Cron: "not a cron",
	})
	if err == nil {
		t.Fatal("expected error for bad cron expression")
	}
}
