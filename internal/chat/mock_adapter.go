package chat

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockAdapter implements Adapter for testing. It records sent messages,
// allows simulating inbound events, and can be told to fail deliveries to
// specific users.
type MockAdapter struct {
	mu        sync.Mutex
	connected bool
	closed    bool
	inbound   chan Event
	sent      []Message
	failFor   map[string]error // userID -> error to return from Send
}

// NewMockAdapter creates a MockAdapter with a buffered inbound channel.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		inbound: make(chan Event, 100),
		failFor: make(map[string]error),
	}
}

// Connect marks the adapter as connected.
func (m *MockAdapter) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock adapter: already closed")
	}
	m.connected = true
	return nil
}

// Listen returns the inbound event channel. Must be called after Connect.
func (m *MockAdapter) Listen(ctx context.Context) (<-chan Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, fmt.Errorf("mock adapter: not connected")
	}
	return m.inbound, nil
}

// Send records the outbound message, or returns the configured failure for
// the target user.
func (m *MockAdapter) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return fmt.Errorf("mock adapter: not connected")
	}
	if err, ok := m.failFor[msg.UserID]; ok && msg.UserID != "" {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Close shuts down the mock adapter and closes the inbound channel.
func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.connected = false
	close(m.inbound)
	return nil
}

// --- Test helpers ---

// SimulateInbound sends an event into the inbound channel as if it came from
// the chat platform. Safe to call from any goroutine.
func (m *MockAdapter) SimulateInbound(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	m.inbound <- ev
}

// FailDeliveryTo makes Send return err for direct messages to userID.
func (m *MockAdapter) FailDeliveryTo(userID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFor[userID] = err
}

// LastSent returns the most recently sent message.
// Returns zero value and false if no messages have been sent.
func (m *MockAdapter) LastSent() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// SentCount returns the number of messages sent.
func (m *MockAdapter) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// AllSent returns a copy of all sent messages.
func (m *MockAdapter) AllSent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// Reset clears the sent-message log.
func (m *MockAdapter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
