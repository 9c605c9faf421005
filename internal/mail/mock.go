package mail

import (
	"context"
	"errors"
	"sync"
)

var errFailTo = errors.New("recipient rejected")

// MockSender records outbound messages for tests and local development.
type MockSender struct {
	mu   sync.Mutex
	sent []Message

	// SendErr fails every send when set.
	SendErr error
	// FailTo fails sends to one specific recipient.
	FailTo string
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	if m.FailTo != "" && msg.To == m.FailTo {
		return errFailTo
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (m *MockSender) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
