package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
)

// Mock is an in-memory vault. Its "wrapping" is base64 with a marker prefix
// so tests can assert the plaintext key never appears in stored material.
type Mock struct {
	mu   sync.Mutex
	keys map[string]int

	// Injectable failures.
	EnsureErr error
	WrapErr   error

	EnsureCalls int
	WrapCalls   int
}

func NewMock() *Mock {
	return &Mock{keys: make(map[string]int)}
}

func (m *Mock) EnsureWrappingKey(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnsureCalls++
	if m.EnsureErr != nil {
		return m.EnsureErr
	}
	if _, ok := m.keys[name]; !ok {
		m.keys[name] = 1
	}
	return nil
}

func (m *Mock) Wrap(_ context.Context, name string, plaintext []byte) (*WrapResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WrapCalls++
	if m.WrapErr != nil {
		return nil, m.WrapErr
	}
	version, ok := m.keys[name]
	if !ok {
		return nil, fmt.Errorf("wrapping key %s does not exist", name)
	}
	return &WrapResult{
		Ciphertext: "vault:v1:" + base64.StdEncoding.EncodeToString(plaintext),
		KeyVersion: fmt.Sprintf("v%d", version),
	}, nil
}
