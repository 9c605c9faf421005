package directory

import (
	"context"
	"fmt"
	"sync"

	"meridian/pkg/platform/sentinel"

	"github.com/google/uuid"
)

// Mock is an in-memory directory used by unit tests and local development.
// It enforces the same address uniqueness as the real provider and counts
// account creations so tests can assert idempotency.
type Mock struct {
	mu       sync.Mutex
	accounts map[string]*Account

	// Injectable failures.
	FindErr   error
	CreateErr error

	CreateCalls int
	FindCalls   int
}

func NewMock() *Mock {
	return &Mock{accounts: make(map[string]*Account)}
}

// Seed installs an account ahead of a test, as if a previous run created it.
func (m *Mock) Seed(account Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := account
	m.accounts[account.Address] = &copied
}

func (m *Mock) FindByAddress(_ context.Context, address string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	account, ok := m.accounts[address]
	if !ok {
		return nil, fmt.Errorf("no account for %s: %w", address, sentinel.ErrNotFound)
	}
	copied := *account
	return &copied, nil
}

func (m *Mock) CreateAccount(_ context.Context, req CreateAccountRequest) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if _, exists := m.accounts[req.Address]; exists {
		return nil, fmt.Errorf("address %s already taken: %w", req.Address, sentinel.ErrConflict)
	}
	account := &Account{
		ID:              uuid.NewString(),
		Address:         req.Address,
		LicenseAssigned: true,
	}
	m.accounts[req.Address] = account
	copied := *account
	return &copied, nil
}
