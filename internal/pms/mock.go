package pms

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"meridian/pkg/platform/sentinel"
)

// Mock is an in-memory PMS used by unit tests and local development.
type Mock struct {
	mu       sync.Mutex
	records  []Record
	subRoles map[string][]SubRole

	// Injectable failures.
	FindErr     error
	SubRolesErr error

	FindByEmailCalls int
	FindByNameCalls  int
}

func NewMock() *Mock {
	return &Mock{subRoles: make(map[string][]SubRole)}
}

func (m *Mock) Seed(record Record, subRoles ...SubRole) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	if len(subRoles) > 0 {
		m.subRoles[record.ID] = subRoles
	}
}

func (m *Mock) FindByEmail(_ context.Context, email string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByEmailCalls++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for i := range m.records {
		if strings.EqualFold(m.records[i].Email, email) {
			copied := m.records[i]
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("no staff record for %s: %w", email, sentinel.ErrNotFound)
}

func (m *Mock) FindByName(_ context.Context, firstName, lastName string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByNameCalls++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for i := range m.records {
		if strings.EqualFold(m.records[i].FirstName, firstName) && strings.EqualFold(m.records[i].LastName, lastName) {
			copied := m.records[i]
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("no staff record for %s %s: %w", firstName, lastName, sentinel.ErrNotFound)
}

func (m *Mock) ListSubRoles(_ context.Context, recordID string) ([]SubRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubRolesErr != nil {
		return nil, m.SubRolesErr
	}
	return m.subRoles[recordID], nil
}
