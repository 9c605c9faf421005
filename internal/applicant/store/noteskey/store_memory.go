// Package noteskey persists wrapped data-encryption keys. At most one record
// per subject is active; appending a new key deactivates the prior one in
// the same operation.
package noteskey

import (
	"context"
	"fmt"
	"sync"

	"meridian/internal/applicant/models"
	id "meridian/pkg/domain"
	"meridian/pkg/platform/sentinel"
)

// InMemoryStore keeps key records in process memory for tests/dev.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[id.SubjectID][]*models.NotesKeyRecord
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.SubjectID][]*models.NotesKeyRecord)}
}

// Append stores a fresh active record, deactivating any prior active one.
func (s *InMemoryStore) Append(_ context.Context, record *models.NotesKeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records[record.SubjectID] {
		existing.Active = false
	}
	cp := *record
	cp.Active = true
	s.records[record.SubjectID] = append(s.records[record.SubjectID], &cp)
	return nil
}

// FindActive returns the subject's current active key record.
func (s *InMemoryStore) FindActive(_ context.Context, subjectID id.SubjectID) (*models.NotesKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records[subjectID] {
		if record.Active {
			cp := *record
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("no active notes key: %w", sentinel.ErrNotFound)
}

// History returns all records for a subject, newest last.
func (s *InMemoryStore) History(_ context.Context, subjectID id.SubjectID) ([]*models.NotesKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.NotesKeyRecord, 0, len(s.records[subjectID]))
	for _, record := range s.records[subjectID] {
		cp := *record
		out = append(out, &cp)
	}
	return out, nil
}
