// Package subject persists applicant/practitioner records.
//
// Error contract: sentinel.ErrNotFound for missing rows,
// sentinel.ErrConflict for uniqueness violations, sentinel.ErrInvalidState
// when a guarded update matched no row, wrapped infrastructure errors
// otherwise.
package subject

import (
	"context"
	"fmt"
	"sync"
	"time"

	"meridian/internal/applicant/models"
	id "meridian/pkg/domain"
	"meridian/pkg/platform/sentinel"
)

// InMemoryStore keeps subjects in process memory for tests and development.
type InMemoryStore struct {
	mu       sync.Mutex
	subjects map[id.SubjectID]*models.Subject
	byEmail  map[string]id.SubjectID
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		subjects: make(map[id.SubjectID]*models.Subject),
		byEmail:  make(map[string]id.SubjectID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, subject *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subjects[subject.ID]; exists {
		return fmt.Errorf("subject id taken: %w", sentinel.ErrConflict)
	}
	if _, exists := s.byEmail[subject.PersonalEmail]; exists {
		return fmt.Errorf("personal email taken: %w", sentinel.ErrConflict)
	}
	cp := *subject
	s.subjects[subject.ID] = &cp
	s.byEmail[subject.PersonalEmail] = subject.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return nil, fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
	}
	cp := *subject
	return &cp, nil
}

// Execute runs validate-then-mutate while holding the store lock, the
// memory analogue of SELECT FOR UPDATE. The mutation is only published when
// validation passes.
func (s *InMemoryStore) Execute(
	_ context.Context,
	subjectID id.SubjectID,
	validate func(*models.Subject) error,
	mutate func(*models.Subject),
) (*models.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return nil, fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
	}

	working := *subject
	if err := validate(&working); err != nil {
		return nil, err
	}
	mutate(&working)
	s.subjects[subjectID] = &working

	cp := working
	return &cp, nil
}

// SaveIdentity persists the directory step's outcome immediately after the
// external call succeeds, keeping partial progress durable for retries.
func (s *InMemoryStore) SaveIdentity(_ context.Context, subjectID id.SubjectID, directoryID, corporateEmail string, licenseAssigned bool, passwordHash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
	}
	subject.ApplyIdentity(directoryID, corporateEmail, licenseAssigned, now)
	if passwordHash != "" {
		subject.PortalPasswordHash = passwordHash
	}
	return nil
}

// CompleteProvisioning writes the practice-management match and the status
// flip to onboarded as one guarded mutation: either both land or neither.
func (s *InMemoryStore) CompleteProvisioning(_ context.Context, subjectID id.SubjectID, pmsRecordID, pmsSubRoleID string, now time.Time) (*models.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return nil, fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
	}
	if subject.Status != id.StatusOfferAccepted && subject.Status != id.StatusOnboardingInProg {
		return nil, fmt.Errorf("subject not provisionable: %w", sentinel.ErrInvalidState)
	}
	subject.ApplyPMSMatch(pmsRecordID, pmsSubRoleID, now)
	subject.ApplyOnboarded(now)

	cp := *subject
	return &cp, nil
}

// SaveNotesEnabled records the key step's outcome independently of the main
// provisioning write.
func (s *InMemoryStore) SaveNotesEnabled(_ context.Context, subjectID id.SubjectID, enabled bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
	}
	subject.ApplyNotesEnabled(enabled, now)
	return nil
}
