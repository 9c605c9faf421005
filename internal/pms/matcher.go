package pms

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"meridian/internal/applicant/models"
	dErrors "meridian/pkg/domain-errors"
	"meridian/pkg/platform/sentinel"
)

// Match is the outcome of linking a subject to their PMS staff record.
type Match struct {
	RecordID string
	// SubRoleID may be empty; SubRoleResolved distinguishes "no sub-role
	// applies" from "sub-role lookup failed and can be retried by an admin".
	SubRoleID       string
	SubRoleResolved bool
}

// Matcher links a subject to the staff record the practice manager created
// in the PMS. It never creates records: a missing record is a process
// failure upstream, reported as CodePMSNotFound so operators know the fix
// is in the PMS, not here. A PMS outage is CodePMSUnavailable instead, so
// the practitioner can simply retry.
type Matcher struct {
	client Client
	logger *slog.Logger
}

type MatcherOption func(*Matcher)

func WithLogger(logger *slog.Logger) MatcherOption {
	return func(m *Matcher) { m.logger = logger }
}

func NewMatcher(client Client, opts ...MatcherOption) *Matcher {
	m := &Matcher{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchSubject finds the staff record by the subject's personal email
// first, then falls back to an exact name match. The practice manager
// creates PMS records before onboarding runs, so they carry the email the
// subject applied with, never the corporate address minted moments ago.
// Sub-role resolution is best effort and never fails the match.
func (m *Matcher) MatchSubject(ctx context.Context, subject *models.Subject) (*Match, error) {
	record, err := m.client.FindByEmail(ctx, subject.PersonalEmail)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodePMSUnavailable, "practice-management lookup failed")
		}
		record, err = m.client.FindByName(ctx, subject.FirstName, subject.LastName)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Newf(dErrors.CodePMSNotFound,
					"no staff record for %s; the practice manager must create it first", subject.DisplayName())
			}
			return nil, dErrors.Wrap(err, dErrors.CodePMSUnavailable, "practice-management lookup failed")
		}
	}

	match := &Match{RecordID: record.ID}
	subRoleID, resolved := m.resolveSubRole(ctx, record)
	match.SubRoleID = subRoleID
	match.SubRoleResolved = resolved
	return match, nil
}

func (m *Matcher) resolveSubRole(ctx context.Context, record *Record) (string, bool) {
	subRoles, err := m.client.ListSubRoles(ctx, record.ID)
	if err != nil {
		m.logger.WarnContext(ctx, "sub-role lookup failed, continuing without one",
			"pms_record_id", record.ID, "error", err)
		return "", false
	}
	switch {
	case len(subRoles) == 0:
		return "", true
	case len(subRoles) == 1:
		return subRoles[0].ID, true
	}
	for _, sr := range subRoles {
		if strings.EqualFold(sr.Name, record.Role) {
			return sr.ID, true
		}
	}
	// Ambiguous: leave it for an admin rather than guess.
	m.logger.WarnContext(ctx, "multiple sub-roles and none matched the staff role",
		"pms_record_id", record.ID, "role", record.Role)
	return "", true
}
