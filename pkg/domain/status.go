package domain

import dErrors "meridian/pkg/domain-errors"

// SubjectStatus is the lifecycle state of an applicant/practitioner.
// Invariant: transitions only through the table below; denied and onboarded
// are terminal.
type SubjectStatus string

const (
	StatusApplied            SubjectStatus = "applied"
	StatusReviewed           SubjectStatus = "reviewed"
	StatusDenied             SubjectStatus = "denied"
	StatusWaitlisted         SubjectStatus = "waitlisted"
	StatusInterviewScheduled SubjectStatus = "interview_scheduled"
	StatusAccepted           SubjectStatus = "accepted"
	StatusOfferSent          SubjectStatus = "offer_sent"
	StatusOfferAccepted      SubjectStatus = "offer_accepted"
	StatusOnboardingInProg   SubjectStatus = "onboarding_in_progress"
	StatusOnboarded          SubjectStatus = "onboarded"
)

// subjectTransitions is the single source of truth for allowed moves.
// waitlisted and interview_scheduled are re-enterable: an admin may pull a
// waitlisted subject back into the pipeline later.
var subjectTransitions = map[SubjectStatus][]SubjectStatus{
	StatusApplied:            {StatusReviewed},
	StatusReviewed:           {StatusDenied, StatusWaitlisted, StatusInterviewScheduled},
	StatusWaitlisted:         {StatusInterviewScheduled, StatusAccepted, StatusDenied},
	StatusInterviewScheduled: {StatusDenied, StatusWaitlisted, StatusAccepted},
	StatusAccepted:           {StatusOfferSent},
	StatusOfferSent:          {StatusOfferAccepted, StatusOfferSent},
	StatusOfferAccepted:      {StatusOnboardingInProg},
	StatusOnboardingInProg:   {StatusOnboarded},
	StatusDenied:             nil,
	StatusOnboarded:          nil,
}

// ParseSubjectStatus constructs a SubjectStatus from external input.
func ParseSubjectStatus(s string) (SubjectStatus, error) {
	st := SubjectStatus(s)
	if _, ok := subjectTransitions[st]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown subject status")
	}
	return st, nil
}

// IsTerminal reports whether no further transition is allowed.
func (s SubjectStatus) IsTerminal() bool {
	targets, ok := subjectTransitions[s]
	return ok && len(targets) == 0
}

// CanTransitionTo reports whether the move s -> next is allowed.
func (s SubjectStatus) CanTransitionTo(next SubjectStatus) bool {
	for _, t := range subjectTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
