package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"meridian/internal/applicant/models"
	id "meridian/pkg/domain"
)

// Dispatcher composes and sends the onboarding flow's email. Delivery
// failures are returned for the caller to log; nothing here is fatal to a
// provisioning run.
type Dispatcher struct {
	sender Sender
	from   string
	ops    string
	logger *slog.Logger
}

type DispatcherOption func(*Dispatcher)

func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// MailConfig is the subset of config.Mail the dispatcher needs; kept as a
// tiny struct so tests do not need the full config package.
type MailConfig struct {
	FromAddress string
	OpsAddress  string
}

func NewDispatcher(sender Sender, cfg MailConfig, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		from:   cfg.FromAddress,
		ops:    cfg.OpsAddress,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SendTokenLink delivers a single-use link to the subject's personal email.
// The wording depends on the token purpose.
func (d *Dispatcher) SendTokenLink(ctx context.Context, subject *models.Subject, purpose id.TokenPurpose, link string, expiresAt time.Time) error {
	var subjLine, body string
	switch purpose {
	case id.PurposeOnboarding:
		subjLine = "Complete your Meridian Clinic onboarding"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour offer has been accepted. Use the link below to choose your portal password and finish onboarding.\n\n%s\n\nThe link can be used once and expires %s.\n",
			subject.FirstName, link, expiresAt.Format(time.RFC1123))
	case id.PurposeInterviewSched:
		subjLine = "Schedule your Meridian Clinic interview"
		body = fmt.Sprintf(
			"Hi %s,\n\nUse the link below to pick an interview slot.\n\n%s\n\nThe link can be used once and expires %s.\n",
			subject.FirstName, link, expiresAt.Format(time.RFC1123))
	case id.PurposeOfferAcceptance:
		subjLine = "Your offer from Meridian Clinic"
		body = fmt.Sprintf(
			"Hi %s,\n\nUse the link below to review and accept your offer.\n\n%s\n\nThe link can be used once and expires %s.\n",
			subject.FirstName, link, expiresAt.Format(time.RFC1123))
	default:
		return fmt.Errorf("no mail template for purpose %q", purpose)
	}

	return d.sender.Send(ctx, Message{
		To:      subject.PersonalEmail,
		From:    d.from,
		Subject: subjLine,
		Body:    body,
	})
}

// SendWelcome fans out the end-of-provisioning mail: a welcome to the
// practitioner's personal address (the corporate mailbox may not be live
// yet) and a summary to the operations alias. The two sends run
// concurrently; either failing fails the dispatch as a whole, but partial
// delivery stands.
func (d *Dispatcher) SendWelcome(ctx context.Context, subject *models.Subject, notesEnabled bool) error {
	welcome := Message{
		To:      subject.PersonalEmail,
		From:    d.from,
		Subject: "Welcome to Meridian Clinic",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour accounts are ready. Sign in to the portal with %s and the password you chose.\n",
			subject.FirstName, subject.CorporateEmail),
	}
	opsCopy := Message{
		To:      d.ops,
		From:    d.from,
		Subject: fmt.Sprintf("Provisioned: %s", subject.DisplayName()),
		Body: fmt.Sprintf(
			"Subject %s is onboarded.\ncorporate_email=%s\npms_record_id=%s\nnotes_enabled=%t\n",
			subject.ID, subject.CorporateEmail, subject.PMSRecordID, notesEnabled),
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, msg := range []Message{welcome, opsCopy} {
		g.Go(func() error {
			if err := d.sender.Send(ctx, msg); err != nil {
				d.logger.WarnContext(ctx, "mail delivery failed", "to", msg.To, "error", err)
				return fmt.Errorf("send to %s: %w", msg.To, err)
			}
			return nil
		})
	}
	return g.Wait()
}
