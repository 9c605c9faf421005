package vault

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"meridian/internal/applicant/models"
	"meridian/internal/platform/config"
	id "meridian/pkg/domain"
	"meridian/pkg/secrets"
)

// KeyStore appends wrapped-key records. Append must deactivate any prior
// active record for the subject.
type KeyStore interface {
	Append(ctx context.Context, record *models.NotesKeyRecord) error
}

// SubjectWriter flips the notes_enabled flag on the subject row.
type SubjectWriter interface {
	SaveNotesEnabled(ctx context.Context, subjectID id.SubjectID, enabled bool, now time.Time) error
}

// TxRunner executes fn atomically; the key record and the subject flag must
// land together or not at all.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// KeyProvisioner runs the notes-encryption step: a stable per-subject
// wrapping key in the vault, a fresh data-encryption key per run, and a
// wrapped record persisted atomically with the notes_enabled flag. The raw
// key is discarded as soon as it is wrapped.
type KeyProvisioner struct {
	client    Client
	keys      KeyStore
	subjects  SubjectWriter
	tx        TxRunner
	keyPrefix string
	logger    *slog.Logger
}

type KeyProvisionerOption func(*KeyProvisioner)

func WithLogger(logger *slog.Logger) KeyProvisionerOption {
	return func(p *KeyProvisioner) { p.logger = logger }
}

func NewKeyProvisioner(client Client, keys KeyStore, subjects SubjectWriter, tx TxRunner, cfg config.Vault, opts ...KeyProvisionerOption) *KeyProvisioner {
	p := &KeyProvisioner{
		client:    client,
		keys:      keys,
		subjects:  subjects,
		tx:        tx,
		keyPrefix: cfg.KeyPrefix,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// KeyName derives the per-subject vault key name from the directory id,
// which is stable across re-runs.
func (p *KeyProvisioner) KeyName(directoryID string) string {
	return p.keyPrefix + "-" + directoryID
}

// EnableNotes provisions the encryption material for a subject. Failures
// are returned for the caller to record; the onboarding run continues
// without notes and an admin re-run repeats this step.
func (p *KeyProvisioner) EnableNotes(ctx context.Context, subject *models.Subject, now time.Time) (*models.NotesKeyRecord, error) {
	keyName := p.KeyName(subject.DirectoryID)

	if err := p.client.EnsureWrappingKey(ctx, keyName); err != nil {
		return nil, fmt.Errorf("ensure wrapping key: %w", err)
	}

	dataKey, err := secrets.GenerateDataKey()
	if err != nil {
		return nil, err
	}
	wrapped, err := p.client.Wrap(ctx, keyName, dataKey)
	if err != nil {
		return nil, fmt.Errorf("wrap data key: %w", err)
	}

	record, err := models.NewNotesKeyRecord(subject.ID, keyName, wrapped.KeyVersion, wrapped.Ciphertext, now)
	if err != nil {
		return nil, err
	}

	err = p.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := p.keys.Append(ctx, record); err != nil {
			return fmt.Errorf("append notes key record: %w", err)
		}
		return p.subjects.SaveNotesEnabled(ctx, subject.ID, true, now)
	})
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "notes encryption enabled",
		"subject_id", subject.ID, "key_name", keyName, "key_version", record.KeyVersion)
	return record, nil
}
