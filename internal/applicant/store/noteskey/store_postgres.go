package noteskey

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"meridian/internal/applicant/models"
	id "meridian/pkg/domain"
	"meridian/pkg/platform/sentinel"
	"meridian/pkg/platform/tx"
)

// PostgresStore persists wrapped key records in PostgreSQL. A partial unique
// index on (subject_id) WHERE is_active backs the one-active invariant.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append deactivates the subject's current key and inserts the new one.
// Callers run this inside a transaction (tx in context) so the two
// statements land together and the partial unique index never trips.
func (s *PostgresStore) Append(ctx context.Context, record *models.NotesKeyRecord) error {
	exec := tx.Exec(ctx, s.db)

	_, err := exec.ExecContext(ctx,
		`UPDATE notes_keys SET is_active = FALSE WHERE subject_id = $1 AND is_active`,
		uuid.UUID(record.SubjectID))
	if err != nil {
		return fmt.Errorf("deactivate prior notes key: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO notes_keys (id, subject_id, key_name, key_version, wrapped_key, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6)`,
		uuid.UUID(record.ID),
		uuid.UUID(record.SubjectID),
		record.KeyName,
		record.KeyVersion,
		record.WrappedKey,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notes key: %w", err)
	}
	return nil
}

// FindActive returns the subject's current active key record.
func (s *PostgresStore) FindActive(ctx context.Context, subjectID id.SubjectID) (*models.NotesKeyRecord, error) {
	query := `
		SELECT id, subject_id, key_name, key_version, wrapped_key, is_active, created_at
		FROM notes_keys
		WHERE subject_id = $1 AND is_active
	`
	record, err := scanRecord(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(subjectID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no active notes key: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find active notes key: %w", err)
	}
	return record, nil
}

// History returns all key records for a subject, oldest first.
func (s *PostgresStore) History(ctx context.Context, subjectID id.SubjectID) ([]*models.NotesKeyRecord, error) {
	query := `
		SELECT id, subject_id, key_name, key_version, wrapped_key, is_active, created_at
		FROM notes_keys
		WHERE subject_id = $1
		ORDER BY created_at
	`
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, query, uuid.UUID(subjectID))
	if err != nil {
		return nil, fmt.Errorf("list notes keys: %w", err)
	}
	defer rows.Close()

	var out []*models.NotesKeyRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notes key: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.NotesKeyRecord, error) {
	var (
		recordID  uuid.UUID
		subjectID uuid.UUID
		record    models.NotesKeyRecord
		createdAt time.Time
	)
	if err := row.Scan(&recordID, &subjectID, &record.KeyName, &record.KeyVersion,
		&record.WrappedKey, &record.Active, &createdAt); err != nil {
		return nil, err
	}
	record.ID = id.NotesKeyID(recordID)
	record.SubjectID = id.SubjectID(subjectID)
	record.CreatedAt = createdAt
	return &record, nil
}
