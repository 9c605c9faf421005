package token

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

// PostgresStore persists tokens in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Issue upserts on (subject_id, purpose): a resend overwrites the previous
// token row in place, so the old random value no longer matches any row.
func (s *PostgresStore) Issue(ctx context.Context, token *models.OnboardingToken) error {
	query := `
		INSERT INTO onboarding_tokens (id, subject_id, purpose, value, issued_at, expires_at, consumed_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL)
		ON CONFLICT (subject_id, purpose) DO UPDATE SET
			id = EXCLUDED.id,
			value = EXCLUDED.value,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at,
			consumed_at = NULL
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(token.ID),
		uuid.UUID(token.SubjectID),
		string(token.Purpose),
		token.Value,
		token.IssuedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	return nil
}

// FindByValue is the non-consuming peek. Read-only by contract: reloading an
// onboarding page must never burn the link.
func (s *PostgresStore) FindByValue(ctx context.Context, value string) (*models.OnboardingToken, error) {
	query := `
		SELECT id, subject_id, purpose, value, issued_at, expires_at, consumed_at
		FROM onboarding_tokens
		WHERE value = $1
	`
	token, err := scanToken(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, value))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("token not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return token, nil
}

// Consume is the saga's single serialization point: one conditional UPDATE
// whose WHERE clause encodes the whole validity invariant. Under concurrent
// attempts on the same value, postgres serializes the row update and only
// one caller sees a row come back; every loser gets the same
// undifferentiated error, deliberately not revealing whether the token ever
// existed.
func (s *PostgresStore) Consume(ctx context.Context, value string, purpose id.TokenPurpose, now time.Time) (*models.OnboardingToken, error) {
	query := `
		UPDATE onboarding_tokens
		SET consumed_at = $3
		WHERE value = $1
		  AND purpose = $2
		  AND consumed_at IS NULL
		  AND expires_at > $3
		RETURNING id, subject_id, purpose, value, issued_at, expires_at, consumed_at
	`
	token, err := scanToken(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, value, string(purpose), now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("token not consumable: %w", sentinel.ErrInvalidState)
		}
		return nil, fmt.Errorf("consume token: %w", err)
	}
	return token, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*models.OnboardingToken, error) {
	var (
		tokenID    uuid.UUID
		subjectID  uuid.UUID
		purpose    string
		value      string
		issuedAt   time.Time
		expiresAt  time.Time
		consumedAt sql.NullTime
	)
	if err := row.Scan(&tokenID, &subjectID, &purpose, &value, &issuedAt, &expiresAt, &consumedAt); err != nil {
		return nil, err
	}
	token := &models.OnboardingToken{
		ID:        id.TokenID(tokenID),
		SubjectID: id.SubjectID(subjectID),
		Purpose:   id.TokenPurpose(purpose),
		Value:     value,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}
	if consumedAt.Valid {
		t := consumedAt.Time
		token.ConsumedAt = &t
	}
	return token, nil
}
