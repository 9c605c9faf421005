package subject

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"meridian/internal/applicant/models"
	id "meridian/pkg/domain"
	"meridian/pkg/platform/sentinel"
	"meridian/pkg/platform/tx"
)

const subjectColumns = `
	id, first_name, last_name, personal_email, phone, status,
	directory_id, corporate_email, pms_record_id, pms_sub_role_id,
	portal_password_hash, notes_enabled, license_assigned,
	created_at, updated_at
`

// PostgresStore persists subjects in PostgreSQL. Pure I/O; lifecycle rules
// live on the model and in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, subject *models.Subject) error {
	query := `
		INSERT INTO subjects (` + subjectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(subject.ID),
		subject.FirstName,
		subject.LastName,
		subject.PersonalEmail,
		subject.Phone,
		string(subject.Status),
		subject.DirectoryID,
		subject.CorporateEmail,
		subject.PMSRecordID,
		subject.PMSSubRoleID,
		subject.PortalPasswordHash,
		subject.NotesEnabled,
		subject.LicenseAssigned,
		subject.CreatedAt,
		subject.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("subject already exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`
	subject, err := scanSubject(tx.Exec(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(subjectID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return subject, nil
}

// Execute locks the row (FOR UPDATE), validates, mutates, and writes back in
// one transaction. When the context already carries a transaction the
// surrounding one is used.
func (s *PostgresStore) Execute(
	ctx context.Context,
	subjectID id.SubjectID,
	validate func(*models.Subject) error,
	mutate func(*models.Subject),
) (*models.Subject, error) {
	run := func(ctx context.Context, exec tx.Executor) (*models.Subject, error) {
		query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1 FOR UPDATE`
		subject, err := scanSubject(exec.QueryRowContext(ctx, query, uuid.UUID(subjectID)))
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
			}
			return nil, fmt.Errorf("lock subject: %w", err)
		}
		if err := validate(subject); err != nil {
			return nil, err
		}
		mutate(subject)
		if err := s.writeBack(ctx, exec, subject); err != nil {
			return nil, err
		}
		return subject, nil
	}

	if outer, ok := tx.From(ctx); ok {
		return run(ctx, outer)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin subject tx: %w", err)
	}
	subject, err := run(ctx, dbTx)
	if err != nil {
		_ = dbTx.Rollback()
		return nil, err
	}
	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit subject tx: %w", err)
	}
	return subject, nil
}

// SaveIdentity persists the directory step's fields immediately after the
// external call succeeds. A retry that crashed between the call and this
// write repeats a lookup, not a creation, so the write is a plain update.
func (s *PostgresStore) SaveIdentity(ctx context.Context, subjectID id.SubjectID, directoryID, corporateEmail string, licenseAssigned bool, passwordHash string, now time.Time) error {
	query := `
		UPDATE subjects
		SET directory_id = $2,
		    corporate_email = $3,
		    license_assigned = $4,
		    portal_password_hash = CASE WHEN $5 = '' THEN portal_password_hash ELSE $5 END,
		    updated_at = $6
		WHERE id = $1
	`
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(subjectID), directoryID, corporateEmail, licenseAssigned, passwordHash, now)
	if err != nil {
		return fmt.Errorf("save identity outcome: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

// CompleteProvisioning writes the practice-management fields and the status
// flip to onboarded in one conditional statement. Zero rows means the
// subject was not in a provisionable state and the step is treated as if it
// never happened.
func (s *PostgresStore) CompleteProvisioning(ctx context.Context, subjectID id.SubjectID, pmsRecordID, pmsSubRoleID string, now time.Time) (*models.Subject, error) {
	query := `
		UPDATE subjects
		SET pms_record_id = $2,
		    pms_sub_role_id = $3,
		    status = 'onboarded',
		    updated_at = $4
		WHERE id = $1
		  AND status IN ('offer_accepted', 'onboarding_in_progress')
		RETURNING ` + subjectColumns
	subject, err := scanSubject(tx.Exec(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(subjectID), pmsRecordID, pmsSubRoleID, now))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("subject not provisionable: %w", sentinel.ErrInvalidState)
		}
		return nil, fmt.Errorf("complete provisioning: %w", err)
	}
	return subject, nil
}

// SaveNotesEnabled records the key step's outcome, independent of the main
// provisioning write by design: a key failure after onboarded must not
// disturb the status.
func (s *PostgresStore) SaveNotesEnabled(ctx context.Context, subjectID id.SubjectID, enabled bool, now time.Time) error {
	query := `UPDATE subjects SET notes_enabled = $2, updated_at = $3 WHERE id = $1`
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, uuid.UUID(subjectID), enabled, now)
	if err != nil {
		return fmt.Errorf("save notes flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) writeBack(ctx context.Context, exec tx.Executor, subject *models.Subject) error {
	query := `
		UPDATE subjects
		SET first_name = $2, last_name = $3, personal_email = $4, phone = $5,
		    status = $6, directory_id = $7, corporate_email = $8,
		    pms_record_id = $9, pms_sub_role_id = $10,
		    portal_password_hash = $11, notes_enabled = $12,
		    license_assigned = $13, updated_at = $14
		WHERE id = $1
	`
	_, err := exec.ExecContext(ctx, query,
		uuid.UUID(subject.ID),
		subject.FirstName,
		subject.LastName,
		subject.PersonalEmail,
		subject.Phone,
		string(subject.Status),
		subject.DirectoryID,
		subject.CorporateEmail,
		subject.PMSRecordID,
		subject.PMSSubRoleID,
		subject.PortalPasswordHash,
		subject.NotesEnabled,
		subject.LicenseAssigned,
		subject.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("write subject: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubject(row rowScanner) (*models.Subject, error) {
	var (
		subjectID uuid.UUID
		subject   models.Subject
		status    string
	)
	err := row.Scan(
		&subjectID,
		&subject.FirstName,
		&subject.LastName,
		&subject.PersonalEmail,
		&subject.Phone,
		&status,
		&subject.DirectoryID,
		&subject.CorporateEmail,
		&subject.PMSRecordID,
		&subject.PMSSubRoleID,
		&subject.PortalPasswordHash,
		&subject.NotesEnabled,
		&subject.LicenseAssigned,
		&subject.CreatedAt,
		&subject.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	subject.ID = id.SubjectID(subjectID)
	subject.Status = id.SubjectStatus(status)
	return &subject, nil
}
