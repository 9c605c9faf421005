//go:build integration

package containers

// Schema mirrors migrations/0001_init.up.sql so integration suites run
// against the same tables production migrates to.
const Schema = `
CREATE TABLE IF NOT EXISTS subjects (
    id UUID PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    personal_email TEXT NOT NULL UNIQUE,
    phone TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'applied',
    directory_id TEXT NOT NULL DEFAULT '',
    corporate_email TEXT NOT NULL DEFAULT '',
    pms_record_id TEXT NOT NULL DEFAULT '',
    pms_sub_role_id TEXT NOT NULL DEFAULT '',
    portal_password_hash TEXT NOT NULL DEFAULT '',
    notes_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    license_assigned BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS onboarding_tokens (
    id UUID PRIMARY KEY,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    purpose TEXT NOT NULL,
    value TEXT NOT NULL,
    issued_at TIMESTAMPTZ NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    consumed_at TIMESTAMPTZ,
    UNIQUE (subject_id, purpose)
);
CREATE UNIQUE INDEX IF NOT EXISTS onboarding_tokens_value_idx ON onboarding_tokens (value);

CREATE TABLE IF NOT EXISTS notes_keys (
    id UUID PRIMARY KEY,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    key_name TEXT NOT NULL,
    key_version TEXT NOT NULL,
    wrapped_key TEXT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS notes_keys_one_active_idx ON notes_keys (subject_id) WHERE is_active;
`
