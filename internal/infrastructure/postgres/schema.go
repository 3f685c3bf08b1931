package postgres

import (
	"context"
	"fmt"
)

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id                     UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    username               TEXT NOT NULL UNIQUE,
    email                  TEXT NOT NULL UNIQUE,
    password_hash          TEXT NOT NULL,
    reset_token_hash       TEXT UNIQUE,
    reset_token_expires_at TIMESTAMPTZ,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT reset_token_has_expiry
        CHECK ((reset_token_hash IS NULL) = (reset_token_expires_at IS NULL))
);
`

const schemaTasks = `
CREATE TABLE IF NOT EXISTS tasks (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id     UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    title       TEXT NOT NULL CHECK (title <> ''),
    description TEXT NOT NULL DEFAULT '',
    completed   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const schemaTasksIndex = `
CREATE INDEX IF NOT EXISTS tasks_user_id_created_at_idx ON tasks (user_id, created_at, id);
`

// EnsureSchema creates the tables if they are missing. Safe to run on every start.
func EnsureSchema(ctx context.Context, db DB) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for i, stmt := range []string{schemaUsers, schemaTasks, schemaTasksIndex} {
		if _, err = tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
