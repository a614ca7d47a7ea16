package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// statements es idempotente: se puede correr en cada arranque.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL UNIQUE,
		role        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS access_grants (
		id          TEXT PRIMARY KEY,
		patient_id  TEXT NOT NULL,
		doctor_id   TEXT NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL,
		granted_at  TIMESTAMPTZ NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		CONSTRAINT access_grants_pair_key UNIQUE (patient_id, doctor_id)
	)`,
	`CREATE INDEX IF NOT EXISTS access_grants_doctor_expires_idx ON access_grants (doctor_id, expires_at DESC)`,
	`CREATE INDEX IF NOT EXISTS access_grants_expires_idx ON access_grants (expires_at)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		seq           BIGSERIAL UNIQUE,
		id            TEXT PRIMARY KEY,
		patient_id    TEXT NOT NULL,
		patient_name  TEXT NOT NULL DEFAULT '',
		actor_id      TEXT NOT NULL,
		actor_name    TEXT NOT NULL DEFAULT '',
		actor_role    TEXT NOT NULL,
		action        TEXT NOT NULL,
		record_id     TEXT,
		record_title  TEXT,
		details       TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_logs_patient_idx ON audit_logs (patient_id, created_at DESC, seq DESC)`,
	`CREATE INDEX IF NOT EXISTS audit_logs_actor_idx ON audit_logs (actor_id, created_at DESC, seq DESC)`,
	`CREATE TABLE IF NOT EXISTS medical_records (
		id           TEXT PRIMARY KEY,
		patient_id   TEXT NOT NULL,
		doctor_id    TEXT NOT NULL,
		doctor_name  TEXT NOT NULL DEFAULT '',
		type         TEXT NOT NULL,
		title        TEXT NOT NULL,
		content      TEXT NOT NULL DEFAULT '',
		diagnosis    TEXT,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS medical_records_patient_idx ON medical_records (patient_id, created_at DESC)`,
}

// Migrate crea las tablas si no existen.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
