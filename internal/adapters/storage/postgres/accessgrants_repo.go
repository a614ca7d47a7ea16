package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"patient-access/internal/domain/accessgrants"
)

type AccessGrantsRepo struct {
	db *sql.DB
}

func NewAccessGrantsRepo(db *sql.DB) *AccessGrantsRepo {
	return &AccessGrantsRepo{db: db}
}

const grantColumns = `id, patient_id, doctor_id, expires_at, granted_at, created_at`

// Upsert se apoya en el UNIQUE (patient_id, doctor_id): dos grants concurrentes
// del mismo par convergen en una sola fila y el vencimiento nunca retrocede.
func (r *AccessGrantsRepo) Upsert(ctx context.Context, g accessgrants.Grant) (accessgrants.Grant, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO access_grants (`+grantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (patient_id, doctor_id) DO UPDATE SET
			expires_at = GREATEST(access_grants.expires_at, EXCLUDED.expires_at),
			granted_at = EXCLUDED.granted_at
		RETURNING `+grantColumns,
		g.ID,
		g.PatientID,
		g.DoctorID,
		g.ExpiresAt.UTC(),
		g.GrantedAt.UTC(),
		g.CreatedAt.UTC(),
	)
	return scanGrant(row)
}

func (r *AccessGrantsRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return accessgrants.Grant{}, accessgrants.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE id = $1
	`, id)
	return scanGrant(row)
}

func (r *AccessGrantsRepo) GetByPair(ctx context.Context, patientID, doctorID string) (accessgrants.Grant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE patient_id = $1 AND doctor_id = $2
	`, patientID, doctorID)
	return scanGrant(row)
}

// ExtendExpiry resuelve el nuevo vencimiento dentro del UPDATE, sobre el valor
// vigente de la fila.
func (r *AccessGrantsRepo) ExtendExpiry(ctx context.Context, id string, by time.Duration, mode accessgrants.ExtendMode, now time.Time) (accessgrants.Grant, error) {
	var row *sql.Row
	switch mode {
	case accessgrants.ExtendFromNow:
		row = r.db.QueryRowContext(ctx, `
			UPDATE access_grants
			SET expires_at = GREATEST(expires_at, $2)
			WHERE id = $1
			RETURNING `+grantColumns,
			id, now.Add(by).UTC())
	default:
		row = r.db.QueryRowContext(ctx, `
			UPDATE access_grants
			SET expires_at = expires_at + make_interval(secs => $2)
			WHERE id = $1
			RETURNING `+grantColumns,
			id, by.Seconds())
	}
	return scanGrant(row)
}

func (r *AccessGrantsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM access_grants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return accessgrants.ErrNotFound
	}
	return nil
}

// DeleteIfExpired revalida expires_at dentro del DELETE: si un refresh ganó la
// carrera, la fila sobrevive.
func (r *AccessGrantsRepo) DeleteIfExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM access_grants
		WHERE id = $1 AND expires_at <= $2
	`, id, now.UTC())
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *AccessGrantsRepo) ListActiveByPatient(ctx context.Context, patientID string, now time.Time) ([]accessgrants.Grant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE patient_id = $1 AND expires_at > $2
		ORDER BY expires_at DESC
	`, patientID, now.UTC())
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

func (r *AccessGrantsRepo) ListActiveByDoctor(ctx context.Context, doctorID string, now time.Time, offset, limit int) ([]accessgrants.Grant, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM access_grants
		WHERE doctor_id = $1 AND expires_at > $2
	`, doctorID, now.UTC()).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE doctor_id = $1 AND expires_at > $2
		ORDER BY expires_at DESC, id ASC
		LIMIT $3 OFFSET $4
	`, doctorID, now.UTC(), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectGrants(rows)
	return out, total, err
}

func (r *AccessGrantsRepo) ListExpired(ctx context.Context, now time.Time) ([]accessgrants.Grant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE expires_at <= $1
		ORDER BY expires_at ASC
	`, now.UTC())
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (accessgrants.Grant, error) {
	var g accessgrants.Grant
	if err := row.Scan(
		&g.ID,
		&g.PatientID,
		&g.DoctorID,
		&g.ExpiresAt,
		&g.GrantedAt,
		&g.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accessgrants.Grant{}, accessgrants.ErrNotFound
		}
		return accessgrants.Grant{}, err
	}
	return g, nil
}

func collectGrants(rows *sql.Rows) ([]accessgrants.Grant, error) {
	defer rows.Close()

	out := make([]accessgrants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
