package postgres

import (
	"context"
	"database/sql"

	"patient-access/internal/domain/audit"
)

// AuditRepo solo inserta y lee; la tabla no recibe UPDATE ni DELETE.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, e audit.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, patient_id, patient_name,
			actor_id, actor_name, actor_role,
			action, record_id, record_title,
			details, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		e.ID,
		e.PatientID,
		e.PatientName,
		e.ActorID,
		e.ActorName,
		string(e.ActorRole),
		string(e.Action),
		nullString(e.RecordID),
		nullString(e.RecordTitle),
		e.Details,
		e.CreatedAt.UTC(),
	)
	return err
}

func (r *AuditRepo) ListByPatient(ctx context.Context, patientID string, offset, limit int) ([]audit.Entry, int, error) {
	return r.list(ctx, "patient_id", patientID, offset, limit)
}

func (r *AuditRepo) ListByActor(ctx context.Context, actorID string, offset, limit int) ([]audit.Entry, int, error) {
	return r.list(ctx, "actor_id", actorID, offset, limit)
}

// column es siempre una constante interna, nunca input del usuario.
func (r *AuditRepo) list(ctx context.Context, column, id string, offset, limit int) ([]audit.Entry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE `+column+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, patient_id, patient_name,
			actor_id, actor_name, actor_role,
			action, record_id, record_title,
			details, created_at
		FROM audit_logs
		WHERE `+column+` = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3
	`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]audit.Entry, 0)
	for rows.Next() {
		var e audit.Entry
		var role, action string
		var recordID, recordTitle sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.PatientID,
			&e.PatientName,
			&e.ActorID,
			&e.ActorName,
			&role,
			&action,
			&recordID,
			&recordTitle,
			&e.Details,
			&e.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		e.ActorRole = audit.ActorRole(role)
		e.Action = audit.Action(action)
		e.RecordID = recordID.String
		e.RecordTitle = recordTitle.String
		out = append(out, e)
	}
	return out, total, rows.Err()
}
