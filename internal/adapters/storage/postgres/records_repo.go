package postgres

import (
	"context"
	"database/sql"

	"patient-access/internal/domain/records"
)

type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func (r *RecordsRepo) Create(ctx context.Context, rec records.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medical_records (
			id, patient_id, doctor_id, doctor_name,
			type, title, content, diagnosis,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		rec.ID,
		rec.PatientID,
		rec.DoctorID,
		rec.DoctorName,
		string(rec.Type),
		rec.Title,
		rec.Content,
		nullString(rec.Diagnosis),
		rec.CreatedAt.UTC(),
	)
	return err
}

func (r *RecordsRepo) ListByPatient(ctx context.Context, patientID string, typ records.RecordType, offset, limit int) ([]records.Record, int, error) {
	// $2 = '' desactiva el filtro por tipo
	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM medical_records
		WHERE patient_id = $1 AND ($2 = '' OR type = $2)
	`, patientID, string(typ)).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, patient_id, doctor_id, doctor_name,
			type, title, content, diagnosis,
			created_at
		FROM medical_records
		WHERE patient_id = $1 AND ($2 = '' OR type = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, patientID, string(typ), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]records.Record, 0)
	for rows.Next() {
		var rec records.Record
		var rawType string
		var diagnosis sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.PatientID,
			&rec.DoctorID,
			&rec.DoctorName,
			&rawType,
			&rec.Title,
			&rec.Content,
			&diagnosis,
			&rec.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		rec.Type = records.RecordType(rawType)
		rec.Diagnosis = diagnosis.String
		out = append(out, rec)
	}
	return out, total, rows.Err()
}
