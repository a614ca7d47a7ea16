package sqlite

import (
	"context"

	"patient-access/internal/domain/records"

	"gorm.io/gorm"
)

type RecordsStore struct{ db *gorm.DB }

func NewRecordsStore(db *gorm.DB) *RecordsStore { return &RecordsStore{db: db} }

func (s *RecordsStore) Create(ctx context.Context, rec records.Record) error {
	row := recordRow{
		ID:          rec.ID,
		PatientID:   rec.PatientID,
		DoctorID:    rec.DoctorID,
		DoctorName:  rec.DoctorName,
		Type:        string(rec.Type),
		Title:       rec.Title,
		Content:     rec.Content,
		Diagnosis:   rec.Diagnosis,
		CreatedUnix: toUnix(rec.CreatedAt),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *RecordsStore) ListByPatient(ctx context.Context, patientID string, typ records.RecordType, offset, limit int) ([]records.Record, int, error) {
	q := s.db.WithContext(ctx).Model(&recordRow{}).Where("patient_id = ?", patientID)
	if typ != "" {
		q = q.Where("type = ?", string(typ))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []recordRow
	if err := q.Order("created_at DESC").Order("rowid DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]records.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, int(total), nil
}
