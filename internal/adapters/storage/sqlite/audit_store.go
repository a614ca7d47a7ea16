package sqlite

import (
	"context"

	"patient-access/internal/domain/audit"

	"gorm.io/gorm"
)

// AuditStore no expone Update ni Delete.
type AuditStore struct{ db *gorm.DB }

func NewAuditStore(db *gorm.DB) *AuditStore { return &AuditStore{db: db} }

func (s *AuditStore) Append(ctx context.Context, e audit.Entry) error {
	row := auditRow{
		ID:          e.ID,
		PatientID:   e.PatientID,
		PatientName: e.PatientName,
		ActorID:     e.ActorID,
		ActorName:   e.ActorName,
		ActorRole:   string(e.ActorRole),
		Action:      string(e.Action),
		RecordID:    e.RecordID,
		RecordTitle: e.RecordTitle,
		Details:     e.Details,
		CreatedUnix: toUnix(e.CreatedAt),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *AuditStore) ListByPatient(ctx context.Context, patientID string, offset, limit int) ([]audit.Entry, int, error) {
	return s.list(ctx, "patient_id = ?", patientID, offset, limit)
}

func (s *AuditStore) ListByActor(ctx context.Context, actorID string, offset, limit int) ([]audit.Entry, int, error) {
	return s.list(ctx, "actor_id = ?", actorID, offset, limit)
}

func (s *AuditStore) list(ctx context.Context, cond, id string, offset, limit int) ([]audit.Entry, int, error) {
	q := s.db.WithContext(ctx).Model(&auditRow{}).Where(cond, id).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []auditRow
	if err := q.Order("created_at DESC").Order("seq DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]audit.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, int(total), nil
}
