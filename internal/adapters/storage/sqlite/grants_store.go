package sqlite

import (
	"context"
	"errors"
	"time"

	"patient-access/internal/domain/accessgrants"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GrantsStore struct{ db *gorm.DB }

func NewGrantsStore(db *gorm.DB) *GrantsStore { return &GrantsStore{db: db} }

func (s *GrantsStore) Upsert(ctx context.Context, g accessgrants.Grant) (accessgrants.Grant, error) {
	row := newGrantRow(g)
	var stored grantRow

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "patient_id"}, {Name: "doctor_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"expires_at": gorm.Expr("MAX(expires_at, excluded.expires_at)"),
				"granted_at": gorm.Expr("excluded.granted_at"),
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("patient_id = ? AND doctor_id = ?", g.PatientID, g.DoctorID).First(&stored).Error
	})
	if err != nil {
		return accessgrants.Grant{}, err
	}
	return stored.toDomain(), nil
}

func (s *GrantsStore) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GrantsStore) GetByPair(ctx context.Context, patientID, doctorID string) (accessgrants.Grant, error) {
	return s.first(ctx, "patient_id = ? AND doctor_id = ?", patientID, doctorID)
}

func (s *GrantsStore) first(ctx context.Context, cond string, args ...any) (accessgrants.Grant, error) {
	var row grantRow
	if err := s.db.WithContext(ctx).Where(cond, args...).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return accessgrants.Grant{}, accessgrants.ErrNotFound
		}
		return accessgrants.Grant{}, err
	}
	return row.toDomain(), nil
}

func (s *GrantsStore) ExtendExpiry(ctx context.Context, id string, by time.Duration, mode accessgrants.ExtendMode, now time.Time) (accessgrants.Grant, error) {
	expr := gorm.Expr("expires_at + ?", by.Nanoseconds())
	if mode == accessgrants.ExtendFromNow {
		expr = gorm.Expr("MAX(expires_at, ?)", toUnix(now.Add(by)))
	}

	var stored grantRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&grantRow{}).Where("id = ?", id).Update("expires_at", expr)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return accessgrants.ErrNotFound
		}
		return tx.Where("id = ?", id).First(&stored).Error
	})
	if err != nil {
		return accessgrants.Grant{}, err
	}
	return stored.toDomain(), nil
}

func (s *GrantsStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&grantRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return accessgrants.ErrNotFound
	}
	return nil
}

func (s *GrantsStore) DeleteIfExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND expires_at <= ?", id, toUnix(now)).
		Delete(&grantRow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GrantsStore) ListActiveByPatient(ctx context.Context, patientID string, now time.Time) ([]accessgrants.Grant, error) {
	var rows []grantRow
	if err := s.db.WithContext(ctx).
		Where("patient_id = ? AND expires_at > ?", patientID, toUnix(now)).
		Order("expires_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toGrants(rows), nil
}

func (s *GrantsStore) ListActiveByDoctor(ctx context.Context, doctorID string, now time.Time, offset, limit int) ([]accessgrants.Grant, int, error) {
	q := s.db.WithContext(ctx).
		Model(&grantRow{}).
		Where("doctor_id = ? AND expires_at > ?", doctorID, toUnix(now)).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []grantRow
	if err := q.Order("expires_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toGrants(rows), int(total), nil
}

func (s *GrantsStore) ListExpired(ctx context.Context, now time.Time) ([]accessgrants.Grant, error) {
	var rows []grantRow
	if err := s.db.WithContext(ctx).
		Where("expires_at <= ?", toUnix(now)).
		Order("expires_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toGrants(rows), nil
}

func toGrants(rows []grantRow) []accessgrants.Grant {
	out := make([]accessgrants.Grant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
