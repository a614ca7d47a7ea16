package sqlite

import (
	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/audit"
	"patient-access/internal/domain/records"
	"patient-access/internal/domain/users"
)

// Los tiempos se guardan como UnixNano para comparar en SQL sin depender del
// formato de texto de SQLite.

type userRow struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Email       string `gorm:"not null;uniqueIndex"`
	Role        string `gorm:"not null"`
	CreatedUnix int64  `gorm:"column:created_at;not null"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) toDomain() users.User {
	return users.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      users.Role(r.Role),
		CreatedAt: fromUnix(r.CreatedUnix),
	}
}

type grantRow struct {
	ID          string `gorm:"primaryKey"`
	PatientID   string `gorm:"not null;uniqueIndex:access_grants_pair_key,priority:1"`
	DoctorID    string `gorm:"not null;uniqueIndex:access_grants_pair_key,priority:2;index:access_grants_doctor_idx"`
	ExpiresUnix int64  `gorm:"column:expires_at;not null;index:access_grants_expires_idx"`
	GrantedUnix int64  `gorm:"column:granted_at;not null"`
	CreatedUnix int64  `gorm:"column:created_at;not null"`
}

func (grantRow) TableName() string { return "access_grants" }

func newGrantRow(g accessgrants.Grant) grantRow {
	return grantRow{
		ID:          g.ID,
		PatientID:   g.PatientID,
		DoctorID:    g.DoctorID,
		ExpiresUnix: toUnix(g.ExpiresAt),
		GrantedUnix: toUnix(g.GrantedAt),
		CreatedUnix: toUnix(g.CreatedAt),
	}
}

func (r grantRow) toDomain() accessgrants.Grant {
	return accessgrants.Grant{
		ID:        r.ID,
		PatientID: r.PatientID,
		DoctorID:  r.DoctorID,
		ExpiresAt: fromUnix(r.ExpiresUnix),
		GrantedAt: fromUnix(r.GrantedUnix),
		CreatedAt: fromUnix(r.CreatedUnix),
	}
}

type auditRow struct {
	Seq         uint64 `gorm:"primaryKey;autoIncrement"`
	ID          string `gorm:"not null;uniqueIndex"`
	PatientID   string `gorm:"not null;index"`
	PatientName string
	ActorID     string `gorm:"not null;index"`
	ActorName   string
	ActorRole   string `gorm:"not null"`
	Action      string `gorm:"not null"`
	RecordID    string
	RecordTitle string
	Details     string
	CreatedUnix int64 `gorm:"column:created_at;not null"`
}

func (auditRow) TableName() string { return "audit_logs" }

func (r auditRow) toDomain() audit.Entry {
	return audit.Entry{
		ID:          r.ID,
		PatientID:   r.PatientID,
		PatientName: r.PatientName,
		ActorID:     r.ActorID,
		ActorName:   r.ActorName,
		ActorRole:   audit.ActorRole(r.ActorRole),
		Action:      audit.Action(r.Action),
		RecordID:    r.RecordID,
		RecordTitle: r.RecordTitle,
		Details:     r.Details,
		CreatedAt:   fromUnix(r.CreatedUnix),
	}
}

type recordRow struct {
	ID          string `gorm:"primaryKey"`
	PatientID   string `gorm:"not null;index"`
	DoctorID    string `gorm:"not null"`
	DoctorName  string
	Type        string `gorm:"not null"`
	Title       string `gorm:"not null"`
	Content     string
	Diagnosis   string
	CreatedUnix int64 `gorm:"column:created_at;not null"`
}

func (recordRow) TableName() string { return "medical_records" }

func (r recordRow) toDomain() records.Record {
	return records.Record{
		ID:         r.ID,
		PatientID:  r.PatientID,
		DoctorID:   r.DoctorID,
		DoctorName: r.DoctorName,
		Type:       records.RecordType(r.Type),
		Title:      r.Title,
		Content:    r.Content,
		Diagnosis:  r.Diagnosis,
		CreatedAt:  fromUnix(r.CreatedUnix),
	}
}
