package audit

import (
	"time"

	"patient-access/internal/domain/users"
)

// Action es el tag del evento auditado.
// @Enum ACCESS_GRANTED, ACCESS_REVOKED, ACCESS_EXPIRED, ACCESS_EXTENDED, RECORD_ADDED, RECORD_VIEWED
type Action string

const (
	ActionAccessGranted  Action = "ACCESS_GRANTED"
	ActionAccessRevoked  Action = "ACCESS_REVOKED"
	ActionAccessExpired  Action = "ACCESS_EXPIRED"
	ActionAccessExtended Action = "ACCESS_EXTENDED"
	ActionRecordAdded    Action = "RECORD_ADDED"
	ActionRecordViewed   Action = "RECORD_VIEWED"
)

func (a Action) Valid() bool {
	switch a {
	case ActionAccessGranted, ActionAccessRevoked, ActionAccessExpired,
		ActionAccessExtended, ActionRecordAdded, ActionRecordViewed:
		return true
	default:
		return false
	}
}

// ActorRole es el snapshot del rol al momento del evento.
// Además de los roles de usuario existe SYSTEM (procesos internos).
type ActorRole string

const RoleSystem ActorRole = "SYSTEM"

func RoleOf(r users.Role) ActorRole {
	return ActorRole(r)
}

// Entry es inmutable una vez escrita. Los nombres son snapshots: no se actualizan
// si el usuario cambia después.
type Entry struct {
	ID string

	PatientID   string
	PatientName string

	ActorID   string
	ActorName string
	ActorRole ActorRole

	Action Action

	// Opcionales: solo para RECORD_*
	RecordID    string
	RecordTitle string

	Details   string
	CreatedAt time.Time
}
