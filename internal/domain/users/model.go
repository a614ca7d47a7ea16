package users

import (
	"strings"
	"time"
)

// Role es el rol de un usuario en la plataforma.
// @Enum PATIENT, DOCTOR, HOSPITAL, PHARMACY, AMBULANCE, LAB, INSURANCE, ADMIN
type Role string

const (
	RolePatient   Role = "PATIENT"
	RoleDoctor    Role = "DOCTOR"
	RoleHospital  Role = "HOSPITAL"
	RolePharmacy  Role = "PHARMACY"
	RoleAmbulance Role = "AMBULANCE"
	RoleLab       Role = "LAB"
	RoleInsurance Role = "INSURANCE"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleHospital, RolePharmacy,
		RoleAmbulance, RoleLab, RoleInsurance, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole no distingue mayúsculas/minúsculas.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

type User struct {
	ID    string
	Name  string
	Email string // siempre en minúsculas
	Role  Role

	CreatedAt time.Time
}
