package records

import (
	"strings"
	"time"
)

// RecordType
// @Enum NOTE, DIAGNOSIS, PRESCRIPTION, LAB_RESULT, IMAGING, VITALS, PROCEDURE
type RecordType string

const (
	TypeNote         RecordType = "NOTE"
	TypeDiagnosis    RecordType = "DIAGNOSIS"
	TypePrescription RecordType = "PRESCRIPTION"
	TypeLabResult    RecordType = "LAB_RESULT"
	TypeImaging      RecordType = "IMAGING"
	TypeVitals       RecordType = "VITALS"
	TypeProcedure    RecordType = "PROCEDURE"
)

func (t RecordType) Valid() bool {
	switch t {
	case TypeNote, TypeDiagnosis, TypePrescription, TypeLabResult,
		TypeImaging, TypeVitals, TypeProcedure:
		return true
	default:
		return false
	}
}

func ParseType(s string) (RecordType, bool) {
	t := RecordType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Record es un registro clínico del paciente creado por un doctor con acceso vigente.
// El contenido es opaco para este servicio.
type Record struct {
	ID        string
	PatientID string

	DoctorID   string
	DoctorName string // snapshot al crear

	Type      RecordType
	Title     string
	Content   string
	Diagnosis string

	CreatedAt time.Time
}
