package accessgrants

import (
	"strings"
	"time"
)

// Grant es la ventana de acceso de un doctor a los datos de un paciente.
// Es direccional (patient -> doctor) y hay como máximo una por par.
// Sin fila = sin acceso; no existe grant "para siempre".
type Grant struct {
	ID string

	PatientID string
	DoctorID  string

	ExpiresAt time.Time
	GrantedAt time.Time // último grant/refresh
	CreatedAt time.Time
}

// ActiveAt es la única fuente de verdad: una fila vencida que el sweeper todavía
// no borró NO autoriza.
func (g Grant) ActiveAt(t time.Time) bool {
	return g.ExpiresAt.After(t)
}

// ActiveGrant es lo que ve el paciente en "mis accesos".
type ActiveGrant struct {
	Grant
	DoctorName  string
	DoctorEmail string
}

// PatientAccess es lo que ve el doctor en "mis pacientes".
type PatientAccess struct {
	GrantID      string
	PatientID    string
	PatientName  string
	PatientEmail string
	ExpiresAt    time.Time
	GrantedAt    time.Time
}

type ExtendMode string

const (
	// ExtendAdditive suma días al vencimiento actual; extensiones repetidas se acumulan.
	ExtendAdditive ExtendMode = "additive"
	// ExtendFromNow recalcula el vencimiento como now + días.
	ExtendFromNow ExtendMode = "from_now"
)

func ParseExtendMode(s string) ExtendMode {
	switch ExtendMode(strings.ToLower(strings.TrimSpace(s))) {
	case ExtendFromNow:
		return ExtendFromNow
	default:
		return ExtendAdditive
	}
}

type Policy struct {
	GrantTTL      time.Duration
	ExtendMode    ExtendMode
	MaxExtendDays int
}

func DefaultPolicy() Policy {
	return Policy{
		GrantTTL:      30 * 24 * time.Hour,
		ExtendMode:    ExtendAdditive,
		MaxExtendDays: 365,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.GrantTTL <= 0 {
		p.GrantTTL = d.GrantTTL
	}
	if p.ExtendMode == "" {
		p.ExtendMode = d.ExtendMode
	}
	if p.MaxExtendDays <= 0 {
		p.MaxExtendDays = d.MaxExtendDays
	}
	return p
}

// NextExpiry calcula el vencimiento extendido en by a partir de cur.
// En from_now el resultado nunca queda antes de cur.
func (m ExtendMode) NextExpiry(cur time.Time, by time.Duration, now time.Time) time.Time {
	if m == ExtendFromNow {
		if next := now.Add(by); next.After(cur) {
			return next
		}
		return cur
	}
	return cur.Add(by)
}
