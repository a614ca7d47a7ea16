package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/users"
	"patient-access/internal/platform/pagination"
)

var ErrUnknownUser = errors.New("user not found")

// Grants es el subconjunto de accessgrants que usa el gate.
type Grants interface {
	IsAuthorized(ctx context.Context, patientID, doctorID string) (bool, error)
	ListActiveForPatient(ctx context.Context, patientID string) ([]accessgrants.ActiveGrant, error)
	ListPatientsForDoctor(ctx context.Context, doctorID string, page, size int) (pagination.Page[accessgrants.PatientAccess], error)
}

// Contact es alguien con quien el caller puede hablar ahora mismo.
type Contact struct {
	UserID    string
	Name      string
	Role      users.Role
	ExpiresAt time.Time
}

// Gate decide si dos usuarios pueden intercambiar mensajes. No guarda estado.
type Gate struct {
	users  users.Directory
	grants Grants
}

func NewGate(dir users.Directory, grants Grants) *Gate {
	return &Gate{users: dir, grants: grants}
}

// CanMessage es simétrico: solo un par paciente/doctor con grant vigente del paciente
// hacia ese doctor. Cualquier otra combinación es false.
func (g *Gate) CanMessage(ctx context.Context, userA, userB string) (bool, error) {
	userA = strings.TrimSpace(userA)
	userB = strings.TrimSpace(userB)
	if userA == "" || userB == "" || userA == userB {
		return false, nil
	}

	a, err := g.lookup(ctx, userA)
	if err != nil || a.ID == "" {
		return false, err
	}
	b, err := g.lookup(ctx, userB)
	if err != nil || b.ID == "" {
		return false, err
	}

	patientID, doctorID, ok := pair(a, b)
	if !ok {
		return false, nil
	}
	return g.grants.IsAuthorized(ctx, patientID, doctorID)
}

// lookup devuelve un User vacío (sin error) si no existe.
func (g *Gate) lookup(ctx context.Context, id string) (users.User, error) {
	u, err := g.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, nil
		}
		return users.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// pair resuelve quién es el paciente y quién el doctor.
func pair(a, b users.User) (patientID, doctorID string, ok bool) {
	switch {
	case a.Role == users.RolePatient && b.Role == users.RoleDoctor:
		return a.ID, b.ID, true
	case a.Role == users.RoleDoctor && b.Role == users.RolePatient:
		return b.ID, a.ID, true
	default:
		return "", "", false
	}
}

// Contacts lista la contraparte de cada grant vigente del caller.
func (g *Gate) Contacts(ctx context.Context, userID string) ([]Contact, error) {
	u, err := g.users.FindByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	switch u.Role {
	case users.RolePatient:
		active, err := g.grants.ListActiveForPatient(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out := make([]Contact, 0, len(active))
		for _, a := range active {
			out = append(out, Contact{
				UserID:    a.DoctorID,
				Name:      a.DoctorName,
				Role:      users.RoleDoctor,
				ExpiresAt: a.ExpiresAt,
			})
		}
		return out, nil

	case users.RoleDoctor:
		out := make([]Contact, 0)
		for page := 0; ; page++ {
			p, err := g.grants.ListPatientsForDoctor(ctx, u.ID, page, pagination.MaxSize)
			if err != nil {
				return nil, err
			}
			for _, pa := range p.Items {
				out = append(out, Contact{
					UserID:    pa.PatientID,
					Name:      pa.PatientName,
					Role:      users.RolePatient,
					ExpiresAt: pa.ExpiresAt,
				})
			}
			if !p.HasNext {
				break
			}
		}
		return out, nil

	case users.RoleHospital, users.RolePharmacy, users.RoleAmbulance,
		users.RoleLab, users.RoleInsurance, users.RoleAdmin:
		return []Contact{}, nil

	default:
		return []Contact{}, nil
	}
}
