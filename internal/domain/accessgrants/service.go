package accessgrants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"patient-access/internal/domain/audit"
	"patient-access/internal/domain/users"
	"patient-access/internal/observability/metrics"
	"patient-access/internal/platform/logger"
	"patient-access/internal/platform/pagination"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidRole  = errors.New("user does not have the required role")
	ErrUnknownUser  = errors.New("caller not found")
)

type Options struct {
	Policy Policy
	Logger logger.Logger
}

type Service struct {
	repo   Repository
	users  users.Directory
	audit  audit.Appender
	policy Policy
	log    logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, dir users.Directory, auditLog audit.Appender, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		users:  dir,
		audit:  auditLog,
		policy: opts.Policy.withDefaults(),
		log:    log.With(map[string]any{"module": "accessgrants"}),
		now:    time.Now,
	}
}

func (s *Service) Policy() Policy {
	return s.policy
}

// Grant crea o refresca el acceso del doctor (por email) a los datos del paciente.
// Un refresh nunca acorta una ventana ya vigente.
func (s *Service) Grant(ctx context.Context, patientID, doctorEmail string) (Grant, error) {
	patientID = strings.TrimSpace(patientID)
	doctorEmail = users.NormalizeEmail(doctorEmail)
	if patientID == "" || doctorEmail == "" {
		return Grant{}, ErrInvalidInput
	}

	patient, err := s.lookupByID(ctx, patientID)
	if err != nil {
		return Grant{}, err
	}
	if patient.Role != users.RolePatient {
		s.denied(ctx, "grant", patientID, "")
		return Grant{}, ErrForbidden
	}

	doctor, err := s.users.FindByEmail(ctx, doctorEmail)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			metrics.AccessGrantsTotal.WithLabelValues("rejected").Inc()
			return Grant{}, ErrNotFound
		}
		return Grant{}, fmt.Errorf("lookup doctor: %w", err)
	}
	if doctor.Role != users.RoleDoctor {
		metrics.AccessGrantsTotal.WithLabelValues("rejected").Inc()
		return Grant{}, ErrInvalidRole
	}

	now := s.now()
	candidate := Grant{
		ID:        uuid.NewString(),
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		ExpiresAt: now.Add(s.policy.GrantTTL),
		GrantedAt: now,
		CreatedAt: now,
	}
	stored, err := s.repo.Upsert(ctx, candidate)
	if err != nil {
		return Grant{}, fmt.Errorf("upsert grant: %w", err)
	}

	result := "refreshed"
	if stored.ID == candidate.ID {
		result = "created"
	}
	metrics.AccessGrantsTotal.WithLabelValues(result).Inc()

	if _, err := s.audit.Append(ctx, audit.Entry{
		PatientID:   patient.ID,
		PatientName: patient.Name,
		ActorID:     patient.ID,
		ActorName:   patient.Name,
		ActorRole:   audit.RoleOf(patient.Role),
		Action:      audit.ActionAccessGranted,
		Details:     fmt.Sprintf("Granted access to Dr. %s", doctor.Name),
	}); err != nil {
		return Grant{}, fmt.Errorf("grant %s stored but audit failed: %w", stored.ID, err)
	}

	s.log.Info("access granted", map[string]any{
		"event":      "access_granted",
		"grant_id":   stored.ID,
		"patient_id": patient.ID,
		"doctor_id":  doctor.ID,
		"result":     result,
		"expires_at": stored.ExpiresAt,
	})
	return stored, nil
}

// IsAuthorized es el único punto de decisión para los módulos consumidores.
// No confía en que la fila exista: revalida expires_at contra el reloj.
func (s *Service) IsAuthorized(ctx context.Context, patientID, doctorID string) (bool, error) {
	patientID = strings.TrimSpace(patientID)
	doctorID = strings.TrimSpace(doctorID)
	if patientID == "" || doctorID == "" {
		metrics.AuthorizationChecksTotal.WithLabelValues("denied").Inc()
		return false, nil
	}

	g, err := s.repo.GetByPair(ctx, patientID, doctorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.AuthorizationChecksTotal.WithLabelValues("denied").Inc()
			return false, nil
		}
		return false, fmt.Errorf("lookup grant: %w", err)
	}

	if !g.ActiveAt(s.now()) {
		metrics.AuthorizationChecksTotal.WithLabelValues("denied").Inc()
		return false, nil
	}
	metrics.AuthorizationChecksTotal.WithLabelValues("allowed").Inc()
	return true, nil
}

func (s *Service) Revoke(ctx context.Context, grantID, requestingPatientID string) error {
	grantID = strings.TrimSpace(grantID)
	requestingPatientID = strings.TrimSpace(requestingPatientID)
	if grantID == "" || requestingPatientID == "" {
		return ErrInvalidInput
	}

	g, err := s.getOwned(ctx, "revoke", grantID, requestingPatientID)
	if err != nil {
		return err
	}

	patient, doctor := s.names(ctx, g)

	if err := s.repo.Delete(ctx, g.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete grant: %w", err)
	}

	if _, err := s.audit.Append(ctx, audit.Entry{
		PatientID:   g.PatientID,
		PatientName: patient.Name,
		ActorID:     g.PatientID,
		ActorName:   patient.Name,
		ActorRole:   audit.RoleOf(users.RolePatient),
		Action:      audit.ActionAccessRevoked,
		Details:     fmt.Sprintf("Revoked access from Dr. %s", doctor.Name),
	}); err != nil {
		return fmt.Errorf("grant %s revoked but audit failed: %w", g.ID, err)
	}

	s.log.Info("access revoked", map[string]any{
		"event":      "access_revoked",
		"grant_id":   g.ID,
		"patient_id": g.PatientID,
		"doctor_id":  g.DoctorID,
	})
	return nil
}

// Extend corre el vencimiento según la política (por defecto aditiva).
func (s *Service) Extend(ctx context.Context, grantID, requestingPatientID string, days int) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	requestingPatientID = strings.TrimSpace(requestingPatientID)
	if grantID == "" || requestingPatientID == "" {
		return Grant{}, ErrInvalidInput
	}
	if days < 1 || days > s.policy.MaxExtendDays {
		return Grant{}, fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidInput, s.policy.MaxExtendDays)
	}

	owned, err := s.getOwned(ctx, "extend", grantID, requestingPatientID)
	if err != nil {
		return Grant{}, err
	}

	by := time.Duration(days) * 24 * time.Hour
	g, err := s.repo.ExtendExpiry(ctx, owned.ID, by, s.policy.ExtendMode, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Grant{}, ErrNotFound
		}
		return Grant{}, fmt.Errorf("extend grant: %w", err)
	}

	patient, doctor := s.names(ctx, g)
	if _, err := s.audit.Append(ctx, audit.Entry{
		PatientID:   g.PatientID,
		PatientName: patient.Name,
		ActorID:     g.PatientID,
		ActorName:   patient.Name,
		ActorRole:   audit.RoleOf(users.RolePatient),
		Action:      audit.ActionAccessExtended,
		Details:     fmt.Sprintf("Extended access for Dr. %s by %d days", doctor.Name, days),
	}); err != nil {
		return Grant{}, fmt.Errorf("grant %s extended but audit failed: %w", g.ID, err)
	}

	s.log.Info("access extended", map[string]any{
		"event":      "access_extended",
		"grant_id":   g.ID,
		"days":       days,
		"expires_at": g.ExpiresAt,
	})
	return g, nil
}

// ListActiveForPatient devuelve solo grants vigentes; los vencidos aún no barridos no aparecen.
func (s *Service) ListActiveForPatient(ctx context.Context, patientID string) ([]ActiveGrant, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, ErrInvalidInput
	}

	items, err := s.repo.ListActiveByPatient(ctx, patientID, s.now())
	if err != nil {
		return nil, err
	}

	out := make([]ActiveGrant, 0, len(items))
	for _, g := range items {
		doctor, err := s.users.FindByID(ctx, g.DoctorID)
		if err != nil {
			// tolera grants huérfanos
			s.log.Warn("grant references unknown doctor", map[string]any{
				"grant_id":  g.ID,
				"doctor_id": g.DoctorID,
				"error":     err,
			})
			continue
		}
		out = append(out, ActiveGrant{
			Grant:       g,
			DoctorName:  doctor.Name,
			DoctorEmail: doctor.Email,
		})
	}
	return out, nil
}

func (s *Service) ListPatientsForDoctor(ctx context.Context, doctorID string, page, size int) (pagination.Page[PatientAccess], error) {
	doctorID = strings.TrimSpace(doctorID)
	if doctorID == "" {
		return pagination.Page[PatientAccess]{}, ErrInvalidInput
	}

	page, size = pagination.Normalize(page, size)
	items, total, err := s.repo.ListActiveByDoctor(ctx, doctorID, s.now(), pagination.Offset(page, size), size)
	if err != nil {
		return pagination.Page[PatientAccess]{}, err
	}

	out := make([]PatientAccess, 0, len(items))
	for _, g := range items {
		pa := PatientAccess{
			GrantID:   g.ID,
			PatientID: g.PatientID,
			ExpiresAt: g.ExpiresAt,
			GrantedAt: g.GrantedAt,
		}
		// Sin el usuario igual lo listamos para no descuadrar la paginación.
		if p, err := s.users.FindByID(ctx, g.PatientID); err == nil {
			pa.PatientName = p.Name
			pa.PatientEmail = p.Email
		}
		out = append(out, pa)
	}
	return pagination.New(out, page, size, total), nil
}

func (s *Service) getOwned(ctx context.Context, op, grantID, patientID string) (Grant, error) {
	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Grant{}, ErrNotFound
		}
		return Grant{}, fmt.Errorf("get grant: %w", err)
	}
	if g.PatientID != patientID {
		s.denied(ctx, op, patientID, g.ID)
		return Grant{}, ErrForbidden
	}
	return g, nil
}

// lookupByID resuelve al usuario que hace la llamada.
func (s *Service) lookupByID(ctx context.Context, id string) (users.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, ErrUnknownUser
		}
		return users.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// names resuelve snapshots para el audit. Si falta alguno queda vacío.
func (s *Service) names(ctx context.Context, g Grant) (patient, doctor users.User) {
	patient, _ = s.users.FindByID(ctx, g.PatientID)
	doctor, _ = s.users.FindByID(ctx, g.DoctorID)
	return patient, doctor
}

// Los intentos prohibidos no van al audit del paciente: se loguean y se cuentan.
func (s *Service) denied(_ context.Context, op, userID, grantID string) {
	metrics.AccessDeniedTotal.WithLabelValues(op).Inc()
	s.log.Warn("forbidden access attempt", map[string]any{
		"event":     "access_denied",
		"operation": op,
		"user_id":   userID,
		"grant_id":  grantID,
	})
}
