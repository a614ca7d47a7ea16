package records

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
	ErrInvalidInput   = errors.New("invalid input")
	ErrForbidden      = errors.New("forbidden")
	ErrAccessRequired = errors.New("active access required from patient")
)

// Authorizer evita importar accessgrants (lo implementa *accessgrants.Service).
type Authorizer interface {
	IsAuthorized(ctx context.Context, patientID, doctorID string) (bool, error)
}

type Service struct {
	repo  Repository
	users users.Directory
	authz Authorizer
	audit audit.Appender
	log   logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, dir users.Directory, authz Authorizer, auditLog audit.Appender, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:  repo,
		users: dir,
		authz: authz,
		audit: auditLog,
		log:   log.With(map[string]any{"module": "records"}),
		now:   time.Now,
	}
}

type AddInput struct {
	Type      RecordType
	Title     string
	Content   string
	Diagnosis string
}

func (s *Service) Add(ctx context.Context, doctorID, patientID string, in AddInput) (Record, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" || !in.Type.Valid() || strings.TrimSpace(in.Title) == "" {
		return Record{}, ErrInvalidInput
	}

	doctor, err := s.requireDoctor(ctx, doctorID)
	if err != nil {
		return Record{}, err
	}
	if err := s.requireAccess(ctx, "records_add", patientID, doctor.ID); err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:         uuid.NewString(),
		PatientID:  patientID,
		DoctorID:   doctor.ID,
		DoctorName: doctor.Name,
		Type:       in.Type,
		Title:      strings.TrimSpace(in.Title),
		Content:    strings.TrimSpace(in.Content),
		Diagnosis:  strings.TrimSpace(in.Diagnosis),
		CreatedAt:  s.now(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("create record: %w", err)
	}

	patient, _ := s.users.FindByID(ctx, patientID)
	if _, err := s.audit.Append(ctx, audit.Entry{
		PatientID:   patientID,
		PatientName: patient.Name,
		ActorID:     doctor.ID,
		ActorName:   doctor.Name,
		ActorRole:   audit.RoleOf(doctor.Role),
		Action:      audit.ActionRecordAdded,
		RecordID:    rec.ID,
		RecordTitle: rec.Title,
		Details:     fmt.Sprintf("Added new %s record", rec.Type),
	}); err != nil {
		return Record{}, fmt.Errorf("record %s stored but audit failed: %w", rec.ID, err)
	}

	return rec, nil
}

// ListForPatient: el paciente ve sus propios registros, sin gate de grants.
func (s *Service) ListForPatient(ctx context.Context, patientID string, f ListFilter) (pagination.Page[Record], error) {
	u, err := s.requireRole(ctx, patientID, users.RolePatient)
	if err != nil {
		return pagination.Page[Record]{}, err
	}
	return s.list(ctx, u.ID, f)
}

// ListForDoctor exige acceso vigente. Solo la primera página deja RECORD_VIEWED
// para no llenar el audit con cada página.
func (s *Service) ListForDoctor(ctx context.Context, doctorID, patientID string, f ListFilter) (pagination.Page[Record], error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return pagination.Page[Record]{}, ErrInvalidInput
	}

	doctor, err := s.requireDoctor(ctx, doctorID)
	if err != nil {
		return pagination.Page[Record]{}, err
	}
	if err := s.requireAccess(ctx, "records_view", patientID, doctor.ID); err != nil {
		return pagination.Page[Record]{}, err
	}

	out, err := s.list(ctx, patientID, f)
	if err != nil {
		return pagination.Page[Record]{}, err
	}

	if out.Page == 0 {
		patient, _ := s.users.FindByID(ctx, patientID)
		if _, err := s.audit.Append(ctx, audit.Entry{
			PatientID:   patientID,
			PatientName: patient.Name,
			ActorID:     doctor.ID,
			ActorName:   doctor.Name,
			ActorRole:   audit.RoleOf(doctor.Role),
			Action:      audit.ActionRecordViewed,
			Details:     "Doctor viewed patient records",
		}); err != nil {
			return pagination.Page[Record]{}, fmt.Errorf("record view audit failed: %w", err)
		}
	}
	return out, nil
}

func (s *Service) list(ctx context.Context, patientID string, f ListFilter) (pagination.Page[Record], error) {
	if f.Type != "" && !f.Type.Valid() {
		return pagination.Page[Record]{}, ErrInvalidInput
	}
	page, size := pagination.Normalize(f.Page, f.Size)
	items, total, err := s.repo.ListByPatient(ctx, patientID, f.Type, pagination.Offset(page, size), size)
	if err != nil {
		return pagination.Page[Record]{}, err
	}
	return pagination.New(items, page, size, total), nil
}

func (s *Service) requireDoctor(ctx context.Context, doctorID string) (users.User, error) {
	return s.requireRole(ctx, doctorID, users.RoleDoctor)
}

// requireRole: usuario inexistente o de otro rol => ErrForbidden; fallas del store suben envueltas.
func (s *Service) requireRole(ctx context.Context, userID string, role users.Role) (users.User, error) {
	u, err := s.users.FindByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, ErrForbidden
		}
		return users.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if u.Role != role {
		return users.User{}, ErrForbidden
	}
	return u, nil
}

func (s *Service) requireAccess(ctx context.Context, op, patientID, doctorID string) error {
	ok, err := s.authz.IsAuthorized(ctx, patientID, doctorID)
	if err != nil {
		return fmt.Errorf("authorization check: %w", err)
	}
	if !ok {
		metrics.AccessDeniedTotal.WithLabelValues(op).Inc()
		s.log.Warn("record access without active grant", map[string]any{
			"event":      "access_denied",
			"operation":  op,
			"patient_id": patientID,
			"doctor_id":  doctorID,
		})
		return ErrAccessRequired
	}
	return nil
}
