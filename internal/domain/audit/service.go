package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"patient-access/internal/platform/pagination"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Append asigna id y timestamp del servidor; lo que venga en e.ID / e.CreatedAt se ignora.
func (s *Service) Append(ctx context.Context, e Entry) (Entry, error) {
	e.PatientID = strings.TrimSpace(e.PatientID)
	e.ActorID = strings.TrimSpace(e.ActorID)

	if e.PatientID == "" || e.ActorID == "" || strings.TrimSpace(string(e.ActorRole)) == "" {
		return Entry{}, ErrInvalidInput
	}
	if !e.Action.Valid() {
		return Entry{}, ErrInvalidInput
	}

	e.ID = uuid.NewString()
	e.CreatedAt = s.now()

	if err := s.repo.Append(ctx, e); err != nil {
		return Entry{}, fmt.Errorf("append audit entry: %w", err)
	}
	return e, nil
}

// QueryForPatient: todo lo que pasó sobre el paciente, más reciente primero.
func (s *Service) QueryForPatient(ctx context.Context, patientID string, page, size int) (pagination.Page[Entry], error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return pagination.Page[Entry]{}, ErrInvalidInput
	}

	page, size = pagination.Normalize(page, size)
	items, total, err := s.repo.ListByPatient(ctx, patientID, pagination.Offset(page, size), size)
	if err != nil {
		return pagination.Page[Entry]{}, err
	}
	return pagination.New(items, page, size, total), nil
}

// QueryForActor: todo lo que hizo el actor, más reciente primero.
func (s *Service) QueryForActor(ctx context.Context, actorID string, page, size int) (pagination.Page[Entry], error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return pagination.Page[Entry]{}, ErrInvalidInput
	}

	page, size = pagination.Normalize(page, size)
	items, total, err := s.repo.ListByActor(ctx, actorID, pagination.Offset(page, size), size)
	if err != nil {
		return pagination.Page[Entry]{}, err
	}
	return pagination.New(items, page, size, total), nil
}
