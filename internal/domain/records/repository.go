package records

import "context"

type Repository interface {
	Create(ctx context.Context, r Record) error
	// ListByPatient ordena por created_at desc. typ vacío = todos.
	ListByPatient(ctx context.Context, patientID string, typ RecordType, offset, limit int) ([]Record, int, error)
}

type ListFilter struct {
	Type RecordType
	Page int
	Size int
}
