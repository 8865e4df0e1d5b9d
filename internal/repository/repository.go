package repository

import (
	"alcyxob/runplan/internal/domain"
	"context"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProfileRepository stores one ProfileRecord per subject.
type ProfileRepository interface {
	// Upsert inserts the record if its subject is new, otherwise replaces the stored
	// document as a whole. Fields absent from the record do not survive the write.
	Upsert(ctx context.Context, record *domain.ProfileRecord) error
	GetBySubjectID(ctx context.Context, subjectID string) (*domain.ProfileRecord, error)
}
