package store

import (
	"context"
	"errors"

	"appointment-booking-web/internal/model"
)

var ErrNotFound = errors.New("session not found")

// Store persists session records. Get returns ErrNotFound for missing or
// expired records.
type Store interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Put(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, id string) error
}
