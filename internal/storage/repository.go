package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	CreateEvents(ctx context.Context, in []Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, in Event) error
	UpdateEvents(ctx context.Context, in []Event) error
	DeleteEvent(ctx context.Context, id string) error
	DeleteGroup(ctx context.Context, groupID string) (int64, error)
	ListEvents(ctx context.Context, filter EventListFilter) ([]Event, error)
}
