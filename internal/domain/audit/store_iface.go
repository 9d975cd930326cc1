package audit

import (
	"context"
	"time"
)

type StoreAPI interface {
	Insert(ctx context.Context, entry Entry) error
	Count(ctx context.Context, filter Filter) (int, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, error)
	ByEntity(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error)
	ByUser(ctx context.Context, userID string, limit int) ([]Entry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
