package leave

import "context"

type StoreAPI interface {
	Create(ctx context.Context, req Request, attachments []AttachmentInput) (Request, error)
	Get(ctx context.Context, id string) (Request, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Request, int, error)
	// UpdateStatus moves a request from one status to another. It reports
	// ErrInvalidState when the current status no longer matches from.
	UpdateStatus(ctx context.Context, id string, from, to Status, review *Review) error
}
