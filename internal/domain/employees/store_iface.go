package employees

import "context"

type StoreAPI interface {
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Employee, int, error)
	Get(ctx context.Context, id string) (Employee, error)
	ByCode(ctx context.Context, code string) (Employee, error)
	Create(ctx context.Context, input Input) (Employee, error)
	Update(ctx context.Context, id string, input Input) (Employee, error)
	SoftDelete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]Employee, error)
	Stats(ctx context.Context, id string) (Stats, error)
	History(ctx context.Context, id string, filter HistoryFilter, limit, offset int) ([]HistoryItem, int, error)
	Factories(ctx context.Context) ([]string, error)
}
