package cases

import "context"

type StoreAPI interface {
	EmployeeExists(ctx context.Context, employeeID string) (bool, error)
	Create(ctx context.Context, c Case, actor Actor) (Case, error)
	Get(ctx context.Context, caseID string) (Case, error)
	Detail(ctx context.Context, caseID string) (Detail, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]ListItem, int, error)
	Stats(ctx context.Context) (Stats, error)
	Update(ctx context.Context, caseID string, input Input) error
	SoftDelete(ctx context.Context, caseID string) error
	Factories(ctx context.Context) ([]string, error)

	ApplyStatus(ctx context.Context, caseID string, change StatusChange, entries []HistoryEntry) error
	SetOutcome(ctx context.Context, caseID string, outcome Outcome, entry HistoryEntry) error

	ListRemarks(ctx context.Context, caseID string) ([]Remark, error)
	AddRemark(ctx context.Context, remark Remark) (Remark, error)

	ListAttachments(ctx context.Context, caseID string) ([]Attachment, error)
	GetAttachment(ctx context.Context, caseID, attachmentID string) (Attachment, error)
	AddAttachment(ctx context.Context, att Attachment) (Attachment, error)
	DeleteAttachment(ctx context.Context, caseID, attachmentID, userID string) (Attachment, error)

	History(ctx context.Context, caseID string) ([]HistoryEntry, error)
}
