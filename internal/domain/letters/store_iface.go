package letters

import "context"

type StoreAPI interface {
	CaseInfo(ctx context.Context, caseID string) (CaseInfo, error)
	Insert(ctx context.Context, letter Letter, req CaseRequirement) (Letter, error)
	List(ctx context.Context) ([]Letter, error)
	ByInvestigation(ctx context.Context, caseID string) ([]Letter, error)
	Get(ctx context.Context, id string) (Letter, error)
}
