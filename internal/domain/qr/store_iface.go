package qr

import (
	"context"
	"time"

	"peopleguard/internal/domain/cases"
)

type StoreAPI interface {
	Create(ctx context.Context, t Token) (Token, error)
	Get(ctx context.Context, id string) (Token, error)
	ByToken(ctx context.Context, token string) (Token, error)
	List(ctx context.Context, limit, offset int) ([]Token, int, error)
	Deactivate(ctx context.Context, id string) error
	ExpireTokens(ctx context.Context, now time.Time) (int64, error)
	Submissions(ctx context.Context, tokenID string) ([]Submission, error)
	// Submit creates the case linked to the anonymous employee, its Created
	// history row and the submission in one transaction.
	Submit(ctx context.Context, c cases.Case, sub Submission) (Submission, cases.Case, error)
}
