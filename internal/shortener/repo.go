package shortener

import "context"

// Repository is the durable token -> destination store.
//
// Insert must fail with errx.Conflict when the token is already taken, decided
// atomically by the backend. FindByToken and DeleteByToken fail with
// errx.NotFound for unknown tokens. Backend failures surface as errx.Unavailable.
type Repository interface {
	Insert(ctx context.Context, link LinkRecord) (LinkRecord, error)
	FindByToken(ctx context.Context, token string) (LinkRecord, error)
	DeleteByToken(ctx context.Context, token string) error
}
