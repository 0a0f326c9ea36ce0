package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/sundayezeilo/shortlink/internal/db/sqlc"
	"github.com/sundayezeilo/shortlink/internal/errx"
)

// DefaultStoreTimeout bounds a single store call when no timeout is configured.
const DefaultStoreTimeout = 3 * time.Second

var errStoreTimeout = errors.New("store call timed out")

// querier is an internal interface that abstracts *db.Queries
type querier interface {
	CreateLink(ctx context.Context, arg db.CreateLinkParams) (db.Link, error)
	GetLinkByToken(ctx context.Context, token string) (db.Link, error)
	DeleteLink(ctx context.Context, token string) (int64, error)
}

type pgRepo struct {
	q       querier
	timeout time.Duration
}

// RepositoryConfig holds configuration shared by the store backends.
type RepositoryConfig struct {
	Timeout time.Duration
}

func (c *RepositoryConfig) timeout() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return DefaultStoreTimeout
	}
	return c.Timeout
}

// NewPostgresRepository returns a Repository backed by the links table.
func NewPostgresRepository(q querier, config *RepositoryConfig) Repository {
	return &pgRepo{
		q:       q,
		timeout: config.timeout(),
	}
}

func toDomainLink(x db.Link) (LinkRecord, error) {
	if !x.CreatedAt.Valid {
		return LinkRecord{}, errors.New("created_at unexpectedly NULL")
	}
	return LinkRecord{
		Token:          x.Token,
		DestinationURL: x.DestinationUrl,
		CreatedAt:      x.CreatedAt.Time.UTC(),
	}, nil
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isTokenUniqueViolation(err):
		return errx.E(op, errx.Conflict, err)

	case isTimeout(err):
		return errx.E(op, errx.Unavailable, fmt.Errorf("%w: %w", errStoreTimeout, err))

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func (r *pgRepo) Insert(ctx context.Context, link LinkRecord) (LinkRecord, error) {
	const op = "shortener.pgRepo.Insert"

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row, err := r.q.CreateLink(ctx, db.CreateLinkParams{
		Token:          link.Token,
		DestinationUrl: link.DestinationURL,
		CreatedAt:      pgtype.Timestamptz{Time: link.CreatedAt.UTC(), Valid: true},
	})
	if err != nil {
		return LinkRecord{}, mapRepoError(op, err)
	}

	created, err := toDomainLink(row)
	if err != nil {
		return LinkRecord{}, errx.E(op, errx.Internal, err)
	}
	return created, nil
}

func (r *pgRepo) FindByToken(ctx context.Context, token string) (LinkRecord, error) {
	const op = "shortener.pgRepo.FindByToken"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row, err := r.q.GetLinkByToken(ctx, token)
	if err != nil {
		return LinkRecord{}, mapRepoError(op, err)
	}

	link, err := toDomainLink(row)
	if err != nil {
		return LinkRecord{}, errx.E(op, errx.Internal, err)
	}
	return link, nil
}

func (r *pgRepo) DeleteByToken(ctx context.Context, token string) error {
	const op = "shortener.pgRepo.DeleteByToken"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.q.DeleteLink(ctx, token)
	if err != nil {
		return mapRepoError(op, err)
	}
	if n == 0 {
		return errx.E(op, errx.NotFound, fmt.Errorf("token %q not found", token))
	}
	return nil
}
