package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/shortlink/internal/errx"
)

// DefaultRedisKeyPrefix namespaces link keys in a shared Redis database.
const DefaultRedisKeyPrefix = "shortlink:"

// redisClient is the subset of redis.Cmdable the store uses.
type redisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisRepo struct {
	rdb       redisClient
	keyPrefix string
	timeout   time.Duration
}

// redisLink is the JSON value stored under each key.
type redisLink struct {
	Token          string    `json:"token"`
	DestinationURL string    `json:"destination_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewRedisRepository returns a Repository that keeps one key per token.
// Keys never expire.
func NewRedisRepository(rdb redisClient, keyPrefix string, config *RepositoryConfig) Repository {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &redisRepo{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		timeout:   config.timeout(),
	}
}

func (r *redisRepo) key(token string) string {
	return r.keyPrefix + token
}

func mapRedisError(op string, err error) error {
	switch {
	case errors.Is(err, redis.Nil):
		return errx.E(op, errx.NotFound, err)
	case isTimeout(err):
		return errx.E(op, errx.Unavailable, fmt.Errorf("%w: %w", errStoreTimeout, err))
	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func (r *redisRepo) Insert(ctx context.Context, link LinkRecord) (LinkRecord, error) {
	const op = "shortener.redisRepo.Insert"

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	link.CreatedAt = link.CreatedAt.UTC()

	payload, err := json.Marshal(redisLink{
		Token:          link.Token,
		DestinationURL: link.DestinationURL,
		CreatedAt:      link.CreatedAt,
	})
	if err != nil {
		return LinkRecord{}, errx.E(op, errx.Internal, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ok, err := r.rdb.SetNX(ctx, r.key(link.Token), payload, 0).Result()
	if err != nil {
		return LinkRecord{}, mapRedisError(op, err)
	}
	if !ok {
		return LinkRecord{}, errx.E(op, errx.Conflict, fmt.Errorf("token %q already exists", link.Token))
	}
	return link, nil
}

func (r *redisRepo) FindByToken(ctx context.Context, token string) (LinkRecord, error) {
	const op = "shortener.redisRepo.FindByToken"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.rdb.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		return LinkRecord{}, mapRedisError(op, err)
	}

	var stored redisLink
	if err := json.Unmarshal(raw, &stored); err != nil {
		return LinkRecord{}, errx.E(op, errx.Internal, fmt.Errorf("decode link %q: %w", token, err))
	}

	return LinkRecord{
		Token:          stored.Token,
		DestinationURL: stored.DestinationURL,
		CreatedAt:      stored.CreatedAt.UTC(),
	}, nil
}

func (r *redisRepo) DeleteByToken(ctx context.Context, token string) error {
	const op = "shortener.redisRepo.DeleteByToken"

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.rdb.Del(ctx, r.key(token)).Result()
	if err != nil {
		return mapRedisError(op, err)
	}
	if n == 0 {
		return errx.E(op, errx.NotFound, fmt.Errorf("token %q not found", token))
	}
	return nil
}
