package shortener

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sundayezeilo/shortlink/internal/errx"
	"github.com/sundayezeilo/shortlink/tokengen"
)

const (
	DefaultTokenLength = 10
	MinTokenLength     = 4
	MaxTokenLength     = 64
	// MaxURLLength is counted in characters, matching the request validator.
	MaxURLLength       = 2048
	DefaultMaxAttempts = 5

	// DefaultScheme is prepended to destinations stored without a scheme.
	DefaultScheme = "http://"
)

// CreateLinkRequest represents the parameters for creating a new link.
type CreateLinkRequest struct {
	DestinationURL string
}

// Service defines the link resolver operations.
type Service interface {
	CreateShortLink(ctx context.Context, req CreateLinkRequest) (LinkRecord, error)
	ResolveShortLink(ctx context.Context, token string) (string, error)
	GetShortLink(ctx context.Context, token string) (LinkRecord, error)
	DeleteShortLink(ctx context.Context, token string) error
}

type service struct {
	repo        Repository
	tokens      tokengen.Generator
	tokenLength int
	maxAttempts int
	now         func() time.Time
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	TokenGenerator tokengen.Generator
	TokenLength    int
	MaxAttempts    int // insert attempts per create, including the first (default: 5)
	Now            func() time.Time
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	gen := config.TokenGenerator
	if gen == nil {
		gen = tokengen.NewNanoID()
	}

	length := config.TokenLength
	if length < MinTokenLength || length > MaxTokenLength {
		length = DefaultTokenLength
	}

	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		repo:        repo,
		tokens:      gen,
		tokenLength: length,
		maxAttempts: attempts,
		now:         now,
	}
}

// CreateShortLink stores req.DestinationURL under a freshly generated token.
// The destination is stored exactly as submitted. Token collisions are retried
// with a new token until the attempt budget runs out.
func (s *service) CreateShortLink(ctx context.Context, req CreateLinkRequest) (LinkRecord, error) {
	const op = "shortener.service.CreateShortLink"

	if err := ValidateDestination(req.DestinationURL); err != nil {
		return LinkRecord{}, errx.E(op, errx.Invalid, err)
	}

	for range s.maxAttempts {
		token, err := s.tokens.Generate(s.tokenLength)
		if err != nil {
			return LinkRecord{}, errx.E(op, errx.Unavailable, fmt.Errorf("generate token: %w", err))
		}

		created, err := s.repo.Insert(ctx, LinkRecord{
			Token:          token,
			DestinationURL: req.DestinationURL,
			CreatedAt:      s.now().UTC().Truncate(time.Microsecond),
		})
		if err == nil {
			return created, nil
		}

		if !errx.Is(err, errx.Conflict) {
			return LinkRecord{}, errx.Wrap(op, err)
		}
	}

	return LinkRecord{}, errx.E(op, errx.Exhausted,
		fmt.Errorf("no free token after %d attempts", s.maxAttempts))
}

// ResolveShortLink returns the redirect target for token.
func (s *service) ResolveShortLink(ctx context.Context, token string) (string, error) {
	const op = "shortener.service.ResolveShortLink"

	link, err := s.find(ctx, token)
	if err != nil {
		return "", errx.Wrap(op, err)
	}
	return RedirectTarget(link.DestinationURL), nil
}

// GetShortLink returns the stored record for token without normalization.
func (s *service) GetShortLink(ctx context.Context, token string) (LinkRecord, error) {
	const op = "shortener.service.GetShortLink"

	link, err := s.find(ctx, token)
	if err != nil {
		return LinkRecord{}, errx.Wrap(op, err)
	}
	return link, nil
}

func (s *service) DeleteShortLink(ctx context.Context, token string) error {
	const op = "shortener.service.DeleteShortLink"

	if token == "" {
		return errx.E(op, errx.NotFound, errors.New("token cannot be empty"))
	}

	if err := s.repo.DeleteByToken(ctx, token); err != nil {
		return errx.Wrap(op, err)
	}
	return nil
}

// find skips the store for tokens that no record can carry.
func (s *service) find(ctx context.Context, token string) (LinkRecord, error) {
	if token == "" {
		return LinkRecord{}, errx.E("shortener.service.find", errx.NotFound, errors.New("token cannot be empty"))
	}
	return s.repo.FindByToken(ctx, token)
}

// RedirectTarget returns dest unchanged when it starts with http:// or
// https:// (any case) and prepends DefaultScheme otherwise.
func RedirectTarget(dest string) string {
	if hasHTTPScheme(dest) {
		return dest
	}
	return DefaultScheme + dest
}

func hasHTTPScheme(s string) bool {
	for _, prefix := range []string{"http://", "https://"} {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}

// ValidateDestination reports why dest cannot be stored, or nil.
func ValidateDestination(dest string) error {
	if strings.TrimSpace(dest) == "" {
		return errors.New("url cannot be empty")
	}
	if utf8.RuneCountInString(dest) > MaxURLLength {
		return fmt.Errorf("url too long (max %d characters)", MaxURLLength)
	}

	if i := strings.Index(dest, "://"); i >= 0 && !strings.ContainsAny(dest[:i], "/?#") && !hasHTTPScheme(dest) {
		return errors.New("url scheme must be http or https")
	}

	parsed, err := url.Parse(RedirectTarget(dest))
	if err != nil {
		return errors.New("invalid url format")
	}
	if parsed.Host == "" {
		return errors.New("url must include host")
	}
	return nil
}
