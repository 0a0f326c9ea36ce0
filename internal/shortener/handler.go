package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sundayezeilo/shortlink/internal/errx"
	"github.com/sundayezeilo/shortlink/internal/httpx"
)

// HTTPCreateLinkRequest represents the JSON request body for creating a link.
type HTTPCreateLinkRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// LinkResponse represents a stored link in API responses.
type LinkResponse struct {
	Token          string    `json:"token"`
	DestinationURL string    `json:"destination_url"`
	ShortURL       string    `json:"short_url"`
	RedirectTarget string    `json:"redirect_target,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Handler provides HTTP handlers for the short-link service.
type Handler struct {
	service  Service
	logger   *slog.Logger
	baseURL  string
	validate *validator.Validate
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
	BaseURL string // Base URL for constructing short URLs (e.g., "https://short.ly")
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service:  cfg.Service,
		logger:   logger,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateLink handles POST /api/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := httpx.RequestLogger(h.logger, r)

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](w, r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.validateRequest(req); err != nil {
		logger.WarnContext(ctx, "request validation failed", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	link, err := h.service.CreateShortLink(ctx, CreateLinkRequest{DestinationURL: req.URL})
	if err != nil {
		h.writeServiceError(ctx, w, logger, err, "Unable to create short link at this time. Please try again.")
		return
	}

	logger.InfoContext(ctx, "link created", "token", link.Token)

	httpx.WriteJSON(w, http.StatusCreated, h.toResponse(link, false))
}

// ResolveLink handles GET /{token} by redirecting to the link's target.
func (h *Handler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := httpx.RequestLogger(h.logger, r)
	token := r.PathValue("token")

	target, err := h.service.ResolveShortLink(ctx, token)
	if err != nil {
		h.writeServiceError(ctx, w, logger.With("token", token), err, "Unable to resolve this link at this time")
		return
	}

	logger.DebugContext(ctx, "token resolved",
		"token", token,
		"user_agent", r.UserAgent(),
		"referer", r.Referer(),
	)

	http.Redirect(w, r, target, http.StatusFound)
}

// GetLink handles GET /api/links/{token}.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := httpx.RequestLogger(h.logger, r)
	token := r.PathValue("token")

	link, err := h.service.GetShortLink(ctx, token)
	if err != nil {
		h.writeServiceError(ctx, w, logger.With("token", token), err, "Unable to fetch this link at this time")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.toResponse(link, true))
}

// DeleteLink handles DELETE /api/links/{token}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := httpx.RequestLogger(h.logger, r)
	token := r.PathValue("token")

	if err := h.service.DeleteShortLink(ctx, token); err != nil {
		h.writeServiceError(ctx, w, logger.With("token", token), err, "Unable to delete this link at this time")
		return
	}

	logger.InfoContext(ctx, "link deleted", "token", token)
	httpx.WriteNoContent(w)
}

func (h *Handler) toResponse(link LinkRecord, withTarget bool) LinkResponse {
	resp := LinkResponse{
		Token:          link.Token,
		DestinationURL: link.DestinationURL,
		ShortURL:       fmt.Sprintf("%s/%s", h.baseURL, link.Token),
		CreatedAt:      link.CreatedAt,
	}
	if withTarget {
		resp.RedirectTarget = RedirectTarget(link.DestinationURL)
	}
	return resp
}

// validateRequest reports struct tag violations as "field: tag" pairs.
func (h *Handler) validateRequest(req HTTPCreateLinkRequest) error {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// writeServiceError maps a service error to its HTTP response. Client errors
// carry the error text; server errors get the generic fallback message.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind.String(),
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.NotFound:
		logger.InfoContext(ctx, "link not found", logAttrs...)
		httpx.WriteKindError(w, kind, "short link doesn't exist")

	case errx.Invalid:
		logger.WarnContext(ctx, "invalid link request", logAttrs...)
		httpx.WriteKindError(w, kind, errMessage(err))

	case errx.Exhausted:
		logger.ErrorContext(ctx, "token space exhausted", logAttrs...)
		httpx.WriteKindError(w, kind, fallback)

	case errx.Unavailable:
		logger.ErrorContext(ctx, "store unavailable", logAttrs...)
		httpx.WriteKindError(w, kind, fallback)

	default:
		logger.ErrorContext(ctx, "unexpected error", logAttrs...)
		httpx.WriteKindError(w, errx.Internal, fallback)
	}
}

// errMessage returns the innermost message, without op prefixes.
func errMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
