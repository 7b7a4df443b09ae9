package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aradsms/vnumber_services/internal/number_discovery_service/domain"
	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	msgNoNumberOnline = "There is no number online right now, please try again later."
	msgTryAgain       = "Could not reach the number provider, please try again."
)

// DiscoveryService runs one discovery attempt. *app.DiscoveryEngine implements it.
type DiscoveryService interface {
	FindLiveNumber(ctx context.Context) (*domain.DiscoveryResult, error)
}

// InboxService reads a number's inbox. *app.InboxReader implements it.
type InboxService interface {
	Fetch(ctx context.Context, countryID, number string) ([]domain.InboxMessage, error)
}

type DiscoveryHandler struct {
	discovery        DiscoveryService
	inbox            InboxService
	logger           *slog.Logger
	validate         *validator.Validate
	discoveryTimeout time.Duration
}

// NewDiscoveryHandler creates a DiscoveryHandler. discoveryTimeout bounds a
// whole discovery attempt; zero leaves it to the request context.
func NewDiscoveryHandler(discovery DiscoveryService, inbox InboxService, logger *slog.Logger, validate *validator.Validate, discoveryTimeout time.Duration) *DiscoveryHandler {
	return &DiscoveryHandler{
		discovery:        discovery,
		inbox:            inbox,
		logger:           logger.With("handler", "discovery"),
		validate:         validate,
		discoveryTimeout: discoveryTimeout,
	}
}

// RegisterRoutes mounts the find/refresh and view inbox actions.
func (h *DiscoveryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/numbers/discover", h.HandleDiscover)
	r.Get("/countries/{country}/numbers/{number}/inbox", h.HandleInbox)
}

// HandleDiscover runs FindLiveNumber once. "Refresh" is the same call.
func (h *DiscoveryHandler) HandleDiscover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	if h.discoveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.discoveryTimeout)
		defer cancel()
	}

	result, err := h.discovery.FindLiveNumber(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Discovery attempt failed", "error", err)
		writeError(w, statusForError(ctx, err), msgTryAgain)
		return
	}

	if result.Found {
		logger.InfoContext(ctx, "Discovery attempt found a number", "attempt_id", result.AttemptID, "country", result.Country.ID)
	} else {
		logger.InfoContext(ctx, "Discovery attempt found no number", "attempt_id", result.AttemptID)
	}
	writeJSON(w, http.StatusOK, toDiscoverResponse(result))
}

// HandleInbox returns the latest messages of a previously shown number.
func (h *DiscoveryHandler) HandleInbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	req := InboxRequest{
		CountryID: chi.URLParam(r, "country"),
		Number:    chi.URLParam(r, "number"),
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Invalid inbox request", "error", err, "country", req.CountryID, "number", req.Number)
		writeError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	logger = logger.With("country", req.CountryID, "number", req.Number)

	messages, err := h.inbox.Fetch(ctx, req.CountryID, req.Number)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to fetch inbox", "error", err)
		writeError(w, statusForError(ctx, err), msgTryAgain)
		return
	}

	logger.InfoContext(ctx, "Inbox fetched", "count", len(messages))
	writeJSON(w, http.StatusOK, InboxResponse{
		CountryID: req.CountryID,
		Number:    req.Number,
		Messages:  toInboxMessages(messages),
	})
}

// statusForError maps a failed call to a status. Only the request's own
// deadline or cancellation is a 504; a provider call that timed out is a 502.
func statusForError(ctx context.Context, err error) int {
	switch {
	case ctx.Err() != nil:
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrProviderProtocol):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
