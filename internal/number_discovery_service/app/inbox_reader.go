package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aradsms/vnumber_services/internal/number_discovery_service/domain"
)

// InboxReader returns the newest part of a number's inbox. It is both the
// "view inbox" action and the discovery engine's liveness probe.
type InboxReader struct {
	provider InboxProvider
	logger   *slog.Logger
}

func NewInboxReader(provider InboxProvider, logger *slog.Logger) *InboxReader {
	return &InboxReader{
		provider: provider,
		logger:   logger.With("component", "inbox_reader"),
	}
}

// Fetch returns at most domain.MaxInboxMessages entries, the first ones in
// provider order. An empty, non-nil slice means the inbox is reachable and empty.
func (r *InboxReader) Fetch(ctx context.Context, countryID, number string) ([]domain.InboxMessage, error) {
	messages, err := r.provider.FetchInbox(ctx, countryID, number)
	if err != nil {
		inboxFetchesCounter.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetching inbox of %s in %s: %w", number, countryID, err)
	}
	inboxFetchesCounter.WithLabelValues("success").Inc()

	if len(messages) > domain.MaxInboxMessages {
		r.logger.DebugContext(ctx, "Truncating inbox", "country", countryID, "number", number, "total", len(messages))
		messages = messages[:domain.MaxInboxMessages]
	}
	if messages == nil {
		return []domain.InboxMessage{}, nil
	}
	return slices.Clip(messages), nil
}
