package app

import (
	"context"

	"github.com/aradsms/vnumber_services/internal/number_discovery_service/domain"
)

// InboxProvider fetches the raw inbox of a number.
type InboxProvider interface {
	FetchInbox(ctx context.Context, countryID, number string) ([]domain.InboxMessage, error)
}

// NumberProvider is the numbering provider as seen by the discovery engine.
// provider.OnlineSimProvider implements it.
type NumberProvider interface {
	InboxProvider
	ListOnlineCountries(ctx context.Context) ([]domain.Country, error)
	ListNumbers(ctx context.Context, countryID string) ([]domain.NumberCandidate, error)
}

// EventPublisher is satisfied by messagebroker.NATSClient.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// ProgressReporter receives progress of a discovery attempt, e.g. to update a
// chat message while the scan runs. Calls happen on the attempt's goroutine.
type ProgressReporter interface {
	CountriesListed(ctx context.Context, total int)
	ProbingCandidate(ctx context.Context, country domain.Country, candidate domain.NumberCandidate)
}
