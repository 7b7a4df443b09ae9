package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"github.com/aradsms/vnumber_services/internal/number_discovery_service/domain"
	"github.com/google/uuid"
)

// DiscoveryEngine finds one currently live virtual number. It keeps no state
// between attempts, so one engine serves concurrent attempts.
type DiscoveryEngine struct {
	provider NumberProvider
	inbox    *InboxReader
	logger   *slog.Logger

	shuffle func([]domain.Country)

	publisher    EventPublisher
	eventSubject string
}

type EngineOption func(*DiscoveryEngine)

// WithShuffle replaces the uniform random country shuffle.
func WithShuffle(shuffle func([]domain.Country)) EngineOption {
	return func(e *DiscoveryEngine) {
		e.shuffle = shuffle
	}
}

// WithEventPublisher publishes a NumberDiscoveredEvent on subject after each
// successful attempt.
func WithEventPublisher(publisher EventPublisher, subject string) EngineOption {
	return func(e *DiscoveryEngine) {
		e.publisher = publisher
		e.eventSubject = subject
	}
}

func NewDiscoveryEngine(provider NumberProvider, inbox *InboxReader, logger *slog.Logger, opts ...EngineOption) *DiscoveryEngine {
	e := &DiscoveryEngine{
		provider: provider,
		inbox:    inbox,
		logger:   logger.With("component", "discovery_engine"),
		shuffle:  shuffleCountries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func shuffleCountries(countries []domain.Country) {
	rand.Shuffle(len(countries), func(i, j int) {
		countries[i], countries[j] = countries[j], countries[i]
	})
}

// FindLiveNumber runs one discovery attempt. See FindLiveNumberWithProgress.
func (e *DiscoveryEngine) FindLiveNumber(ctx context.Context) (*domain.DiscoveryResult, error) {
	return e.FindLiveNumberWithProgress(ctx, nil)
}

// FindLiveNumberWithProgress lists the online countries, visits them in random
// order and returns the first number whose inbox can be fetched, together
// with that inbox. Countries are scanned one at a time and candidates in the
// order the provider lists them.
//
// Only a failure to list the online countries is returned as an error. A
// failing country listing skips the country and a failing probe skips the
// candidate. When nothing is live the result has Found == false and a nil error.
// progress may be nil.
func (e *DiscoveryEngine) FindLiveNumberWithProgress(ctx context.Context, progress ProgressReporter) (*domain.DiscoveryResult, error) {
	start := time.Now()
	result := &domain.DiscoveryResult{AttemptID: uuid.New()}
	logger := e.logger.With("attempt_id", result.AttemptID.String())

	countries, err := e.provider.ListOnlineCountries(ctx)
	if err != nil {
		e.observe("error", start)
		logger.ErrorContext(ctx, "Failed to list online countries", "error", err)
		return nil, fmt.Errorf("listing online countries: %w", err)
	}

	order := slices.Clone(countries)
	e.shuffle(order)
	result.CountriesOnline = len(order)
	if progress != nil {
		progress.CountriesListed(ctx, len(order))
	}
	logger.InfoContext(ctx, "Scanning online countries", "count", len(order))

	for _, country := range order {
		if err := ctx.Err(); err != nil {
			return nil, e.cancelled(ctx, logger, start, err)
		}
		result.CountriesScanned++

		candidates, err := e.provider.ListNumbers(ctx, country.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, e.cancelled(ctx, logger, start, ctxErr)
			}
			countryListingFailuresCounter.Inc()
			logger.WarnContext(ctx, "Skipping country, number listing failed", "country", country.ID, "error", err)
			continue
		}

		for _, candidate := range candidates {
			if progress != nil {
				progress.ProbingCandidate(ctx, country, candidate)
			}
			result.ProbesAttempted++

			inbox, err := e.inbox.Fetch(ctx, country.ID, candidate.Digits)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, e.cancelled(ctx, logger, start, ctxErr)
				}
				livenessProbesCounter.WithLabelValues("failed").Inc()
				logger.DebugContext(ctx, "Candidate failed liveness probe", "country", country.ID, "number", candidate.Digits, "error", err)
				continue
			}
			livenessProbesCounter.WithLabelValues("live").Inc()

			result.Found = true
			result.Country = country
			result.Number = candidate
			result.Inbox = inbox

			e.observe("found", start)
			logger.InfoContext(ctx, "Found live number",
				"country", country.ID,
				"number", candidate.Digits,
				"inbox_size", len(inbox),
				"countries_scanned", result.CountriesScanned,
				"probes", result.ProbesAttempted,
			)
			e.publishDiscovered(ctx, logger, result)
			return result, nil
		}
	}

	e.observe("not_found", start)
	logger.InfoContext(ctx, "No live number found", "countries_scanned", result.CountriesScanned, "probes", result.ProbesAttempted)
	return result, nil
}

func (e *DiscoveryEngine) cancelled(ctx context.Context, logger *slog.Logger, start time.Time, err error) error {
	e.observe("cancelled", start)
	logger.WarnContext(ctx, "Discovery attempt cancelled", "error", err)
	return fmt.Errorf("discovery attempt cancelled: %w", err)
}

func (e *DiscoveryEngine) observe(outcome string, start time.Time) {
	discoveryAttemptsCounter.WithLabelValues(outcome).Inc()
	discoveryAttemptDurationHist.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// publishDiscovered never changes the attempt's result; failures are logged.
func (e *DiscoveryEngine) publishDiscovered(ctx context.Context, logger *slog.Logger, result *domain.DiscoveryResult) {
	if e.publisher == nil || e.eventSubject == "" {
		return
	}
	data, err := json.Marshal(domain.NewNumberDiscoveredEvent(result))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to marshal number discovered event", "error", err)
		return
	}
	if err := e.publisher.Publish(ctx, e.eventSubject, data); err != nil {
		logger.WarnContext(ctx, "Failed to publish number discovered event", "subject", e.eventSubject, "error", err)
	}
}
