package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aradsms/vnumber_services/internal/number_discovery_service/domain"
	"github.com/aradsms/vnumber_services/internal/platform/config"
	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const (
	providerName = "onlinesim"

	opListCountries = "list_countries"
	opListNumbers   = "list_numbers"
	opFetchInbox    = "fetch_inbox"

	freeNumbersPath = "api/v1/free_numbers_content/countries"

	// maxResponseBytes caps how much of a provider response is read.
	maxResponseBytes = 4 << 20
)

// OnlineSimConfig configures OnlineSimProvider. Zero values fall back to the defaults below.
type OnlineSimConfig struct {
	BaseURL              string
	APIKey               string // sent as the "apikey" query parameter when set
	Lang                 string
	Timeout              time.Duration // per HTTP request
	MaxRetries           int
	RetryInitialInterval time.Duration
	RateLimitRPS         float64 // 0 disables client side rate limiting
	RateLimitBurst       int
}

// OnlineSimProvider talks to the OnlineSim free numbers API. It holds no
// cache; every call reflects live provider state.
type OnlineSimProvider struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiKey     string
	lang       string
	timeout    time.Duration
	maxRetries int
	retryInit  time.Duration
	limiter    *rate.Limiter
}

func NewOnlineSimProvider(logger *slog.Logger, cfg OnlineSimConfig, httpClient *http.Client) *OnlineSimProvider {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://onlinesim.io"
	}
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = 200 * time.Millisecond
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	return &OnlineSimProvider{
		logger:     logger.With("provider", providerName),
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		lang:       cfg.Lang,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryInit:  cfg.RetryInitialInterval,
		limiter:    limiter,
	}
}

func (p *OnlineSimProvider) GetName() string {
	return providerName
}

// ListOnlineCountries returns the countries the provider currently marks online.
func (p *OnlineSimProvider) ListOnlineCountries(ctx context.Context) ([]domain.Country, error) {
	var resp onlineSimCountriesResponse
	if err := p.get(ctx, opListCountries, &resp, &resp.onlineSimEnvelope); err != nil {
		return nil, err
	}
	providerRequestsCounter.WithLabelValues(providerName, opListCountries, "success").Inc()

	raw := resp.Counties
	if len(raw) == 0 {
		raw = resp.Countries
	}

	countries := make([]domain.Country, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, c := range raw {
		if !c.Online || c.Name == "" {
			continue
		}
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}

		countries = append(countries, domain.NewCountry(c.Name, int(c.CountryCode)))
	}

	p.logger.DebugContext(ctx, "Listed online countries", "listed", len(raw), "online", len(countries))
	return countries, nil
}

// ListNumbers returns the numbers listed for countryID in provider order.
// An empty slice is a valid result.
func (p *OnlineSimProvider) ListNumbers(ctx context.Context, countryID string) ([]domain.NumberCandidate, error) {
	if err := checkPathElem("country", countryID); err != nil {
		return nil, p.rejectArgs(ctx, opListNumbers, err)
	}

	var resp onlineSimNumbersResponse
	if err := p.get(ctx, opListNumbers, &resp, &resp.onlineSimEnvelope, countryID); err != nil {
		return nil, err
	}
	providerRequestsCounter.WithLabelValues(providerName, opListNumbers, "success").Inc()

	numbers := make([]domain.NumberCandidate, 0, len(resp.Numbers))
	for _, n := range resp.Numbers {
		candidate := domain.NewNumberCandidate(countryID, n.FullNumber, n.DataHumans)
		if candidate.Digits == "" {
			continue
		}
		numbers = append(numbers, candidate)
	}

	p.logger.DebugContext(ctx, "Listed country numbers", "country", countryID, "count", len(numbers))
	return numbers, nil
}

// FetchInbox returns every message the provider lists for the number, in
// provider order. An empty slice means the inbox is reachable but empty; a
// number the provider reports offline is an ErrProviderUnavailable.
func (p *OnlineSimProvider) FetchInbox(ctx context.Context, countryID, number string) ([]domain.InboxMessage, error) {
	if err := checkPathElem("country", countryID); err != nil {
		return nil, p.rejectArgs(ctx, opFetchInbox, err)
	}
	digits := domain.NormalizeDigits(number)
	if digits == "" {
		return nil, p.rejectArgs(ctx, opFetchInbox, fmt.Errorf("number %q has no digits", number))
	}

	var resp onlineSimInboxResponse
	if err := p.get(ctx, opFetchInbox, &resp, &resp.onlineSimEnvelope, countryID, digits); err != nil {
		return nil, err
	}

	if resp.Online != nil && !*resp.Online {
		providerRequestsCounter.WithLabelValues(providerName, opFetchInbox, "offline").Inc()
		return nil, domain.NewUnavailableError(opFetchInbox, 0, fmt.Errorf("number %s is offline", number))
	}
	providerRequestsCounter.WithLabelValues(providerName, opFetchInbox, "success").Inc()

	messages := make([]domain.InboxMessage, 0, len(resp.Messages.Data))
	for _, m := range resp.Messages.Data {
		ts := m.DataHumans
		if ts == "" {
			ts = m.CreatedAt
		}
		messages = append(messages, domain.NewInboxMessage(ts, m.Text))
	}
	return messages, nil
}

// checkPathElem rejects values that would change which endpoint a request
// hits once joined into the URL path.
func checkPathElem(name, value string) error {
	if value == "" || value == "." || value == ".." || strings.ContainsAny(value, "/\\?#") {
		return fmt.Errorf("invalid %s %q", name, value)
	}
	return nil
}

// rejectArgs reports arguments that were refused before any request was sent.
func (p *OnlineSimProvider) rejectArgs(ctx context.Context, op string, err error) error {
	providerRequestsCounter.WithLabelValues(providerName, op, "invalid_argument").Inc()
	p.logger.WarnContext(ctx, "Rejected provider request", "operation", op, "error", err)
	return domain.NewProtocolError(op, err)
}

// get performs a GET on the free numbers API below pathElems, decodes into out
// and checks the response envelope. Unavailable errors are retried with
// exponential backoff; protocol errors are returned immediately. Failures are
// counted here, successes by the caller once the payload has been checked.
func (p *OnlineSimProvider) get(ctx context.Context, op string, out any, env *onlineSimEnvelope, pathElems ...string) error {
	timer := prometheus.NewTimer(providerRequestDurationHist.WithLabelValues(providerName, op))
	defer timer.ObserveDuration()

	endpoint, err := p.endpoint(pathElems...)
	if err != nil {
		return domain.NewProtocolError(op, err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryInit
	b.MaxInterval = 5 * p.retryInit

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if attempt > 1 {
			providerRetriesCounter.WithLabelValues(providerName, op).Inc()
		}
		err := p.doGet(ctx, op, endpoint, out, env)
		if err != nil && !errors.Is(err, domain.ErrProviderUnavailable) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.maxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			p.logger.WarnContext(ctx, "Provider request failed, retrying", "operation", op, "error", err, "retry_in", next)
		}),
	)

	if err == nil {
		return nil
	}

	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		// Context cancellation surfaced by the retry loop itself.
		pe = domain.NewUnavailableError(op, 0, err)
		err = pe
	}
	providerRequestsCounter.WithLabelValues(providerName, op, pe.Kind.String()).Inc()
	p.logger.WarnContext(ctx, "Provider request failed", "operation", op, "attempts", attempt, "error", err)
	return err
}

func (p *OnlineSimProvider) doGet(ctx context.Context, op, endpoint string, out any, env *onlineSimEnvelope) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return domain.NewUnavailableError(op, 0, fmt.Errorf("rate limiter: %w", err))
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.NewProtocolError(op, fmt.Errorf("failed to create HTTP request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")

	p.logger.DebugContext(ctx, "Sending HTTP request to OnlineSim", "operation", op, "url", redact(endpoint))

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return domain.NewUnavailableError(op, 0, fmt.Errorf("failed to send request: %w", err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return domain.NewUnavailableError(op, httpResp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}
	p.logger.DebugContext(ctx, "Received HTTP response from OnlineSim", "operation", op, "status_code", httpResp.StatusCode, "bytes", len(body))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		errMsg := fmt.Sprintf("unexpected status %d", httpResp.StatusCode)
		if len(body) > 0 && len(body) < 200 {
			errMsg += ", raw_body: " + string(body)
		}
		return domain.NewUnavailableError(op, httpResp.StatusCode, errors.New(errMsg))
	}

	*env = onlineSimEnvelope{}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewProtocolError(op, fmt.Errorf("failed to decode response: %w", err))
	}
	if !env.ok() {
		return domain.NewProtocolError(op, fmt.Errorf("response code %q", env.Response.String()))
	}
	return nil
}

func (p *OnlineSimProvider) endpoint(pathElems ...string) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	u = u.JoinPath(append([]string{freeNumbersPath}, pathElems...)...)

	q := u.Query()
	q.Set("lang", p.lang)
	if p.apiKey != "" {
		q.Set("apikey", p.apiKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redact hides the api key in logged URLs.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// OnlineSimConfigFrom maps the service configuration onto OnlineSimConfig.
func OnlineSimConfigFrom(cfg *config.Config) OnlineSimConfig {
	return OnlineSimConfig{
		BaseURL:              cfg.OnlineSimBaseURL,
		APIKey:               cfg.OnlineSimAPIKey,
		Lang:                 cfg.OnlineSimLang,
		Timeout:              cfg.ProviderTimeout(),
		MaxRetries:           cfg.ProviderMaxRetries,
		RetryInitialInterval: cfg.ProviderRetryInitialInterval(),
		RateLimitRPS:         cfg.ProviderRateLimitRPS,
		RateLimitBurst:       cfg.ProviderRateLimitBurst,
	}
}
