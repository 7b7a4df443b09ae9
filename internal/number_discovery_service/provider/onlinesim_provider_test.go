package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aradsms/vnumber_services/internal/number_discovery_service/domain"
	"github.com/aradsms/vnumber_services/internal/platform/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, server *httptest.Server, cfg OnlineSimConfig) *OnlineSimProvider {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.BaseURL = server.URL
	if cfg.RetryInitialInterval == 0 {
		cfg.RetryInitialInterval = time.Millisecond
	}
	return NewOnlineSimProvider(logger, cfg, server.Client())
}

func TestOnlineSimProvider_GetName(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewOnlineSimProvider(logger, OnlineSimConfig{}, nil)
	assert.Equal(t, "onlinesim", p.GetName())
}

func TestOnlineSimProvider_ListOnlineCountries_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/free_numbers_content/countries", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		assert.Equal(t, "test-api-key", r.URL.Query().Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"response": "1",
			"counties": [
				{"name": "united_kingdom", "country_code": 44, "online": true},
				{"name": "russia", "country_code": "7", "online": false},
				{"name": "finland", "country_code": 358, "online": true},
				{"name": "finland", "country_code": 358, "online": true}
			]
		}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{APIKey: "test-api-key"})
	countries, err := p.ListOnlineCountries(context.Background())
	require.NoError(t, err)

	require.Len(t, countries, 2)
	assert.Equal(t, domain.Country{ID: "united_kingdom", DisplayName: "United Kingdom", CountryCode: 44}, countries[0])
	assert.Equal(t, domain.Country{ID: "finland", DisplayName: "Finland", CountryCode: 358}, countries[1])
}

func TestOnlineSimProvider_ListOnlineCountries_AcceptsCountriesKeyAndNumericResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("apikey"))
		fmt.Fprint(w, `{"response": 1, "countries": [{"name": "usa", "online": true}]}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{})
	countries, err := p.ListOnlineCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 1)
	assert.Equal(t, "usa", countries[0].ID)
	assert.Equal(t, 0, countries[0].CountryCode)
}

func TestOnlineSimProvider_ListNumbers_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/free_numbers_content/countries/united_kingdom", r.URL.Path)
		fmt.Fprint(w, `{
			"response": "1",
			"numbers": [
				{"data_humans": "3 minutes ago", "full_number": "447911123456"},
				{"data_humans": "1 hour ago", "full_number": "+44 7911 000001"},
				{"data_humans": "broken", "full_number": ""}
			]
		}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{})
	numbers, err := p.ListNumbers(context.Background(), "united_kingdom")
	require.NoError(t, err)

	require.Len(t, numbers, 2)
	assert.Equal(t, domain.NumberCandidate{CountryID: "united_kingdom", Digits: "447911123456", UpdatedAt: "3 minutes ago"}, numbers[0])
	assert.Equal(t, "447911000001", numbers[1].Digits)
}

func TestOnlineSimProvider_ListNumbers_EmptyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": "1", "numbers": []}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{})
	numbers, err := p.ListNumbers(context.Background(), "finland")
	require.NoError(t, err)
	assert.Empty(t, numbers)
}

func TestOnlineSimProvider_FetchInbox_PreservesProviderOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/free_numbers_content/countries/finland/358401234567", r.URL.Path)
		fmt.Fprint(w, `{
			"response": "1",
			"online": true,
			"messages": {"data": [
				{"data_humans": "1 minute ago", "text": "code 1 received from OnlineSIM.io"},
				{"data_humans": "", "created_at": "2024-01-01 10:00:00", "text": "code 2"},
				{"data_humans": "1 day ago", "text": "code 3"}
			]}
		}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{})
	messages, err := p.FetchInbox(context.Background(), "finland", "+358401234567")
	require.NoError(t, err)

	assert.Equal(t, []domain.InboxMessage{
		{Timestamp: "1 minute ago", Text: "code 1"},
		{Timestamp: "2024-01-01 10:00:00", Text: "code 2"},
		{Timestamp: "1 day ago", Text: "code 3"},
	}, messages)
}

func TestOnlineSimProvider_FetchInbox_EmptyInboxIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": "1", "online": true, "messages": {"data": []}}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{})
	messages, err := p.FetchInbox(context.Background(), "finland", "358401234567")
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestOnlineSimProvider_FetchInbox_OfflineNumberIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": "1", "online": false}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{})
	_, err := p.FetchInbox(context.Background(), "finland", "358401234567")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}

func TestOnlineSimProvider_ServerErrorIsRetriedThenUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "maintenance")
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{MaxRetries: 2})
	_, err := p.ListOnlineCountries(context.Background())
	require.Error(t, err)

	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
	var pe *domain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusServiceUnavailable, pe.StatusCode)
	assert.Equal(t, "list_countries", pe.Op)
	assert.Contains(t, err.Error(), "raw_body: maintenance")
	assert.Equal(t, int32(3), calls.Load())
}

func TestOnlineSimProvider_RetryRecoversFromTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"response": "1", "numbers": [{"data_humans": "now", "full_number": "358401234567"}]}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{MaxRetries: 1})
	numbers, err := p.ListNumbers(context.Background(), "finland")
	require.NoError(t, err)
	assert.Len(t, numbers, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOnlineSimProvider_MalformedJSONIsProtocolErrorWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `<html>not json</html>`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{MaxRetries: 3})
	_, err := p.ListNumbers(context.Background(), "finland")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProviderProtocol))
	assert.Equal(t, int32(1), calls.Load())
}

func TestOnlineSimProvider_NonOKResponseCodeIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": "0"}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{})
	_, err := p.FetchInbox(context.Background(), "finland", "358401234567")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProviderProtocol))
}

func TestOnlineSimProvider_PerCallTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := newTestProvider(t, server, OnlineSimConfig{Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := p.ListOnlineCountries(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestOnlineSimProvider_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewOnlineSimProvider(logger, OnlineSimConfig{BaseURL: server.URL, RetryInitialInterval: time.Millisecond}, nil)

	_, err := p.ListOnlineCountries(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}

func TestRedact(t *testing.T) {
	assert.Equal(t,
		"https://onlinesim.io/api?apikey=REDACTED&lang=en",
		redact("https://onlinesim.io/api?apikey=secret&lang=en"))
	assert.Equal(t, "https://onlinesim.io/api?lang=en", redact("https://onlinesim.io/api?lang=en"))
}

func TestOnlineSimConfigFrom(t *testing.T) {
	cfg := &config.Config{
		OnlineSimBaseURL:           "https://example.test",
		OnlineSimAPIKey:            "k",
		OnlineSimLang:              "ru",
		ProviderTimeoutSeconds:     3,
		ProviderMaxRetries:         4,
		ProviderRetryInitialMillis: 150,
		ProviderRateLimitRPS:       2.5,
		ProviderRateLimitBurst:     3,
	}

	assert.Equal(t, OnlineSimConfig{
		BaseURL:              "https://example.test",
		APIKey:               "k",
		Lang:                 "ru",
		Timeout:              3 * time.Second,
		MaxRetries:           4,
		RetryInitialInterval: 150 * time.Millisecond,
		RateLimitRPS:         2.5,
		RateLimitBurst:       3,
	}, OnlineSimConfigFrom(cfg))
}

func TestOnlineSimProvider_InvalidArgumentsAreRejectedWithoutRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"response": "1", "numbers": [{"data_humans": "now", "full_number": "358401234567"}]}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{MaxRetries: 2})

	testCases := []struct {
		name    string
		country string
		number  string
	}{
		{"number without digits", "finland", "abc"},
		{"empty number", "finland", ""},
		{"empty country", "", "358401234567"},
		{"dot country", ".", "358401234567"},
		{"parent country", "..", "447911123456"},
		{"country with slash", "finland/358401234567", "358401234567"},
		{"country with query", "finland?x=1", "358401234567"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.FetchInbox(context.Background(), tc.country, tc.number)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrProviderProtocol))
		})
	}

	for _, country := range []string{"", ".", "..", "a/b"} {
		_, err := p.ListNumbers(context.Background(), country)
		require.Error(t, err, country)
		assert.True(t, errors.Is(err, domain.ErrProviderProtocol))
	}

	assert.Equal(t, int32(0), calls.Load())
}

func TestOnlineSimProvider_OfflineInboxCountedOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": "1", "online": false}`)
	}))
	defer server.Close()

	success := providerRequestsCounter.WithLabelValues(providerName, opFetchInbox, "success")
	offline := providerRequestsCounter.WithLabelValues(providerName, opFetchInbox, "offline")
	successBefore := testutil.ToFloat64(success)
	offlineBefore := testutil.ToFloat64(offline)

	p := newTestProvider(t, server, OnlineSimConfig{})
	_, err := p.FetchInbox(context.Background(), "finland", "358401234567")
	require.Error(t, err)

	assert.Equal(t, successBefore, testutil.ToFloat64(success))
	assert.Equal(t, offlineBefore+1, testutil.ToFloat64(offline))
}

func TestOnlineSimProvider_ListOnlineCountries_ToleratesBadCountryCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"response": "1",
			"counties": [
				{"name": "finland", "country_code": "", "online": true},
				{"name": "usa", "country_code": "n/a", "online": true},
				{"name": "sweden", "country_code": null, "online": true},
				{"name": "united_kingdom", "country_code": "44", "online": true}
			]
		}`)
	}))
	defer server.Close()

	p := newTestProvider(t, server, OnlineSimConfig{})
	countries, err := p.ListOnlineCountries(context.Background())
	require.NoError(t, err)

	require.Len(t, countries, 4)
	assert.Equal(t, 0, countries[0].CountryCode)
	assert.Equal(t, 0, countries[1].CountryCode)
	assert.Equal(t, 0, countries[2].CountryCode)
	assert.Equal(t, 44, countries[3].CountryCode)
}
