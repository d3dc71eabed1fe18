package upstream_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/andrewwphillips/restaurantql/internal/config"
	"github.com/andrewwphillips/restaurantql/internal/upstream"
)

const apiKey = "test-key"

// newServer returns a client talking to a test server that replies to each endpoint
// (path) with the given status and body.  Requests are recorded in *got.
func newServer(t *testing.T, replies map[string]struct {
	status int
	body   string
}, got *[]*http.Request) (*upstream.Client, *observer.ObservedLogs) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			*got = append(*got, r)
		}
		if r.Header.Get("X-Api-Key") != apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "Missing API Key."}`))
			return
		}
		reply, ok := replies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(reply.status)
		w.Write([]byte(reply.body))
	}))
	t.Cleanup(srv.Close)

	core, logs := observer.New(zapcore.WarnLevel)
	c := upstream.New(config.UpstreamConfig{
		BaseURL: srv.URL + "/v1",
		APIKey:  apiKey,
		Timeout: 2 * time.Second,
	}, zap.New(core))
	return c, logs
}

type reply = struct {
	status int
	body   string
}

func TestValidatePhone(t *testing.T) {
	var requests []*http.Request
	c, _ := newServer(t, map[string]reply{
		"/v1/validatephone": {200, `{"is_valid": true, "is_formatted_properly": true, "country": "Spain", "location": "Spain"}`},
	}, &requests)

	r, err := c.ValidatePhone(context.Background(), "+34911234567")
	require.NoError(t, err)
	assert.Equal(t, upstream.PhoneResult{Valid: true, Country: "Spain"}, r)

	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodGet, requests[0].Method)
	assert.Equal(t, "+34911234567", requests[0].URL.Query().Get("number"))
}

func TestValidatePhoneInvalid(t *testing.T) {
	c, _ := newServer(t, map[string]reply{
		"/v1/validatephone": {200, `{"is_valid": false, "country": ""}`},
	}, nil)
	r, err := c.ValidatePhone(context.Background(), "+1000")
	require.NoError(t, err)
	assert.False(t, r.Valid)
}

func TestResolveCountry(t *testing.T) {
	var requests []*http.Request
	c, _ := newServer(t, map[string]reply{
		"/v1/country": {200, `[{"name": "Spain", "capital": "Madrid", "iso2": "ES", "population": 46754}]`},
	}, &requests)

	country, err := c.ResolveCountry(context.Background(), "spain")
	require.NoError(t, err)
	assert.Equal(t, upstream.Country{Name: "Spain", Capital: "Madrid", ISO2: "ES"}, country)
	assert.Equal(t, "spain", requests[0].URL.Query().Get("name"))
}

func TestNoResult(t *testing.T) {
	c, _ := newServer(t, map[string]reply{
		"/v1/country": {200, `[]`},
		"/v1/city":    {200, `[]`},
	}, nil)

	_, err := c.ResolveCountry(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, upstream.ErrNoResult)
	assert.NotErrorIs(t, err, upstream.ErrUpstream)

	_, err = c.GeocodeCity(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, upstream.ErrNoResult)
}

func TestGeocodeAndWeather(t *testing.T) {
	var requests []*http.Request
	c, _ := newServer(t, map[string]reply{
		"/v1/city":      {200, `[{"name": "Madrid", "latitude": 40.4167, "longitude": -3.7033, "country": "ES"}]`},
		"/v1/weather":   {200, `{"temp": 21.5, "humidity": 40}`},
		"/v1/worldtime": {200, `{"timezone": "Europe/Madrid", "datetime": "2024-05-01 09:07:45", "hour": "09", "minute": "07"}`},
	}, &requests)
	ctx := context.Background()

	at, err := c.GeocodeCity(ctx, "Madrid")
	require.NoError(t, err)
	assert.Equal(t, upstream.Coordinates{Lat: 40.4167, Lon: -3.7033}, at)

	temp, err := c.FetchTemperature(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, 21.5, temp)

	hhmm, err := c.FetchLocalTime(ctx, at)
	require.NoError(t, err)
	assert.Equal(t, "09:07", hhmm)

	require.Len(t, requests, 3)
	assert.Equal(t, "40.4167", requests[1].URL.Query().Get("lat"))
	assert.Equal(t, "-3.7033", requests[1].URL.Query().Get("lon"))
}

func TestLocalTimeFormats(t *testing.T) {
	tests := map[string]struct {
		body     string
		expected string // empty if an error is expected
	}{
		"numbers":       {`{"hour": 7, "minute": 5}`, "07:05"},
		"strings":       {`{"hour": "23", "minute": "59"}`, "23:59"},
		"datetime_only": {`{"datetime": "2024-05-01 18:30:00"}`, "18:30"},
		"iso_datetime":  {`{"datetime": "2024-05-01T06:45:00+02:00"}`, "06:45"},
		"missing":       {`{"timezone": "Europe/Madrid"}`, ""},
		"bad_datetime":  {`{"datetime": "yesterday at noon"}`, ""},
		"bad_hour":      {`{"hour": "seven", "minute": "05"}`, ""},
	}
	for name, tt := range tests {
		c, _ := newServer(t, map[string]reply{"/v1/worldtime": {200, tt.body}}, nil)
		got, err := c.FetchLocalTime(context.Background(), upstream.Coordinates{Lat: 1, Lon: 2})
		if tt.expected == "" {
			assert.ErrorIs(t, err, upstream.ErrUpstream, name)
			continue
		}
		require.NoError(t, err, name)
		assert.Equal(t, tt.expected, got, name)
	}
}

func TestMissingTemperature(t *testing.T) {
	c, logs := newServer(t, map[string]reply{"/v1/weather": {200, `{"humidity": 40}`}}, nil)
	_, err := c.FetchTemperature(context.Background(), upstream.Coordinates{})
	assert.ErrorIs(t, err, upstream.ErrUpstream)
	assert.Equal(t, 1, logs.FilterMessage("upstream response missing field").Len())
}

func TestStatusErrors(t *testing.T) {
	c, logs := newServer(t, map[string]reply{
		"/v1/validatephone": {500, `{"error": "internal stack trace with secrets"}`},
		"/v1/weather":       {503, `upstream down`},
		"/v1/city":          {400, `{"error": "bad name"}`},
	}, nil)
	ctx := context.Background()

	_, err := c.ValidatePhone(ctx, "+34911234567")
	var statusErr *upstream.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 500, statusErr.Status)
	assert.Equal(t, upstream.EndpointPhone, statusErr.Endpoint)
	assert.ErrorIs(t, err, upstream.ErrUpstream)
	assert.NotContains(t, err.Error(), "secrets", "body must not leak into the error")

	_, err = c.FetchTemperature(ctx, upstream.Coordinates{})
	assert.ErrorIs(t, err, upstream.ErrUpstream)

	_, err = c.GeocodeCity(ctx, "???")
	assert.ErrorIs(t, err, upstream.ErrUpstream)

	// the bodies are logged instead
	logged := logs.FilterMessage("upstream returned error status").All()
	require.Len(t, logged, 3)
	assert.Equal(t, `{"error": "internal stack trace with secrets"}`, logged[0].ContextMap()["body"])
}

func TestWrongAPIKey(t *testing.T) {
	c, _ := newServer(t, map[string]reply{"/v1/weather": {200, `{"temp": 1}`}}, nil)
	_, err := c.FetchTemperature(context.Background(), upstream.Coordinates{})
	require.NoError(t, err)

	var requests []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	wrong := upstream.New(config.UpstreamConfig{BaseURL: srv.URL, APIKey: "wrong", Timeout: time.Second}, zap.NewNop())
	_, err = wrong.FetchTemperature(context.Background(), upstream.Coordinates{})
	var statusErr *upstream.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
	require.Len(t, requests, 1)
	assert.Equal(t, "wrong", requests[0].Header.Get("X-Api-Key"))
}

func TestDecodeError(t *testing.T) {
	c, _ := newServer(t, map[string]reply{"/v1/weather": {200, `<html>oops</html>`}}, nil)
	_, err := c.FetchTemperature(context.Background(), upstream.Coordinates{})
	assert.ErrorIs(t, err, upstream.ErrUpstream)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := upstream.New(config.UpstreamConfig{BaseURL: srv.URL, APIKey: apiKey, Timeout: 50 * time.Millisecond}, zap.NewNop())
	start := time.Now()
	_, err := c.FetchTemperature(context.Background(), upstream.Coordinates{})
	assert.ErrorIs(t, err, upstream.ErrUpstream)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"temp": 3}`))
	}))
	defer srv.Close()

	c := upstream.New(config.UpstreamConfig{BaseURL: srv.URL, APIKey: apiKey, Timeout: 5 * time.Second, RetryMax: 1}, zap.NewNop())
	temp, err := c.FetchTemperature(context.Background(), upstream.Coordinates{})
	require.NoError(t, err)
	assert.Equal(t, 3.0, temp)
	assert.Equal(t, 2, calls)
}
