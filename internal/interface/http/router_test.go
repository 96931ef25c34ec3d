package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/clima-widget/internal/domain/weather"
	"github.com/yanqian/clima-widget/internal/domain/widget"
	"github.com/yanqian/clima-widget/internal/infra/config"
	apperrors "github.com/yanqian/clima-widget/pkg/errors"
)

func TestRouter_PageIssuesSessionCookie(t *testing.T) {
	server := newRouterUnderTest(t, &stubWeather{}, nil)

	rec := performGet(server, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `id="formulario"`)
	require.Contains(t, rec.Body.String(), `data-phase="idle"`)
	require.NotNil(t, sessionCookie(rec))
}

func TestRouter_FormSubmitRendersResult(t *testing.T) {
	svc := &stubWeather{
		lookupFn: func(ctx context.Context, q weather.Query) (weather.Report, error) {
			require.Equal(t, weather.Query{City: "Madrid", Country: "ES"}, q)
			return madridReport(), nil
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	cookie := sessionCookie(performGet(server, "/", nil))
	rec := performForm(server, "/", url.Values{"city": {"Madrid"}, "country": {"ES"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	page := performGet(server, "/", cookie)
	body := page.Body.String()
	require.Contains(t, body, `data-phase="result"`)
	require.Contains(t, body, "Clima en Madrid")
	require.Contains(t, body, "21.5°C")
	require.Contains(t, body, "Presión: 1015 kPa")
	require.NotContains(t, body, `class="alert`)
	require.NotContains(t, body, `http-equiv="refresh"`)
}

func TestRouter_FormSubmitMissingFieldsShowsAlert(t *testing.T) {
	svc := &stubWeather{}
	server := newRouterUnderTest(t, svc, nil)

	cookie := sessionCookie(performGet(server, "/", nil))
	rec := performForm(server, "/", url.Values{"city": {"Madrid"}, "country": {""}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body := performGet(server, "/", cookie).Body.String()
	require.Contains(t, body, widget.MsgMissingFields)
	require.Equal(t, 1, strings.Count(body, `class="alert`))
	require.Contains(t, body, `http-equiv="refresh"`)
	require.Zero(t, svc.calls)
}

func TestRouter_SessionsAreIsolated(t *testing.T) {
	server := newRouterUnderTest(t, &stubWeather{}, nil)

	first := sessionCookie(performGet(server, "/", nil))
	second := sessionCookie(performGet(server, "/", nil))
	require.NotEqual(t, first.Value, second.Value)

	performForm(server, "/", url.Values{}, first)

	require.Contains(t, performGet(server, "/", first).Body.String(), widget.MsgMissingFields)
	require.NotContains(t, performGet(server, "/", second).Body.String(), widget.MsgMissingFields)
}

func TestRouter_WidgetSubmitNotFound(t *testing.T) {
	svc := &stubWeather{
		lookupFn: func(ctx context.Context, q weather.Query) (weather.Report, error) {
			return weather.Report{}, apperrors.Wrap(apperrors.CodeNotFound, "location not found (cod=404)", nil)
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	rec := performJSON(server, "/api/v1/widget/submit", `{"city":"Atlantis","country":"XX"}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		Started bool        `json:"started"`
		View    widget.View `json:"view"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Started)
	require.Equal(t, widget.PhaseError, body.View.Phase)
	require.Equal(t, widget.ContainerEmpty, body.View.Container)
	require.Equal(t, widget.MsgNotFound, body.View.Alert.Message)

	state := performGet(server, "/api/v1/widget", sessionCookie(rec))
	require.Equal(t, http.StatusOK, state.Code)
	require.Contains(t, state.Body.String(), widget.MsgNotFound)
}

func TestRouter_WidgetSubmitTransportError(t *testing.T) {
	svc := &stubWeather{
		lookupFn: func(ctx context.Context, q weather.Query) (weather.Report, error) {
			return weather.Report{}, apperrors.Wrap(apperrors.CodeTransportError, "weather request failed", errors.New("no such host"))
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	rec := performJSON(server, "/api/v1/widget/submit", `{"city":"Madrid","country":"ES"}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Contains(t, rec.Body.String(), "no such host")
	require.Contains(t, rec.Body.String(), `"container":"loading"`)
}

func TestRouter_LookupSuccess(t *testing.T) {
	svc := &stubWeather{
		lookupFn: func(ctx context.Context, q weather.Query) (weather.Report, error) {
			return madridReport(), nil
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	rec := performJSON(server, "/api/v1/weather", `{"city":"Madrid","country":"ES"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Report weather.Report `json:"report"`
		Lines  []widget.Line  `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, madridReport(), body.Report)
	require.Equal(t, "21.5°C", body.Lines[1].Text)
}

func TestRouter_LookupErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid", apperrors.Wrap(apperrors.CodeInvalidInput, "city and country are required", nil), http.StatusBadRequest, "invalid_request"},
		{"not found", apperrors.Wrap(apperrors.CodeNotFound, "location not found (cod=404)", nil), http.StatusNotFound, "not_found"},
		{"throttled", apperrors.Wrap(apperrors.CodeRateLimited, "rate limit wait canceled", context.DeadlineExceeded), http.StatusTooManyRequests, "rate_limited"},
		{"transport", apperrors.Wrap(apperrors.CodeTransportError, "weather request failed", errors.New("timeout")), http.StatusBadGateway, "weather_unavailable"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubWeather{
				lookupFn: func(ctx context.Context, q weather.Query) (weather.Report, error) {
					return weather.Report{}, tc.err
				},
			}
			rec := performJSON(newRouterUnderTest(t, svc, nil), "/api/v1/weather", `{"city":"x","country":"y"}`, nil)
			require.Equal(t, tc.status, rec.Code)
			errBody := decodeErrorBody(t, rec.Body.Bytes())
			require.Equal(t, tc.code, errBody["error"]["code"])
			require.NotEmpty(t, errBody["error"]["message"])
		})
	}
}

func TestRouter_LookupInvalidJSON(t *testing.T) {
	rec := performJSON(newRouterUnderTest(t, &stubWeather{}, nil), "/api/v1/weather", `{"city":123}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_RateLimit(t *testing.T) {
	server := newRouterUnderTest(t, &stubWeather{}, func(cfg *config.Config) {
		cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	})

	require.Equal(t, http.StatusOK, performGet(server, "/healthz", nil).Code)
	rec := performGet(server, "/healthz", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_CORSDefaultIsPublicWithoutCredentials(t *testing.T) {
	server := newRouterUnderTest(t, &stubWeather{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/widget", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := serve(server, req, nil)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_CORSAllowListGrantsCredentials(t *testing.T) {
	server := newRouterUnderTest(t, &stubWeather{}, func(cfg *config.Config) {
		cfg.HTTP.AllowedOrigins = []string{"https://widget.example"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/widget/submit", nil)
	req.Header.Set("Origin", "https://widget.example")
	rec := serve(server, req, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://widget.example", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/widget", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = serve(server, req, nil)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRefreshAfter(t *testing.T) {
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	h := &Handler{now: func() time.Time { return now }}

	require.Equal(t, 0, h.refreshAfter(widget.View{Container: widget.ContainerResult}))
	require.Equal(t, 1, h.refreshAfter(widget.View{Container: widget.ContainerLoading, Pending: true}))
	require.Equal(t, 0, h.refreshAfter(widget.View{Container: widget.ContainerLoading}))
	require.Equal(t, 1, h.refreshAfter(widget.View{Pending: true, Alert: &widget.AlertView{ExpiresAt: now.Add(2500 * time.Millisecond)}}))
	require.Equal(t, 3, h.refreshAfter(widget.View{Alert: &widget.AlertView{ExpiresAt: now.Add(2500 * time.Millisecond)}}))
	require.Equal(t, 1, h.refreshAfter(widget.View{Alert: &widget.AlertView{ExpiresAt: now.Add(-time.Second)}}))
}

func newRouterUnderTest(t *testing.T, svc weather.Service, mutate func(*config.Config)) *http.Server {
	t.Helper()
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Widget: config.WidgetConfig{
			AlertDuration: 3 * time.Second,
			Overlap:       config.OverlapLastResolved,
			SessionTTL:    time.Minute,
			CookieName:    "clima_session",
		},
	}
	if mutate != nil {
		mutate(cfg)
	}
	logger := newTestLogger()
	registry := widget.NewRegistry(widget.Config{
		AlertDuration: cfg.Widget.AlertDuration,
		Overlap:       cfg.Widget.Overlap,
		SessionTTL:    cfg.Widget.SessionTTL,
	}, svc, syncDispatcher{}, logger)
	return NewRouter(cfg, NewHandler(cfg, svc, registry, logger))
}

func performGet(server *http.Server, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return serve(server, req, cookie)
}

func performForm(server *http.Server, path string, values url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(server, req, cookie)
}

func performJSON(server *http.Server, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(server, req, cookie)
}

func serve(server *http.Server, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "clima_session" {
			return c
		}
	}
	return nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func madridReport() weather.Report {
	return weather.Report{
		StatusCode: weather.StatusOK,
		City:       "Madrid",
		Main: weather.Conditions{
			Temp:      21.5,
			TempMin:   18,
			TempMax:   24.2,
			FeelsLike: 20.9,
			Humidity:  40,
			Pressure:  1015,
		},
	}
}

type stubWeather struct {
	lookupFn func(ctx context.Context, q weather.Query) (weather.Report, error)
	calls    int
}

func (s *stubWeather) Lookup(ctx context.Context, q weather.Query) (weather.Report, error) {
	s.calls++
	if s.lookupFn != nil {
		return s.lookupFn(ctx, q)
	}
	return weather.Report{}, nil
}

type syncDispatcher struct{}

func (syncDispatcher) Dispatch(ctx context.Context, job func(ctx context.Context)) {
	job(ctx)
}
