package gui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/application/dashboard"
	"github.com/diwise/security-dashboard/internal/pkg/application/timefmt"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/clock"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/mockdata"
	"github.com/diwise/security-dashboard/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

func TestThatTheDashboardIsRendered(t *testing.T) {
	is, router, _ := setupTest(t, nil)

	resp, body := testRequest(router, http.MethodGet, "/", nil)

	is.Equal(resp.Code, http.StatusOK)
	is.True(strings.Contains(body, "Security Dashboard"))
	is.True(strings.Contains(body, "4 / 5 cameras online"))
	is.True(strings.Contains(body, "Report this event"))
}

func TestThatActionsRedirectBackToTheDashboard(t *testing.T) {
	is, router, app := setupTest(t, nil)

	resp, _ := testRequest(router, http.MethodPost, "/gui/view/alerts?lang=zh-TW", nil)
	is.Equal(resp.Code, http.StatusSeeOther)
	is.Equal(resp.Header().Get("Location"), "/?lang=zh-TW")
	is.Equal(app.Snapshot().View, types.ViewAlerts)

	_, body := testRequest(router, http.MethodGet, "/", nil)
	is.True(strings.Contains(body, "Needs attention"))
}

func TestThatAcknowledgingFromTheGuiUpdatesTheBadge(t *testing.T) {
	is, router, app := setupTest(t, nil)

	resp, _ := testRequest(router, http.MethodPost, "/gui/alerts/alert-1/acknowledge", nil)
	is.Equal(resp.Code, http.StatusSeeOther)
	is.Equal(app.Snapshot().UnacknowledgedAlerts(), 2)
}

func TestThatInvalidActionsAreRejected(t *testing.T) {
	is, router, _ := setupTest(t, nil)

	resp, _ := testRequest(router, http.MethodPost, "/gui/view/cellar", nil)
	is.Equal(resp.Code, http.StatusBadRequest)

	resp, _ = testRequest(router, http.MethodPost, "/gui/events/past-99/select", nil)
	is.Equal(resp.Code, http.StatusNotFound)

	resp, _ = testRequest(router, http.MethodPost, "/gui/counter/stop", nil)
	is.Equal(resp.Code, http.StatusConflict)
}

func TestThatThePlaceholderIsShownWithoutSelection(t *testing.T) {
	is, router, _ := setupTest(t, func(p mockdata.Provider) mockdata.Provider { return &quietProvider{p} })

	_, body := testRequest(router, http.MethodGet, "/", nil)

	is.True(strings.Contains(body, "Select an event on the timeline"))
}

func TestThatTheLanguageCanBeChosen(t *testing.T) {
	is, router, _ := setupTest(t, nil)

	_, body := testRequest(router, http.MethodGet, "/?lang=zh-TW", nil)
	is.True(strings.Contains(body, `lang="zh-TW"`))
	is.True(strings.Contains(body, "下午"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	is.True(strings.Contains(w.Body.String(), `lang="zh-TW"`))
}

func TestThatTheCounterIsRenderedInCountingMode(t *testing.T) {
	is, router, _ := setupTest(t, nil)

	testRequest(router, http.MethodPost, "/gui/mode/counting", nil)
	testRequest(router, http.MethodPost, "/gui/counter/start", nil)
	testRequest(router, http.MethodPost, "/gui/counter/detections", nil)

	_, body := testRequest(router, http.MethodGet, "/", nil)
	is.True(strings.Contains(body, `<p class="count">1</p>`))
	is.True(strings.Contains(body, "No counting sessions yet."))
}

func TestThatStaticAssetsAreServed(t *testing.T) {
	is, router, _ := setupTest(t, nil)

	resp, body := testRequest(router, http.MethodGet, "/static/dashboard.js", nil)

	is.Equal(resp.Code, http.StatusOK)
	is.True(strings.Contains(body, "EventSource"))
}

func setupTest(t *testing.T, wrap func(mockdata.Provider) mockdata.Provider) (*is.I, *chi.Mux, *dashboard.Dashboard) {
	is := is.New(t)

	c := clock.NewManual(time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC))
	var provider mockdata.Provider = mockdata.New(c, 1)
	if wrap != nil {
		provider = wrap(provider)
	}

	app := dashboard.New(c, provider)
	is.NoErr(app.Start(context.Background()))
	t.Cleanup(app.Stop)

	router := chi.NewRouter()
	RegisterHandlers(zerolog.Nop(), router, Locale{Tag: timefmt.EnglishUS, Location: time.UTC}, app)

	return is, router, app
}

func testRequest(router http.Handler, method, path string, body *strings.Reader) (*httptest.ResponseRecorder, string) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w, w.Body.String()
}

type quietProvider struct {
	mockdata.Provider
}

func (q *quietProvider) GenerateEvents() []types.SecurityEvent {
	return lo.Filter(q.Provider.GenerateEvents(), func(e types.SecurityEvent, _ int) bool { return !e.IsAnomaly })
}
