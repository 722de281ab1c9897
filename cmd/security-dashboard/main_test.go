package main

import (
	"context"
	"flag"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/application/dashboard"
	"github.com/diwise/security-dashboard/internal/pkg/application/events"
	"github.com/diwise/security-dashboard/internal/pkg/application/timefmt"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/clock"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/config"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/metrics"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/mockdata"
	"github.com/diwise/security-dashboard/internal/pkg/presentation/gui"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestThatServeShutsDownWhenTheContextIsCancelled(t *testing.T) {
	is := is.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	is.NoErr(serve(ctx, server, zerolog.Nop()))
}

func TestThatServeReturnsListenErrors(t *testing.T) {
	is := is.New(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	is.NoErr(err)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := &http.Server{Addr: l.Addr().String(), Handler: http.NotFoundHandler()}

	is.True(serve(ctx, server, zerolog.Nop()) != nil)
}

func TestSetup(t *testing.T) {
	is, server, _ := setupTest(t)

	resp, _ := testRequest(is, server, http.MethodGet, "/health")

	is.Equal(resp.StatusCode, http.StatusNoContent)
}

func TestThatTheDashboardPageIsServed(t *testing.T) {
	is, server, _ := setupTest(t)

	resp, body := testRequest(is, server, http.MethodGet, "/")

	is.Equal(resp.StatusCode, http.StatusOK)
	is.True(strings.Contains(body, "Security Dashboard"))
}

func TestThatMetricsReflectTheDashboard(t *testing.T) {
	is, server, app := setupTest(t)

	_, err := app.AcknowledgeAlert(context.Background(), "alert-1")
	is.NoErr(err)

	_, body := testRequest(is, server, http.MethodGet, "/metrics")

	is.True(strings.Contains(body, `security_dashboard_cameras{state="online"} 4`))
	is.True(strings.Contains(body, `security_dashboard_alerts{state="unacknowledged"} 2`))
	is.True(strings.Contains(body, `security_dashboard_actions_total{action="acknowledge_alert"} 1`))
}

func TestThatFlagsOverrideConfiguration(t *testing.T) {
	is := is.New(t)

	cfg, err := config.LoadFrom(map[string]string{"SERVICE_PORT": "9000"})
	is.NoErr(err)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	err = parseFlags(fs, []string{"-port", "9100", "-countdown", "5", "-locale", "zh-TW"}, cfg)
	is.NoErr(err)

	is.Equal(cfg.ServicePort, "9100")
	is.Equal(cfg.CountdownSeconds, 5)
	is.Equal(cfg.Locale, "zh-TW")

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	is.True(parseFlags(fs, []string{"-seed", "minus-one"}, cfg) != nil)
}

func TestLoadNotifications(t *testing.T) {
	is := is.New(t)

	cfg, err := loadNotifications("")
	is.NoErr(err)
	is.True(cfg == nil)

	path := filepath.Join(t.TempDir(), "notifications.yaml")
	is.NoErr(os.WriteFile(path, []byte(notificationsYaml), 0o600))

	cfg, err = loadNotifications(path)
	is.NoErr(err)
	is.Equal(cfg.Notifications[0].Type, events.CountCompleted)

	_, err = loadNotifications(filepath.Join(t.TempDir(), "missing.yaml"))
	is.True(err != nil)
}

func setupTest(t *testing.T) (*is.I, *httptest.Server, *dashboard.Dashboard) {
	is := is.New(t)

	c := clock.NewManual(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	var app *dashboard.Dashboard
	m := metrics.New(func() metrics.Summary { return summarize(app.Snapshot()) })

	app = dashboard.New(c, mockdata.New(c, 1), dashboard.WithRecorder(m))
	is.NoErr(app.Start(context.Background()))
	t.Cleanup(app.Stop)

	locale := gui.Locale{Tag: timefmt.EnglishUS, Location: time.UTC}
	r := setupRouter(zerolog.Nop(), app, locale, nil, m.Handler())

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return is, server, app
}

func testRequest(is *is.I, ts *httptest.Server, method, path string) (*http.Response, string) {
	req, err := http.NewRequest(method, ts.URL+path, nil)
	is.NoErr(err)

	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err)
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	return resp, string(respBody)
}

const notificationsYaml string = `
notifications:
  - id: counts
    name: Completed people counts
    type: security.countCompleted
    subscribers:
    - endpoint: http://api-notification:8990
`
