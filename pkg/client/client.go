package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/logging"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/tracing"
	"github.com/diwise/security-dashboard/pkg/types"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type DashboardClient interface {
	FindEvent(ctx context.Context, eventID string) (types.SecurityEvent, error)
	Anomalies(ctx context.Context) ([]types.SecurityEvent, error)
	Alerts(ctx context.Context) ([]types.SecurityAlert, error)
	AcknowledgeAlert(ctx context.Context, alertID string) error
	ReportEvent(ctx context.Context, eventID string) (Countdown, error)
	StartCounting(ctx context.Context) (Counter, error)
	RecordDetection(ctx context.Context) (Counter, error)
	StopCounting(ctx context.Context) (Countdown, error)
	Sessions(ctx context.Context) ([]types.PersonCount, error)
}

type Counter struct {
	Counting  bool      `json:"counting"`
	Count     int       `json:"count"`
	StartedAt time.Time `json:"startedAt"`
}

type Countdown struct {
	State     string `json:"state"`
	Remaining int    `json:"remaining"`
	Disabled  bool   `json:"disabled"`
}

type dashboardClient struct {
	url        string
	httpClient http.Client
}

var tracer = otel.Tracer("security-dashboard-client")

func New(dashboardURL string) DashboardClient {
	return &dashboardClient{
		url: strings.TrimSuffix(dashboardURL, "/"),
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (dc *dashboardClient) FindEvent(ctx context.Context, eventID string) (types.SecurityEvent, error) {
	var err error
	ctx, span := tracer.Start(ctx, "find-event")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	event := types.SecurityEvent{}
	err = dc.do(ctx, http.MethodGet, "/api/v0/events/"+url.PathEscape(eventID), http.StatusOK, &event)
	return event, err
}

func (dc *dashboardClient) Anomalies(ctx context.Context) ([]types.SecurityEvent, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-anomalies")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	events := []types.SecurityEvent{}
	err = dc.do(ctx, http.MethodGet, "/api/v0/events?anomalies=true", http.StatusOK, &events)
	return events, err
}

func (dc *dashboardClient) Alerts(ctx context.Context) ([]types.SecurityAlert, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-alerts")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	alerts := []types.SecurityAlert{}
	err = dc.do(ctx, http.MethodGet, "/api/v0/alerts", http.StatusOK, &alerts)
	return alerts, err
}

func (dc *dashboardClient) AcknowledgeAlert(ctx context.Context, alertID string) error {
	var err error
	ctx, span := tracer.Start(ctx, "acknowledge-alert")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	err = dc.do(ctx, http.MethodPatch, "/api/v0/alerts/"+url.PathEscape(alertID), http.StatusNoContent, nil)
	return err
}

func (dc *dashboardClient) ReportEvent(ctx context.Context, eventID string) (Countdown, error) {
	var err error
	ctx, span := tracer.Start(ctx, "report-event")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	status := Countdown{}
	err = dc.do(ctx, http.MethodPost, "/api/v0/events/"+url.PathEscape(eventID)+"/report", http.StatusAccepted, &status)
	return status, err
}

func (dc *dashboardClient) StartCounting(ctx context.Context) (Counter, error) {
	var err error
	ctx, span := tracer.Start(ctx, "start-counting")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	counter := Counter{}
	err = dc.do(ctx, http.MethodPost, "/api/v0/counter/start", http.StatusOK, &counter)
	return counter, err
}

func (dc *dashboardClient) RecordDetection(ctx context.Context) (Counter, error) {
	var err error
	ctx, span := tracer.Start(ctx, "record-detection")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	counter := Counter{}
	err = dc.do(ctx, http.MethodPost, "/api/v0/counter/detections", http.StatusOK, &counter)
	return counter, err
}

func (dc *dashboardClient) StopCounting(ctx context.Context) (Countdown, error) {
	var err error
	ctx, span := tracer.Start(ctx, "stop-counting")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	status := Countdown{}
	err = dc.do(ctx, http.MethodPost, "/api/v0/counter/stop", http.StatusAccepted, &status)
	return status, err
}

func (dc *dashboardClient) Sessions(ctx context.Context) ([]types.PersonCount, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-sessions")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	sessions := []types.PersonCount{}
	err = dc.do(ctx, http.MethodGet, "/api/v0/sessions", http.StatusOK, &sessions)
	return sessions, err
}

func (dc *dashboardClient) do(ctx context.Context, method, path string, expected int, result any) error {
	log := logging.GetLoggerFromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, method, dc.url+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := dc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case expected:
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s %s: %w", method, path, ErrConflict)
	default:
		log.Error().Msgf("request failed with status code %d", resp.StatusCode)
		return fmt.Errorf("%s %s: unexpected status code %d", method, path, resp.StatusCode)
	}

	if result == nil {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err = json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response body: %w", err)
	}

	return nil
}
