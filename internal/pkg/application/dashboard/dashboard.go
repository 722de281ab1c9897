package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/application/countdown"
	"github.com/diwise/security-dashboard/internal/pkg/application/events"
	"github.com/diwise/security-dashboard/internal/pkg/application/peoplecounter"
	"github.com/diwise/security-dashboard/internal/pkg/application/timefmt"
	"github.com/diwise/security-dashboard/internal/pkg/application/webevents"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/clock"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/logging"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/mockdata"
	"github.com/diwise/security-dashboard/pkg/types"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrAlertNotFound   = errors.New("alert not found")
	ErrNotAnomalous    = errors.New("event is not an anomaly")
	ErrAlreadyReported = errors.New("event already reported")
	ErrNotCounting     = errors.New("no counting session in progress")
)

const (
	ActionSelectEvent   string = "select_event"
	ActionSelectSession string = "select_session"
	ActionSetMode       string = "set_mode"
	ActionSetView       string = "set_view"
	ActionAcknowledge   string = "acknowledge_alert"
	ActionStartCounting string = "start_counting"
	ActionDetection     string = "detection"
	ActionStopCounting  string = "stop_counting"
	ActionReport        string = "report_event"
)

const (
	StopCountingControl string = "stopCounting"
	ReportControl       string = "report"
)

const notifyTimeout = 10 * time.Second

// Recorder is told about every action that changed the dashboard.
type Recorder interface {
	ActionPerformed(action string)
}

type Option func(*Dashboard)

func WithCountdownSeconds(seconds int) Option {
	return func(d *Dashboard) {
		d.countdownSeconds = seconds
	}
}

func WithEventSender(sender events.EventSender) Option {
	return func(d *Dashboard) {
		d.sender = sender
	}
}

func WithWebEvents(we webevents.WebEvents) Option {
	return func(d *Dashboard) {
		d.web = we
	}
}

func WithRecorder(r Recorder) Option {
	return func(d *Dashboard) {
		d.recorder = r
	}
}

// WithFormatter sets the formatter used for the clock text pushed to browsers.
func WithFormatter(f timefmt.Formatter) Option {
	return func(d *Dashboard) {
		d.formatter = f
	}
}

type state struct {
	now time.Time

	events          []types.SecurityEvent
	selectedEventID string

	sessions          []types.PersonCount
	selectedSessionID string

	mode types.Mode
	view types.SecurityView

	alerts  []types.SecurityAlert
	status  types.SystemStatus
	cameras []types.CameraFeed

	reportTarget string
	reported     map[string]bool
}

// Dashboard owns the dashboard state. All changes go through its transition
// methods, which are applied one at a time.
type Dashboard struct {
	mu sync.Mutex

	clock    clock.Clock
	provider mockdata.Provider

	counter         *peoplecounter.Counter
	stopCountdown   *countdown.Countdown
	reportCountdown *countdown.Countdown

	countdownSeconds int
	formatter        timefmt.Formatter

	sender   events.EventSender
	web      webevents.WebEvents
	recorder Recorder

	ctx       context.Context
	started   bool
	clockTask clock.Task

	// notifications still being delivered
	sending sync.WaitGroup

	state state
}

func New(c clock.Clock, provider mockdata.Provider, opts ...Option) *Dashboard {
	d := &Dashboard{
		clock:            c,
		provider:         provider,
		counter:          peoplecounter.New(c, mockdata.MainEntrance),
		countdownSeconds: countdown.DefaultSeconds,
		formatter:        timefmt.New(timefmt.EnglishUS, time.Local),
		ctx:              context.Background(),
		state: state{
			mode:     types.ModeSecurity,
			view:     types.ViewMonitoring,
			reported: map[string]bool{},
		},
	}

	for _, opt := range opts {
		opt(d)
	}

	d.stopCountdown = countdown.New(c, d.confirmStopCounting,
		countdown.WithSeconds(d.countdownSeconds),
		countdown.OnTick(d.countdownChanged(StopCountingControl)),
	)
	d.stopCountdown.SetDisabled(true)

	d.reportCountdown = countdown.New(c, d.confirmReport,
		countdown.WithSeconds(d.countdownSeconds),
		countdown.OnTick(d.countdownChanged(ReportControl)),
	)

	return d
}

// Start loads the mock data once, selects the first anomaly and starts the
// one second clock.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}

	d.ctx = ctx
	d.state.now = d.clock.Now()
	d.state.events = d.provider.GenerateEvents()
	d.state.alerts = d.provider.GenerateAlerts()
	d.state.status = d.provider.GetStatus()
	d.state.cameras = d.provider.CameraFeeds()

	if first, ok := lo.Find(d.state.events, func(e types.SecurityEvent) bool { return e.IsAnomaly }); ok {
		d.state.selectedEventID = first.ID
	}

	d.clockTask = d.clock.Every(time.Second, d.Tick)
	d.started = true

	logger := logging.GetLoggerFromContext(ctx)
	logger.Info().Msgf("dashboard started with %d events and %d alerts", len(d.state.events), len(d.state.alerts))

	return nil
}

// Stop releases the clock and both countdowns. Countdowns in progress are
// dropped without confirming.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	if d.clockTask != nil {
		d.clockTask.Stop()
		d.clockTask = nil
	}
	d.started = false
	d.mu.Unlock()

	d.stopCountdown.Close()
	d.reportCountdown.Close()

	d.sending.Wait()
}

func (d *Dashboard) Tick() {
	d.mu.Lock()
	d.state.now = d.clock.Now()
	now := d.state.now
	d.mu.Unlock()

	d.publish(webevents.Clock, struct {
		Time time.Time `json:"time"`
		Text string    `json:"text"`
	}{now, d.formatter.Clock(now)})
}

func (d *Dashboard) SelectEvent(ctx context.Context, eventID string) (types.SecurityEvent, error) {
	d.mu.Lock()

	event, ok := lo.Find(d.state.events, func(e types.SecurityEvent) bool { return e.ID == eventID })
	if !ok {
		d.mu.Unlock()
		return types.SecurityEvent{}, fmt.Errorf("%s: %w", eventID, ErrEventNotFound)
	}

	changed := d.state.selectedEventID != eventID
	d.state.selectedEventID = eventID
	d.mu.Unlock()

	if changed {
		d.reportCountdown.Close()
	}

	d.performed(ctx, ActionSelectEvent, webevents.StateChanged)

	return event, nil
}

func (d *Dashboard) SelectSession(ctx context.Context, sessionID string) (types.PersonCount, error) {
	d.mu.Lock()

	session, ok := lo.Find(d.state.sessions, func(s types.PersonCount) bool { return s.ID == sessionID })
	if !ok {
		d.mu.Unlock()
		return types.PersonCount{}, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
	}

	d.state.selectedSessionID = sessionID
	d.mu.Unlock()

	d.performed(ctx, ActionSelectSession, webevents.StateChanged)

	return cloneSession(session), nil
}

// SetMode switches between security and counting. Leaving counting mode drops
// a pending stop confirmation, but a running session keeps counting.
func (d *Dashboard) SetMode(ctx context.Context, mode types.Mode) {
	d.mu.Lock()
	previous := d.state.mode
	d.state.mode = mode
	d.mu.Unlock()

	if previous == types.ModeCounting && mode != types.ModeCounting {
		d.stopCountdown.Close()
	}
	if previous == types.ModeSecurity && mode != types.ModeSecurity {
		d.reportCountdown.Close()
	}

	d.performed(ctx, ActionSetMode, webevents.StateChanged)
}

func (d *Dashboard) SetView(ctx context.Context, view types.SecurityView) {
	d.mu.Lock()
	previous := d.state.view
	d.state.view = view
	d.mu.Unlock()

	if previous == types.ViewMonitoring && view != types.ViewMonitoring {
		d.reportCountdown.Close()
	}

	d.performed(ctx, ActionSetView, webevents.StateChanged)
}

// AcknowledgeAlert marks a single alert as acknowledged. Acknowledging an
// alert twice has no further effect.
func (d *Dashboard) AcknowledgeAlert(ctx context.Context, alertID string) (types.SecurityAlert, error) {
	d.mu.Lock()

	idx := slices.IndexFunc(d.state.alerts, func(a types.SecurityAlert) bool { return a.ID == alertID })
	if idx < 0 {
		d.mu.Unlock()
		return types.SecurityAlert{}, fmt.Errorf("%s: %w", alertID, ErrAlertNotFound)
	}

	alreadyAcknowledged := d.state.alerts[idx].Acknowledged
	d.state.alerts[idx].Acknowledged = true
	alert := d.state.alerts[idx]
	now := d.state.now
	d.mu.Unlock()

	if alreadyAcknowledged {
		return alert, nil
	}

	d.performed(ctx, ActionAcknowledge, webevents.AlertAcknowledged)
	d.notify(ctx, events.Message{
		Type:      events.AlertAcknowledged,
		ID:        alert.ID,
		Timestamp: now,
		Data:      alert,
	})

	return alert, nil
}

// StartCounting begins a counting session. Starting while a session is in
// progress keeps the running one.
func (d *Dashboard) StartCounting(ctx context.Context) peoplecounter.Status {
	d.mu.Lock()
	status, started := d.counter.Start()
	d.stopCountdown.SetDisabled(false)
	d.mu.Unlock()

	if started {
		d.performed(ctx, ActionStartCounting, webevents.CountStarted)
	}

	return status
}

func (d *Dashboard) RecordDetection(ctx context.Context) (peoplecounter.Status, error) {
	d.mu.Lock()
	status, ok := d.counter.Increment()
	d.mu.Unlock()

	if !ok {
		return status, ErrNotCounting
	}

	d.performed(ctx, ActionDetection, webevents.PersonDetected)

	return status, nil
}

// RequestStopCounting arms the stop confirmation, or cancels it if it is
// already counting down. The session is recorded when the countdown expires.
func (d *Dashboard) RequestStopCounting(ctx context.Context) (countdown.Status, error) {
	d.mu.Lock()
	counting := d.counter.Snapshot().Counting
	d.mu.Unlock()

	if !counting {
		return d.stopCountdown.Status(), ErrNotCounting
	}

	status := d.stopCountdown.Activate()
	if status.Disabled {
		return status, ErrNotCounting
	}

	return status, nil
}

// RequestReport arms the report confirmation for an anomalous event, or
// cancels it if it is already counting down for that event.
func (d *Dashboard) RequestReport(ctx context.Context, eventID string) (countdown.Status, error) {
	d.mu.Lock()

	event, ok := lo.Find(d.state.events, func(e types.SecurityEvent) bool { return e.ID == eventID })
	if !ok {
		d.mu.Unlock()
		return d.reportCountdown.Status(), fmt.Errorf("%s: %w", eventID, ErrEventNotFound)
	}
	if !event.IsAnomaly {
		d.mu.Unlock()
		return d.reportCountdown.Status(), fmt.Errorf("%s: %w", eventID, ErrNotAnomalous)
	}
	if d.state.reported[eventID] {
		d.mu.Unlock()
		return d.reportCountdown.Status(), fmt.Errorf("%s: %w", eventID, ErrAlreadyReported)
	}

	retarget := d.state.reportTarget != eventID
	d.state.reportTarget = eventID
	d.mu.Unlock()

	if retarget {
		d.reportCountdown.Close()
	}

	return d.reportCountdown.Activate(), nil
}

func (d *Dashboard) confirmStopCounting() {
	d.mu.Lock()
	session, ok := d.counter.Stop()
	if ok {
		d.state.sessions = append([]types.PersonCount{session}, d.state.sessions...)
		d.state.selectedSessionID = session.ID
	}
	d.stopCountdown.SetDisabled(true)
	ctx := d.ctx
	d.mu.Unlock()

	if !ok {
		return
	}

	logger := logging.GetLoggerFromContext(ctx)
	logger.Info().Str("session_id", session.ID).Msgf("counting session completed with %d people", session.Count)

	d.performed(ctx, ActionStopCounting, webevents.CountCompleted)
	d.notify(ctx, events.Message{
		Type:      events.CountCompleted,
		ID:        session.ID,
		Timestamp: session.Timestamp,
		Data:      session,
	})
}

func (d *Dashboard) confirmReport() {
	d.mu.Lock()

	eventID := d.state.reportTarget
	event, ok := lo.Find(d.state.events, func(e types.SecurityEvent) bool { return e.ID == eventID })
	if !ok || d.state.reported[eventID] {
		d.mu.Unlock()
		return
	}

	now := d.clock.Now()
	alert := types.SecurityAlert{
		ID:        "report-" + event.ID,
		Timestamp: now,
		Title:     "Event reported",
		Message:   fmt.Sprintf("%s at %s was reported for follow-up", event.Description, event.Location),
		Type:      types.AlertDanger,
	}

	d.state.reported[eventID] = true
	d.state.reportTarget = ""
	d.state.alerts = append([]types.SecurityAlert{alert}, d.state.alerts...)
	ctx := d.ctx
	d.mu.Unlock()

	logger := logging.GetLoggerFromContext(ctx)
	logger.Info().Str("event_id", eventID).Msg("event reported")

	d.performed(ctx, ActionReport, webevents.EventReported)
	d.notify(ctx, events.Message{
		Type:      events.EventReported,
		ID:        event.ID,
		Timestamp: now,
		Data: struct {
			Event types.SecurityEvent `json:"event"`
			Alert types.SecurityAlert `json:"alert"`
		}{event, alert},
	})
}

func (d *Dashboard) countdownChanged(control string) func(countdown.Status) {
	return func(s countdown.Status) {
		d.publish(webevents.Countdown, struct {
			Control string `json:"control"`
			countdown.Status
		}{control, s})
	}
}

func (d *Dashboard) performed(ctx context.Context, action, webevent string) {
	if d.recorder != nil {
		d.recorder.ActionPerformed(action)
	}

	logger := logging.GetLoggerFromContext(ctx)
	logger.Debug().Str("action", action).Msg("dashboard updated")

	d.publish(webevent, d.Snapshot())
}

func (d *Dashboard) publish(event string, data any) {
	if d.web == nil {
		return
	}

	if err := d.web.Publish(event, data); err != nil {
		logger := d.logger()
		logger.Error().Err(err).Msgf("failed to publish %s", event)
	}
}

func (d *Dashboard) notify(ctx context.Context, message events.Message) {
	if d.sender == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)

	d.sending.Add(1)
	go func() {
		defer d.sending.Done()
		defer cancel()

		if err := d.sender.Send(ctx, message); err != nil {
			logger := logging.GetLoggerFromContext(ctx)
			logger.Error().Err(err).Msgf("failed to send %s notification", message.Type)
		}
	}()
}

func (d *Dashboard) logger() zerolog.Logger {
	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()
	return logging.GetLoggerFromContext(ctx)
}

// Service is the set of dashboard operations offered to the presentation layer.
type Service interface {
	Snapshot() Snapshot
	SelectEvent(ctx context.Context, eventID string) (types.SecurityEvent, error)
	SelectSession(ctx context.Context, sessionID string) (types.PersonCount, error)
	SetMode(ctx context.Context, mode types.Mode)
	SetView(ctx context.Context, view types.SecurityView)
	AcknowledgeAlert(ctx context.Context, alertID string) (types.SecurityAlert, error)
	StartCounting(ctx context.Context) peoplecounter.Status
	RecordDetection(ctx context.Context) (peoplecounter.Status, error)
	RequestStopCounting(ctx context.Context) (countdown.Status, error)
	RequestReport(ctx context.Context, eventID string) (countdown.Status, error)
}

var _ Service = (*Dashboard)(nil)
