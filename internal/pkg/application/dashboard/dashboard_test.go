package dashboard

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/application/countdown"
	"github.com/diwise/security-dashboard/internal/pkg/application/events"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/clock"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/mockdata"
	"github.com/diwise/security-dashboard/pkg/types"
	"github.com/matryer/is"
	"github.com/samber/lo"
)

func TestThatTheFirstAnomalyIsSelectedOnStart(t *testing.T) {
	is, d, _, _ := testSetup(t)

	s := d.Snapshot()
	is.Equal(s.SelectedEventID, "past-2")

	selected, ok := s.SelectedEvent()
	is.True(ok)
	is.True(selected.IsAnomaly)
}

func TestThatNothingIsSelectedWithoutAnomalies(t *testing.T) {
	is := is.New(t)
	c := clock.NewManual(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	d := New(c, &quietProvider{Provider: mockdata.New(c, 1)})
	is.NoErr(d.Start(context.Background()))
	defer d.Stop()

	_, ok := d.Snapshot().SelectedEvent()
	is.True(!ok)
	is.Equal(d.Snapshot().SelectedEventID, "")
}

func TestThatAcknowledgingTwiceLeavesOneAcknowledgedAlert(t *testing.T) {
	is, d, _, sender := testSetup(t)
	ctx := context.Background()

	before := d.Snapshot().Alerts

	_, err := d.AcknowledgeAlert(ctx, "alert-2")
	is.NoErr(err)
	_, err = d.AcknowledgeAlert(ctx, "alert-2")
	is.NoErr(err)

	after := d.Snapshot().Alerts
	matching := lo.Filter(after, func(a types.SecurityAlert, _ int) bool { return a.ID == "alert-2" })
	is.Equal(len(matching), 1)
	is.True(matching[0].Acknowledged)

	for i := range before {
		if before[i].ID != "alert-2" {
			is.Equal(before[i], after[i])
		}
	}

	d.sending.Wait()
	is.Equal(sender.count(events.AlertAcknowledged), 1)
	is.Equal(d.Snapshot().UnacknowledgedAlerts(), 2)
}

func TestThatAcknowledgingAnUnknownAlertFails(t *testing.T) {
	is, d, _, _ := testSetup(t)

	_, err := d.AcknowledgeAlert(context.Background(), "alert-42")
	is.True(errors.Is(err, ErrAlertNotFound))
}

func TestThatSelectingAnUnknownEventKeepsTheSelection(t *testing.T) {
	is, d, _, _ := testSetup(t)

	_, err := d.SelectEvent(context.Background(), "past-99")
	is.True(errors.Is(err, ErrEventNotFound))
	is.Equal(d.Snapshot().SelectedEventID, "past-2")

	_, err = d.SelectEvent(context.Background(), "past-15")
	is.NoErr(err)
	is.Equal(d.Snapshot().SelectedEventID, "past-15")
}

func TestThatStoppingAfterTheCountdownRecordsTheSession(t *testing.T) {
	is, d, c, sender := testSetup(t)
	ctx := context.Background()

	d.StartCounting(ctx)
	d.RecordDetection(ctx)
	d.RecordDetection(ctx)

	s, err := d.RequestStopCounting(ctx)
	is.NoErr(err)
	is.Equal(s.State, countdown.Counting)

	c.Advance(2 * time.Second)
	is.Equal(len(d.Snapshot().Sessions), 0)

	c.Advance(time.Second)

	snap := d.Snapshot()
	is.Equal(len(snap.Sessions), 1)
	is.Equal(snap.Sessions[0].Count, 2)
	is.Equal(snap.SelectedSessionID, snap.Sessions[0].ID)
	is.True(!snap.Counter.Counting)
	is.True(snap.StopCountdown.Disabled)
	d.sending.Wait()
	is.Equal(sender.count(events.CountCompleted), 1)
}

func TestThatNewSessionsArePrepended(t *testing.T) {
	is, d, c, _ := testSetup(t)
	ctx := context.Background()

	for range 2 {
		d.StartCounting(ctx)
		d.RequestStopCounting(ctx)
		c.Advance(3 * time.Second)
	}

	sessions := d.Snapshot().Sessions
	is.Equal(len(sessions), 2)
	is.True(sessions[0].Timestamp.After(sessions[1].Timestamp))
}

func TestThatRequestingStopTwiceCancels(t *testing.T) {
	is, d, c, _ := testSetup(t)
	ctx := context.Background()

	d.StartCounting(ctx)
	d.RequestStopCounting(ctx)
	c.Advance(time.Second)

	s, err := d.RequestStopCounting(ctx)
	is.NoErr(err)
	is.Equal(s.State, countdown.Idle)

	c.Advance(5 * time.Second)
	is.Equal(len(d.Snapshot().Sessions), 0)
	is.True(d.Snapshot().Counter.Counting)
}

func TestThatDetectionsRequireARunningSession(t *testing.T) {
	is, d, _, _ := testSetup(t)
	ctx := context.Background()

	_, err := d.RecordDetection(ctx)
	is.True(errors.Is(err, ErrNotCounting))

	_, err = d.RequestStopCounting(ctx)
	is.True(errors.Is(err, ErrNotCounting))
}

func TestThatReportingAnAnomalyRaisesAnAlert(t *testing.T) {
	is, d, c, sender := testSetup(t)
	ctx := context.Background()

	_, err := d.RequestReport(ctx, mockdata.CurrentEventID)
	is.True(errors.Is(err, ErrNotAnomalous))

	_, err = d.RequestReport(ctx, "past-8")
	is.NoErr(err)
	c.Advance(3 * time.Second)

	snap := d.Snapshot()
	is.Equal(snap.Alerts[0].ID, "report-past-8")
	is.Equal(snap.Alerts[0].Type, types.AlertDanger)
	is.True(snap.IsReported("past-8"))
	d.sending.Wait()
	is.Equal(sender.count(events.EventReported), 1)

	_, err = d.RequestReport(ctx, "past-8")
	is.True(errors.Is(err, ErrAlreadyReported))
}

func TestThatChangingSelectionDropsAPendingReport(t *testing.T) {
	is, d, c, _ := testSetup(t)
	ctx := context.Background()

	d.RequestReport(ctx, "past-2")
	c.Advance(time.Second)

	d.SelectEvent(ctx, "past-8")
	c.Advance(5 * time.Second)

	is.Equal(d.Snapshot().ReportCountdown.State, countdown.Idle)
	is.True(!d.Snapshot().IsReported("past-2"))
}

func TestThatModeAndViewCanBeChanged(t *testing.T) {
	is, d, _, _ := testSetup(t)
	ctx := context.Background()

	d.SetMode(ctx, types.ModeCounting)
	d.SetView(ctx, types.ViewStatus)

	s := d.Snapshot()
	is.Equal(s.Mode, types.ModeCounting)
	is.Equal(s.View, types.ViewStatus)
}

func TestThatTheClockAdvancesEverySecond(t *testing.T) {
	is, d, c, _ := testSetup(t)

	start := d.Snapshot().Now
	c.Advance(3 * time.Second)

	is.Equal(d.Snapshot().Now, start.Add(3*time.Second))
}

func TestThatStopReleasesEveryTimer(t *testing.T) {
	is, d, c, _ := testSetup(t)
	ctx := context.Background()

	d.StartCounting(ctx)
	d.RequestStopCounting(ctx)
	d.RequestReport(ctx, "past-2")

	d.Stop()

	is.Equal(c.Pending(), 0)
}

func TestThatSnapshotsAreCopies(t *testing.T) {
	is, d, _, _ := testSetup(t)

	s := d.Snapshot()
	s.Alerts[0].Acknowledged = true
	s.Events[0].Description = "changed"

	fresh := d.Snapshot()
	is.True(!fresh.Alerts[0].Acknowledged)
	is.True(fresh.Events[0].Description != "changed")
}

func TestThatActionsAreRecorded(t *testing.T) {
	is, d, _, _ := testSetup(t)
	r := &recorder{}
	d.recorder = r
	ctx := context.Background()

	d.SetView(ctx, types.ViewAlerts)
	d.AcknowledgeAlert(ctx, "alert-1")

	is.Equal(r.actions, []string{ActionSetView, ActionAcknowledge})
}

func TestThatACountingSessionCanAlwaysBeStopped(t *testing.T) {
	is, d, c, _ := testSetup(t)
	ctx := context.Background()

	d.StartCounting(ctx)
	d.stopCountdown.SetDisabled(true)

	_, err := d.RequestStopCounting(ctx)
	is.True(errors.Is(err, ErrNotCounting))

	status := d.StartCounting(ctx)
	is.True(status.Counting)

	s, err := d.RequestStopCounting(ctx)
	is.NoErr(err)
	is.Equal(s.State, countdown.Counting)

	c.Advance(3 * time.Second)
	is.Equal(len(d.Snapshot().Sessions), 1)
}

func TestThatStoppingDisablesTheStopControlBeforeANewSessionStarts(t *testing.T) {
	is, d, c, _ := testSetup(t)
	ctx := context.Background()

	d.StartCounting(ctx)
	d.RequestStopCounting(ctx)
	c.Advance(3 * time.Second)

	is.True(d.Snapshot().StopCountdown.Disabled)

	d.StartCounting(ctx)
	is.True(!d.Snapshot().StopCountdown.Disabled)

	s, err := d.RequestStopCounting(ctx)
	is.NoErr(err)
	is.Equal(s.State, countdown.Counting)
}

func TestThatASlowSubscriberDoesNotBlockActions(t *testing.T) {
	is := is.New(t)
	c := clock.NewManual(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	sender := &blockingSender{release: make(chan struct{})}

	d := New(c, mockdata.New(c, 1), WithEventSender(sender))
	is.NoErr(d.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		d.AcknowledgeAlert(context.Background(), "alert-1")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("acknowledging an alert waited for the notification")
	}

	close(sender.release)
	d.Stop()

	is.Equal(sender.delivered.Load(), int32(1))
}

func TestThatPublishFailuresAreIgnored(t *testing.T) {
	is := is.New(t)
	c := clock.NewManual(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	web := &failingWebEvents{}

	d := New(c, mockdata.New(c, 1), WithWebEvents(web))
	is.NoErr(d.Start(context.Background()))
	t.Cleanup(d.Stop)

	_, err := d.AcknowledgeAlert(context.Background(), "alert-1")
	is.NoErr(err)
	is.True(web.attempts.Load() > 0)
}

func testSetup(t *testing.T) (*is.I, *Dashboard, *clock.Manual, *recordingSender) {
	is := is.New(t)
	c := clock.NewManual(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	sender := &recordingSender{}

	d := New(c, mockdata.New(c, 1), WithEventSender(sender))
	is.NoErr(d.Start(context.Background()))
	t.Cleanup(d.Stop)

	return is, d, c, sender
}

type quietProvider struct {
	mockdata.Provider
}

func (q *quietProvider) GenerateEvents() []types.SecurityEvent {
	return lo.Filter(q.Provider.GenerateEvents(), func(e types.SecurityEvent, _ int) bool { return !e.IsAnomaly })
}

type recordingSender struct {
	mu       sync.Mutex
	messages []events.Message
}

func (r *recordingSender) Send(_ context.Context, m events.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

func (r *recordingSender) count(messageType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.CountBy(r.messages, func(m events.Message) bool { return m.Type == messageType })
}

type blockingSender struct {
	release   chan struct{}
	delivered atomic.Int32
}

func (b *blockingSender) Send(ctx context.Context, _ events.Message) error {
	select {
	case <-b.release:
		b.delivered.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type failingWebEvents struct {
	attempts atomic.Int32
}

func (f *failingWebEvents) Handler() http.Handler {
	return http.NotFoundHandler()
}

func (f *failingWebEvents) Shutdown() {}

func (f *failingWebEvents) Publish(string, any) error {
	f.attempts.Add(1)
	return errors.New("no listeners")
}

type recorder struct {
	actions []string
}

func (r *recorder) ActionPerformed(action string) {
	r.actions = append(r.actions, action)
}
