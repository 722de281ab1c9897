package views

import (
	"fmt"
	"slices"

	"github.com/diwise/security-dashboard/internal/pkg/application/countdown"
	"github.com/diwise/security-dashboard/internal/pkg/application/dashboard"
	"github.com/diwise/security-dashboard/internal/pkg/application/timefmt"
	"github.com/diwise/security-dashboard/pkg/types"
	"github.com/samber/lo"
)

const (
	activeCameraID string = "cam1"

	reportLabel string = "Report this event"
	stopLabel   string = "Stop counting"
)

type CameraPanel struct {
	Tiles   []CameraTile
	Summary string
}

func NewCameraPanel(feeds []types.CameraFeed) CameraPanel {
	online := lo.CountBy(feeds, func(c types.CameraFeed) bool { return c.Online() })

	return CameraPanel{
		Tiles: lo.Map(feeds, func(c types.CameraFeed, _ int) CameraTile {
			return NewCameraTile(c, c.ID == activeCameraID)
		}),
		Summary: fmt.Sprintf("%d / %d cameras online", online, len(feeds)),
	}
}

type Timeline struct {
	Entries []TimelineEntry
}

func (t Timeline) Empty() bool {
	return len(t.Entries) == 0
}

func NewTimeline(s dashboard.Snapshot, f timefmt.Formatter) Timeline {
	return Timeline{
		Entries: lo.Map(s.Events, func(e types.SecurityEvent, _ int) TimelineEntry {
			return NewTimelineEntry(e, e.ID == s.SelectedEventID, f, s.Now)
		}),
	}
}

// AlertList splits alerts into those that still need attention and those
// that have been handled.
type AlertList struct {
	NeedsAttention []AlertCard
	Handled        []AlertCard
}

func (a AlertList) Empty() bool {
	return len(a.NeedsAttention) == 0 && len(a.Handled) == 0
}

func NewAlertList(alerts []types.SecurityAlert, f timefmt.Formatter) AlertList {
	pending := lo.Filter(alerts, func(a types.SecurityAlert, _ int) bool { return !a.Acknowledged })
	handled := lo.Filter(alerts, func(a types.SecurityAlert, _ int) bool { return a.Acknowledged })

	toCard := func(a types.SecurityAlert, _ int) AlertCard { return NewAlertCard(a, f) }

	return AlertList{
		NeedsAttention: lo.Map(pending, toCard),
		Handled:        lo.Map(handled, toCard),
	}
}

type StatusPanel struct {
	Cameras    StatusGauge
	Sensors    StatusGauge
	Alerts     StatusGauge
	LastUpdate string
}

func NewStatusPanel(status types.SystemStatus, f timefmt.Formatter) StatusPanel {
	return StatusPanel{
		Cameras:    NewStatusGauge("Cameras online", status.Cameras.Online, status.Cameras.Total),
		Sensors:    NewStatusGauge("Sensors active", status.Sensors.Active, status.Sensors.Total),
		Alerts:     NewStatusGauge("Unresolved alerts", status.Alerts.Unresolved, status.Alerts.Total),
		LastUpdate: f.Long(status.LastUpdate),
	}
}

type EventDetail struct {
	Placeholder bool
	Event       TimelineEntry
	Timestamp   string
	CanReport   bool
	Reported    bool
	Reporting   bool
	ReportLabel string
}

func NewEventDetail(s dashboard.Snapshot, f timefmt.Formatter) EventDetail {
	event, ok := s.SelectedEvent()
	if !ok {
		return EventDetail{Placeholder: true}
	}

	reported := s.IsReported(event.ID)
	reporting := s.ReportTarget == event.ID && s.ReportCountdown.State == countdown.Counting

	label := reportLabel
	if reporting {
		label = s.ReportCountdown.Label(reportLabel)
	}

	return EventDetail{
		Event:       NewTimelineEntry(event, true, f, s.Now),
		Timestamp:   f.Long(event.Timestamp),
		CanReport:   event.IsAnomaly && !reported,
		Reported:    reported,
		Reporting:   reporting,
		ReportLabel: label,
	}
}

type CounterPanel struct {
	Counting  bool
	Count     int
	StartedAt string
	Location  string
	Stopping  bool
	StopLabel string
}

func NewCounterPanel(s dashboard.Snapshot, f timefmt.Formatter, location string) CounterPanel {
	p := CounterPanel{
		Counting:  s.Counter.Counting,
		Count:     s.Counter.Count,
		Location:  location,
		Stopping:  s.StopCountdown.State == countdown.Counting,
		StopLabel: s.StopCountdown.Label(stopLabel),
	}

	if p.Counting {
		p.StartedAt = f.Short(s.Counter.StartedAt)
	}

	return p
}

type SessionRow struct {
	ID       string
	Time     string
	Location string
	Count    int
	Selected bool
}

type SessionHistory struct {
	Sessions []SessionRow
}

func (h SessionHistory) Empty() bool {
	return len(h.Sessions) == 0
}

func NewSessionHistory(s dashboard.Snapshot, f timefmt.Formatter) SessionHistory {
	return SessionHistory{
		Sessions: lo.Map(s.Sessions, func(p types.PersonCount, _ int) SessionRow {
			return SessionRow{
				ID:       p.ID,
				Time:     f.Long(p.Timestamp),
				Location: p.Location,
				Count:    p.Count,
				Selected: p.ID == s.SelectedSessionID,
			}
		}),
	}
}

type SessionDetail struct {
	Placeholder bool
	ID          string
	Time        string
	Location    string
	Count       int
	Images      []string
}

func (d SessionDetail) NoPhotos() bool {
	return !d.Placeholder && d.Count == 0
}

func NewSessionDetail(s dashboard.Snapshot, f timefmt.Formatter) SessionDetail {
	session, ok := s.SelectedSession()
	if !ok {
		return SessionDetail{Placeholder: true}
	}

	return SessionDetail{
		ID:       session.ID,
		Time:     f.Long(session.Timestamp),
		Location: session.Location,
		Count:    session.Count,
		Images:   slices.Clone(session.Images),
	}
}

type Tab struct {
	Label  string
	Value  string
	Active bool
	Badge  int
}

type Header struct {
	Clock string
	Modes []Tab
	Views []Tab
}

func NewHeader(s dashboard.Snapshot, f timefmt.Formatter) Header {
	modes := []types.Mode{types.ModeSecurity, types.ModeCounting}
	views := []types.SecurityView{types.ViewMonitoring, types.ViewAlerts, types.ViewStatus}

	h := Header{
		Clock: f.Clock(s.Now),
		Modes: lo.Map(modes, func(m types.Mode, _ int) Tab {
			return Tab{Label: ModeLabel(m), Value: m.String(), Active: m == s.Mode}
		}),
	}

	if s.Mode == types.ModeSecurity {
		unacknowledged := s.UnacknowledgedAlerts()
		h.Views = lo.Map(views, func(v types.SecurityView, _ int) Tab {
			t := Tab{Label: ViewLabel(v), Value: v.String(), Active: v == s.View}
			if v == types.ViewAlerts {
				t.Badge = unacknowledged
			}
			return t
		})
	}

	return h
}

func ModeLabel(m types.Mode) string {
	switch m {
	case types.ModeSecurity:
		return "Security"
	case types.ModeCounting:
		return "People counting"
	}
	panic(fmt.Sprintf("no label for mode %d", int(m)))
}

func ViewLabel(v types.SecurityView) string {
	switch v {
	case types.ViewMonitoring:
		return "Monitoring"
	case types.ViewAlerts:
		return "Alerts"
	case types.ViewStatus:
		return "Status"
	}
	panic(fmt.Sprintf("no label for view %d", int(v)))
}

// Page is the whole dashboard for the active mode and view. Only the columns
// that are visible are populated.
type Page struct {
	Lang   string
	Header Header

	Security   bool
	Monitoring bool
	AlertsView bool
	StatusView bool

	Cameras  CameraPanel
	Timeline Timeline
	Detail   EventDetail
	Alerts   AlertList
	Status   StatusPanel

	Counter CounterPanel
	History SessionHistory
	Session SessionDetail
}

func NewPage(s dashboard.Snapshot, f timefmt.Formatter, counterLocation string) Page {
	p := Page{
		Lang:   f.Tag().String(),
		Header: NewHeader(s, f),
	}

	switch s.Mode {
	case types.ModeSecurity:
		p.Security = true
		p.Cameras = NewCameraPanel(s.Cameras)
		p.Timeline = NewTimeline(s, f)

		switch s.View {
		case types.ViewMonitoring:
			p.Monitoring = true
			p.Detail = NewEventDetail(s, f)
		case types.ViewAlerts:
			p.AlertsView = true
			p.Alerts = NewAlertList(s.Alerts, f)
		case types.ViewStatus:
			p.StatusView = true
			p.Status = NewStatusPanel(s.Status, f)
		}
	case types.ModeCounting:
		p.Counter = NewCounterPanel(s, f, counterLocation)
		p.History = NewSessionHistory(s, f)
		p.Session = NewSessionDetail(s, f)
	}

	return p
}
