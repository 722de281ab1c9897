package dashboard

import (
	"slices"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/application/countdown"
	"github.com/diwise/security-dashboard/internal/pkg/application/peoplecounter"
	"github.com/diwise/security-dashboard/pkg/types"
	"github.com/samber/lo"
)

// Snapshot is a read-only copy of the dashboard state. Changing it does not
// affect the dashboard.
type Snapshot struct {
	Now time.Time `json:"now"`

	Mode types.Mode         `json:"mode"`
	View types.SecurityView `json:"view"`

	Events          []types.SecurityEvent `json:"events"`
	SelectedEventID string                `json:"selectedEventId,omitempty"`

	Sessions          []types.PersonCount `json:"sessions"`
	SelectedSessionID string              `json:"selectedSessionId,omitempty"`

	Alerts  []types.SecurityAlert `json:"alerts"`
	Status  types.SystemStatus    `json:"status"`
	Cameras []types.CameraFeed    `json:"cameras"`

	Counter         peoplecounter.Status `json:"counter"`
	StopCountdown   countdown.Status     `json:"stopCountdown"`
	ReportCountdown countdown.Status     `json:"reportCountdown"`
	ReportTarget    string               `json:"reportTarget,omitempty"`
	Reported        []string             `json:"reported"`
}

func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	reported := lo.Keys(d.state.reported)
	slices.Sort(reported)

	return Snapshot{
		Now:               d.state.now,
		Mode:              d.state.mode,
		View:              d.state.view,
		Events:            slices.Clone(d.state.events),
		SelectedEventID:   d.state.selectedEventID,
		Sessions:          lo.Map(d.state.sessions, func(s types.PersonCount, _ int) types.PersonCount { return cloneSession(s) }),
		SelectedSessionID: d.state.selectedSessionID,
		Alerts:            slices.Clone(d.state.alerts),
		Status:            d.state.status,
		Cameras:           slices.Clone(d.state.cameras),
		Counter:           d.counter.Snapshot(),
		StopCountdown:     d.stopCountdown.Status(),
		ReportCountdown:   d.reportCountdown.Status(),
		ReportTarget:      d.state.reportTarget,
		Reported:          reported,
	}
}

func (s Snapshot) SelectedEvent() (types.SecurityEvent, bool) {
	return lo.Find(s.Events, func(e types.SecurityEvent) bool { return e.ID == s.SelectedEventID })
}

func (s Snapshot) SelectedSession() (types.PersonCount, bool) {
	return lo.Find(s.Sessions, func(p types.PersonCount) bool { return p.ID == s.SelectedSessionID })
}

func (s Snapshot) Event(eventID string) (types.SecurityEvent, bool) {
	return lo.Find(s.Events, func(e types.SecurityEvent) bool { return e.ID == eventID })
}

func (s Snapshot) UnacknowledgedAlerts() int {
	return lo.CountBy(s.Alerts, func(a types.SecurityAlert) bool { return !a.Acknowledged })
}

func (s Snapshot) IsReported(eventID string) bool {
	return slices.Contains(s.Reported, eventID)
}

func cloneSession(s types.PersonCount) types.PersonCount {
	s.Images = slices.Clone(s.Images)
	return s
}
