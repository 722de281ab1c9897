// Package views turns dashboard snapshots into render-only view models.
package views

import (
	"fmt"
	"math"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/application/timefmt"
	"github.com/diwise/security-dashboard/pkg/types"
)

func SeverityLabel(s types.Severity) string {
	switch s {
	case types.SeverityLow:
		return "Low"
	case types.SeverityMedium:
		return "Medium"
	case types.SeverityHigh:
		return "High"
	case types.SeverityCritical:
		return "Critical"
	}
	panic(fmt.Sprintf("no label for severity %d", int(s)))
}

func SeverityClass(s types.Severity) string {
	switch s {
	case types.SeverityLow:
		return "severity-low"
	case types.SeverityMedium:
		return "severity-medium"
	case types.SeverityHigh:
		return "severity-high"
	case types.SeverityCritical:
		return "severity-critical"
	}
	panic(fmt.Sprintf("no class for severity %d", int(s)))
}

func EventTypeLabel(e types.EventType) string {
	switch e {
	case types.EventMotion:
		return "Motion"
	case types.EventIntrusion:
		return "Intrusion"
	case types.EventNoise:
		return "Noise"
	case types.EventFire:
		return "Fire"
	case types.EventDoor:
		return "Door"
	case types.EventWindow:
		return "Window"
	case types.EventSystem:
		return "System"
	}
	panic(fmt.Sprintf("no label for event type %d", int(e)))
}

func AlertIcon(a types.AlertType) string {
	switch a {
	case types.AlertWarning:
		return "⚠"
	case types.AlertDanger:
		return "⛔"
	case types.AlertInfo:
		return "ℹ"
	}
	panic(fmt.Sprintf("no icon for alert type %d", int(a)))
}

func AlertClass(a types.AlertType) string {
	switch a {
	case types.AlertWarning:
		return "alert-warning"
	case types.AlertDanger:
		return "alert-danger"
	case types.AlertInfo:
		return "alert-info"
	}
	panic(fmt.Sprintf("no class for alert type %d", int(a)))
}

// Percent returns value as a rounded percentage of total, or 0 when total is 0.
func Percent(value, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(value) / float64(total) * 100))
}

type CameraTile struct {
	ID     string
	Name   string
	Online bool
	Active bool
	Status string
}

func NewCameraTile(feed types.CameraFeed, active bool) CameraTile {
	status := "Offline"
	if feed.Online() {
		status = "Live"
	}

	return CameraTile{
		ID:     feed.ID,
		Name:   feed.Name,
		Online: feed.Online(),
		Active: active,
		Status: status,
	}
}

type TimelineEntry struct {
	ID            string
	Time          string
	Location      string
	Description   string
	TypeLabel     string
	SeverityLabel string
	SeverityClass string
	ImageURL      string
	Anomaly       bool
	Resolved      bool
	Selected      bool
	CurrentHour   bool
}

func NewTimelineEntry(e types.SecurityEvent, selected bool, f timefmt.Formatter, now time.Time) TimelineEntry {
	return TimelineEntry{
		ID:            e.ID,
		Time:          f.Short(e.Timestamp),
		Location:      e.Location,
		Description:   e.Description,
		TypeLabel:     EventTypeLabel(e.EventType),
		SeverityLabel: SeverityLabel(e.Severity),
		SeverityClass: SeverityClass(e.Severity),
		ImageURL:      e.ImageURL,
		Anomaly:       e.IsAnomaly,
		Resolved:      e.Resolved,
		Selected:      selected,
		CurrentHour:   f.IsCurrentHour(e.Timestamp, now),
	}
}

type AlertCard struct {
	ID           string
	Title        string
	Message      string
	Time         string
	Icon         string
	Class        string
	Acknowledged bool
}

func NewAlertCard(a types.SecurityAlert, f timefmt.Formatter) AlertCard {
	return AlertCard{
		ID:           a.ID,
		Title:        a.Title,
		Message:      a.Message,
		Time:         f.Long(a.Timestamp),
		Icon:         AlertIcon(a.Type),
		Class:        AlertClass(a.Type),
		Acknowledged: a.Acknowledged,
	}
}

type StatusGauge struct {
	Label   string
	Value   int
	Total   int
	Percent int
}

func NewStatusGauge(label string, value, total int) StatusGauge {
	return StatusGauge{
		Label:   label,
		Value:   value,
		Total:   total,
		Percent: Percent(value, total),
	}
}
