package types

import (
	"fmt"
	"time"
)

var ErrUnknownValue = fmt.Errorf("unknown value")

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	panic(fmt.Sprintf("severity %d out of range", int(s)))
}

func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	}
	return SeverityLow, fmt.Errorf("severity %q: %w", s, ErrUnknownValue)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) (err error) {
	*s, err = ParseSeverity(string(b))
	return
}

type EventType int

const (
	EventMotion EventType = iota
	EventIntrusion
	EventNoise
	EventFire
	EventDoor
	EventWindow
	EventSystem
)

func (e EventType) String() string {
	switch e {
	case EventMotion:
		return "motion"
	case EventIntrusion:
		return "intrusion"
	case EventNoise:
		return "noise"
	case EventFire:
		return "fire"
	case EventDoor:
		return "door"
	case EventWindow:
		return "window"
	case EventSystem:
		return "system"
	}
	panic(fmt.Sprintf("event type %d out of range", int(e)))
}

func ParseEventType(s string) (EventType, error) {
	switch s {
	case "motion":
		return EventMotion, nil
	case "intrusion":
		return EventIntrusion, nil
	case "noise":
		return EventNoise, nil
	case "fire":
		return EventFire, nil
	case "door":
		return EventDoor, nil
	case "window":
		return EventWindow, nil
	case "system":
		return EventSystem, nil
	}
	return EventSystem, fmt.Errorf("event type %q: %w", s, ErrUnknownValue)
}

func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EventType) UnmarshalText(b []byte) (err error) {
	*e, err = ParseEventType(string(b))
	return
}

type AlertType int

const (
	AlertWarning AlertType = iota
	AlertDanger
	AlertInfo
)

func (a AlertType) String() string {
	switch a {
	case AlertWarning:
		return "warning"
	case AlertDanger:
		return "danger"
	case AlertInfo:
		return "info"
	}
	panic(fmt.Sprintf("alert type %d out of range", int(a)))
}

func ParseAlertType(s string) (AlertType, error) {
	switch s {
	case "warning":
		return AlertWarning, nil
	case "danger":
		return AlertDanger, nil
	case "info":
		return AlertInfo, nil
	}
	return AlertInfo, fmt.Errorf("alert type %q: %w", s, ErrUnknownValue)
}

func (a AlertType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AlertType) UnmarshalText(b []byte) (err error) {
	*a, err = ParseAlertType(string(b))
	return
}

type SecurityEvent struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	IsAnomaly   bool      `json:"isAnomaly"`
	ImageURL    string    `json:"imageUrl"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	EventType   EventType `json:"eventType"`
	Resolved    bool      `json:"resolved"`
}

type PersonCount struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
	Images    []string  `json:"images"`
	Location  string    `json:"location"`
}

type SecurityAlert struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Type         AlertType `json:"type"`
	Acknowledged bool      `json:"acknowledged"`
}

type Ratio struct {
	Online int `json:"online"`
	Total  int `json:"total"`
}

type SensorRatio struct {
	Active int `json:"active"`
	Total  int `json:"total"`
}

type AlertRatio struct {
	Unresolved int `json:"unresolved"`
	Total      int `json:"total"`
}

type SystemStatus struct {
	Cameras    Ratio       `json:"cameras"`
	Sensors    SensorRatio `json:"sensors"`
	Alerts     AlertRatio  `json:"alerts"`
	LastUpdate time.Time   `json:"lastUpdate"`
}

const (
	CameraOnline  string = "online"
	CameraOffline string = "offline"
)

type CameraFeed struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (c CameraFeed) Online() bool {
	return c.Status == CameraOnline
}
