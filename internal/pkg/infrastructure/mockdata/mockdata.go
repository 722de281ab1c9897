package mockdata

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/clock"
	"github.com/diwise/security-dashboard/pkg/types"
	"github.com/samber/lo"
)

// Provider stands in for a real sensor and event backend.
type Provider interface {
	GenerateEvents() []types.SecurityEvent
	GenerateAlerts() []types.SecurityAlert
	GetStatus() types.SystemStatus
	CameraFeeds() []types.CameraFeed
}

const (
	CurrentEventID string = "current"

	pastEvents     int           = 36
	eventInterval  time.Duration = 10 * time.Minute
	totalSensors   int           = 12
	activeSensors  int           = 11
	normalActivity string        = "Normal activity"
)

const (
	FrontDoor    string = "Front Door"
	SideDoor     string = "Side Door"
	BackDoor     string = "Back Door"
	Garage       string = "Garage"
	Garden       string = "Garden"
	MainEntrance string = "Main Entrance"
)

var anomalies = map[int]types.EventType{
	2:  types.EventMotion,
	8:  types.EventIntrusion,
	15: types.EventDoor,
	22: types.EventNoise,
	29: types.EventWindow,
}

type anomalyProfile struct {
	severity    types.Severity
	description string
}

func profileFor(e types.EventType) anomalyProfile {
	switch e {
	case types.EventMotion:
		return anomalyProfile{types.SeverityMedium, "Unusual motion detected"}
	case types.EventIntrusion:
		return anomalyProfile{types.SeverityCritical, "Possible intrusion detected"}
	case types.EventNoise:
		return anomalyProfile{types.SeverityLow, "Abnormal noise level"}
	case types.EventFire:
		return anomalyProfile{types.SeverityCritical, "Smoke or fire detected"}
	case types.EventDoor:
		return anomalyProfile{types.SeverityHigh, "Door opened outside schedule"}
	case types.EventWindow:
		return anomalyProfile{types.SeverityHigh, "Window sensor triggered"}
	case types.EventSystem:
		return anomalyProfile{types.SeverityLow, "System notice"}
	}
	panic(fmt.Sprintf("no anomaly profile for %s", e))
}

type provider struct {
	clock clock.Clock

	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Provider whose output depends only on the reference time of
// c and the seed.
func New(c clock.Clock, seed uint64) Provider {
	return &provider{
		clock: c,
		rnd:   rand.New(rand.NewPCG(seed, seed^0x5eed)),
	}
}

func (p *provider) GenerateEvents() []types.SecurityEvent {
	now := p.clock.Now()

	events := make([]types.SecurityEvent, 0, pastEvents+1)
	events = append(events, types.SecurityEvent{
		ID:          CurrentEventID,
		Timestamp:   now,
		IsAnomaly:   false,
		ImageURL:    "/camera-feed-normal-1.jpg",
		Location:    FrontDoor,
		Description: normalActivity,
		Severity:    types.SeverityLow,
		EventType:   types.EventSystem,
		Resolved:    true,
	})

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 1; i <= pastEvents; i++ {
		e := types.SecurityEvent{
			ID:          fmt.Sprintf("past-%d", i),
			Timestamp:   now.Add(-time.Duration(i) * eventInterval),
			ImageURL:    fmt.Sprintf("/camera-feed-normal-%d.jpg", (i%5)+1),
			Location:    locationFor(i),
			Description: normalActivity,
			Severity:    types.SeverityLow,
			EventType:   types.EventSystem,
			Resolved:    true,
		}

		if eventType, ok := anomalies[i]; ok {
			profile := profileFor(eventType)
			e.IsAnomaly = true
			e.ImageURL = fmt.Sprintf("/camera-feed-anomaly-%d.jpg", (i%3)+1)
			e.EventType = eventType
			e.Severity = profile.severity
			e.Description = profile.description
			e.Resolved = p.rnd.IntN(2) == 1
		}

		events = append(events, e)
	}

	return events
}

func locationFor(i int) string {
	if i%3 == 0 {
		return BackDoor
	}
	if i%2 == 0 {
		return SideDoor
	}
	return FrontDoor
}

func (p *provider) GenerateAlerts() []types.SecurityAlert {
	now := p.clock.Now()

	return []types.SecurityAlert{
		{
			ID:        "alert-1",
			Timestamp: now.Add(-20 * time.Minute),
			Title:     "Intrusion detected",
			Message:   "Movement detected at the back door outside of opening hours.",
			Type:      types.AlertDanger,
		},
		{
			ID:        "alert-2",
			Timestamp: now.Add(-45 * time.Minute),
			Title:     "Camera offline",
			Message:   "The garage camera has stopped sending video.",
			Type:      types.AlertWarning,
		},
		{
			ID:        "alert-3",
			Timestamp: now.Add(-90 * time.Minute),
			Title:     "Door left open",
			Message:   "The side door has been open for more than five minutes.",
			Type:      types.AlertWarning,
		},
		{
			ID:           "alert-4",
			Timestamp:    now.Add(-3 * time.Hour),
			Title:        "System update",
			Message:      "Sensor firmware was updated successfully.",
			Type:         types.AlertInfo,
			Acknowledged: true,
		},
	}
}

var feeds = []types.CameraFeed{
	{ID: "cam1", Name: FrontDoor, Status: types.CameraOnline},
	{ID: "cam2", Name: SideDoor, Status: types.CameraOnline},
	{ID: "cam3", Name: BackDoor, Status: types.CameraOnline},
	{ID: "cam4", Name: Garage, Status: types.CameraOffline},
	{ID: "cam5", Name: Garden, Status: types.CameraOnline},
}

func (p *provider) CameraFeeds() []types.CameraFeed {
	return slices.Clone(feeds)
}

func (p *provider) GetStatus() types.SystemStatus {
	alerts := p.GenerateAlerts()

	return types.SystemStatus{
		Cameras: types.Ratio{
			Online: lo.CountBy(feeds, types.CameraFeed.Online),
			Total:  len(feeds),
		},
		Sensors: types.SensorRatio{
			Active: activeSensors,
			Total:  totalSensors,
		},
		Alerts: types.AlertRatio{
			Unresolved: lo.CountBy(alerts, func(a types.SecurityAlert) bool { return !a.Acknowledged }),
			Total:      len(alerts),
		},
		LastUpdate: p.clock.Now(),
	}
}
