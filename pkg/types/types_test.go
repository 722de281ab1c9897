package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestParseSeverityRejectsUnknownValues(t *testing.T) {
	is := is.New(t)

	s, err := ParseSeverity("critical")
	is.NoErr(err)
	is.Equal(s, SeverityCritical)

	_, err = ParseSeverity("apocalyptic")
	is.True(errors.Is(err, ErrUnknownValue))
}

func TestEventTypesRoundTripThroughTheirWireNames(t *testing.T) {
	is := is.New(t)

	for _, e := range []EventType{EventMotion, EventIntrusion, EventNoise, EventFire, EventDoor, EventWindow, EventSystem} {
		parsed, err := ParseEventType(e.String())
		is.NoErr(err)
		is.Equal(parsed, e)
	}
}

func TestSecurityEventIsEncodedWithWireNames(t *testing.T) {
	is := is.New(t)

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b, err := json.Marshal(SecurityEvent{
		ID:          "past-2",
		Timestamp:   ts,
		IsAnomaly:   true,
		Location:    "Side Door",
		Description: "Unusual motion detected",
		Severity:    SeverityMedium,
		EventType:   EventMotion,
	})
	is.NoErr(err)
	is.Equal(string(b), `{"id":"past-2","timestamp":"2024-03-01T12:00:00Z","isAnomaly":true,"imageUrl":"","location":"Side Door","description":"Unusual motion detected","severity":"medium","eventType":"motion","resolved":false}`)
}

func TestAlertTypeDecodesFromJSON(t *testing.T) {
	is := is.New(t)

	var a SecurityAlert
	err := json.Unmarshal([]byte(`{"id":"alert-9","type":"danger"}`), &a)
	is.NoErr(err)
	is.Equal(a.Type, AlertDanger)

	err = json.Unmarshal([]byte(`{"id":"alert-9","type":"purple"}`), &a)
	is.True(err != nil)
}

func TestModeAndViewParsing(t *testing.T) {
	is := is.New(t)

	m, err := ParseMode("counting")
	is.NoErr(err)
	is.Equal(m, ModeCounting)

	v, err := ParseSecurityView("status")
	is.NoErr(err)
	is.Equal(v, ViewStatus)

	_, err = ParseSecurityView("feed")
	is.True(errors.Is(err, ErrUnknownValue))
}
