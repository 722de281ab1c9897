package webevents

import (
	"encoding/json"
	"net/http"

	gosse "github.com/alexandrevicenzi/go-sse"
)

const (
	Clock             string = "clock"
	Countdown         string = "countdown"
	AlertAcknowledged string = "alertAcknowledged"
	CountStarted      string = "countStarted"
	PersonDetected    string = "personDetected"
	CountCompleted    string = "countCompleted"
	EventReported     string = "eventReported"
	StateChanged      string = "stateChanged"
)

// WebEvents pushes named events to every connected browser.
type WebEvents interface {
	Handler() http.Handler
	Shutdown()
	Publish(event string, data any) error
}

type webEvents struct {
	s *gosse.Server
}

func New() WebEvents {
	return &webEvents{
		s: gosse.NewServer(&gosse.Options{
			Headers: map[string]string{
				"Cache-Control": "no-cache",
			},
		}),
	}
}

func (we *webEvents) Handler() http.Handler {
	return we.s
}

func (we *webEvents) Shutdown() {
	we.s.Shutdown()
}

func (we *webEvents) Publish(event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}

	message := gosse.NewMessage("", string(b), event)
	we.s.SendMessage("", message)

	return nil
}
