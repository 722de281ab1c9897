package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"
	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sys/unix"
	yaml "gopkg.in/yaml.v2"
)

const (
	AlertAcknowledged string = "security.alertAcknowledged"
	CountCompleted    string = "security.countCompleted"
	EventReported     string = "security.eventReported"
)

const source string = "github.com/diwise/security-dashboard"

// Message is a single notification. ID and Timestamp together identify it.
type Message struct {
	Type      string
	ID        string
	Timestamp time.Time
	Data      any
}

type EventSender interface {
	Send(ctx context.Context, message Message) error
}

type eventSender struct {
	client      cloudevents.Client
	subscribers map[string][]SubscriberConfig
}

func New(cfg *Config) (EventSender, error) {
	e := &eventSender{
		subscribers: make(map[string][]SubscriberConfig),
	}

	if cfg != nil {
		for _, s := range cfg.Notifications {
			e.subscribers[s.Type] = append(e.subscribers[s.Type], s.Subscribers...)
		}
	}

	c, err := cloudevents.NewClientHTTP(
		cehttp.WithRoundTripper(otelhttp.NewTransport(http.DefaultTransport)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudevents client: %w", err)
	}
	e.client = c

	return e, nil
}

func (e *eventSender) Send(ctx context.Context, message Message) error {
	subscribers, ok := e.subscribers[message.Type]
	if !ok || len(subscribers) == 0 {
		return nil
	}

	event := cloudevents.NewEvent()
	event.SetID(fmt.Sprintf("%s:%d", message.ID, message.Timestamp.Unix()))
	event.SetTime(message.Timestamp)
	event.SetSource(source)
	event.SetType(message.Type)

	err := event.SetData(cloudevents.ApplicationJSON, message.Data)
	if err != nil {
		return err
	}

	logger := logging.GetLoggerFromContext(ctx)

	for _, s := range subscribers {
		ctxWithTarget := cloudevents.ContextWithTarget(ctx, s.Endpoint)

		result := e.client.Send(ctxWithTarget, event)
		if cloudevents.IsUndelivered(result) || errors.Is(result, unix.ECONNREFUSED) {
			logger.Error().Err(result).Msgf("failed to send event to %s", s.Endpoint)
			err = fmt.Errorf("%w", result)
		}
	}

	return err
}

type SubscriberConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type Notification struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"`
	Subscribers []SubscriberConfig `yaml:"subscribers"`
}

type Config struct {
	Notifications []Notification `yaml:"notifications"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := Config{}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
