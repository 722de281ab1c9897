package webevents

import (
	"testing"

	"github.com/matryer/is"
)

func TestThatPublishWithoutClientsSucceeds(t *testing.T) {
	is := is.New(t)

	we := New()
	defer we.Shutdown()

	is.NoErr(we.Publish(Clock, map[string]string{"time": "03:04:05 PM"}))
	is.True(we.Handler() != nil)
}

func TestThatUnencodableDataIsRejected(t *testing.T) {
	is := is.New(t)

	we := New()
	defer we.Shutdown()

	err := we.Publish(Countdown, make(chan int))
	is.True(err != nil)
}
