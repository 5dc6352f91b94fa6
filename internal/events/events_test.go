package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/retag/internal/logger"
)

func TestPublisherLogsEventAtDebug(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Level: "debug", Writer: buf})
	require.NoError(t, err)

	publisher := NewPublisher(log)
	require.NoError(t, publisher.Publish(Event{Type: RuleApplied, Payload: map[string]any{"rule": "grid-stroke"}}))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "event", entry["message"])
	require.Equal(t, RuleApplied, entry["event_type"])
	require.Equal(t, "grid-stroke", entry["rule"])
}

func TestPublisherInvokesSubscribers(t *testing.T) {
	t.Parallel()

	publisher := NewPublisher(logger.Nop())

	var typed, all []string
	publisher.Subscribe(PipelineCompleted, func(e Event) error {
		typed = append(typed, e.Type)
		return nil
	})
	publisher.Subscribe(All, func(e Event) error {
		all = append(all, e.Type)
		return nil
	})

	require.NoError(t, publisher.Publish(Event{Type: PipelineStarted}))
	require.NoError(t, publisher.Publish(Event{Type: PipelineCompleted}))

	require.Equal(t, []string{PipelineCompleted}, typed)
	require.Equal(t, []string{PipelineStarted, PipelineCompleted}, all)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	publisher := NewPublisher(nil)

	count := 0
	sub := publisher.Subscribe(RuleStarted, func(Event) error {
		count++
		return nil
	})
	require.NoError(t, publisher.Publish(Event{Type: RuleStarted}))
	sub.Unsubscribe()
	require.NoError(t, publisher.Publish(Event{Type: RuleStarted}))
	require.Equal(t, 1, count)
}

func TestHandlerErrorsAreLoggedNotReturned(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	publisher := NewPublisher(log)
	delivered := false
	publisher.Subscribe(RuleFailed, func(Event) error { return errors.New("sink closed") })
	publisher.Subscribe(RuleFailed, func(Event) error {
		delivered = true
		return nil
	})

	require.NoError(t, publisher.Publish(Event{Type: RuleFailed}))
	require.True(t, delivered)
	require.True(t, strings.Contains(buf.String(), "sink closed"))
}

func TestNilPublisherIsSafe(t *testing.T) {
	t.Parallel()

	var publisher *Publisher
	require.NoError(t, publisher.Publish(Event{Type: RuleApplied}))
	require.NotPanics(t, func() {
		publisher.Subscribe(RuleApplied, func(Event) error { return nil }).Unsubscribe()
	})
}
