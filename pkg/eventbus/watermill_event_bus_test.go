package eventbus_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/automaton/pkg/channels/gochannel"
	"github.com/dukex/automaton/pkg/eventbus"
	"github.com/dukex/automaton/pkg/events"
	"github.com/dukex/automaton/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(logger, pub, sub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newBus(t)
	received := make(chan *events.TriggerReceived, 1)

	err := bus.Handle(events.TriggerReceivedEvent, func(_ context.Context, event any) error {
		trigger, ok := event.(*events.TriggerReceived)
		if !ok {
			return errors.New("unexpected event type")
		}

		received <- trigger

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	published := events.NewTriggerReceived("acc-1", models.TriggerOrderCreated, map[string]any{"total": float64(10)})
	require.NoError(t, bus.Publish(ctx, "acc-1", published))

	select {
	case trigger := <-received:
		assert.Equal(t, published.ID, trigger.ID)
		assert.Equal(t, "acc-1", trigger.AccountID)
		assert.Equal(t, models.TriggerOrderCreated, trigger.TriggerType)
		assert.InDelta(t, 10.0, trigger.Data["total"], 0.001)
	case <-time.After(5 * time.Second):
		t.Fatal("trigger event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypesAreSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newBus(t)
	received := make(chan string, 2)

	err := bus.Handle(events.EnrollmentCompletedEvent, func(_ context.Context, event any) error {
		completed, _ := event.(*events.EnrollmentCompleted)
		received <- completed.EnrollmentID

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "enr-1", events.NewEnrollmentStarted("acc-1", "auto-1", "enr-1", "ana@example.com")))
	require.NoError(t, bus.Publish(ctx, "enr-1", events.NewEnrollmentCompleted("acc-1", "auto-1", "enr-1", "a2")))

	select {
	case enrollmentID := <-received:
		assert.Equal(t, "enr-1", enrollmentID)
	case <-time.After(5 * time.Second):
		t.Fatal("completed event was not delivered")
	}

	assert.Empty(t, received)
}
