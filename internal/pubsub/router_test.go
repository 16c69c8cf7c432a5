package pubsub_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/log"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/pubsub"
)

type repairCall struct {
	EventID       string
	UserID        string
	CorrelationID string
}

type repairerMock struct {
	mu       sync.Mutex
	calls    []repairCall
	failures int
}

func (r *repairerMock) RepairOne(ctx context.Context, eventID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failures > 0 {
		r.failures--
		return errors.New("database is down")
	}
	r.calls = append(r.calls, repairCall{
		EventID:       eventID,
		UserID:        userID,
		CorrelationID: log.CorrelationIDFromContext(ctx),
	})
	return nil
}

func (r *repairerMock) Calls() []repairCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]repairCall(nil), r.calls...)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRouter_repairs_ledger(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	logger := watermill.NopLogger{}
	pubSub := pubsub.NewInMemory(logger)
	repairer := &repairerMock{failures: 2}

	labels := prometheus.Labels{"topic": model.LedgerRepairRequested{}.EventName(), "handler": "repair_ledger"}
	processedBefore := counterValue(t, metrics.MessagesProcessed.With(labels))
	failedBefore := counterValue(t, metrics.MessagesProcessingFailed.With(labels))

	router, err := pubsub.NewRouter(pubSub, pubSub, repairer, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, router.Run(ctx))
	}()
	defer func() {
		cancel()
		<-done
		_ = pubSub.Close()
	}()
	<-router.Running()

	bus := pubsub.NewBus(pubSub)
	publishCtx := log.ContextWithCorrelationID(context.Background(), "corr-123")
	require.NoError(t, bus.Publish(publishCtx, model.LedgerRepairRequested{
		Header:  model.NewEventHeader(),
		EventID: "event-1",
		UserID:  "user-1",
		Reason:  "ledger write failed",
	}))
	require.NoError(t, bus.Publish(publishCtx, model.TicketIssued{
		Header:      model.NewEventHeader(),
		TicketID:    "ticket-1",
		EventID:     "event-1",
		UserID:      "user-2",
		TicketClass: model.TicketGeneral,
	}))

	assert.Eventually(t, func() bool {
		return len(repairer.Calls()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, repairCall{EventID: "event-1", UserID: "user-1", CorrelationID: "corr-123"}, repairer.Calls()[0])

	// two failed attempts then one success
	assert.Eventually(t, func() bool {
		return counterValue(t, metrics.MessagesProcessed.With(labels))-processedBefore == 3
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 2.0, counterValue(t, metrics.MessagesProcessingFailed.With(labels))-failedBefore)
}

func TestRouter_poisons_repeatedly_failing_repair(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	logger := watermill.NopLogger{}
	pubSub := pubsub.NewInMemory(logger)
	repairer := &repairerMock{failures: 1000}

	router, err := pubsub.NewRouter(pubSub, pubSub, repairer, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, router.Run(ctx))
	}()
	defer func() {
		cancel()
		<-done
		_ = pubSub.Close()
	}()
	<-router.Running()

	poisoned, err := pubSub.Subscribe(ctx, pubsub.PoisonQueueTopic)
	require.NoError(t, err)

	require.NoError(t, pubsub.NewBus(pubSub).Publish(context.Background(), model.LedgerRepairRequested{
		Header:  model.NewEventHeader(),
		EventID: "event-1",
		UserID:  "user-1",
	}))

	select {
	case msg := <-poisoned:
		msg.Ack()
		assert.Equal(t, "repair_ledger", msg.Metadata.Get(middleware.PoisonedHandlerKey))
		assert.Contains(t, msg.Metadata.Get(middleware.ReasonForPoisonedKey), "database is down")
	case <-time.After(10 * time.Second):
		t.Fatal("message was not moved to the poison queue")
	}
	assert.Empty(t, repairer.Calls())
}
