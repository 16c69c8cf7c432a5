package log_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/log"
)

func TestFromContext(t *testing.T) {
	assert.NotNil(t, log.FromContext(context.Background()))

	entry := logrus.WithField("request_id", "abc")
	ctx := log.ToContext(context.Background(), entry)
	assert.Same(t, entry, log.FromContext(ctx))
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, log.CorrelationIDFromContext(context.Background()))

	ctx := log.ContextWithCorrelationID(context.Background(), "corr-1")
	assert.Equal(t, "corr-1", log.CorrelationIDFromContext(ctx))
}

func TestWatermillAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	adapter := log.NewWatermill(logrus.NewEntry(logger)).With(watermill.LogFields{"handler": "repair_ledger"})
	adapter.Error("handling failed", errors.New("boom"), watermill.LogFields{"topic": "LedgerRepairRequested"})

	out := buf.String()
	assert.Contains(t, out, `"handler":"repair_ledger"`)
	assert.Contains(t, out, `"topic":"LedgerRepairRequested"`)
	assert.Contains(t, out, `"error":"boom"`)
}
