package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/lithammer/shortuuid/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/log"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// LedgerRepairer restores missing ledger entries.
type LedgerRepairer interface {
	RepairOne(ctx context.Context, eventID, userID string) error
}

// PoisonQueueTopic receives messages whose handler still fails after every
// retry. The periodic ledger sweep covers repairs that end up there.
const PoisonQueueTopic = "PoisonQueue"

// NewRouter builds the message router and its handlers.
func NewRouter(
	sub message.Subscriber,
	pub message.Publisher,
	repairer LedgerRepairer,
	logger watermill.LoggerAdapter,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("could not create router: %w", err)
	}

	poisonQueue, err := middleware.PoisonQueue(pub, PoisonQueueTopic)
	if err != nil {
		return nil, fmt.Errorf("could not create poison queue: %w", err)
	}
	router.AddMiddleware(poisonQueue)

	useMiddlewares(router, logger)

	router.AddNoPublisherHandler(
		"repair_ledger",
		model.LedgerRepairRequested{}.EventName(),
		sub,
		func(msg *message.Message) error {
			var event model.LedgerRepairRequested
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				return fmt.Errorf("unmarshal %s: %w", event.EventName(), err)
			}
			return repairer.RepairOne(msg.Context(), event.EventID, event.UserID)
		},
	)

	router.AddNoPublisherHandler(
		"audit_ticket_issued",
		model.TicketIssued{}.EventName(),
		sub,
		func(msg *message.Message) error {
			var event model.TicketIssued
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				return fmt.Errorf("unmarshal %s: %w", event.EventName(), err)
			}
			log.FromContext(msg.Context()).WithFields(logrus.Fields{
				"ticket_id":   event.TicketID,
				"event_id":    event.EventID,
				"user_id":     event.UserID,
				"ticket_type": event.TicketClass,
			}).Info("Ticket issued")
			return nil
		},
	)

	return router, nil
}

func useMiddlewares(router *message.Router, logger watermill.LoggerAdapter) {
	router.AddMiddleware(middleware.Recoverer)

	router.AddMiddleware(middleware.Retry{
		MaxRetries:      5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          logger,
	}.Middleware)

	router.AddMiddleware(func(next message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			correlationID := msg.Metadata.Get(correlationIDKey)
			if correlationID == "" {
				correlationID = shortuuid.New()
			}

			ctx := log.ContextWithCorrelationID(msg.Context(), correlationID)
			logger := logrus.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"message_uuid":   msg.UUID,
				"handler":        message.HandlerNameFromCtx(msg.Context()),
			})
			msg.SetContext(log.ToContext(ctx, logger))

			logger.Debug("Handling a message")

			msgs, err := next(msg)
			if err != nil {
				logger.WithError(err).Error("Error while handling a message")
			}
			return msgs, err
		}
	})

	router.AddMiddleware(func(next message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			labels := prometheus.Labels{
				"topic":   message.SubscribeTopicFromCtx(msg.Context()),
				"handler": message.HandlerNameFromCtx(msg.Context()),
			}

			msgs, err := next(msg)
			if err != nil {
				metrics.MessagesProcessingFailed.With(labels).Inc()
			}
			metrics.MessagesProcessed.With(labels).Inc()
			return msgs, err
		}
	})
}
