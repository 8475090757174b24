// Package consumer is the transport boundary: it subscribes to the
// request topics, decodes each delivery, dispatches it to the matching
// worker, and translates the classifier's verdict into the transport's
// ack/nack call.
package consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"artisan-workers/internal/common/aws"
	"artisan-workers/internal/common/config"
	stderrors "artisan-workers/internal/common/errors"
	"artisan-workers/internal/common/logger"
	"artisan-workers/internal/common/metrics"
	"artisan-workers/internal/common/observability"
	"artisan-workers/internal/common/pubsub"
	"artisan-workers/internal/events"
	storygenerate "artisan-workers/internal/workers/content/story-generate"
	assetgenerate "artisan-workers/internal/workers/marketing/asset-generate"
)

// Consumer wires one subscription per request topic. Each delivered
// message is processed independently; concurrency bounds live in the
// transport client.
type Consumer struct {
	subscriber pubsub.Subscriber
	story      *storygenerate.Handler
	marketing  *assetgenerate.Handler
	notifier   *aws.Notifier
	obs        *observability.Observability
	topics     config.TopicsConfig
	logger     logger.Logger
}

func New(subscriber pubsub.Subscriber, story *storygenerate.Handler, marketing *assetgenerate.Handler, notifier *aws.Notifier, obs *observability.Observability, topics config.TopicsConfig, log logger.Logger) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		story:      story,
		marketing:  marketing,
		notifier:   notifier,
		obs:        obs,
		topics:     topics,
		logger:     log.WithFields(map[string]interface{}{"component": "consumer"}),
	}
}

// Run blocks until ctx is cancelled and both subscriptions have drained
// their in-flight messages.
func (c *Consumer) Run(ctx context.Context) error {
	var topics []string
	if c.story != nil {
		topics = append(topics, c.topics.ContentRequested)
	}
	if c.marketing != nil {
		topics = append(topics, c.topics.MarketingRequested)
	}
	if len(topics) == 0 {
		return fmt.Errorf("no workers enabled")
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(topics))
	for _, topic := range topics {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			if err := c.subscriber.Subscribe(ctx, topic, c.HandleMessage); err != nil && ctx.Err() == nil {
				errCh <- fmt.Errorf("subscribe %s: %w", topic, err)
			}
		}(topic)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// HandleMessage processes one delivery end to end. Every path reaches a
// terminal ack or nack; a message is never left outstanding.
func (c *Consumer) HandleMessage(ctx context.Context, msg *pubsub.Message) {
	start := time.Now()

	req, err := events.Decode(msg.Data)
	eventType := "unknown"
	if req != nil {
		eventType = req.EventType()
	}

	metrics.EventsInFlight.WithLabelValues(eventType).Inc()
	defer metrics.EventsInFlight.WithLabelValues(eventType).Dec()

	if err == nil {
		err = c.dispatch(ctx, req)
	}

	if err == nil {
		c.finish(ctx, msg, eventType, stderrors.VerdictAck, start)
		return
	}

	severity := stderrors.Classify(err)
	verdict := stderrors.VerdictFor(severity)

	logFields := map[string]interface{}{
		"messageId": msg.ID,
		"eventType": eventType,
		"severity":  severity.String(),
		"verdict":   verdict.String(),
		"error":     err,
	}
	switch severity {
	case stderrors.SeverityTransient:
		c.logger.Warn("processing failed, leaving message for redelivery", logFields)
	case stderrors.SeverityPermanent:
		c.logger.Error("processing failed permanently, dropping message", logFields)
	default:
		// Conservative drop to avoid an unbounded redelivery loop from a
		// bug; operators get paged instead.
		c.logger.Error("unclassified fault, dropping message and alerting", logFields)
		c.notifier.AlertOperator(ctx, "unclassified pipeline fault",
			fmt.Sprintf("message %s (%s) failed with an unclassified fault: %v", msg.ID, eventType, err))
	}

	c.finish(ctx, msg, eventType, verdict, start)
}

func (c *Consumer) dispatch(ctx context.Context, req events.Request) error {
	switch r := req.(type) {
	case *events.ContentRequest:
		if c.story == nil {
			// A producer can still route this variant onto a topic we
			// subscribe even when the worker is disabled.
			return stderrors.NewUnsupportedEventTypeError(req.EventType())
		}
		return c.story.HandleRequest(ctx, r)
	case *events.MarketingRequest:
		if c.marketing == nil {
			return stderrors.NewUnsupportedEventTypeError(req.EventType())
		}
		return c.marketing.HandleRequest(ctx, r)
	default:
		return stderrors.NewUnsupportedEventTypeError(req.EventType())
	}
}

func (c *Consumer) finish(ctx context.Context, msg *pubsub.Message, eventType string, verdict stderrors.Verdict, start time.Time) {
	if verdict == stderrors.VerdictNack {
		msg.Nack()
	} else if err := msg.Ack(); err != nil {
		c.logger.Error("ack failed", map[string]interface{}{
			"messageId": msg.ID,
			"error":     err,
		})
	}

	elapsed := time.Since(start)
	metrics.EventsProcessed.WithLabelValues(eventType, verdict.String()).Inc()
	metrics.EventProcessingDuration.WithLabelValues(eventType).Observe(elapsed.Seconds())
	if c.obs != nil {
		c.obs.RecordEventProcessed(ctx, verdict.String())
		c.obs.RecordEventDuration(ctx, elapsed, verdict.String())
	}
}
