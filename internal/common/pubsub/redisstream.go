package pubsub

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"artisan-workers/internal/common/config"
	"artisan-workers/internal/common/logger"
)

const (
	fieldData   = "data"
	attrPrefix  = "attr:"
	autoClaimID = "0-0"
)

// RedisStreams implements Publisher and Subscriber on Redis Streams with
// consumer groups. Ack maps to XACK; Nack is a no-op that leaves the entry
// in the pending list, where the idle-claim loop picks it up for
// redelivery.
type RedisStreams struct {
	rdb    *redis.Client
	cfg    config.TransportConfig
	logger logger.Logger
}

func NewRedisStreams(rdb *redis.Client, cfg config.TransportConfig, log logger.Logger) *RedisStreams {
	return &RedisStreams{
		rdb:    rdb,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "pubsub"}),
	}
}

func (t *RedisStreams) stream(topic string) string {
	return t.cfg.StreamPrefix + topic
}

func (t *RedisStreams) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	values := map[string]interface{}{fieldData: string(data)}
	for k, v := range attrs {
		values[attrPrefix+k] = v
	}

	id, err := t.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: t.stream(topic),
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", topic, err)
	}
	return id, nil
}

func (t *RedisStreams) Subscribe(ctx context.Context, topic string, h Handler) error {
	stream := t.stream(topic)

	if err := t.ensureGroup(ctx, stream); err != nil {
		return err
	}

	var wg sync.WaitGroup
	// Semaphore bounding concurrent handlers; this is the transport-side
	// flow control the pipeline relies on.
	sem := make(chan struct{}, t.cfg.MaxInFlight)

	claimEvery := time.Duration(t.cfg.ClaimIdleSecs) * time.Second
	lastClaim := time.Now()

	t.logger.Info("subscribed", map[string]interface{}{
		"topic":    topic,
		"group":    t.cfg.ConsumerGroup,
		"consumer": t.cfg.ConsumerName,
	})

	for {
		if ctx.Err() != nil {
			break
		}

		res, err := t.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    t.cfg.ConsumerGroup,
			Consumer: t.cfg.ConsumerName,
			Streams:  []string{stream, ">"},
			Count:    int64(t.cfg.MaxInFlight),
			Block:    time.Duration(t.cfg.BlockMillis) * time.Millisecond,
		}).Result()

		switch {
		case err == redis.Nil:
			// No new entries within the block window.
		case err != nil:
			if ctx.Err() != nil {
				break
			}
			t.logger.Warn("read failed, backing off", map[string]interface{}{
				"topic": topic,
				"error": err.Error(),
			})
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		default:
			for _, streamRes := range res {
				for _, entry := range streamRes.Messages {
					t.dispatch(ctx, stream, entry, h, &wg, sem)
				}
			}
		}

		if time.Since(lastClaim) >= claimEvery {
			t.claimStale(ctx, stream, h, &wg, sem)
			lastClaim = time.Now()
		}
	}

	wg.Wait()
	t.logger.Info("subscription drained", map[string]interface{}{"topic": topic})
	return nil
}

// claimStale redelivers entries another consumer (or a previous run of this
// one) left pending longer than the configured idle threshold.
func (t *RedisStreams) claimStale(ctx context.Context, stream string, h Handler, wg *sync.WaitGroup, sem chan struct{}) {
	minIdle := time.Duration(t.cfg.ClaimIdleSecs) * time.Second

	entries, _, err := t.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    t.cfg.ConsumerGroup,
		Consumer: t.cfg.ConsumerName,
		MinIdle:  minIdle,
		Start:    autoClaimID,
		Count:    int64(t.cfg.MaxInFlight),
	}).Result()
	if err != nil {
		if ctx.Err() == nil {
			t.logger.Warn("autoclaim failed", map[string]interface{}{
				"stream": stream,
				"error":  err.Error(),
			})
		}
		return
	}

	for _, entry := range entries {
		t.logger.Info("redelivering pending entry", map[string]interface{}{
			"stream": stream,
			"id":     entry.ID,
		})
		t.dispatch(ctx, stream, entry, h, wg, sem)
	}
}

func (t *RedisStreams) dispatch(ctx context.Context, stream string, entry redis.XMessage, h Handler, wg *sync.WaitGroup, sem chan struct{}) {
	msg := t.toMessage(stream, entry)

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		// Shutting down before the handler started: leave the entry
		// pending so it is redelivered.
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() { <-sem }()
		h(ctx, msg)
	}()
}

func (t *RedisStreams) toMessage(stream string, entry redis.XMessage) *Message {
	var data []byte
	attrs := map[string]string{}
	for k, v := range entry.Values {
		s, _ := v.(string)
		switch {
		case k == fieldData:
			data = []byte(s)
		case strings.HasPrefix(k, attrPrefix):
			attrs[strings.TrimPrefix(k, attrPrefix)] = s
		}
	}

	id := entry.ID
	ack := func() error {
		// Acking must survive the consume context being canceled mid-drain.
		return t.rdb.XAck(context.Background(), stream, t.cfg.ConsumerGroup, id).Err()
	}
	nack := func() {
		// Deliberate no-op: the entry stays in the pending list and the
		// idle-claim loop redelivers it.
	}

	return NewMessage(id, data, attrs, ack, nack)
}

func (t *RedisStreams) ensureGroup(ctx context.Context, stream string) error {
	err := t.rdb.XGroupCreateMkStream(ctx, stream, t.cfg.ConsumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", t.cfg.ConsumerGroup, stream, err)
	}
	return nil
}
