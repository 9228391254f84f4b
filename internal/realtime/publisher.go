package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/stockinator-service/internal/logger"
	"go.uber.org/zap"
)

// Publisher sends a change event to every service instance.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// MessageWriter is satisfied by *broker.KafkaProducer.
type MessageWriter interface {
	Publish(ctx context.Context, key, value []byte) error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish keys the message by business so one business's changes stay
// ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.writer.Publish(ctx, []byte(ev.BusinessID), data)
}

// LocalPublisher dispatches in-process. Used when no broker is configured,
// which only works for a single instance.
type LocalPublisher struct {
	dispatcher *Dispatcher
}

func NewLocalPublisher(d *Dispatcher) *LocalPublisher {
	return &LocalPublisher{dispatcher: d}
}

func (p *LocalPublisher) Publish(ctx context.Context, ev Event) error {
	p.dispatcher.Dispatch(ctx, ev)
	return nil
}

const publishTimeout = 5 * time.Second

// PublishChange builds the change event and publishes it before returning,
// so one business's changes leave in the order they were committed.
// Failures are only logged because the database write already succeeded.
func PublishChange(ctx context.Context, p Publisher, log logger.ZapLogger, typ EventType, table, businessID string, record, old interface{}) {
	if p == nil {
		return
	}
	ev, err := NewEvent(typ, table, businessID, record, old)
	if err != nil {
		log.Error("failed to build change event", zap.String("table", table), zap.Error(err))
		return
	}
	Send(ctx, p, log, ev)
}

// Send publishes an already built event. The caller's cancellation is
// ignored so a client hanging up mid-request does not lose the change.
func Send(ctx context.Context, p Publisher, log logger.ZapLogger, ev Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, ev); err != nil {
		log.Error("failed to publish change event",
			zap.String("table", ev.Table),
			zap.String("type", string(ev.Type)),
			zap.Error(err))
	}
}
