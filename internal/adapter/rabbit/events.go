package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/metrics"
)

const (
	ExchangeWSTopic = "ws_topic"

	queueWSEventsFmt = "ws_events.%s"
)

// wsBindings - какие аудитории слушает каждый сервис. Сокеты водителей и
// клиентов живут в driver-service, диспетчерские в dispatcher-service.
var wsBindings = map[types.ServiceMode][]types.WSAudience{
	types.DriverService: {
		types.AudienceDriver,
		types.AudienceClient,
		types.AudienceParkDrivers,
	},
	types.DispatcherService: {
		types.AudienceDispatchers,
	},
}

func wsRoutingKey(audience types.WSAudience) string {
	return "ws." + string(audience)
}

// PublishWSEvent публикует событие для сокетов другого сервиса.
func (r *PushBroker) PublishWSEvent(ctx context.Context, ev models.WSEvent) error {
	ctx = wrap.WithAction(ctx, "publish_ws_event")

	if err := r.publish(ctx, ExchangeWSTopic, wsRoutingKey(ev.Audience), ev); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

type WSHandlerFunc func(ctx context.Context, ev models.WSEvent) error

func (r *PushBroker) handleWSMessage(ctx context.Context, queue string, fn WSHandlerFunc, msg amqp.Delivery) {
	const op = "PushBroker.handleWSMessage"

	var ev models.WSEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		r.l.Error(ctx, "decode failed", err, "op", op)
		metrics.RecordRabbitMQConsume("ws", queue, err)
		_ = msg.Nack(false, false)
		return
	}

	ctxx := wrap.WithRequestID(ctx, msg.CorrelationId)

	if err := fn(ctxx, ev); err != nil {
		r.l.Error(ctxx, "failed to deliver ws event", err, "op", op, "audience", ev.Audience)
		metrics.RecordRabbitMQConsume("ws", queue, err)

		// Доставка best-effort: событие устаревает быстрее, чем повтор.
		_ = msg.Reject(false)
		return
	}

	metrics.RecordRabbitMQConsume("ws", queue, nil)
	if err := msg.Ack(false); err != nil {
		r.l.Warn(ctxx, "ack failed", err, "op", op)
	}
}

// declareWSQueue объявляет очередь сервиса и биндит её под его аудитории.
func (r *PushBroker) declareWSQueue(ctx context.Context, mode types.ServiceMode) (amqp.Queue, error) {
	const op = "PushBroker.declareWSQueue"

	queueName := fmt.Sprintf(queueWSEventsFmt, mode)
	q, err := r.client.Channel.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return q, wrap.Error(ctx, fmt.Errorf("%s: declare queue failed: %w", op, err))
	}

	for _, audience := range wsBindings[mode] {
		if err := r.client.Channel.QueueBind(q.Name, wsRoutingKey(audience), ExchangeWSTopic, false, nil); err != nil {
			return q, wrap.Error(ctx, fmt.Errorf("%s: bind queue failed: %w", op, err))
		}
	}

	return q, nil
}

// ConsumeWSEvents слушает события для аудиторий сервиса mode и передаёт их в fn.
func (r *PushBroker) ConsumeWSEvents(ctx context.Context, mode types.ServiceMode, fn WSHandlerFunc) error {
	const op = "PushBroker.ConsumeWSEvents"

	for {
		if ctx.Err() != nil {
			r.l.Debug(ctx, "consume ws events stopped by context")
			return nil
		}

		if err := r.client.EnsureConnection(ctx); err != nil {
			r.l.Error(ctx, "ensure connection failed", err, "op", op)
			time.Sleep(2 * time.Second)
			continue
		}

		if err := r.client.Channel.ExchangeDeclare(ExchangeWSTopic, "topic", true, false, false, false, nil); err != nil {
			r.l.Error(ctx, "declare exchange failed", err, "op", op)
			time.Sleep(3 * time.Second)
			continue
		}

		q, err := r.declareWSQueue(ctx, mode)
		if err != nil {
			r.l.Error(ctx, "declare queue failed", err, "op", op)
			time.Sleep(2 * time.Second)
			continue
		}

		msgs, err := r.client.Channel.Consume(q.Name, "", false, false, false, false, nil)
		if err != nil {
			r.l.Error(ctx, "consume failed", err, "op", op)
			time.Sleep(2 * time.Second)
			continue
		}

		r.l.Info(ctx, "start consuming ws events", "queue", q.Name)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				r.l.Info(ctx, "ws events consumer shutting down", "op", op)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					r.l.Warn(ctx, "message channel closed, reconnecting...", "op", op)
					time.Sleep(2 * time.Second)
					break consumeLoop
				}

				go r.handleWSMessage(ctx, q.Name, fn, msg)
			}
		}
	}
}
