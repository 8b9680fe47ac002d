package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/metrics"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/rabbit"
)

const (
	ExchangePushTopic = "push_topic"

	QueueDriverPush = "driver_push"

	bindingKeyDriverPush = "push.driver.*"
)

// PushBroker публикует и потребляет пуш-уведомления для водителей без
// активного WebSocket-соединения. Потребитель доставляет их через FCM.
type PushBroker struct {
	client *rabbit.RabbitMQ
	l      logger.Logger
}

func NewPushBroker(client *rabbit.RabbitMQ, l logger.Logger) *PushBroker {
	return &PushBroker{client: client, l: l}
}

func (r *PushBroker) publish(ctx context.Context, exchange, routingKey string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		Timestamp:     time.Now(),
		CorrelationId: wrap.GetRequestID(ctx),
	}

	err = retry(5, time.Second*2,
		func() error {
			return r.client.Channel.PublishWithContext(
				ctx,
				exchange,
				routingKey,
				false,
				false,
				pub,
			)
		})
	metrics.RecordRabbitMQPublish("push", QueueDriverPush, err)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

// PublishDriverPush кладёт уведомление в очередь доставки.
func (r *PushBroker) PublishDriverPush(ctx context.Context, msg models.PushMessage) error {
	ctx = wrap.WithAction(ctx, "publish_driver_push")
	key := fmt.Sprintf("push.driver.%d", msg.DriverID)

	if err := r.publish(ctx, ExchangePushTopic, key, msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// declareAndBindQueue объявляет и привязывает очередь к exchange.
func (r *PushBroker) declareAndBindQueue(ctx context.Context, queueName, bindingKey, exchangeName string) (amqp.Queue, error) {
	const op = "PushBroker.declareAndBindQueue"

	q, err := r.client.Channel.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return q, wrap.Error(ctx, fmt.Errorf("%s: declare queue failed: %w", op, err))
	}

	if err := r.client.Channel.QueueBind(q.Name, bindingKey, exchangeName, false, nil); err != nil {
		return q, wrap.Error(ctx, fmt.Errorf("%s: bind queue failed: %w", op, err))
	}

	return q, nil
}

type PushHandlerFunc func(ctx context.Context, msg models.PushMessage) error

func (r *PushBroker) handleMessage(ctx context.Context, fn PushHandlerFunc, msg amqp.Delivery) {
	const op = "PushBroker.handleMessage"

	var req models.PushMessage
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		r.l.Error(ctx, "decode failed", err, "op", op)
		metrics.RecordRabbitMQConsume("push", QueueDriverPush, err)
		_ = msg.Nack(false, false)
		return
	}

	ctxx := wrap.WithRequestID(ctx, msg.CorrelationId)

	if err := fn(ctxx, req); err != nil {
		r.l.Error(ctxx, "failed to deliver push", err, "op", op, "driver_id", req.DriverID)
		metrics.RecordRabbitMQConsume("push", QueueDriverPush, err)

		// Доставка через FCM не повторяется: уведомление уже неактуально.
		_ = msg.Reject(false)
		return
	}

	metrics.RecordRabbitMQConsume("push", QueueDriverPush, nil)
	if err := msg.Ack(false); err != nil {
		r.l.Warn(ctxx, "ack failed", err, "op", op)
	}
}

// ConsumeDriverPush слушает push.driver.* события и передаёт их в обработчик fn.
func (r *PushBroker) ConsumeDriverPush(ctx context.Context, fn PushHandlerFunc) error {
	const op = "PushBroker.ConsumeDriverPush"

	// Основной цикл потребителя
	for {
		if ctx.Err() != nil {
			r.l.Debug(ctx, "consume driver push stopped by context")
			return nil
		}

		// Проверяем и восстанавливаем соединение
		if err := r.client.EnsureConnection(ctx); err != nil {
			r.l.Error(ctx, "ensure connection failed", err, "op", op)
			time.Sleep(2 * time.Second)
			continue
		}

		// Гарантируем наличие exchange
		if err := r.client.Channel.ExchangeDeclare(ExchangePushTopic, "topic", true, false, false, false, nil); err != nil {
			r.l.Error(ctx, "declare exchange failed", err, "op", op)
			time.Sleep(3 * time.Second)
			continue
		}

		// Объявляем и биндим очередь
		q, err := r.declareAndBindQueue(ctx, QueueDriverPush, bindingKeyDriverPush, ExchangePushTopic)
		if err != nil {
			r.l.Error(ctx, "declare queue failed", err, "op", op)
			time.Sleep(2 * time.Second)
			continue
		}

		// Подписываемся на очередь
		msgs, err := r.client.Channel.Consume(q.Name, "", false, false, false, false, nil)
		if err != nil {
			r.l.Error(ctx, "consume failed", err, "op", op)
			time.Sleep(2 * time.Second)
			continue
		}

		r.l.Info(ctx, "start consuming driver push", "queue", q.Name)

		// Цикл чтения сообщений
	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				r.l.Info(ctx, "driver push consumer shutting down", "op", op)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					r.l.Warn(ctx, "message channel closed, reconnecting...", "op", op)
					time.Sleep(2 * time.Second)
					break consumeLoop
				}

				go r.handleMessage(ctx, fn, msg)
			}
		}
	}
}

// EnsureTopology объявляет exchange на стороне издателя, чтобы публикация
// не зависела от порядка запуска сервисов.
func (r *PushBroker) EnsureTopology(ctx context.Context) error {
	const op = "PushBroker.EnsureTopology"

	if err := r.client.Channel.ExchangeDeclare(ExchangePushTopic, "topic", true, false, false, false, nil); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: declare exchange failed: %w", op, err))
	}
	if _, err := r.declareAndBindQueue(ctx, QueueDriverPush, bindingKeyDriverPush, ExchangePushTopic); err != nil {
		return err
	}
	if err := r.client.Channel.ExchangeDeclare(ExchangeWSTopic, "topic", true, false, false, false, nil); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: declare exchange failed: %w", op, err))
	}
	return nil
}
