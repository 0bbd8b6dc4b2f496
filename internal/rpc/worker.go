package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Handler answers one request event with a reply event type and data.
type Handler func(ctx context.Context, eventType string, data map[string]any) (string, map[string]any)

// Worker consumes request events from a durable queue and replies to the
// caller's reply queue.
type Worker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  zerolog.Logger
}

// NewWorker connects to RabbitMQ and binds cfg.Queue to the routing keys of
// the given event types.
func NewWorker(cfg Config, logger zerolog.Logger, eventTypes ...string) (*Worker, error) {
	conn, ch, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
		logger:  logger.With().Str("component", "rpc-worker").Logger(),
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		w.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}
	for _, et := range eventTypes {
		key := RoutingKey(et)
		if err := ch.QueueBind(cfg.Queue, key, cfg.Exchange, false, nil); err != nil {
			w.Close()
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	if err := ch.Qos(1, 0, false); err != nil {
		w.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return w, nil
}

// Serve handles deliveries until ctx is cancelled or the channel closes.
func (w *Worker) Serve(ctx context.Context, handler Handler) error {
	msgs, err := w.channel.Consume(w.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", w.queue, err)
	}

	w.logger.Info().Str("queue", w.queue).Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			w.handle(ctx, msg, handler)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg amqp.Delivery, handler Handler) {
	reply, err := buildReply(ctx, msg, handler)
	if err != nil {
		w.logger.Warn().Err(err).Str("correlation_id", msg.CorrelationId).Msg("Rejecting request")
		msg.Nack(false, false)
		return
	}

	if msg.ReplyTo != "" {
		err = w.channel.PublishWithContext(ctx, "", msg.ReplyTo, false, false, reply)
		if err != nil {
			w.logger.Error().Err(err).Str("correlation_id", msg.CorrelationId).Msg("Failed to publish reply")
		}
	}
	msg.Ack(false)
}

// buildReply decodes a request delivery, runs the handler and encodes the
// reply. It does not touch the broker.
func buildReply(ctx context.Context, msg amqp.Delivery, handler Handler) (amqp.Publishing, error) {
	var req Event
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		return amqp.Publishing{}, fmt.Errorf("parse request: %w", err)
	}

	replyType, data := handler(ctx, req.Type, req.Data)
	body, err := json.Marshal(NewEvent(replyType, data))
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal reply: %w", err)
	}

	return amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: msg.CorrelationId,
		Body:          body,
	}, nil
}

// Close shuts down the worker connection.
func (w *Worker) Close() error {
	if w.channel != nil {
		w.channel.Close()
	}
	if w.conn != nil {
		w.conn.Close()
	}
	return nil
}
