package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrTimeout is returned when an RPC call times out.
var ErrTimeout = errors.New("request timeout")

// ErrClosed is returned by Call after Close.
var ErrClosed = errors.New("rpc client closed")

// Event types exchanged with sandbox workers.
const (
	EventExecuteRequested = "io.webagents.sandbox.execute.requested.v1"
	EventExecuteSucceeded = "io.webagents.sandbox.execute.succeeded.v1"
	EventExecuteFailed    = "io.webagents.sandbox.execute.failed.v1"
)

const eventSource = "/webagents"

// Event is the CloudEvents envelope carried in message bodies.
type Event struct {
	SpecVersion     string         `json:"specversion"`
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Source          string         `json:"source"`
	Time            string         `json:"time"`
	DataContentType string         `json:"datacontenttype"`
	Data            map[string]any `json:"data"`
}

// NewEvent wraps data in a CloudEvent of the given type.
func NewEvent(eventType string, data map[string]any) Event {
	return Event{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Type:            eventType,
		Source:          eventSource,
		Time:            time.Now().Format(time.RFC3339),
		DataContentType: "application/json",
		Data:            data,
	}
}

// Call publishes an event and waits for response.
func (c *Client) Call(ctx context.Context, eventType string, data map[string]any, timeout time.Duration) (*Response, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	correlationID := uuid.New().String()
	respChan := make(chan *Response, 1)
	c.pending[correlationID] = respChan
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, correlationID)
		c.mu.Unlock()
	}()

	body, err := json.Marshal(NewEvent(eventType, data))
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	err = c.channel.PublishWithContext(ctx,
		c.exchange,
		RoutingKey(eventType),
		false, false,
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: correlationID,
			ReplyTo:       c.replyQueue,
			Expiration:    fmt.Sprintf("%d", timeout.Milliseconds()),
			Body:          body,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	c.logger.Debug().
		Str("event", eventType).
		Str("correlation_id", correlationID).
		Msg("Published request")

	select {
	case resp := <-respChan:
		return resp, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RoutingKey converts an event type to a routing key.
// io.webagents.sandbox.execute.requested.v1 -> sandbox.execute.requested
func RoutingKey(eventType string) string {
	parts := strings.Split(eventType, ".")
	if len(parts) < 5 || parts[0] != "io" || parts[1] != "webagents" {
		return eventType
	}

	// Remove io.webagents. prefix and .vN suffix
	middle := parts[2 : len(parts)-1]
	return strings.Join(middle, ".")
}
