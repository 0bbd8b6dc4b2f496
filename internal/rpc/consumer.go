package rpc

import (
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

func (c *Client) consume(msgs <-chan amqp.Delivery) {
	for msg := range msgs {
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg amqp.Delivery) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to parse response")
		return
	}

	c.mu.RLock()
	respChan, ok := c.pending[msg.CorrelationId]
	c.mu.RUnlock()

	if !ok {
		// Caller already timed out or gave up.
		c.logger.Debug().Str("correlation_id", msg.CorrelationId).Msg("Dropping unmatched response")
		return
	}

	select {
	case respChan <- &Response{Type: event.Type, Data: event.Data}:
	default:
	}
}
