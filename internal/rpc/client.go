package rpc

import (
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Client manages RabbitMQ connections for RPC-style communication.
type Client struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	replyQueue string
	logger     zerolog.Logger

	pending map[string]chan *Response
	mu      sync.RWMutex

	closed bool
}

// Config holds RPC client configuration.
type Config struct {
	URL      string
	Exchange string
	Queue    string // request queue consumed by workers
}

// Response holds the reply event from a worker.
type Response struct {
	Type string
	Data map[string]any
}

// NewClient creates a new RPC client connected to RabbitMQ. Replies arrive
// on an exclusive queue through the default exchange.
func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	conn, ch, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare reply queue: %w", err)
	}

	client := &Client{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		replyQueue: q.Name,
		logger:     logger.With().Str("component", "rpc").Logger(),
		pending:    make(map[string]chan *Response),
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("consume reply queue: %w", err)
	}
	go client.consume(msgs)

	return client, nil
}

func dial(cfg Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

// Close shuts down the client connection.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// Ready returns true if the connection is active.
func (c *Client) Ready() bool {
	return c.conn != nil && !c.conn.IsClosed()
}
