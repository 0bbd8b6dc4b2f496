package rpc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{EventExecuteRequested, "sandbox.execute.requested"},
		{EventExecuteFailed, "sandbox.execute.failed"},
		{"io.other.sandbox.execute.v1", "io.other.sandbox.execute.v1"},
		{"short.name", "short.name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoutingKey(tt.in), tt.in)
	}
}

func TestNewEvent(t *testing.T) {
	ev := NewEvent(EventExecuteRequested, map[string]any{"script": "1"})

	assert.Equal(t, "1.0", ev.SpecVersion)
	assert.Equal(t, EventExecuteRequested, ev.Type)
	assert.Equal(t, "application/json", ev.DataContentType)
	assert.NotEmpty(t, ev.ID)

	_, err := time.Parse(time.RFC3339, ev.Time)
	assert.NoError(t, err)
}

func TestHandleMessageDeliversToPending(t *testing.T) {
	c := &Client{pending: make(map[string]chan *Response), logger: zerolog.Nop()}
	ch := make(chan *Response, 1)
	c.pending["abc"] = ch

	body, err := json.Marshal(NewEvent(EventExecuteSucceeded, map[string]any{"result": 42.0}))
	require.NoError(t, err)

	c.handleMessage(amqp.Delivery{CorrelationId: "abc", Body: body})

	select {
	case resp := <-ch:
		assert.Equal(t, EventExecuteSucceeded, resp.Type)
		assert.Equal(t, 42.0, resp.Data["result"])
	default:
		t.Fatal("response not delivered")
	}
}

func TestHandleMessageIgnoresUnknownAndGarbage(t *testing.T) {
	c := &Client{pending: make(map[string]chan *Response), logger: zerolog.Nop()}
	ch := make(chan *Response, 1)
	c.pending["abc"] = ch

	c.handleMessage(amqp.Delivery{CorrelationId: "abc", Body: []byte("not json")})
	c.handleMessage(amqp.Delivery{CorrelationId: "other", Body: []byte(`{"type":"x"}`)})

	assert.Empty(t, ch)
}

func TestCallAfterClose(t *testing.T) {
	c := &Client{pending: make(map[string]chan *Response), logger: zerolog.Nop()}
	require.NoError(t, c.Close())

	_, err := c.Call(context.Background(), EventExecuteRequested, nil, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, c.Ready())
}

func TestBuildReply(t *testing.T) {
	reqBody, err := json.Marshal(NewEvent(EventExecuteRequested, map[string]any{"script": "1 + 1"}))
	require.NoError(t, err)

	var gotType string
	var gotData map[string]any
	handler := func(_ context.Context, eventType string, data map[string]any) (string, map[string]any) {
		gotType, gotData = eventType, data
		return EventExecuteSucceeded, map[string]any{"result": 2}
	}

	pub, err := buildReply(context.Background(), amqp.Delivery{CorrelationId: "c1", Body: reqBody}, handler)
	require.NoError(t, err)

	assert.Equal(t, EventExecuteRequested, gotType)
	assert.Equal(t, "1 + 1", gotData["script"])
	assert.Equal(t, "c1", pub.CorrelationId)

	var reply Event
	require.NoError(t, json.Unmarshal(pub.Body, &reply))
	assert.Equal(t, EventExecuteSucceeded, reply.Type)
	assert.Equal(t, 2.0, reply.Data["result"])
}

func TestBuildReplyRejectsGarbage(t *testing.T) {
	called := false
	handler := func(context.Context, string, map[string]any) (string, map[string]any) {
		called = true
		return "", nil
	}

	_, err := buildReply(context.Background(), amqp.Delivery{Body: []byte("{")}, handler)
	assert.Error(t, err)
	assert.False(t, called)
}
