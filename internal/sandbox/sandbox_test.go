package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhaveripatric/webagents/internal/rpc"
)

type fakeEvaluator struct {
	result  any
	err     error
	scripts []string
	closed  bool
}

func (f *fakeEvaluator) Evaluate(_ context.Context, script string) (any, error) {
	f.scripts = append(f.scripts, script)
	return f.result, f.err
}

func (f *fakeEvaluator) Close() error {
	f.closed = true
	return nil
}

func TestWrap(t *testing.T) {
	assert.Equal(t,
		"(async () => { const global = globalThis; return await global.search('x'); })()",
		Wrap("return await global.search('x');"))
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name   string
		result any
		err    error
		want   string
	}{
		{"undefined", nil, nil, "undefined"},
		{"string passes through", "hello", nil, "hello"},
		{"number", 42.0, nil, "42"},
		{"bool", true, nil, "true"},
		{"object", map[string]any{"title": "Dune", "tags": []any{"<sf>"}}, nil, `{"tags":["<sf>"],"title":"Dune"}`},
		{"failure", nil, errors.New("ReferenceError: nope is not defined"), `{"error":"ReferenceError: nope is not defined"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &fakeEvaluator{result: tt.result, err: tt.err}

			got := Execute(context.Background(), ev, "return 1;")
			assert.Equal(t, tt.want, got)
			require.Len(t, ev.scripts, 1)
			assert.Equal(t, Wrap("return 1;"), ev.scripts[0])
		})
	}
}

type fakeCaller struct {
	resp      *rpc.Response
	err       error
	eventType string
	data      map[string]any
	timeout   time.Duration
}

func (f *fakeCaller) Call(_ context.Context, eventType string, data map[string]any, timeout time.Duration) (*rpc.Response, error) {
	f.eventType, f.data, f.timeout = eventType, data, timeout
	return f.resp, f.err
}

func TestRemoteEvaluator(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		caller := &fakeCaller{resp: &rpc.Response{Type: rpc.EventExecuteSucceeded, Data: map[string]any{"result": "ok"}}}
		ev := NewRemoteEvaluator(caller, "https://shop.example", 0)

		got, err := ev.Evaluate(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, rpc.EventExecuteRequested, caller.eventType)
		assert.Equal(t, "https://shop.example", caller.data["page_url"])
		assert.Equal(t, "1", caller.data["script"])
		assert.Equal(t, 30*time.Second, caller.timeout)
	})

	t.Run("missing result is undefined", func(t *testing.T) {
		caller := &fakeCaller{resp: &rpc.Response{Type: rpc.EventExecuteSucceeded, Data: map[string]any{}}}

		out := Execute(context.Background(), NewRemoteEvaluator(caller, "u", time.Second), "return;")
		assert.Equal(t, "undefined", out)
	})

	t.Run("failure reply", func(t *testing.T) {
		caller := &fakeCaller{resp: &rpc.Response{Type: rpc.EventExecuteFailed, Data: map[string]any{"error": "boom"}}}

		out := Execute(context.Background(), NewRemoteEvaluator(caller, "u", time.Second), "throw 1")
		assert.Equal(t, `{"error":"boom"}`, out)
	})

	t.Run("transport error", func(t *testing.T) {
		caller := &fakeCaller{err: rpc.ErrTimeout}

		_, err := NewRemoteEvaluator(caller, "u", time.Second).Evaluate(context.Background(), "1")
		assert.ErrorIs(t, err, rpc.ErrTimeout)
	})
}

func TestWorkerHandle(t *testing.T) {
	page := &fakeEvaluator{result: map[string]any{"n": 1.0}}
	opened := 0
	open := func(_ context.Context, url string) (PageEvaluator, error) {
		opened++
		if url == "https://bad.example" {
			return nil, errors.New("net::ERR_NAME_NOT_RESOLVED")
		}
		return page, nil
	}
	w := NewWorker(open, zerolog.Nop())
	ctx := context.Background()

	typ, data := w.Handle(ctx, rpc.EventExecuteRequested, map[string]any{"page_url": "https://shop.example", "script": "1"})
	assert.Equal(t, rpc.EventExecuteSucceeded, typ)
	assert.Equal(t, map[string]any{"n": 1.0}, data["result"])

	w.Handle(ctx, rpc.EventExecuteRequested, map[string]any{"page_url": "https://shop.example", "script": "2"})
	assert.Equal(t, 1, opened, "page is reused")
	assert.Equal(t, []string{"1", "2"}, page.scripts)

	typ, data = w.Handle(ctx, rpc.EventExecuteRequested, map[string]any{"page_url": "https://bad.example", "script": "1"})
	assert.Equal(t, rpc.EventExecuteFailed, typ)
	assert.Contains(t, data["error"], "ERR_NAME_NOT_RESOLVED")

	typ, _ = w.Handle(ctx, rpc.EventExecuteRequested, map[string]any{"script": "1"})
	assert.Equal(t, rpc.EventExecuteFailed, typ)

	typ, _ = w.Handle(ctx, "io.webagents.other.v1", nil)
	assert.Equal(t, rpc.EventExecuteFailed, typ)

	page.result = nil
	typ, data = w.Handle(ctx, rpc.EventExecuteRequested, map[string]any{"page_url": "https://shop.example", "script": "3"})
	assert.Equal(t, rpc.EventExecuteSucceeded, typ)
	assert.NotContains(t, data, "result")

	require.NoError(t, w.Close())
	assert.True(t, page.closed)
}
