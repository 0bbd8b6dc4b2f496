package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhaveripatric/webagents/internal/rpc"
)

// Caller sends a request event and waits for the reply.
type Caller interface {
	Call(ctx context.Context, eventType string, data map[string]any, timeout time.Duration) (*rpc.Response, error)
}

// RemoteEvaluator forwards scripts to a browser worker over RabbitMQ.
type RemoteEvaluator struct {
	caller  Caller
	pageURL string
	timeout time.Duration
}

// NewRemoteEvaluator creates an evaluator that runs scripts on pageURL in
// a worker's browser.
func NewRemoteEvaluator(caller Caller, pageURL string, timeout time.Duration) *RemoteEvaluator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteEvaluator{caller: caller, pageURL: pageURL, timeout: timeout}
}

// Evaluate implements Evaluator.
func (e *RemoteEvaluator) Evaluate(ctx context.Context, script string) (any, error) {
	resp, err := e.caller.Call(ctx, rpc.EventExecuteRequested, map[string]any{
		"page_url": e.pageURL,
		"script":   script,
	}, e.timeout)
	if err != nil {
		return nil, fmt.Errorf("remote execute: %w", err)
	}

	switch resp.Type {
	case rpc.EventExecuteSucceeded:
		return resp.Data["result"], nil
	case rpc.EventExecuteFailed:
		msg, _ := resp.Data["error"].(string)
		if msg == "" {
			msg = "remote execution failed"
		}
		return nil, errors.New(msg)
	default:
		return nil, fmt.Errorf("unexpected reply type: %s", resp.Type)
	}
}

// PageEvaluator is an Evaluator bound to an open page.
type PageEvaluator interface {
	Evaluator
	Close() error
}

// OpenFunc opens a page and returns an evaluator for it.
type OpenFunc func(ctx context.Context, pageURL string) (PageEvaluator, error)

// Worker answers execute requests by evaluating them in pages it keeps
// open, one per page URL.
type Worker struct {
	open   OpenFunc
	logger zerolog.Logger

	mu    sync.Mutex
	pages map[string]PageEvaluator
}

// NewWorker creates a worker that opens pages with open.
func NewWorker(open OpenFunc, logger zerolog.Logger) *Worker {
	return &Worker{
		open:   open,
		logger: logger.With().Str("component", "sandbox-worker").Logger(),
		pages:  make(map[string]PageEvaluator),
	}
}

// Handle implements rpc.Handler.
func (w *Worker) Handle(ctx context.Context, eventType string, data map[string]any) (string, map[string]any) {
	if eventType != rpc.EventExecuteRequested {
		return rpc.EventExecuteFailed, map[string]any{"error": "unsupported event type: " + eventType}
	}

	pageURL, _ := data["page_url"].(string)
	script, _ := data["script"].(string)
	if pageURL == "" || script == "" {
		return rpc.EventExecuteFailed, map[string]any{"error": "page_url and script are required"}
	}

	ev, err := w.page(ctx, pageURL)
	if err != nil {
		w.logger.Warn().Err(err).Str("page_url", pageURL).Msg("Failed to open page")
		return rpc.EventExecuteFailed, map[string]any{"error": err.Error()}
	}

	start := time.Now()
	result, err := ev.Evaluate(ctx, script)
	log := w.logger.Debug().Str("page_url", pageURL).Dur("duration", time.Since(start))
	if err != nil {
		log.Err(err).Msg("Script failed")
		return rpc.EventExecuteFailed, map[string]any{"error": err.Error()}
	}
	log.Msg("Script executed")

	reply := map[string]any{}
	if result != nil {
		reply["result"] = result
	}
	return rpc.EventExecuteSucceeded, reply
}

func (w *Worker) page(ctx context.Context, pageURL string) (PageEvaluator, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ev, ok := w.pages[pageURL]; ok {
		return ev, nil
	}
	ev, err := w.open(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	w.pages[pageURL] = ev
	return ev, nil
}

// Close closes every page the worker opened.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for url, ev := range w.pages {
		if err := ev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", url, err))
		}
		delete(w.pages, url)
	}
	return errors.Join(errs...)
}
