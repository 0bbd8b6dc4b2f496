// Package sandbox runs agent-written JavaScript against a page that exposes
// the manifest's functions on the global object.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Evaluator evaluates a JavaScript expression in a page and returns its
// settled value. Promises are awaited. An undefined or null result is nil.
type Evaluator interface {
	Evaluate(ctx context.Context, script string) (any, error)
}

// Wrap turns agent code into an async IIFE with global bound to globalThis.
func Wrap(code string) string {
	return "(async () => { const global = globalThis; " + code + " })()"
}

// Execute wraps code, evaluates it and renders the result as text: nil is
// "undefined", strings pass through, anything else is JSON. A failed
// evaluation is reported as {"error":"<message>"} instead of an error.
func Execute(ctx context.Context, ev Evaluator, code string) string {
	result, err := ev.Evaluate(ctx, Wrap(code))
	if err != nil {
		return errorResult(err)
	}
	return Render(result)
}

// Render formats an evaluation result the way Execute does.
func Render(result any) string {
	switch v := result.(type) {
	case nil:
		return "undefined"
	case string:
		return v
	}

	out, err := marshal(result)
	if err != nil {
		return fmt.Sprint(result)
	}
	return out
}

func errorResult(err error) string {
	out, merr := marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		return `{"error":"evaluation failed"}`
	}
	return out
}

func marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
