package discovery

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a page carries no webagents-md meta tag.
var ErrNotFound = errors.New("no webagents.md manifest referenced")

// FetchError reports a failed fetch: a transport error or a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
