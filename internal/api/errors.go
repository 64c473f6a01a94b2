package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
)

// ErrNotFound is returned when the backend has no task with the given id.
var ErrNotFound = errors.New("not found")

// ErrTimeout is returned when a request exceeds the configured timeout.
var ErrTimeout = errors.New("request timed out")

// APIError is a failed backend response: a non-2xx status or a body with
// success set to false.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, msg)
}

// Is reports 404 responses as ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// wrapError turns transport failures into messages a user can act on.
func (c *Client) wrapError(op string, parent context.Context, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}

	// The caller gave up; pass that through untouched.
	if parent.Err() != nil && errors.Is(err, parent.Err()) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w after %s", op, ErrTimeout, c.timeout)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%s: cannot reach backend at %s: %w", op, c.baseURL, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
