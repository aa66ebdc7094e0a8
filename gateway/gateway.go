// Package gateway issues the two remote calls the editor needs, upserting a
// draft and moving it into review, and reports both as a Result.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"flyingbus/models"
)

var (
	ErrMalformedResponse = errors.New("gateway: malformed response")
	ErrUnknownFailure    = errors.New("gateway: call failed without an error")
)

// Result is the normalized outcome of a gateway call.
type Result struct {
	Success bool
	ID      string
	Error   error
}

func OK(id string) Result {
	return Result{Success: true, ID: id}
}

func Fail(err error) Result {
	if err == nil {
		err = ErrUnknownFailure
	}
	return Result{Error: err}
}

// Err returns nil for a successful result.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == nil {
		return ErrUnknownFailure
	}
	return r.Error
}

// Gateway makes a single attempt per call. Callers own retry decisions.
type Gateway interface {
	UpsertDraft(ctx context.Context, record models.DraftRecord) Result
	TransitionStatus(ctx context.Context, id string) Result
}

// RemoteError is a failure reported by the backing store.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return "gateway: remote error: " + e.Message
	}
	return fmt.Sprintf("gateway: remote error (%d): %s", e.StatusCode, e.Message)
}
