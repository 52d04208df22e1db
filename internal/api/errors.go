package api

import (
	"errors"
	"fmt"
)

// ErrUnrecoverableSession signals that the account's credential is
// permanently invalid (revoked or deactivated). It is never retried: the
// control loop lets it propagate and terminates the account's run.
var ErrUnrecoverableSession = errors.New("session unrecoverable")

// ErrConflict signals an expected negative result: the server rejected an
// action because its preconditions moved (price changed, cooldown started).
// Callers treat it as a normal miss, not an error to retry.
var ErrConflict = errors.New("action rejected by server state")

// RemoteError wraps a failed remote call with the action attempted and a
// truncated view of the raw response, so an absorbed error can be diagnosed
// from the log alone.
type RemoteError struct {
	// Action is the remote operation that failed
	Action string

	// StatusCode is the HTTP status, zero for transport failures
	StatusCode int

	// Body is a truncated copy of the raw response body
	Body string

	// Err is the underlying cause
	Err error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Action, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsUnrecoverable reports whether err carries the unrecoverable-session
// signal at any wrapping depth.
func IsUnrecoverable(err error) bool {
	return errors.Is(err, ErrUnrecoverableSession)
}

// IsConflict reports whether err is an expected-conflict rejection.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// truncateBody bounds a raw response body for log output.
func truncateBody(body []byte) string {
	const maxBody = 128
	if len(body) > maxBody {
		return string(body[:maxBody]) + "..."
	}
	return string(body)
}
