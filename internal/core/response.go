package core

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// State is the outcome of a call as carried in a Response.
type State string

const (
	StateSuccess State = "Success"
	StateFailed  State = "Failed"
)

// StatusNetworkError is the status reported when no HTTP response was received.
const StatusNetworkError = 0

// Response is the uniform result envelope returned by every facade call.
type Response[T any] struct {
	Status     int    `json:"status"`
	State      State  `json:"state"`
	StatusText string `json:"statusText"`
	Data       T      `json:"data"`
	Error      error  `json:"-"`
	Message    string `json:"message,omitempty"`
}

// StateFor derives the state from an HTTP status code.
func StateFor(status int) State {
	if status >= 200 && status < 300 {
		return StateSuccess
	}
	return StateFailed
}

// StatusText is http.StatusText with fallbacks for transport failures and
// codes that have no standard text.
func StatusText(status int) string {
	if status == StatusNetworkError {
		return "Network Error"
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", status)
}

// OK reports whether the call succeeded.
func (r Response[T]) OK() bool {
	return r.State == StateSuccess
}

// Err returns nil for a successful response, otherwise an error describing it.
func (r Response[T]) Err() error {
	if r.OK() {
		return nil
	}
	if r.Error != nil {
		return r.Error
	}
	return &StatusError{Status: r.Status, Message: r.Message}
}

// Success builds a successful envelope.
func Success[T any](status int, data T) Response[T] {
	return Response[T]{
		Status:     status,
		State:      StateSuccess,
		StatusText: StatusText(status),
		Data:       data,
	}
}

// Failure builds a failed envelope carrying err. The message defaults to err's text.
func Failure[T any](status int, err error) Response[T] {
	r := Response[T]{
		Status:     status,
		State:      StateFailed,
		StatusText: StatusText(status),
		Error:      err,
		Message:    StatusText(status),
	}
	if err != nil {
		r.Message = err.Error()
	}
	return r
}

// Convert carries the status fields of r over to a response of another type.
// Data is left as the zero value.
func Convert[T, U any](r Response[T]) Response[U] {
	return Response[U]{
		Status:     r.Status,
		State:      r.State,
		StatusText: r.StatusText,
		Error:      r.Error,
		Message:    r.Message,
	}
}

// MarshalJSON renders the envelope with the error as its message text.
func (r Response[T]) MarshalJSON() ([]byte, error) {
	var errText string
	if r.Error != nil {
		errText = r.Error.Error()
	}
	return json.Marshal(struct {
		Status     int    `json:"status"`
		State      State  `json:"state"`
		StatusText string `json:"statusText"`
		Data       T      `json:"data"`
		Error      string `json:"error,omitempty"`
		Message    string `json:"message,omitempty"`
	}{r.Status, r.State, r.StatusText, r.Data, errText, r.Message})
}

// StatusError is a failed upstream status with its message.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return StatusText(e.Status)
}
