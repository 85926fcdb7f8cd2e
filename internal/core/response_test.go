package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestStateFor(t *testing.T) {
	tests := []struct {
		status int
		want   State
	}{
		{200, StateSuccess},
		{201, StateSuccess},
		{204, StateSuccess},
		{299, StateSuccess},
		{0, StateFailed},
		{199, StateFailed},
		{300, StateFailed},
		{401, StateFailed},
		{500, StateFailed},
	}

	for _, tt := range tests {
		if got := StateFor(tt.status); got != tt.want {
			t.Errorf("StateFor(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestFailure(t *testing.T) {
	r := Failure[int](500, errors.New("no track ids given"))
	if r.OK() {
		t.Error("expected failure")
	}
	if r.StatusText != "Internal Server Error" {
		t.Errorf("StatusText = %q", r.StatusText)
	}
	if r.Message != "no track ids given" {
		t.Errorf("Message = %q", r.Message)
	}

	network := Failure[int](StatusNetworkError, errors.New("dial tcp: refused"))
	if network.StatusText != "Network Error" {
		t.Errorf("StatusText = %q, want Network Error", network.StatusText)
	}
}

func TestStatusText(t *testing.T) {
	tests := map[int]string{
		StatusNetworkError: "Network Error",
		404:                "Not Found",
		599:                "request failed with status 599",
	}
	for status, want := range tests {
		if got := StatusText(status); got != want {
			t.Errorf("StatusText(%d) = %q, want %q", status, got, want)
		}
	}

	r := Failure[int](599, nil)
	if r.StatusText != tests[599] || r.Message != tests[599] {
		t.Errorf("Failure(599) = %+v", r)
	}
}

func TestResponseErr(t *testing.T) {
	if err := Success(200, "ok").Err(); err != nil {
		t.Errorf("Err() on success = %v", err)
	}

	cause := errors.New("boom")
	if err := Failure[string](500, cause).Err(); !errors.Is(err, cause) {
		t.Errorf("Err() = %v, want cause", err)
	}

	r := Response[string]{Status: 404, State: StateFailed, Message: "Not found."}
	var se *StatusError
	if err := r.Err(); !errors.As(err, &se) || se.Status != 404 || err.Error() != "Not found." {
		t.Errorf("Err() = %v", err)
	}

	r = Response[string]{Status: 403, State: StateFailed}
	if err := r.Err(); err.Error() != "Forbidden" {
		t.Errorf("Err() = %q, want Forbidden", err.Error())
	}
}

func TestConvert(t *testing.T) {
	in := Failure[[]byte](401, errors.New("expired"))
	out := Convert[[]byte, Track](in)
	if out.Status != 401 || out.State != StateFailed || out.Message != "expired" {
		t.Errorf("Convert() = %+v", out)
	}
}

func TestResponseMarshalJSON(t *testing.T) {
	r := Failure[*Track](401, errors.New("The access token expired"))
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"status", "state", "statusText", "data", "error", "message"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q in %s", key, b)
		}
	}
	if got["state"] != "Failed" {
		t.Errorf("state = %v", got["state"])
	}
}
