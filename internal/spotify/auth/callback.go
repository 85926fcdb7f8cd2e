package auth

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"time"
)

// CallbackResult contains the result of the OAuth callback.
type CallbackResult struct {
	Code  string
	State string
	Error string
}

// CallbackServer receives the authorization redirect during `cody auth login`.
type CallbackServer struct {
	server   *http.Server
	listener net.Listener
	state    string
	result   chan CallbackResult
}

// NewCallbackServer listens on port and serves path. A redirect whose state
// differs from the expected one is reported as a state_mismatch error.
func NewCallbackServer(port int, path, state string) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", port, err)
	}
	if path == "" {
		path = "/callback"
	}

	cs := &CallbackServer{
		listener: listener,
		state:    state,
		result:   make(chan CallbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, cs.handleCallback)

	cs.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return cs, nil
}

// Start begins serving HTTP requests in the background.
func (cs *CallbackServer) Start() {
	go func() {
		_ = cs.server.Serve(cs.listener)
	}()
}

// Wait blocks until a callback is received or ctx is done.
func (cs *CallbackServer) Wait(ctx context.Context) (CallbackResult, error) {
	select {
	case result := <-cs.result:
		return result, nil
	case <-ctx.Done():
		return CallbackResult{}, ctx.Err()
	}
}

// Shutdown gracefully shuts down the server.
func (cs *CallbackServer) Shutdown(ctx context.Context) error {
	return cs.server.Shutdown(ctx)
}

// Port returns the port the server is listening on.
func (cs *CallbackServer) Port() int {
	return cs.listener.Addr().(*net.TCPAddr).Port
}

func (cs *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result := CallbackResult{
		Code:  query.Get("code"),
		State: query.Get("state"),
		Error: query.Get("error"),
	}
	if result.Error == "" && cs.state != "" && result.State != cs.state {
		result.Error = "state_mismatch"
		result.Code = ""
	}

	// Duplicate callbacks are dropped.
	select {
	case cs.result <- result:
	default:
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if result.Error != "" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, resultPage, "Authorization Failed", "Error: "+html.EscapeString(result.Error))
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, resultPage, "cody is authorized", "You can close this window and return to the terminal.")
}

const resultPage = `<!DOCTYPE html>
<html>
<head><title>cody</title></head>
<body>
<h1>%s</h1>
<p>%s</p>
</body>
</html>`
