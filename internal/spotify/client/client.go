package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/tessro/cody/internal/core"
	cerrors "github.com/tessro/cody/internal/errors"
	"github.com/tessro/cody/internal/logging"
	"github.com/tessro/cody/internal/spotify/auth"
)

const (
	// BaseURL is the Spotify Web API base URL.
	BaseURL = "https://api.spotify.com/v1"

	// DefaultTimeout bounds every HTTP exchange.
	DefaultTimeout = 30 * time.Second
)

// Response is the raw envelope of one API exchange. Data holds the response
// body of a successful call.
type Response = core.Response[json.RawMessage]

// Refresher obtains a new access token and stores it in the credentials.
type Refresher interface {
	Refresh(ctx context.Context, creds *auth.Credentials) (*auth.Token, error)
}

// Client is a Spotify API client. Every call goes through Do, which retries
// exactly once after a successful token refresh when the API answers 401.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      *auth.Credentials
	refresher  Refresher
	limiter    *rate.Limiter
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the client at another API host, mostly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithRefresher sets the token refresher used on 401 responses.
func WithRefresher(r Refresher) Option {
	return func(c *Client) {
		c.refresher = r
	}
}

// WithRateLimit caps outgoing requests to perSecond. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a new Spotify client reading tokens from creds. Without
// WithRefresher a refresher for the Spotify token endpoint is used.
func New(creds *auth.Credentials, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
		creds:      creds,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.refresher == nil {
		c.refresher = auth.NewRefresher(auth.SpotifyTokenURL, c.httpClient, c.logger)
	}
	return c
}

// Credentials returns the credential store the client reads from.
func (c *Client) Credentials() *auth.Credentials {
	return c.creds
}

// Configured reports whether the client holds an access token or a refresh
// token. Without either, every call is bound to fail.
func (c *Client) Configured() bool {
	return c.creds.Configured()
}

// NotConfigured is the envelope returned instead of calling the API when
// Configured is false.
func NotConfigured[T any]() core.Response[T] {
	return core.Failure[T](http.StatusUnauthorized, cerrors.ErrMissingCredentials)
}

// BaseURL returns the API base the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request to the Spotify API.
func (c *Client) Get(ctx context.Context, path string) Response {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request to the Spotify API.
func (c *Client) Post(ctx context.Context, path string, body any) Response {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request to the Spotify API.
func (c *Client) Put(ctx context.Context, path string, body any) Response {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request to the Spotify API.
func (c *Client) Delete(ctx context.Context, path string, body any) Response {
	return c.Do(ctx, http.MethodDelete, path, body)
}

// Do sends one request. On 401 it refreshes the access token once and, if
// the refresh succeeded, sends the request exactly once more; that second
// result is returned as-is. A failed refresh returns the original 401.
func (c *Client) Do(ctx context.Context, method, path string, body any) Response {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return core.Failure[json.RawMessage](http.StatusInternalServerError,
				fmt.Errorf("failed to marshal request body: %w", err))
		}
	}

	logger := c.logger.With("id", logging.RequestID(), "method", method, "path", path)

	resp := c.send(ctx, logger, method, path, payload)
	if resp.Status != http.StatusUnauthorized || c.refresher == nil {
		return resp
	}

	logger.Debug("access token rejected, refreshing")
	if _, err := c.refresher.Refresh(ctx, c.creds); err != nil {
		logger.Warn("token refresh failed", "err", err)
		return resp
	}

	return c.send(ctx, logger, method, path, payload)
}

func (c *Client) send(ctx context.Context, logger *log.Logger, method, path string, payload []byte) Response {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return core.Failure[json.RawMessage](core.StatusNetworkError, fmt.Errorf("%w: %w", cerrors.ErrNetworkError, err))
		}
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), bodyReader)
	if err != nil {
		return core.Failure[json.RawMessage](http.StatusInternalServerError, fmt.Errorf("failed to create request: %w", err))
	}

	if token := c.creds.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("network error", "err", err)
		return core.Failure[json.RawMessage](core.StatusNetworkError, fmt.Errorf("%w: %w", cerrors.ErrNetworkError, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Failure[json.RawMessage](core.StatusNetworkError, fmt.Errorf("%w: failed to read response: %w", cerrors.ErrNetworkError, err))
	}

	logger.Debug("response", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(respBody) > 0 {
			logger.Debug("response body", "body", string(respBody))
		}
		return failed(resp.StatusCode, respBody)
	}

	var data json.RawMessage
	if len(bytes.TrimSpace(respBody)) > 0 {
		data = respBody
	}
	return core.Success(resp.StatusCode, data)
}

// failed builds the envelope for a non-2xx status, taking the message from
// the Spotify error body when there is one.
func failed(status int, body []byte) Response {
	apiErr := &APIError{}
	apiErr.ErrorInfo.Status = status
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.ErrorInfo.Message == "" {
		apiErr.ErrorInfo.Message = core.StatusText(status)
	}
	if apiErr.ErrorInfo.Status == 0 {
		apiErr.ErrorInfo.Status = status
	}

	return Response{
		Status:     status,
		State:      core.StateFailed,
		StatusText: core.StatusText(status),
		Error:      apiErr,
		Message:    apiErr.ErrorInfo.Message,
	}
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// relative turns an absolute next link back into a path on this client's
// API host. It reports false for links to any other host.
func (c *Client) relative(link string) (string, bool) {
	for _, base := range []string{c.baseURL, BaseURL} {
		if rest, ok := strings.CutPrefix(link, base); ok {
			if rest == "" || strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "?") {
				return rest, true
			}
		}
	}
	if strings.HasPrefix(link, "/") {
		return link, true
	}
	return "", false
}

// Decode unmarshals the data of a successful response into T. Failed
// responses carry over with a zero T; an empty body decodes to the zero T.
func Decode[T any](r Response) core.Response[T] {
	if !r.OK() {
		return core.Convert[json.RawMessage, T](r)
	}

	var v T
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &v); err != nil {
			return core.Failure[T](http.StatusInternalServerError, fmt.Errorf("failed to parse response: %w", err))
		}
	}
	return core.Success(r.Status, v)
}

// APIError represents a Spotify API error response.
type APIError struct {
	ErrorInfo struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason,omitempty"`
	} `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Spotify API error %d: %s", e.ErrorInfo.Status, e.ErrorInfo.Message)
}

// IsNoActiveDevice returns true if the error indicates no active device.
func (e *APIError) IsNoActiveDevice() bool {
	return e.ErrorInfo.Status == http.StatusNotFound || e.ErrorInfo.Reason == "NO_ACTIVE_DEVICE"
}

// IsNoActiveDeviceError checks if an error is a "no active device" error.
func IsNoActiveDeviceError(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.IsNoActiveDevice()
	}
	return false
}

// IsAlreadyPlayingError checks if an error is a 403 "restriction violated" error,
// which occurs when trying to resume playback that is already active.
func IsAlreadyPlayingError(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.ErrorInfo.Status == http.StatusForbidden
	}
	return false
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
