package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tkoh/bookstore-tui/internal/model"
)

// TokenSource supplies the current bearer credential. An empty string means
// no authenticated session; requests are then sent without an Authorization
// header.
type TokenSource interface {
	Token() string
}

// Client is the single HTTP gateway to the bookstore backend. Every request
// is annotated with the current credential, responses are unwrapped from the
// backend's {success, message, data, timestamp} envelope, and a 401 triggers
// the registered unauthorized handler before the error is surfaced to the
// caller unchanged.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     zerolog.Logger

	// onUnauthorized is invoked on every 401. The session store's
	// generation counter makes the resulting teardown run once even when
	// several requests fail concurrently.
	onUnauthorized func()
}

// NewClient creates a gateway rooted at baseURL (e.g. http://localhost:8080).
func NewClient(baseURL string, tokens TokenSource, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SetUnauthorizedHandler registers the callback run when the server rejects
// the credential. Typically wired to the session store's Logout.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.onUnauthorized = fn
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes the envelope's data into result.
// Transient transport failures on reads are retried once.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	err := c.do(ctx, http.MethodGet, path, nil, result)
	if err != nil && isTransport(err) {
		c.logger.Debug().Str("path", path).Err(err).Msg("retrying read after transport error")
		return c.do(ctx, http.MethodGet, path, nil, result)
	}
	return err
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request with an optional JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// transportError marks failures that never produced an HTTP response.
type transportError struct{ err error }

func (t *transportError) Error() string { return t.err.Error() }
func (t *transportError) Unwrap() error { return t.err }

func isTransport(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}

// do builds the request, attaches the credential, and unwraps the response
// envelope into result.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{
			err: fmt.Errorf("executing request %s %s: %w", method, path, err),
		}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return &transportError{
			err: fmt.Errorf("reading response body: %w", readErr),
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn().Str("path", path).Msg("credential rejected, invalidating session")
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}

	var env model.Envelope
	envErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if envErr == nil && env.Message != "" {
			return &Error{Status: resp.StatusCode, Message: env.Message}
		}
		return &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if envErr != nil {
		return fmt.Errorf("unmarshaling response envelope from %s %s: %w", method, path, envErr)
	}
	if !env.Success {
		return &Error{Status: resp.StatusCode, Message: env.Message}
	}

	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("unmarshaling response data from %s %s: %w", method, path, err)
	}

	return nil
}
