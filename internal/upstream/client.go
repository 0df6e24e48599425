// internal/upstream/client.go

// Package upstream is the HTTP client for the GeStock REST backend. The
// backend owns credentials and business data; the gateway only relays.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gestock-gateway/internal/domain/auth"
	xerrors "gestock-gateway/internal/pkg/errors"

	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Login exchanges credentials for a bearer token and profile via
// POST /auth/login. A non-success envelope or transport error surfaces as
// ErrLoginRejected / ErrUpstream with the backend message attached.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.LoginData, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to encode login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUpstream, err.Error())
	}
	defer resp.Body.Close()

	var envelope auth.LoginEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUpstream, "invalid login response")
	}

	if resp.StatusCode >= 300 || !envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, xerrors.Wrap(xerrors.ErrLoginRejected, msg)
	}

	return &envelope.Data, nil
}

// Verify asks the backend whether a credential is still valid via
// GET /auth/verify. Any non-2xx status or transport error is a failure.
func (c *Client) Verify(ctx context.Context, credential string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/verify", nil)
	if err != nil {
		return xerrors.Wrap(err, "failed to build verify request")
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.http.Do(req)
	if err != nil {
		return xerrors.Wrap(xerrors.ErrUpstream, err.Error())
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return xerrors.Wrap(xerrors.ErrSessionExpired, fmt.Sprintf("verify returned %d", resp.StatusCode))
	}
	return nil
}

// Proxy relays an authenticated request to the backend and returns the raw
// response. The caller owns the response body.
func (c *Client) Proxy(ctx context.Context, credential, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to build proxy request")
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, xerrors.Wrap(xerrors.ErrUpstream, err.Error())
	}
	return resp, nil
}
