package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Transport performs raw portal requests. The core never opens
// connections itself; session and auth renewal live behind this
// interface.
type Transport interface {
	Request(ctx context.Context, method, path string, params map[string]string) ([]byte, error)
}

// HTTPTransport is the default Transport: JSON over HTTPS against the
// vendor portal, with classified-error retry.
type HTTPTransport struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     zerolog.Logger
}

// NewHTTPTransport creates a transport for the given portal base URL.
func NewHTTPTransport(baseURL, userAgent string, logger zerolog.Logger) *HTTPTransport {
	return &HTTPTransport{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   baseURL,
		userAgent: userAgent,
		logger:    logger,
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (t *HTTPTransport) SetHTTPClient(client *http.Client) {
	t.httpClient = client
}

// Request performs one portal request with retry on transient failures.
// GET parameters travel as query string, everything else as a JSON body.
func (t *HTTPTransport) Request(ctx context.Context, method, path string, params map[string]string) ([]byte, error) {
	var payload []byte

	err := retryWithBackoff(ctx, func() error {
		body, err := t.once(ctx, method, path, params)
		if err != nil {
			return err
		}
		payload = body
		return nil
	}, func(err error) ErrorClass {
		var perr *PortalError
		if errors.As(err, &perr) {
			return perr.ErrorClass
		}
		return ErrorClassNetwork
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// once executes a single attempt.
func (t *HTTPTransport) once(ctx context.Context, method, path string, params map[string]string) ([]byte, error) {
	var req *http.Request
	var err error

	if method == http.MethodGet {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		u := t.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, method, u, nil)
	} else {
		var body []byte
		body, err = json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		req, err = http.NewRequestWithContext(ctx, method, t.baseURL+path, bytes.NewReader(body))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Error().Err(err).Str("path", path).Msg("HTTP request failed")
		return nil, &PortalError{
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errClass := classifyStatus(resp.StatusCode)
		t.logger.Warn().
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Portal request error")
		return nil, &PortalError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &PortalError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}
	return body, nil
}
