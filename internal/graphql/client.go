package graphql

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jamesprial/crm-housekeeping/internal/config"
)

const defaultTimeout = 30 * time.Second

// HTTPClient is a concrete implementation of the Client interface that sends
// GraphQL requests over HTTP using the standard library net/http package.
type HTTPClient struct {
	httpClient *http.Client
	graphqlURL string
	retries    int
}

// NewHTTPClient constructs an HTTPClient from the provided GraphQLConfig.
// It returns an error if cfg.URL is empty or not an http(s) URL, or if
// cfg.Retries is negative. When cfg.Timeout is zero or negative, a default
// timeout of 30 seconds is used.
func NewHTTPClient(cfg config.GraphQLConfig) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("graphql: URL is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("graphql: parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("graphql: unsupported URL scheme %q", u.Scheme)
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("graphql: retries must not be negative, got %d", cfg.Retries)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifyTLS {
		// Operator opted out through graphql.verify_tls.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		graphqlURL: cfg.URL,
		retries:    cfg.Retries,
	}, nil
}

// graphqlResponse is the JSON body shape for a GraphQL HTTP response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Execute sends a GraphQL query to the configured endpoint and returns the
// raw JSON bytes of the "data" field on success. Variables may be nil, in
// which case the "variables" key is omitted from the request body.
//
// Every failure is a *TransportFailure. Connection errors and HTTP 500, 502,
// 503 and 504 are transient and are retried up to the configured count; the
// following are returned immediately:
//   - the request cannot be encoded or created
//   - the server responds with any other non-2xx status code
//   - the response body cannot be decoded as JSON
//   - the GraphQL response contains one or more errors
func (c *HTTPClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	bodyBytes, err := json.Marshal(Request{Query: query, Variables: variables})
	if err != nil {
		return nil, &TransportFailure{Message: "marshal request: " + err.Error(), Err: err}
	}

	var failure *TransportFailure
	for attempt := 1; attempt <= c.retries+1; attempt++ {
		data, err := c.send(ctx, bodyBytes)
		if err == nil {
			return data, nil
		}
		if !errors.As(err, &failure) {
			failure = &TransportFailure{Message: err.Error(), Err: err}
		}
		failure.Attempts = attempt
		if !failure.Transient || ctx.Err() != nil {
			break
		}
	}
	return nil, failure
}

// send performs exactly one HTTP round trip.
func (c *HTTPClient) send(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportFailure{Message: "create request: " + err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportFailure{
			Message:   "request failed: " + err.Error(),
			Transient: ctx.Err() == nil,
			Err:       err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode)
		// Servers such as graphene answer validation failures with a 400 and
		// an errors array; keep that text rather than the bare status.
		var gqlResp graphqlResponse
		if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err == nil && len(gqlResp.Errors) > 0 {
			message = joinErrors(gqlResp.Errors)
		}
		return nil, &TransportFailure{
			Message:    message,
			StatusCode: resp.StatusCode,
			Transient:  retryableStatus(resp.StatusCode),
		}
	}

	var gqlResp graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, &TransportFailure{
			Message:    "decode response: " + err.Error(),
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}

	if len(gqlResp.Errors) > 0 {
		return nil, &TransportFailure{
			Message:    joinErrors(gqlResp.Errors),
			StatusCode: resp.StatusCode,
		}
	}

	return []byte(gqlResp.Data), nil
}

// retryableStatus reports whether an HTTP status is worth another attempt.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func joinErrors(errs []GraphQLError) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}
