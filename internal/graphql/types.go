// Package graphql provides a GraphQL HTTP client for communicating with the
// CRM GraphQL API.
package graphql

import (
	"context"
	"fmt"
)

// GraphQLError represents a single error returned in a GraphQL response.
type GraphQLError struct {
	Message string `json:"message"`
}

// Request is the JSON body of a GraphQL HTTP request: the literal query or
// mutation text plus its variable bindings.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Client defines the interface for executing GraphQL queries.
type Client interface {
	Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error)
}

// TransportFailure is the single error type returned by HTTPClient.Execute.
// Connection errors, non-2xx responses, undecodable bodies and GraphQL error
// arrays are all reported through it.
type TransportFailure struct {
	// Message is the human-readable description written to job logs.
	Message string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Transient marks failures that HTTPClient retries.
	Transient bool
	// Attempts is the number of requests sent before giving up.
	Attempts int
	Err      error
}

func (f *TransportFailure) Error() string {
	if f.Attempts > 1 {
		return fmt.Sprintf("graphql: %s (after %d attempts)", f.Message, f.Attempts)
	}
	return "graphql: " + f.Message
}

func (f *TransportFailure) Unwrap() error {
	return f.Err
}
