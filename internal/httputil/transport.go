// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across components.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// maxErrorBody caps how much of a failed response body is kept for diagnostics.
const maxErrorBody = 64 << 10

// unreadableBody is reported when an error response body cannot be read.
const unreadableBody = "Could not retrieve error content from response."

// Kind classifies a transport failure.
type Kind int

const (
	KindOther Kind = iota
	KindHTTP
	KindConnection
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// TransportError describes a failed HTTP exchange. For KindHTTP, StatusCode
// and Body hold the upstream status and (possibly truncated) response body.
type TransportError struct {
	Kind       Kind
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("HTTP error occurred: %s", e.Status)
	case KindConnection:
		return fmt.Sprintf("Connection error occurred: %v", e.Err)
	case KindTimeout:
		return fmt.Sprintf("Timeout error occurred: %v", e.Err)
	default:
		return fmt.Sprintf("An unexpected error occurred with the request: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Do executes req once with no retries. A response with a non-2xx status is
// drained, closed, and returned as a *TransportError of KindHTTP carrying
// the body. Client failures are classified as timeout, connection, or other.
// On success the caller owns resp.Body.
func Do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req.Clone(ctx))
	if err != nil {
		return nil, Classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body := unreadableBody
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); readErr == nil {
			body = string(data)
		}
		status := resp.Status
		if status == "" {
			status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, &TransportError{
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode,
			Status:     status,
			Body:       body,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return resp, nil
}

// Classify wraps an error returned by http.Client.Do in a *TransportError.
func Classify(err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &TransportError{Kind: KindTimeout, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &TransportError{Kind: KindTimeout, Err: err}
	case isConnectionError(err):
		return &TransportError{Kind: KindConnection, Err: err}
	default:
		return &TransportError{Kind: KindOther, Err: err}
	}
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
