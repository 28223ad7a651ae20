package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// Kind tags the three possible results of a dispatched query.
type Kind int

const (
	// KindSuccess is a 2xx response with its body captured.
	KindSuccess Kind = iota + 1
	// KindHTTPError is a non-2xx response.
	KindHTTPError
	// KindNetworkError means the request never produced a response.
	KindNetworkError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindHTTPError:
		return "http error"
	case KindNetworkError:
		return "network error"
	default:
		return "unknown"
	}
}

// Failure narrows a KindNetworkError outcome.
type Failure int

const (
	FailureConnectFailed Failure = iota + 1
	FailureTimedOut
	FailureTooManyRedirects
	FailureMissingURL
)

func (f Failure) String() string {
	switch f {
	case FailureConnectFailed:
		return "connect failed"
	case FailureTimedOut:
		return "timed out"
	case FailureTooManyRedirects:
		return "too many redirects"
	case FailureMissingURL:
		return "missing url"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of a single query. Exactly one
// variant applies per call: Success carries the status code and body,
// HTTPError the status code (plus a capped body for diagnostics), and
// NetworkError a Failure describing what went wrong on the wire.
type Outcome struct {
	Kind       Kind
	StatusCode int
	Body       []byte
	Failure    Failure

	cause error
}

// OK reports whether the outcome is a 2xx success.
func (o Outcome) OK() bool { return o.Kind == KindSuccess }

// Err materializes the outcome as an error: nil for success,
// *StatusError for a non-2xx response, *TransportError otherwise.
func (o Outcome) Err() error {
	switch o.Kind {
	case KindSuccess:
		return nil
	case KindHTTPError:
		return &StatusError{
			StatusCode: o.StatusCode,
			Body:       string(o.Body),
			Err:        ErrUnexpectedStatusCode,
		}
	default:
		return &TransportError{Failure: o.Failure, Err: o.cause}
	}
}

// Decode unmarshals a successful outcome's JSON body into dst.
// Non-success outcomes return their materialized error.
func (o Outcome) Decode(dst any) error {
	if err := o.Err(); err != nil {
		return err
	}

	if err := json.Unmarshal(o.Body, dst); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}

	return nil
}

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [StatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrMissingHeader is returned by [Client.Query] before dispatch when
	// a required header is absent from the spec.
	ErrMissingHeader = errors.New("missing required header")

	errTooManyRedirects = errors.New("redirect limit exceeded")
)

// StatusError is returned when the server responds with a non-2xx
// status code. Body is capped at maxErrBodySize.
type StatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// TransportError is the error form of a NetworkError outcome.
type TransportError struct {
	Failure Failure
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v: %v", e.Failure, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// classify maps a transport-layer error onto a Failure. Connection
// failures win over timeouts so that dial timeouts classify as connect
// failures, mirroring the priority order of the outcome contract.
func classify(err error) Failure {
	switch {
	case errors.Is(err, errTooManyRedirects):
		return FailureTooManyRedirects
	case isConnectFailure(err):
		return FailureConnectFailed
	case isTimeout(err):
		return FailureTimedOut
	default:
		return FailureConnectFailed
	}
}

func isConnectFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
