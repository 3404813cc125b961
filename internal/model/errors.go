package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind enumerates the engine's error taxonomy. It is
// attached to per-attempt records and to the terminal DomainResult.Error
// so callers can branch on category without string matching.
type ErrorKind string

const (
	KindInvalidInput        ErrorKind = "invalid_input"
	KindEndpointUnavailable ErrorKind = "endpoint_unavailable"
	KindNoTextualServer     ErrorKind = "no_textual_server"
	KindNetwork             ErrorKind = "network"
	KindTimeout             ErrorKind = "timeout"
	KindRateLimited         ErrorKind = "rate_limited"
	KindParseError          ErrorKind = "parse_error"
	KindResponseTooLarge    ErrorKind = "response_too_large"
	KindBadQuery            ErrorKind = "bad_query"
	KindCancelled           ErrorKind = "cancelled"
	KindInternal            ErrorKind = "internal"
)

// CheckError is the concrete error type returned by protocol clients and
// the orchestrator. It carries enough structure for the orchestrator to
// decide retry eligibility without re-parsing a message string.
type CheckError struct {
	Kind       ErrorKind
	Protocol   string // "structured" | "textual" | ""
	Detail     string
	TLD        string
	RetryAfter time.Duration
	Retryable  bool
	Err        error
}

func (e *CheckError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := string(e.Kind)
	if e.Protocol != "" {
		msg += "(" + e.Protocol + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CheckError) Unwrap() error { return e.Err }

func InvalidInput(reason string) *CheckError {
	return &CheckError{Kind: KindInvalidInput, Detail: reason}
}

func EndpointUnavailable(tld string) *CheckError {
	return &CheckError{Kind: KindEndpointUnavailable, TLD: tld, Detail: fmt.Sprintf("no structured endpoint for %q", tld)}
}

func NoTextualServer(tld string) *CheckError {
	return &CheckError{Kind: KindNoTextualServer, TLD: tld, Detail: fmt.Sprintf("no textual server for %q", tld)}
}

func Network(protocol string, retryable bool, err error) *CheckError {
	return &CheckError{Kind: KindNetwork, Protocol: protocol, Retryable: retryable, Err: err}
}

func Timeout(protocol string, d time.Duration) *CheckError {
	return &CheckError{Kind: KindTimeout, Protocol: protocol, Retryable: true, Detail: d.String()}
}

func RateLimited(protocol string, retryAfter time.Duration) *CheckError {
	return &CheckError{Kind: KindRateLimited, Protocol: protocol, Retryable: true, RetryAfter: retryAfter}
}

func ParseError(protocol, detail string) *CheckError {
	return &CheckError{Kind: KindParseError, Protocol: protocol, Detail: detail}
}

func ResponseTooLarge(protocol string, limit int) *CheckError {
	return &CheckError{Kind: KindResponseTooLarge, Protocol: protocol, Detail: fmt.Sprintf("limit=%d", limit)}
}

func BadQuery(protocol, detail string) *CheckError {
	return &CheckError{Kind: KindBadQuery, Protocol: protocol, Detail: detail}
}

func Cancelled() *CheckError {
	return &CheckError{Kind: KindCancelled}
}

func Internal(detail string) *CheckError {
	return &CheckError{Kind: KindInternal, Detail: detail}
}

// IsRetryable reports whether an attempt that failed with err is eligible
// for another try of the same protocol, per the taxonomy in the design
// taxonomy: Network(transient), Timeout and RateLimited are retryable;
// everything else is terminal for that protocol.
func IsRetryable(err error) bool {
	var ce *CheckError
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Kind {
	case KindNetwork:
		return ce.Retryable
	case KindTimeout, KindRateLimited:
		return true
	default:
		return false
	}
}
