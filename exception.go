package smithy

import (
	"fmt"
	"runtime"
	"time"

	"github.com/smithy-run/schema/traits"
)

// Fault is a coarse responsibility classification for an ApiException:
// whether the client, the server, or neither is to blame.
type Fault int

const (
	FaultOther Fault = iota
	FaultClient
	FaultServer
)

func (f Fault) String() string {
	switch f {
	case FaultClient:
		return "client"
	case FaultServer:
		return "server"
	default:
		return "other"
	}
}

// FaultOfHTTPStatusCode classifies an HTTP status code into a Fault:
// 400-499 is client, 500-599 is server, anything else is other.
func FaultOfHTTPStatusCode(code int) Fault {
	switch {
	case code >= 400 && code <= 499:
		return FaultClient
	case code >= 500 && code <= 599:
		return FaultServer
	default:
		return FaultOther
	}
}

// RetrySafety records whether a failed operation is safe to retry: yes, no,
// or maybe (the caller must apply its own policy).
type RetrySafety int

const (
	RetrySafetyMaybe RetrySafety = iota
	RetrySafetyYes
	RetrySafetyNo
)

// captureStackTraces is the process-wide toggle controlling whether
// ApiException captures a stack trace at construction when no
// per-construction override is given. It is the only piece of global
// mutable state in the package; set it once at process startup via
// SetCaptureStackTraces rather than sensing an environment variable.
var captureStackTraces = true

// SetCaptureStackTraces sets the process-wide default for ApiException
// stack-trace capture. Disable it in latency-sensitive paths where the
// trace is rarely consulted.
func SetCaptureStackTraces(enabled bool) { captureStackTraces = enabled }

// ApiException is an application/protocol error with fault classification,
// retryability, throttle, and retry-after metadata.
type ApiException struct {
	message string
	cause   error

	fault       Fault
	isRetrySafe RetrySafety
	isThrottle  bool
	retryAfter  *time.Duration

	stack []uintptr
}

// ApiExceptionOption customizes ApiException construction.
type ApiExceptionOption func(*ApiException)

// WithCause attaches a wrapped cause.
func WithCause(err error) ApiExceptionOption {
	return func(e *ApiException) { e.cause = err }
}

// WithFault overrides the fault classification (default FaultOther).
func WithFault(f Fault) ApiExceptionOption {
	return func(e *ApiException) { e.fault = f }
}

// WithRetrySafety sets the initial retry safety (default RetrySafetyMaybe).
func WithRetrySafety(r RetrySafety) ApiExceptionOption {
	return func(e *ApiException) { e.SetRetrySafe(r) }
}

// WithThrottle marks the exception as a throttling error.
func WithThrottle(v bool) ApiExceptionOption {
	return func(e *ApiException) { e.isThrottle = v }
}

// WithRetryAfter sets a server-suggested retry delay.
func WithRetryAfter(d time.Duration) ApiExceptionOption {
	return func(e *ApiException) { e.retryAfter = &d }
}

// WithCaptureStackTrace overrides the process-wide capture-stack-traces
// flag for this one construction.
func WithCaptureStackTrace(v bool) ApiExceptionOption {
	return func(e *ApiException) {
		if v {
			e.stack = captureStack()
		} else {
			e.stack = nil
		}
	}
}

func captureStack() []uintptr {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	return pcs[:n]
}

// NewApiException constructs an ApiException. Stack-trace capture follows
// the process-wide SetCaptureStackTraces toggle unless overridden via
// WithCaptureStackTrace.
func NewApiException(message string, opts ...ApiExceptionOption) *ApiException {
	e := &ApiException{message: message}
	if captureStackTraces {
		e.stack = captureStack()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ApiException) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.message, e.cause.Error())
	}
	return e.message
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *ApiException) Unwrap() error { return e.cause }

// Message returns the exception's message, independent of any wrapped cause.
func (e *ApiException) Message() string { return e.message }

// Fault returns the exception's fault classification.
func (e *ApiException) Fault() Fault { return e.fault }

// IsRetrySafe returns the exception's current retry safety.
func (e *ApiException) IsRetrySafe() RetrySafety { return e.isRetrySafe }

// IsThrottle returns whether the exception represents a throttling error.
func (e *ApiException) IsThrottle() bool { return e.isThrottle }

// RetryAfter returns the server-suggested retry delay, if any.
func (e *ApiException) RetryAfter() (time.Duration, bool) {
	if e.retryAfter == nil {
		return 0, false
	}
	return *e.retryAfter, true
}

// StackTrace returns the captured call stack program counters, or nil if
// capture was disabled for this exception.
func (e *ApiException) StackTrace() []uintptr { return e.stack }

// SetRetrySafe updates the exception's retry safety. Transitioning to
// RetrySafetyNo clears any retry-after hint and the throttle flag, since
// a previously suggested retry is no longer applicable.
func (e *ApiException) SetRetrySafe(r RetrySafety) {
	e.isRetrySafe = r
	if r == RetrySafetyNo {
		e.retryAfter = nil
		e.isThrottle = false
	}
}

// SetThrottle updates the throttle flag directly (bypassing the
// RetrySafetyNo interlock SetRetrySafe enforces).
func (e *ApiException) SetThrottle(v bool) { e.isThrottle = v }

// SetRetryAfter updates the retry-after hint directly.
func (e *ApiException) SetRetryAfter(d time.Duration) { e.retryAfter = &d }

// ModeledApiException is an ApiException raised by a modeled operation
// error: it carries the error shape's schema and derives its default HTTP
// status from the shape's httpError/error traits when the protocol doesn't
// supply one directly.
type ModeledApiException struct {
	*ApiException
	Schema *Schema
}

// NewModeledApiException constructs a ModeledApiException for schema,
// deriving its fault from the smithy.api#error trait if present.
func NewModeledApiException(schema *Schema, message string, opts ...ApiExceptionOption) *ModeledApiException {
	if errTrait, ok := SchemaTrait[*traits.Error](schema); ok {
		opts = append([]ApiExceptionOption{WithFault(faultFromTraitString(errTrait.Fault))}, opts...)
	}
	return &ModeledApiException{
		ApiException: NewApiException(message, opts...),
		Schema:       schema,
	}
}

// DefaultHTTPStatus derives the HTTP status this error should be associated
// with absent a protocol-specific override: the smithy.api#httpError
// status code if present, else 400/500 depending on the smithy.api#error
// fault, else 500.
func (e *ModeledApiException) DefaultHTTPStatus() int {
	if httpErr, ok := SchemaTrait[*traits.HTTPError](e.Schema); ok {
		return httpErr.StatusCode
	}
	if errTrait, ok := SchemaTrait[*traits.Error](e.Schema); ok {
		if errTrait.Fault == "client" {
			return 400
		}
		return 500
	}
	return 500
}

func faultFromTraitString(s string) Fault {
	switch s {
	case "client":
		return FaultClient
	case "server":
		return FaultServer
	default:
		return FaultOther
	}
}
