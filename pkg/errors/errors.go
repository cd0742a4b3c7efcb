// Package errors provides the error taxonomy shared by the aggregators and
// the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error functions
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// Error kinds produced by this service.
const (
	KindUpstream          = "Upstream"
	KindUpstreamData      = "UpstreamData"
	KindUnsupportedTarget = "UnsupportedTarget"
)

// Error carries a kind alongside the message so the HTTP layer can map
// failures to status codes without string matching.
type Error struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`

	cause error
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Upstream reports a transport-level failure talking to a provider:
// connection failure, timeout, non-2xx status, or an undecodable body.
func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, cause: cause}
}

// UpstreamData reports a provider response that decoded fine but carries no
// usable data.
func UpstreamData(message string) *Error {
	return &Error{Kind: KindUpstreamData, Message: message}
}

// UnsupportedTarget reports a conversion target absent from the fetched
// rate table.
func UnsupportedTarget(message string) *Error {
	return &Error{Kind: KindUnsupportedTarget, Message: message}
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps an error to the status code the API serves it with.
// Provider trouble is a gateway problem; an unsupported conversion target is
// the caller's.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUpstream, KindUpstreamData:
		return http.StatusBadGateway
	case KindUnsupportedTarget:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
