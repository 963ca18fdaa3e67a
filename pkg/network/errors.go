package network

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoData is returned when a successful response carries no body.
var ErrNoData = errors.New("response contained no data")

// StatusError is a non-200 HTTP response.
type StatusError struct {
	Code   int
	Reason string
	// Body holds the start of the response body, if any.
	Body []byte
}

func (e *StatusError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = http.StatusText(e.Code)
	}
	return strings.TrimSpace(fmt.Sprintf("HTTP request failed with HTTP status %d %s", e.Code, reason))
}

// RequestError is any failure while performing or decoding an HTTP request.
type RequestError struct {
	URL string
	Msg string
	Err error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *RequestError) Unwrap() error { return e.Err }

// Status returns the HTTP status wrapped by err, if any.
func Status(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}

// IOError is a local filesystem failure.
type IOError struct {
	Path string
	Msg  string
	Err  error
}

func (e *IOError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *IOError) Unwrap() error { return e.Err }
