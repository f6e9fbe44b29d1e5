package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for recovery and retry decisions
type Kind string

const (
	// Fatal before processing starts
	KindConfigLoad Kind = "config_load"
	KindModelLoad  Kind = "model_load"

	// Recovered per post
	KindImageDecode  Kind = "image_decode"
	KindMissingField Kind = "missing_field"

	// Fatal at the end of a run
	KindWrite Kind = "write"

	// Produced by the Instagram client
	KindNetwork     Kind = "network"
	KindRateLimit   Kind = "rate_limit"
	KindAuth        Kind = "auth"
	KindParsing     Kind = "parsing"
	KindNotFound    Kind = "not_found"
	KindServerError Kind = "server_error"
	KindUnknown     Kind = "unknown"
)

// Error is a typed error carrying the failed operation and, when relevant,
// the file or URL involved and the HTTP status code.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Code int
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" [%s]", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given kind
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithPath builds an Error that names the file or URL involved
func WithPath(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// HTTP builds an Error for a failed HTTP exchange
func HTTP(kind Kind, url string, code int, msg string) *Error {
	return &Error{Kind: kind, Op: "http", Path: url, Code: code, Err: errors.New(msg)}
}

// ConfigLoad reports an unreadable or malformed configuration input
func ConfigLoad(path string, err error) *Error {
	return WithPath(KindConfigLoad, "load config", path, err)
}

// ModelLoad reports an unreadable or malformed detector definition
func ModelLoad(path string, err error) *Error {
	return WithPath(KindModelLoad, "load model", path, err)
}

// ImageDecode reports a corrupt or unreadable image
func ImageDecode(path string, err error) *Error {
	return WithPath(KindImageDecode, "decode image", path, err)
}

// MissingField reports a metadata field absent from a post payload
func MissingField(field string) *Error {
	return &Error{Kind: KindMissingField, Op: "extract field", Path: field}
}

// Write reports a failure to persist an output file
func Write(path string, err error) *Error {
	return WithPath(KindWrite, "write report", path, err)
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err's chain holds an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if errors.As(err, &e) {
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		return false
	}
	return false
}

// IsFatal reports whether the error must abort the run
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindConfigLoad, KindModelLoad, KindWrite:
		return true
	default:
		return false
	}
}

// IsRetryable checks if an error kind should be retried
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindNetwork, KindRateLimit, KindServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 408, 429:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}
