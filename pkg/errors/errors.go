package errors

import (
	"errors"
	"fmt"
)

// Kind classifies failures of a crawl run
type Kind string

const (
	KindDirectory  Kind = "directory"
	KindRemotePage Kind = "remote_page"
	KindTransport  Kind = "transport"
	KindStorage    Kind = "storage"
)

// Error is a crawl failure with type information
type Error struct {
	Kind   Kind
	Op     string
	Target string
	Code   int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Kind)
	if e.Op != "" {
		msg += " during " + e.Op
	}
	if e.Target != "" {
		msg += fmt.Sprintf(" (%s)", e.Target)
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" [code %d]", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Directory reports a local directory that could not be created
func Directory(path string, err error) *Error {
	return &Error{Kind: KindDirectory, Op: "mkdir", Target: path, Err: err}
}

// RemotePage reports a failed page fetch
func RemotePage(op string, code int, err error) *Error {
	return &Error{Kind: KindRemotePage, Op: op, Code: code, Err: err}
}

// Transport reports a failed resource download
func Transport(url string, code int, err error) *Error {
	return &Error{Kind: KindTransport, Op: "download", Target: url, Code: code, Err: err}
}

// Storage reports a local write failure
func Storage(path string, err error) *Error {
	return &Error{Kind: KindStorage, Op: "save", Target: path, Err: err}
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
