package ems

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotAuthenticated = errors.New("not logged in: run `ems login` first")
	ErrForbidden        = errors.New("operation not permitted for this role")
	ErrCancelled        = errors.New("cancelled")
	ErrSuperseded       = errors.New("superseded by a newer request")
	ErrNotFound         = errors.New("employee not found")
)

// ErrorKind classifies failures of calls to the remote service.
type ErrorKind string

const (
	// KindNetwork means the service could not be reached.
	KindNetwork ErrorKind = "network"
	// KindRejected means the service answered 4xx; Detail holds its payload.
	KindRejected ErrorKind = "rejected"
	// KindFailed means the service answered 5xx or something unexpected.
	KindFailed ErrorKind = "failed"
)

// RemoteError is returned by API implementations for every failed call.
type RemoteError struct {
	Kind       ErrorKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *RemoteError) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("service unreachable: %v", e.Err)
	case KindRejected:
		if e.Detail == "" {
			return fmt.Sprintf("request rejected (%d %s)", e.StatusCode, http.StatusText(e.StatusCode))
		}
		return e.Detail
	default:
		if e.Err != nil {
			return fmt.Sprintf("service error (%d): %v", e.StatusCode, e.Err)
		}
		if e.Detail != "" {
			return fmt.Sprintf("service error (%d): %s", e.StatusCode, e.Detail)
		}
		return fmt.Sprintf("service error (%d %s)", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsKind reports whether err wraps a RemoteError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == kind
}

// ValidationError carries field -> message pairs from local form validation.
// No request is issued while one is outstanding.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
