package tangle

import (
	"errors"
	"fmt"
)

// Error codes for data source operations
const (
	ErrCodeFetchFailed   = "FETCH_FAILED"
	ErrCodeAPIRejected   = "API_REJECTED"
	ErrCodeBlockNotFound = "BLOCK_NOT_FOUND"
)

// ErrFetchFailed is returned when the data source could not be reached or
// its answer could not be decoded.
type ErrFetchFailed struct {
	Source string
	Err    error
}

func (e *ErrFetchFailed) Error() string {
	return fmt.Sprintf("fetch from '%s' failed: %v", e.Source, e.Err)
}

func (e *ErrFetchFailed) Unwrap() error {
	return e.Err
}

// Code returns the error code.
func (e *ErrFetchFailed) Code() string {
	return ErrCodeFetchFailed
}

// NewErrFetchFailed creates a new ErrFetchFailed
func NewErrFetchFailed(source string, err error) *ErrFetchFailed {
	return &ErrFetchFailed{
		Source: source,
		Err:    err,
	}
}

// ErrAPIRejected is returned when the data source answered with
// success=false or without data.
type ErrAPIRejected struct {
	Source     string
	StatusCode int
	Message    string
}

func (e *ErrAPIRejected) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("'%s' rejected request (status %d): %s", e.Source, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("'%s' rejected request: %s", e.Source, e.Message)
}

// Code returns the error code.
func (e *ErrAPIRejected) Code() string {
	return ErrCodeAPIRejected
}

// NewErrAPIRejected creates a new ErrAPIRejected
func NewErrAPIRejected(source string, statusCode int, message string) *ErrAPIRejected {
	if message == "" {
		message = "no data"
	}
	return &ErrAPIRejected{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ErrBlockNotFound is returned when a single block lookup has no match
type ErrBlockNotFound struct {
	Hash string
}

func (e *ErrBlockNotFound) Error() string {
	return fmt.Sprintf("block '%s' not found", e.Hash)
}

// Code returns the error code.
func (e *ErrBlockNotFound) Code() string {
	return ErrCodeBlockNotFound
}

// NewErrBlockNotFound creates a new ErrBlockNotFound
func NewErrBlockNotFound(hash string) *ErrBlockNotFound {
	return &ErrBlockNotFound{
		Hash: hash,
	}
}

// IsFetchFailure reports whether err is any kind of failed fetch. Callers
// keep their previous state when it is.
func IsFetchFailure(err error) bool {
	var failed *ErrFetchFailed
	var rejected *ErrAPIRejected
	return errors.As(err, &failed) || errors.As(err, &rejected)
}

// ErrorCode extracts the error code of err, or "" when it carries none.
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
