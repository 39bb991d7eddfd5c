// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"errors"
	"fmt"
)

// ErrReadFile is returned when a stored document cannot be read back.
type ErrReadFile struct {
	Path string
	Err  error
}

func (e *ErrReadFile) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ErrReadFile) Unwrap() error {
	return e.Err
}

// ErrWriteFile is returned when writing a file or creating its directory fails.
type ErrWriteFile struct {
	Op   string // mkdir, write
	Path string
	Err  error
}

func (e *ErrWriteFile) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ErrWriteFile) Unwrap() error {
	return e.Err
}

// ErrDatabase is returned when database operations fail.
type ErrDatabase struct {
	Op  string
	Err error
}

func (e *ErrDatabase) Error() string {
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *ErrDatabase) Unwrap() error {
	return e.Err
}

// ErrDecode is returned when a stored document is not a valid rich-text document.
type ErrDecode struct {
	Path string
	Err  error
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *ErrDecode) Unwrap() error {
	return e.Err
}

// ErrRender is returned when rendering a decoded document fails.
type ErrRender struct {
	Path string
	Err  error
}

func (e *ErrRender) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *ErrRender) Unwrap() error {
	return e.Err
}

// Error code constants for database storage.
const (
	ErrCodeReadFile  = "READ_FILE"
	ErrCodeWriteFile = "WRITE_FILE"
	ErrCodeDatabase  = "DATABASE"
	ErrCodeDecode    = "DECODE"
	ErrCodeRender    = "RENDER"
	ErrCodeUnknown   = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
func ErrorCode(err error) string {
	var (
		readErr   *ErrReadFile
		writeErr  *ErrWriteFile
		dbErr     *ErrDatabase
		decodeErr *ErrDecode
		renderErr *ErrRender
	)
	switch {
	case errors.As(err, &readErr):
		return ErrCodeReadFile
	case errors.As(err, &writeErr):
		return ErrCodeWriteFile
	case errors.As(err, &dbErr):
		return ErrCodeDatabase
	case errors.As(err, &decodeErr):
		return ErrCodeDecode
	case errors.As(err, &renderErr):
		return ErrCodeRender
	default:
		return ErrCodeUnknown
	}
}

// Retryable reports whether a failure with the given code may succeed on a
// later attempt. Decode and render failures depend only on the stored bytes.
func Retryable(code string) bool {
	switch code {
	case ErrCodeReadFile, ErrCodeWriteFile, ErrCodeDatabase:
		return true
	}
	return false
}
