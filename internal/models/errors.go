package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrNoCompatibleVersion ErrorType = iota
	ErrDownloadFailed
	ErrWriteFailed
	ErrExtractFailed
	ErrSignatureInvalid
	ErrComponentNotFound
	ErrThemeNotFound
	ErrCardAssetNotFound
	ErrPathNotFound
	ErrRemote
	ErrDisabled
	ErrInvalidConfig
	ErrStorage
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrNoCompatibleVersion:
		return "NoCompatibleVersion"
	case ErrDownloadFailed:
		return "DownloadFailed"
	case ErrWriteFailed:
		return "WriteFailed"
	case ErrExtractFailed:
		return "ExtractFailed"
	case ErrSignatureInvalid:
		return "SignatureInvalid"
	case ErrComponentNotFound:
		return "ComponentNotFound"
	case ErrThemeNotFound:
		return "ThemeNotFound"
	case ErrCardAssetNotFound:
		return "CardAssetNotFound"
	case ErrPathNotFound:
		return "PathNotFound"
	case ErrRemote:
		return "Remote"
	case ErrDisabled:
		return "Disabled"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrStorage:
		return "Storage"
	default:
		return "Unknown"
	}
}

// StoreError represents an error raised while operating on a package
type StoreError struct {
	Type    ErrorType
	Package string
	Err     error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewError builds a StoreError for a package. pkg may be empty.
func NewError(t ErrorType, pkg string, format string, args ...interface{}) *StoreError {
	return &StoreError{
		Type:    t,
		Package: pkg,
		Err:     fmt.Errorf(format, args...),
	}
}

// IsErrorType reports whether any StoreError in err's chain has type t.
func IsErrorType(err error, t ErrorType) bool {
	var se *StoreError
	for err != nil {
		if !errors.As(err, &se) {
			return false
		}
		if se.Type == t {
			return true
		}
		err = se.Err
	}
	return false
}
