// Package errors provides structured error types for the Veridex harness.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by harness component.
type ErrorCategory string

const (
	ErrCategoryDataset  ErrorCategory = "DATASET"
	ErrCategoryStorage  ErrorCategory = "STORAGE"
	ErrCategoryCatalog  ErrorCategory = "CATALOG"
	ErrCategoryWorkload ErrorCategory = "WORKLOAD"
	ErrCategoryChurn    ErrorCategory = "CHURN"
	ErrCategoryInternal ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Dataset codes
	CodeUnreadable = "UNREADABLE"
	CodeTruncated  = "TRUNCATED"
	CodeEmpty      = "EMPTY"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Catalog codes
	CodeDatasetNotFound = "DATASET_NOT_FOUND"
	CodeDuplicateName   = "DUPLICATE_NAME"

	// Workload codes
	CodeUnknownPolicy = "UNKNOWN_POLICY"

	// Churn codes
	CodeCountMismatch = "COUNT_MISMATCH"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// VeridexError is the structured error type used throughout the harness.
type VeridexError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *VeridexError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *VeridexError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *VeridexError) Is(target error) bool {
	var t *VeridexError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new VeridexError.
func New(category ErrorCategory, code, message string) *VeridexError {
	return &VeridexError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new VeridexError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *VeridexError {
	return &VeridexError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var ve *VeridexError
	if errors.As(err, &ve) {
		return ve.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a VeridexError.
func GetCategory(err error) ErrorCategory {
	var ve *VeridexError
	if errors.As(err, &ve) {
		return ve.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a VeridexError.
func GetCode(err error) string {
	var ve *VeridexError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

// isRetryable determines if an error code is retryable. Only object
// storage transfers are worth retrying; everything else is terminal for
// a single-pass run.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewDatasetError(code, message string, cause error) *VeridexError {
	return Wrap(ErrCategoryDataset, code, message, cause)
}

func NewStorageError(code, message string, cause error) *VeridexError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewCatalogError(code, message string, cause error) *VeridexError {
	return Wrap(ErrCategoryCatalog, code, message, cause)
}

func NewWorkloadError(code, message string) *VeridexError {
	return New(ErrCategoryWorkload, code, message)
}

func NewChurnError(code, message string) *VeridexError {
	return New(ErrCategoryChurn, code, message)
}

func NewInternalError(message string, cause error) *VeridexError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
