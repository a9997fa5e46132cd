package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned errors still compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Export pipeline errors.
var (
	ErrProfileNotFound      = New("PROFILE_NOT_FOUND", http.StatusUnauthorized, "user profile not found")
	ErrInvalidDateFormat    = New("INVALID_DATE_FORMAT", http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
	ErrNoUnits              = New("NO_UNITS", http.StatusNotFound, "no units are associated with this account")
	ErrNoWorkers            = New("NO_WORKERS", http.StatusNotFound, "no workers are associated with this account")
	ErrNoItemsInRange       = New("NO_ITEMS_IN_RANGE", http.StatusNotFound, "no items were recorded on the requested date")
	ErrItemNotFound         = New("ITEM_NOT_FOUND", http.StatusNotFound, "item not found")
	ErrItemHasNoPhotos      = New("ITEM_HAS_NO_PHOTOS", http.StatusNotFound, "this item has no downloadable photos")
	ErrWorkerHasNoItems     = New("WORKER_HAS_NO_ITEMS", http.StatusNotFound, "this worker has no items")
	ErrNoDownloadablePhotos = New("NO_DOWNLOADABLE_PHOTOS", http.StatusNotFound, "no items with downloadable photos")
	ErrNoPhotosDownloaded   = New("NO_PHOTOS_DOWNLOADED", http.StatusInternalServerError, "no photo could be downloaded")
	ErrArchiveEncoding      = New("ARCHIVE_ENCODING_FAILED", http.StatusInternalServerError, "failed to encode archive")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
