package service

import (
	"errors"
	"fmt"

	"github.com/attendance-api/internal/models"
)

// ErrorKind classifies why a request could not be completed
type ErrorKind string

const (
	KindMissingInput     ErrorKind = "missing_input"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindUnauthenticated  ErrorKind = "unauthenticated"
	KindUnknownBarcode   ErrorKind = "unknown_barcode"
	KindAlreadyCheckedIn ErrorKind = "already_checked_in"
	KindStorageFailure   ErrorKind = "storage_failure"
)

// ScanError is the error returned by the services. Message is English and
// MessageAr Arabic. Existing and Event are set for KindAlreadyCheckedIn.
type ScanError struct {
	Kind      ErrorKind
	Message   string
	MessageAr string
	Existing  *models.AttendanceRecord
	Event     *models.Event
	Err       error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Errors that are not a *ScanError are
// reported as storage failures.
func KindOf(err error) ErrorKind {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindStorageFailure
}

func errMissingInput(field string) *ScanError {
	return &ScanError{
		Kind:      KindMissingInput,
		Message:   field + " is required",
		MessageAr: "الباركود مطلوب",
	}
}

// ErrInvalidInput builds an invalid_input error for a rejected request field
func ErrInvalidInput(message string) *ScanError {
	return &ScanError{
		Kind:      KindInvalidInput,
		Message:   message,
		MessageAr: "بيانات الطلب غير صحيحة",
	}
}

// ErrUnauthenticated builds an unauthenticated error for a rejected caller
func ErrUnauthenticated(message string) *ScanError {
	return &ScanError{
		Kind:      KindUnauthenticated,
		Message:   message,
		MessageAr: "يجب تسجيل الدخول أولاً",
	}
}

func errUnknownBarcode(barcode string) *ScanError {
	return &ScanError{
		Kind:      KindUnknownBarcode,
		Message:   fmt.Sprintf("invalid event barcode %q", barcode),
		MessageAr: "باركود الفعالية غير صحيح",
	}
}

func errAlreadyCheckedIn(existing *models.AttendanceRecord, event *models.Event, at string) *ScanError {
	return &ScanError{
		Kind:      KindAlreadyCheckedIn,
		Message:   "attendance already recorded for this event today at " + at,
		MessageAr: "حضورك مسجل من قبل اليوم في " + at,
		Existing:  existing,
		Event:     event,
	}
}

func errStorage(op string, err error) *ScanError {
	return &ScanError{
		Kind:      KindStorageFailure,
		Message:   op + " failed",
		MessageAr: "حدث خطأ في الخادم",
		Err:       err,
	}
}
