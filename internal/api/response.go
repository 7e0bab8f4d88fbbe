package api

import (
	"errors"
	"net/http"

	"github.com/attendance-api/internal/service"
	"github.com/gin-gonic/gin"
)

// errorBody is the error object of a failed response
type errorBody struct {
	Kind      service.ErrorKind `json:"kind"`
	Message   string            `json:"message"`
	MessageAr string            `json:"message_ar"`
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind service.ErrorKind) int {
	switch kind {
	case service.KindMissingInput, service.KindInvalidInput:
		return http.StatusBadRequest
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindUnknownBarcode:
		return http.StatusNotFound
	case service.KindAlreadyCheckedIn:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a failed envelope. Details of storage failures
// are never exposed.
func respondError(c *gin.Context, err error) {
	var se *service.ScanError
	if !errors.As(err, &se) {
		se = &service.ScanError{
			Kind:      service.KindStorageFailure,
			Message:   "internal server error",
			MessageAr: "حدث خطأ في الخادم",
		}
	}

	body := gin.H{
		"success": false,
		"error": errorBody{
			Kind:      se.Kind,
			Message:   se.Message,
			MessageAr: se.MessageAr,
		},
	}
	if se.Kind == service.KindStorageFailure {
		body["error"] = errorBody{
			Kind:      se.Kind,
			Message:   "internal server error",
			MessageAr: se.MessageAr,
		}
	}
	if se.Kind == service.KindAlreadyCheckedIn {
		body["data"] = gin.H{
			"existing_attendance": se.Existing,
			"event":               se.Event,
		}
	}

	c.AbortWithStatusJSON(statusFor(se.Kind), body)
}
