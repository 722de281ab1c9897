package httpstatus

import (
	"errors"
	"net/http"

	"github.com/diwise/security-dashboard/internal/pkg/application/dashboard"
	"github.com/diwise/security-dashboard/pkg/types"
)

// FromError maps dashboard errors to the status code sent to the client.
func FromError(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrEventNotFound),
		errors.Is(err, dashboard.ErrSessionNotFound),
		errors.Is(err, dashboard.ErrAlertNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrUnknownValue):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrNotAnomalous),
		errors.Is(err, dashboard.ErrAlreadyReported),
		errors.Is(err, dashboard.ErrNotCounting):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
