package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/geofence"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/site"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrManagerAccessRequired):
		Forbidden(w, err.Error())
	case errors.Is(err, tenant.ErrCompanyIDRequired):
		Forbidden(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrEventNotFound):
		NotFound(w, "Presence event not found")
	case errors.Is(err, attendance.ErrInvalidDateRange),
		errors.Is(err, attendance.ErrDateRangeTooLong):
		BadRequest(w, err.Error(), nil)

	// Site and geofence errors
	case errors.Is(err, site.ErrSiteNotFound):
		NotFound(w, "Site not found")
	case errors.Is(err, geofence.ErrInvalidCoordinate):
		BadRequest(w, err.Error(), nil)

	// Schedule feed
	case errors.Is(err, schedule.ErrUpstreamUnavailable):
		ServiceUnavailable(w, "Schedule provider is unavailable, retry later or request a partial report")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
