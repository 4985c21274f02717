package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/staff-hours-go/internal/domain/auth"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/hours"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/notification"
	"github.com/cmlabs-hris/staff-hours-go/internal/domain/user"
	"github.com/cmlabs-hris/staff-hours-go/internal/pkg/validator"
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
		Unauthorized(w, "Invalid token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidRole):
		Forbidden(w, "Invalid role")

	// User domain errors
	case errors.Is(err, user.ErrActorMissing):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")

	// Hours domain errors
	case errors.Is(err, hours.ErrExtraHoursNotFound):
		NotFound(w, "Extra hours request not found")
	case errors.Is(err, hours.ErrLedgerNotFound):
		NotFound(w, "Staff hours not found")
	case errors.Is(err, hours.ErrRequestAlreadyProcessed):
		Conflict(w, "Extra hours request already processed")
	case errors.Is(err, hours.ErrDuplicateSubmission):
		Conflict(w, "Extra hours request already submitted")
	case errors.Is(err, hours.ErrUnauthorizedAccess):
		Forbidden(w, err.Error())
	case errors.Is(err, hours.ErrNotStaff):
		Forbidden(w, err.Error())
	case errors.Is(err, hours.ErrInvalidMonth):
		BadRequest(w, err.Error(), map[string]string{"month": "month must be in YYYY-MM format"})

	// Notification domain errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, notification.ErrInvalidType):
		BadRequest(w, err.Error(), map[string]string{"type": "unknown notification type"})

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
