package http

import (
	"errors"
	"net/http"
	"strings"

	"pocketwatcher/internal/auth"
	"pocketwatcher/internal/core"
	"pocketwatcher/internal/services"
)

// validationErrors are reported to the client with their own message.
var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrEmptyDescription,
	core.ErrDescriptionTooLong,
	core.ErrEmptyCategory,
	core.ErrInvalidDate,
	core.ErrEmptyOwner,
}

// errorResponse maps err to a status code and client-safe message. The bool
// is true when the error is the server's fault and should be logged.
func errorResponse(err error) (*JSONResponseBuilder, bool) {
	switch {
	case errors.Is(err, errMissingFields):
		return BadRequestError("Missing required fields"), false
	case errors.Is(err, errInvalidBody):
		return BadRequestError("Invalid request body"), false
	case errors.Is(err, errBodyTooLarge):
		return ErrorResponse(http.StatusRequestEntityTooLarge, "Request body too large"), false
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return UnauthorizedError(), false
	case errors.Is(err, services.ErrNotFound):
		return NotFoundError("Expense not found"), false
	case errors.Is(err, services.ErrForbidden):
		return ErrorResponse(http.StatusForbidden, "Forbidden"), false
	case errors.Is(err, core.ErrInvalidArgument):
		return BadRequestError(argumentMessage(err)), false
	case errors.Is(err, core.ErrInvalidRecord):
		// Stored records are validated on write, so this means corrupt data
		// rather than a bad request.
		return InternalServerError(), true
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return BadRequestError(v.Error()), false
		}
	}
	return InternalServerError(), true
}

// argumentMessage strips wrapping added by inner layers, keeping the
// "invalid argument: detail" part.
func argumentMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, core.ErrInvalidArgument.Error()); i >= 0 {
		return msg[i:]
	}
	return core.ErrInvalidArgument.Error()
}
