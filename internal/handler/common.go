package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/utia/guesthouse-booking/internal/middleware"
	"github.com/utia/guesthouse-booking/internal/occupancy"
	"github.com/utia/guesthouse-booking/internal/service"
)

// validate is the shared request validator.  Struct tags on the DTOs
// describe the constraints; handlers call validate.Struct after binding.
var validate = validator.New()

// writeServiceError maps the service layer's typed errors onto HTTP
// responses.  Unknown errors become a 500 without leaking details.
func writeServiceError(c echo.Context, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "field": verr.Field, "message": verr.Message})
	}
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		resp := echo.Map{
			"error":   "conflict",
			"room_id": conflict.RoomID,
			"night":   occupancy.FormatDay(conflict.Night),
		}
		if conflict.Range != nil {
			resp["start"] = occupancy.FormatDay(conflict.Range.Start)
			resp["end"] = occupancy.FormatDay(conflict.Range.End)
		}
		return c.JSON(http.StatusConflict, resp)
	}
	var forbidden *service.ForbiddenError
	if errors.As(err, &forbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": forbidden.Reason})
	}
	var policy *service.PolicyError
	if errors.As(err, &policy) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": policy.Code, "message": policy.Message})
	}
	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "resource": notFound.Resource, "id": notFound.ID})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal"})
}

// authFrom resolves the request's authorization context: an admin id
// injected by the JWT middleware, the service API key, or an anonymous
// caller carrying at most an edit token.
func authFrom(c echo.Context, serviceKey string) service.AuthContext {
	if id, ok := c.Get("admin_id").(uint64); ok && id != 0 {
		return service.Admin(id)
	}
	if serviceKey != "" && c.Request().Header.Get("X-Service-Key") == serviceKey {
		return service.ServiceKey()
	}
	token := c.Request().Header.Get("X-Edit-Token")
	if token == "" {
		token = c.QueryParam("edit_token")
	}
	return service.Anonymous(token)
}

// sessionID extracts the anonymous session id set by the session
// middleware.
func sessionID(c echo.Context) string {
	return middleware.CurrentSession(c)
}

// contextWithTimeout bounds a handler's storage calls.
func contextWithTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// parseDay parses a YYYY-MM-DD parameter, reporting the field name on
// failure.
func parseDay(field, value string) (time.Time, error) {
	day, err := occupancy.ParseDay(value)
	if err != nil {
		return time.Time{}, &service.ValidationError{Field: field, Message: "expected YYYY-MM-DD"}
	}
	return day, nil
}

// parseRange parses a start/end day pair into a date range.
func parseRange(startField, start, endField, end string) (occupancy.DateRange, error) {
	s, err := parseDay(startField, start)
	if err != nil {
		return occupancy.DateRange{}, err
	}
	e, err := parseDay(endField, end)
	if err != nil {
		return occupancy.DateRange{}, err
	}
	return occupancy.DateRange{Start: s, End: e}, nil
}
