package middleware

// session.go assigns every browser a stable anonymous session id.  Holds
// are scoped to that id, so a guest's own holds never read as conflicts
// while anyone else's do.  The id carries no identity; it only groups
// requests from one browsing session.

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/utia/guesthouse-booking/internal/utils"
)

// SessionCookie is the cookie name carrying the anonymous session id.
const SessionCookie = "booking_session"

// Session returns a middleware that reads the session cookie, minting a
// fresh id when none is present, and stores the id in the context under
// "session_id".
func Session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sessionID string
			if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
				sessionID = ck.Value
			} else {
				id, err := utils.NewSessionID()
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session init failed"})
				}
				sessionID = id
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    sessionID,
					Path:     "/",
					Expires:  time.Now().Add(30 * 24 * time.Hour),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set("session_id", sessionID)
			return next(c)
		}
	}
}

// CurrentSession extracts the session id stored by Session.  It returns
// an empty string when the middleware did not run.
func CurrentSession(c echo.Context) string {
	if v, ok := c.Get("session_id").(string); ok {
		return v
	}
	return ""
}
