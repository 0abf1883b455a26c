package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing

	"github.com/utia/guesthouse-booking/internal/handler"
	"github.com/utia/guesthouse-booking/internal/middleware"
)

// RegisterHealth registers the unauthenticated health check.  Load
// balancers and monitoring systems use it to verify the service is up.
func RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the guest-facing booking API.  Every route
// runs the session middleware so holds and availability reads are
// scoped to the caller's browsing session; none of them require a
// login.  The cache middleware, when non-nil, wraps the read-only
// availability endpoints.
func RegisterPublic(e *echo.Echo, availability *handler.AvailabilityHandler, holds *handler.HoldHandler, bookings *handler.BookingHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.Session())

	reads := []echo.MiddlewareFunc{}
	if cache != nil {
		reads = append(reads, cache)
	}
	g.GET("/rooms", availability.ListRooms, reads...)
	g.GET("/rooms/:id/availability", availability.DayStatus, reads...)
	g.GET("/calendar", availability.Calendar, reads...)

	g.POST("/holds", holds.Create)
	g.DELETE("/holds/:id", holds.Delete)

	g.POST("/bookings", bookings.Create)
	g.POST("/bookings/quote", bookings.Quote)
	g.GET("/bookings/:id", bookings.Get)
	g.PATCH("/bookings/:id", bookings.Update)
	g.DELETE("/bookings/:id", bookings.Delete)
}

// RegisterAdmin registers authentication and the administration
// surface.  Login is open; everything else under /v1/admin requires a
// valid admin token.
func RegisterAdmin(e *echo.Echo, auth *handler.AuthHandler, admin *handler.AdminHandler, bookings *handler.BookingHandler, jwtSecret string) {
	e.POST("/v1/admin/login", auth.Login)

	g := e.Group("/v1/admin")
	g.Use(middleware.AdminAuth(jwtSecret))

	g.GET("/rooms", admin.ListRooms)
	g.POST("/rooms", admin.CreateRoom)
	g.PUT("/rooms/:id", admin.UpdateRoom)
	g.DELETE("/rooms/:id", admin.DeleteRoom)

	g.GET("/blockages", admin.ListBlockages)
	g.POST("/blockages", admin.CreateBlockage)
	g.DELETE("/blockages/:id", admin.DeleteBlockage)

	g.GET("/settings", admin.GetSettings)
	g.PUT("/settings", admin.UpdateSettings)

	g.GET("/bookings", bookings.List)
	g.PATCH("/bookings/:id", bookings.Update)
	g.DELETE("/bookings/:id", bookings.Delete)
}
