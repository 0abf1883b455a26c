package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/utia/guesthouse-booking/internal/occupancy"
	"github.com/utia/guesthouse-booking/internal/repository"
	"github.com/utia/guesthouse-booking/internal/service"
)

// AvailabilityHandler exposes the read-only room and calendar
// endpoints used by the booking UI.
type AvailabilityHandler struct {
	Availability *service.AvailabilityService
	Rooms        *repository.RoomRepo
}

func NewAvailabilityHandler(availability *service.AvailabilityService, rooms *repository.RoomRepo) *AvailabilityHandler {
	if availability == nil || rooms == nil {
		panic("nil dependency passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Availability: availability, Rooms: rooms}
}

type roomResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Size string `json:"size"`
	Beds uint32 `json:"beds"`
}

type dayStatusResp struct {
	Day    string `json:"day"`
	Status string `json:"status"`
	Mixed  bool   `json:"mixed,omitempty"`
}

type roomCalendarResp struct {
	RoomID uint64          `json:"room_id"`
	Days   []dayStatusResp `json:"days"`
}

// ListRooms handles GET /v1/rooms: the public catalog of bookable
// rooms.
func (h *AvailabilityHandler) ListRooms(c echo.Context) error {
	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	rooms, err := h.Rooms.List(ctx, true)
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]roomResp, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomResp{ID: r.ID, Name: r.Name, Size: string(r.Size), Beds: r.Beds})
	}
	return c.JSON(http.StatusOK, out)
}

// DayStatus handles GET /v1/rooms/:id/availability?date=YYYY-MM-DD.
// The caller's own holds read as free.
func (h *AvailabilityHandler) DayStatus(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	day, err := parseDay("date", c.QueryParam("date"))
	if err != nil {
		return writeServiceError(c, err)
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	status, err := h.Availability.DayStatus(ctx, roomID, day, sessionID(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dayStatusResp{
		Day:    occupancy.FormatDay(day),
		Status: string(status.Status),
		Mixed:  status.Mixed,
	})
}

// Calendar handles GET /v1/calendar?from=YYYY-MM-DD&to=YYYY-MM-DD.  It
// returns every active room's day statuses over the half-open window.
func (h *AvailabilityHandler) Calendar(c echo.Context) error {
	window, err := parseRange("from", c.QueryParam("from"), "to", c.QueryParam("to"))
	if err != nil {
		return writeServiceError(c, err)
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	calendars, err := h.Availability.Calendar(ctx, window.Start, window.End, sessionID(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]roomCalendarResp, 0, len(calendars))
	for _, cal := range calendars {
		rc := roomCalendarResp{RoomID: cal.RoomID}
		for _, d := range cal.Days {
			rc.Days = append(rc.Days, dayStatusResp{
				Day:    occupancy.FormatDay(d.Day),
				Status: string(d.Status.Status),
				Mixed:  d.Status.Mixed,
			})
		}
		out = append(out, rc)
	}
	return c.JSON(http.StatusOK, out)
}
