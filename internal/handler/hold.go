package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/utia/guesthouse-booking/internal/occupancy"
	"github.com/utia/guesthouse-booking/internal/service"
)

// HoldHandler exposes session hold creation and release.  The session
// id comes from the session cookie, never from the request body, so a
// caller cannot hold or release on behalf of another session.
type HoldHandler struct {
	Holds     *service.HoldService
	Bookings  service.BookingStore
	Blockages service.BlockageStore
}

func NewHoldHandler(holds *service.HoldService, bookings service.BookingStore, blockages service.BlockageStore) *HoldHandler {
	if holds == nil || bookings == nil || blockages == nil {
		panic("nil dependency passed to NewHoldHandler")
	}
	return &HoldHandler{Holds: holds, Bookings: bookings, Blockages: blockages}
}

type holdRoomDTO struct {
	RoomID uint64 `json:"room_id" validate:"required"`
	Start  string `json:"start" validate:"required"`
	End    string `json:"end" validate:"required"`
}

type createHoldReq struct {
	Rooms []holdRoomDTO `json:"rooms" validate:"required,min=1,dive"`
}

type holdResp struct {
	ID        string        `json:"id"`
	Rooms     []holdRoomDTO `json:"rooms"`
	ExpiresAt string        `json:"expires_at"`
}

// Create handles POST /v1/holds.  A new hold supersedes the session's
// earlier holds on overlapping room nights.
func (h *HoldHandler) Create(c echo.Context) error {
	var req createHoldReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	holdReq := service.HoldRequest{
		SessionID: sessionID(c),
		Rooms:     make(map[uint64]occupancy.DateRange, len(req.Rooms)),
	}
	for _, r := range req.Rooms {
		rng, err := parseRange("start", r.Start, "end", r.End)
		if err != nil {
			return writeServiceError(c, err)
		}
		holdReq.Rooms[r.RoomID] = rng
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	hold, err := h.Holds.CreateHold(ctx, holdReq, h.Bookings, h.Blockages)
	if err != nil {
		return writeServiceError(c, err)
	}

	resp := holdResp{ID: hold.ID, ExpiresAt: hold.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")}
	for _, r := range hold.Rooms {
		resp.Rooms = append(resp.Rooms, holdRoomDTO{
			RoomID: r.RoomID,
			Start:  occupancy.FormatDay(r.Start),
			End:    occupancy.FormatDay(r.End),
		})
	}
	return c.JSON(http.StatusCreated, resp)
}

// Delete handles DELETE /v1/holds/:id.  Only the owning session may
// release a hold.
func (h *HoldHandler) Delete(c echo.Context) error {
	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	if err := h.Holds.CancelHold(ctx, c.Param("id"), sessionID(c)); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
