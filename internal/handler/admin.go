package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/utia/guesthouse-booking/internal/model"
	"github.com/utia/guesthouse-booking/internal/occupancy"
	"github.com/utia/guesthouse-booking/internal/repository"
)

// AdminHandler groups the administration endpoints: room catalog
// management, blockages and the settings record.  All routes are
// guarded by the admin JWT middleware.
type AdminHandler struct {
	Rooms     *repository.RoomRepo
	Blockages *repository.BlockageRepo
	Settings  *repository.SettingsRepo
}

func NewAdminHandler(rooms *repository.RoomRepo, blockages *repository.BlockageRepo, settings *repository.SettingsRepo) *AdminHandler {
	if rooms == nil || blockages == nil || settings == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Rooms: rooms, Blockages: blockages, Settings: settings}
}

// ----- rooms -----

type roomReq struct {
	Name     string `json:"name" validate:"required,max=100"`
	Size     string `json:"size" validate:"required,oneof=small large"`
	Beds     uint32 `json:"beds" validate:"required,min=1,max=10"`
	IsActive *bool  `json:"is_active"`
}

// ListRooms handles GET /v1/admin/rooms, including inactive rooms.
func (h *AdminHandler) ListRooms(c echo.Context) error {
	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	rooms, err := h.Rooms.List(ctx, false)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// CreateRoom handles POST /v1/admin/rooms.
func (h *AdminHandler) CreateRoom(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}
	room := &model.Room{
		Name:     req.Name,
		Size:     model.RoomSize(req.Size),
		Beds:     req.Beds,
		IsActive: req.IsActive == nil || *req.IsActive,
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	if err := h.Rooms.Create(ctx, room); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

// UpdateRoom handles PUT /v1/admin/rooms/:id.
func (h *AdminHandler) UpdateRoom(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return writeServiceError(c, err)
	}
	room.Name = req.Name
	room.Size = model.RoomSize(req.Size)
	room.Beds = req.Beds
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}
	if err := h.Rooms.Update(ctx, room); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

// DeleteRoom handles DELETE /v1/admin/rooms/:id.  Rooms referenced by
// bookings cannot be deleted; deactivate them instead.
func (h *AdminHandler) DeleteRoom(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	if err := h.Rooms.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "room has bookings; deactivate it instead"})
		}
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- blockages -----

type blockageReq struct {
	Start   string   `json:"start" validate:"required"`
	End     string   `json:"end" validate:"required"`
	RoomIDs []uint64 `json:"room_ids"` // empty means the whole property
	Reason  string   `json:"reason" validate:"max=200"`
}

// ListBlockages handles GET /v1/admin/blockages.
func (h *AdminHandler) ListBlockages(c echo.Context) error {
	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	blockages, err := h.Blockages.List(ctx)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, blockages)
}

// CreateBlockage handles POST /v1/admin/blockages.  A blockage makes
// the named rooms (or all rooms) unavailable for its nights; existing
// bookings are untouched.
func (h *AdminHandler) CreateBlockage(c echo.Context) error {
	var req blockageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}
	rng, err := parseRange("start", req.Start, "end", req.End)
	if err != nil {
		return writeServiceError(c, err)
	}
	if !rng.IsValid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": "start must precede end"})
	}
	blockage := &model.Blockage{
		Start:   rng.Start,
		End:     rng.End,
		RoomIDs: req.RoomIDs,
		Reason:  req.Reason,
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	if err := h.Blockages.Create(ctx, blockage); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, blockage)
}

// DeleteBlockage handles DELETE /v1/admin/blockages/:id.
func (h *AdminHandler) DeleteBlockage(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid blockage id"})
	}
	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	if err := h.Blockages.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- settings -----

// GetSettings handles GET /v1/admin/settings.
func (h *AdminHandler) GetSettings(c echo.Context) error {
	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	settings, err := h.Settings.Get(ctx)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /v1/admin/settings.  The whole record is
// replaced; schema validation rejects incoherent tables before the
// write.
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	var settings model.Settings
	if err := c.Bind(&settings); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if settings.Restriction != nil {
		settings.Restriction.Start = occupancy.Day(settings.Restriction.Start)
		settings.Restriction.End = occupancy.Day(settings.Restriction.End)
	}
	if err := settings.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	if err := h.Settings.Update(ctx, &settings); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}
