package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/utia/guesthouse-booking/internal/model"
	"github.com/utia/guesthouse-booking/internal/occupancy"
	"github.com/utia/guesthouse-booking/internal/service"
)

// BookingHandler exposes the booking endpoints: create, quote, read,
// edit and cancel.  All decision logic lives in the service layer; the
// handler binds and validates DTOs, resolves the caller's
// authorization context and maps typed errors to responses.
type BookingHandler struct {
	Bookings   *service.BookingService
	ServiceKey string
}

func NewBookingHandler(bookings *service.BookingService, serviceKey string) *BookingHandler {
	if bookings == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings, ServiceKey: serviceKey}
}

// ----- DTOs -----

type guestDTO struct {
	Type string `json:"type" validate:"required,oneof=adult child toddler"`
	Tier string `json:"tier" validate:"required,oneof=utia external"`
	Name string `json:"name" validate:"max=120"`
}

type roomSelectionDTO struct {
	RoomID uint64     `json:"room_id" validate:"required"`
	Start  string     `json:"start" validate:"required"`
	End    string     `json:"end" validate:"required"`
	Guests []guestDTO `json:"guests" validate:"dive"`
}

type createBookingReq struct {
	IsBulk       bool               `json:"is_bulk"`
	Rooms        []roomSelectionDTO `json:"rooms" validate:"dive"`
	Start        string             `json:"start"`  // bulk only
	End          string             `json:"end"`    // bulk only
	Guests       []guestDTO         `json:"guests" validate:"dive"` // bulk only
	AccessCode   string             `json:"access_code"`
	GroupID      *string            `json:"group_id"`
	ContactName  string             `json:"contact_name" validate:"required,max=200"`
	ContactEmail string             `json:"contact_email" validate:"required,email"`
}

type updateBookingReq struct {
	Rooms        []roomSelectionDTO `json:"rooms" validate:"omitempty,dive"`
	Start        *string            `json:"start"` // bulk only
	End          *string            `json:"end"`   // bulk only
	Guests       []guestDTO         `json:"guests" validate:"omitempty,dive"` // bulk only
	ContactName  *string            `json:"contact_name" validate:"omitempty,max=200"`
	ContactEmail *string            `json:"contact_email" validate:"omitempty,email"`
	Paid         *bool              `json:"paid"`
	PriceLocked  *bool              `json:"price_locked"`
}

type bookingRoomPart struct {
	RoomID uint64 `json:"room_id"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type bookingGuestPart struct {
	RoomID *uint64 `json:"room_id,omitempty"`
	Type   string  `json:"type"`
	Tier   string  `json:"tier"`
	Name   string  `json:"name,omitempty"`
}

type bookingResp struct {
	ID           uint64             `json:"id"`
	EditToken    string             `json:"edit_token,omitempty"`
	GroupID      *string            `json:"group_id,omitempty"`
	IsBulk       bool               `json:"is_bulk"`
	Rooms        []bookingRoomPart  `json:"rooms"`
	Guests       []bookingGuestPart `json:"guests"`
	TotalPrice   int64              `json:"total_price"`
	Paid         bool               `json:"paid"`
	PriceLocked  bool               `json:"price_locked"`
	ContactName  string             `json:"contact_name"`
	ContactEmail string             `json:"contact_email"`
	Warning      string             `json:"warning,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

func toBookingResp(b *model.Booking, withToken bool, warning string) bookingResp {
	resp := bookingResp{
		ID:           b.ID,
		GroupID:      b.GroupID,
		IsBulk:       b.IsBulk,
		TotalPrice:   b.TotalPrice,
		Paid:         b.Paid,
		PriceLocked:  b.PriceLocked,
		ContactName:  b.ContactName,
		ContactEmail: b.ContactEmail,
		Warning:      warning,
		CreatedAt:    b.CreatedAt,
	}
	if withToken {
		resp.EditToken = b.EditToken
	}
	for _, r := range b.Rooms {
		resp.Rooms = append(resp.Rooms, bookingRoomPart{
			RoomID: r.RoomID,
			Start:  occupancy.FormatDay(r.Start),
			End:    occupancy.FormatDay(r.End),
		})
	}
	for _, g := range b.Guests {
		resp.Guests = append(resp.Guests, bookingGuestPart{
			RoomID: g.RoomID,
			Type:   string(g.Type),
			Tier:   string(g.Tier),
			Name:   g.Name,
		})
	}
	return resp
}

func toGuestSpecs(dtos []guestDTO) []service.GuestSpec {
	out := make([]service.GuestSpec, 0, len(dtos))
	for _, g := range dtos {
		out = append(out, service.GuestSpec{
			Type: model.PersonType(g.Type),
			Tier: model.Tier(g.Tier),
			Name: g.Name,
		})
	}
	return out
}

// toCommitRequest converts the bound DTO into the service request,
// parsing the day strings.
func (h *BookingHandler) toCommitRequest(c echo.Context, req createBookingReq) (service.CommitRequest, error) {
	out := service.CommitRequest{
		SessionID:    sessionID(c),
		ClientAddr:   c.RealIP(),
		IsBulk:       req.IsBulk,
		AccessCode:   req.AccessCode,
		GroupID:      req.GroupID,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
	}
	if req.IsBulk {
		rng, err := parseRange("start", req.Start, "end", req.End)
		if err != nil {
			return service.CommitRequest{}, err
		}
		out.BulkRange = rng
		out.BulkGuests = toGuestSpecs(req.Guests)
		return out, nil
	}
	out.Rooms = make(map[uint64]service.RoomSelection, len(req.Rooms))
	for _, r := range req.Rooms {
		rng, err := parseRange("start", r.Start, "end", r.End)
		if err != nil {
			return service.CommitRequest{}, err
		}
		out.Rooms[r.RoomID] = service.RoomSelection{Range: rng, Guests: toGuestSpecs(r.Guests)}
	}
	return out, nil
}

// Create handles POST /v1/bookings.  On success it returns the booking
// with its edit token; the token is shown exactly once.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}
	commitReq, err := h.toCommitRequest(c, req)
	if err != nil {
		return writeServiceError(c, err)
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	result, err := h.Bookings.CommitBooking(ctx, commitReq)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(result.Booking, true, result.Warning))
}

// Quote handles POST /v1/bookings/quote.  It runs the same validation
// and pricing as Create without touching availability or storage.
func (h *BookingHandler) Quote(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}
	commitReq, err := h.toCommitRequest(c, req)
	if err != nil {
		return writeServiceError(c, err)
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	total, err := h.Bookings.CalculatePrice(ctx, commitReq)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total_price": total})
}

// Get handles GET /v1/bookings/:id.  Anonymous callers must present
// the edit token.
func (h *BookingHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	booking, err := h.Bookings.GetBooking(ctx, id, authFrom(c, h.ServiceKey))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(booking, false, ""))
}

// Update handles PATCH /v1/bookings/:id.
func (h *BookingHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req updateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	}

	if (req.Start == nil) != (req.End == nil) {
		return writeServiceError(c, &service.ValidationError{Field: "range", Message: "start and end must be provided together"})
	}

	upd := service.UpdateRequest{
		SessionID:    sessionID(c),
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		Paid:         req.Paid,
		PriceLocked:  req.PriceLocked,
	}
	if req.Rooms != nil {
		upd.Rooms = make(map[uint64]service.RoomSelection, len(req.Rooms))
		for _, r := range req.Rooms {
			rng, err := parseRange("start", r.Start, "end", r.End)
			if err != nil {
				return writeServiceError(c, err)
			}
			upd.Rooms[r.RoomID] = service.RoomSelection{Range: rng, Guests: toGuestSpecs(r.Guests)}
		}
	}
	if req.Start != nil && req.End != nil {
		rng, err := parseRange("start", *req.Start, "end", *req.End)
		if err != nil {
			return writeServiceError(c, err)
		}
		upd.BulkRange = &rng
	}
	if req.Guests != nil {
		upd.BulkGuests = toGuestSpecs(req.Guests)
	}

	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	booking, err := h.Bookings.UpdateBooking(ctx, id, upd, authFrom(c, h.ServiceKey))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResp(booking, false, ""))
}

// Delete handles DELETE /v1/bookings/:id.
func (h *BookingHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	if err := h.Bookings.DeleteBooking(ctx, id, authFrom(c, h.ServiceKey)); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/admin/bookings.  Admin-only overview.
func (h *BookingHandler) List(c echo.Context) error {
	ctx, cancel := contextWithTimeout(c)
	defer cancel()
	bookings, err := h.Bookings.ListBookings(ctx)
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]bookingResp, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResp(&bookings[i], false, ""))
	}
	return c.JSON(http.StatusOK, out)
}
