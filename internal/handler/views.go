package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-registration/internal/registration"
	"github.com/iliyamo/event-registration/internal/repository"
)

// ViewHandler serves the read-only views: booked-seat maps for the seat
// picker UI and the profile lookup used by the chat bot and the web page.
// These endpoints never mutate state, so they sit behind the response
// cache middleware.
type ViewHandler struct {
	Users    *repository.UserRepo
	Bookings *repository.BookingRepo
}

// NewViewHandler constructs a ViewHandler.  Both repositories must be
// non-nil.
func NewViewHandler(users *repository.UserRepo, bookings *repository.BookingRepo) *ViewHandler {
	if users == nil || bookings == nil {
		panic("nil repository passed to NewViewHandler")
	}
	return &ViewHandler{Users: users, Bookings: bookings}
}

// GetSlotSeats handles GET /v1/slots/:id/seats and returns the seat ids
// currently booked in the slot.  An unknown slot is indistinguishable
// from an empty one: both yield an empty list.
func (h *ViewHandler) GetSlotSeats(c echo.Context) error {
	slotID := c.Param("id")
	if slotID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	seats, err := h.Bookings.SeatsBySlot(c.Request().Context(), slotID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"slot_id":  slotID,
		"seat_ids": seats,
	})
}

// GetAllSeats handles GET /v1/seats and returns booked seat ids of every
// slot keyed by slot id, for rendering all seat maps in one request.
func (h *ViewHandler) GetAllSeats(c echo.Context) error {
	slots, err := h.Bookings.SeatsByAllSlots(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

// GetProfile handles GET /v1/profile.  The caller supplies any one of the
// weak identifiers as a query parameter (chat_id, session_id or phone);
// resolution follows the same strength order as booking.
func (h *ViewHandler) GetProfile(c echo.Context) error {
	ident := repository.Identity{
		SessionID: c.QueryParam("session_id"),
		Phone:     c.QueryParam("phone"),
	}
	if raw := c.QueryParam("chat_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid chat_id"})
		}
		ident.ChatID = &id
	}
	if ident.ChatID == nil && ident.SessionID == "" && ident.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one identifier is required"})
	}

	u, err := h.Users.Find(c.Request().Context(), ident)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": registration.CodeNotFound})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load profile"})
	}

	resp := echo.Map{
		"chat_id":        u.ChatID,
		"first_name":     u.FirstName,
		"chosen_tier":    u.ChosenTier,
		"tier_confirmed": u.TierConfirmed,
		"paid_tier":      u.PaidTier,
		"has_paid_tier":  u.HasPaid(),
	}
	if u.LastName != nil {
		resp["last_name"] = *u.LastName
	}
	if u.Phone != nil {
		resp["phone"] = *u.Phone
	}
	if u.Username != nil {
		resp["username"] = *u.Username
	}
	if u.RegistrationNumber != nil {
		resp["registration_number"] = *u.RegistrationNumber
	}
	return c.JSON(http.StatusOK, resp)
}
