package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-registration/internal/model"
	"github.com/iliyamo/event-registration/internal/queue"
	"github.com/iliyamo/event-registration/internal/registration"
	"github.com/iliyamo/event-registration/internal/repository"
)

// BookingHandler exposes the allocation engine over HTTP: claiming a
// seat, the manual approve/reject decision, cancellation and tier-payment
// confirmation.  Events returned by the ledger are published after the
// response is decided; delivery failures never fail the request.
type BookingHandler struct {
	Ledger *registration.Ledger
}

// NewBookingHandler constructs a BookingHandler.  The ledger must be
// non-nil.
func NewBookingHandler(ledger *registration.Ledger) *BookingHandler {
	if ledger == nil {
		panic("nil ledger passed to NewBookingHandler")
	}
	return &BookingHandler{Ledger: ledger}
}

// claimBody is the request payload for POST /v1/bookings.  Identifiers
// and profile hints are all optional individually, but at least one
// identifier must be present.
type claimBody struct {
	ChatID    *int64 `json:"chat_id"`
	SessionID string `json:"session_id"`
	Phone     string `json:"phone"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	SlotID string `json:"slot_id"`
	SeatID int    `json:"seat_id"`
	Day    int    `json:"day"`
	Line   int    `json:"line"`
	Game   string `json:"game"`
	Master string `json:"master"`
	Tier   int    `json:"tier"`
}

func (b *claimBody) identity() repository.Identity {
	return repository.Identity{
		ChatID:    b.ChatID,
		SessionID: b.SessionID,
		Phone:     b.Phone,
		Username:  b.Username,
		FirstName: b.FirstName,
		LastName:  b.LastName,
	}
}

// Claim handles POST /v1/bookings.  Validation failures are rejected
// before touching the store; conflicts and policy rejections come back
// from the ledger as typed errors and are rendered with their stable code
// plus enough context for the UI to explain the rejection.
func (h *BookingHandler) Claim(c echo.Context) error {
	var body claimBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ChatID == nil && body.SessionID == "" && body.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one identifier is required"})
	}
	if body.SlotID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_id is required"})
	}
	if body.SeatID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat_id"})
	}
	if body.Day <= 0 || body.Line <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid day or line"})
	}
	if body.Tier != model.TierOneDay && body.Tier != model.TierTwoDay {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tier must be 1 or 2"})
	}

	res, err := h.Ledger.Claim(c.Request().Context(), registration.ClaimRequest{
		Identity:      body.identity(),
		SlotID:        body.SlotID,
		SeatID:        body.SeatID,
		Day:           body.Day,
		Line:          body.Line,
		Game:          body.Game,
		Master:        body.Master,
		RequestedTier: body.Tier,
	})
	if err != nil {
		return claimErrorResponse(c, err)
	}

	publishAsync(res.Events)
	return c.JSON(http.StatusCreated, echo.Map{
		"booking_ref": res.Booking.BookingRef,
		"auto_paid":   res.AutoPaid,
	})
}

// Decide handles POST /v1/bookings/:ref/decision, the manual-approval
// counterpart to auto-pay.  The route is protected by the admin-key
// middleware.
func (h *BookingHandler) Decide(c echo.Context) error {
	ref := c.Param("ref")
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking reference is required"})
	}
	var body struct {
		Approve bool `json:"approve"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	events, err := h.Ledger.Decide(c.Request().Context(), ref, body.Approve)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": registration.CodeNotFound})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to apply decision"})
	}

	publishAsync(events)
	status := "rejected"
	if body.Approve {
		status = "approved"
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status})
}

// Cancel handles DELETE /v1/bookings/:ref.  The freed seat is claimable
// again the moment the response is sent.
func (h *BookingHandler) Cancel(c echo.Context) error {
	ref := c.Param("ref")
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking reference is required"})
	}
	events, err := h.Ledger.Cancel(c.Request().Context(), ref)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": registration.CodeNotFound})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	publishAsync(events)
	return c.NoContent(http.StatusNoContent)
}

// ConfirmTierPayment handles PUT /v1/profile/paid-tier.  Tier payment is
// confirmed manually by an organizer after checking the payment proof, so
// the route sits behind the admin-key middleware like Decide.
func (h *BookingHandler) ConfirmTierPayment(c echo.Context) error {
	var body struct {
		ChatID    *int64 `json:"chat_id"`
		SessionID string `json:"session_id"`
		Phone     string `json:"phone"`
		PaidTier  int    `json:"paid_tier"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ChatID == nil && body.SessionID == "" && body.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one identifier is required"})
	}
	if body.PaidTier != model.TierUnpaid && body.PaidTier != model.TierOneDay && body.PaidTier != model.TierTwoDay {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "paid_tier must be 0, 1 or 2"})
	}

	events, err := h.Ledger.ConfirmTierPayment(c.Request().Context(), repository.Identity{
		ChatID:    body.ChatID,
		SessionID: body.SessionID,
		Phone:     body.Phone,
	}, body.PaidTier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": registration.CodeNotFound})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm payment"})
	}
	publishAsync(events)
	return c.JSON(http.StatusOK, echo.Map{"paid_tier": body.PaidTier})
}

// claimErrorResponse maps ledger errors onto HTTP responses.  Conflicts
// (seat or cell already taken) are 409; policy rejections are 422 and
// carry the numbers the UI needs to explain why.
func claimErrorResponse(c echo.Context, err error) error {
	var lockErr *registration.ModeSwitchLockedError
	var quotaErr *registration.QuotaReachedError
	var dayErr *registration.DayLockedError
	switch {
	case errors.Is(err, repository.ErrSeatTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": registration.CodeSeatTaken})
	case errors.Is(err, repository.ErrCellTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": registration.CodeCellBooked})
	case errors.As(err, &lockErr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":          registration.CodeModeSwitchLocked,
			"current_tier":   lockErr.CurrentTier,
			"requested_tier": lockErr.RequestedTier,
			"total_bookings": lockErr.TotalBookings,
		})
	case errors.As(err, &quotaErr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error": registration.CodeQuotaReached,
			"limit": quotaErr.Limit,
		})
	case errors.As(err, &dayErr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":         registration.CodeDayLocked,
			"locked_day":    dayErr.LockedDay,
			"requested_day": dayErr.RequestedDay,
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
}

// publishAsync hands events to the broker outside the request lifecycle.
// The booking has already committed, so delivery is detached from the
// request context and failures are only logged.
func publishAsync(events []queue.Event) {
	if len(events) == 0 {
		return
	}
	go queue.PublishAll(context.Background(), events)
}
