package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"clinic-booking-server/internal/services"
	"clinic-booking-server/internal/utils"
	"clinic-booking-server/pkg/logging"
)

// BookingHandler serves the public booking form.
type BookingHandler struct {
	Bookings *services.BookingService
	Logger   *logging.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookings *services.BookingService, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{Bookings: bookings, Logger: logger}
}

// SlotsResponse is the date picker payload.
type SlotsResponse struct {
	Date    string   `json:"date"`
	MinDate string   `json:"minDate"`
	Slots   []string `json:"slots"`
}

// GetSlots returns the free slots of the requested date.
func (h *BookingHandler) GetSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.Success(c, "Minimum bookable date", SlotsResponse{MinDate: h.Bookings.MinDate(), Slots: []string{}})
		return
	}

	slots, err := h.Bookings.NewFlow().SelectDate(c.Request.Context(), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, "Available slots retrieved", SlotsResponse{
		Date:    date,
		MinDate: h.Bookings.MinDate(),
		Slots:   slots,
	})
}

// CreateBooking submits the booking form.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req services.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	confirmation, err := h.Bookings.Book(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Created(c, "Appointment booked successfully", confirmation)
}

func (h *BookingHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSlotUnavailable):
		utils.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrDateTooSoon),
		errors.Is(err, services.ErrUnknownSlot),
		errors.Is(err, services.ErrSlotRequired),
		errors.Is(err, services.ErrValidation):
		utils.BadRequest(c, err.Error())
	default:
		h.Logger.Error("booking request failed", "error", err)
		utils.ServiceUnavailable(c, "Failed to book appointment. Please try again.")
	}
}
