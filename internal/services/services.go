// Package services holds the booking and dashboard workflows that sit between
// the HTTP handlers and the appointment store.
package services

import (
	"context"
	"errors"
	"time"

	"clinic-booking-server/internal/models"
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrDateTooSoon         = errors.New("appointments can be booked from tomorrow onwards")
	ErrUnknownSlot         = errors.New("unknown time slot")
	ErrSlotRequired        = errors.New("a time slot must be selected")
	ErrSlotUnavailable     = errors.New("time slot is no longer available")
	ErrValidation          = errors.New("validation failed")
	ErrWrongStep           = errors.New("booking step out of order")
	ErrBookingFailed       = errors.New("failed to book appointment, please try again")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrInvalidFilter       = errors.New("invalid status filter")
)

// Notifier receives booking and status events. Implementations must not
// block on or report delivery failures.
type Notifier interface {
	NotifyDoctorNewBooking(ctx context.Context, appt models.Appointment)
	NotifyPatientStatusChange(ctx context.Context, appt models.Appointment, status models.AppointmentStatus)
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
