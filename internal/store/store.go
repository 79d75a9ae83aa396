// Package store persists appointment records. Two backends satisfy the same
// AppointmentStore contract and one is chosen at startup.
package store

import (
	"context"
	"errors"
	"time"

	"clinic-booking-server/internal/models"
)

var (
	// ErrSlotTaken is returned by Append when a non-cancelled appointment
	// already holds the same date and slot.
	ErrSlotTaken = errors.New("store: slot already booked")
	// ErrInvalidRecord is returned by Append for records missing required fields.
	ErrInvalidRecord = errors.New("store: invalid appointment record")
)

// AppointmentStore is the persistence capability the workflows depend on.
type AppointmentStore interface {
	// ListAll returns every appointment in insertion order.
	ListAll(ctx context.Context) ([]models.Appointment, error)
	// Append persists a new appointment and returns its id. It never
	// overwrites an existing record.
	Append(ctx context.Context, appt models.Appointment) (string, error)
	// UpdateStatus replaces the status of id. An unknown id is a no-op.
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error
}

// Backend labels used in logs and metrics.
const (
	BackendMySQL = "mysql"
	BackendLocal = "local"
)

func validateNew(appt models.Appointment) error {
	switch {
	case appt.Date == "", appt.TimeSlot == "", appt.Patient.Phone == "":
		return ErrInvalidRecord
	case !appt.Status.Valid():
		return ErrInvalidRecord
	}
	// Slot checks compare dates as text, so only the canonical form is stored.
	if d, err := time.Parse(models.DateLayout, appt.Date); err != nil || d.Format(models.DateLayout) != appt.Date {
		return ErrInvalidRecord
	}
	return nil
}

func slotHeld(appts []models.Appointment, date, slot string) bool {
	for _, a := range appts {
		if a.Date == date && a.TimeSlot == slot && a.HoldsSlot() {
			return true
		}
	}
	return false
}
