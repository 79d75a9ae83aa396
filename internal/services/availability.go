package services

import (
	"context"
	"fmt"

	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/store"
)

// Availability computes free slots from the fixed catalog.
type Availability struct {
	store store.AppointmentStore
}

func NewAvailability(s store.AppointmentStore) *Availability {
	return &Availability{store: s}
}

// AvailableSlots returns the catalog minus slots held by non-cancelled
// appointments on date, in catalog order. A fully booked day yields an
// empty, non-nil slice.
func (a *Availability) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	d, err := models.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	date = d.Format(models.DateLayout)

	appts, err := a.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability: %w", err)
	}

	taken := make(map[string]struct{})
	for _, appt := range appts {
		if appt.Date == date && appt.HoldsSlot() {
			taken[appt.TimeSlot] = struct{}{}
		}
	}

	free := make([]string, 0, len(models.SlotCatalog()))
	for _, slot := range models.SlotCatalog() {
		if _, ok := taken[slot]; !ok {
			free = append(free, slot)
		}
	}
	return free, nil
}
