package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-booking-server/internal/models"
)

func TestAvailableSlotsEmptyDayReturnsCatalog(t *testing.T) {
	a := NewAvailability(&fakeStore{})

	slots, err := a.AvailableSlots(context.Background(), "2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, models.SlotCatalog(), slots)
}

func TestAvailableSlotsSubtractsHeldSlotsInCatalogOrder(t *testing.T) {
	s := &fakeStore{appts: []models.Appointment{
		seeded("1", "A", "0000000001", "2025-01-10", "10:00 AM", models.StatusPending),
		seeded("2", "B", "0000000002", "2025-01-10", "02:30 PM", models.StatusConfirmed),
		seeded("3", "C", "0000000003", "2025-01-10", "04:30 PM", models.StatusCompleted),
		seeded("4", "D", "0000000004", "2025-01-10", "09:00 AM", models.StatusCancelled),
		seeded("5", "E", "0000000005", "2025-01-11", "11:00 AM", models.StatusPending),
	}}
	a := NewAvailability(s)

	slots, err := a.AvailableSlots(context.Background(), "2025-01-10")
	require.NoError(t, err)
	assert.Len(t, slots, 12-3)
	assert.NotContains(t, slots, "10:00 AM")
	assert.NotContains(t, slots, "02:30 PM")
	assert.NotContains(t, slots, "04:30 PM")
	assert.Contains(t, slots, "09:00 AM")
	assert.Contains(t, slots, "11:00 AM")

	catalog := models.SlotCatalog()
	pos := -1
	for _, slot := range slots {
		idx := indexOf(catalog, slot)
		require.GreaterOrEqual(t, idx, 0)
		assert.Greater(t, idx, pos)
		pos = idx
	}
}

func TestAvailableSlotsFullyBookedDayIsEmptyNotNil(t *testing.T) {
	s := &fakeStore{}
	for i, slot := range models.SlotCatalog() {
		s.appts = append(s.appts, seeded(string(rune('a'+i)), "P", "0000000000", "2025-01-10", slot, models.StatusPending))
	}

	slots, err := NewAvailability(s).AvailableSlots(context.Background(), "2025-01-10")
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestAvailableSlotsErrors(t *testing.T) {
	_, err := NewAvailability(&fakeStore{}).AvailableSlots(context.Background(), "tomorrow")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = NewAvailability(&fakeStore{failList: true}).AvailableSlots(context.Background(), "2025-01-10")
	assert.ErrorIs(t, err, errStoreDown)
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

func TestAvailableSlotsTrimsDateBeforeMatching(t *testing.T) {
	s := &fakeStore{appts: []models.Appointment{
		seeded("a", "A", "0711111111", "2025-01-10", "09:00 AM", models.StatusConfirmed),
	}}
	slots, err := NewAvailability(s).AvailableSlots(context.Background(), "  2025-01-10")
	require.NoError(t, err)
	assert.Len(t, slots, 11)
	assert.NotContains(t, slots, "09:00 AM")
}
