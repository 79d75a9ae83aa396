package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" confirmed ")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseStatus("RESCHEDULED")
	assert.Error(t, err)
	assert.False(t, AppointmentStatus("").Valid())
}

func TestSlotCatalogOrderAndCopy(t *testing.T) {
	slots := SlotCatalog()
	require.Len(t, slots, 12)
	assert.Equal(t, "09:00 AM", slots[0])
	assert.Equal(t, "11:30 AM", slots[5])
	assert.Equal(t, "02:00 PM", slots[6])
	assert.Equal(t, "04:30 PM", slots[11])

	slots[0] = "mutated"
	assert.Equal(t, "09:00 AM", SlotCatalog()[0])
	assert.True(t, IsCatalogSlot("03:30 PM"))
	assert.False(t, IsCatalogSlot("12:00 PM"))
}

func TestAppointmentJSONShape(t *testing.T) {
	appt := Appointment{
		ID:                 "a1",
		Patient:            Patient{Name: "Sarah Perera", Age: 24, Email: "sarah@example.com", Phone: "0771234567"},
		Date:               "2025-01-10",
		TimeSlot:           "10:00 AM",
		ProblemDescription: "Aligners",
		Status:             StatusPending,
		CreatedAt:          "2025-01-01T08:00:00.000Z",
	}

	raw, err := json.Marshal(appt)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "imageUrl")
	assert.Equal(t, "10:00 AM", decoded["timeSlot"])
	assert.Equal(t, "PENDING", decoded["status"])
	patient := decoded["patient"].(map[string]any)
	assert.Equal(t, "0771234567", patient["phone"])
}

func TestHoldsSlot(t *testing.T) {
	assert.True(t, Appointment{Status: StatusPending}.HoldsSlot())
	assert.True(t, Appointment{Status: StatusConfirmed}.HoldsSlot())
	assert.True(t, Appointment{Status: StatusCompleted}.HoldsSlot())
	assert.False(t, Appointment{Status: StatusCancelled}.HoldsSlot())
}

func TestFormatCreatedAtSortsAsText(t *testing.T) {
	earlier := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(1500 * time.Millisecond)
	assert.Equal(t, "2025-01-01T09:00:00.000Z", FormatCreatedAt(earlier))
	assert.Less(t, FormatCreatedAt(earlier), FormatCreatedAt(later))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Day())

	_, err = ParseDate("10/01/2025")
	assert.Error(t, err)
}

func TestStaffUserPassword(t *testing.T) {
	u := StaffUser{Email: "doc@example.com", Name: "Dr. Who", Role: RoleDoctor}
	require.NoError(t, u.SetPassword("correct horse"))

	assert.NotEqual(t, "correct horse", u.Password)
	assert.True(t, u.CheckPassword("correct horse"))
	assert.False(t, u.CheckPassword("wrong"))

	clean := u.Sanitize()
	assert.Equal(t, "doc@example.com", clean.Email)
	assert.Equal(t, RoleDoctor, clean.Role)
}
