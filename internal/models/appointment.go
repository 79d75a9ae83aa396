package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus represents the lifecycle stage of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

// Valid reports whether s is one of the four persisted statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (AppointmentStatus, error) {
	s := AppointmentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown appointment status %q", raw)
	}
	return s, nil
}

// DateLayout is the calendar date form stored on appointments.
const DateLayout = "2006-01-02"

// CreatedAtLayout keeps creation timestamps sortable as text.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z"

// Patient holds the contact details captured by the booking form.
type Patient struct {
	Name  string `gorm:"size:255;not null" json:"name"`
	Age   int    `gorm:"default:0" json:"age"`
	Email string `gorm:"size:255" json:"email"`
	Phone string `gorm:"size:32;index;not null" json:"phone"`
}

// Appointment is a booked (date, slot) pair for one patient.
// Only Status changes after creation.
type Appointment struct {
	ID                 string            `gorm:"primaryKey;size:64" json:"id"`
	Patient            Patient           `gorm:"embedded;embeddedPrefix:patient_" json:"patient"`
	Date               string            `gorm:"size:10;not null;index:idx_appointments_date_slot" json:"date"`
	TimeSlot           string            `gorm:"size:16;not null;index:idx_appointments_date_slot" json:"timeSlot"`
	ProblemDescription string            `gorm:"type:text" json:"problemDescription"`
	Status             AppointmentStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedAt          string            `gorm:"size:32;not null" json:"createdAt"`
	ImageURL           string            `gorm:"size:512" json:"imageUrl,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not supply an id.
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// HoldsSlot reports whether the appointment occupies its (date, slot) pair.
func (a Appointment) HoldsSlot() bool {
	return a.Status != StatusCancelled
}

// FormatCreatedAt renders t in the stored creation timestamp form.
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(CreatedAtLayout)
}

// ParseDate validates a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", raw)
	}
	return d, nil
}
