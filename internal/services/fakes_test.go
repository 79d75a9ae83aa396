package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/store"
)

var errStoreDown = errors.New("store unavailable")

type fakeStore struct {
	mu        sync.Mutex
	appts     []models.Appointment
	nextID    int
	failList  bool
	failWrite bool
	updates   int
}

func (s *fakeStore) ListAll(ctx context.Context) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errStoreDown
	}
	return append([]models.Appointment{}, s.appts...), nil
}

func (s *fakeStore) Append(ctx context.Context, appt models.Appointment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return "", errStoreDown
	}
	for _, a := range s.appts {
		if a.Date == appt.Date && a.TimeSlot == appt.TimeSlot && a.HoldsSlot() {
			return "", store.ErrSlotTaken
		}
	}
	s.nextID++
	appt.ID = "appt-" + strconv.Itoa(s.nextID)
	s.appts = append(s.appts, appt)
	return appt.ID, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite {
		return errStoreDown
	}
	s.updates++
	for i := range s.appts {
		if s.appts[i].ID == id {
			s.appts[i].Status = status
		}
	}
	return nil
}

type patientNotice struct {
	appt   models.Appointment
	status models.AppointmentStatus
}

type recordingNotifier struct {
	mu       sync.Mutex
	bookings []models.Appointment
	patients []patientNotice
}

func (n *recordingNotifier) NotifyDoctorNewBooking(ctx context.Context, appt models.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, appt)
}

func (n *recordingNotifier) NotifyPatientStatusChange(ctx context.Context, appt models.Appointment, status models.AppointmentStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.patients = append(n.patients, patientNotice{appt: appt, status: status})
}

// fixedClock pins "now" to 2025-01-09 10:00 local time, so tomorrow is 2025-01-10.
func fixedClock() time.Time {
	return time.Date(2025, 1, 9, 10, 0, 0, 0, time.Local)
}

func seeded(id, name, phone, date, slot string, status models.AppointmentStatus) models.Appointment {
	return models.Appointment{
		ID:        id,
		Patient:   models.Patient{Name: name, Phone: phone},
		Date:      date,
		TimeSlot:  slot,
		Status:    status,
		CreatedAt: "2025-01-01T08:00:00.000Z",
	}
}
