package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-booking-server/internal/metrics"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/store"
	"clinic-booking-server/internal/utils"
	"clinic-booking-server/pkg/logging"
)

// DefaultProblemDescription is recorded when the patient leaves it blank.
const DefaultProblemDescription = "General Consultation"

// Step is a stage of the two-step booking form.
type Step int

const (
	StepDateAndSlot Step = iota
	StepDetails
	StepConfirmed
)

func (s Step) String() string {
	switch s {
	case StepDateAndSlot:
		return "DATE_AND_SLOT"
	case StepDetails:
		return "DETAILS"
	case StepConfirmed:
		return "CONFIRMED_VIEW"
	}
	return "UNKNOWN"
}

// BookingDetails is the contact information collected in the details step.
type BookingDetails struct {
	Name               string `json:"name" validate:"required,max=255"`
	Phone              string `json:"phone" validate:"required,len=10,number"`
	Email              string `json:"email" validate:"omitempty,email,max=255"`
	Age                int    `json:"age" validate:"gte=0,lte=130"`
	ProblemDescription string `json:"problemDescription" validate:"max=2000"`
}

// BookingRequest carries both steps for a single stateless submission.
type BookingRequest struct {
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
	BookingDetails
}

// Confirmation is what the confirmed view echoes back to the patient.
type Confirmation struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
	Status   string `json:"status"`
}

// BookingService creates booking flows sharing one store and notifier.
type BookingService struct {
	store        store.AppointmentStore
	availability *Availability
	notifier     Notifier
	now          Clock
	metrics      *metrics.ClinicMetrics
	logger       *logging.Logger
}

func NewBookingService(s store.AppointmentStore, notifier Notifier, now Clock, m *metrics.ClinicMetrics, logger *logging.Logger) *BookingService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingService{
		store:        s,
		availability: NewAvailability(s),
		notifier:     notifier,
		now:          now,
		metrics:      m,
		logger:       logger,
	}
}

// MinDate is the earliest bookable date; same-day booking is not allowed.
func (s *BookingService) MinDate() string {
	return startOfDay(s.now()).AddDate(0, 0, 1).Format(models.DateLayout)
}

// AvailableSlots exposes the calculator for the date picker.
func (s *BookingService) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	return s.availability.AvailableSlots(ctx, date)
}

// Book runs a full flow for one request: date, slot, then details.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*Confirmation, error) {
	flow := s.NewFlow()
	if _, err := flow.SelectDate(ctx, req.Date); err != nil {
		s.metrics.ObserveBooking(bookingResult(err))
		return nil, err
	}
	if err := flow.SelectSlot(req.TimeSlot); err != nil {
		s.metrics.ObserveBooking(bookingResult(err))
		return nil, err
	}
	return flow.Submit(ctx, req.BookingDetails)
}

// BookingFlow is the per-visitor state machine behind the booking form.
type BookingFlow struct {
	svc          *BookingService
	step         Step
	date         string
	slots        []string
	slot         string
	confirmation *Confirmation
}

func (s *BookingService) NewFlow() *BookingFlow {
	return &BookingFlow{svc: s, step: StepDateAndSlot}
}

func (f *BookingFlow) Step() Step { return f.step }

func (f *BookingFlow) Date() string { return f.date }

func (f *BookingFlow) Slot() string { return f.slot }

func (f *BookingFlow) Slots() []string { return f.slots }

func (f *BookingFlow) Confirmation() *Confirmation { return f.confirmation }

// SelectDate picks a date and loads its free slots. Any previously chosen
// slot is cleared.
func (f *BookingFlow) SelectDate(ctx context.Context, date string) ([]string, error) {
	if f.step != StepDateAndSlot {
		return nil, ErrWrongStep
	}
	d, err := models.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	date = d.Format(models.DateLayout)
	if date < f.svc.MinDate() {
		return nil, ErrDateTooSoon
	}

	slots, err := f.svc.availability.AvailableSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	f.date = date
	f.slots = slots
	f.slot = ""
	return slots, nil
}

// SelectSlot chooses one of the loaded slots and moves to the details step.
func (f *BookingFlow) SelectSlot(slot string) error {
	if f.step != StepDateAndSlot || f.date == "" {
		return ErrWrongStep
	}
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return ErrSlotRequired
	}
	if !models.IsCatalogSlot(slot) {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	for _, free := range f.slots {
		if free == slot {
			f.slot = slot
			f.step = StepDetails
			return nil
		}
	}
	return ErrSlotUnavailable
}

// Back returns from the details step to the date picker.
func (f *BookingFlow) Back() {
	if f.step == StepDetails {
		f.step = StepDateAndSlot
	}
}

// Submit validates the details, appends the appointment and notifies the
// clinic. A store failure leaves the flow in the details step so the visitor
// can retry.
func (f *BookingFlow) Submit(ctx context.Context, details BookingDetails) (*Confirmation, error) {
	if f.step != StepDetails {
		return nil, ErrWrongStep
	}
	svc := f.svc

	details = normalizeDetails(details)
	if err := utils.Validate(details); err != nil {
		svc.metrics.ObserveBooking("invalid")
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationError(err))
	}

	appt := models.Appointment{
		Patient: models.Patient{
			Name:  details.Name,
			Age:   details.Age,
			Email: details.Email,
			Phone: details.Phone,
		},
		Date:               f.date,
		TimeSlot:           f.slot,
		ProblemDescription: details.ProblemDescription,
		Status:             models.StatusPending,
		CreatedAt:          models.FormatCreatedAt(svc.now()),
	}

	id, err := svc.store.Append(ctx, appt)
	if errors.Is(err, store.ErrSlotTaken) {
		svc.metrics.ObserveBooking("slot_taken")
		f.step = StepDateAndSlot
		f.slot = ""
		if slots, lerr := svc.availability.AvailableSlots(ctx, f.date); lerr == nil {
			f.slots = slots
		}
		return nil, ErrSlotUnavailable
	}
	if err != nil {
		svc.metrics.ObserveBooking("store_error")
		svc.logger.Error("booking append failed", "error", err, "date", f.date, "slot", f.slot)
		return nil, fmt.Errorf("%w: %w", ErrBookingFailed, err)
	}
	appt.ID = id

	if svc.notifier != nil {
		svc.notifier.NotifyDoctorNewBooking(ctx, appt)
	}
	svc.metrics.ObserveBooking("created")
	svc.logger.Info("appointment booked", "id", id, "date", appt.Date, "slot", appt.TimeSlot)

	f.step = StepConfirmed
	f.confirmation = &Confirmation{
		ID:       id,
		Name:     appt.Patient.Name,
		Date:     appt.Date,
		TimeSlot: appt.TimeSlot,
		Status:   string(appt.Status),
	}
	return f.confirmation, nil
}

func normalizeDetails(d BookingDetails) BookingDetails {
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Email = strings.TrimSpace(d.Email)
	d.ProblemDescription = strings.TrimSpace(d.ProblemDescription)
	if d.ProblemDescription == "" {
		d.ProblemDescription = DefaultProblemDescription
	}
	return d
}

func bookingResult(err error) string {
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_taken"
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrDateTooSoon),
		errors.Is(err, ErrUnknownSlot), errors.Is(err, ErrSlotRequired):
		return "invalid"
	}
	return "store_error"
}
