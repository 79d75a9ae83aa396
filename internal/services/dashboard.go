package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinic-booking-server/internal/metrics"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/store"
	"clinic-booking-server/pkg/logging"
)

// FilterAll disables the status predicate.
const FilterAll = "ALL"

// Filter narrows the dashboard list.
type Filter struct {
	// Status is FilterAll or one of the appointment statuses.
	Status string
	Search string
}

// ParseFilter normalises the query string form of a filter.
func ParseFilter(status, search string) (Filter, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" {
		status = FilterAll
	}
	if status != FilterAll && !models.AppointmentStatus(status).Valid() {
		return Filter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, status)
	}
	return Filter{Status: status, Search: strings.TrimSpace(search)}, nil
}

// Matches applies the status and search predicates; both must hold.
func (f Filter) Matches(a models.Appointment) bool {
	if f.Status != "" && f.Status != FilterAll && string(a.Status) != f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Patient.Name), strings.ToLower(f.Search)) ||
		strings.Contains(a.Patient.Phone, f.Search)
}

// Action is a staff action the dashboard offers for an appointment.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionDecline  Action = "decline"
	ActionComplete Action = "complete"
)

// Target returns the status an action moves an appointment to.
func (a Action) Target() models.AppointmentStatus {
	switch a {
	case ActionAccept:
		return models.StatusConfirmed
	case ActionDecline:
		return models.StatusCancelled
	case ActionComplete:
		return models.StatusCompleted
	}
	return ""
}

var transitions = map[models.AppointmentStatus][]Action{
	models.StatusPending:   {ActionAccept, ActionDecline},
	models.StatusConfirmed: {ActionComplete},
}

// AllowedActions lists the actions available from status. CANCELLED and
// COMPLETED are terminal.
func AllowedActions(status models.AppointmentStatus) []Action {
	return append([]Action{}, transitions[status]...)
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to models.AppointmentStatus) bool {
	for _, a := range transitions[from] {
		if a.Target() == to {
			return true
		}
	}
	return false
}

// Stats are the dashboard header counters.
type Stats struct {
	TodayConfirmed int `json:"todayConfirmed"`
	Pending        int `json:"pending"`
}

// Dashboard is the staff-facing status transition workflow.
type Dashboard struct {
	store    store.AppointmentStore
	notifier Notifier
	now      Clock
	metrics  *metrics.ClinicMetrics
	logger   *logging.Logger
}

func NewDashboard(s store.AppointmentStore, notifier Notifier, now Clock, m *metrics.ClinicMetrics, logger *logging.Logger) *Dashboard {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dashboard{store: s, notifier: notifier, now: now, metrics: m, logger: logger}
}

// List returns the filtered appointments, newest first.
func (d *Dashboard) List(ctx context.Context, f Filter) ([]models.Appointment, error) {
	all, err := d.newestFirst(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Appointment, 0, len(all))
	for _, a := range all {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Transition moves appointment id to status, notifies the patient and
// returns the refreshed list.
func (d *Dashboard) Transition(ctx context.Context, id string, to models.AppointmentStatus) ([]models.Appointment, error) {
	all, err := d.store.ListAll(ctx)
	if err != nil {
		d.metrics.ObserveTransition(string(to), "store_error")
		return nil, fmt.Errorf("dashboard: load appointments: %w", err)
	}

	var current *models.Appointment
	for i := range all {
		if all[i].ID == id {
			current = &all[i]
			break
		}
	}
	if current == nil {
		d.metrics.ObserveTransition(string(to), "not_found")
		return nil, ErrAppointmentNotFound
	}
	if !CanTransition(current.Status, to) {
		d.metrics.ObserveTransition(string(to), "rejected")
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	if err := d.store.UpdateStatus(ctx, id, to); err != nil {
		d.metrics.ObserveTransition(string(to), "store_error")
		return nil, fmt.Errorf("dashboard: update status: %w", err)
	}
	d.metrics.ObserveTransition(string(to), "ok")
	d.logger.Info("appointment status changed", "id", id, "from", current.Status, "to", to)

	updated := *current
	updated.Status = to
	if d.notifier != nil {
		d.notifier.NotifyPatientStatusChange(ctx, updated, to)
	}

	return d.newestFirst(ctx)
}

// Stats counts today's confirmed appointments and all pending ones.
func (d *Dashboard) Stats(ctx context.Context) (Stats, error) {
	all, err := d.store.ListAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("dashboard: stats: %w", err)
	}
	today := d.now().Format(models.DateLayout)
	var st Stats
	for _, a := range all {
		switch {
		case a.Status == models.StatusConfirmed && a.Date == today:
			st.TodayConfirmed++
		case a.Status == models.StatusPending:
			st.Pending++
		}
	}
	return st, nil
}

func (d *Dashboard) newestFirst(ctx context.Context) ([]models.Appointment, error) {
	all, err := d.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: list appointments: %w", err)
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}
