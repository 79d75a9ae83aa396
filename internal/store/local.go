package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"clinic-booking-server/internal/metrics"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/pkg/logging"
)

// LocalOptions configures the file-backed fallback store.
type LocalOptions struct {
	// Seed writes two demo appointments when the file does not exist yet.
	Seed    bool
	Now     func() time.Time
	Metrics *metrics.ClinicMetrics
	Logger  *logging.Logger
}

// LocalStore keeps appointments in a JSON file owned by this process.
type LocalStore struct {
	mu      sync.Mutex
	path    string
	now     func() time.Time
	metrics *metrics.ClinicMetrics
	logger  *logging.Logger
}

// NewLocalStore opens (and optionally seeds) the JSON file at path.
func NewLocalStore(path string, opts LocalOptions) (*LocalStore, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	s := &LocalStore{
		path:    path,
		now:     opts.Now,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create local store dir: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		var initial []models.Appointment
		if opts.Seed {
			initial = s.demoAppointments()
		}
		if err := s.write(initial); err != nil {
			return nil, err
		}
		s.logger.Info("local appointment store created", "path", path, "seeded", opts.Seed)
	} else if err != nil {
		return nil, fmt.Errorf("store: stat local store: %w", err)
	}
	return s, nil
}

func (s *LocalStore) ListAll(ctx context.Context) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.read()
	s.metrics.ObserveStoreOp(BackendLocal, "list", err)
	return appts, err
}

func (s *LocalStore) Append(ctx context.Context, appt models.Appointment) (string, error) {
	if err := validateNew(appt); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.read()
	if err != nil {
		s.metrics.ObserveStoreOp(BackendLocal, "append", err)
		return "", err
	}
	if slotHeld(appts, appt.Date, appt.TimeSlot) {
		s.metrics.ObserveStoreOp(BackendLocal, "append", ErrSlotTaken)
		return "", ErrSlotTaken
	}

	appt.ID = "local-" + uuid.NewString()
	appts = append(appts, appt)
	err = s.write(appts)
	s.metrics.ObserveStoreOp(BackendLocal, "append", err)
	if err != nil {
		return "", err
	}
	s.logger.Debug("appointment appended", "backend", BackendLocal, "id", appt.ID, "date", appt.Date, "slot", appt.TimeSlot)
	return appt.ID, nil
}

func (s *LocalStore) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("store: update status: %w", ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	appts, err := s.read()
	if err != nil {
		s.metrics.ObserveStoreOp(BackendLocal, "update_status", err)
		return err
	}
	for i := range appts {
		if appts[i].ID == id {
			appts[i].Status = status
			err = s.write(appts)
			s.metrics.ObserveStoreOp(BackendLocal, "update_status", err)
			return err
		}
	}
	s.metrics.ObserveStoreOp(BackendLocal, "update_status", nil)
	s.logger.Debug("status update skipped, appointment not found", "id", id)
	return nil
}

func (s *LocalStore) read() ([]models.Appointment, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Appointment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read local store: %w", err)
	}
	appts := []models.Appointment{}
	if len(raw) == 0 {
		return appts, nil
	}
	if err := json.Unmarshal(raw, &appts); err != nil {
		return nil, fmt.Errorf("store: decode local store: %w", err)
	}
	return appts, nil
}

// write replaces the file through a rename so readers never see a partial file.
func (s *LocalStore) write(appts []models.Appointment) error {
	if appts == nil {
		appts = []models.Appointment{}
	}
	raw, err := json.MarshalIndent(appts, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode local store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("store: write local store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("store: replace local store: %w", err)
	}
	return nil
}

func (s *LocalStore) demoAppointments() []models.Appointment {
	now := s.now()
	created := models.FormatCreatedAt(now)
	return []models.Appointment{
		{
			ID:                 "demo-1",
			Patient:            models.Patient{Name: "Sarah Perera", Age: 24, Email: "sarah.p@example.com", Phone: "0771234567"},
			Date:               now.AddDate(0, 0, 1).Format(models.DateLayout),
			TimeSlot:           "10:00 AM",
			ProblemDescription: "Interested in invisible aligners for gap correction.",
			Status:             models.StatusPending,
			CreatedAt:          created,
		},
		{
			ID:                 "demo-2",
			Patient:            models.Patient{Name: "John Silva", Age: 14, Email: "john.dad@example.com", Phone: "0719876543"},
			Date:               now.AddDate(0, 0, -1).Format(models.DateLayout),
			TimeSlot:           "04:00 PM",
			ProblemDescription: "Regular braces tightening checkup.",
			Status:             models.StatusCompleted,
			CreatedAt:          created,
		},
	}
}

var _ AppointmentStore = (*LocalStore)(nil)
