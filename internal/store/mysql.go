package store

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-booking-server/internal/metrics"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/pkg/logging"
)

// MySQLStore keeps appointments in the remote MySQL database through gorm.
type MySQLStore struct {
	db      *gorm.DB
	metrics *metrics.ClinicMetrics
	logger  *logging.Logger
}

// NewMySQLStore creates a store over an open gorm connection.
func NewMySQLStore(db *gorm.DB, m *metrics.ClinicMetrics, logger *logging.Logger) *MySQLStore {
	if db == nil {
		panic("store: gorm db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MySQLStore{db: db, metrics: m, logger: logger}
}

func (s *MySQLStore) ListAll(ctx context.Context) ([]models.Appointment, error) {
	var out []models.Appointment
	err := s.db.WithContext(ctx).
		Order("created_at asc").
		Order("id asc").
		Find(&out).Error
	s.metrics.ObserveStoreOp(BackendMySQL, "list", err)
	if err != nil {
		return nil, fmt.Errorf("store: list appointments: %w", err)
	}
	return out, nil
}

// Append inserts appt inside a transaction that first locks any live
// appointment on the same date and slot.
func (s *MySQLStore) Append(ctx context.Context, appt models.Appointment) (string, error) {
	if err := validateNew(appt); err != nil {
		return "", err
	}
	appt.ID = ""

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var held int64
		if err := tx.Model(&models.Appointment{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("date = ? AND time_slot = ? AND status <> ?", appt.Date, appt.TimeSlot, models.StatusCancelled).
			Count(&held).Error; err != nil {
			return err
		}
		if held > 0 {
			return ErrSlotTaken
		}
		return tx.Create(&appt).Error
	})
	if lostSlotRace(err) {
		s.logger.Debug("append lost slot race", "date", appt.Date, "slot", appt.TimeSlot, "error", err)
		err = ErrSlotTaken
	}
	s.metrics.ObserveStoreOp(BackendMySQL, "append", err)
	if errors.Is(err, ErrSlotTaken) {
		return "", ErrSlotTaken
	}
	if err != nil {
		return "", fmt.Errorf("store: append appointment: %w", err)
	}

	s.logger.Debug("appointment appended", "backend", BackendMySQL, "id", appt.ID, "date", appt.Date, "slot", appt.TimeSlot)
	return appt.ID, nil
}

// MySQL errors raised when two transactions lock the same empty slot range.
// The slot check takes gap locks only, so concurrent inserts deadlock and
// InnoDB rolls one of them back.
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

func lostSlotRace(err error) bool {
	var myErr *mysqldriver.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	return myErr.Number == errDeadlock || myErr.Number == errLockWaitTimeout
}

func (s *MySQLStore) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("store: update status: %w", ErrInvalidRecord)
	}
	res := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", id).
		Update("status", status)
	s.metrics.ObserveStoreOp(BackendMySQL, "update_status", res.Error)
	if res.Error != nil {
		return fmt.Errorf("store: update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		s.logger.Debug("status update skipped, appointment not found", "id", id)
	}
	return nil
}

var _ AppointmentStore = (*MySQLStore)(nil)
