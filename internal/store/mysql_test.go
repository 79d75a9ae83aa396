package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clinic-booking-server/internal/models"
	"clinic-booking-server/pkg/logging"
)

var appointmentColumns = []string{
	"id", "patient_name", "patient_age", "patient_email", "patient_phone",
	"date", "time_slot", "problem_description", "status", "created_at", "image_url",
}

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewMySQLStore(gdb, nil, logging.Default()), mock
}

func pendingAppointment() models.Appointment {
	return models.Appointment{
		Patient:            models.Patient{Name: "Sarah Perera", Phone: "0771234567"},
		Date:               "2025-01-10",
		TimeSlot:           "10:00 AM",
		ProblemDescription: "General Consultation",
		Status:             models.StatusPending,
		CreatedAt:          "2025-01-01T08:00:00.000Z",
	}
}

func TestMySQLStoreAppendInsertsWhenSlotFree(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `appointments` WHERE .* FOR UPDATE").
		WithArgs("2025-01-10", "10:00 AM", "CANCELLED").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectExec("INSERT INTO `appointments`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := s.Append(context.Background(), pendingAppointment())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreAppendDeadlockIsSlotTaken(t *testing.T) {
	for _, code := range []uint16{1213, 1205} {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM `appointments`").
			WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
		mock.ExpectExec("INSERT INTO `appointments`").
			WillReturnError(&mysqldriver.MySQLError{Number: code, Message: "Deadlock found when trying to get lock"})
		mock.ExpectRollback()

		_, err := s.Append(context.Background(), pendingAppointment())
		assert.ErrorIs(t, err, ErrSlotTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}

func TestMySQLStoreAppendOtherDriverErrorsAreWrapped(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `appointments`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))
	mock.ExpectExec("INSERT INTO `appointments`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1146, Message: "Table doesn't exist"})
	mock.ExpectRollback()

	_, err := s.Append(context.Background(), pendingAppointment())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreAppendRejectsHeldSlot(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `appointments`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectRollback()

	_, err := s.Append(context.Background(), pendingAppointment())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreAppendSurfacesDriverErrors(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := s.Append(context.Background(), pendingAppointment())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotTaken)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMySQLStoreAppendValidatesRecord(t *testing.T) {
	s, _ := newMockStore(t)

	appt := pendingAppointment()
	appt.Status = "RESCHEDULED"
	_, err := s.Append(context.Background(), appt)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestMySQLStoreListAllOrdersByInsertion(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows(appointmentColumns).
		AddRow("a1", "Sarah Perera", 24, "sarah@example.com", "0771234567", "2025-01-10", "10:00 AM", "Aligners", "PENDING", "2025-01-01T08:00:00.000Z", "").
		AddRow("a2", "John Silva", 14, "", "0719876543", "2025-01-11", "04:00 PM", "Checkup", "CONFIRMED", "2025-01-02T08:00:00.000Z", "")
	mock.ExpectQuery("SELECT \\* FROM `appointments` ORDER BY created_at asc,id asc").WillReturnRows(rows)

	appts, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "a1", appts[0].ID)
	assert.Equal(t, "0771234567", appts[0].Patient.Phone)
	assert.Equal(t, models.StatusConfirmed, appts[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreListAllSurfacesErrors(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `appointments`").WillReturnError(errors.New("timeout"))

	_, err := s.ListAll(context.Background())
	assert.Error(t, err)
}

func TestMySQLStoreUpdateStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE `appointments` SET `status`=\\? WHERE id = \\?").
		WithArgs("CONFIRMED", "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateStatus(context.Background(), "a1", models.StatusConfirmed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStoreUpdateStatusUnknownIDIsNoop(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE `appointments`").
		WithArgs("CANCELLED", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.UpdateStatus(context.Background(), "missing", models.StatusCancelled))
	assert.NoError(t, mock.ExpectationsWereMet())
}
