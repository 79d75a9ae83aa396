package notify

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-booking-server/internal/models"
	"clinic-booking-server/pkg/logging"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return r.err
}

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func quietLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, "error")
}

func clinic() ClinicInfo {
	return ClinicInfo{
		Name:    "SmileFree Orthodontics",
		Doctor:  "Dr. Perera",
		Email:   "clinic@example.com",
		Address: "12 Galle Road, Colombo",
		Phone:   "0112345678",
	}
}

func sampleAppointment() models.Appointment {
	return models.Appointment{
		ID:                 "a1",
		Patient:            models.Patient{Name: "Sarah Perera", Age: 24, Email: "sarah@example.com", Phone: "0771234567"},
		Date:               "2025-01-10",
		TimeSlot:           "10:00 AM",
		ProblemDescription: "Aligners",
		Status:             models.StatusPending,
	}
}

func TestNotifyDoctorNewBooking(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, clinic(), nil, quietLogger())

	n.NotifyDoctorNewBooking(context.Background(), sampleAppointment())

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "clinic@example.com", msg.To)
	assert.Equal(t, "New Booking: Sarah Perera", msg.Subject)
	assert.Contains(t, msg.Body, "SmileFree Orthodontics Appointment System")
	assert.Contains(t, msg.Body, "Phone: 0771234567")
	assert.Contains(t, msg.Body, "Date: 2025-01-10")
	assert.Contains(t, msg.Body, "Time: 10:00 AM")
}

func TestNotifyDoctorSkippedWithoutClinicEmail(t *testing.T) {
	sender := &recordingSender{}
	info := clinic()
	info.Email = ""
	n := NewNotifier(sender, info, nil, quietLogger())

	n.NotifyDoctorNewBooking(context.Background(), sampleAppointment())
	assert.Empty(t, sender.sent)
}

func TestNotifyPatientStatusChange(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, clinic(), nil, quietLogger())
	appt := sampleAppointment()

	n.NotifyPatientStatusChange(context.Background(), appt, models.StatusConfirmed)
	n.NotifyPatientStatusChange(context.Background(), appt, models.StatusCancelled)
	n.NotifyPatientStatusChange(context.Background(), appt, models.StatusCompleted)

	require.Len(t, sender.sent, 2)
	confirmed, cancelled := sender.sent[0], sender.sent[1]

	assert.Equal(t, "sarah@example.com", confirmed.To)
	assert.Equal(t, "Appointment Update - SmileFree Orthodontics", confirmed.Subject)
	assert.Contains(t, confirmed.Body, "Dear Sarah Perera,")
	assert.Contains(t, confirmed.Body, "Dr. Perera (SmileFree Orthodontics) is CONFIRMED")
	assert.Contains(t, confirmed.Body, "Location: 12 Galle Road, Colombo.")
	assert.Contains(t, confirmed.Body, "Please arrive 10 minutes early.")

	assert.Contains(t, cancelled.Body, "request for 2025-01-10 could not be accommodated")
	assert.Contains(t, cancelled.Body, "contact the clinic at 0112345678 to reschedule")
}

func TestNotifyPatientSkippedWithoutEmail(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, clinic(), nil, quietLogger())
	appt := sampleAppointment()
	appt.Patient.Email = ""

	n.NotifyPatientStatusChange(context.Background(), appt, models.StatusConfirmed)
	assert.Empty(t, sender.sent)
}

func TestNotifierSwallowsSendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("relay down")}
	n := NewNotifier(sender, clinic(), nil, quietLogger())

	assert.NotPanics(t, func() {
		n.NotifyDoctorNewBooking(context.Background(), sampleAppointment())
	})
	assert.Len(t, sender.sent, 1)
}

func TestSESSenderBuildsMessage(t *testing.T) {
	client := &fakeSES{}
	s := NewSESSender(client, SESConfig{FromEmail: "no-reply@clinic.test", FromName: "Clinic"}, quietLogger())

	err := s.Send(context.Background(), EmailMessage{To: "p@example.com", Subject: "Hi", Body: "Body"})
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "Clinic <no-reply@clinic.test>", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"p@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Hi", aws.ToString(in.Content.Simple.Subject.Data))
	assert.Equal(t, "Body", aws.ToString(in.Content.Simple.Body.Text.Data))
}

func TestSESSenderWrapsError(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	s := NewSESSender(client, SESConfig{FromEmail: "no-reply@clinic.test"}, quietLogger())

	err := s.Send(context.Background(), EmailMessage{To: "p@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestSenderConstructorsWithoutCredentials(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{}, quietLogger()))
	assert.Nil(t, NewSESSender(nil, SESConfig{}, quietLogger()))

	var sg *SendGridSender
	assert.Error(t, sg.Send(context.Background(), EmailMessage{To: "x@example.com"}))

	assert.NotNil(t, NewSendGridSender(SendGridConfig{APIKey: "SG.test", FromEmail: "a@b.c"}, quietLogger()))
	assert.NoError(t, NewLogSender(quietLogger()).Send(context.Background(), EmailMessage{To: "x@example.com"}))
}
