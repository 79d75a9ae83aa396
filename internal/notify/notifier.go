package notify

import (
	"bytes"
	"context"
	"text/template"

	"clinic-booking-server/internal/metrics"
	"clinic-booking-server/internal/models"
	"clinic-booking-server/pkg/logging"
)

// Notification kinds used in logs and metrics.
const (
	KindDoctorNewBooking = "doctor_new_booking"
	KindPatientStatus    = "patient_status"
)

// ClinicInfo is the clinic identity printed in messages.
type ClinicInfo struct {
	Name    string
	Doctor  string
	Email   string
	Address string
	Phone   string
}

var (
	doctorSubject = template.Must(template.New("doctor_subject").Parse(
		`New Booking: {{.Appt.Patient.Name}}`))
	doctorBody = template.Must(template.New("doctor_body").Parse(
		`{{.Clinic.Name}} Appointment System

Patient: {{.Appt.Patient.Name}}
Phone: {{.Appt.Patient.Phone}}
{{- if .Appt.Patient.Email}}
Email: {{.Appt.Patient.Email}}
{{- end}}
Date: {{.Appt.Date}}
Time: {{.Appt.TimeSlot}}
Reason: {{.Appt.ProblemDescription}}
`))
	patientSubject = template.Must(template.New("patient_subject").Parse(
		`Appointment Update - {{.Clinic.Name}}`))
	patientBodies = map[models.AppointmentStatus]*template.Template{
		models.StatusConfirmed: template.Must(template.New("confirmed").Parse(
			`Dear {{.Appt.Patient.Name}},

Your appointment with {{.Clinic.Doctor}} ({{.Clinic.Name}}) is CONFIRMED.

Date: {{.Appt.Date}}
Time: {{.Appt.TimeSlot}}
{{- if .Clinic.Address}}
Location: {{.Clinic.Address}}.
{{- end}}

Please arrive 10 minutes early.`)),
		models.StatusCancelled: template.Must(template.New("cancelled").Parse(
			`Dear {{.Appt.Patient.Name}},

We regret to inform you that your appointment request for {{.Appt.Date}} could not be accommodated.
{{- if .Clinic.Phone}} Please contact the clinic at {{.Clinic.Phone}} to reschedule.{{else}} Please contact the clinic to reschedule.{{end}}`)),
	}
)

type templateData struct {
	Appt   models.Appointment
	Clinic ClinicInfo
}

// Notifier composes clinic and patient emails. Delivery is best-effort:
// failures are logged and counted, never returned.
type Notifier struct {
	sender  EmailSender
	clinic  ClinicInfo
	metrics *metrics.ClinicMetrics
	logger  *logging.Logger
}

func NewNotifier(sender EmailSender, clinic ClinicInfo, m *metrics.ClinicMetrics, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewLogSender(logger)
	}
	return &Notifier{sender: sender, clinic: clinic, metrics: m, logger: logger}
}

// NotifyDoctorNewBooking alerts the clinic inbox about a new booking.
func (n *Notifier) NotifyDoctorNewBooking(ctx context.Context, appt models.Appointment) {
	if n.clinic.Email == "" {
		n.logger.Warn("notify: clinic email not configured, skipping booking alert", "appointment_id", appt.ID)
		return
	}
	n.dispatch(ctx, KindDoctorNewBooking, appt, EmailMessage{To: n.clinic.Email, ToName: n.clinic.Name}, doctorSubject, doctorBody)
}

// NotifyPatientStatusChange tells the patient their booking was confirmed or
// declined. Other statuses produce no message.
func (n *Notifier) NotifyPatientStatusChange(ctx context.Context, appt models.Appointment, status models.AppointmentStatus) {
	body, ok := patientBodies[status]
	if !ok {
		return
	}
	if appt.Patient.Email == "" {
		n.logger.Debug("notify: patient has no email, skipping status update", "appointment_id", appt.ID, "status", status)
		return
	}
	n.dispatch(ctx, KindPatientStatus, appt, EmailMessage{To: appt.Patient.Email, ToName: appt.Patient.Name}, patientSubject, body)
}

func (n *Notifier) dispatch(ctx context.Context, kind string, appt models.Appointment, msg EmailMessage, subject, body *template.Template) {
	data := templateData{Appt: appt, Clinic: n.clinic}

	var err error
	msg.Subject, err = render(subject, data)
	if err == nil {
		msg.Body, err = render(body, data)
	}
	if err == nil {
		err = n.sender.Send(ctx, msg)
	}

	n.metrics.ObserveNotification(kind, err)
	if err != nil {
		n.logger.Error("notify: dispatch failed", "kind", kind, "appointment_id", appt.ID, "to", msg.To, "error", err)
		return
	}
	n.logger.Info("notify: dispatched", "kind", kind, "appointment_id", appt.ID, "to", msg.To)
}

func render(t *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
