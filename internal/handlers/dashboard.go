package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-booking-server/internal/models"
	"clinic-booking-server/internal/services"
	"clinic-booking-server/internal/utils"
	"clinic-booking-server/pkg/logging"
)

// DashboardHandler serves the staff dashboard.
type DashboardHandler struct {
	Dashboard *services.Dashboard
	Now       func() time.Time
	Logger    *logging.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard *services.Dashboard, now func() time.Time, logger *logging.Logger) *DashboardHandler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{Dashboard: dashboard, Now: now, Logger: logger}
}

// AppointmentView is an appointment plus the actions the dashboard offers.
type AppointmentView struct {
	models.Appointment
	AllowedActions []services.Action `json:"allowedActions"`
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=CONFIRMED CANCELLED COMPLETED"`
}

func toViews(appts []models.Appointment) []AppointmentView {
	views := make([]AppointmentView, 0, len(appts))
	for _, a := range appts {
		views = append(views, AppointmentView{Appointment: a, AllowedActions: services.AllowedActions(a.Status)})
	}
	return views
}

// ListAppointments returns the filtered list, newest first.
func (h *DashboardHandler) ListAppointments(c *gin.Context) {
	filter, err := services.ParseFilter(c.Query("status"), c.Query("q"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	appts, err := h.Dashboard.List(c.Request.Context(), filter)
	if err != nil {
		h.Logger.Error("list appointments failed", "error", err)
		utils.ServiceUnavailable(c, "Failed to load appointments")
		return
	}
	utils.Success(c, "Appointments retrieved successfully", toViews(appts))
}

// UpdateAppointmentStatus applies a staff action and returns the fresh list.
func (h *DashboardHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appts, err := h.Dashboard.Transition(c.Request.Context(), c.Param("id"), models.AppointmentStatus(req.Status))
	switch {
	case errors.Is(err, services.ErrAppointmentNotFound):
		utils.NotFound(c, "Appointment not found")
		return
	case errors.Is(err, services.ErrInvalidTransition):
		utils.Conflict(c, err.Error())
		return
	case err != nil:
		h.Logger.Error("status update failed", "id", c.Param("id"), "error", err)
		utils.ServiceUnavailable(c, "Failed to update appointment status")
		return
	}
	utils.Success(c, "Appointment status updated successfully", toViews(appts))
}

// GetStats returns the dashboard counters.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.Dashboard.Stats(c.Request.Context())
	if err != nil {
		h.Logger.Error("dashboard stats failed", "error", err)
		utils.ServiceUnavailable(c, "Failed to load dashboard stats")
		return
	}
	utils.Success(c, "Dashboard stats retrieved successfully", stats)
}

// ExportCSV downloads the filtered list as CSV.
func (h *DashboardHandler) ExportCSV(c *gin.Context) {
	filter, err := services.ParseFilter(c.Query("status"), c.Query("q"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.Dashboard.ExportCSV(c.Request.Context(), filter, &buf); err != nil {
		h.Logger.Error("export failed", "error", err)
		utils.ServiceUnavailable(c, "Failed to export appointments")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, services.ExportFilename(h.Now())))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
