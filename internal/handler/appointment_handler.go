package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"counseling-scheduler-api/internal/model"
	"counseling-scheduler-api/internal/store"
)

type createAppointmentRequest struct {
	UserID        string `json:"user_id"`
	Date          string `json:"date"`
	PreferredTime string `json:"preferred_time"`
	ConcernType   string `json:"concern_type"`
	// accepted but ignored: clients cannot pick their own starting status
	Status string `json:"status"`
}

type updateStatusRequest struct {
	Status model.Status `json:"status"`
}

type updateAttendedRequest struct {
	Attended *bool `json:"attended"`
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request data", "malformed JSON body")
		return
	}

	var missing []string
	for _, f := range []struct{ name, val string }{
		{"user_id", req.UserID},
		{"date", req.Date},
		{"preferred_time", req.PreferredTime},
		{"concern_type", req.ConcernType},
	} {
		if f.val == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"message":        "Missing required fields",
			"error":          "Missing fields: " + strings.Join(missing, ", "),
			"missing_fields": missing,
		})
		return
	}

	apt := &model.Appointment{
		UserID:        req.UserID,
		Date:          req.Date,
		PreferredTime: req.PreferredTime,
		ConcernType:   req.ConcernType,
	}
	id, err := h.store.CreateAppointment(c.Request.Context(), apt)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Appointment scheduling failed", "Failed to create appointment in database")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "Appointment scheduled successfully! Waiting for approval.",
		"appointment_id": id,
		"appointment":    apt,
	})
}

func (h *Handler) UserAppointments(c *gin.Context) {
	apts, err := h.store.AppointmentsByOwner(c.Request.Context(), c.Param("userID"))
	if err != nil {
		fail(c, http.StatusInternalServerError, "Error retrieving appointments", "internal error")
		return
	}
	if apts == nil {
		apts = []model.Appointment{}
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Appointments retrieved successfully",
		"appointments": apts,
	})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Status is required"})
		return
	}
	if !model.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": fmt.Sprintf("Status must be one of: %s", statusList()),
		})
		return
	}

	changed, err := h.store.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, "Failed to update appointment status", "Appointment not found")
		return
	case errors.Is(err, store.ErrRestrictedTransition):
		fail(c, http.StatusBadRequest, "Failed to update appointment status", err.Error())
		return
	case errors.Is(err, model.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, "Failed to update appointment status", err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, "Error updating appointment status", "internal error")
		return
	}

	msg := fmt.Sprintf("Appointment status updated to %s", req.Status)
	if !changed {
		msg = "Status was already set to the requested value"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": msg,
		"status":  req.Status,
		"changed": changed,
	})
}

func (h *Handler) UpdateAttended(c *gin.Context) {
	var req updateAttendedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Attended == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Attended flag is required"})
		return
	}

	changed, err := h.store.UpdateAttended(c.Request.Context(), c.Param("id"), *req.Attended)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, "Failed to update attendance", "Appointment not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, "Error updating attendance", "internal error")
		return
	}

	msg := "Attendance status updated successfully"
	if !changed {
		msg = "Attendance status was already set"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  msg,
		"attended": *req.Attended,
	})
}

func (h *Handler) AllAppointments(c *gin.Context) {
	rows, err := h.store.ListWithOwners(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "Error retrieving appointments", "internal error")
		return
	}
	if rows == nil {
		rows = []model.AppointmentWithOwner{}
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "All appointments retrieved successfully",
		"appointments": rows,
	})
}

func statusList() string {
	all := model.Statuses()
	parts := make([]string, len(all))
	for i, s := range all {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
