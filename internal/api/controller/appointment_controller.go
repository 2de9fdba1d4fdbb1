package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curamed/chartcache/internal/remote"
	"github.com/curamed/chartcache/internal/repository"
)

// AppointmentController exposes the agenda day lists over the local API.
type AppointmentController struct {
	repo *repository.AppointmentRepository
}

func NewAppointmentController(repo *repository.AppointmentRepository) *AppointmentController {
	return &AppointmentController{repo: repo}
}

// ListAppointments handles GET /appointments?date=YYYY-MM-DD.
// ?refresh=true forces a refetch of the day.
func (ac *AppointmentController) ListAppointments(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	date := c.Query("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	var (
		items []remote.Appointment
		err   error
	)
	if c.Query("refresh") == "true" {
		items, err = ac.repo.Refresh(c.Request.Context(), scope, date)
	} else {
		items, err = ac.repo.ListByDate(c.Request.Context(), scope, date)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateAppointment handles POST /appointments.
func (ac *AppointmentController) CreateAppointment(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	var req remote.Appointment
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment payload"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	if req.PatientID == "" || req.StartTime == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patientId and startTime are required"})
		return
	}

	created, err := ac.repo.Create(c.Request.Context(), scope, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// CancelAppointment handles DELETE /appointments/:id?date=YYYY-MM-DD. The
// date names the cached day to invalidate.
func (ac *AppointmentController) CancelAppointment(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	date := c.Query("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	if err := ac.repo.Cancel(c.Request.Context(), scope, c.Param("id"), date); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
