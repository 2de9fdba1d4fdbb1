package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/curamed/chartcache/internal/logger"
	"github.com/curamed/chartcache/internal/remote"
	"github.com/curamed/chartcache/internal/repository"
)

// patientRequest is the create/update payload accepted from the UI.
type patientRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	BirthDate string `json:"birthDate"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// PatientController exposes the patient repository over the local API.
type PatientController struct {
	repo     *repository.PatientRepository
	validate *validator.Validate
}

func NewPatientController(repo *repository.PatientRepository) *PatientController {
	return &PatientController{repo: repo, validate: validator.New()}
}

// GetPatient handles GET /patients/:id. ?refresh=true forces a refetch.
func (pc *PatientController) GetPatient(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var (
		patient remote.Patient
		err     error
	)
	if c.Query("refresh") == "true" {
		patient, err = pc.repo.Refresh(c.Request.Context(), scope, id)
	} else {
		patient, err = pc.repo.Get(c.Request.Context(), scope, id)
	}
	if err != nil {
		logger.WithComponent("patient-controller").Debugf("get patient %s: %v", id, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, patient)
}

// SearchPatients handles GET /patients?search=... through the debouncer.
func (pc *PatientController) SearchPatients(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	results, err := pc.repo.Search(c.Request.Context(), scope, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// CreatePatient handles POST /patients.
func (pc *PatientController) CreatePatient(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient payload"})
		return
	}
	if err := pc.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := pc.repo.Create(c.Request.Context(), scope, remote.Patient{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Phone:     req.Phone,
		Email:     req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdatePatient handles PUT /patients/:id.
func (pc *PatientController) UpdatePatient(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient payload"})
		return
	}
	if err := pc.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := pc.repo.Update(c.Request.Context(), scope, remote.Patient{
		ID:        c.Param("id"),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Phone:     req.Phone,
		Email:     req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeletePatient handles DELETE /patients/:id.
func (pc *PatientController) DeletePatient(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	if err := pc.repo.Delete(c.Request.Context(), scope, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
