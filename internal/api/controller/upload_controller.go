package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curamed/chartcache/internal/queue"
	"github.com/curamed/chartcache/internal/remote"
	"github.com/curamed/chartcache/internal/repository"
)

// artifactRequest is the submission payload from the consultation editor.
type artifactRequest struct {
	PatientID     string `json:"patientId" binding:"required"`
	AppointmentID string `json:"appointmentId"`
	FileName      string `json:"fileName"`
	PDFURI        string `json:"pdfUri" binding:"required"`
}

// UploadController exposes artifact submission and the offline queue.
type UploadController struct {
	artifacts *repository.ArtifactService
	queue     *queue.Queue
}

func NewUploadController(artifacts *repository.ArtifactService, q *queue.Queue) *UploadController {
	return &UploadController{artifacts: artifacts, queue: q}
}

// SubmitArtifact handles POST /consultations/:id/artifacts. A delivered
// upload answers 200; one deferred to the queue answers 202. Both count as
// success from the UI's point of view.
func (uc *UploadController) SubmitArtifact(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	var req artifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact payload"})
		return
	}

	status, err := uc.artifacts.Submit(c.Request.Context(), scope, remote.ArtifactUpload{
		ConsultationID: c.Param("id"),
		PatientID:      req.PatientID,
		DoctorID:       scope.DoctorID,
		AppointmentID:  req.AppointmentID,
		FileName:       req.FileName,
		PDFURI:         req.PDFURI,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if status == repository.StatusPending {
		c.JSON(http.StatusAccepted, gin.H{"status": status, "pending": uc.artifacts.PendingCount()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// PendingUploads handles GET /uploads/pending for the UI indicator.
func (uc *UploadController) PendingUploads(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pending": uc.queue.Pending()})
}

// FlushUploads handles POST /uploads/flush. The UI calls it when the app
// returns to the foreground; the flush itself runs asynchronously.
func (uc *UploadController) FlushUploads(c *gin.Context) {
	uc.queue.Wake()
	c.JSON(http.StatusAccepted, gin.H{"pending": uc.queue.Pending()})
}
