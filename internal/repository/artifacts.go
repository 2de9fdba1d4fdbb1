package repository

import (
	"context"

	"github.com/containerd/errdefs"

	"github.com/curamed/chartcache/internal/logger"
	"github.com/curamed/chartcache/internal/queue"
	"github.com/curamed/chartcache/internal/remote"
	"github.com/curamed/chartcache/internal/tenant"
)

// SubmitStatus reports how an artifact submission ended from the caller's
// point of view. Pending is a success: the user flow is done, delivery is
// the queue's problem now.
type SubmitStatus string

const (
	StatusDelivered SubmitStatus = "delivered"
	StatusPending   SubmitStatus = "pending"
)

// ArtifactAPI is the slice of the remote client artifact submission needs.
type ArtifactAPI interface {
	UploadArtifact(ctx context.Context, upload remote.ArtifactUpload) error
}

// ArtifactService submits consultation artifacts, falling back to the
// offline queue when the remote API is unreachable.
type ArtifactService struct {
	api   ArtifactAPI
	queue *queue.Queue
}

func NewArtifactService(api ArtifactAPI, q *queue.Queue) *ArtifactService {
	return &ArtifactService{api: api, queue: q}
}

// Submit tries the upload once. Transient failures are converted into a
// queued pending upload instead of surfacing; only a structurally invalid
// submission is reported back, since retrying it can never succeed.
func (s *ArtifactService) Submit(ctx context.Context, scope tenant.Scope, upload remote.ArtifactUpload) (SubmitStatus, error) {
	if upload.DoctorID == "" {
		upload.DoctorID = scope.DoctorID
	}

	err := s.api.UploadArtifact(ctx, upload)
	if err == nil {
		return StatusDelivered, nil
	}
	if errdefs.IsInvalidArgument(err) {
		return "", err
	}

	logger.WithComponent("artifacts").Warnf("upload for consultation %s failed, queueing: %v", upload.ConsultationID, err)

	item := queue.PendingUpload{
		ConsultationID: upload.ConsultationID,
		PatientID:      upload.PatientID,
		DoctorID:       upload.DoctorID,
		AppointmentID:  upload.AppointmentID,
		PDFURI:         upload.PDFURI,
		FileName:       upload.FileName,
	}
	if err := s.queue.Enqueue(ctx, item); err != nil {
		return "", err
	}
	return StatusPending, nil
}

// PendingCount exposes the queue depth for the UI indicator.
func (s *ArtifactService) PendingCount() int {
	return s.queue.Pending()
}
