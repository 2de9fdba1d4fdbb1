package queue

import "github.com/curamed/chartcache/internal/remote"

// PendingUpload is one deferred artifact delivery. Records are persisted as
// a flat JSON array and reloaded at process start, so field names are part
// of the durable format.
type PendingUpload struct {
	ID             string `json:"id" validate:"required"`
	ConsultationID string `json:"consultationId" validate:"required"`
	PatientID      string `json:"patientId" validate:"required"`
	DoctorID       string `json:"doctorId" validate:"required"`
	AppointmentID  string `json:"appointmentId,omitempty"`
	PDFURI         string `json:"pdfUri" validate:"required"`
	FileName       string `json:"fileName,omitempty"`
	CreatedAt      int64  `json:"createdAt"` // Unix timestamp in milliseconds
	Attempts       int    `json:"attempts"`
	LastError      string `json:"lastError,omitempty"`
}

// Artifact converts the record back into the remote upload request.
func (p PendingUpload) Artifact() remote.ArtifactUpload {
	return remote.ArtifactUpload{
		ConsultationID: p.ConsultationID,
		PatientID:      p.PatientID,
		DoctorID:       p.DoctorID,
		AppointmentID:  p.AppointmentID,
		FileName:       p.FileName,
		PDFURI:         p.PDFURI,
	}
}
