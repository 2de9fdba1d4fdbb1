package remote

// Patient is a clinic-scoped patient record.
type Patient struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthDate string `json:"birthDate,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	UpdatedAt int64  `json:"updatedAt,omitempty"` // Unix timestamp in milliseconds
}

// Appointment is a scheduled visit for a doctor on a given day.
type Appointment struct {
	ID        string `json:"id"`
	PatientID string `json:"patientId"`
	Date      string `json:"date"` // YYYY-MM-DD, the list key
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Suggestion is a consultation suggestion or prescription template the
// doctor picks from while writing a consultation.
type Suggestion struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

// MasterItem is one entry of a master-data list (diagnoses, procedures,
// referral reasons and similar pick lists).
type MasterItem struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Label     string `json:"label"`
	SortOrder int    `json:"sortOrder,omitempty"`
}

// ArtifactUpload describes a generated consultation artifact (a PDF) to be
// delivered to the remote API.
type ArtifactUpload struct {
	ConsultationID string
	PatientID      string
	DoctorID       string
	AppointmentID  string
	FileName       string
	PDFURI         string // local file path of the rendered artifact
}
