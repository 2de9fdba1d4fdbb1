package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/sony/gobreaker"

	"github.com/curamed/chartcache/internal/config"
	"github.com/curamed/chartcache/internal/logger"
	"github.com/curamed/chartcache/internal/tenant"
)

// maxResponseBytes caps how much of a response body is read; list endpoints
// are paginated, so anything bigger is a server bug.
const maxResponseBytes = 8 << 20

// Client performs authenticated calls against the remote clinical-records
// API and normalizes every failure onto the errdefs taxonomy. A circuit
// breaker shields the agent from hammering an unreachable backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
	breaker    *gobreaker.CircuitBreaker
}

// NewClient builds a client from the remote section of the configuration.
func NewClient(cfg config.RemoteConfig) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "remote-api",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithComponent("remote").Warnf("circuit breaker '%s' changed from %v to %v", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// Client-side errors must not trip the breaker; the backend is
			// healthy, the request was just wrong or the record absent.
			if err == nil || errdefs.IsNotFound(err) || errdefs.IsInvalidArgument(err) {
				return true
			}
			return false
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authToken:  cfg.AuthToken,
		breaker:    breaker,
	}
}

// GetPatient fetches one patient's details.
func (c *Client) GetPatient(ctx context.Context, scope tenant.Scope, patientID string) (Patient, error) {
	var p Patient
	path := fmt.Sprintf("/clinics/%s/patients/%s", scope.ClinicID, patientID)
	err := c.doJSON(ctx, "get patient", http.MethodGet, path, nil, nil, &p)
	return p, err
}

// SearchPatients queries patients by name fragment.
func (c *Client) SearchPatients(ctx context.Context, scope tenant.Scope, query string) ([]Patient, error) {
	var page Page[Patient]
	path := fmt.Sprintf("/clinics/%s/patients", scope.ClinicID)
	q := url.Values{"search": {query}}
	if err := c.doJSON(ctx, "search patients", http.MethodGet, path, q, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// CreatePatient registers a new patient and returns the stored record.
func (c *Client) CreatePatient(ctx context.Context, scope tenant.Scope, p Patient) (Patient, error) {
	var created Patient
	path := fmt.Sprintf("/clinics/%s/patients", scope.ClinicID)
	err := c.doJSON(ctx, "create patient", http.MethodPost, path, nil, p, &created)
	return created, err
}

// UpdatePatient replaces a patient's details.
func (c *Client) UpdatePatient(ctx context.Context, scope tenant.Scope, p Patient) (Patient, error) {
	var updated Patient
	path := fmt.Sprintf("/clinics/%s/patients/%s", scope.ClinicID, p.ID)
	err := c.doJSON(ctx, "update patient", http.MethodPut, path, nil, p, &updated)
	return updated, err
}

// DeletePatient removes a patient record.
func (c *Client) DeletePatient(ctx context.Context, scope tenant.Scope, patientID string) error {
	path := fmt.Sprintf("/clinics/%s/patients/%s", scope.ClinicID, patientID)
	return c.doJSON(ctx, "delete patient", http.MethodDelete, path, nil, nil, nil)
}

// ListAppointments returns the doctor's appointments for one day.
func (c *Client) ListAppointments(ctx context.Context, scope tenant.Scope, date string) ([]Appointment, error) {
	var page Page[Appointment]
	path := fmt.Sprintf("/clinics/%s/doctors/%s/appointments", scope.ClinicID, scope.DoctorID)
	q := url.Values{"date": {date}}
	if err := c.doJSON(ctx, "list appointments", http.MethodGet, path, q, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// CreateAppointment books a visit.
func (c *Client) CreateAppointment(ctx context.Context, scope tenant.Scope, a Appointment) (Appointment, error) {
	var created Appointment
	path := fmt.Sprintf("/clinics/%s/doctors/%s/appointments", scope.ClinicID, scope.DoctorID)
	err := c.doJSON(ctx, "create appointment", http.MethodPost, path, nil, a, &created)
	return created, err
}

// CancelAppointment cancels a visit.
func (c *Client) CancelAppointment(ctx context.Context, scope tenant.Scope, appointmentID string) error {
	path := fmt.Sprintf("/clinics/%s/doctors/%s/appointments/%s", scope.ClinicID, scope.DoctorID, appointmentID)
	return c.doJSON(ctx, "cancel appointment", http.MethodDelete, path, nil, nil, nil)
}

// ListSuggestions returns the doctor's consultation suggestions for a
// category (anamnesis, diagnosis, therapy, prescription templates).
func (c *Client) ListSuggestions(ctx context.Context, scope tenant.Scope, category string) ([]Suggestion, error) {
	var page Page[Suggestion]
	path := fmt.Sprintf("/clinics/%s/doctors/%s/suggestions", scope.ClinicID, scope.DoctorID)
	q := url.Values{"category": {category}}
	if err := c.doJSON(ctx, "list suggestions", http.MethodGet, path, q, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// ListMasterData returns a clinic-wide master-data pick list.
func (c *Client) ListMasterData(ctx context.Context, scope tenant.Scope, category string) ([]MasterItem, error) {
	var page Page[MasterItem]
	path := fmt.Sprintf("/clinics/%s/masterdata/%s", scope.ClinicID, category)
	if err := c.doJSON(ctx, "list master data", http.MethodGet, path, nil, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// UploadArtifact delivers a rendered consultation PDF. The artifact file is
// read from its local URI at call time, so a retried upload picks up the
// file even if the first attempt raced its rendering.
func (c *Client) UploadArtifact(ctx context.Context, upload ArtifactUpload) error {
	data, err := os.ReadFile(upload.PDFURI)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w: %v", upload.PDFURI, errdefs.ErrInvalidArgument, err)
	}

	body := map[string]string{
		"patientId":     upload.PatientID,
		"doctorId":      upload.DoctorID,
		"appointmentId": upload.AppointmentID,
		"fileName":      upload.FileName,
		"content":       base64.StdEncoding.EncodeToString(data),
	}
	path := fmt.Sprintf("/consultations/%s/artifacts", upload.ConsultationID)
	return c.doJSON(ctx, "upload artifact", http.MethodPost, path, nil, body, nil)
}

// doJSON performs one request through the circuit breaker, normalizing
// transport and status failures. out may be nil for calls without a body.
func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		var reqBody io.Reader
		if in != nil {
			payload, err := json.Marshal(in)
			if err != nil {
				return nil, fmt.Errorf("%s: marshal request: %w: %v", op, errdefs.ErrInvalidArgument, err)
			}
			reqBody = bytes.NewReader(payload)
		}

		reqURL := c.baseURL + path
		if len(query) > 0 {
			reqURL += "?" + query.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("%s: build request: %w: %v", op, errdefs.ErrInvalidArgument, err)
		}
		req.Header.Set("Accept", "application/json")
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			return nil, normalizeTransport(err)
		}
		defer res.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
		if err != nil {
			return nil, normalizeTransport(err)
		}

		if res.StatusCode < 200 || res.StatusCode > 299 {
			return nil, normalizeStatus(op, res.StatusCode, raw)
		}

		if out != nil && len(bytes.TrimSpace(raw)) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				return nil, fmt.Errorf("%s: decode response: %w: %v", op, errdefs.ErrUnknown, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return fmt.Errorf("%s: circuit breaker open: %w", op, errdefs.ErrUnavailable)
		}
		return err
	}
	return nil
}
