package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"

	"github.com/curamed/chartcache/internal/api/middleware"
	"github.com/curamed/chartcache/internal/config"
	"github.com/curamed/chartcache/internal/remote"
	"github.com/curamed/chartcache/internal/repository"
	"github.com/curamed/chartcache/internal/tenant"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mockPatientAPI implements repository.PatientAPI for controller tests.
type mockPatientAPI struct {
	patients map[string]remote.Patient
	getCalls int
}

func newMockPatientAPI(patients ...remote.Patient) *mockPatientAPI {
	byID := make(map[string]remote.Patient, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
	}
	return &mockPatientAPI{patients: byID}
}

func (m *mockPatientAPI) GetPatient(_ context.Context, _ tenant.Scope, patientID string) (remote.Patient, error) {
	m.getCalls++
	p, ok := m.patients[patientID]
	if !ok {
		return remote.Patient{}, fmt.Errorf("patient %s: %w", patientID, errdefs.ErrNotFound)
	}
	return p, nil
}

func (m *mockPatientAPI) SearchPatients(_ context.Context, _ tenant.Scope, query string) ([]remote.Patient, error) {
	var out []remote.Patient
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockPatientAPI) CreatePatient(_ context.Context, _ tenant.Scope, p remote.Patient) (remote.Patient, error) {
	p.ID = "p-created"
	m.patients[p.ID] = p
	return p, nil
}

func (m *mockPatientAPI) UpdatePatient(_ context.Context, _ tenant.Scope, p remote.Patient) (remote.Patient, error) {
	m.patients[p.ID] = p
	return p, nil
}

func (m *mockPatientAPI) DeletePatient(_ context.Context, _ tenant.Scope, patientID string) error {
	delete(m.patients, patientID)
	return nil
}

func patientTestRouter(api repository.PatientAPI) *gin.Engine {
	repo := repository.NewPatientRepository(context.Background(), api, repository.PatientOptions{
		MaxEntries: 100,
		TTL:        time.Minute,
		Debounce:   5 * time.Millisecond,
	})
	pc := NewPatientController(repo)

	r := gin.New()
	scoped := r.Group("", middleware.TenantScope(config.TenantConfig{}))
	scoped.GET("/patients", pc.SearchPatients)
	scoped.GET("/patients/:id", pc.GetPatient)
	scoped.POST("/patients", pc.CreatePatient)
	scoped.PUT("/patients/:id", pc.UpdatePatient)
	scoped.DELETE("/patients/:id", pc.DeletePatient)
	return r
}

func scopedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("X-Clinic-ID", "clinic-1")
	req.Header.Set("X-Doctor-ID", "doc-1")
	return req
}

func TestPatientController_GetPatient(t *testing.T) {
	api := newMockPatientAPI(remote.Patient{ID: "p1", FirstName: "Anna", LastName: "Meyer"})
	r := patientTestRouter(api)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(http.MethodGet, "/patients/p1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got remote.Patient
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if got.LastName != "Meyer" {
		t.Errorf("unexpected patient %+v", got)
	}
}

func TestPatientController_GetPatientNotFound(t *testing.T) {
	r := patientTestRouter(newMockPatientAPI())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(http.MethodGet, "/patients/missing", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPatientController_MissingTenantScope(t *testing.T) {
	r := patientTestRouter(newMockPatientAPI())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/patients/p1", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without tenant headers, got %d", w.Code)
	}
}

func TestPatientController_RefreshQueryForcesReload(t *testing.T) {
	api := newMockPatientAPI(remote.Patient{ID: "p1"})
	r := patientTestRouter(api)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, scopedRequest(http.MethodGet, "/patients/p1", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	if api.getCalls != 1 {
		t.Fatalf("expected the second read cached, got %d backend calls", api.getCalls)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(http.MethodGet, "/patients/p1?refresh=true", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if api.getCalls != 2 {
		t.Errorf("expected refresh to hit the backend, got %d calls", api.getCalls)
	}
}

func TestPatientController_CreatePatient(t *testing.T) {
	api := newMockPatientAPI()
	r := patientTestRouter(api)

	body, _ := json.Marshal(map[string]string{
		"firstName": "Anna",
		"lastName":  "Meyer",
		"email":     "anna@example.test",
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(http.MethodPost, "/patients", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var got remote.Patient
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != "p-created" {
		t.Errorf("expected the stored record back, got %+v", got)
	}
}

func TestPatientController_CreatePatientValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "{broken"},
		{"missing last name", `{"firstName":"Anna"}`},
		{"bad email", `{"firstName":"Anna","lastName":"Meyer","email":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := patientTestRouter(newMockPatientAPI())
			w := httptest.NewRecorder()
			r.ServeHTTP(w, scopedRequest(http.MethodPost, "/patients", []byte(tt.body)))
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestPatientController_DeletePatient(t *testing.T) {
	api := newMockPatientAPI(remote.Patient{ID: "p1"})
	r := patientTestRouter(api)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(http.MethodDelete, "/patients/p1", nil))

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if _, ok := api.patients["p1"]; ok {
		t.Error("expected the patient removed from the backend")
	}
}

func TestPatientController_SearchPatients(t *testing.T) {
	api := newMockPatientAPI(remote.Patient{ID: "p1", LastName: "Meyer"})
	r := patientTestRouter(api)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(http.MethodGet, "/patients?search=meyer", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got []remote.Patient
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 result, got %d", len(got))
	}
}
