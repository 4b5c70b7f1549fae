package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clinicdesk/appointment-scheduling/internal/auth"
	"github.com/clinicdesk/appointment-scheduling/internal/booking"
	"github.com/clinicdesk/appointment-scheduling/internal/filestore"
)

const (
	testDoctor   = "Dr. Smith (Cardiology)"
	testDate     = "10/15/2026"
	testSlot     = "9:00 AM"
	doctorSecret = "roster-password"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	logger := zap.NewNop()

	store, err := filestore.New(dir, logger)
	require.NoError(t, err)
	authSvc, err := auth.NewService(dir, doctorSecret, logger)
	require.NoError(t, err)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	bookingSvc := booking.NewService(store, logger, 60)

	router := NewRouter(RouterConfig{
		Booking: bookingSvc,
		Auth:    authSvc,
		Tokens:  tokens,
		Logger:  logger,
		DataDir: dir,
		Env:     "test",
		Version: "test",
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func registerPatient(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Phone:    "555-0100",
		Password: "s3cret",
	})
	require.Equal(t, http.StatusCreated, status)

	return login(t, srv, username, "s3cret", "patient")
}

func login(t *testing.T, srv *httptest.Server, username, password, role string) string {
	t.Helper()

	status, body := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", LoginRequest{
		Username: username,
		Password: password,
		Role:     role,
	})
	require.Equal(t, http.StatusOK, status, "login response: %s", body)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func bookReq() booking.BookRequest {
	return booking.BookRequest{
		PatientName: "Alice Anderson",
		Contact:     "555-0100",
		Insurance:   "Acme Health",
		Doctor:      testDoctor,
		Date:        testDate,
		Time:        testSlot,
		Reason:      "Annual checkup",
	}
}

func freeSlots(t *testing.T, srv *httptest.Server) []booking.Slot {
	t.Helper()
	status, body := doJSON(t, http.MethodGet,
		srv.URL+"/availability?doctor=Dr.+Smith+(Cardiology)&date=10%2F15%2F2026", "", nil)
	require.Equal(t, http.StatusOK, status)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Slots
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	status, _ := doJSON(t, http.MethodGet, srv.URL+"/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, http.MethodGet, srv.URL+"/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"data_dir":"ok"`)
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	srv := newTestServer(t)
	registerPatient(t, srv, "alice")

	status, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Phone:    "555-0100",
		Password: "other",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "already_exists")
}

func TestRegisterRejectsTraversalUsername(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/auth/register", "", RegisterRequest{
		Username: "../../escaped",
		Email:    "escaped@example.com",
		Phone:    "555-0100",
		Password: "s3cret",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "validation_failed")
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t)
	registerPatient(t, srv, "alice")

	status, body := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", LoginRequest{
		Username: "alice", Password: "wrong", Role: "patient",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(body), "bad_password")

	status, body = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", LoginRequest{
		Username: "nobody", Password: "s3cret", Role: "patient",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(body), "not_found")
}

func TestAppointmentsRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/appointments", "", bookReq())
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, http.MethodGet, srv.URL+"/appointments", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// A doctor token cannot use the patient subtree and vice versa.
	docToken := login(t, srv, "dr_smith", doctorSecret, "doctor")
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/appointments", docToken, bookReq())
	assert.Equal(t, http.StatusForbidden, status)

	patToken := registerPatient(t, srv, "alice")
	status, _ = doJSON(t, http.MethodGet, srv.URL+"/doctor/schedule/today", patToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestBookCancelRebookFlow(t *testing.T) {
	srv := newTestServer(t)
	alice := registerPatient(t, srv, "alice")
	bob := registerPatient(t, srv, "bob")

	// Alice books.
	status, body := doJSON(t, http.MethodPost, srv.URL+"/appointments", alice, bookReq())
	require.Equal(t, http.StatusCreated, status, "book response: %s", body)

	var rec booking.AppointmentRecord
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, booking.StatusConfirmed, rec.Status)

	assert.NotContains(t, freeSlots(t, srv), booking.Slot(testSlot))

	// Bob collides.
	status, body = doJSON(t, http.MethodPost, srv.URL+"/appointments", bob, bookReq())
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "slot_taken")

	status, body = doJSON(t, http.MethodGet, srv.URL+"/appointments", bob, nil)
	require.Equal(t, http.StatusOK, status)
	var bobList AppointmentsResponse
	require.NoError(t, json.Unmarshal(body, &bobList))
	assert.Empty(t, bobList.Appointments)

	// Alice cancels; the slot opens up and bob succeeds.
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/appointments/cancel", alice, CancelRequest{
		Doctor: testDoctor, Date: testDate, Time: testSlot,
	})
	require.Equal(t, http.StatusOK, status)

	assert.Contains(t, freeSlots(t, srv), booking.Slot(testSlot))

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/appointments", bob, bookReq())
	require.Equal(t, http.StatusCreated, status)

	// Alice's stale second cancel is NotFound and must not free bob's slot.
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/appointments/cancel", alice, CancelRequest{
		Doctor: testDoctor, Date: testDate, Time: testSlot,
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotContains(t, freeSlots(t, srv), booking.Slot(testSlot))
}

func TestBookValidationFailed(t *testing.T) {
	srv := newTestServer(t)
	alice := registerPatient(t, srv, "alice")

	req := bookReq()
	req.Reason = ""
	status, body := doJSON(t, http.MethodPost, srv.URL+"/appointments", alice, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "validation_failed")
}

func TestDoctorCompletesVisit(t *testing.T) {
	srv := newTestServer(t)
	alice := registerPatient(t, srv, "alice")

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/appointments", alice, bookReq())
	require.Equal(t, http.StatusCreated, status)

	docToken := login(t, srv, "dr_smith", doctorSecret, "doctor")
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/doctor/appointments/complete", docToken, CompleteRequest{
		Date: testDate, Time: testSlot,
	})
	require.Equal(t, http.StatusOK, status)

	// Completion never releases the slot.
	assert.NotContains(t, freeSlots(t, srv), booking.Slot(testSlot))

	// Completing the same visit again misses.
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/doctor/appointments/complete", docToken, CompleteRequest{
		Date: testDate, Time: testSlot,
	})
	assert.Equal(t, http.StatusNotFound, status)

	// The patient sees the stored Completed status.
	status, body := doJSON(t, http.MethodGet, srv.URL+"/appointments", alice, nil)
	require.Equal(t, http.StatusOK, status)
	var list AppointmentsResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Appointments, 1)
	assert.Equal(t, booking.StatusCompleted, list.Appointments[0].Status)
	assert.Equal(t, booking.DisplayCompleted, list.Appointments[0].DisplayStatus)
}

func TestDoctorViewsAreScopedByToken(t *testing.T) {
	srv := newTestServer(t)
	alice := registerPatient(t, srv, "alice")

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/appointments", alice, bookReq())
	require.Equal(t, http.StatusCreated, status)

	other := bookReq()
	other.Doctor = "Dr. Johnson (Pediatrics)"
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/appointments", alice, other)
	require.Equal(t, http.StatusCreated, status)

	smith := login(t, srv, "dr_smith", doctorSecret, "doctor")
	status, body := doJSON(t, http.MethodGet, srv.URL+"/doctor/appointments", smith, nil)
	require.Equal(t, http.StatusOK, status)

	var resp DoctorAppointmentsResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, testDoctor, resp.Appointments[0].Doctor)
}

func TestAvailabilityRejectsUnknownDoctor(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, http.MethodGet,
		srv.URL+"/availability?doctor=Dr.+House&date=10%2F15%2F2026", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "unknown_doctor")
}

func TestCalendarEndpoint(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, http.MethodGet,
		srv.URL+"/calendar?doctor=Dr.+Smith+(Cardiology)", "", nil)
	require.Equal(t, http.StatusOK, status)

	var resp CalendarResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, testDoctor, resp.Doctor)
	assert.Len(t, resp.Dates, 61) // today plus the 60-day window
}
