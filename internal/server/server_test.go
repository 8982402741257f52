package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/suryalive/suryalive/internal/session"
	"github.com/suryalive/suryalive/pkg/audio"
	"github.com/suryalive/suryalive/pkg/provider/live"
	"github.com/suryalive/suryalive/pkg/provider/reading"
	readingmock "github.com/suryalive/suryalive/pkg/provider/reading/mock"
)

// fakeController is a minimal LiveController for handler tests.
type fakeController struct {
	mu         sync.Mutex
	startErr   error
	state      session.State
	transcript []live.TranscriptFragment

	startCalls int
	stopCalls  int
}

func (f *fakeController) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	if f.startErr != nil {
		return f.startErr
	}
	f.state = session.StateActive
	return nil
}

func (f *fakeController) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	f.state = session.StateIdle
}

func (f *fakeController) State() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeController) Transcript() []live.TranscriptFragment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transcript
}

func newTestServer(ctrl *fakeController, readings reading.Provider) http.Handler {
	return New(Config{Controller: ctrl, Readings: readings}).Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return v
}

func TestLiveStart(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestServer(ctrl, &readingmock.Provider{})

	rec := doRequest(t, h, http.MethodPost, "/v1/live/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	res := decodeBody[stateResponse](t, rec)
	if res.State != "active" {
		t.Errorf("state = %q, want %q", res.State, "active")
	}
	if ctrl.startCalls != 1 {
		t.Errorf("Start called %d times, want 1", ctrl.startCalls)
	}
}

func TestLiveStart_AlreadyActive(t *testing.T) {
	ctrl := &fakeController{startErr: session.ErrSessionActive}
	h := newTestServer(ctrl, &readingmock.Provider{})

	rec := doRequest(t, h, http.MethodPost, "/v1/live/start", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestLiveStart_MicrophoneDenied(t *testing.T) {
	ctrl := &fakeController{startErr: audio.ErrPermissionDenied}
	h := newTestServer(ctrl, &readingmock.Provider{})

	rec := doRequest(t, h, http.MethodPost, "/v1/live/start", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestLiveStart_ConnectFailure(t *testing.T) {
	ctrl := &fakeController{startErr: errors.New("dial refused")}
	h := newTestServer(ctrl, &readingmock.Provider{})

	rec := doRequest(t, h, http.MethodPost, "/v1/live/start", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestLiveStop(t *testing.T) {
	ctrl := &fakeController{state: session.StateActive}
	h := newTestServer(ctrl, &readingmock.Provider{})

	rec := doRequest(t, h, http.MethodPost, "/v1/live/stop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	res := decodeBody[stateResponse](t, rec)
	if res.State != "idle" {
		t.Errorf("state = %q, want %q", res.State, "idle")
	}
	if ctrl.stopCalls != 1 {
		t.Errorf("Stop called %d times, want 1", ctrl.stopCalls)
	}
}

func TestLiveState_IncludesTranscript(t *testing.T) {
	ctrl := &fakeController{
		state: session.StateActive,
		transcript: []live.TranscriptFragment{
			{Role: live.RoleUser, Text: "What does my chart say?"},
			{Role: live.RoleModel, Text: "Your lagna is Mesha."},
		},
	}
	h := newTestServer(ctrl, &readingmock.Provider{})

	rec := doRequest(t, h, http.MethodGet, "/v1/live/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	res := decodeBody[stateResponse](t, rec)
	if res.State != "active" {
		t.Errorf("state = %q, want %q", res.State, "active")
	}
	if len(res.Transcript) != 2 {
		t.Fatalf("transcript has %d entries, want 2", len(res.Transcript))
	}
	if res.Transcript[0].Speaker != "user" || res.Transcript[1].Speaker != "model" {
		t.Errorf("speakers = %q, %q", res.Transcript[0].Speaker, res.Transcript[1].Speaker)
	}
}

func TestReading(t *testing.T) {
	readings := &readingmock.Provider{
		PersonalizedReadingResult: &reading.LagnaReading{
			Lagna:        "මේෂ (Mesha)",
			Summary:      "සාරාංශය",
			LuckyNumbers: []int{3, 9},
			LuckyColor:   "රතු",
		},
	}
	h := newTestServer(&fakeController{}, readings)

	body := `{"name":"Nimal","birthDate":"1990-04-14","birthTime":"06:30","birthPlace":"Kandy"}`
	rec := doRequest(t, h, http.MethodPost, "/v1/readings", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	res := decodeBody[reading.LagnaReading](t, rec)
	if res.Lagna != "මේෂ (Mesha)" {
		t.Errorf("lagna = %q", res.Lagna)
	}
	if got := readings.RecordedBirthInfos[0].BirthPlace; got != "Kandy" {
		t.Errorf("birth place passed to provider = %q, want %q", got, "Kandy")
	}
}

func TestReading_MissingFields(t *testing.T) {
	readings := &readingmock.Provider{}
	h := newTestServer(&fakeController{}, readings)

	rec := doRequest(t, h, http.MethodPost, "/v1/readings", `{"name":"Nimal"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if readings.CallCountPersonalizedReading != 0 {
		t.Error("provider called despite invalid request")
	}
}

func TestReading_InvalidBody(t *testing.T) {
	h := newTestServer(&fakeController{}, &readingmock.Provider{})

	rec := doRequest(t, h, http.MethodPost, "/v1/readings", "not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReading_ProviderFailure(t *testing.T) {
	readings := &readingmock.Provider{PersonalizedReadingError: errors.New("model overloaded")}
	h := newTestServer(&fakeController{}, readings)

	body := `{"name":"Nimal","birthDate":"1990-04-14","birthTime":"06:30","birthPlace":"Kandy"}`
	rec := doRequest(t, h, http.MethodPost, "/v1/readings", body)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestReading_NoProvider(t *testing.T) {
	h := newTestServer(&fakeController{}, nil)

	body := `{"name":"Nimal","birthDate":"1990-04-14","birthTime":"06:30","birthPlace":"Kandy"}`
	rec := doRequest(t, h, http.MethodPost, "/v1/readings", body)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHoroscope(t *testing.T) {
	readings := &readingmock.Provider{DailyHoroscopeResult: "අද දවස සුබයි."}
	h := newTestServer(&fakeController{}, readings)

	rec := doRequest(t, h, http.MethodGet, "/v1/horoscope/mesha", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	res := decodeBody[map[string]string](t, rec)
	if res["lagna"] != "mesha" {
		t.Errorf("lagna = %q, want %q", res["lagna"], "mesha")
	}
	if res["horoscope"] != "අද දවස සුබයි." {
		t.Errorf("horoscope = %q", res["horoscope"])
	}
	if got := readings.RecordedLagnas[0]; got != "mesha" {
		t.Errorf("lagna passed to provider = %q", got)
	}
}

func TestHoroscope_ProviderFailure(t *testing.T) {
	readings := &readingmock.Provider{DailyHoroscopeError: errors.New("model overloaded")}
	h := newTestServer(&fakeController{}, readings)

	rec := doRequest(t, h, http.MethodGet, "/v1/horoscope/mesha", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(&fakeController{}, &readingmock.Provider{})

	rec := doRequest(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(&fakeController{}, &readingmock.Provider{})

	rec := doRequest(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(&fakeController{}, &readingmock.Provider{})

	rec := doRequest(t, h, http.MethodGet, "/v1/live/start", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
