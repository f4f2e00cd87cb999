package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hello-db/internal/database"
)

func fixedPort(p int) func() int { return func() int { return p } }

func doGreeting(t *testing.T, h *RootHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	if err := h.Greeting(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Greeting returned error: %v", err)
	}
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	msg, ok := body["message"]
	if !ok {
		t.Fatalf("missing message field in %q", rec.Body.String())
	}
	return msg
}

func TestGreeting(t *testing.T) {
	connected := database.NewStatus()
	connected.MarkConnected("mysql", "db:3306", time.Now())

	tests := []struct {
		name   string
		port   int
		status *database.Status
		want   string
	}{
		{"default not connected", 3000, database.NewStatus(), "Your app is listening on port: 3000. DB is not connected!"},
		{"connected", 3000, connected, "Your app is listening on port: 3000. DB is connected!"},
		{"ephemeral port", 49152, database.NewStatus(), "Your app is listening on port: 49152. DB is not connected!"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doGreeting(t, NewRootHandler(fixedPort(tc.port), tc.status), "/")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
				t.Errorf("Content-Type = %q", ct)
			}
			if got := decodeMessage(t, rec); got != tc.want {
				t.Errorf("message = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGreetingIgnoresInput(t *testing.T) {
	rec := doGreeting(t, NewRootHandler(fixedPort(3000), database.NewStatus()), "/?port=1&connected=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	msg := decodeMessage(t, rec)
	if !strings.Contains(msg, "3000") || !strings.Contains(msg, "not connected") {
		t.Errorf("message = %q", msg)
	}
}

func TestGreetingAfterFailedConnect(t *testing.T) {
	st := database.NewStatus()
	st.MarkFailed("mysql", "db:3306", errors.New("connection refused"), time.Now())
	msg := decodeMessage(t, doGreeting(t, NewRootHandler(fixedPort(3000), st), "/"))
	if !strings.HasSuffix(msg, "DB is not connected!") {
		t.Errorf("message = %q", msg)
	}
}

func TestStatusSnapshot(t *testing.T) {
	st := database.NewStatus()
	st.MarkFailed("postgres", "db:5432", errors.New("timeout"), time.Now())
	h := NewRootHandler(fixedPort(3000), st)

	e := echo.New()
	rec := httptest.NewRecorder()
	if err := h.Status(e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/status", nil), rec)); err != nil {
		t.Fatal(err)
	}
	var snap database.StatusSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Connected || snap.Driver != "postgres" || snap.Error != "timeout" || snap.CheckedAt == nil {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	if err := Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewRootHandlerPanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewRootHandler(nil, database.NewStatus())
}
