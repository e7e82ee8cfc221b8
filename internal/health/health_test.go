package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
)

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "ok\n" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok\n")
	}
}

func TestReadyzGatesOnDataset(t *testing.T) {
	store := oem.NewStore()
	h := ReadyzHandler(store)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("empty store: status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	store.Set(&oem.Dataset{LoadedAt: time.Now()})
	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("loaded store: status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "ready\n" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ready\n")
	}
}
