package script

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/eliza/backend/internal/model/script"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(script.NewMemoryStore(script.Seed())).RegisterRoutes(r)
	return r
}

func TestListScripts(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/scripts", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var scripts []script.Script
	if err := json.Unmarshal(resp.Body.Bytes(), &scripts); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(scripts) != 1 || scripts[0].ID != script.DoctorID {
		t.Fatalf("unexpected scripts: %+v", scripts)
	}
}

func TestGetScript(t *testing.T) {
	resp := httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/scripts/doctor", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	setupRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/scripts/nurse", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
