package registrations

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestGetByID_MalformedIDReturnsFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// A malformed id never reaches the repository, so none is wired.
	h := NewHandler(nil, nil, nil, nil, nil)

	router := gin.New()
	router.GET("/api/registrations/:id", h.GetByID)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/registrations/not-a-uuid", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (fallback, not 404)", rec.Code)
	}
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Data.Status != "unknown" {
		t.Errorf("status = %q, want unknown", body.Data.Status)
	}
	if body.Data.ID != "not-a-uuid" {
		t.Errorf("id = %q, want the echoed input", body.Data.ID)
	}
}

func TestSponsorLetter_RejectsBeforeHittingStorage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Malformed ids and missing storage are both caught before the
	// repository or S3 is touched, so neither is wired.
	h := NewHandler(nil, nil, nil, nil, nil)

	router := gin.New()
	router.GET("/api/admin/registrations/:id/sponsor-letter", h.SponsorLetter)

	cases := []struct {
		name string
		id   string
		want int
	}{
		{"malformed id", "not-a-uuid", http.StatusBadRequest},
		{"storage disabled", "3b7e2c1a-9f4d-4e8b-a6c5-1d2e3f4a5b6c", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/admin/registrations/"+tc.id+"/sponsor-letter", nil)
			router.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestFallbackRegistration_ZeroedCoreFields(t *testing.T) {
	fb := FallbackRegistration("xyz")
	if fb["status"] != "unknown" {
		t.Errorf("status = %v, want unknown", fb["status"])
	}
	for _, key := range []string{"total_amount", "discount_amount", "final_amount"} {
		if fb[key] != 0 {
			t.Errorf("%s = %v, want 0", key, fb[key])
		}
	}
}
