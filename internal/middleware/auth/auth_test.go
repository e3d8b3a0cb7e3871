package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finwell/internal/auth"
)

func TestRequireOwner(t *testing.T) {
	jwtManager := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	token, err := jwtManager.Generate("alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var seen string
	handler := RequireOwner(jwtManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetOwnerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantDetail string
	}{
		{"valid token", "Bearer " + token, http.StatusNoContent, ""},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent, ""},
		{"missing header", "", http.StatusUnauthorized, missingCredentials},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, missingCredentials},
		{"bad token", "Bearer nope", http.StatusUnauthorized, invalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/budgets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantDetail == "" {
				if seen != "alice" {
					t.Errorf("owner = %q, want alice", seen)
				}
				return
			}
			var body map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["detail"] != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body["detail"], tt.wantDetail)
			}
			if seen != "" {
				t.Error("handler must not run on rejected requests")
			}
		})
	}
}
