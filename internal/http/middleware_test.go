package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"judgeboard/internal/auth"
	"judgeboard/internal/qa"
)

func TestRequireAPIToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireAPIToken("secret")(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer secret", http.StatusNoContent},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic secret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/judges", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireAPITokenEmptyConfiguredTokenRejectsAll(t *testing.T) {
	h := RequireAPIToken("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/judges", nil)
	req.Header.Set("Authorization", "Bearer ")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOwnerHashesClientToken(t *testing.T) {
	s := &Server{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/workspaces", nil)
	req.Header.Set("X-Client-Token", "browser-123")

	owner, ok := s.owner(rec, req)
	require.True(t, ok)
	assert.Equal(t, auth.HashToken("browser-123"), owner)
	assert.NotContains(t, owner, "browser-123", "raw token never used as identity")
}

func TestOwnerMissingTokenIs400(t *testing.T) {
	s := &Server{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/workspaces", nil)

	_, ok := s.owner(rec, req)
	require.False(t, ok)
	assert.Equal(t, 400, rec.Code)

	var resp errResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "X-Client-Token")
}

func TestRunResponseShape(t *testing.T) {
	b, err := json.Marshal(runResponse{Success: true, Summary: qa.Summary{Results: []qa.Result{}}})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"success":true,"processed":0,"passed":0,"failed":0,"inconclusive":0,"results":[]}`,
		string(b))
}
