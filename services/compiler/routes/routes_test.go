// Copyright (C) 2025 Meridian Intelligence (oss@meridianintel.dev)
// Tests for route wiring.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeridianIntel/MeridianDesk/services/compiler/catalog"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/datatypes"
	"github.com/MeridianIntel/MeridianDesk/services/compiler/store"
)

type stubCompiler struct{}

func (stubCompiler) Compile(ctx context.Context, packID string) (datatypes.SignalPack, error) {
	return datatypes.SignalPack{CaseID: packID}, nil
}

func testRouter(t *testing.T, apiKey string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	manifest := "packs:\n  - id: acme_q3\n    name: Acme\n    files: []\n"
	path := filepath.Join(root, "packs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0640))
	cat, err := catalog.Load(path, []string{root})
	require.NoError(t, err)

	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, Options{
		Catalog:  cat,
		Store:    st,
		Compiler: stubCompiler{},
		APIKey:   apiKey,
	})
	return router
}

func get(router *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupRoutes_EndpointsMounted(t *testing.T) {
	router := testRouter(t, "")

	assert.Equal(t, http.StatusOK, get(router, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, get(router, "/metrics", nil).Code)
	assert.Equal(t, http.StatusOK, get(router, "/v1/packs", nil).Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/v1/packs/acme_q3/runs/latest", nil).Code,
		"no run persisted yet")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/packs/acme_q3/compile", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRoutes_HealthAndMetricsBypassAuth(t *testing.T) {
	router := testRouter(t, "sekrit")

	assert.Equal(t, http.StatusOK, get(router, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, get(router, "/metrics", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/v1/packs", nil).Code)
	assert.Equal(t, http.StatusOK,
		get(router, "/v1/packs", map[string]string{"Authorization": "Bearer sekrit"}).Code)
}

func TestSetupRoutes_RequestIDOnV1(t *testing.T) {
	router := testRouter(t, "")
	w := get(router, "/v1/packs", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
