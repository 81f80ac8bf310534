package controllerImp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krushi/database"
	"krushi/pkg/catalog"
	"krushi/pkg/catalog/repositoryImp"
	"krushi/pkg/catalog/serviceImp"
)

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	svc := serviceImp.NewCatalogService(repositoryImp.New(db), nil)
	_, err = svc.SeedDefaults(false)
	require.NoError(t, err)

	h := NewCatalogController(svc)
	e := echo.New()
	e.GET("/catalog/districts", h.Districts)
	e.GET("/catalog/districts/:name/blocks", h.Blocks)
	e.GET("/catalog/items/:kind", h.Items)
	return e
}

func get(t *testing.T, e *echo.Echo, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestCatalogEndpoints(t *testing.T) {
	e := newServer(t)

	var districts []string
	assert.Equal(t, http.StatusOK, get(t, e, "/catalog/districts", &districts))
	assert.Len(t, districts, 30)

	var blocks []string
	assert.Equal(t, http.StatusOK, get(t, e, "/catalog/districts/Nuapada/blocks", &blocks))
	assert.Equal(t, []string{"Nuapada", "Boden", "Khariar", "Komna", "Sinapali"}, blocks)
	assert.Equal(t, http.StatusNotFound, get(t, e, "/catalog/districts/Atlantis/blocks", nil))

	var items []catalog.Item
	assert.Equal(t, http.StatusOK, get(t, e, "/catalog/items/seed_variety", &items))
	assert.Equal(t, "High Yielding Variety (HYV)", items[1].Name)
	assert.Equal(t, http.StatusNotFound, get(t, e, "/catalog/items/tractor", nil))
}
