// internal/handlers/generation_test.go
package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit-backend/internal/models"
	"github.com/launchkit/launchkit-backend/internal/services"
)

func newDownloadRouter(h *GenerationHandler, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/products/:id/download", func(c *gin.Context) {
		c.Set("user_id", userID.String())
	}, h.Download)
	return r
}

func sampleFiles() map[string]string {
	return map[string]string{
		".env.example":        "APP_URL=http://localhost:3000\n",
		"lib/subscription.ts": "export const ENTITLED_STATUSES = ['active', 'on_trial'];\n",
	}
}

func TestDownloadStreamsZipArchive(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	files := sampleFiles()

	h := &GenerationHandler{
		regenerateFiles: func(uid, pid uuid.UUID) (*models.Product, map[string]string, error) {
			assert.Equal(t, userID, uid)
			assert.Equal(t, productID, pid)
			return &models.Product{Name: "Acme Pro"}, files, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/"+productID.String()+"/download", nil)
	newDownloadRouter(h, userID).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `attachment`)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "acme-pro-integration.zip")

	// The body written to the response must be a complete, readable archive.
	reader, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, len(files))
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err)
		var content bytes.Buffer
		_, err = content.ReadFrom(rc)
		require.NoError(t, err)
		rc.Close()
		assert.Equal(t, files[f.Name], content.String())
	}
}

func TestDownloadStoreUploadsBundleAndRecordsKey(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	var recordedKey string
	h := &GenerationHandler{
		regenerateFiles: func(uid, pid uuid.UUID) (*models.Product, map[string]string, error) {
			return &models.Product{Name: "Acme Pro"}, sampleFiles(), nil
		},
		storeBundle: func(pid uuid.UUID, bundle []byte) (*services.StoredBundle, error) {
			assert.Equal(t, productID, pid)
			// The uploaded bytes must themselves be a valid archive.
			_, err := zip.NewReader(bytes.NewReader(bundle), int64(len(bundle)))
			assert.NoError(t, err)
			return &services.StoredBundle{
				Key:  "bundles/" + pid.String() + "/20260829T120000.zip",
				URL:  "https://example-bucket.s3.amazonaws.com/signed",
				Size: int64(len(bundle)),
			}, nil
		},
		recordBundleKey: func(uid, pid uuid.UUID, key string) error {
			assert.Equal(t, userID, uid)
			assert.Equal(t, productID, pid)
			recordedKey = key
			return nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/"+productID.String()+"/download?store=true", nil)
	newDownloadRouter(h, userID).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, recordedKey, resp.Data["key"], "stored key must be persisted on the generation log")
	assert.NotEmpty(t, resp.Data["url"])
	assert.Contains(t, recordedKey, "bundles/"+productID.String())
}

func TestDownloadStoreWithoutStorageConfigured(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	h := &GenerationHandler{
		regenerateFiles: func(uid, pid uuid.UUID) (*models.Product, map[string]string, error) {
			return &models.Product{Name: "Acme Pro"}, sampleFiles(), nil
		},
		// storeBundle stays nil, as it does when no AWS credentials exist.
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/"+productID.String()+"/download?store=true", nil)
	newDownloadRouter(h, userID).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Bundle storage is not configured")
}
