// internal/handlers/generation.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/launchkit/launchkit-backend/internal/codegen"
	"github.com/launchkit/launchkit-backend/internal/models"
	"github.com/launchkit/launchkit-backend/internal/services"
	"github.com/launchkit/launchkit-backend/internal/utils"
)

type GenerationHandler struct {
	generationService *services.GenerationService

	// Injection points for tests. storeBundle is nil when bundle storage is
	// not configured.
	regenerateFiles func(userID, productID uuid.UUID) (*models.Product, map[string]string, error)
	storeBundle     func(productID uuid.UUID, bundle []byte) (*services.StoredBundle, error)
	recordBundleKey func(userID, productID uuid.UUID, key string) error
}

func NewGenerationHandler(generationService *services.GenerationService, storageService *services.StorageService) *GenerationHandler {
	h := &GenerationHandler{
		generationService: generationService,
	}
	h.regenerateFiles = generationService.RegenerateFiles
	h.recordBundleKey = generationService.RecordBundleKey
	if storageService.Available() {
		h.storeBundle = storageService.StoreBundle
	}
	return h
}

// POST /generate
func (h *GenerationHandler) Generate(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.generationService.Generate(c.Request.Context(), userID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// GET /generations
func (h *GenerationHandler) GetHistory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	generations, total, err := h.generationService.History(userID, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(generations, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /products/:id/files
//
// Re-runs code generation for a provisioned product and returns the files
// as a path-to-content map.
func (h *GenerationHandler) GetFiles(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	_, files, err := h.regenerateFiles(userID, productID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"files":      files,
		"file_count": len(files),
	})
}

// GET /products/:id/download
//
// Streams the generated files as a zip archive, written directly to the
// response as it is built. With ?store=true the bundle is instead uploaded to
// S3 and a presigned URL is returned.
func (h *GenerationHandler) Download(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, files, err := h.regenerateFiles(userID, productID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	if c.Query("store") == "true" {
		h.storeAndRespond(c, userID, productID, files)
		return
	}

	filename := fmt.Sprintf("%s-integration.zip", codegen.Slugify(product.Name))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/zip")
	c.Status(http.StatusOK)

	// Headers are already on the wire; a mid-stream failure can only be
	// logged, leaving the client with a truncated, invalid archive.
	if err := codegen.WriteArchive(c.Writer, files); err != nil {
		logrus.WithError(err).WithField("product_id", productID).
			Error("Archive streaming failed mid-response")
	}
}

// storeAndRespond is the ?store=true branch: here the whole bundle is needed
// in memory because S3 wants a sized body.
func (h *GenerationHandler) storeAndRespond(c *gin.Context, userID, productID uuid.UUID, files map[string]string) {
	if h.storeBundle == nil {
		utils.BadRequestResponse(c, "Bundle storage is not configured", nil)
		return
	}

	var buf bytes.Buffer
	if err := codegen.WriteArchive(&buf, files); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	bundle, err := h.storeBundle(productID, buf.Bytes())
	if err != nil {
		logrus.WithError(err).Error("Failed to store bundle")
		utils.InternalErrorResponse(c, "Failed to store bundle")
		return
	}

	if err := h.recordBundleKey(userID, productID, bundle.Key); err != nil {
		// The upload succeeded and the URL is valid; losing the trace is
		// worth a warning, not a failed request.
		logrus.WithError(err).WithField("bundle_key", bundle.Key).
			Warn("Failed to record bundle key on generation log")
	}

	utils.SuccessResponse(c, bundle)
}
