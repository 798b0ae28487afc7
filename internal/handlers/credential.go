// internal/handlers/credential.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/launchkit/launchkit-backend/internal/services"
	"github.com/launchkit/launchkit-backend/internal/utils"
)

type CredentialHandler struct {
	credentialService *services.CredentialService
}

func NewCredentialHandler(credentialService *services.CredentialService) *CredentialHandler {
	return &CredentialHandler{
		credentialService: credentialService,
	}
}

// POST /credentials
func (h *CredentialHandler) CreateCredential(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.CreateCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	credential, err := h.credentialService.Create(userID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, credential)
}

// GET /credentials
func (h *CredentialHandler) GetCredentials(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)

	credentials, total, err := h.credentialService.List(userID, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	result := utils.CreatePaginationResult(credentials, total, params)
	utils.PaginatedResponse(c, result)
}

// DELETE /credentials/:id
func (h *CredentialHandler) DeleteCredential(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	credentialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid credential ID", nil)
		return
	}

	if err := h.credentialService.Delete(userID, credentialID); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Credential deleted",
	})
}
