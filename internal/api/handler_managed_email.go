package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtriage/internal/service"
)

type ManagedEmailHandler struct {
	registry *service.RegistryService
}

func NewManagedEmailHandler(registry *service.RegistryService) *ManagedEmailHandler {
	return &ManagedEmailHandler{
		registry: registry,
	}
}

// List handles GET /emails/managed
func (h *ManagedEmailHandler) List(c *gin.Context) {
	emails, err := h.registry.List(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, emails)
}

// GetByAddress handles GET /emails/managed/lookup?address=
// Absence is a 200 with a null body, not an error.
func (h *ManagedEmailHandler) GetByAddress(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	email, err := h.registry.GetByAddress(c.Request.Context(), callerFrom(c), address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, email)
}

// Create handles POST /emails/managed
func (h *ManagedEmailHandler) Create(c *gin.Context) {
	var req struct {
		EmailAddress     string `json:"email_address" binding:"required"`
		Label            string `json:"label"`
		UserID           string `json:"user_id" binding:"required"`
		FilteringEnabled bool   `json:"filtering_enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id, err := h.registry.Create(c.Request.Context(), req.EmailAddress, req.Label, req.UserID, req.FilteringEnabled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// Ensure handles POST /emails/managed/ensure
func (h *ManagedEmailHandler) Ensure(c *gin.Context) {
	var req struct {
		Label        string `json:"label"`
		EmailAddress string `json:"email_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	email, err := h.registry.Ensure(c.Request.Context(), callerFrom(c), req.Label, req.EmailAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, email)
}

// Update handles PATCH /emails/managed/:id. Only provided fields change.
func (h *ManagedEmailHandler) Update(c *gin.Context) {
	id, ok := emailID(c)
	if !ok {
		return
	}

	var req struct {
		EmailAddress     *string `json:"email_address"`
		Label            *string `json:"label"`
		FilteringEnabled *bool   `json:"filtering_enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.registry.Update(c.Request.Context(), callerFrom(c), id, req.EmailAddress, req.Label, req.FilteringEnabled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /emails/managed/:id
func (h *ManagedEmailHandler) Delete(c *gin.Context) {
	id, ok := emailID(c)
	if !ok {
		return
	}

	if err := h.registry.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetFiltering handles PUT /emails/managed/:id/filtering
func (h *ManagedEmailHandler) SetFiltering(c *gin.Context) {
	id, ok := emailID(c)
	if !ok {
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.registry.SetFilteringEnabled(c.Request.Context(), callerFrom(c), id, req.Enabled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleFiltering handles POST /emails/managed/:id/filtering/toggle
func (h *ManagedEmailHandler) ToggleFiltering(c *gin.Context) {
	id, ok := emailID(c)
	if !ok {
		return
	}

	if err := h.registry.ToggleFiltering(c.Request.Context(), callerFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
