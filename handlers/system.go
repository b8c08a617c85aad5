package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pastebit/pastebit/storage"
)

// SystemHandler handles health and system endpoints
type SystemHandler struct {
	store storage.PasteStore
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(store storage.PasteStore) *SystemHandler {
	return &SystemHandler{store: store}
}

// Healthz handles health check via GET /api/healthz, reporting whether
// the backing store answers a ping.
func (h *SystemHandler) Healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		log.Printf("[ERROR] Healthz: store ping failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
