package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pastebit/pastebit/config"
	"github.com/pastebit/pastebit/paste"
	"github.com/pastebit/pastebit/utils"
)

// ViewHandler renders pastes as HTML pages. Viewing a paste in the
// browser consumes a view exactly like the JSON API does.
type ViewHandler struct {
	svc    *paste.Service
	config *config.Config
}

// NewViewHandler creates a new HTML view handler
func NewViewHandler(svc *paste.Service, config *config.Config) *ViewHandler {
	return &ViewHandler{
		svc:    svc,
		config: config,
	}
}

// View handles viewing a paste via GET /p/:id. The template escapes the
// content, so pastes render as plain text only.
func (h *ViewHandler) View(c *gin.Context) {
	id := c.Param("id")

	if !utils.IsValidToken(id) {
		h.renderNotFound(c)
		return
	}

	result, err := h.svc.Consume(c.Request.Context(), id, requestNow(c, h.config))
	if err != nil {
		if errors.Is(err, paste.ErrNotLive) {
			h.renderNotFound(c)
			return
		}
		log.Printf("[ERROR] View paste: %v", err)
		c.HTML(http.StatusInternalServerError, "view.html", gin.H{
			"Title": "Error",
			"Error": "Something went wrong.",
		})
		return
	}

	var meta []string
	if result.RemainingViews != nil {
		meta = append(meta, fmt.Sprintf("%d views remaining.", *result.RemainingViews))
	}
	if result.ExpiresAt != nil {
		meta = append(meta, "Expires at "+result.ExpiresAt.UTC().Format(time.RFC3339)+".")
	}

	c.HTML(http.StatusOK, "view.html", gin.H{
		"Title":   "Paste",
		"Content": result.Content,
		"Meta":    strings.Join(meta, " "),
	})
}

func (h *ViewHandler) renderNotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "view.html", gin.H{
		"Title": "Paste not found",
		"Error": "Paste not found or no longer available.",
	})
}

// Index handles the main page via GET /
func (h *ViewHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":   "pastebit",
		"Version": h.config.Version,
	})
}
