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

// PasteHandler exposes the JSON API on top of the lifecycle service.
type PasteHandler struct {
	svc    *paste.Service
	config *config.Config
}

// NewPasteHandler creates a new paste handler
func NewPasteHandler(svc *paste.Service, config *config.Config) *PasteHandler {
	return &PasteHandler{
		svc:    svc,
		config: config,
	}
}

// createRequest is the typed shape of a create body. Pointer fields
// keep "absent" distinguishable from zero values; numbers bind as
// float64 so non-integer input can be rejected with a clear reason
// instead of a bind error.
type createRequest struct {
	Content    *string  `json:"content"`
	TTLSeconds *float64 `json:"ttl_seconds"`
	MaxViews   *float64 `json:"max_views"`
}

// viewResponse is the consume response body. Nil fields serialize as
// explicit JSON nulls, matching the "unlimited" contract.
type viewResponse struct {
	Content        string     `json:"content"`
	RemainingViews *int       `json:"remaining_views"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

func respondInvalid(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": details})
}

// intField validates that an optional JSON number is a positive
// integer, converting it for the lifecycle service.
func intField(v *float64, name string) (*int, error) {
	if v == nil {
		return nil, nil
	}
	if *v != float64(int(*v)) || *v < 1 {
		return nil, fmt.Errorf("%s must be an integer >= 1", name)
	}
	n := int(*v)
	return &n, nil
}

// Create handles paste creation via POST /api/pastes
func (h *PasteHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "JSON body required")
		return
	}
	if req.Content == nil {
		respondInvalid(c, "content is required")
		return
	}
	ttl, err := intField(req.TTLSeconds, "ttl_seconds")
	if err != nil {
		respondInvalid(c, err.Error())
		return
	}
	maxViews, err := intField(req.MaxViews, "max_views")
	if err != nil {
		respondInvalid(c, err.Error())
		return
	}

	in := paste.CreateInput{
		Content:    *req.Content,
		TTLSeconds: ttl,
		MaxViews:   maxViews,
	}
	id, err := h.svc.Create(c.Request.Context(), in, requestNow(c, h.config))
	if err != nil {
		var invalid *paste.InvalidInputError
		if errors.As(err, &invalid) {
			respondInvalid(c, invalid.Reason)
			return
		}
		log.Printf("[ERROR] Create paste: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create paste"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":  id,
		"url": h.pasteURL(c, id),
	})
}

// Get handles paste consumption via GET /api/pastes/:id. A missing,
// expired, exhausted or unreadable paste all produce the same 404 body.
func (h *PasteHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !utils.IsValidToken(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Paste not found or no longer available"})
		return
	}

	result, err := h.svc.Consume(c.Request.Context(), id, requestNow(c, h.config))
	if err != nil {
		if errors.Is(err, paste.ErrNotLive) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Paste not found or no longer available"})
			return
		}
		log.Printf("[ERROR] Fetch paste: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch paste"})
		return
	}

	c.JSON(http.StatusOK, viewResponse{
		Content:        result.Content,
		RemainingViews: result.RemainingViews,
		ExpiresAt:      result.ExpiresAt,
	})
}

// pasteURL creates the shareable URL for a paste, detecting HTTPS from
// proxy headers when no base URL is configured.
func (h *PasteHandler) pasteURL(c *gin.Context, id string) string {
	if h.config.URL != "" {
		return fmt.Sprintf("%s/p/%s", strings.TrimRight(h.config.URL, "/"), id)
	}
	scheme := "http"
	if isHTTPS(c) {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/p/%s", scheme, c.Request.Host, id)
}

// isHTTPS detects if the original request was HTTPS, even behind proxies
func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	if scheme := c.GetHeader("X-Forwarded-Scheme"); scheme == "https" {
		return true
	}
	if c.GetHeader("X-Forwarded-Ssl") == "on" {
		return true
	}
	return false
}
