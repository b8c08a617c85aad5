package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pastebit/pastebit/config"
)

// requestNow returns the instant lifecycle decisions are evaluated
// against. In test mode the X-Test-Now-Ms header (epoch milliseconds)
// overrides the wall clock so expiry behavior is deterministic.
func requestNow(c *gin.Context, cfg *config.Config) time.Time {
	if cfg.TestMode {
		if raw := c.GetHeader("X-Test-Now-Ms"); raw != "" {
			if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return time.UnixMilli(ms).UTC()
			}
		}
	}
	return time.Now().UTC()
}
