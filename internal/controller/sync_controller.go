package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"examly-backend/internal/service"
	"examly-backend/utilities"
)

type SyncController struct {
	SyncService service.SyncService
}

func NewSyncController(syncService service.SyncService) *SyncController {
	return &SyncController{SyncService: syncService}
}

// SyncNow handles POST /sync/now. It runs a full reconciliation immediately,
// bypassing the debounce window.
func (sc *SyncController) SyncNow(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	if sc.SyncService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sync is not enabled"})
		return
	}
	outcome, err := sc.SyncService.SyncNow(c.Request.Context(), uid)
	if err != nil {
		utilities.Warn("manual sync failed for user %d: %v", uid, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Sync failed"})
		return
	}
	c.JSON(http.StatusOK, outcome)
}
