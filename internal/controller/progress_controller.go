package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"examly-backend/internal/service"
	"examly-backend/utilities"
)

type ProgressController struct {
	ProgressService service.ProgressService
}

func NewProgressController(progressService service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// GetProgress handles GET /progress/
func (pc *ProgressController) GetProgress(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	record, err := pc.ProgressService.GetProgress(uid)
	if err != nil {
		utilities.Error("failed to load progress for user %d: %v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get progress"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// CompleteTask handles POST /progress/complete_task
func (pc *ProgressController) CompleteTask(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.CompleteTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if req.Module == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "module is required"})
		return
	}
	record, err := pc.ProgressService.CompleteTask(uid, req)
	if err != nil {
		utilities.Error("failed to record task for user %d: %v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record task"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// AddMistake handles POST /progress/mistakes
func (pc *ProgressController) AddMistake(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.MistakeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if err := pc.ProgressService.AddMistake(uid, req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save mistake"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Mistake saved"})
}

// RemoveMistake handles DELETE /progress/mistakes/:id
func (pc *ProgressController) RemoveMistake(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	mistakeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mistake ID"})
		return
	}
	if err := pc.ProgressService.RemoveMistake(uid, uint(mistakeID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove mistake"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mistake removed"})
}

// Reset handles POST /progress/reset
func (pc *ProgressController) Reset(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := pc.ProgressService.Reset(uid); err != nil {
		utilities.Error("failed to reset progress for user %d: %v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset progress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Progress reset"})
}
