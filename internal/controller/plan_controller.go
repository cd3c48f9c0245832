package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"examly-backend/internal/service"
)

type PlanController struct {
	PlanService service.PlanService
}

func NewPlanController(planService service.PlanService) *PlanController {
	return &PlanController{PlanService: planService}
}

// GetPlan handles GET /plan/
func (pc *PlanController) GetPlan(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	plan, err := pc.PlanService.GetPlan(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get plan"})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// SetSlot handles PUT /plan/slot
func (pc *PlanController) SetSlot(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Slot string `json:"slot" binding:"required"`
		Done *bool  `json:"done" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	plan, err := pc.PlanService.SetSlot(uid, req.Slot, *req.Done)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetPreferences handles GET /plan/preferences
func (pc *PlanController) GetPreferences(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	prefs, err := pc.PlanService.GetPreferences(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get preferences"})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences handles PUT /plan/preferences
func (pc *PlanController) UpdatePreferences(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		SoundEnabled     *bool `json:"sound_enabled" binding:"required"`
		RemindersEnabled *bool `json:"reminders_enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	prefs, err := pc.PlanService.UpdatePreferences(uid, *req.SoundEnabled, *req.RemindersEnabled)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// CheckReminder handles GET /plan/reminder
func (pc *PlanController) CheckReminder(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	show, err := pc.PlanService.ShouldShowReminder(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check reminder"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"show_reminder": show})
}
