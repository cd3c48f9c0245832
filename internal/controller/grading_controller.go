package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"examly-backend/internal/llm"
	"examly-backend/internal/service"
)

type GradingController struct {
	GradingService  service.GradingService
	SpeakingService service.SpeakingService
}

func NewGradingController(gradingService service.GradingService, speakingService service.SpeakingService) *GradingController {
	return &GradingController{
		GradingService:  gradingService,
		SpeakingService: speakingService,
	}
}

// GradeClosed handles POST /grading/closed
func (gc *GradingController) GradeClosed(c *gin.Context) {
	var req struct {
		Tasks   []service.GradableTask `json:"tasks" binding:"required"`
		Answers map[string][]string    `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	result := gc.GradingService.EvaluateClosedTasks(req.Tasks, req.Answers)
	c.JSON(http.StatusOK, result)
}

// GradeWriting handles POST /grading/writing
func (gc *GradingController) GradeWriting(c *gin.Context) {
	var req struct {
		Instructions string `json:"instructions"`
		Text         string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	score := gc.GradingService.GradeWriting(c.Request.Context(), req.Instructions, req.Text)
	c.JSON(http.StatusOK, score)
}

// GradeSpeaking handles POST /grading/speaking
func (gc *GradingController) GradeSpeaking(c *gin.Context) {
	var req struct {
		Tasks []llm.SpeakingTask `json:"tasks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if len(req.Tasks) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one task is required"})
		return
	}
	score := gc.SpeakingService.GradeSpeaking(c.Request.Context(), req.Tasks)
	c.JSON(http.StatusOK, score)
}
