package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"examly-backend/internal/service"
)

type FlashcardController struct {
	FlashcardService service.FlashcardService
}

func NewFlashcardController(flashcardService service.FlashcardService) *FlashcardController {
	return &FlashcardController{FlashcardService: flashcardService}
}

// GetSet handles GET /flashcards/
func (fc *FlashcardController) GetSet(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	set, err := fc.FlashcardService.GetSet(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get flashcards"})
		return
	}
	c.JSON(http.StatusOK, set)
}

// AddCard handles POST /flashcards/
func (fc *FlashcardController) AddCard(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Front    string `json:"front" binding:"required"`
		Back     string `json:"back" binding:"required"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	card, err := fc.FlashcardService.AddCard(uid, req.Front, req.Back, req.Category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add card"})
		return
	}
	c.JSON(http.StatusCreated, card)
}

// SetCardStatus handles PATCH /flashcards/:id/status
func (fc *FlashcardController) SetCardStatus(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	cardID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid card ID"})
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if err := fc.FlashcardService.SetCardStatus(uid, uint(cardID), req.Status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}

// GetCursor handles GET /flashcards/cursor
func (fc *FlashcardController) GetCursor(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	cursor, err := fc.FlashcardService.GetCursor(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get cursor"})
		return
	}
	c.JSON(http.StatusOK, cursor)
}

// SetCursor handles PUT /flashcards/cursor
func (fc *FlashcardController) SetCursor(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Category string `json:"category" binding:"required"`
		Index    int    `json:"index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if err := fc.FlashcardService.SetCursor(uid, req.Category, req.Index); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save cursor"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cursor saved"})
}
