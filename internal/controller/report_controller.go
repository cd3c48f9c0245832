package controller

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"examly-backend/internal/repository"
	"examly-backend/internal/service"
	"examly-backend/utilities"
)

type ReportController struct {
	ReportService   service.ReportService
	ProgressService service.ProgressService
	CardRepo        repository.FlashcardRepository
}

func NewReportController(reportService service.ReportService, progressService service.ProgressService, cardRepo repository.FlashcardRepository) *ReportController {
	return &ReportController{
		ReportService:   reportService,
		ProgressService: progressService,
		CardRepo:        cardRepo,
	}
}

// GenerateReport handles POST /reports/progress. The record is normalized by
// GetProgress before rendering, so the PDF always shows derived values.
func (rc *ReportController) GenerateReport(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	record, err := rc.ProgressService.GetProgress(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load progress"})
		return
	}
	cards, err := rc.CardRepo.GetSet(uid)
	if err != nil {
		cards = nil
	}
	path, err := rc.ReportService.GenerateProgressReport(record, cards)
	if err != nil {
		utilities.Error("report generation failed for user %d: %v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"filename": filepath.Base(path)})
}

// DownloadReport handles GET /download/reports/:filename
func (rc *ReportController) DownloadReport(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	filePath := filepath.Join("working", "reports", filename)
	if filepath.Ext(filename) == ".pdf" {
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Header("Content-Type", "application/pdf")
	}
	c.File(filePath)
}
