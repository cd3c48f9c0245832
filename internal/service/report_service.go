package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"examly-backend/internal/model"
)

// ReportService renders a one-page PDF summary of a normalized progress
// record for download or printing.
type ReportService interface {
	GenerateProgressReport(record *model.ProgressRecord, cards *model.FlashcardSet) (string, error)
}

type reportService struct {
	outputDir string
}

func NewReportService(outputDir string) ReportService {
	if outputDir == "" {
		outputDir = filepath.Join("working", "reports")
	}
	return &reportService{outputDir: outputDir}
}

func (s *reportService) GenerateProgressReport(record *model.ProgressRecord, cards *model.FlashcardSet) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	title := "Progress Report"
	if record.DisplayName != "" {
		title = fmt.Sprintf("Progress Report - %s", record.DisplayName)
	}
	pdf.Cell(40, 10, title)
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Level: %s", record.Level))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("XP: %d    Streak: %d days    Completed tasks: %d",
		record.XP, record.Streak, record.CompletedTasks))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Module progress")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 11)

	for _, module := range model.Modules() {
		pct := record.ModuleProgress[module]
		pdf.Cell(45, 7, module)
		// Progress bar: outline with a filled portion proportional to pct.
		x, y := pdf.GetX(), pdf.GetY()
		pdf.Rect(x, y+1, 100, 5, "D")
		if pct > 0 {
			pdf.SetFillColor(60, 120, 216)
			pdf.Rect(x, y+1, float64(pct), 5, "F")
		}
		pdf.SetX(x + 105)
		pdf.Cell(0, 7, fmt.Sprintf("%d%%", pct))
		pdf.Ln(8)
	}

	if cards != nil && len(cards.Cards) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 8, "Vocabulary")
		pdf.Ln(9)
		pdf.SetFont("Arial", "", 11)
		pdf.Cell(0, 7, fmt.Sprintf("%d cards: %d mastered, %d learning, %d new",
			len(cards.Cards),
			cards.CountByStatus(model.CardStatusMastered),
			cards.CountByStatus(model.CardStatusLearning),
			cards.CountByStatus(model.CardStatusNew)))
		pdf.Ln(8)
	}

	if len(record.Mistakes) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 8, "Recent mistakes to review")
		pdf.Ln(9)
		pdf.SetFont("Arial", "", 10)

		shown := record.Mistakes
		if len(shown) > 10 {
			shown = shown[len(shown)-10:]
		}
		for _, m := range shown {
			pdf.MultiCell(0, 6, fmt.Sprintf("[%s] %s -> %s (was: %s)",
				m.Module, m.Question, m.Correct, m.Submitted), "", "L", false)
			pdf.Ln(1)
		}
	}

	outputPath := filepath.Join(s.outputDir, fmt.Sprintf("progress_%d_%s.pdf",
		record.UserID, time.Now().Format("20060102")))
	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return "", fmt.Errorf("failed to save PDF: %w", err)
	}
	return outputPath, nil
}
