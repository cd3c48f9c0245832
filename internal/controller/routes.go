package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"examly-backend/internal/repository"
	"examly-backend/internal/service"
)

func RegisterRoutes(
	r *gin.Engine,
	authService service.AuthService,
	userService service.UserService,
	progressService service.ProgressService,
	gradingService service.GradingService,
	speakingService service.SpeakingService,
	flashcardService service.FlashcardService,
	planService service.PlanService,
	syncService service.SyncService,
	reportService service.ReportService,
	cardRepo repository.FlashcardRepository,
) {
	// Auth routes.
	authCtrl := NewAuthController(authService)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authCtrl.Register)
		authRoutes.POST("/login", authCtrl.Login)
		authRoutes.POST("/refresh", authCtrl.Refresh)
	}

	// User routes.
	userCtrl := NewUserController(userService)
	r.GET("/user", userCtrl.GetAllUsers)
	r.GET("/user/me", userCtrl.GetCurrentUser)

	// Progress routes.
	progressCtrl := NewProgressController(progressService)
	progressRoutes := r.Group("/progress")
	{
		progressRoutes.GET("/", progressCtrl.GetProgress)
		progressRoutes.POST("/complete_task", progressCtrl.CompleteTask)
		progressRoutes.POST("/mistakes", progressCtrl.AddMistake)
		progressRoutes.DELETE("/mistakes/:id", progressCtrl.RemoveMistake)
		progressRoutes.POST("/reset", progressCtrl.Reset)
	}

	// Grading routes.
	gradingCtrl := NewGradingController(gradingService, speakingService)
	gradingRoutes := r.Group("/grading")
	{
		gradingRoutes.POST("/closed", gradingCtrl.GradeClosed)
		gradingRoutes.POST("/writing", gradingCtrl.GradeWriting)
		gradingRoutes.POST("/speaking", gradingCtrl.GradeSpeaking)
	}

	// Flashcard routes.
	cardCtrl := NewFlashcardController(flashcardService)
	cardRoutes := r.Group("/flashcards")
	{
		cardRoutes.GET("/", cardCtrl.GetSet)
		cardRoutes.POST("/", cardCtrl.AddCard)
		cardRoutes.PATCH("/:id/status", cardCtrl.SetCardStatus)
		cardRoutes.GET("/cursor", cardCtrl.GetCursor)
		cardRoutes.PUT("/cursor", cardCtrl.SetCursor)
	}

	// Daily plan routes.
	planCtrl := NewPlanController(planService)
	planRoutes := r.Group("/plan")
	{
		planRoutes.GET("/", planCtrl.GetPlan)
		planRoutes.PUT("/slot", planCtrl.SetSlot)
		planRoutes.GET("/preferences", planCtrl.GetPreferences)
		planRoutes.PUT("/preferences", planCtrl.UpdatePreferences)
		planRoutes.GET("/reminder", planCtrl.CheckReminder)
	}

	// Sync routes.
	syncCtrl := NewSyncController(syncService)
	r.POST("/sync/now", syncCtrl.SyncNow)

	// Report routes.
	reportCtrl := NewReportController(reportService, progressService, cardRepo)
	r.POST("/reports/progress", reportCtrl.GenerateReport)
	r.GET("/download/reports/:filename", reportCtrl.DownloadReport)

	// Static routes.
	r.StaticFS("/static", http.Dir("./working"))
}
