package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"examly-backend/internal/config"
	"examly-backend/internal/controller"
	"examly-backend/internal/db"
	"examly-backend/internal/llm"
	"examly-backend/internal/model"
	"examly-backend/internal/remote"
	"examly-backend/internal/repository"
	"examly-backend/internal/service"
	"examly-backend/pkg/middleware"
	"examly-backend/utilities"
)

func main() {
	printStartUpBanner()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	// Load XML configuration from file.
	cfg, err := config.LoadConfig("config.xml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	utilities.SetupLogging("logs")

	// Initialize DB using the loaded config.
	db.InitDBFromConfig(cfg)
	// Run migrations.
	if err := db.GetDB().AutoMigrate(
		&model.User{},
		&model.ProgressRecord{},
		&model.TaskResult{},
		&model.ActivityEntry{},
		&model.Mistake{},
		&model.FlashcardSet{},
		&model.Flashcard{},
		&model.DailyPlan{},
		&model.Preferences{},
		&model.VocabCursor{},
	); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Create repositories.
	userRepo := repository.NewUserRepository()
	progressRepo := repository.NewProgressRepository()
	cardRepo := repository.NewFlashcardRepository()
	planRepo := repository.NewPlanRepository()

	// Grading oracle. Startup continues without one: closed-task grading is
	// local arithmetic and open-ended grading degrades to heuristics.
	var oracle llm.GradingOracle
	if err := llm.VerifyOracle(cfg); err != nil {
		utilities.Warn("grading oracle unavailable, heuristic fallback active: %v", err)
	}
	timeout := time.Duration(cfg.THIRD_PARTY.TimeoutSeconds) * time.Second
	switch cfg.THIRD_PARTY.OracleProvider {
	case "openai":
		oracle = llm.NewOpenAIClient(cfg.THIRD_PARTY.OpenAIKey, cfg.THIRD_PARTY.OpenAIModel,
			timeout, cfg.THIRD_PARTY.MaxRetries, cfg.THIRD_PARTY.RequestsPerMin)
	case "ollama":
		oracle = llm.NewOllamaClient(cfg.THIRD_PARTY.OllamaURL, cfg.THIRD_PARTY.OllamaModel,
			timeout, cfg.THIRD_PARTY.MaxRetries, cfg.THIRD_PARTY.RequestsPerMin)
	default:
		utilities.Warn("no grading oracle configured, heuristic fallback active")
	}

	bus := utilities.GlobalEventBus

	// Create services.
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	achievementService := service.NewAchievementService(progressRepo, bus)
	progressService := service.NewProgressService(progressRepo, cardRepo, achievementService, bus)
	gradingService := service.NewGradingService(oracle)
	speakingService := service.NewSpeakingService(oracle)
	flashcardService := service.NewFlashcardService(cardRepo, planRepo, bus)
	planService := service.NewPlanService(planRepo)
	reportService := service.NewReportService("")

	// Cross-device sync is optional; without Redis the app runs standalone.
	var syncService service.SyncService
	if cfg.Sync.Enabled {
		store := remote.NewRedisStore(cfg.Sync.RedisAddr, cfg.Sync.RedisPassword, cfg.Sync.RedisDB)
		if err := store.Ping(context.Background()); err != nil {
			utilities.Warn("redis unreachable, sync disabled: %v", err)
		} else {
			window := time.Duration(cfg.Sync.DebounceMillis) * time.Millisecond
			syncService = service.NewSyncService(progressRepo, cardRepo, store, bus, service.NewRealClock(), window)
			syncService.Start()
			utilities.Info("cross-device sync enabled (debounce %v)", window)
		}
	}

	// Initialize Gin router.
	r := gin.Default()

	// CORS configuration.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RequestDump {
		r.Use(middleware.RequestDumpMiddleware())
	}
	if cfg.Authentication.EnableTokenAuth {
		r.Use(utilities.AuthMiddleware())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	controller.RegisterRoutes(r,
		authService, userService, progressService,
		gradingService, speakingService, flashcardService,
		planService, syncService, reportService, cardRepo)

	// Start server on the host and port specified in the XML config.
	addr := fmt.Sprintf("%s:%d", cfg.Context.Host, cfg.Context.Port)
	utilities.Info("listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func printStartUpBanner() {
	myFigure := figure.NewFigure("EXAMLY", "", true)
	myFigure.Print()

	fmt.Println("======================================================")
	fmt.Printf("EXAMLY API (v%s)\n\n", "1.0.0")
}
