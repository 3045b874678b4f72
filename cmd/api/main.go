package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/joho/godotenv"

	_ "github.com/studymatehq/studymate-be/cmd/api/docs"
	"github.com/studymatehq/studymate-be/internal/core/auth"
	"github.com/studymatehq/studymate-be/internal/core/email"
	"github.com/studymatehq/studymate-be/internal/core/llm"
	"github.com/studymatehq/studymate-be/internal/core/payment"
	"github.com/studymatehq/studymate-be/internal/core/ratelimit"
	"github.com/studymatehq/studymate-be/internal/core/reminder"
	"github.com/studymatehq/studymate-be/internal/modules/billing"
	"github.com/studymatehq/studymate-be/internal/modules/chai"
	"github.com/studymatehq/studymate-be/internal/modules/credits"
	"github.com/studymatehq/studymate-be/internal/modules/groups"
	"github.com/studymatehq/studymate-be/internal/modules/study"
	"github.com/studymatehq/studymate-be/internal/shared/config"
	"github.com/studymatehq/studymate-be/internal/shared/database"
	"github.com/studymatehq/studymate-be/internal/shared/utils"
)

// @title StudyMate API
// @version 1.0
// @description Backend API for StudyMate: AI study tools, groups and billing
// @contact.name API Support
// @contact.email support@studymatehq.com
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load()
	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env)

	db := database.NewDB(cfg.DatabaseURL)
	defer db.Close()

	// Core services
	authService := auth.NewService(db.GORM, cfg.JWTSecret)
	emailService := email.NewService(email.NewProviderFromConfig(cfg))
	llmService := llm.NewService()

	gateway, err := payment.NewGateway(cfg, db.GORM)
	if err != nil {
		log.Fatalf("❌ Failed to create payment gateway: %v", err)
	}

	// Domain services
	ledger := credits.NewLedger(db.GORM)
	studyService := study.NewService(study.NewRepository(db.GORM), ledger, llmService)
	groupService := groups.NewService(groups.NewRepository(db.GORM), ledger)
	billingService := billing.NewService(billing.NewRepository(db.GORM), gateway, ledger, authService.Repo(), emailService)
	chaiService := chai.NewService(db.GORM, billingService, cfg.ChaiUPIID, chaiPrice(cfg.ChaiPriceINR))
	billingService.SetChaiSettledHook(chaiService.MarkSettled)

	// Handlers
	authHandler := auth.NewHandler(authService, cfg.GoogleClientID, emailService)
	creditsHandler := credits.NewHandler(ledger)
	studyHandler := study.NewHandler(studyService)
	groupHandler := groups.NewHandler(groupService)
	billingHandler := billing.NewHandler(billingService)
	chaiHandler := chai.NewHandler(chaiService)

	// Background jobs
	limiter := ratelimit.NewLimiter(db.GORM, 60, time.Minute)
	scheduler := reminder.NewScheduler(authService.Repo(), emailService, limiter, cfg.ReminderCron)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	app := fiber.New(fiber.Config{
		AppName: "StudyMate API",
	})
	app.Use(recover.New())
	app.Use(cors.New())

	// Swagger
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public routes
	authGroup := app.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/google", authHandler.LoginWithGoogle)
	authGroup.Post("/refresh", authHandler.Refresh)

	app.Get("/billing/catalog", billingHandler.GetCatalog)
	app.Get("/chai/feed", chaiHandler.Feed)

	// Webhooks carry their own signature check, not a JWT.
	app.Post("/webhooks/razorpay", billingHandler.HandleWebhook)

	// Authenticated routes
	api := app.Group("/", auth.AuthMiddleware(authService), ratelimit.Middleware(limiter))

	api.Post("/auth/logout", authHandler.Logout)
	api.Get("/auth/me", authHandler.Me)

	api.Get("/credits/balance", creditsHandler.GetBalance)

	api.Post("/study/notes", studyHandler.GenerateNotes)
	api.Get("/study/notes", studyHandler.ListNotes)
	api.Get("/study/notes/:id", studyHandler.GetNote)
	api.Post("/study/quizzes", studyHandler.GenerateQuiz)
	api.Get("/study/quizzes", studyHandler.ListQuizzes)
	api.Get("/study/quizzes/:id", studyHandler.GetQuiz)
	api.Post("/study/sessions", studyHandler.LogSession)
	api.Post("/study/focus/predict", studyHandler.PredictFocus)

	api.Post("/groups", groupHandler.CreateGroup)
	api.Get("/groups", groupHandler.ListGroups)
	api.Get("/groups/mine", groupHandler.ListMyGroups)
	api.Get("/groups/:id", groupHandler.GetGroup)
	api.Post("/groups/:id/join", groupHandler.JoinGroup)
	api.Post("/groups/:id/leave", groupHandler.LeaveGroup)
	api.Post("/groups/:id/messages", groupHandler.PostMessage)
	api.Get("/groups/:id/messages", groupHandler.ListMessages)

	api.Post("/billing/subscribe", billingHandler.Subscribe)
	api.Post("/billing/credits", billingHandler.BuyCredits)
	api.Get("/billing/purchases", billingHandler.ListPurchases)
	api.Post("/billing/purchases/:reference/confirm", billingHandler.ConfirmPurchase)

	api.Post("/chai", chaiHandler.BuyChai)
	api.Post("/chai/:reference/confirm", chaiHandler.Confirm)

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down...")
		_ = app.Shutdown()
	}()

	log.Printf("🚀 StudyMate API running at :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server stopped: %v", err)
	}
}

func chaiPrice(raw string) float64 {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return 25
	}
	return price
}
