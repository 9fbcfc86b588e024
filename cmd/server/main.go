package main

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/pendampingan/assistance-backend/internal/assistance"
	"github.com/pendampingan/assistance-backend/internal/auth"
	"github.com/pendampingan/assistance-backend/internal/storage"
	"github.com/pendampingan/assistance-backend/pkg/config"
	"github.com/pendampingan/assistance-backend/pkg/database"
	"github.com/pendampingan/assistance-backend/pkg/models"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.AssistanceRequest{}, &models.Message{},
		&models.AssistanceFile{}, &models.StatusHistoryEntry{},
	); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: auth.ErrorHandler,
	})

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	api := app.Group("/api")

	// Auth
	authH := auth.NewHandler(db)
	api.Post("/signup", authH.Signup)
	api.Post("/login", authH.Login)
	api.Get("/me", auth.RequireAuth(), authH.Me)

	// Storage helper for chat attachments. Left nil when not configured;
	// attachment uploads then return 503.
	var sb *storage.Supabase
	if cfg.SupabaseURL != "" {
		sb = storage.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
	}

	// Assistance engagement workflow
	svc := assistance.NewService(db, cfg.FeeSchedule(), logger)
	h := assistance.NewHandler(svc, sb)

	// Client
	api.Post("/assistance", auth.RequireAuth(), auth.RequireRole("client"), h.Create)
	api.Get("/assistance/mine", auth.RequireAuth(), auth.RequireRole("client"), h.ListMine)
	api.Put("/assistance/:id/identity", auth.RequireAuth(), auth.RequireRole("client"), h.SubmitIdentity)
	api.Post("/assistance/:id/payment/confirm", auth.RequireAuth(), auth.RequireRole("client"), h.ConfirmPayment)

	// Lawyer
	api.Get("/assistance/assigned", auth.RequireAuth(), auth.RequireRole("lawyer"), h.ListAssigned)
	api.Post("/assistance/:id/stage", auth.RequireAuth(), auth.RequireRole("lawyer"), h.AdvanceStage)
	api.Post("/assistance/:id/reject", auth.RequireAuth(), auth.RequireRole("lawyer"), h.Reject)

	// Either participant
	api.Get("/assistance/:id", auth.RequireAuth(), h.GetDetail)
	api.Post("/assistance/:id/messages", auth.RequireAuth(), h.SendMessage)
	api.Post("/assistance/:id/attachments", auth.RequireAuth(), h.UploadAttachment)
	api.Get("/assistance/:id/files/:fileID/signed-url", auth.RequireAuth(), h.SignedDownloadURL)
	api.Post("/assistance/:id/accept", auth.RequireAuth(), h.AcceptOffer)
	api.Get("/assistance/:id/payment", auth.RequireAuth(), h.PaymentSummary)
	api.Post("/assistance/:id/cancel", auth.RequireAuth(), h.Cancel)
	api.Get("/assistance/:id/history", auth.RequireAuth(), h.GetHistory)

	logger.Info().Str("port", cfg.Port).Msg("server running")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
