package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/letsquiz/quiz_api/configs"
	"github.com/letsquiz/quiz_api/database"
	"github.com/letsquiz/quiz_api/handlers"
	"github.com/letsquiz/quiz_api/jobs"
	"github.com/letsquiz/quiz_api/notifications"
	"github.com/letsquiz/quiz_api/routes"
	"github.com/letsquiz/quiz_api/services"
	"github.com/letsquiz/quiz_api/uploads"
	"github.com/letsquiz/quiz_api/websocket"
	"github.com/robfig/cron/v3"
)

const shutdownTimeout = 10 * time.Second

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("🔥 Invalid configuration: %v", err)
	}

	db, err := database.ConnectDB(settings)
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.SeedTeacher(ctx, db, settings); err != nil {
		log.Fatalf("🔥 Failed to seed teacher: %v", err)
	}

	store := database.NewStore(db)
	credentials := services.NewCredentialService(store, 0)
	quizzes := services.NewQuizService(store)
	stats := services.NewStatsService(store, store)

	avatars, err := avatarStore(settings)
	if err != nil {
		log.Fatalf("🔥 Failed to set up avatar storage: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	h := &handlers.Handler{
		Credentials: credentials,
		Sessions: services.NewSessionService(store, settings.JWTSecret, settings.TokenMaxAge, services.CookieOptions{
			Domain: settings.CookieDomain,
			Secure: settings.CookieSecure,
		}),
		Profiles: services.NewProfileService(store, store, credentials),
		Quizzes:  quizzes,
		Attempts: services.NewAttemptService(store, quizzes),
		Stats:    stats,
		Avatars:  avatars,
		Hub:      hub,
	}
	if mailer := notifications.NewBrevoService(settings.BrevoAPIKey, settings.EmailSender, settings.EmailSenderName); mailer != nil {
		h.Mailer = mailer
	}

	c := cron.New()
	if err := jobs.ScheduleOrphanReport(c, settings.OrphanReportCron, stats); err != nil {
		log.Fatalf("🔥 %v", err)
	}
	c.Start()

	app := routes.NewApp(h, routes.AppOptions{
		AllowedOrigins: settings.AllowedOrigins,
		PublicDir:      settings.PublicDir,
		RequestLogging: true,
	})

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("✅ Server is running on port %s", settings.Port)
	if err := app.Listen(":" + settings.Port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}

	<-c.Stop().Done()
	stop()
	<-hub.Done()
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("✅ Server stopped")
}

func avatarStore(s config.Settings) (uploads.AvatarStore, error) {
	if s.CloudinaryURL != "" {
		log.Println("✅ Avatars will be stored on Cloudinary")
		return uploads.NewCloudinaryStore(s.CloudinaryURL)
	}
	return uploads.NewLocalStore(s.PublicDir, s.AvatarDir)
}
