package routes

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/letsquiz/quiz_api/handlers"
)

type AppOptions struct {
	AllowedOrigins []string
	PublicDir      string
	RequestLogging bool
}

// NewApp builds the fiber app with every route mounted under /api.
func NewApp(h *handlers.Handler, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:       false,
		AppName:       "LetsQuiz API",
		CaseSensitive: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		BodyLimit:     8 * 1024 * 1024,
		ErrorHandler:  handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(opts.AllowedOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	if opts.RequestLogging {
		app.Use(logger.New(logger.Config{
			TimeFormat: "2006-01-02 15:04:05",
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}

	app.Get("/health", h.Health)

	api := app.Group("/api")
	UserRoutes(api, h)
	QuizRoutes(api, h)
	LeaderboardRoutes(api, h)

	if opts.PublicDir != "" {
		SPARoutes(app, opts.PublicDir)
	}
	return app
}
