package routes

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SPARoutes serves the built frontend from publicDir. Unknown GET paths outside
// /api get index.html so client side routing works.
func SPARoutes(app *fiber.App, publicDir string) {
	index := filepath.Join(publicDir, "index.html")

	app.Static("/", publicDir, fiber.Static{Compress: true})

	app.Get("/*", func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api") {
			return fiber.ErrNotFound
		}
		if _, err := os.Stat(index); err != nil {
			return fiber.ErrNotFound
		}
		return c.SendFile(index)
	})
}
