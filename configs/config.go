package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadEnv sync.Once

func Config(key string) string {
	loadEnv.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("⚠️ .env file not found, reading from system environment variables")
		}
	})

	return os.Getenv(key)
}

type Settings struct {
	Env  string
	Port string

	DBDriver    string
	DatabaseURL string

	JWTSecret    string
	TokenMaxAge  time.Duration
	CookieDomain string
	CookieSecure bool

	AllowedOrigins []string
	PublicDir      string
	AvatarDir      string
	CloudinaryURL  string

	BrevoAPIKey     string
	EmailSender     string
	EmailSenderName string

	OrphanReportCron string

	SeedTeacherEmail    string
	SeedTeacherUsername string
	SeedTeacherPassword string
}

const defaultTokenMaxAge = 72 * time.Hour

// Load reads the process settings once. The returned value is treated as
// immutable and handed to each component explicitly.
func Load() (Settings, error) {
	s := Settings{
		Env:                 envOr("APP_ENV", "production"),
		Port:                envOr("PORT", "8080"),
		DBDriver:            envOr("DB_DRIVER", "sqlite"),
		DatabaseURL:         Config("DATABASE_URL"),
		JWTSecret:           Config("JWT_SECRET"),
		TokenMaxAge:         defaultTokenMaxAge,
		CookieDomain:        Config("COOKIE_DOMAIN"),
		CookieSecure:        envBool("COOKIE_SECURE", true),
		AllowedOrigins:      csvOr("ALLOWED_ORIGINS", "http://localhost:8080,https://letsquiz-six.vercel.app"),
		PublicDir:           envOr("PUBLIC_DIR", "./public"),
		AvatarDir:           envOr("AVATAR_DIR", "uploads/avatars"),
		CloudinaryURL:       Config("CLOUDINARY_URL"),
		BrevoAPIKey:         Config("BREVO_API_KEY"),
		EmailSender:         Config("EMAIL_SENDER"),
		EmailSenderName:     Config("EMAIL_SENDER_NAME"),
		OrphanReportCron:    envOr("ORPHAN_REPORT_CRON", "@hourly"),
		SeedTeacherEmail:    Config("SEED_TEACHER_EMAIL"),
		SeedTeacherUsername: Config("SEED_TEACHER_USERNAME"),
		SeedTeacherPassword: Config("SEED_TEACHER_PASSWORD"),
	}

	if raw := Config("TOKEN_MAX_AGE"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Settings{}, errors.New("TOKEN_MAX_AGE must be a positive duration")
		}
		s.TokenMaxAge = d
	}

	if s.DatabaseURL == "" && s.DBDriver == "sqlite" {
		s.DatabaseURL = "quiz.db"
	}

	if s.JWTSecret == "" {
		if !s.IsDevelopment() {
			return Settings{}, errors.New("JWT_SECRET is required")
		}
		log.Println("⚠️ JWT_SECRET not set, using an insecure development secret")
		s.JWTSecret = "development-secret"
	}

	return s, nil
}

func (s Settings) IsDevelopment() bool { return s.Env == "development" }

func envOr(k, def string) string {
	if v := Config(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	switch strings.ToLower(Config(k)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	parts := strings.Split(envOr(k, def), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
