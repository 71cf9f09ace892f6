package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/glebarez/sqlite"
	config "github.com/letsquiz/quiz_api/configs"
	"github.com/letsquiz/quiz_api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ConnectDB(s config.Settings) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch s.DBDriver {
	case "postgres":
		dialector = postgres.Open(s.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(s.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}

	logLevel := logger.Warn
	if s.IsDevelopment() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:            false,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", s.DBDriver, err)
	}

	log.Printf("✅ Database connected successfully (%s)", s.DBDriver)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Attempt{},
		&models.Quiz{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Println("✅ Database migration successful")
	return nil
}

// SeedTeacher creates the bootstrap teacher account when one is configured and
// no user holds that email yet.
func SeedTeacher(ctx context.Context, db *gorm.DB, s config.Settings) error {
	if s.SeedTeacherEmail == "" || s.SeedTeacherPassword == "" {
		return nil
	}

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", s.SeedTeacherEmail).First(&existing).Error
	if err == nil {
		log.Println("Bootstrap teacher already exists.")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check bootstrap teacher: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(s.SeedTeacherPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap teacher password: %w", err)
	}

	username := s.SeedTeacherUsername
	if username == "" {
		username = "teacher"
	}

	teacher := models.User{
		ID:               models.NewID(),
		Username:         username,
		Email:            s.SeedTeacherEmail,
		Password:         string(hashedPassword),
		Role:             models.RoleTeacher,
		RegistrationDate: time.Now(),
	}
	if err := db.WithContext(ctx).Create(&teacher).Error; err != nil {
		return fmt.Errorf("seed bootstrap teacher: %w", err)
	}

	log.Println("✅ Bootstrap teacher seeded successfully")
	return nil
}
