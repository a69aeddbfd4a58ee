package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"poetica/internal/config"
	"poetica/internal/logging"
	"poetica/internal/models"
)

// zapWriter adapts zap.Logger to logger.Writer interface
type zapWriter struct {
	logger *zap.Logger
}

func (w *zapWriter) Printf(format string, args ...interface{}) {
	w.logger.Sugar().Infof(format, args...)
}

// DB wraps GORM database connection
type DB struct {
	*gorm.DB
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return logger.Info
	case "INFO":
		return logger.Warn
	case "WARN", "WARNING":
		return logger.Error
	case "ERROR":
		return logger.Silent
	}
	return logger.Warn
}

// New creates a new database connection
func New(cfg *config.DatabaseConfig, logLevel string) (*DB, error) {
	writer := &zapWriter{logger: logging.WithComponent("gorm")}
	gormLogger := logger.New(
		writer,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.GetLogger().Info("Database connection established")

	return &DB{DB: db}, nil
}

// Migrate creates or updates the schema and makes sure the site settings row exists.
func (d *DB) Migrate(ctx context.Context) error {
	err := d.DB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Poem{},
		&models.Comment{},
		&models.StarRating{},
		&models.Like{},
		&models.Announcement{},
		&models.SiteSettings{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	settings := models.SiteSettings{ID: models.SiteSettingsID}
	if err := d.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
		return fmt.Errorf("failed to seed site settings: %w", err)
	}

	logging.GetLogger().Info("Database migration completed")
	return nil
}

// EnsureAdmin creates an ADMIN account for email unless a user with that email exists.
func (d *DB) EnsureAdmin(ctx context.Context, email, passwordHash string) error {
	var existing models.User
	err := d.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role != models.RoleAdmin {
			logging.GetLogger().Warn("Bootstrap admin email belongs to a non-admin user", zap.String("email", email))
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	admin := models.User{
		Name:     "Admin",
		Email:    email,
		Password: passwordHash,
		Role:     models.RoleAdmin,
	}
	if err := d.DB.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	logging.GetLogger().Info("Bootstrap admin created", zap.String("email", email))
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks database health
func (d *DB) Health(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
