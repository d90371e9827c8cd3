package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/anime-awards/backend/internal/config"
	"github.com/emilythestrangee/anime-awards/backend/internal/logging"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Migrate creates or updates the schema.
	Migrate(ctx context.Context) error

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
	GetDB() *gorm.DB
}

type service struct {
	db     *gorm.DB
	name   string
	logger *zap.Logger
}

// New connects using the configured driver ("pgx" or "postgres").
func New(cfg config.Config, log *zap.Logger) (Service, error) {
	return Open(cfg.DBDriver, cfg.DSN(), cfg.DBName, log)
}

func Open(driver, dsn, name string, log *zap.Logger) (Service, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Configure GORM logger
	gormLogger := logger.New(
		logging.NewPrintfAdapter(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{DriverName: driver, DSN: dsn}), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("database connected", zap.String("driver", driver), zap.String("database", name))
	return &service{db: db, name: name, logger: log}, nil
}

func (s *service) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Nominee{},
		&models.Vote{},
		&models.Result{},
		&models.Setting{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	s.logger.Info("database migrations completed")
	return nil
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Health checks the health of the database connection by pinging the database.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := make(map[string]string)

	// Get underlying SQL DB
	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	s.logger.Info("disconnected from database", zap.String("database", s.name))
	return sqlDB.Close()
}
