// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/launchkit/launchkit-backend/internal/config"
	"github.com/launchkit/launchkit-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// gen_random_uuid() needs pgcrypto on PostgreSQL < 13
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"pgcrypto\"").Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Credential{},
		&models.Product{},
		&models.PricingPlan{},
		&models.Webhook{},
		&models.CodeGeneration{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)",
		"CREATE INDEX IF NOT EXISTS idx_users_tier ON users(subscription_tier)",

		// Project indexes
		"CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at DESC)",

		// Credential indexes
		"CREATE INDEX IF NOT EXISTS idx_credentials_user_provider ON credentials(user_id, provider)",
		"CREATE INDEX IF NOT EXISTS idx_credentials_active ON credentials(user_id, provider, active)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_project ON products(project_id)",
		"CREATE INDEX IF NOT EXISTS idx_products_user ON products(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_products_status ON products(status)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Pricing plan indexes
		"CREATE INDEX IF NOT EXISTS idx_pricing_plans_product ON pricing_plans(product_id, position)",

		// Webhook indexes
		"CREATE INDEX IF NOT EXISTS idx_webhooks_product ON webhooks(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_webhooks_provider ON webhooks(provider, status)",

		// Generation log indexes
		"CREATE INDEX IF NOT EXISTS idx_code_generations_user ON code_generations(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_code_generations_product ON code_generations(product_id)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// WithTransaction runs fn inside a transaction, rolling back on error.
func WithTransaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.Transaction(fn)
}
