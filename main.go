package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/insurelens/call-analyzer/backend/repository"
	"github.com/insurelens/call-analyzer/backend/services"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Setup structured logging with JSON format
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	config := services.LoadConfig()

	server := services.NewServer(config)

	// Initialize database connection
	if config.Database.URL != "" {
		// Verify connectivity before handing the URL to GORM
		pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := pgxpool.New(pingCtx, config.Database.URL)
		if err == nil {
			err = pool.Ping(pingCtx)
			pool.Close()
		}
		cancel()
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}

		gormDB, err := gorm.Open(postgres.Open(config.Database.URL), &gorm.Config{})
		if err != nil {
			slog.Error("Failed to open database", "error", err)
			os.Exit(1)
		}
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.SetMaxIdleConns(config.Database.MaxIdleConns)
			sqlDB.SetMaxOpenConns(config.Database.MaxOpenConns)
		}
		slog.Info("Connected to database")

		repo := repository.NewGORMRepository(gormDB)
		if err := repo.AutoMigrate(); err != nil {
			slog.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
		server.SetDatabase(repo, gormDB)

		if config.Database.Seed {
			seeder := services.NewDatabaseSeeder(repo)
			if err := seeder.SeedDatabase(); err != nil {
				slog.Error("Failed to seed database", "error", err)
			}
		}
	} else {
		slog.Error("Database URL not configured")
		os.Exit(1)
	}

	if err := server.InitializeServices(); err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	server.Start()
}
