package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"payroll-recon/internal/config"
	"payroll-recon/internal/database"
	"payroll-recon/internal/handlers"
	"payroll-recon/internal/repositories"
	"payroll-recon/internal/services"
)

func main() {
	migrateCmd := flag.String("migrate", "", "Migration command (up/down/version)")
	steps := flag.Int("steps", 0, "Number of migration steps (0 means all)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if *migrateCmd != "" {
		handleMigration(cfg, *migrateCmd, *steps)
		return
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		logrus.Fatalf("Error connecting to database: %v", err)
	}
	defer db.Close()

	periodRepo := repositories.NewPeriodRepository(db)
	factRepo := repositories.NewFactRepository(db)
	employeeRepo := repositories.NewEmployeeRepository(db)
	mappingRepo := repositories.NewMappingRepository(db)
	runRepo := repositories.NewRunRepository(db)
	allocationRepo := repositories.NewAllocationRepository(db)
	accrualRepo := repositories.NewAccrualRepository(db)

	ingestionService := services.NewIngestionService(db, periodRepo, factRepo)
	reconciliationService := services.NewReconciliationService(
		db, cfg.Reconciliation, periodRepo, factRepo, employeeRepo, mappingRepo, runRepo)
	allocationService := services.NewAllocationService(
		db, periodRepo, factRepo, employeeRepo, mappingRepo, allocationRepo)
	accrualService := services.NewAccrualService(
		db, cfg.Accrual, periodRepo, factRepo, employeeRepo, mappingRepo, accrualRepo)
	referenceService := services.NewReferenceDataService(db, employeeRepo, mappingRepo)

	router := handlers.SetupRouter(
		ingestionService, reconciliationService, allocationService, accrualService, referenceService)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logrus.Infof("Server is running on %s", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}
	logrus.Info("Server exited gracefully")
}

func handleMigration(cfg *config.Config, command string, steps int) {
	db, err := database.NewConnection(cfg)
	if err != nil {
		logrus.Fatalf("Failed to ensure database exists: %v", err)
	}
	db.Close()

	m, err := migrate.New(
		fmt.Sprintf("file://%s", cfg.Migration.Dir),
		cfg.GetMigrationDBURL(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "no change") {
			logrus.Info("No migration changes to apply")
			return
		}
		logrus.Fatalf("Failed to initialize migrate: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verErr := m.Version()
		if verErr != nil {
			if verErr == migrate.ErrNilVersion {
				logrus.Info("No migrations have been applied yet")
				return
			}
			logrus.Fatalf("Failed to get version: %v", verErr)
		}
		fmt.Printf("Current migration version: %d (dirty: %v)\n", version, dirty)
		return
	default:
		logrus.Fatalf("Invalid migration command: %s", command)
	}

	if err != nil {
		if err == migrate.ErrNoChange {
			logrus.Info("No migration changes to apply")
			return
		}
		logrus.Fatalf("Migration failed: %v", err)
	}

	logrus.Info("Migration completed successfully")
}
