package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/carebridge/portal-api/internal/config"
	"github.com/carebridge/portal-api/internal/database"
	"github.com/carebridge/portal-api/internal/logging"
	"github.com/carebridge/portal-api/internal/seed"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	path := flag.String("file", "cmd/seed/fixtures.example.yaml", "YAML fixture to load")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(cfg.AppEnv)

	fixture, err := seed.LoadFile(*path)
	if err != nil {
		slog.Error("failed to load fixture", "path", *path, "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	res, err := seed.Apply(context.Background(), db, fixture, bcrypt.DefaultCost)
	if err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	slog.Info("seed completed",
		"users_created", res.UsersCreated,
		"users_skipped", res.UsersSkipped,
		"records_created", res.RecordsCreated,
	)
}
