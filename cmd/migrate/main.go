package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/pintuan-backend/pkg/config"
	"github.com/angelmondragon/pintuan-backend/pkg/db"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
	"github.com/angelmondragon/pintuan-backend/pkg/migrate"
)

// gooseCommands are forwarded to goose unchanged.
var gooseCommands = map[string]bool{
	"up":     true,
	"down":   true,
	"status": true,
	"redo":   true,
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|redo|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate work offline.
	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(1)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		files, err := migrate.ScanDir(*dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		latest := files[len(files)-1]
		fmt.Printf("migration validation passed: %d files, latest %d_%s\n", len(files), latest.Version, latest.Name)
		return
	}

	if !gooseCommands[*cmd] && *cmd != "version" {
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
	if *cmd == "version" {
		if _, err := migrate.ParseVersion(*version); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -version: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")

	if *cmd == "version" {
		err = migrate.MigrateToVersion(ctx, sqlDB, *dir, *version)
	} else {
		err = migrate.Run(ctx, sqlDB, *dir, *cmd)
	}
	if err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration complete")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
