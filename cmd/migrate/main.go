package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory; the embedded schema is used for the default")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": *cmd, "dir": *dir})

	switch *cmd {
	case "create":
		if *name == "" {
			fail(ctx, logg, "missing -name for create", nil)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fail(ctx, logg, "create migration", err)
		}
		logg.Info(logg.WithField(ctx, "path", path), "migration created")
		return
	case "validate":
		fsys, err := migrate.Source(*dir)
		if err != nil {
			fail(ctx, logg, "open migrations", err)
		}
		if err := migrate.Validate(fsys); err != nil {
			fail(ctx, logg, "migration validation failed", err)
		}
		logg.Info(ctx, "migrations valid")
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fail(ctx, logg, "load config", err)
	}
	if cfg.DB.IsSQLite() {
		fail(ctx, logg, "goose migrations target postgres; sqlite is synced with STOCKLEDGER_AUTO_MIGRATE", nil)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fail(ctx, logg, "connect database", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		fail(ctx, logg, "extract sql.DB", err)
	}
	fsys, err := migrate.Source(*dir)
	if err != nil {
		fail(ctx, logg, "open migrations", err)
	}
	migrator, err := migrate.NewMigrator(sqlDB, fsys)
	if err != nil {
		fail(ctx, logg, "build migrator", err)
	}

	switch *cmd {
	case "up":
		results, err := migrator.Up(ctx)
		logResults(ctx, logg, results)
		if err != nil {
			fail(ctx, logg, "migrate up", err)
		}
	case "down":
		result, err := migrator.Down(ctx)
		if result != nil {
			logResults(ctx, logg, []*goose.MigrationResult{result})
		}
		if err != nil {
			fail(ctx, logg, "migrate down", err)
		}
	case "status":
		status, err := migrator.Status(ctx)
		if err != nil {
			fail(ctx, logg, "migrate status", err)
		}
		for _, s := range status {
			logg.Info(logg.WithFields(ctx, map[string]any{
				"version":    s.Source.Version,
				"state":      string(s.State),
				"applied_at": s.AppliedAt,
			}), s.Source.Path)
		}
	case "version":
		target, err := strconv.ParseInt(*version, 10, 64)
		if err != nil {
			fail(ctx, logg, fmt.Sprintf("invalid -version %q (expected YYYYMMDDHHMMSS)", *version), err)
		}
		results, err := migrator.To(ctx, target)
		logResults(ctx, logg, results)
		if err != nil {
			fail(ctx, logg, "migrate to version", err)
		}
	default:
		fail(ctx, logg, "unknown -cmd value "+*cmd, nil)
	}
}

func logResults(ctx context.Context, logg *logger.Logger, results []*goose.MigrationResult) {
	for _, r := range results {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     r.Source.Version,
			"direction":   r.Direction,
			"duration_ms": r.Duration.Milliseconds(),
		}), r.Source.Path)
	}
}

func fail(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if err == nil {
		err = fmt.Errorf("%s", msg)
	}
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
