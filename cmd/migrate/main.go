package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"invoiceqc/internal/config"
	"invoiceqc/internal/logging"
	"invoiceqc/internal/repository/sqlstore"
)

const usage = "Usage: migrate [up|down|steps N|version]"

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.Setup(cfg.Log)

	if len(args) < 1 {
		fmt.Println(usage)
		os.Exit(1)
	}

	m, err := sqlstore.NewMigrator(&cfg.DB)
	if err != nil {
		return err
	}
	defer m.Close()

	switch cmd := args[0]; cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Info("migrations applied successfully", "driver", cfg.DB.Driver)

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Info("migrations reverted successfully", "driver", cfg.DB.Driver)

	case "steps":
		if len(args) < 2 {
			return errors.New("steps requires a number argument")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid steps argument: %w", err)
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration steps failed: %w", err)
		}
		logger.Info("applied migration steps", "steps", n)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)

	default:
		return fmt.Errorf("unknown command %q; %s", cmd, usage)
	}
	return nil
}
