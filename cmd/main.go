package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/favsync/internal/repositories"
	"github.com/desertthunder/favsync/internal/shared"
	"github.com/desertthunder/favsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	// Sync history is optional; the database only exists after 'setup database'.
	var history tasks.HistoryRecorder
	if _, err := os.Stat(config.Storage.HistoryDB); err == nil {
		if db, err := shared.NewDatabase(config.Storage.HistoryDB); err == nil {
			history = repositories.NewHistoryRepository(db)
			defer db.Close()
		} else {
			logger.Warn("failed to open history database", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		History: history,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "favsync",
		Usage:    "Mirror remote favorites collections as local repositories",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
