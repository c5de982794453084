package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/favsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadOrCreateConfig loads the config file at path, creating it from the
// embedded template when absent.
func (r *Runner) loadOrCreateConfig(configPath string) *shared.Config {
	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	return config
}

// SetupDatabase initializes the sync history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadOrCreateConfig(cmd.String("config"))

	r.logger.Info("initializing database", "path", config.Storage.HistoryDB)

	db, err := shared.NewDatabase(config.Storage.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Storage.HistoryDB)
	return nil
}

// SetupCookie extracts the session cookie from a browser cURL command and
// persists it into the config file. Private collections need the cookie.
func (r *Runner) SetupCookie(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	configPath := cmd.String("config")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	r.logger.Info("parsing cURL command for session cookie")

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	if curlHeaders.Cookie == "" {
		return fmt.Errorf("%w: no cookie found in cURL command", shared.ErrInvalidInput)
	}

	config := r.loadOrCreateConfig(configPath)
	config.API.Cookie = curlHeaders.Cookie
	if ua, ok := curlHeaders.Headers["User-Agent"]; ok {
		config.API.UserAgent = ua
	} else if ua, ok := curlHeaders.Headers["user-agent"]; ok {
		config.API.UserAgent = ua
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.logger.Info("session cookie saved", "path", configPath)

	r.writePlain("✓ Session cookie configured successfully\n")
	r.writePlain("Config updated: %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Run 'favsync init <collection>' against a private collection to test it\n")

	return nil
}
