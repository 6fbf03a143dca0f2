package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/spotex/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration file. When credentials are passed as flags they
// are filled into the default config before it is written.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}

	clientID, clientSecret := cmd.String("client-id"), cmd.String("client-secret")
	if clientID == "" && clientSecret == "" {
		if err := shared.CreateConfigFile(path); err != nil {
			return err
		}
		r.logger.Info("config file created", "path", path)
		r.writePlain("✓ Configuration written to %s\n", path)
		return r.writePlain("Set client_id and client_secret (or %s and %s), then run: spotex export\n",
			shared.EnvClientID, shared.EnvClientSecret)
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = clientID
	config.Credentials.Spotify.ClientSecret = clientSecret
	if err := shared.SaveConfig(path, config); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path, "credentials", true)
	r.writePlain("✓ Configuration written to %s\n", path)
	if err := config.Validate(); err != nil {
		return r.writePlain("Config is incomplete (%v); edit it before running: spotex export\n", err)
	}
	return r.writePlainln("Run: spotex export")
}

// SetupDatabase initializes the history database and runs migrations. With --rollback it reverts
// the most recent migration instead.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if cmd.Bool("rollback") {
		return r.rollbackDatabase(config)
	}

	r.logger.Info("initializing database", "path", config.DatabasePath())

	db, err := r.openHistory(config)
	if err != nil {
		return err
	}
	defer db.Close()

	version, _, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", config.DatabasePath())
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", config.DatabasePath(), version)
}

func (r *Runner) rollbackDatabase(config *shared.Config) error {
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := shared.RollbackMigration(db)
	if err != nil {
		return fmt.Errorf("failed to roll back %s: %w", config.DatabasePath(), err)
	}

	r.logger.Info("migration rolled back", "path", config.DatabasePath(), "version", version)
	return r.writePlain("✓ Rolled back migration %d on %s\n", version, config.DatabasePath())
}

func ensureParentDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return nil
}
