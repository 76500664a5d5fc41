// Package app wires the workspace pieces together for the CLI: the
// SQLite database, migrations and the plant config file.
package app

import (
	"database/sql"
	"fmt"
	"os"

	"plantline/internal/config"
	"plantline/internal/db"
	"plantline/internal/engine"
	"plantline/internal/migrate"
)

type App struct {
	DB        *sql.DB
	Engine    engine.Engine
	Config    *config.Config
	Workspace string
}

// Open prepares the workspace: database opened, migrations applied,
// config loaded. A missing plantline.yml falls back to defaults so
// read-only commands work before `pl plant init`.
func Open(workspace string) (*App, error) {
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default("default-plant")
	}
	return &App{
		DB:        conn,
		Engine:    engine.New(conn, cfg),
		Config:    cfg,
		Workspace: workspace,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// InitPlant writes a fresh plantline.yml. It refuses to overwrite an
// existing one.
func InitPlant(workspace, plantID string) (string, error) {
	path := config.Path(workspace)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config %s already exists", path)
	}
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(config.GenerateDefault(plantID)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
