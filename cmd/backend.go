package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/kozaktomas/photo-diary/internal/blobstore"
	"github.com/kozaktomas/photo-diary/internal/config"
	"github.com/kozaktomas/photo-diary/internal/database"
	"github.com/kozaktomas/photo-diary/internal/database/mariadb"
	"github.com/kozaktomas/photo-diary/internal/database/postgres"
	"github.com/kozaktomas/photo-diary/internal/database/sqlite"
	"github.com/kozaktomas/photo-diary/internal/entries"
	"github.com/kozaktomas/photo-diary/internal/export"
	"github.com/kozaktomas/photo-diary/internal/fonts"
	"github.com/kozaktomas/photo-diary/internal/materialize"
	"github.com/kozaktomas/photo-diary/internal/render"
)

// initEntryStore connects the configured backend and registers it.
// The returned func closes the connection.
func initEntryStore(cfg *config.Config) (func(), error) {
	switch cfg.Database.Backend() {
	case "postgres":
		fmt.Println("Connecting to PostgreSQL database...")
		if err := postgres.Initialize(&cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		return func() { postgres.GetGlobalPool().Close() }, nil
	case "mariadb":
		fmt.Println("Connecting to MariaDB database...")
		pool, err := mariadb.Initialize(cfg.Database.MariaDBDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		return func() { pool.Close() }, nil
	case "sqlite":
		fmt.Printf("Opening SQLite database %s...\n", cfg.Database.SQLitePath)
		store, err := sqlite.Initialize(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		return func() { store.Close() }, nil
	}
	return nil, errors.New("DATABASE_URL, MARIADB_DSN or SQLITE_PATH environment variable is required")
}

// exportStack is the wired export pipeline shared by the export, calendar
// and serve commands.
type exportStack struct {
	fonts    *fonts.Service
	provider *entries.Provider
	renderer *render.Renderer
	exporter *export.Exporter
}

func newExportStack(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*exportStack, error) {
	reader, err := database.GetEntryReader(ctx)
	if err != nil {
		return nil, err
	}

	var blobs materialize.BlobFetcher
	if cfg.BlobStore.URL != "" {
		client, err := blobstore.NewClient(cfg.BlobStore)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob store client: %w", err)
		}
		blobs = client
	} else {
		logger.Warn("BLOBSTORE_URL not set, entry photos will render as placeholders")
	}

	var assets fs.FS
	if cfg.Export.AssetsDir != "" {
		assets = os.DirFS(cfg.Export.AssetsDir)
	}

	images := materialize.New(blobs, assets, cfg.Export, logger)
	provider := entries.NewProvider(reader, images, logger)
	fontService := fonts.NewService(cfg.Export.FontDir)
	renderer := render.NewRenderer(render.DefaultLayoutConfig(), cfg.Theme, fontService)

	return &exportStack{
		fonts:    fontService,
		provider: provider,
		renderer: renderer,
		exporter: export.New(provider, fontService, renderer, logger),
	}, nil
}

func (s *exportStack) Close() {
	if err := s.fonts.Close(); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}
}
