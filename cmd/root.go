package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/gg"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-diary/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "photo-diary",
	Short: "Render photo diary entries into printable pages",
	Long: `Photo Diary renders diary entries (a note, a photo and stickers per day)
into fixed-size page images for day, week, month and favorites exports.
Pages are written as PNG files or served over an HTTP API.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// newLogger returns the leveled logger handed to the export services.
// EXPORT_DEBUG also routes the canvas library's own logging to it.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Export.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if cfg.Export.Debug {
		gg.SetLogger(logger)
	}
	return logger
}
