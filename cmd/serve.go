package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-diary/internal/config"
	"github.com/kozaktomas/photo-diary/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the export API server",
	Long: `Start the Photo Diary HTTP API.
Exports run as background jobs whose pages can be downloaded as PNG files,
or synchronously as PNG data URIs for short ranges.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := newLogger(cfg)

	closeStore, err := initEntryStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stack, err := newExportStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	// Load fonts up front so a broken font directory shows at startup;
	// exports retry on their own.
	if err := stack.fonts.Ready(ctx); err != nil {
		fmt.Printf("Warning: fonts not ready: %v\n", err)
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, web.Deps{
		Builder:  stack.exporter,
		Calendar: stack.provider,
		Layout:   stack.renderer.Layout(),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Photo Diary API on http://%s:%d (%s backend)\n", host, port, cfg.Database.Backend())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
