package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-diary/internal/config"
	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/export"
	"github.com/kozaktomas/photo-diary/internal/render"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render diary pages to PNG files",
	Long: `Render the diary of one owner into page images.

Modes:
  day        one page per date with content
  week       Monday-to-Sunday spreads, split across pages when long
  month      one calendar grid per month with content
  favorites  liked entries in a card grid (the date range is ignored)

Pages are written as page-0001.png, page-0002.png, ... next to a
manifest.json describing labels, placeholders and warnings.

Examples:
  photo-diary export --mode week --from 2026-03-01 --to 2026-03-31
  photo-diary export --mode favorites --owner alice --out ./favorites`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("mode", "day", "Export mode: day, week, month or favorites")
	exportCmd.Flags().String("from", "", "First date (YYYY-MM-DD)")
	exportCmd.Flags().String("to", "", "Last date (YYYY-MM-DD)")
	exportCmd.Flags().String("owner", "", "Diary owner (defaults to DIARY_OWNER)")
	exportCmd.Flags().String("out", "export", "Output directory")
}

// manifestPage describes one written page file.
type manifestPage struct {
	File        string `json:"file"`
	Label       string `json:"label"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// manifest is written next to the pages for the document assembler.
type manifest struct {
	Mode        string         `json:"mode"`
	From        string         `json:"from,omitempty"`
	To          string         `json:"to,omitempty"`
	Owner       string         `json:"owner"`
	GeneratedAt time.Time      `json:"generated_at"`
	Pages       []manifestPage `json:"pages"`
	Report      export.Report  `json:"report"`
}

func pageFileName(p render.PageImage) string {
	return fmt.Sprintf("page-%04d.png", p.PageNumber)
}

// writeExport writes the page files and manifest.json into dir.
func writeExport(dir string, req export.Request, result *export.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	// Pages of an earlier, longer export would otherwise survive.
	stale, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return fmt.Errorf("failed to list old pages: %w", err)
	}
	for _, f := range stale {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(f), err)
		}
	}

	m := manifest{
		Mode:        req.Mode,
		From:        req.From,
		To:          req.To,
		Owner:       req.Owner,
		GeneratedAt: time.Now().UTC(),
		Pages:       make([]manifestPage, 0, len(result.Pages)),
		Report:      result.Report,
	}
	if req.Mode == constants.ModeFavorites {
		m.From, m.To = "", ""
	}

	for _, p := range result.Pages {
		name := pageFileName(p)
		if err := os.WriteFile(filepath.Join(dir, name), p.PNG, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		m.Pages = append(m.Pages, manifestPage{
			File:        name,
			Label:       p.Label,
			Width:       p.Width,
			Height:      p.Height,
			Placeholder: p.Placeholder,
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := newLogger(cfg)

	req := export.Request{
		Mode:  mustGetString(cmd, "mode"),
		From:  mustGetString(cmd, "from"),
		To:    mustGetString(cmd, "to"),
		Owner: mustGetString(cmd, "owner"),
	}
	if req.Owner == "" {
		req.Owner = cfg.Export.DefaultOwner
	}
	if req.Owner == "" {
		return errors.New("--owner or DIARY_OWNER is required")
	}
	if err := export.Validate(req); err != nil {
		return err
	}
	outDir := mustGetString(cmd, "out")

	closeStore, err := initEntryStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := newExportStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	var bar *progressbar.ProgressBar
	req.OnProgress = func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Rendering "+req.Mode+" pages"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionFullWidth(),
			)
		}
		bar.Set(done)
	}

	result, err := stack.exporter.Build(ctx, req)
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if len(result.Pages) == 0 {
		fmt.Println("Nothing to export: no entries with content in range")
		return nil
	}

	if err := writeExport(outDir, req, result); err != nil {
		return err
	}

	report := result.Report
	fmt.Printf("Wrote %d pages to %s\n", report.Pages, outDir)
	if report.Placeholders > 0 {
		fmt.Printf("Placeholders: %d\n", report.Placeholders)
	}
	if report.MissingAssets > 0 {
		fmt.Printf("Missing assets: %d\n", report.MissingAssets)
	}
	for _, w := range report.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, v := range report.Validation {
		fmt.Printf("  layout: page %d slot %d: %s\n", v.PageNumber, v.SlotIndex, v.Message)
	}
	return nil
}
