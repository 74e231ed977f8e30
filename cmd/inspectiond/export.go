package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimow28-boop/ins-radiolab/config"
	"github.com/crimow28-boop/ins-radiolab/internal/db"
	"github.com/crimow28-boop/ins-radiolab/internal/export"
	"github.com/crimow28-boop/ins-radiolab/internal/inspection"
	"github.com/crimow28-boop/ins-radiolab/internal/store"
)

func exportCmd(load func() *config.Config) *cobra.Command {
	var (
		cardID int64
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a card or global export file",
		Long: `Writes the export table of one card (--card) or of every completed
inspection (no --card) as CSV or PDF into the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			path, err := runExport(cmd.Context(), load(), cardID, f, outDir)
			if err != nil {
				return err
			}
			logger.Printf("export written to %s", path)
			return nil
		},
	}

	cmd.Flags().Int64Var(&cardID, "card", 0, "Card id; exports every completed inspection when omitted")
	cmd.Flags().StringVar(&format, "format", string(export.FormatCSV), "Output format (csv, pdf)")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	return cmd
}

func runExport(ctx context.Context, cfg *config.Config, cardID int64, f export.Format, outDir string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	gormDB, err := db.Open(&cfg.Database)
	if err != nil {
		return "", err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		defer sqlDB.Close()
	}

	svc := inspection.NewService(store.NewGormStore(gormDB), cfg.Inspection.TimestampThreshold, nil, nil)

	var r *inspection.Report
	if cardID > 0 {
		r, err = svc.CardReport(ctx, cardID)
	} else {
		r, err = svc.GlobalReport(ctx, cfg.Export.MaxRows)
	}
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	name, err := svc.Render(&buf, r, f, export.PDFOptions{
		FontPath:    cfg.Export.PDFFontPath,
		GeneratedAt: inspection.In(time.Now(), cfg.Export.Timezone),
	})
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
