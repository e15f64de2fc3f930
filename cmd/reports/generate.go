package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/slotx-reports/internal/config"
	"github.com/andresuchdata/slotx-reports/internal/domain"
	"github.com/andresuchdata/slotx-reports/internal/drive"
	"github.com/andresuchdata/slotx-reports/internal/pipeline"
	"github.com/andresuchdata/slotx-reports/internal/service"
	"github.com/andresuchdata/slotx-reports/internal/source"
	"github.com/andresuchdata/slotx-reports/internal/storage"
	"github.com/andresuchdata/slotx-reports/pkg/logger"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Build the reports archive from branch exports and the deals workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "mode",
				Usage:    "Report mode: Alexandria, Zamalek or Merged",
				Required: true,
				EnvVars:  []string{"REPORT_MODE"},
			},
			&cli.StringFlag{
				Name:    "cycle",
				Usage:   "Payout cycle: 1 or 2",
				Value:   string(domain.CycleOne),
				EnvVars: []string{"REPORT_CYCLE"},
			},
			&cli.StringFlag{Name: "sales", Usage: "Sales export of a single-branch run"},
			&cli.StringFlag{Name: "inventory", Usage: "Inventory export of a single-branch run"},
			&cli.StringFlag{Name: "sales-alexandria", Usage: "Alexandria sales export", EnvVars: []string{"SALES_ALEXANDRIA"}},
			&cli.StringFlag{Name: "sales-zamalek", Usage: "Zamalek sales export", EnvVars: []string{"SALES_ZAMALEK"}},
			&cli.StringFlag{Name: "inventory-alexandria", Usage: "Alexandria inventory export", EnvVars: []string{"INVENTORY_ALEXANDRIA"}},
			&cli.StringFlag{Name: "inventory-zamalek", Usage: "Zamalek inventory export", EnvVars: []string{"INVENTORY_ZAMALEK"}},
			&cli.StringFlag{
				Name:     "deals",
				Usage:    "Deals workbook with one sheet per mode",
				Required: true,
				EnvVars:  []string{"DEALS_FILE"},
			},
			&cli.StringFlag{
				Name:    "out",
				Usage:   "Output zip path or directory",
				Value:   ".",
				EnvVars: []string{"REPORT_OUT"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "Concurrent workbook builds (defaults to REPORT_WORKER_COUNT)",
				EnvVars: []string{"REPORT_WORKERS"},
			},
			&cli.BoolFlag{
				Name:  "publish",
				Usage: "Upload the archive to the configured object storage",
			},
			&cli.StringFlag{
				Name:    "drive-folder",
				Usage:   "Google Drive folder id or path; file flags then name files inside it",
				EnvVars: []string{"DRIVE_FOLDER"},
			},
		},
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	cfg := config.Load()
	level := c.String("log-level")
	if level == "" {
		level = cfg.LogLevel
	}
	logger.SetLevel(level)

	mode, err := domain.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}
	cycle, err := domain.ParsePayoutCycle(c.String("cycle"))
	if err != nil {
		return err
	}

	ctx := c.Context
	opener, err := openerFor(ctx, c.String("drive-folder"), cfg.Drive)
	if err != nil {
		return err
	}

	batch, err := source.Load(ctx, opener, mode, cycle, filesFromFlags(c, mode))
	if err != nil {
		return err
	}
	defer batch.Close()

	var store storage.ObjectStorage
	if c.Bool("publish") {
		if store, err = storage.New(cfg.Storage); err != nil {
			return err
		}
	}

	workers := c.Int("workers")
	if workers < 1 {
		workers = cfg.Report.WorkerCount
	}
	generator := pipeline.NewGenerator(pipeline.Config{
		WorkerCount: workers,
		PoweredBy:   cfg.Report.PoweredBy,
		Version:     cfg.Report.Version,
	})

	report, err := service.NewReportService(generator, nil, store, cfg.Storage.Prefix).
		Generate(ctx, batch.Request, service.GenerateOptions{Publish: c.Bool("publish")})
	if err != nil {
		return err
	}

	path := outputPath(c.String("out"), report.FileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, report.Archive, 0o644); err != nil {
		return fmt.Errorf("failed writing %s: %w", path, err)
	}

	d := report.Diagnostics
	logger.Log.Info().
		Str("file", path).
		Str("storage_key", report.StorageKey).
		Int("entries", len(report.Entries)).
		Int("refunds_matched", d.Refunds.Matched).
		Int("refunds_orphaned", d.Refunds.Orphans).
		Int("inventory_dropped", d.InventoryDropped).
		Int("deal_collisions", d.DealCollisions).
		Msg("Report archive written")
	return nil
}

// filesFromFlags names the uploads for mode. Single-branch runs accept the
// short flags or the branch flags.
func filesFromFlags(c *cli.Context, mode domain.Branch) source.Files {
	files := source.Files{
		Sales:     make(map[domain.Branch]string),
		Inventory: make(map[domain.Branch]string),
		Deals:     c.String("deals"),
	}
	for _, b := range domain.Branches {
		suffix := strings.ToLower(string(b))
		files.Sales[b] = c.String("sales-" + suffix)
		files.Inventory[b] = c.String("inventory-" + suffix)
	}
	if mode != domain.BranchMerged {
		if v := c.String("sales"); v != "" {
			files.Sales[mode] = v
		}
		if v := c.String("inventory"); v != "" {
			files.Inventory[mode] = v
		}
	}
	return files
}

func openerFor(ctx context.Context, folder string, cfg config.DriveConfig) (source.Opener, error) {
	if folder == "" {
		return source.LocalOpener{}, nil
	}
	if cfg.CredentialsJSON == "" {
		return nil, fmt.Errorf("--drive-folder needs GOOGLE_DRIVE_CREDENTIALS_JSON")
	}

	svc, err := drive.NewService(ctx, cfg.CredentialsJSON)
	if err != nil {
		return nil, err
	}
	folderID := folder
	if strings.Contains(folder, "/") {
		if folderID, err = svc.FindFolderByPath(ctx, folder); err != nil {
			return nil, err
		}
	}
	return source.DriveOpener{Service: svc, FolderID: folderID}, nil
}

// outputPath writes into out when it is a directory or ends in a separator.
func outputPath(out, fileName string) string {
	if out == "" {
		return fileName
	}
	if strings.HasSuffix(out, string(os.PathSeparator)) {
		return filepath.Join(out, fileName)
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, fileName)
	}
	return out
}
