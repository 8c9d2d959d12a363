package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/restock/backend-go/internal/cache"
	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/drive"
	"github.com/andresuchdata/restock/backend-go/internal/economics"
	"github.com/andresuchdata/restock/backend-go/internal/ingest"
	"github.com/andresuchdata/restock/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/restock/backend-go/internal/service"
	"github.com/andresuchdata/restock/backend-go/internal/storage"
)

// fileReport is the parse outcome of one input file.
type fileReport struct {
	Path     string
	Records  []domain.InventoryRecord
	Rejected []ingest.RowError
}

func sourceFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "CSV or XLSX inventory file (repeatable)",
		},
		&cli.StringFlag{
			Name:    "drive-folder-id",
			Usage:   "Google Drive folder to pull spreadsheets from",
			Value:   cfg.Drive.FolderID,
			EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"},
		},
		&cli.StringFlag{
			Name:  "drive-path",
			Usage: "Google Drive folder path, resolved from the Drive root",
		},
		&cli.StringFlag{
			Name:  "storage-prefix",
			Usage: "Object storage prefix to pull spreadsheets from",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Files parsed concurrently",
			Value: 4,
		},
	}
}

func importCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:   "import",
		Usage:  "Import inventory spreadsheets into the database",
		Flags:  append(sourceFlags(cfg), newDBURLFlag(true)),
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			paths, cleanup, err := collectInputs(c, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			reports, err := parseFiles(c.Context, paths, c.Int("workers"))
			if err != nil {
				return err
			}

			inventory := service.NewInventoryService(
				postgres.NewInventoryRepository(wrapDB(dbFrom(c))),
				openPlanCache(cfg),
				economics.NewCalculator(cfg.Economics.ExchangeRate),
				nil,
			)
			imported, rejected := 0, 0
			for _, r := range reports {
				if err := inventory.Store(c.Context, r.Records...); err != nil {
					return fmt.Errorf("failed to store %s: %w", r.Path, err)
				}
				imported += len(r.Records)
				rejected += len(r.Rejected)
				logReport(r)
			}

			fmt.Fprintf(c.App.Writer, "imported %d records from %d files, rejected %d rows\n", imported, len(reports), rejected)
			return nil
		},
	}
}

// openPlanCache connects to the server's plan cache so imports retire stale plans.
// Without Redis the import still runs; cached plans then expire by TTL.
func openPlanCache(cfg *config.Config) cache.PlanCache {
	planCache, err := cache.NewPlanCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("plan cache unavailable, cached plans expire by ttl")
		return cache.NewNoopPlanCache()
	}
	return planCache
}

func logReport(r fileReport) {
	for _, rowErr := range r.Rejected {
		log.Warn().Str("file", r.Path).Int("line", rowErr.Line).Str("sku", rowErr.SKU).Err(rowErr.Err).Msg("row rejected")
	}
	log.Info().Str("file", r.Path).Int("records", len(r.Records)).Int("rejected", len(r.Rejected)).Msg("file parsed")
}

// collectInputs gathers local files plus anything pulled from Drive or object storage.
// cleanup removes downloaded files.
func collectInputs(c *cli.Context, cfg *config.Config) ([]string, func(), error) {
	paths := append([]string(nil), c.StringSlice("file")...)
	cleanup := func() {}

	folderID := c.String("drive-folder-id")
	drivePath := c.String("drive-path")
	prefix := c.String("storage-prefix")
	if folderID == "" && drivePath == "" && prefix == "" {
		if len(paths) == 0 {
			return nil, cleanup, fmt.Errorf("no input: pass --file, --drive-folder-id, --drive-path or --storage-prefix")
		}
		return paths, cleanup, nil
	}

	tmpDir, err := os.MkdirTemp("", "restock-import-*")
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create download dir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(tmpDir) }

	if folderID != "" || drivePath != "" {
		downloaded, err := pullDrive(c.Context, cfg, folderID, drivePath, filepath.Join(tmpDir, "drive"))
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		paths = append(paths, downloaded...)
	}

	if prefix != "" {
		downloaded, err := pullStorage(c.Context, cfg, prefix, filepath.Join(tmpDir, "storage"))
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		paths = append(paths, downloaded...)
	}

	return paths, cleanup, nil
}

func pullDrive(ctx context.Context, cfg *config.Config, folderID, drivePath, dir string) ([]string, error) {
	if cfg.Drive.CredentialsJSON == "" {
		return nil, fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON is required for Drive imports")
	}

	svc, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
	if err != nil {
		return nil, err
	}

	if drivePath != "" {
		folderID, err = svc.FindFolderByPath(ctx, drivePath)
		if err != nil {
			return nil, err
		}
	}

	return drive.NewDownloader(svc).DownloadFolder(ctx, drive.DownloadOptions{
		FolderID:    folderID,
		DownloadDir: dir,
	})
}

func pullStorage(ctx context.Context, cfg *config.Config, prefix, dir string) ([]string, error) {
	client, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		return nil, err
	}

	objects, err := client.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, obj := range objects {
		switch strings.ToLower(filepath.Ext(obj.Key)) {
		case ".csv", ".xlsx":
		default:
			continue
		}
		dest := filepath.Join(dir, filepath.FromSlash(obj.Key))
		if err := client.DownloadObject(ctx, obj.Key, dest); err != nil {
			return nil, err
		}
		paths = append(paths, dest)
	}
	return paths, nil
}

// parseFiles reads files concurrently; reports keep the order of paths.
func parseFiles(ctx context.Context, paths []string, workers int) ([]fileReport, error) {
	if workers <= 0 {
		workers = 1
	}

	reports := make([]fileReport, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := ingest.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = fileReport{Path: path, Records: res.Records, Rejected: res.Errors}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
