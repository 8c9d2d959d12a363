package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/export"
	"github.com/andresuchdata/restock/backend-go/internal/replenishment"
	"github.com/andresuchdata/restock/backend-go/internal/repository"
	"github.com/andresuchdata/restock/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/restock/backend-go/internal/service"
)

func planCommand(cfg *config.Config) *cli.Command {
	flags := append(sourceFlags(cfg),
		newDBURLFlag(false),
		&cli.IntFlag{
			Name:    "base-target-days",
			Usage:   "Coverage target in manual mode and for unknown lifecycles",
			Value:   cfg.Planning.BaseTargetDays,
			EnvVars: []string{"PLAN_BASE_TARGET_DAYS"},
		},
		&cli.BoolFlag{
			Name:    "smart-lifecycle",
			Usage:   "Use lifecycle-specific coverage targets",
			Value:   cfg.Planning.SmartLifecycle,
			EnvVars: []string{"PLAN_SMART_LIFECYCLE"},
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Write the procurement sheet to this .csv or .xlsx file instead of printing",
		},
	)

	return &cli.Command{
		Name:   "plan",
		Usage:  "Build a replenishment plan from files or the database",
		Flags:  flags,
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			if c.Int("base-target-days") < 0 {
				return fmt.Errorf("--base-target-days must not be negative")
			}
			policy := domain.PlanPolicy{
				BaseTargetDays:    c.Int("base-target-days"),
				UseSmartLifecycle: c.Bool("smart-lifecycle"),
			}

			repo, err := planSource(c, cfg)
			if err != nil {
				return err
			}
			svc := service.NewReplenishmentService(repo, nil, nil, nil)

			out := c.String("out")
			if out == "" {
				plan, err := svc.Plan(c.Context, policy)
				if err != nil {
					return err
				}
				return renderTable(c.App.Writer, plan)
			}

			format, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(out), "."))
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := svc.Export(c.Context, policy, format, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %s\n", out)
			return nil
		},
	}
}

// planSource loads input files into a memory store, or falls back to the database.
func planSource(c *cli.Context, cfg *config.Config) (repository.InventoryRepository, error) {
	if db := dbFrom(c); db != nil && len(c.StringSlice("file")) == 0 &&
		c.String("drive-folder-id") == "" && c.String("drive-path") == "" && c.String("storage-prefix") == "" {
		return postgres.NewInventoryRepository(wrapDB(db)), nil
	}

	paths, cleanup, err := collectInputs(c, cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	reports, err := parseFiles(c.Context, paths, c.Int("workers"))
	if err != nil {
		return nil, err
	}

	repo := repository.NewMemoryInventoryRepository()
	for _, r := range reports {
		logReport(r)
		if err := repo.Upsert(c.Context, r.Records...); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func renderTable(w io.Writer, plan []domain.ReplenishmentSuggestion) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tSTRATEGY\tCOVER\tTHRESHOLD\tQTY\tCAPITAL CNY\tURGENT")
	for _, s := range plan {
		cover := "-"
		if !s.CurrentDays.IsInfinite() {
			cover = decimal.NewFromFloat(float64(s.CurrentDays)).StringFixed(1)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%t\n",
			s.SKU, s.StrategyLabel, cover, s.ReorderThresholdDays, s.SuggestedQty,
			decimal.NewFromFloat(s.EstimatedCapitalCNY).StringFixed(2), s.IsUrgent)
	}

	sum := replenishment.Summarize(plan)
	fmt.Fprintf(tw, "TOTAL\t\t\t\t%d\t%s\t%d urgent\n", sum.TotalQty, decimal.NewFromFloat(sum.TotalCapitalCNY).StringFixed(2), sum.UrgentCount)
	return tw.Flush()
}
