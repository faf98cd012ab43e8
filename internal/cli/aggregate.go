package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"floodbatch/internal/domain"
	"floodbatch/internal/runner"
	"floodbatch/internal/store"
	"floodbatch/internal/workspace"
	"floodbatch/internal/zonal"
)

func newAggregateCmd(app *App) *cobra.Command {
	var scenarioNames []string
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Compute per-field statistics from extracted rasters",
		Long: `aggregate overlays the field polygons with each extracted scenario's
rasters, writes the per-field statistics into the ledger database, and
exports them as CSV and, when configured, GeoPackage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.loadConfig(); err != nil {
				return err
			}
			scenarios, err := app.selectScenarios(scenarioNames)
			if err != nil {
				return err
			}

			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return app.aggregateScenarios(scenarios, st)
		},
	}
	cmd.Flags().StringSliceVarP(&scenarioNames, "scenario", "s", nil, "aggregate only the named scenarios")
	return cmd
}

// aggregateScenarios overlays the fields layer with every extracted
// scenario's rasters, persists the statistics, and writes the CSV and
// GeoPackage exports. Unextracted scenarios are skipped with a
// warning; no extracted scenario at all is an error.
func (a *App) aggregateScenarios(scenarios []domain.Scenario, st *store.Store) error {
	cfg := a.cfg
	if cfg.Fields.Path == "" {
		return fmt.Errorf("no fields layer configured")
	}

	fields, err := zonal.LoadFields(cfg.Fields.Path, cfg.Fields.IDProperty)
	if err != nil {
		return err
	}
	a.logger.Info("fields layer loaded",
		zap.String("path", cfg.Fields.Path), zap.Int("fields", len(fields)))

	layout := workspace.New(afero.NewOsFs(), cfg.Outputs.Workspace)
	ext := runner.NewExtractor(layout, nil, a.logger,
		cfg.Thresholds.DepthM, cfg.Execution.SaveIntervalHours)

	var all []domain.FieldStats
	for _, sc := range scenarios {
		products, err := ext.LoadProducts(sc.Name)
		if err != nil {
			a.logger.Warn("scenario skipped", zap.String("scenario", sc.Name), zap.Error(err))
			continue
		}
		stats, err := zonal.Aggregate(fields, sc, &zonal.RasterSet{
			MaxDepth:    products.MaxDepth,
			MaxVelocity: products.MaxVelocity,
			Duration:    products.Duration,
		}, cfg.Thresholds.DepthM)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		all = append(all, stats...)
		fmt.Printf("[%s] %d fields aggregated\n", sc.Name, len(stats))
	}
	if len(all) == 0 {
		return fmt.Errorf("no extracted scenarios to aggregate")
	}

	if err := st.SaveStats(all); err != nil {
		return err
	}

	if err := store.ExportCSV(cfg.Outputs.StatsCSV, all, cfg.Thresholds.Severity); err != nil {
		return err
	}
	fmt.Printf("statistics written to %s\n", cfg.Outputs.StatsCSV)

	if cfg.Outputs.GeoPackage != "" {
		err := store.ExportGeoPackage(cfg.Outputs.GeoPackage, cfg.Fields.SRID,
			fields, all, cfg.Thresholds.Severity)
		if err != nil {
			return err
		}
		fmt.Printf("geopackage written to %s\n", cfg.Outputs.GeoPackage)
	}
	return nil
}
