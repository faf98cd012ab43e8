package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"floodbatch/internal/runner"
	"floodbatch/internal/workspace"
)

func newExtractCmd(app *App) *cobra.Command {
	var scenarioNames []string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Re-derive rasters from kept raw engine outputs",
		Long: `extract rebuilds the derived rasters (event-maximum depth and
velocity, inundation duration, flood extent) from raw engine outputs
left on disk by a run with keep_raw_outputs enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.loadConfig(); err != nil {
				return err
			}
			scenarios, err := app.selectScenarios(scenarioNames)
			if err != nil {
				return err
			}
			eng, err := app.selectedEngine()
			if err != nil {
				return err
			}

			cfg := app.cfg
			layout := workspace.New(afero.NewOsFs(), cfg.Outputs.Workspace)
			ext := runner.NewExtractor(layout, nil, app.logger,
				cfg.Thresholds.DepthM, cfg.Execution.SaveIntervalHours)

			runIDs, err := app.latestRunIDs()
			if err != nil {
				return err
			}

			var extracted int
			for _, sc := range scenarios {
				res, err := eng.Collect(layout.RawDir(sc.Name))
				if err != nil {
					return fmt.Errorf("scenario %s: %w (was the run kept with keep_raw_outputs?)", sc.Name, err)
				}
				runID := runIDs[sc.Name]
				if runID == "" {
					runID = "manual"
				}
				if _, err := ext.Extract(sc, runID, res); err != nil {
					return fmt.Errorf("scenario %s: %w", sc.Name, err)
				}
				fmt.Printf("[%s] rasters extracted\n", sc.Name)
				extracted++
			}
			fmt.Printf("%d scenarios extracted\n", extracted)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&scenarioNames, "scenario", "s", nil, "extract only the named scenarios")
	return cmd
}

// latestRunIDs maps scenario name to its most recent run id, empty
// when the ledger is missing or has no runs.
func (a *App) latestRunIDs() (map[string]string, error) {
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	runs, err := st.LatestRuns()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(runs))
	for _, r := range runs {
		ids[r.Scenario.Name] = r.ID
	}
	return ids, nil
}
