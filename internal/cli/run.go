package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/maseology/mmio"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"floodbatch/internal/event"
	"floodbatch/internal/project"
	"floodbatch/internal/runner"
	"floodbatch/internal/workspace"
)

func newRunCmd(app *App) *cobra.Command {
	var scenarioNames []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the batch: simulate every scenario, extract rasters, aggregate field statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.loadConfig(); err != nil {
				return err
			}
			if err := app.cfg.Validate(); err != nil {
				return err
			}
			scenarios, err := app.selectScenarios(scenarioNames)
			if err != nil {
				return err
			}
			if len(scenarios) == 0 {
				return fmt.Errorf("no scenarios configured")
			}

			eng, err := app.selectedEngine()
			if err != nil {
				return err
			}

			cfg := app.cfg
			fs := afero.NewOsFs()
			layout := workspace.New(fs, cfg.Outputs.Workspace)
			// the ledger lives inside the workspace
			if err := layout.Init(); err != nil {
				return err
			}
			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			mat := project.NewMaterializer(fs, cfg.Project.TemplateDir,
				cfg.Project.BoundaryFile, cfg.Project.BoundaryIntervalHours)

			bus := event.NewBus()
			startProgressPrinter(bus)

			ext := runner.NewExtractor(layout, bus, app.logger,
				cfg.Thresholds.DepthM, cfg.Execution.SaveIntervalHours)
			batch := runner.New(eng, mat, layout, ext, bus, st, app.logger, runner.Options{
				MaxConcurrent:     cfg.EffectiveConcurrency(),
				KeepRawOutputs:    cfg.Execution.KeepRawOutputs,
				SaveIntervalHours: cfg.Execution.SaveIntervalHours,
				Timeout:           cfg.Engine.Timeout.Duration(),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tt := mmio.NewTimer()
			summary, _, err := batch.Run(ctx, scenarios)
			if err != nil {
				return err
			}
			tt.Print("batch finished")

			fmt.Printf("%d scenarios: %d completed, %d failed, %d canceled in %s\n",
				summary.Total, summary.Completed, summary.Failed, summary.Canceled,
				summary.Elapsed.Round(0))

			// completed scenarios are aggregated even when others failed
			if summary.Completed > 0 && cfg.Fields.Path != "" {
				if err := app.aggregateScenarios(scenarios, st); err != nil {
					return err
				}
			}
			if !summary.Clean() {
				return fmt.Errorf("%d of %d scenarios did not complete", summary.Total-summary.Completed, summary.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&scenarioNames, "scenario", "s", nil, "run only the named scenarios")
	return cmd
}

// startProgressPrinter echoes bus events to stdout for the operator
func startProgressPrinter(bus *event.Bus) {
	ch := make(chan event.Event, 128)
	bus.Subscribe(ch)
	go func() {
		for e := range ch {
			switch e.Type {
			case event.TypeRunStarted:
				fmt.Printf("[%s] started: %s\n", e.Scenario, e.Message)
			case event.TypeRunProgress:
				fmt.Printf("[%s] %.0f%%\n", e.Scenario, e.Percent)
			case event.TypeRunCompleted:
				fmt.Printf("[%s] %s\n", e.Scenario, e.Message)
			case event.TypeRunFailed:
				fmt.Printf("[%s] FAILED: %s\n", e.Scenario, e.Message)
			case event.TypeRunCanceled:
				fmt.Printf("[%s] canceled\n", e.Scenario)
			case event.TypeExtractDone:
				fmt.Printf("[%s] rasters extracted\n", e.Scenario)
			}
		}
	}()
}
