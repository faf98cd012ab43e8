package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"floodbatch/internal/bootstrap"
)

func newCheckCmd(app *App) *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the engine, project template, and workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.loadConfig(); err != nil {
				return err
			}

			result := bootstrap.Check(cmd.Context(), app.registry(), app.cfg)
			bootstrap.Report(result, app.logger)

			if result.EngineVersion != "" {
				fmt.Printf("engine:                %s (%s)\n", app.cfg.Engine.Name, result.EngineVersion)
			} else {
				fmt.Printf("engine:                %s (not detected)\n", app.cfg.Engine.Name)
			}
			fmt.Printf("cpus:                  %d\n", result.CPUCount)
			fmt.Printf("recommended parallel:  %d\n", result.RecommendedConcurrent)
			for _, n := range result.Notes {
				fmt.Printf("problem: %s\n", n)
			}

			if save {
				path := app.savePath()
				app.cfg.Check = result
				if err := app.cfg.Save(path); err != nil {
					return err
				}
				fmt.Printf("check result saved to %s\n", path)
			}
			if !bootstrap.Ready(result) {
				return fmt.Errorf("environment check found %d problems", len(result.Notes))
			}
			fmt.Println("environment ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "write the check result back into the config file")
	return cmd
}
