package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"floodbatch/internal/domain"
)

func newStatusCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the run ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.loadConfig(); err != nil {
				return err
			}
			st, err := app.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var runs []domain.Run
			if all {
				runs, err = st.Runs()
			} else {
				runs, err = st.LatestRuns()
			}
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCENARIO\tRP\tENGINE\tSTATUS\tSTARTED\tDURATION\tERROR")
			for _, r := range runs {
				started := ""
				if r.StartedAt != nil {
					started = r.StartedAt.Local().Format(time.DateTime)
				}
				duration := ""
				if d := r.Duration(); d > 0 {
					duration = d.Round(time.Second).String()
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
					r.Scenario.Name, r.Scenario.ReturnPeriodYears, r.Engine,
					r.Status, started, duration, r.Error)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			summary, err := st.Summary()
			if err != nil {
				return err
			}
			fmt.Printf("\n%d scenarios: %d completed, %d failed, %d canceled\n",
				summary.Total, summary.Completed, summary.Failed, summary.Canceled)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "show every run, not only the latest per scenario")
	return cmd
}
