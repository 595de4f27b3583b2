package commands

import (
	"fmt"

	"guildexp/internal/pipeline"
	"guildexp/internal/store"
	"guildexp/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runWorld *string
var runDate *string

func init() {
	runWorld = runCmd.Flags().String("world", "", "The world to run for, defaults to the configured world.")
	runDate = runCmd.Flags().String("date", "", "The run date (YYYY-MM-DD), defaults to today.")
	rootCmd.AddCommand(runCmd)
}

func renderReport(report pipeline.Report) {
	t := newTable()
	t.SetTitle(fmt.Sprintf("%s %s (%s)", report.World, timezone.FormatDate(report.RunDate), report.RunID))
	t.AppendHeader(table.Row{"Guild", "Members", "Total exp", "Written", "Error"})
	for _, o := range report.Outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		t.AppendRow(table.Row{o.Guild, o.Summary.Members, o.Summary.TotalExp, o.Written, errText})
	}
	t.AppendFooter(table.Row{"", "", "", report.Written(), fmt.Sprintf("%d failed", report.Failed())})
	t.Render()
}

var runCmd = &cobra.Command{
	Use:   "run [--world <world>] [--date <YYYY-MM-DD>]",
	Short: "Runs the pipeline once and prints the outcome of every guild.",
	Run: func(cmd *cobra.Command, args []string) {
		env := setupApp(cmd)
		defer env.close()

		world := env.cfg.World
		if *runWorld != "" {
			world = *runWorld
		}
		date := env.time.Now()
		if *runDate != "" {
			var err error
			date, err = store.ResolveRunDate(*runDate)
			if err != nil {
				env.fatal("invalid --date", err)
			}
		}

		p := env.newPipeline()
		report := p.Run(cmd.Context(), world, date)
		p.LogReport(report)
		if report.Err != nil {
			env.fatal("run did not start", report.Err)
		}
		renderReport(report)
	},
}
