package commands

import (
	"log/slog"

	"guildexp/internal/components/chrono"
	libtelemetry "guildexp/lib/telemetry"

	"github.com/spf13/cobra"
)

var serveNow *bool

func init() {
	serveNow = serveCmd.Flags().Bool("now", false, "Also run the pipeline once at startup.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--now]",
	Short: "Runs the pipeline on the configured schedule until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		env := setupApp(cmd)
		defer env.close()

		ctx := cmd.Context()
		libtelemetry.InstrumentPerfStats(ctx)

		p := env.newPipeline()
		cron := chrono.NewStandardCron(env.tel)
		err := p.Schedule(ctx, cron, env.cfg.Schedule, env.cfg.World, env.time)
		if err != nil {
			env.fatal("failed to schedule pipeline", err)
		}
		slog.Info(
			"scheduled daily run",
			"world", env.cfg.World,
			"schedule", env.cfg.Schedule,
			"timezone", env.time.Now().Location().String(),
		)

		if *serveNow {
			p.LogReport(p.Run(ctx, env.cfg.World, env.time.Now()))
		}

		<-ctx.Done()
		slog.Info("waiting for running jobs to finish")
		<-cron.Stop().Done()
	},
}
