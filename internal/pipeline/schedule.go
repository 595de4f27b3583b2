package pipeline

import (
	"context"

	"guildexp/internal/components/chrono"
)

const DefaultSchedule = "0 0 * * *"

// Schedule runs the pipeline for world on every tick of spec (standard 5
// field cron), using the current day as the run date. Runs stop being
// started once ctx is done.
func (p Pipeline) Schedule(ctx context.Context, cron chrono.CronAPI, spec string, world string, time chrono.TimeAPI) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	return cron.Cron(spec, func() {
		if ctx.Err() != nil {
			return
		}
		report := p.Run(ctx, world, time.Now())
		p.LogReport(report)
	})
}

// LogReport writes a one line summary of a run and one line per failed guild.
func (p Pipeline) LogReport(report Report) {
	if report.Err != nil {
		p.tel.ReportWarning(report_run, report.RunID, report.World, report.Err)
		return
	}
	for _, o := range report.Outcomes {
		if o.Err != nil {
			p.tel.ReportWarning(report_run, report.RunID, o.Guild, o.Err)
		}
	}
	p.tel.ReportCount(report_failed, int64(report.Failed()))
	p.tel.ReportDebug(
		"run finished",
		report.RunID,
		report.World,
		len(report.Outcomes),
		report.Failed(),
		report.Written(),
	)
}
