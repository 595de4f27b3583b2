package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"guildexp/internal/assert"
	"guildexp/internal/components/telemetry"
	"guildexp/internal/exp"
	"guildexp/internal/scraper"
	"guildexp/internal/store"
	"guildexp/lib/timezone"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("guildexp/internal/pipeline")
var meter = otel.Meter("guildexp/internal/pipeline")
var snapshotsWritten, _ = meter.Int64Counter("snapshots_written")
var guildFailures, _ = meter.Int64Counter("guild_failures")

const (
	report_roster        = "roster"
	report_fetch_listing = "fetch-listing"
	report_extract       = "extract"
	report_persist       = "persist"
	report_guild_panic   = "guild"
	report_run           = "run"
	report_written       = "snapshots-written"
	report_failed        = "guilds-failed"
)

type RosterAPI interface {
	GuildNames(ctx context.Context, world string) ([]string, error)
}

type ListingAPI interface {
	Listing(ctx context.Context, guild string) ([]byte, error)
}

type Persister interface {
	Persist(ctx context.Context, req store.PersistRequest) (store.PersistResult, error)
}

type Options struct {
	Roster   RosterAPI
	Listings ListingAPI
	Store    Persister
	Layout   scraper.Layout
	// number of guilds processed at once, 1 (the default) is strictly sequential
	Workers int
}

type Pipeline struct {
	opts Options
	tel  telemetry.API
}

func NewPipeline(opts Options, tel telemetry.API) Pipeline {
	assert.NotNil(opts.Roster)
	assert.NotNil(opts.Listings)
	assert.NotNil(opts.Store)
	assert.NotNil(tel)

	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return Pipeline{
		opts: opts,
		tel:  telemetry.NewScopedAPI("pipeline", tel),
	}
}

// Outcome is the result of processing a single guild.
type Outcome struct {
	Guild   string
	Summary exp.Summary
	// number of snapshot rows written (including overwrites)
	Written int
	Err     error
}

type Report struct {
	RunID   string
	World   string
	RunDate time.Time
	// set when the run could not start (no roster), guild failures live in Outcomes
	Err      error
	Outcomes []Outcome
}

// Failed returns the number of guilds that did not persist.
func (r Report) Failed() int {
	count := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			count++
		}
	}
	return count
}

func (r Report) Written() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.Written
	}
	return total
}

// Run processes every guild of a world for the calendar day of runDate. It
// never fails as a whole: a guild that breaks is recorded in its Outcome and
// the other guilds carry on.
func (p Pipeline) Run(ctx context.Context, world string, runDate time.Time) Report {
	report := Report{
		RunID:   ulid.Make().String(),
		World:   world,
		RunDate: timezone.StartOfDay(runDate),
	}

	ctx, span := tracer.Start(ctx, "pipeline:run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", report.RunID),
		attribute.String("world", world),
		attribute.String("run_date", timezone.FormatDate(report.RunDate)),
	)

	guilds, err := p.opts.Roster.GuildNames(ctx, world)
	if err != nil {
		p.tel.ReportBroken(report_roster, err, report.RunID, world)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		report.Err = err
		return report
	}
	if len(guilds) == 0 {
		report.Err = fmt.Errorf("no guilds found for world %q", world)
		p.tel.ReportWarning(report_roster, report.Err, report.RunID)
		return report
	}

	p.tel.ReportDebug("run started", report.RunID, world, len(guilds))

	report.Outcomes = make([]Outcome, len(guilds))
	group := errgroup.Group{}
	group.SetLimit(p.opts.Workers)
	for i, guild := range guilds {
		i, guild := i, guild
		group.Go(func() error {
			report.Outcomes[i] = p.runGuild(ctx, report, guild)
			return nil
		})
	}
	group.Wait()

	written := report.Written()
	p.tel.ReportCount(report_written, int64(written))
	span.SetAttributes(
		attribute.Int("guilds", len(guilds)),
		attribute.Int("failed", report.Failed()),
		attribute.Int("written", written),
	)
	return report
}

func (p Pipeline) runGuild(ctx context.Context, report Report, guild string) (outcome Outcome) {
	outcome.Guild = guild

	ctx, span := tracer.Start(ctx, "pipeline:guild")
	defer span.End()
	span.SetAttributes(attribute.String("guild", guild))

	attrs := metric.WithAttributes(attribute.String("world", report.World))
	defer func() {
		r := recover()
		if r != nil {
			outcome.Err = fmt.Errorf("guild %q panicked: %v", guild, r)
			p.tel.ReportBroken(report_guild_panic, outcome.Err, report.RunID)
		}
		if outcome.Err != nil {
			guildFailures.Add(ctx, 1, attrs)
			span.RecordError(outcome.Err)
			span.SetStatus(codes.Error, outcome.Err.Error())
			return
		}
		snapshotsWritten.Add(ctx, int64(outcome.Written), attrs)
	}()

	body, err := p.opts.Listings.Listing(ctx, guild)
	if err != nil {
		p.tel.ReportBroken(report_fetch_listing, err, report.RunID, guild)
		outcome.Err = err
		return outcome
	}

	items, err := scraper.Extract(ctx, bytes.NewReader(body), p.opts.Layout)
	if err != nil {
		p.tel.ReportWarning(report_extract, err, report.RunID, guild)
		items = []exp.Item{}
	}
	outcome.Summary = exp.Summarize(items)

	res, err := p.opts.Store.Persist(ctx, store.PersistRequest{
		GuildName: guild,
		World:     report.World,
		RunDate:   report.RunDate,
		Items:     items,
	})
	if err != nil {
		p.tel.ReportBroken(report_persist, err, report.RunID, guild)
		outcome.Err = err
		return outcome
	}
	outcome.Written = len(res.Entries)

	p.tel.ReportDebug(
		"guild persisted",
		report.RunID,
		guild,
		outcome.Summary.Members,
		outcome.Summary.TotalExp,
		outcome.Written,
	)
	return outcome
}
