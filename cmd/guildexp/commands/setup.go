package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"guildexp/internal/components/chrono"
	"guildexp/internal/components/telemetry"
	"guildexp/internal/db"
	"guildexp/internal/pipeline"
	"guildexp/internal/roster"
	"guildexp/internal/scraper"
	"guildexp/internal/store"
	"guildexp/lib/restyutil"
	"guildexp/lib/serviceutil"
	libtelemetry "guildexp/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// app holds everything a command needs once config and database are ready.
type app struct {
	cfg   Config
	tel   telemetry.API
	time  chrono.TimeAPI
	store store.Store
	close func()
}

// setupApp loads the config, starts telemetry and opens the database. Every
// failure here is fatal.
func setupApp(cmd *cobra.Command) app {
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	err = cfg.validate()
	if err != nil {
		serviceutil.Fatal("invalid config", err)
	}

	tracing, err := libtelemetry.SetupFromEnv(cmd.Context(), "guildexp")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}

	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		tracing.Shutdown(context.Background())
		serviceutil.Fatal("failed to open db", err)
	}

	tel := telemetry.SlogAPI{}
	clock := chrono.NewStandardTime()
	return app{
		cfg:   cfg,
		tel:   tel,
		time:  clock,
		store: store.NewStore(database, clock, tel),
		close: func() {
			database.Close()
			err := tracing.Shutdown(context.Background())
			if err != nil {
				slog.Warn("failed to shutdown telemetry", "err", err)
			}
		},
	}
}

var exitFatal = serviceutil.Fatal

// fatal releases the database and flushes telemetry before exiting, os.Exit
// skips deferred calls.
func (a app) fatal(message string, err error) {
	a.close()
	exitFatal(message, err)
}

// restyOutput dumps every http exchange under the dev state directory when
// debug logging is enabled.
func restyOutput(name string) restyutil.InstrumentOutput {
	if !*verbose {
		return nil
	}
	output, err := restyutil.NewFilesystemOutput(fmt.Sprintf("<dev_state>/resty/%s", name))
	if err != nil {
		slog.Warn("http dumps disabled", "err", err)
		return nil
	}
	return output
}

func (a app) newPipeline() pipeline.Pipeline {
	if a.cfg.URLTemplate == "" {
		a.fatal("invalid config", fmt.Errorf("url_template is not configured (set TARGET_URL_TEMPLATE or \"url_template\")"))
	}
	listings, err := scraper.NewClient(scraper.Options{
		URLTemplate: a.cfg.URLTemplate,
		Output:      restyOutput("listing"),
	})
	if err != nil {
		a.fatal("invalid config", err)
	}

	return pipeline.NewPipeline(pipeline.Options{
		Roster: roster.NewClient(roster.Options{
			BaseUrl: a.cfg.RosterBaseUrl,
			Output:  restyOutput("roster"),
		}),
		Listings: listings,
		Store:    a.store,
		Layout:   a.cfg.Layout,
		Workers:  a.cfg.Workers,
	}, a.tel)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
