package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"guildexp/internal/components/chrono"
	"guildexp/internal/components/telemetry"
	"guildexp/internal/db"
	"guildexp/internal/exp"
	"guildexp/internal/scraper"
	"guildexp/internal/store"
	"guildexp/lib/testutil"
	"guildexp/lib/timezone"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var runDate = time.Date(2024, time.May, 1, 12, 0, 0, 0, timezone.Location)

type fakeRoster struct {
	guilds []string
	err    error
}

func (f fakeRoster) GuildNames(ctx context.Context, world string) ([]string, error) {
	return f.guilds, f.err
}

type member struct {
	name string
	exp  string
}

// fakeListings serves a 12 column listing per guild, guilds without an
// entry fail like an unreachable page.
type fakeListings struct {
	pages map[string][]member
	calls *atomic.Int32
}

func (f fakeListings) Listing(ctx context.Context, guild string) ([]byte, error) {
	if f.calls != nil {
		f.calls.Add(1)
	}
	members, ok := f.pages[guild]
	if !ok {
		return nil, fmt.Errorf("%w %q: status 503", scraper.ErrFetch, guild)
	}

	var doc strings.Builder
	doc.WriteString("<table>")
	for _, m := range members {
		doc.WriteString("<tr>")
		for col := 1; col <= 12; col++ {
			switch col {
			case 2:
				fmt.Fprintf(&doc, "<td>%s</td>", m.name)
			case 12:
				fmt.Fprintf(&doc, "<td>%s</td>", m.exp)
			default:
				doc.WriteString("<td></td>")
			}
		}
		doc.WriteString("</tr>")
	}
	doc.WriteString("</table>")
	return []byte(doc.String()), nil
}

type recordingPersister struct {
	mu       *sync.Mutex
	requests *[]store.PersistRequest
	fail     map[string]error
}

func newRecordingPersister() recordingPersister {
	return recordingPersister{mu: &sync.Mutex{}, requests: &[]store.PersistRequest{}, fail: map[string]error{}}
}

func (r recordingPersister) Persist(ctx context.Context, req store.PersistRequest) (store.PersistResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.requests = append(*r.requests, req)
	if err := r.fail[req.GuildName]; err != nil {
		return store.PersistResult{}, err
	}
	entries := make([]store.Snapshot, len(req.Items))
	return store.PersistResult{Entries: entries}, nil
}

func (r recordingPersister) guilds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, req := range *r.requests {
		out = append(out, req.GuildName)
	}
	return out
}

func TestRunIsolatesGuildFailures(t *testing.T) {
	rec := telemetry.NewRecordingAPI()
	persister := newRecordingPersister()
	p := NewPipeline(Options{
		Roster: fakeRoster{guilds: []string{"Alpha", "Beta", "Gamma"}},
		Listings: fakeListings{pages: map[string][]member{
			"Alpha": {{"Alice", "1,000"}, {"Bob", "200"}},
			"Gamma": {{"Carol", "+5"}},
		}},
		Store: persister,
	}, rec)

	report := p.Run(context.Background(), "Antica", runDate)
	require.NoError(t, report.Err)
	require.NotEmpty(t, report.RunID)
	require.Equal(t, "2024-05-01", timezone.FormatDate(report.RunDate))

	require.Len(t, report.Outcomes, 3)
	require.Equal(t, "Alpha", report.Outcomes[0].Guild)
	require.NoError(t, report.Outcomes[0].Err)
	require.Equal(t, exp.Summary{Members: 2, TotalExp: 1200}, report.Outcomes[0].Summary)
	require.Equal(t, 2, report.Outcomes[0].Written)

	require.Equal(t, "Beta", report.Outcomes[1].Guild)
	require.ErrorIs(t, report.Outcomes[1].Err, scraper.ErrFetch)

	require.Equal(t, "Gamma", report.Outcomes[2].Guild)
	require.NoError(t, report.Outcomes[2].Err)
	require.Equal(t, 1, report.Outcomes[2].Written)

	require.Equal(t, 1, report.Failed())
	require.Equal(t, 3, report.Written())

	// the failed fetch never reaches storage
	require.Equal(t, []string{"Alpha", "Gamma"}, persister.guilds())
	require.Len(t, rec.Find(telemetry.KindBroken, report_fetch_listing), 1)
}

func TestRunPersistFailure(t *testing.T) {
	rec := telemetry.NewRecordingAPI()
	persister := newRecordingPersister()
	persister.fail["Alpha"] = fmt.Errorf("%w: disk full", store.ErrPersistence)

	p := NewPipeline(Options{
		Roster: fakeRoster{guilds: []string{"Alpha", "Beta"}},
		Listings: fakeListings{pages: map[string][]member{
			"Alpha": {{"Alice", "1"}},
			"Beta":  {{"Bob", "2"}},
		}},
		Store: persister,
	}, rec)

	report := p.Run(context.Background(), "Antica", runDate)
	require.ErrorIs(t, report.Outcomes[0].Err, store.ErrPersistence)
	require.NoError(t, report.Outcomes[1].Err)
	require.Len(t, rec.Find(telemetry.KindBroken, report_persist), 1)
}

func TestRunRosterFailure(t *testing.T) {
	var calls atomic.Int32
	persister := newRecordingPersister()

	for _, roster := range []fakeRoster{
		{err: errors.New("connection refused")},
		{guilds: []string{}},
	} {
		rec := telemetry.NewRecordingAPI()
		p := NewPipeline(Options{
			Roster:   roster,
			Listings: fakeListings{calls: &calls},
			Store:    persister,
		}, rec)

		report := p.Run(context.Background(), "Antica", runDate)
		require.Error(t, report.Err)
		require.Empty(t, report.Outcomes)
		require.Equal(t, 0, report.Failed())

		p.LogReport(report)
		require.NotEmpty(t, rec.Find(telemetry.KindWarning, report_run))
	}

	require.Equal(t, int32(0), calls.Load())
	require.Empty(t, persister.guilds())
}

func TestRunWorkerPoolKeepsRosterOrder(t *testing.T) {
	var guilds []string
	pages := map[string][]member{}
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("Guild %02d", i)
		guilds = append(guilds, name)
		pages[name] = []member{{"Alice", fmt.Sprint(i)}}
	}

	var calls atomic.Int32
	persister := newRecordingPersister()
	p := NewPipeline(Options{
		Roster:   fakeRoster{guilds: guilds},
		Listings: fakeListings{pages: pages, calls: &calls},
		Store:    persister,
		Workers:  4,
	}, telemetry.NewRecordingAPI())

	report := p.Run(context.Background(), "Antica", runDate)
	require.Equal(t, int32(20), calls.Load())
	require.Len(t, report.Outcomes, 20)
	for i, o := range report.Outcomes {
		require.Equal(t, guilds[i], o.Guild)
		require.Equal(t, int64(i), o.Summary.TotalExp)
	}
	require.ElementsMatch(t, guilds, persister.guilds())
}

type panickingListings struct{}

func (panickingListings) Listing(ctx context.Context, guild string) ([]byte, error) {
	panic("boom")
}

func TestRunRecoversGuildPanic(t *testing.T) {
	rec := telemetry.NewRecordingAPI()
	p := NewPipeline(Options{
		Roster:   fakeRoster{guilds: []string{"Alpha"}},
		Listings: panickingListings{},
		Store:    newRecordingPersister(),
	}, rec)

	report := p.Run(context.Background(), "Antica", runDate)
	require.ErrorContains(t, report.Outcomes[0].Err, "boom")
	require.Len(t, rec.Find(telemetry.KindBroken, report_guild_panic), 1)
}

func TestRunEndToEnd(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "pipeline",
		DbSchema: db.Schema,
	})
	defer cleanup()

	tel := telemetry.NewRecordingAPI()
	st := store.NewStore(res.DB, chrono.FixedTime{Time: runDate}, tel)
	p := NewPipeline(Options{
		Roster: fakeRoster{guilds: []string{"Fellowship", "Broken"}},
		Listings: fakeListings{pages: map[string][]member{
			"Fellowship": {{"Alice", "1,000"}, {"", "50"}, {"Bob", "N/A"}},
		}},
		Store: st,
	}, tel)

	for i := 0; i < 2; i++ {
		report := p.Run(context.Background(), "Antica", runDate)
		require.NoError(t, report.Outcomes[0].Err)
		require.Error(t, report.Outcomes[1].Err)
	}

	day, err := st.GuildDay(context.Background(), "Fellowship", "Antica", runDate)
	require.NoError(t, err)
	require.Len(t, day, 2)
	require.Equal(t, "Alice", day[0].Player)
	require.Equal(t, int64(1000), day[0].ExpYesterday)
	require.Equal(t, "Bob", day[1].Player)
	require.Equal(t, int64(0), day[1].ExpYesterday)
}

type fakeCron struct {
	mu        *sync.Mutex
	spec      *string
	callbacks *[]func()
}

func (f fakeCron) Cron(spec string, callback func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := chrono.ValidateSpec(spec); err != nil {
		return err
	}
	*f.spec = spec
	*f.callbacks = append(*f.callbacks, callback)
	return nil
}

func TestSchedule(t *testing.T) {
	cron := fakeCron{mu: &sync.Mutex{}, spec: new(string), callbacks: &[]func(){}}
	persister := newRecordingPersister()
	p := NewPipeline(Options{
		Roster:   fakeRoster{guilds: []string{"Alpha"}},
		Listings: fakeListings{pages: map[string][]member{"Alpha": {{"Alice", "1"}}}},
		Store:    persister,
	}, telemetry.NewRecordingAPI())

	ctx, cancel := context.WithCancel(context.Background())
	err := p.Schedule(ctx, cron, "", "Antica", chrono.FixedTime{Time: runDate})
	require.NoError(t, err)
	require.Equal(t, DefaultSchedule, *cron.spec)
	require.Len(t, *cron.callbacks, 1)

	(*cron.callbacks)[0]()
	require.Equal(t, []string{"Alpha"}, persister.guilds())

	// ticks after shutdown are ignored
	cancel()
	(*cron.callbacks)[0]()
	require.Len(t, persister.guilds(), 1)

	err = p.Schedule(context.Background(), cron, "whenever", "Antica", chrono.FixedTime{Time: runDate})
	require.Error(t, err)
}
