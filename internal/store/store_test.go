package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"guildexp/internal/components/chrono"
	"guildexp/internal/components/telemetry"
	"guildexp/internal/db"
	"guildexp/internal/exp"
	"guildexp/lib/testutil"
	"guildexp/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.May, 1, 9, 30, 0, 0, timezone.Location)

func setupStore(t *testing.T) (Store, *sql.DB, telemetry.RecordingAPI, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "store",
		DbSchema: db.Schema,
	})
	rec := telemetry.NewRecordingAPI()
	store := NewStore(res.DB, chrono.FixedTime{Time: testNow}, rec)
	return store, res.DB, rec, cleanup
}

func countRows(t *testing.T, database *sql.DB, table string) int {
	var count int
	err := database.QueryRow(fmt.Sprintf("select count(*) from %s", table)).Scan(&count)
	require.NoError(t, err)
	return count
}

type playerExp struct {
	Player string
	Exp    int64
}

func summarize(entries []Snapshot) []playerExp {
	out := make([]playerExp, len(entries))
	for i, e := range entries {
		out[i] = playerExp{Player: e.Player, Exp: e.ExpYesterday}
	}
	return out
}

func TestPersistScenario(t *testing.T) {
	store, database, _, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	runDate, err := ResolveRunDate("2024-05-01")
	require.NoError(t, err)

	req := PersistRequest{
		GuildName: "Fellowship",
		World:     "Antica",
		RunDate:   runDate,
		Items: []exp.Item{
			{Name: "Alice", ExpYesterdaySnake: "1,000"},
			{Name: "", ExpYesterdaySnake: 50},
			{Name: "Bob", ExpYesterday: 200},
		},
	}

	first, err := store.Persist(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "Fellowship", first.Guild.Name)
	require.Equal(t, "Antica", first.Guild.World)
	require.Equal(t, []playerExp{{"Alice", 1000}, {"Bob", 200}}, summarize(first.Entries))
	for _, entry := range first.Entries {
		require.Equal(t, "2024-05-01", timezone.FormatDate(entry.RunDate))
	}

	require.Equal(t, 1, countRows(t, database, "guild"))
	require.Equal(t, 2, countRows(t, database, "player"))
	require.Equal(t, 2, countRows(t, database, "daily_exp"))

	second, err := store.Persist(ctx, req)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("re-run changed the result (-first +second):\n%s", diff)
	}
	require.Equal(t, 2, countRows(t, database, "daily_exp"))
}

func TestPersistIdempotentOverwrite(t *testing.T) {
	store, database, _, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	req := PersistRequest{
		GuildName: "Red Rose",
		World:     "Antica",
		RunDate:   testNow,
		Items:     []exp.Item{{Name: "Alice", ExpYesterday: 10}},
	}
	_, err := store.Persist(ctx, req)
	require.NoError(t, err)

	// a later instant on the same local day addresses the same row
	req.RunDate = testNow.Add(time.Hour * 10)
	req.Items = []exp.Item{{Name: "Alice", ExpYesterday: 25}}
	res, err := store.Persist(ctx, req)
	require.NoError(t, err)
	require.Equal(t, int64(25), res.Entries[0].ExpYesterday)
	require.Equal(t, 1, countRows(t, database, "daily_exp"))

	// a new day is a new row
	req.RunDate = testNow.AddDate(0, 0, 1)
	_, err = store.Persist(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 2, countRows(t, database, "daily_exp"))
}

func TestPersistDuplicateInBatch(t *testing.T) {
	store, database, _, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	res, err := store.Persist(ctx, PersistRequest{
		GuildName: "Fellowship",
		World:     "Antica",
		RunDate:   testNow,
		Items: []exp.Item{
			{Name: "Alice", ExpYesterday: 1},
			{Name: " Alice ", ExpYesterday: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []playerExp{{"Alice", 1}, {"Alice", 2}}, summarize(res.Entries))
	require.Equal(t, res.Entries[0].ID, res.Entries[1].ID)
	require.Equal(t, 1, countRows(t, database, "daily_exp"))

	day, err := store.GuildDay(ctx, "Fellowship", "Antica", testNow)
	require.NoError(t, err)
	require.Equal(t, []playerExp{{"Alice", 2}}, summarize(day))
}

func TestPersistNonNumeric(t *testing.T) {
	store, _, rec, cleanup := setupStore(t)
	defer cleanup()

	res, err := store.Persist(context.Background(), PersistRequest{
		GuildName: "Fellowship",
		World:     "Antica",
		RunDate:   testNow,
		Items:     []exp.Item{{Name: "Carol", ExpYesterday: "N/A"}},
	})
	require.NoError(t, err)
	require.Equal(t, []playerExp{{"Carol", 0}}, summarize(res.Entries))
	require.Len(t, rec.Find(telemetry.KindWarning, report_non_numeric), 1)
}

func TestPersistSkipsNonStringNames(t *testing.T) {
	store, database, _, cleanup := setupStore(t)
	defer cleanup()

	var items []exp.Item
	err := json.Unmarshal([]byte(`[
		{"name": 5, "exp_yesterday": 1},
		{"name": "Bob", "expYesterday": 2}
	]`), &items)
	require.NoError(t, err)
	require.Len(t, items, 2)

	res, err := store.Persist(context.Background(), PersistRequest{
		GuildName: "Fellowship",
		World:     "Antica",
		RunDate:   testNow,
		Items:     items,
	})
	require.NoError(t, err)
	require.Equal(t, []playerExp{{"Bob", 2}}, summarize(res.Entries))
	require.Equal(t, 1, countRows(t, database, "daily_exp"))
}

func TestPersistEmptyBatch(t *testing.T) {
	store, database, _, cleanup := setupStore(t)
	defer cleanup()

	res, err := store.Persist(context.Background(), PersistRequest{
		GuildName: "Fellowship",
		World:     "Antica",
		RunDate:   testNow,
		Items:     []exp.Item{},
	})
	require.NoError(t, err)
	require.Empty(t, res.Entries)
	require.Equal(t, 1, countRows(t, database, "guild"))
}

func TestPersistValidation(t *testing.T) {
	store, database, _, cleanup := setupStore(t)
	defer cleanup()

	// a closed database turns any storage access into ErrPersistence, so
	// ErrInvalidArgument proves nothing was touched
	require.NoError(t, database.Close())

	valid := PersistRequest{
		GuildName: "Fellowship",
		World:     "Antica",
		RunDate:   testNow,
		Items:     []exp.Item{{Name: "Alice", ExpYesterday: 1}},
	}

	testCases := []struct {
		name   string
		modify func(r *PersistRequest)
	}{
		{"nil items", func(r *PersistRequest) { r.Items = nil }},
		{"blank guild", func(r *PersistRequest) { r.GuildName = "  " }},
		{"blank world", func(r *PersistRequest) { r.World = "" }},
		{"missing run date", func(r *PersistRequest) { r.RunDate = time.Time{} }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.modify(&req)
			_, err := store.Persist(context.Background(), req)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	_, err := store.Persist(context.Background(), valid)
	require.ErrorIs(t, err, ErrPersistence)
	require.NotErrorIs(t, err, ErrInvalidArgument)
}

func TestPersistRollback(t *testing.T) {
	store, database, rec, cleanup := setupStore(t)
	defer cleanup()

	_, err := database.Exec("DROP TABLE daily_exp")
	require.NoError(t, err)

	_, err = store.Persist(context.Background(), PersistRequest{
		GuildName: "Fellowship",
		World:     "Antica",
		RunDate:   testNow,
		Items:     []exp.Item{{Name: "Alice", ExpYesterday: 1}},
	})
	require.ErrorIs(t, err, ErrPersistence)
	require.NotEmpty(t, rec.Find(telemetry.KindBroken, report_db_query))

	// the guild and player inserted before the failure are gone too
	require.Equal(t, 0, countRows(t, database, "guild"))
	require.Equal(t, 0, countRows(t, database, "player"))
}

func TestReadSide(t *testing.T) {
	store, _, _, cleanup := setupStore(t)
	defer cleanup()

	ctx := context.Background()
	alice := testutil.RandomString(t, 10)
	persist := func(guild string, date time.Time, items ...exp.Item) {
		_, err := store.Persist(ctx, PersistRequest{
			GuildName: guild,
			World:     "Antica",
			RunDate:   date,
			Items:     items,
		})
		require.NoError(t, err)
	}

	persist("Fellowship", testNow,
		exp.Item{Name: alice, ExpYesterday: 100},
		exp.Item{Name: "Bob", ExpYesterday: 300},
		exp.Item{Name: "Carol", ExpYesterday: 100},
	)
	persist("Fellowship", testNow.AddDate(0, 0, 1), exp.Item{Name: alice, ExpYesterday: 50})
	persist("Red Rose", testNow.AddDate(0, 0, -1), exp.Item{Name: alice, ExpYesterday: 7})

	day, err := store.GuildDay(ctx, "Fellowship", "Antica", testNow)
	require.NoError(t, err)
	expected := []playerExp{{"Bob", 300}, {alice, 100}, {"Carol", 100}}
	if alice > "Carol" {
		expected = []playerExp{{"Bob", 300}, {"Carol", 100}, {alice, 100}}
	}
	require.Equal(t, expected, summarize(day))

	history, err := store.PlayerHistory(ctx, alice)
	require.NoError(t, err)
	got := make([]string, len(history))
	for i, s := range history {
		got[i] = fmt.Sprintf("%s %s %d", timezone.FormatDate(s.RunDate), s.Guild, s.ExpYesterday)
	}
	require.Equal(t, []string{
		"2024-04-30 Red Rose 7",
		"2024-05-01 Fellowship 100",
		"2024-05-02 Fellowship 50",
	}, got)

	empty, err := store.PlayerHistory(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestSnapshotTimestamps(t *testing.T) {
	store, _, _, cleanup := setupStore(t)
	defer cleanup()

	res, err := store.Persist(context.Background(), PersistRequest{
		GuildName: "Fellowship",
		World:     "Antica",
		RunDate:   testNow,
		Items:     []exp.Item{{Name: "Alice", ExpYesterday: 1}},
	})
	require.NoError(t, err)

	want := Snapshot{
		Player:       "Alice",
		Guild:        "Fellowship",
		World:        "Antica",
		RunDate:      timezone.StartOfDay(testNow),
		ExpYesterday: 1,
		CreatedAt:    time.Unix(testNow.Unix(), 0),
		UpdatedAt:    time.Unix(testNow.Unix(), 0),
	}
	diff := cmp.Diff(
		want, res.Entries[0],
		cmpopts.IgnoreFields(Snapshot{}, "ID"),
		cmpopts.EquateApproxTime(0),
	)
	require.Empty(t, diff)
}
