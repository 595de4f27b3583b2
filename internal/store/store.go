package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"guildexp/internal/assert"
	"guildexp/internal/components/chrono"
	"guildexp/internal/components/telemetry"
	"guildexp/internal/db"
	"guildexp/internal/exp"
	"guildexp/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("guildexp/internal/store")

const (
	report_db_query     = "db.query"
	report_persist      = "persist"
	report_skipped_item = "persist.skipped-item"
	report_non_numeric  = "persist.non-numeric-exp"
)

type Store struct {
	db     *db.Queries
	makeTx db.MakeTx
	time   chrono.TimeAPI
	tel    telemetry.API
}

func NewStore(database *sql.DB, time chrono.TimeAPI, tel telemetry.API) Store {
	assert.NotNil(database)
	assert.NotNil(time)
	assert.NotNil(tel)

	return Store{
		db:     db.New(database),
		makeTx: db.NewMakeTx(database),
		time:   time,
		tel:    telemetry.NewScopedAPI("store", tel),
	}
}

type Guild struct {
	ID    int64
	Name  string
	World string
}

// Snapshot is one player's experience for a guild on a run date.
type Snapshot struct {
	ID           int64
	Player       string
	Guild        string
	World        string
	RunDate      time.Time
	ExpYesterday int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PersistRequest struct {
	GuildName string
	World     string
	// only the calendar day (in the server save timezone) is kept
	RunDate time.Time
	Items   []exp.Item
}

type PersistResult struct {
	Guild Guild
	// one entry per persisted item in processing order, a player that appears
	// twice in a batch appears twice here while the last value is stored
	Entries []Snapshot
}

func (r PersistRequest) validate() error {
	if r.Items == nil {
		return fmt.Errorf("%w: items must be a list", ErrInvalidArgument)
	}
	if strings.TrimSpace(r.GuildName) == "" {
		return fmt.Errorf("%w: guild name is empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(r.World) == "" {
		return fmt.Errorf("%w: world is empty", ErrInvalidArgument)
	}
	if r.RunDate.IsZero() {
		return fmt.Errorf("%w: run date is missing", ErrInvalidArgument)
	}
	return nil
}

func parseRunDateColumn(s string) time.Time {
	t, err := timezone.ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s Store) fail(span trace.Span, err error, params ...any) error {
	s.tel.ReportBroken(report_db_query, append([]any{err}, params...)...)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// Persist upserts the guild, every named player and one daily row per
// player in a single transaction. Re-running the same request leaves the
// stored state unchanged except for updated_at.
func (s Store) Persist(ctx context.Context, req PersistRequest) (PersistResult, error) {
	ctx, span := tracer.Start(ctx, "store:persist")
	defer span.End()

	err := req.validate()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PersistResult{}, err
	}

	guildName := strings.TrimSpace(req.GuildName)
	world := strings.TrimSpace(req.World)
	runDate := timezone.FormatDate(req.RunDate)
	now := s.time.Now()

	span.SetAttributes(
		attribute.String("guild", guildName),
		attribute.String("world", world),
		attribute.String("run_date", runDate),
		attribute.Int("items", len(req.Items)),
	)

	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return PersistResult{}, s.fail(span, fmt.Errorf("make tx: %w", err))
	}
	defer discard()

	guildParams := db.CreateGuildParams{Name: guildName, World: world, CreatedAt: now.Unix()}
	err = tx.CreateGuild(ctx, guildParams)
	if err != nil {
		return PersistResult{}, s.fail(span, err, "CreateGuild", guildParams)
	}
	guild, err := tx.GetGuild(ctx, db.GetGuildParams{Name: guildName, World: world})
	if err != nil {
		return PersistResult{}, s.fail(span, err, "GetGuild", guildName, world)
	}

	result := PersistResult{
		Guild:   Guild{ID: guild.ID, Name: guild.Name, World: guild.World},
		Entries: []Snapshot{},
	}

	for i, item := range req.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			s.tel.ReportDebug(report_skipped_item, guildName, i)
			continue
		}

		err = tx.CreatePlayer(ctx, db.CreatePlayerParams{Name: name, CreatedAt: now.Unix()})
		if err != nil {
			return PersistResult{}, s.fail(span, err, "CreatePlayer", name)
		}
		player, err := tx.GetPlayer(ctx, name)
		if err != nil {
			return PersistResult{}, s.fail(span, err, "GetPlayer", name)
		}

		value, ok := exp.Normalize(item)
		if !ok {
			s.tel.ReportWarning(report_non_numeric, guildName, name, item.ExpYesterday, item.ExpYesterdaySnake)
		}

		upsert := db.UpsertDailyExpParams{
			PlayerID:     player.ID,
			GuildID:      guild.ID,
			RunDate:      runDate,
			ExpYesterday: value,
			CreatedAt:    now.Unix(),
			UpdatedAt:    now.Unix(),
		}
		row, err := tx.UpsertDailyExp(ctx, upsert)
		if err != nil {
			return PersistResult{}, s.fail(span, err, "UpsertDailyExp", upsert)
		}

		result.Entries = append(result.Entries, Snapshot{
			ID:           row.ID,
			Player:       player.Name,
			Guild:        guild.Name,
			World:        guild.World,
			RunDate:      parseRunDateColumn(row.RunDate),
			ExpYesterday: row.ExpYesterday,
			CreatedAt:    time.Unix(row.CreatedAt, 0),
			UpdatedAt:    time.Unix(row.UpdatedAt, 0),
		})
	}

	err = commit()
	if err != nil {
		return PersistResult{}, s.fail(span, fmt.Errorf("commit: %w", err))
	}

	s.tel.ReportDebug(report_persist, guildName, world, runDate, len(result.Entries))
	span.SetAttributes(attribute.Int("entries", len(result.Entries)))
	return result, nil
}

// GuildDay returns the stored snapshots of a guild for one date, highest
// experience first.
func (s Store) GuildDay(ctx context.Context, guild, world string, date time.Time) ([]Snapshot, error) {
	params := db.GetGuildDayParams{
		Name:    strings.TrimSpace(guild),
		World:   strings.TrimSpace(world),
		RunDate: timezone.FormatDate(date),
	}
	rows, err := s.db.GetGuildDay(ctx, params)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetGuildDay", params)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	out := make([]Snapshot, len(rows))
	for i, r := range rows {
		out[i] = Snapshot{
			ID:           r.ID,
			Player:       r.Player,
			Guild:        params.Name,
			World:        params.World,
			RunDate:      parseRunDateColumn(r.RunDate),
			ExpYesterday: r.ExpYesterday,
			CreatedAt:    time.Unix(r.CreatedAt, 0),
			UpdatedAt:    time.Unix(r.UpdatedAt, 0),
		}
	}
	return out, nil
}

// PlayerHistory returns every snapshot of a player across guilds, oldest first.
func (s Store) PlayerHistory(ctx context.Context, player string) ([]Snapshot, error) {
	player = strings.TrimSpace(player)
	rows, err := s.db.GetPlayerHistory(ctx, player)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetPlayerHistory", player)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	out := make([]Snapshot, len(rows))
	for i, r := range rows {
		out[i] = Snapshot{
			ID:           r.ID,
			Player:       player,
			Guild:        r.Guild,
			World:        r.World,
			RunDate:      parseRunDateColumn(r.RunDate),
			ExpYesterday: r.ExpYesterday,
			CreatedAt:    time.Unix(r.CreatedAt, 0),
			UpdatedAt:    time.Unix(r.UpdatedAt, 0),
		}
	}
	return out, nil
}
