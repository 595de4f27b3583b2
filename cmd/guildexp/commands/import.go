package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"guildexp/internal/exp"
	"guildexp/internal/store"

	"github.com/spf13/cobra"
)

var importGuild *string
var importWorld *string
var importDate *string
var importItems *string

func init() {
	importGuild = importCmd.Flags().String("guild", "", "The guild the members belong to.")
	importWorld = importCmd.Flags().String("world", "", "The world of the guild, defaults to the configured world.")
	importDate = importCmd.Flags().String("date", "", "The run date (YYYY-MM-DD or RFC 3339).")
	importItems = importCmd.Flags().String("items", "", "A JSON file holding an array of {name, expYesterday | exp_yesterday}.")
	importCmd.MarkFlagRequired("guild")
	importCmd.MarkFlagRequired("date")
	importCmd.MarkFlagRequired("items")
	rootCmd.AddCommand(importCmd)
}

// readItems decodes a member array, numbers are kept as json.Number so large
// values are not rounded through float64.
func readItems(path string) ([]exp.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder := json.NewDecoder(f)
	decoder.UseNumber()
	var items []exp.Item
	err = decoder.Decode(&items)
	if err != nil {
		return nil, fmt.Errorf("%w: items must be a JSON array: %w", store.ErrInvalidArgument, err)
	}
	return items, nil
}

var importCmd = &cobra.Command{
	Use:   "import --guild <guild> [--world <world>] --date <date> --items <file.json>",
	Short: "Persists a member list for a guild and date, for backfills and testing.",
	Run: func(cmd *cobra.Command, args []string) {
		env := setupApp(cmd)
		defer env.close()

		world := env.cfg.World
		if *importWorld != "" {
			world = *importWorld
		}
		date, err := store.ResolveRunDate(*importDate)
		if err != nil {
			env.fatal("invalid --date", err)
		}
		items, err := readItems(*importItems)
		if err != nil {
			env.fatal("failed to read items", err)
		}

		res, err := env.store.Persist(cmd.Context(), store.PersistRequest{
			GuildName: *importGuild,
			World:     world,
			RunDate:   date,
			Items:     items,
		})
		if err != nil {
			env.fatal("failed to persist", err)
		}

		summary := exp.Summarize(items)
		slog.Info(
			"imported",
			"guild", res.Guild.Name,
			"world", res.Guild.World,
			"members", summary.Members,
			"total_exp", summary.TotalExp,
			"written", len(res.Entries),
		)
	},
}
