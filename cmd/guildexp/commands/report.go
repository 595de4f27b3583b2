package commands

import (
	"fmt"

	"guildexp/internal/store"
	"guildexp/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var reportGuild *string
var reportWorld *string
var reportDate *string
var reportPlayer *string

func init() {
	reportGuild = reportCmd.Flags().String("guild", "", "Show one guild on one date.")
	reportWorld = reportCmd.Flags().String("world", "", "The world of the guild, defaults to the configured world.")
	reportDate = reportCmd.Flags().String("date", "", "The date to show for --guild, defaults to today.")
	reportPlayer = reportCmd.Flags().String("player", "", "Show every stored day of a player.")
	reportCmd.MarkFlagsMutuallyExclusive("guild", "player")
	reportCmd.MarkFlagsOneRequired("guild", "player")
	rootCmd.AddCommand(reportCmd)
}

func renderSnapshots(title string, snapshots []store.Snapshot) {
	t := newTable()
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Date", "World", "Guild", "Player", "Exp yesterday"})
	var total int64
	for _, s := range snapshots {
		t.AppendRow(table.Row{timezone.FormatDate(s.RunDate), s.World, s.Guild, s.Player, s.ExpYesterday})
		total += s.ExpYesterday
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d rows", len(snapshots)), total})
	t.Render()
}

var reportCmd = &cobra.Command{
	Use:   "report (--guild <guild> [--world <world>] [--date <date>] | --player <player>)",
	Short: "Prints stored snapshots.",
	Run: func(cmd *cobra.Command, args []string) {
		env := setupApp(cmd)
		defer env.close()

		if *reportPlayer != "" {
			history, err := env.store.PlayerHistory(cmd.Context(), *reportPlayer)
			if err != nil {
				env.fatal("failed to read player history", err)
			}
			renderSnapshots(*reportPlayer, history)
			return
		}

		world := env.cfg.World
		if *reportWorld != "" {
			world = *reportWorld
		}
		date := env.time.Now()
		if *reportDate != "" {
			var err error
			date, err = store.ResolveRunDate(*reportDate)
			if err != nil {
				env.fatal("invalid --date", err)
			}
		}

		day, err := env.store.GuildDay(cmd.Context(), *reportGuild, world, date)
		if err != nil {
			env.fatal("failed to read guild day", err)
		}
		renderSnapshots(fmt.Sprintf("%s (%s) %s", *reportGuild, world, timezone.FormatDate(date)), day)
	},
}
