package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/2kai2kai2/cartographer/internal/cache"
	"github.com/2kai2kai2/cartographer/internal/config"
	"github.com/2kai2kai2/cartographer/internal/conflict"
	"github.com/2kai2kai2/cartographer/internal/engine"
	"github.com/2kai2kai2/cartographer/internal/filewalker"
	"github.com/2kai2kai2/cartographer/internal/gamedate"
	"github.com/2kai2kai2/cartographer/internal/history"
	"github.com/2kai2kai2/cartographer/internal/savegame"
	"github.com/2kai2kai2/cartographer/internal/textutil"
	"github.com/2kai2kai2/cartographer/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <save>",
		Short: "Parse a save and print its model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			edits, _ := cmd.Flags().GetString("edits")
			return runParse(cmd.OutOrStdout(), args[0], edits, asJSON)
		},
	}
	cmd.Flags().Bool("json", false, "Print the full model as JSON")
	cmd.Flags().String("edits", "", "YAML file of player tag corrections")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <save>",
		Short: "Build the serialized ownership timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, _ := cmd.Flags().GetString("base-url")
			output, _ := cmd.Flags().GetString("output")
			persist, _ := cmd.Flags().GetBool("persist")
			return runHistory(cmd.OutOrStdout(), args[0], baseURL, output, persist)
		},
	}
	cmd.Flags().String("base-url", "", "Resource base URL for the playback client (default $RESOURCE_BASE_URL)")
	cmd.Flags().StringP("output", "o", "", "Write the timeline JSON to this file instead of stdout")
	cmd.Flags().Bool("persist", false, "Reuse and store timelines in PostgreSQL")
	return cmd
}

func ownerAtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owner-at <save> <territory-id> <date>",
		Short: "Print who owned and controlled a territory on a date",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOwnerAt(cmd.OutOrStdout(), args[0], args[1], args[2])
		},
	}
}

func warsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wars <save>",
		Short: "List conflicts ranked by player involvement, then casualties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			edits, _ := cmd.Flags().GetString("edits")
			return runWars(cmd.OutOrStdout(), args[0], edits, limit)
		},
	}
	cmd.Flags().Int("limit", conflict.TopConflicts, "Number of conflicts to show (0 for all)")
	cmd.Flags().String("edits", "", "YAML file of player tag corrections")
	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <directory>",
		Short: "Parse every save under a directory concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			withHistory, _ := cmd.Flags().GetBool("history")
			return runBatch(cmd.OutOrStdout(), args[0], withHistory)
		},
	}
	cmd.Flags().Bool("history", false, "Also build timelines, deduplicated by content")
	return cmd
}

// loadSave parses a save file and applies player tag corrections when editsPath is set.
func loadSave(path, editsPath string) (*savegame.SaveGame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	save, err := engine.Parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if editsPath != "" {
		edits, err := config.LoadTagEdits(editsPath)
		if err != nil {
			return nil, err
		}
		save.PlayerTags.Apply(edits)
		log.Info().Int("removed", len(edits.Remove)).Int("set", len(edits.Set)).Msg("Applied player tag edits")
	}
	return save, nil
}

// runParse handles the `parse` command.
func runParse(out io.Writer, path, editsPath string, asJSON bool) error {
	save, err := loadSave(path, editsPath)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, save)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "game\t%s\n", save.Game)
	fmt.Fprintf(tw, "date\t%s\n", save.Date)
	fmt.Fprintf(tw, "start\t%s\n", save.StartDate)
	fmt.Fprintf(tw, "nations\t%d\n", len(save.Nations))
	fmt.Fprintf(tw, "territories\t%d\n", len(save.Territories))
	fmt.Fprintf(tw, "conflicts\t%d\n", len(save.Conflicts))
	fmt.Fprintf(tw, "multiplayer\t%t\n", save.Multiplayer)
	if save.ModName != "" {
		fmt.Fprintf(tw, "mods\t%s\n", save.ModName)
	}
	fmt.Fprintf(tw, "dlc\t%s\n", strings.Join(save.DLC, ", "))
	for _, tag := range save.PlayerTags.Tags() {
		player, _ := save.PlayerTags.Get(tag)
		name := tag
		if n, ok := save.Nation(tag); ok {
			name = n.DisplayName()
		}
		fmt.Fprintf(tw, "player\t%s\t%s\n", player, name)
	}
	return tw.Flush()
}

// runHistory handles the `history` command.
func runHistory(out io.Writer, path, baseURL, output string, persist bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if baseURL == "" {
		baseURL = cfg.ResourceBaseURL
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read save: %w", err)
	}

	var store cache.Store
	if persist {
		pgPool, err := connectPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		defer pgPool.Close()
		pgStore := cache.NewPGStore(pgPool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return err
		}
		store = pgStore
	}

	timelines, err := cache.NewTimelineCache(cfg.CacheSize, store)
	if err != nil {
		return err
	}
	s, err := timelines.GetOrBuild(ctx, data, baseURL, engine.BuildHistory)
	if err != nil {
		return fmt.Errorf("build history for %s: %w", path, err)
	}

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := writeJSON(out, s); err != nil {
		return err
	}

	log.Info().
		Str("save", path).
		Str("game", s.Game.String()).
		Str("end", s.EndDate.String()).
		Int("payload_bytes", len(s.Payload)).
		Msg("Timeline built")
	return nil
}

// runOwnerAt handles the `owner-at` command.
func runOwnerAt(out io.Writer, path, rawID, rawDate string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse territory id %q: %w", rawID, err)
	}
	date, err := gamedate.Parse(rawDate)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read save: %w", err)
	}
	_, tl, err := engine.Timeline(data, path)
	if err != nil {
		return fmt.Errorf("build history for %s: %w", path, err)
	}

	owner, ok := tl.OwnerAt(id, date)
	if !ok {
		owner = "-"
	}
	controller, ok := tl.ControllerAt(id, date)
	if !ok {
		controller = "-"
	}
	fmt.Fprintf(out, "%d\t%s\towner=%s\tcontroller=%s\n", id, date, owner, controller)
	return nil
}

// runWars handles the `wars` command.
func runWars(out io.Writer, path, editsPath string, limit int) error {
	save, err := loadSave(path, editsPath)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tname\tplayers\tcasualties\tstart\tend\tresult")
	for i, r := range conflict.Rank(save, limit) {
		c := r.Conflict
		end := "ongoing"
		if !c.Active {
			end = c.End.String()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			i+1,
			c.Name,
			strings.Join(r.Players, ", "),
			r.Casualties,
			c.Start,
			end,
			c.Result,
		)
	}
	return tw.Flush()
}

type batchResult struct {
	Save     *savegame.SaveGame
	Timeline *history.Serialized
}

// runBatch handles the `batch` command.
func runBatch(out io.Writer, dir string, withHistory bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	w := filewalker.NewWalker()
	entries, err := w.Walk(dir)
	if err != nil {
		return fmt.Errorf("walk input directory: %w", err)
	}

	timelines, err := cache.NewTimelineCache(cfg.CacheSize, nil)
	if err != nil {
		return err
	}

	log.Info().Int("files", len(entries)).Int("workers", cfg.WorkerCount).Msg("Starting batch parse")

	parsePool := worker.NewPool[filewalker.FileEntry, batchResult](cfg.WorkerCount,
		func(ctx context.Context, entry filewalker.FileEntry) (batchResult, error) {
			if err := ctx.Err(); err != nil {
				return batchResult{}, err
			}
			data, err := w.ReadFile(entry)
			if err != nil {
				return batchResult{}, err
			}
			save, err := engine.Parse(data, entry.Path)
			if err != nil {
				return batchResult{}, err
			}
			res := batchResult{Save: save}
			if withHistory {
				res.Timeline, err = timelines.GetOrBuild(ctx, data, cfg.ResourceBaseURL, engine.BuildHistory)
				if err != nil {
					return batchResult{}, err
				}
			}
			return res, nil
		},
	)
	results := parsePool.Execute(ctx, entries)

	failed := 0
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "file\tgame\tdate\tnations\tconflicts\ttop conflict\tstatus")
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t%s\n", r.Input.Path, r.Input.Game, textutil.Truncate(r.Err.Error(), 160))
			continue
		}
		save := r.Result.Save
		top := "-"
		if ranked := conflict.Top(save); len(ranked) > 0 {
			top = ranked[0].Conflict.Name
		}
		status := "ok"
		if r.Result.Timeline != nil {
			status = fmt.Sprintf("ok, timeline %d bytes", len(r.Result.Timeline.Payload))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Input.Path, save.Game, save.Date, len(save.Nations), len(save.Conflicts), top, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	log.Info().
		Int("files", len(entries)).
		Int("failed", failed).
		Int("timelines", timelines.Len()).
		Msg("Batch complete")
	if failed > 0 {
		return fmt.Errorf("%d of %d saves failed", failed, len(entries))
	}
	return nil
}
