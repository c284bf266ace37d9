package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/2kai2kai2/cartographer/internal/config"
	"github.com/2kai2kai2/cartographer/internal/reservations"
	"github.com/2kai2kai2/cartographer/internal/savegame"

	"github.com/spf13/cobra"
)

func reservationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reservations",
		Aliases: []string{"res"},
		Short:   "Manage country reservations for multiplayer games",
	}

	newGame := &cobra.Command{
		Use:   "new-game",
		Short: "Open a new reservation sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			game, _ := cmd.Flags().GetString("game")
			var serverID *int64
			if cmd.Flags().Changed("server") {
				id, _ := cmd.Flags().GetInt64("server")
				serverID = &id
			}
			return withStore(func(ctx context.Context, s *reservations.Store) error {
				g, err := s.CreateGame(ctx, serverID, savegame.Game(game))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), g.ID)
				return nil
			})
		},
	}
	newGame.Flags().Int64("server", 0, "Server the game belongs to")
	newGame.Flags().String("game", string(savegame.EU4), "Game type: eu4 or stellaris")

	reserve := &cobra.Command{
		Use:   "reserve <game-id> <user-id> <tag>",
		Short: "Reserve a country tag; an existing reservation of the user moves",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, userID, err := parseIDs(args[0], args[1])
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, s *reservations.Store) error {
				rs, err := s.Reserve(ctx, gameID, userID, args[2])
				if err != nil {
					return err
				}
				return printReservations(cmd.OutOrStdout(), rs)
			})
		},
	}

	unreserve := &cobra.Command{
		Use:   "unreserve <game-id> <user-id>",
		Short: "Drop a user's reservation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, userID, err := parseIDs(args[0], args[1])
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, s *reservations.Store) error {
				rs, err := s.Unreserve(ctx, gameID, userID)
				if err != nil {
					return err
				}
				return printReservations(cmd.OutOrStdout(), rs)
			})
		},
	}

	list := &cobra.Command{
		Use:   "list <game-id>",
		Short: "List a game's reservations in the order they were made",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse game id %q: %w", args[0], err)
			}
			return withStore(func(ctx context.Context, s *reservations.Store) error {
				if _, err := s.GetGame(ctx, gameID); err != nil {
					return err
				}
				rs, err := s.List(ctx, gameID)
				if err != nil {
					return err
				}
				return printReservations(cmd.OutOrStdout(), rs)
			})
		},
	}

	export := &cobra.Command{
		Use:   "export [game-id]",
		Short: "Export reservations to TSV or JSON (all games when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("export")
			output, _ := cmd.Flags().GetString("output")
			var gameID int64
			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("parse game id %q: %w", args[0], err)
				}
				gameID = id
			}
			return withStore(func(ctx context.Context, s *reservations.Store) error {
				switch format {
				case "json":
					return s.ExportJSON(ctx, gameID, output+".json")
				case "tsv":
					return s.ExportTSV(ctx, gameID, output+".tsv")
				default:
					return fmt.Errorf("unknown export format %q", format)
				}
			})
		},
	}
	export.Flags().String("export", "tsv", "Export format: tsv or json")
	export.Flags().String("output", "reservations", "Output path (without extension)")

	deleteGame := &cobra.Command{
		Use:   "delete-game <game-id>",
		Short: "Delete a game and all of its reservations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse game id %q: %w", args[0], err)
			}
			return withStore(func(ctx context.Context, s *reservations.Store) error {
				return s.DeleteGame(ctx, gameID)
			})
		},
	}

	cmd.AddCommand(newGame, reserve, unreserve, list, export, deleteGame)
	return cmd
}

// withStore connects to PostgreSQL, makes sure the schema exists and runs fn.
func withStore(fn func(ctx context.Context, s *reservations.Store) error) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	pgPool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	store := reservations.NewStore(pgPool)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	return fn(ctx, store)
}

func parseIDs(rawGame, rawUser string) (int64, int64, error) {
	gameID, err := strconv.ParseInt(rawGame, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse game id %q: %w", rawGame, err)
	}
	userID, err := strconv.ParseInt(rawUser, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse user id %q: %w", rawUser, err)
	}
	return gameID, userID, nil
}

func printReservations(out io.Writer, rs []reservations.Reservation) error {
	if len(rs) == 0 {
		_, err := fmt.Fprintln(out, "none")
		return err
	}
	for _, r := range rs {
		if _, err := fmt.Fprintln(out, r); err != nil {
			return err
		}
	}
	return nil
}
