package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/2kai2kai2/cartographer/internal/config"
	"github.com/2kai2kai2/cartographer/internal/graph"
	"github.com/2kai2kai2/cartographer/internal/textutil"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export diplomacy to Neo4j and query it",
	}

	exportCmd := &cobra.Command{
		Use:   "export <save>",
		Short: "Write nations, alliances, subjects, wars and players of a save to Neo4j",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			edits, _ := cmd.Flags().GetString("edits")
			return runGraphExport(cmd.OutOrStdout(), args[0], id, edits)
		},
	}
	exportCmd.Flags().String("id", "", "Save id in the graph (default: content hash)")
	exportCmd.Flags().String("edits", "", "YAML file of player tag corrections")

	neighborsCmd := &cobra.Command{
		Use:   "neighbors <save-id> <tag>",
		Short: "List the relationships of one nation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphNeighbors(cmd.OutOrStdout(), args[0], args[1])
		},
	}

	cmd.AddCommand(exportCmd, neighborsCmd)
	return cmd
}

// runGraphExport handles the `graph export` command.
func runGraphExport(out io.Writer, path, saveID, editsPath string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	save, err := loadSave(path, editsPath)
	if err != nil {
		return err
	}
	if saveID == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read save: %w", err)
		}
		saveID = textutil.HashBytes(data)[:16]
	}

	driver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	gb := graph.NewGraphBuilder(driver)
	if err := gb.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}
	if err := gb.Export(ctx, graph.Plan(saveID, save)); err != nil {
		return fmt.Errorf("export graph: %w", err)
	}

	fmt.Fprintln(out, saveID)
	return nil
}

// runGraphNeighbors handles the `graph neighbors` command.
func runGraphNeighbors(out io.Writer, saveID, tag string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	driver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	neighbors, err := graph.NewGraphQuerier(driver).Neighbors(ctx, saveID, tag)
	if err != nil {
		return err
	}
	if len(neighbors) == 0 {
		log.Warn().Str("save", saveID).Str("tag", tag).Msg("No relationships found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, n := range neighbors {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.From, n.Type, n.To, n.Side)
	}
	return tw.Flush()
}
