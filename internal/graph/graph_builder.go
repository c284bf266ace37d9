package graph

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/2kai2kai2/cartographer/internal/savegame"
	"github.com/2kai2kai2/cartographer/internal/worker"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Relationship types written to the graph.
const (
	SubjectOf  = "SUBJECT_OF"
	AlliedWith = "ALLIED_WITH"
	FoughtIn   = "FOUGHT_IN"
	Plays      = "PLAYS"
)

// writeBatch is how many rows go into one UNWIND statement.
const writeBatch = 500

// NationNode is one nation of the exported save.
type NationNode struct {
	Tag  string
	Name string
}

// ConflictNode is one war of the exported save, keyed by its position in the save.
type ConflictNode struct {
	// Key is the conflict's position in the save, since names repeat.
	Key        string
	Name       string
	Active     bool
	Casualties int64
}

// Edge is a directed relationship between two tags, or from a tag to a conflict key
// for FOUGHT_IN, or from a player name to a tag for PLAYS.
type Edge struct {
	From string
	Type string
	To   string
	Side string
}

// Snapshot is everything one save contributes to the graph.
type Snapshot struct {
	SaveID    string
	Game      savegame.Game
	Nations   []NationNode
	Conflicts []ConflictNode
	Edges     []Edge
}

// Plan derives the nodes and edges for a save. Alliances are written once per pair;
// subject links come from both the subject's overlord field and the overlord's subject list.
func Plan(saveID string, save *savegame.SaveGame) *Snapshot {
	s := &Snapshot{SaveID: saveID, Game: save.Game}
	seen := make(map[Edge]bool)
	add := func(e Edge) {
		if e.From == "" || e.To == "" || e.From == e.To || seen[e] {
			return
		}
		seen[e] = true
		s.Edges = append(s.Edges, e)
	}

	for _, n := range save.Nations {
		s.Nations = append(s.Nations, NationNode{Tag: n.Tag, Name: n.DisplayName()})
		add(Edge{From: n.Tag, Type: SubjectOf, To: n.Overlord})
		for _, sub := range n.Subjects {
			add(Edge{From: sub, Type: SubjectOf, To: n.Tag})
		}
		for _, ally := range n.Allies {
			a, b := n.Tag, ally
			if b < a {
				a, b = b, a
			}
			add(Edge{From: a, Type: AlliedWith, To: b})
		}
	}

	for i, c := range save.Conflicts {
		key := strconv.Itoa(i)
		s.Conflicts = append(s.Conflicts, ConflictNode{Key: key, Name: c.Name, Active: c.Active, Casualties: c.Casualties})
		for _, p := range c.Participants {
			add(Edge{From: p.Tag, Type: FoughtIn, To: key, Side: p.Side.String()})
		}
	}

	if save.PlayerTags != nil {
		for _, tag := range save.PlayerTags.Tags() {
			player, _ := save.PlayerTags.Get(tag)
			add(Edge{From: player, Type: Plays, To: tag})
		}
	}
	return s
}

// GraphBuilder writes save snapshots to Neo4j.
type GraphBuilder struct {
	driver neo4j.DriverWithContext
}

// NewGraphBuilder creates a builder over an open driver.
func NewGraphBuilder(driver neo4j.DriverWithContext) *GraphBuilder {
	return &GraphBuilder{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (gb *GraphBuilder) EnsureSchema(ctx context.Context) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (n:Nation) REQUIRE (n.save, n.tag) IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Conflict) REQUIRE (c.save, c.key) IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (p:Player) REQUIRE p.name IS UNIQUE",
	}
	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// Export replaces whatever the graph holds for the snapshot's save.
func (gb *GraphBuilder) Export(ctx context.Context, snap *Snapshot) error {
	session := gb.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	if _, err := session.Run(ctx, `
		MATCH (n {save: $save})
		WHERE n:Nation OR n:Conflict
		DETACH DELETE n
	`, map[string]any{"save": snap.SaveID}); err != nil {
		return fmt.Errorf("clear save %s: %w", snap.SaveID, err)
	}

	nations := make([]any, 0, len(snap.Nations))
	for _, n := range snap.Nations {
		nations = append(nations, map[string]any{"tag": n.Tag, "name": n.Name})
	}
	if err := gb.unwind(ctx, session, `
		UNWIND $rows AS row
		MERGE (n:Nation {save: $save, tag: row.tag})
		SET n.name = row.name, n.game = $game
	`, snap, nations); err != nil {
		return fmt.Errorf("upsert nations: %w", err)
	}

	conflicts := make([]any, 0, len(snap.Conflicts))
	for _, c := range snap.Conflicts {
		conflicts = append(conflicts, map[string]any{
			"key": c.Key, "name": c.Name, "active": c.Active, "casualties": c.Casualties,
		})
	}
	if err := gb.unwind(ctx, session, `
		UNWIND $rows AS row
		MERGE (c:Conflict {save: $save, key: row.key})
		SET c.name = row.name, c.active = row.active, c.casualties = row.casualties
	`, snap, conflicts); err != nil {
		return fmt.Errorf("upsert conflicts: %w", err)
	}

	byType := make(map[string][]any)
	for _, e := range snap.Edges {
		byType[e.Type] = append(byType[e.Type], map[string]any{"from": e.From, "to": e.To, "side": e.Side})
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		if err := gb.unwind(ctx, session, edgeStatement(t), snap, byType[t]); err != nil {
			return fmt.Errorf("create %s edges: %w", t, err)
		}
	}

	log.Info().
		Str("save", snap.SaveID).
		Int("nations", len(snap.Nations)).
		Int("conflicts", len(snap.Conflicts)).
		Int("edges", len(snap.Edges)).
		Msg("Exported save to graph")
	return nil
}

func (gb *GraphBuilder) unwind(ctx context.Context, session neo4j.SessionWithContext, cypher string, snap *Snapshot, rows []any) error {
	for _, batch := range worker.Batch(rows, writeBatch) {
		_, err := session.Run(ctx, cypher, map[string]any{
			"rows": batch,
			"save": snap.SaveID,
			"game": string(snap.Game),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// edgeStatement returns the UNWIND statement for one relationship type.
// Nations referenced only by an edge (e.g. annexed overlords) are created on the fly.
func edgeStatement(relType string) string {
	switch relType {
	case FoughtIn:
		return `
			UNWIND $rows AS row
			MERGE (n:Nation {save: $save, tag: row.from})
			WITH n, row
			MATCH (c:Conflict {save: $save, key: row.to})
			MERGE (n)-[r:FOUGHT_IN]->(c)
			SET r.side = row.side`
	case Plays:
		return `
			UNWIND $rows AS row
			MERGE (p:Player {name: row.from})
			MERGE (n:Nation {save: $save, tag: row.to})
			MERGE (p)-[:PLAYS {save: $save}]->(n)`
	default:
		return fmt.Sprintf(`
			UNWIND $rows AS row
			MERGE (a:Nation {save: $save, tag: row.from})
			MERGE (b:Nation {save: $save, tag: row.to})
			MERGE (a)-[:%s]->(b)`, relType)
	}
}
