package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Neighbor is one relationship touching the queried nation.
type Neighbor struct {
	From string
	Type string
	To   string
	// Side is set for FOUGHT_IN edges.
	Side string
}

// GraphQuerier reads the diplomacy graph.
type GraphQuerier struct {
	driver neo4j.DriverWithContext
}

// NewGraphQuerier creates a querier over an open driver.
func NewGraphQuerier(driver neo4j.DriverWithContext) *GraphQuerier {
	return &GraphQuerier{driver: driver}
}

// Neighbors returns every 1-hop relationship of a nation in one save. Conflicts are
// reported by name and players by player name.
func (gq *GraphQuerier) Neighbors(ctx context.Context, saveID, tag string) ([]Neighbor, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (n:Nation {save: $save, tag: $tag})-[r]->(m)
		RETURN n.tag AS from_node, type(r) AS rel_type, coalesce(m.tag, m.name) AS to_node, r.side AS side
		UNION
		MATCH (m)-[r]->(n:Nation {save: $save, tag: $tag})
		RETURN coalesce(m.tag, m.name) AS from_node, type(r) AS rel_type, n.tag AS to_node, r.side AS side
	`, map[string]any{"save": saveID, "tag": tag})
	if err != nil {
		return nil, fmt.Errorf("query neighbors of %s: %w", tag, err)
	}

	var out []Neighbor
	for result.Next(ctx) {
		record := result.Record()
		from, _ := record.Get("from_node")
		relType, _ := record.Get("rel_type")
		to, _ := record.Get("to_node")
		side, _ := record.Get("side")

		nb := Neighbor{
			From: fmt.Sprintf("%v", from),
			Type: fmt.Sprintf("%v", relType),
			To:   fmt.Sprintf("%v", to),
		}
		if side != nil {
			nb.Side = fmt.Sprintf("%v", side)
		}
		out = append(out, nb)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read neighbors of %s: %w", tag, err)
	}

	log.Debug().Str("tag", tag).Int("relationships", len(out)).Msg("Graph query complete")
	return out, nil
}

// Saves lists the save ids present in the graph.
func (gq *GraphQuerier) Saves(ctx context.Context) ([]string, error) {
	session := gq.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (n:Nation)
		RETURN DISTINCT n.save AS save
		ORDER BY save
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}

	var saves []string
	for result.Next(ctx) {
		save, _ := result.Record().Get("save")
		saves = append(saves, fmt.Sprintf("%v", save))
	}
	return saves, result.Err()
}
