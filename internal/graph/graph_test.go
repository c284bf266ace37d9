package graph

import (
	"context"
	"os"
	"testing"

	"github.com/2kai2kai2/cartographer/internal/savegame"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSave() *savegame.SaveGame {
	players := savegame.NewPlayerTags()
	players.Set("SWE", "alice")

	return &savegame.SaveGame{
		Game: savegame.EU4,
		Nations: []savegame.Nation{
			{Tag: "SWE", Name: "Sweden", Subjects: []string{"NOR"}, Allies: []string{"FRA"}},
			{Tag: "NOR", Overlord: "SWE"},
			{Tag: "FRA", Allies: []string{"SWE"}},
		},
		Conflicts: []savegame.Conflict{{
			Name:       "Nordic War",
			Active:     true,
			Casualties: 30,
			Participants: []savegame.Participant{
				{Tag: "SWE", Side: savegame.Attacker},
				{Tag: "DAN", Side: savegame.Defender},
			},
		}},
		PlayerTags: players,
	}
}

func TestPlan(t *testing.T) {
	snap := Plan("save-1", sampleSave())

	assert.Equal(t, "save-1", snap.SaveID)
	assert.Equal(t, savegame.EU4, snap.Game)
	require.Len(t, snap.Nations, 3)
	assert.Equal(t, NationNode{Tag: "SWE", Name: "Sweden"}, snap.Nations[0])
	assert.Equal(t, []ConflictNode{{Key: "0", Name: "Nordic War", Active: true, Casualties: 30}}, snap.Conflicts)

	assert.Equal(t, []Edge{
		{From: "NOR", Type: SubjectOf, To: "SWE"},
		{From: "FRA", Type: AlliedWith, To: "SWE"},
		{From: "SWE", Type: FoughtIn, To: "0", Side: "attacker"},
		{From: "DAN", Type: FoughtIn, To: "0", Side: "defender"},
		{From: "alice", Type: Plays, To: "SWE"},
	}, snap.Edges)
}

func TestPlanWithoutPlayers(t *testing.T) {
	save := sampleSave()
	save.PlayerTags = nil
	for _, e := range Plan("x", save).Edges {
		assert.NotEqual(t, Plays, e.Type)
	}
}

func TestEdgeStatementUsesType(t *testing.T) {
	assert.Contains(t, edgeStatement(AlliedWith), "[:ALLIED_WITH]")
	assert.Contains(t, edgeStatement(SubjectOf), "[:SUBJECT_OF]")
	assert.Contains(t, edgeStatement(FoughtIn), "r.side = row.side")
}

func TestExportAndNeighbors(t *testing.T) {
	uri := os.Getenv("CARTOGRAPHER_TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("CARTOGRAPHER_TEST_NEO4J_URI not set")
	}
	ctx := context.Background()
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(os.Getenv("NEO4J_USER"), os.Getenv("NEO4J_PASSWORD"), ""))
	require.NoError(t, err)
	defer driver.Close(ctx)

	gb := NewGraphBuilder(driver)
	require.NoError(t, gb.EnsureSchema(ctx))
	require.NoError(t, gb.Export(ctx, Plan("graph-test", sampleSave())))
	require.NoError(t, gb.Export(ctx, Plan("graph-test", sampleSave())), "export is repeatable")

	nbs, err := NewGraphQuerier(driver).Neighbors(ctx, "graph-test", "SWE")
	require.NoError(t, err)
	assert.Contains(t, nbs, Neighbor{From: "NOR", Type: SubjectOf, To: "SWE"})
	assert.Contains(t, nbs, Neighbor{From: "SWE", Type: FoughtIn, To: "Nordic War", Side: "attacker"})
	assert.Contains(t, nbs, Neighbor{From: "alice", Type: Plays, To: "SWE"})
}
