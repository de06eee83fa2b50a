package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clasharena/esp-manager/models"
)

func TestRankOrdersByKeys(t *testing.T) {
	teams := []models.Team{
		{ID: 1, Name: "Alpha", TotalPoints: 20, Booyahs: 0, PlacementPoints: 15, KillPoints: 5},
		{ID: 2, Name: "Bravo", TotalPoints: 25, Booyahs: 1, PlacementPoints: 12, KillPoints: 13},
		{ID: 3, Name: "Charlie", TotalPoints: 20, Booyahs: 1, PlacementPoints: 10, KillPoints: 10},
	}

	ranked := Rank(teams)
	require.Len(t, ranked, 3)
	// Bravo leads on points; Charlie beats Alpha on booyahs despite equal
	// totals and fewer placement points.
	assert.Equal(t, []int{2, 3, 1}, []int{ranked[0].ID, ranked[1].ID, ranked[2].ID})
}

func TestRankTiebreakChain(t *testing.T) {
	teams := []models.Team{
		{ID: 1, TotalPoints: 30, Booyahs: 2, PlacementPoints: 20, KillPoints: 10},
		{ID: 2, TotalPoints: 30, Booyahs: 2, PlacementPoints: 22, KillPoints: 8},
		{ID: 3, TotalPoints: 30, Booyahs: 2, PlacementPoints: 22, KillPoints: 9},
	}

	ranked := Rank(teams)
	assert.Equal(t, []int{3, 2, 1}, []int{ranked[0].ID, ranked[1].ID, ranked[2].ID})
}

func TestRankStableOnFullTies(t *testing.T) {
	teams := []models.Team{
		{ID: 7, TotalPoints: 10, PlacementPoints: 6, KillPoints: 4},
		{ID: 8, TotalPoints: 10, PlacementPoints: 6, KillPoints: 4},
		{ID: 9, TotalPoints: 10, PlacementPoints: 6, KillPoints: 4},
	}

	ranked := Rank(teams)
	assert.Equal(t, []int{7, 8, 9}, []int{ranked[0].ID, ranked[1].ID, ranked[2].ID})

	// Idempotent: ranking the ranked output changes nothing.
	again := Rank(ranked)
	assert.Equal(t, ranked, again)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	teams := []models.Team{
		{ID: 1, TotalPoints: 5},
		{ID: 2, TotalPoints: 50},
	}

	_ = Rank(teams)
	assert.Equal(t, 1, teams[0].ID)
	assert.Equal(t, 2, teams[1].ID)
}
