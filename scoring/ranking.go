package scoring

import (
	"sort"

	"github.com/clasharena/esp-manager/models"
)

// Rank orders teams best-first by four descending keys applied
// lexicographically: total points, booyahs, placement points, kill points.
// The sort is stable, so fully tied teams keep their roster order and
// repeated calls on unchanged input produce identical sequences. The input
// slice is never mutated; rank is the 1-based index in the returned slice.
func Rank(teams []models.Team) []models.Team {
	ranked := make([]models.Team, len(teams))
	copy(ranked, teams)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.Booyahs != b.Booyahs {
			return a.Booyahs > b.Booyahs
		}
		if a.PlacementPoints != b.PlacementPoints {
			return a.PlacementPoints > b.PlacementPoints
		}
		return a.KillPoints > b.KillPoints
	})

	return ranked
}
