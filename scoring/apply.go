package scoring

import (
	"time"

	"github.com/clasharena/esp-manager/models"
)

// ApplyMatch folds a validated result set into the lobby. For every team the
// breakdown is added to its counters and a history record appended; the lobby
// gets a match record numbered len(matches)+1 and a fresh UpdatedAt.
//
// Preconditions owned by the caller: results passed ValidateResults, carry
// exactly one entry per roster team, and the lobby is below its match cap.
// ApplyMatch does not re-check the cap.
func ApplyMatch(lobby *models.Lobby, results []models.TeamResult, rules Rules, now time.Time) {
	number := len(lobby.Matches) + 1

	for _, res := range results {
		team := lobby.TeamByID(res.TeamID)
		if team == nil {
			continue
		}

		pts := rules.Score(res.Placement, res.Kills, res.Booyah)
		team.TotalPoints += pts.Total
		team.PlacementPoints += pts.PlacementPoints
		team.KillPoints += pts.KillPoints
		if res.Booyah {
			team.Booyahs++
		}

		team.History = append(team.History, models.TeamMatchRecord{
			MatchNumber: number,
			Placement:   res.Placement,
			Kills:       res.Kills,
			Booyah:      res.Booyah,
			Points:      pts.Total,
		})
	}

	lobby.Matches = append(lobby.Matches, models.Match{
		Number:   number,
		PlayedAt: now,
		Results:  results,
	})
	lobby.UpdatedAt = now
}
