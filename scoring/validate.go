package scoring

import (
	"errors"
	"fmt"

	"github.com/clasharena/esp-manager/models"
)

var (
	ErrInvalidPlacement   = errors.New("placement is out of range for this lobby")
	ErrDuplicatePlacement = errors.New("duplicate placement in match results")
	ErrInvalidKills       = errors.New("kills must be non-negative")
)

// ValidateResults checks a proposed result set against the lobby's team
// count. Checks run in order and the first failure wins: every placement must
// be within 1..teamCount and every kill count non-negative, then no two
// results may share a placement. A result set that passes all checks
// necessarily covers the full permutation when it has one entry per team.
// Team counters only ever grow, so a negative kill count can never be let
// through to the aggregate.
//
// On failure the caller must leave every team untouched.
func ValidateResults(results []models.TeamResult, teamCount int) error {
	for _, res := range results {
		if res.Placement < 1 || res.Placement > teamCount {
			return fmt.Errorf("%w: team %d placed %d of %d", ErrInvalidPlacement, res.TeamID, res.Placement, teamCount)
		}
		if res.Kills < 0 {
			return fmt.Errorf("%w: team %d reported %d kills", ErrInvalidKills, res.TeamID, res.Kills)
		}
	}

	seen := make(map[int]int, len(results))
	for _, res := range results {
		if other, ok := seen[res.Placement]; ok {
			return fmt.Errorf("%w: teams %d and %d both placed %d", ErrDuplicatePlacement, other, res.TeamID, res.Placement)
		}
		seen[res.Placement] = res.TeamID
	}

	return nil
}
