package models

import "time"

// Match is one recorded game. Number is a dense 1-based sequence equal to the
// match's position in the lobby's list. Results carry exactly one entry per
// roster team and the placements form a permutation of 1..len(teams).
type Match struct {
	Number   int          `json:"number"`
	PlayedAt time.Time    `json:"played_at"`
	Results  []TeamResult `json:"results"`
}

// TeamResult is the raw input for one team in one match.
type TeamResult struct {
	TeamID    int  `json:"team_id"`
	Placement int  `json:"placement"`
	Kills     int  `json:"kills"`
	Booyah    bool `json:"booyah"`
}
