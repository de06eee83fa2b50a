package models

// Team is one roster slot in a lobby. The id is assigned at lobby creation
// and stays stable for the life of the lobby. All four counters only ever
// grow: there is no match edit or undo.
//
// Invariant: TotalPoints == PlacementPoints + KillPoints. Booyahs are counted
// but worth zero points; they matter only as a ranking tiebreak.
type Team struct {
	ID              int               `json:"id"`
	Name            string            `json:"name"`
	TotalPoints     int               `json:"total_points"`
	PlacementPoints int               `json:"placement_points"`
	KillPoints      int               `json:"kill_points"`
	Booyahs         int               `json:"booyahs"`
	History         []TeamMatchRecord `json:"history,omitempty"`
}

// TeamMatchRecord is a single team's line from one match, kept on the team
// for per-team history views.
type TeamMatchRecord struct {
	MatchNumber int  `json:"match_number"`
	Placement   int  `json:"placement"`
	Kills       int  `json:"kills"`
	Booyah      bool `json:"booyah"`
	Points      int  `json:"points"`
}
