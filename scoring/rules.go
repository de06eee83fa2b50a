package scoring

// Rules describe the points system applied to every match in a lobby.
//
// The current ruleset pays nothing for a booyah: the flag is recorded and
// counted, but ranking is the only place it matters. BooyahBonus stays in the
// struct because earlier seasons ran with a +1 bonus and the breakdown shape
// is part of the export contract.
type Rules struct {
	KillPoints  int
	BooyahBonus int
	Placement   map[int]int
}

// DefaultRules is the standard 12-team points table. Placements missing from
// the table score zero placement points.
var DefaultRules = Rules{
	KillPoints:  1,
	BooyahBonus: 0,
	Placement: map[int]int{
		1:  12,
		2:  9,
		3:  8,
		4:  7,
		5:  6,
		6:  5,
		7:  4,
		8:  3,
		9:  2,
		10: 1,
		11: 0,
		12: 0,
	},
}

// Breakdown is the point split for a single team in a single match.
type Breakdown struct {
	PlacementPoints int `json:"placement_points"`
	KillPoints      int `json:"kill_points"`
	BooyahPoints    int `json:"booyah_points"`
	Total           int `json:"total"`
}

// Score computes the breakdown for one result. Pure function: no state, never
// fails, out-of-table placements simply score zero.
func (r Rules) Score(placement, kills int, booyah bool) Breakdown {
	b := Breakdown{
		PlacementPoints: r.Placement[placement],
		KillPoints:      kills * r.KillPoints,
	}
	if booyah {
		b.BooyahPoints = r.BooyahBonus
	}
	b.Total = b.PlacementPoints + b.KillPoints + b.BooyahPoints
	return b
}
