package models

import "time"

// Лимиты приложения. Состав команд фиксируется при создании лобби и
// никогда не меняется; список матчей append-only.
const (
	MaxLobbies = 4
	MaxTeams   = 12
	MaxMatches = 6

	MaxLobbyNameLength = 30
	MaxTeamNameLength  = 25
)

// Lobby представляет один турнир: фиксированный состав команд и
// ограниченную последовательность сыгранных матчей.
type Lobby struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Teams     []Team    `json:"teams"`
	Matches   []Match   `json:"matches"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TeamByID returns the roster entry with the given id, or nil. Teams are
// always addressed by id, never by slice position.
func (l *Lobby) TeamByID(id int) *Team {
	for i := range l.Teams {
		if l.Teams[i].ID == id {
			return &l.Teams[i]
		}
	}
	return nil
}
