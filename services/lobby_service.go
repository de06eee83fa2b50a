package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clasharena/esp-manager/models"
	"github.com/clasharena/esp-manager/repositories"
	"github.com/clasharena/esp-manager/scoring"
)

// Standing is one row of a ranked table.
type Standing struct {
	Rank int         `json:"rank"`
	Team models.Team `json:"team"`
}

// StandingsBroadcaster pushes lobby events to subscribed clients. The live
// websocket hub implements it; a nil broadcaster disables pushes.
type StandingsBroadcaster interface {
	BroadcastToRoom(roomID string, payload interface{})
}

type LobbyService interface {
	Restore(ctx context.Context)
	CreateLobby(ctx context.Context, name string) (*models.Lobby, error)
	ListLobbies(ctx context.Context) []models.Lobby
	GetLobby(ctx context.Context, id string) (*models.Lobby, error)
	DeleteLobby(ctx context.Context, id string)
	SelectLobby(ctx context.Context, id string) error
	CurrentLobby(ctx context.Context) (*models.Lobby, error)
	RenameTeam(ctx context.Context, lobbyID string, teamID int, name string)
	RecordMatch(ctx context.Context, lobbyID string, results []models.TeamResult) (*models.Match, error)
	Standings(ctx context.Context, lobbyID string) ([]Standing, error)
}

// lobbyService owns the in-memory collection of lobbies. Every mutation runs
// to completion under one mutex, so a match is always applied against a
// consistent lobby even though HTTP requests arrive concurrently. The
// "current lobby" is kept as an id and resolved on demand, never as a cached
// pointer.
type lobbyService struct {
	mu        sync.Mutex
	lobbies   []models.Lobby
	currentID string

	rules     scoring.Rules
	snapshots repositories.SnapshotRepository
	notifier  StandingsBroadcaster
	logger    *slog.Logger
}

func NewLobbyService(
	rules scoring.Rules,
	snapshots repositories.SnapshotRepository,
	notifier StandingsBroadcaster,
	logger *slog.Logger,
) LobbyService {
	return &lobbyService{
		rules:     rules,
		snapshots: snapshots,
		notifier:  notifier,
		logger:    logger,
	}
}

// Restore loads the saved snapshot. Absence or a corrupted payload just means
// an empty session; a failed load is never fatal.
func (s *lobbyService) Restore(ctx context.Context) {
	if s.snapshots == nil {
		return
	}

	lobbies, err := s.snapshots.Load(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrSnapshotCorrupted) {
			s.logger.Warn("snapshot unreadable, starting with an empty session", slog.Any("error", err))
		} else {
			s.logger.Error("failed to load snapshot", slog.Any("error", err))
		}
		return
	}

	s.mu.Lock()
	s.lobbies = lobbies
	s.mu.Unlock()
	s.logger.Info("session restored from snapshot", slog.Int("lobbies", len(lobbies)))
}

// persist saves the current snapshot best-effort. A failure is logged and
// swallowed: the in-memory state stays authoritative and is never rolled
// back. Must be called with the mutex held.
func (s *lobbyService) persist(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, s.lobbies); err != nil {
		s.logger.Error("failed to save snapshot, session continues unsaved", slog.Any("error", err))
	}
}

func (s *lobbyService) CreateLobby(ctx context.Context, name string) (*models.Lobby, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrLobbyNameRequired
	}
	if len([]rune(name)) > models.MaxLobbyNameLength {
		return nil, fmt.Errorf("%w: at most %d characters", ErrLobbyNameTooLong, models.MaxLobbyNameLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lobbies) >= models.MaxLobbies {
		return nil, fmt.Errorf("%w: at most %d lobbies", ErrLobbyLimitReached, models.MaxLobbies)
	}

	now := time.Now().UTC()
	lobby := models.Lobby{
		ID:        uuid.NewString(),
		Name:      name,
		Teams:     make([]models.Team, 0, models.MaxTeams),
		Matches:   []models.Match{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := 1; i <= models.MaxTeams; i++ {
		lobby.Teams = append(lobby.Teams, models.Team{ID: i, Name: fmt.Sprintf("Team %d", i)})
	}

	s.lobbies = append(s.lobbies, lobby)
	s.persist(ctx)
	s.logger.Info("lobby created", slog.String("lobby_id", lobby.ID), slog.String("name", name))

	out := cloneLobby(&lobby)
	return &out, nil
}

func (s *lobbyService) ListLobbies(ctx context.Context) []models.Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Lobby, 0, len(s.lobbies))
	for i := range s.lobbies {
		out = append(out, cloneLobby(&s.lobbies[i]))
	}
	return out
}

func (s *lobbyService) GetLobby(ctx context.Context, id string) (*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby := s.findLobby(id)
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}
	out := cloneLobby(lobby)
	return &out, nil
}

// DeleteLobby removes the lobby wholesale, teams and history included. A
// missing id is a silent no-op. If the removed lobby was the current
// selection the selection is cleared.
func (s *lobbyService) DeleteLobby(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.lobbies {
		if s.lobbies[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	s.lobbies = append(s.lobbies[:idx], s.lobbies[idx+1:]...)
	if s.currentID == id {
		s.currentID = ""
	}
	s.persist(ctx)
	s.logger.Info("lobby deleted", slog.String("lobby_id", id))

	if s.notifier != nil {
		s.notifier.BroadcastToRoom(id, map[string]interface{}{
			"type":    "LOBBY_DELETED",
			"room_id": id,
		})
	}
}

func (s *lobbyService) SelectLobby(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLobby(id) == nil {
		return ErrLobbyNotFound
	}
	s.currentID = id
	return nil
}

func (s *lobbyService) CurrentLobby(ctx context.Context) (*models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentID == "" {
		return nil, ErrNoLobbySelected
	}
	lobby := s.findLobby(s.currentID)
	if lobby == nil {
		// Selection outlived its lobby; drop it.
		s.currentID = ""
		return nil, ErrNoLobbySelected
	}
	out := cloneLobby(lobby)
	return &out, nil
}

// RenameTeam sets a team's display name. A blank trimmed name, an unknown
// lobby or an unknown team are all silent no-ops: the UI offers nothing
// useful to do with such a failure. Length is capped by the input surface,
// not re-checked here.
func (s *lobbyService) RenameTeam(ctx context.Context, lobbyID string, teamID int, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lobby := s.findLobby(lobbyID)
	if lobby == nil {
		return
	}
	team := lobby.TeamByID(teamID)
	if team == nil {
		return
	}

	team.Name = name
	s.persist(ctx)
}

func (s *lobbyService) RecordMatch(ctx context.Context, lobbyID string, results []models.TeamResult) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby := s.findLobby(lobbyID)
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}
	if len(lobby.Matches) >= models.MaxMatches {
		return nil, fmt.Errorf("%w: at most %d matches", ErrMatchLimitReached, models.MaxMatches)
	}

	if err := s.checkResultSet(lobby, results); err != nil {
		return nil, err
	}
	if err := scoring.ValidateResults(results, len(lobby.Teams)); err != nil {
		return nil, err
	}

	scoring.ApplyMatch(lobby, results, s.rules, time.Now().UTC())
	s.persist(ctx)

	match := lobby.Matches[len(lobby.Matches)-1]
	s.logger.Info("match recorded",
		slog.String("lobby_id", lobby.ID),
		slog.Int("match_number", match.Number))

	if s.notifier != nil {
		s.notifier.BroadcastToRoom(lobby.ID, map[string]interface{}{
			"type":    "STANDINGS_UPDATED",
			"room_id": lobby.ID,
			"payload": map[string]interface{}{
				"match_number": match.Number,
				"standings":    rankedStandings(lobby.Teams),
			},
		})
	}

	out := cloneMatch(&match)
	return &out, nil
}

// checkResultSet enforces the aggregate's precondition: exactly one result
// per roster team, no strangers, no duplicates.
func (s *lobbyService) checkResultSet(lobby *models.Lobby, results []models.TeamResult) error {
	if len(results) != len(lobby.Teams) {
		return fmt.Errorf("%w: got %d results for %d teams", ErrResultCountMismatch, len(results), len(lobby.Teams))
	}

	seen := make(map[int]bool, len(results))
	for _, res := range results {
		if lobby.TeamByID(res.TeamID) == nil {
			return fmt.Errorf("%w: team %d", ErrUnknownTeam, res.TeamID)
		}
		if seen[res.TeamID] {
			return fmt.Errorf("%w: team %d appears twice", ErrResultCountMismatch, res.TeamID)
		}
		seen[res.TeamID] = true
	}
	return nil
}

func (s *lobbyService) Standings(ctx context.Context, lobbyID string) ([]Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby := s.findLobby(lobbyID)
	if lobby == nil {
		return nil, ErrLobbyNotFound
	}
	return rankedStandings(lobby.Teams), nil
}

// findLobby must be called with the mutex held.
func (s *lobbyService) findLobby(id string) *models.Lobby {
	for i := range s.lobbies {
		if s.lobbies[i].ID == id {
			return &s.lobbies[i]
		}
	}
	return nil
}

func rankedStandings(teams []models.Team) []Standing {
	ranked := scoring.Rank(teams)
	standings := make([]Standing, 0, len(ranked))
	for i, team := range ranked {
		standings = append(standings, Standing{Rank: i + 1, Team: team})
	}
	return standings
}

// cloneLobby returns a copy whose slices are detached from the service's own
// state, so handlers can hold results across the mutex boundary.
func cloneLobby(l *models.Lobby) models.Lobby {
	out := *l
	out.Teams = make([]models.Team, len(l.Teams))
	for i := range l.Teams {
		out.Teams[i] = cloneTeam(&l.Teams[i])
	}
	out.Matches = make([]models.Match, len(l.Matches))
	for i := range l.Matches {
		out.Matches[i] = cloneMatch(&l.Matches[i])
	}
	return out
}

func cloneTeam(t *models.Team) models.Team {
	out := *t
	out.History = append([]models.TeamMatchRecord(nil), t.History...)
	return out
}

func cloneMatch(m *models.Match) models.Match {
	out := *m
	out.Results = append([]models.TeamResult(nil), m.Results...)
	return out
}
