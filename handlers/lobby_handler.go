package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clasharena/esp-manager/models"
	"github.com/clasharena/esp-manager/services"
)

type LobbyHandler struct {
	lobbies services.LobbyService
}

func NewLobbyHandler(lobbies services.LobbyService) *LobbyHandler {
	return &LobbyHandler{lobbies: lobbies}
}

// CreateHandler обрабатывает POST /lobbies.
func (h *LobbyHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	lobby, err := h.lobbies.CreateLobby(r.Context(), input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"lobby": lobby}); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /lobbies.
func (h *LobbyHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	lobbies := h.lobbies.ListLobbies(r.Context())
	if err := writeJSON(w, http.StatusOK, jsonResponse{"lobbies": lobbies}); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /lobbies/{lobbyID}.
func (h *LobbyHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	lobby, err := h.lobbies.GetLobby(r.Context(), chi.URLParam(r, "lobbyID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"lobby": lobby}); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /lobbies/{lobbyID}. Удаление
// идемпотентно: несуществующее лобби тоже даёт 204.
func (h *LobbyHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	h.lobbies.DeleteLobby(r.Context(), chi.URLParam(r, "lobbyID"))
	w.WriteHeader(http.StatusNoContent)
}

// SelectCurrentHandler обрабатывает PUT /lobbies/current.
func (h *LobbyHandler) SelectCurrentHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ID string `json:"id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.lobbies.SelectLobby(r.Context(), input.ID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCurrentHandler обрабатывает GET /lobbies/current.
func (h *LobbyHandler) GetCurrentHandler(w http.ResponseWriter, r *http.Request) {
	lobby, err := h.lobbies.CurrentLobby(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"lobby": lobby}); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RenameTeamHandler обрабатывает PATCH /lobbies/{lobbyID}/teams/{teamID}.
// The input surface owns the length cap: names are truncated here, the
// service does not re-validate. Blank names and unknown ids are no-ops.
func (h *LobbyHandler) RenameTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIntURLParam(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	name := []rune(input.Name)
	if len(name) > models.MaxTeamNameLength {
		name = name[:models.MaxTeamNameLength]
	}

	h.lobbies.RenameTeam(r.Context(), chi.URLParam(r, "lobbyID"), teamID, string(name))
	w.WriteHeader(http.StatusNoContent)
}

// RecordMatchHandler обрабатывает POST /lobbies/{lobbyID}/matches.
func (h *LobbyHandler) RecordMatchHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Results []models.TeamResult `json:"results"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.lobbies.RecordMatch(r.Context(), chi.URLParam(r, "lobbyID"), input.Results)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StandingsHandler обрабатывает GET /lobbies/{lobbyID}/standings.
func (h *LobbyHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	standings, err := h.lobbies.Standings(r.Context(), chi.URLParam(r, "lobbyID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}); err != nil {
		serverErrorResponse(w, r, err)
	}
}
