// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quickmatch-gg/lobby-service/internal/database"
	"github.com/quickmatch-gg/lobby-service/internal/models"
	"github.com/quickmatch-gg/lobby-service/internal/session"
)

func lobbyIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "lobbyID"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid lobby id: %w", session.ErrInvalidArgument)
	}
	return id, nil
}

func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var params session.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", session.ErrInvalidArgument))
		return
	}

	lobby, err := s.manager.Create(r.Context(), userID, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lobby)
}

func (s *Server) handleListLobbies(w http.ResponseWriter, r *http.Request) {
	var filter database.LobbyFilter
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = models.LobbyStatus(status)
	}
	if raw := r.URL.Query().Get("game_id"); raw != "" {
		gameID, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, fmt.Errorf("invalid game_id: %w", session.ErrInvalidArgument))
			return
		}
		filter.GameID = gameID
	}

	lobbies, err := s.manager.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if lobbies == nil {
		lobbies = []models.Lobby{}
	}
	writeJSON(w, http.StatusOK, lobbies)
}

// lobbyDetail is the single-lobby read payload: the lobby, its roster,
// and the readiness the start button keys off.
type lobbyDetail struct {
	Lobby    *models.Lobby        `json:"lobby"`
	Members  []models.LobbyMember `json:"members"`
	AllReady bool                 `json:"allReady"`
}

func (s *Server) handleGetLobby(w http.ResponseWriter, r *http.Request) {
	lobbyID, err := lobbyIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	lobby, members, err := s.manager.Get(r.Context(), lobbyID)
	if err != nil {
		writeError(w, err)
		return
	}

	allReady := len(members) > 0
	for _, m := range members {
		if !m.Ready {
			allReady = false
			break
		}
	}
	writeJSON(w, http.StatusOK, lobbyDetail{Lobby: lobby, Members: members, AllReady: allReady})
}

func (s *Server) handleJoinLobby(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	lobbyID, err := lobbyIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// The body is optional: passwordless solo joins send nothing.
	var params session.JoinParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, fmt.Errorf("invalid request body: %w", session.ErrInvalidArgument))
		return
	}

	member, err := s.manager.Join(r.Context(), lobbyID, userID, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleLeaveLobby(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	lobbyID, err := lobbyIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.manager.Leave(r.Context(), lobbyID, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetReady(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	lobbyID, err := lobbyIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Ready bool `json:"ready"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", session.ErrInvalidArgument))
		return
	}

	member, err := s.manager.SetReady(r.Context(), lobbyID, userID, body.Ready)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	lobbyID, err := lobbyIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", session.ErrInvalidArgument))
		return
	}

	msg, err := s.manager.SendMessage(r.Context(), lobbyID, userID, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	lobbyID, err := lobbyIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, fmt.Errorf("invalid limit: %w", session.ErrInvalidArgument))
			return
		}
	}

	msgs, err := s.manager.Messages(r.Context(), lobbyID, userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.LobbyMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleStartMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	lobbyID, err := lobbyIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	match, err := s.manager.StartMatch(r.Context(), lobbyID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (s *Server) handleDeleteLobby(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	lobbyID, err := lobbyIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.manager.Delete(r.Context(), lobbyID, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
