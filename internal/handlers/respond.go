// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/quickmatch-gg/lobby-service/internal/database"
	"github.com/quickmatch-gg/lobby-service/internal/session"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("failed to encode response body")
	}
}

// writeError maps session errors onto HTTP statuses. The code field
// disambiguates the conflict statuses for clients; message text is not
// a contract. Notification routes surface store sentinels directly,
// so database.ErrNotFound maps here too.
func writeError(w http.ResponseWriter, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, database.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, session.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, session.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, session.ErrLobbyFull):
		status, code = http.StatusConflict, "lobby_full"
	case errors.Is(err, session.ErrAlreadyMember):
		status, code = http.StatusConflict, "already_member"
	case errors.Is(err, session.ErrNotReady):
		status, code = http.StatusConflict, "not_ready"
	case errors.Is(err, session.ErrInvalidArgument):
		status, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, session.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthenticated"
	default:
		logrus.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}
