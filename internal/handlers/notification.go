// internal/handlers/notification.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quickmatch-gg/lobby-service/internal/models"
	"github.com/quickmatch-gg/lobby-service/internal/session"
)

func notificationIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "notificationID"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid notification id: %w", session.ErrInvalidArgument)
	}
	return id, nil
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "1"
	list, err := s.notify.List(r.Context(), userID, unreadOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := notificationIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.notify.MarkRead(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := s.notify.MarkAllRead(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := notificationIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.notify.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
