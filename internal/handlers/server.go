// internal/handlers/server.go

// Package handlers exposes the lobby service over HTTP and WebSocket:
// chi routes for lobby and notification operations, and the /ws duplex
// socket that carries lobby_update pushes back to clients.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickmatch-gg/lobby-service/internal/dispatch"
	"github.com/quickmatch-gg/lobby-service/internal/middleware"
	"github.com/quickmatch-gg/lobby-service/internal/notify"
	"github.com/quickmatch-gg/lobby-service/internal/registry"
	"github.com/quickmatch-gg/lobby-service/internal/session"
)

// Server aggregates the service dependencies the handlers need.
type Server struct {
	manager  *session.Manager
	notify   *notify.Service
	registry *registry.Registry
	dispatch *dispatch.Dispatcher
	origins  []string
	log      *logrus.Logger
}

func NewServer(manager *session.Manager, notify *notify.Service, reg *registry.Registry, disp *dispatch.Dispatcher, origins []string, log *logrus.Logger) *Server {
	return &Server{
		manager:  manager,
		notify:   notify,
		registry: reg,
		dispatch: disp,
		origins:  origins,
		log:      log,
	}
}

// Routes builds the service router. Everything under /api requires a
// session token except the single-lobby read, which browse pages hit
// before login.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/lobbies/{lobbyID}", s.handleGetLobby)

		api.Group(func(priv chi.Router) {
			priv.Use(middleware.Auth)

			priv.Post("/lobbies", s.handleCreateLobby)
			priv.Get("/lobbies", s.handleListLobbies)
			priv.Post("/lobbies/{lobbyID}/join", s.handleJoinLobby)
			priv.Post("/lobbies/{lobbyID}/leave", s.handleLeaveLobby)
			priv.Post("/lobbies/{lobbyID}/ready", s.handleSetReady)
			priv.Get("/lobbies/{lobbyID}/messages", s.handleListMessages)
			priv.Post("/lobbies/{lobbyID}/messages", s.handleSendMessage)
			priv.Post("/lobbies/{lobbyID}/start", s.handleStartMatch)
			priv.Delete("/lobbies/{lobbyID}", s.handleDeleteLobby)

			priv.Get("/notifications", s.handleListNotifications)
			priv.Post("/notifications/{notificationID}/read", s.handleMarkNotificationRead)
			priv.Post("/notifications/read-all", s.handleMarkAllNotificationsRead)
			priv.Delete("/notifications/{notificationID}", s.handleDeleteNotification)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireUser pulls the authenticated user from the request context.
// The auth middleware guarantees it on protected routes; the check
// covers handlers wired up without it.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, session.ErrUnauthenticated)
		return uuid.Nil, false
	}
	return userID, true
}
