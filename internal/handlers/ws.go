// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickmatch-gg/lobby-service/internal/auth"
	"github.com/quickmatch-gg/lobby-service/internal/protocol"
	"github.com/quickmatch-gg/lobby-service/internal/registry"
)

const wsSubprotocol = "lobby.v1"

// handleWS upgrades the request and runs the duplex session. One socket
// serves all of a client's lobby subscriptions; identity is bound either
// from the auth_token cookie at upgrade or by a later auth frame.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{wsSubprotocol},
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.log.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != wsSubprotocol {
		c.Close(StatusBadSubprotocol, "client must speak the lobby.v1 subprotocol")
		return
	}

	conn := s.registry.Register()
	defer s.registry.Remove(conn.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.log.WithFields(logrus.Fields{
		"conn_id": conn.ID,
		"remote":  r.RemoteAddr,
	}).Info("websocket connected")

	// Browser clients carry the session cookie into the upgrade, which
	// saves them the auth frame round trip. A bad cookie is not fatal
	// here; the client can still authenticate explicitly.
	if cookie, err := r.Cookie("auth_token"); err == nil && cookie.Value != "" {
		if userID, err := auth.AuthenticateJWT(cookie.Value); err == nil {
			s.bindUser(ctx, conn, userID)
		}
	}

	go s.writePump(ctx, c, conn)
	s.readPump(ctx, c, conn)

	s.log.WithField("conn_id", conn.ID).Info("websocket disconnected")
}

// bindUser attaches a verified identity to the connection and pushes the
// auth acknowledgement plus the current notification badge.
func (s *Server) bindUser(ctx context.Context, conn *registry.Conn, userID uuid.UUID) {
	s.registry.Authenticate(conn.ID, userID)
	s.dispatch.ToConn(conn, protocol.AuthSuccess(userID))

	count, err := s.notify.UnreadCount(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("failed to count unread notifications")
		return
	}
	s.dispatch.ToConn(conn, protocol.UnreadCount(count))
}

// readPump consumes client frames until the connection drops. It runs on
// the handler goroutine; returning triggers the deferred registry removal.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, conn *registry.Conn) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return
			}
			s.log.WithError(err).WithField("conn_id", conn.ID).Debug("websocket read error")
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg protocol.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.dispatch.ToConn(conn, protocol.ErrorMessage("invalid JSON"))
			continue
		}

		switch msg.Type {
		case protocol.TypeAuth:
			userID, err := auth.AuthenticateJWT(msg.Token)
			if err != nil {
				c.Close(StatusAuthFailed, "authentication failed")
				return
			}
			s.bindUser(ctx, conn, userID)

		case protocol.TypeSubscribeLobby:
			s.subscribe(ctx, conn, msg.LobbyID)

		case protocol.TypeUnsubscribeLobby:
			s.registry.Unsubscribe(conn.ID, msg.LobbyID)
			s.dispatch.ToConn(conn, protocol.LobbyUnsubscribed(msg.LobbyID))

		case protocol.TypeTyping:
			s.typing(conn, msg.LobbyID, msg.Username)

		default:
			s.dispatch.ToConn(conn, protocol.ErrorMessage(fmt.Sprintf("unknown message type %q", msg.Type)))
		}
	}
}

// subscribe checks the lobby exists, registers the connection for its
// pushes, and replies with the current snapshot so the client renders
// without a separate fetch.
func (s *Server) subscribe(ctx context.Context, conn *registry.Conn, lobbyID uuid.UUID) {
	if _, authed := conn.User(); !authed {
		s.dispatch.ToConn(conn, protocol.ErrorMessage("authenticate before subscribing"))
		return
	}

	lobby, members, err := s.manager.Get(ctx, lobbyID)
	if err != nil {
		s.dispatch.ToConn(conn, protocol.ErrorMessage(fmt.Sprintf("unknown lobby %s", lobbyID)))
		return
	}

	s.registry.Subscribe(conn.ID, lobbyID)
	s.dispatch.ToConn(conn, protocol.LobbySubscribed(lobbyID))
	s.dispatch.ToConn(conn, protocol.LobbyUpdate(lobbyID, protocol.SubscribedEvent(lobby, members)))
}

// typing relays a typing indicator to the lobby's other subscribers. The
// identity comes from the connection, never the frame; the username is
// advisory display text.
func (s *Server) typing(conn *registry.Conn, lobbyID uuid.UUID, username string) {
	userID, authed := conn.User()
	if !authed || !s.registry.Subscribed(conn.ID, lobbyID) {
		return
	}
	s.dispatch.ToLobbyExcept(lobbyID, userID, protocol.LobbyUpdate(lobbyID, protocol.TypingEvent(userID, username)))
}

// writePump drains the connection's outbox onto the socket and keeps the
// connection alive with pings. Any write failure ends the session; the
// read side notices via the socket closing.
func (s *Server) writePump(ctx context.Context, c *websocket.Conn, conn *registry.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			c.Close(websocket.StatusGoingAway, "connection closed")
			return
		case payload := <-conn.Outbox():
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				s.log.WithError(err).WithField("conn_id", conn.ID).Debug("websocket write failed")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				s.log.WithField("conn_id", conn.ID).Debug("ping failed, assuming disconnect")
				return
			}
		}
	}
}
