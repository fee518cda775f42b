// internal/dispatch/dispatcher.go

// Package dispatch fans server frames out to live connections through
// the registry. Sends never block: a connection that cannot keep up is
// logged and skipped, and its transport will notice on its own.
package dispatch

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quickmatch-gg/lobby-service/internal/protocol"
	"github.com/quickmatch-gg/lobby-service/internal/registry"
)

type Dispatcher struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// ToLobby pushes a frame to every connection subscribed to the lobby.
func (d *Dispatcher) ToLobby(lobbyID uuid.UUID, msg *protocol.ServerMessage) {
	d.fan(d.reg.ConnectionsForLobby(lobbyID), uuid.Nil, msg)
}

// ToLobbyExcept pushes a frame to the lobby's subscribers, skipping
// every connection of the given user. Used for typing indicators so a
// user never sees their own.
func (d *Dispatcher) ToLobbyExcept(lobbyID, skipUserID uuid.UUID, msg *protocol.ServerMessage) {
	d.fan(d.reg.ConnectionsForLobby(lobbyID), skipUserID, msg)
}

// ToUser pushes a frame to every connection the user has open,
// whichever lobbies they are watching.
func (d *Dispatcher) ToUser(userID uuid.UUID, msg *protocol.ServerMessage) {
	d.fan(d.reg.ConnectionsForUser(userID), uuid.Nil, msg)
}

// ToConn pushes a frame to a single connection, for replies that only
// the requesting socket should see.
func (d *Dispatcher) ToConn(c *registry.Conn, msg *protocol.ServerMessage) {
	d.fan([]*registry.Conn{c}, uuid.Nil, msg)
}

func (d *Dispatcher) fan(conns []*registry.Conn, skipUser uuid.UUID, msg *protocol.ServerMessage) {
	if len(conns) == 0 {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		logrus.WithError(err).WithField("type", msg.Type).Error("failed to encode frame")
		return
	}
	for _, c := range conns {
		if skipUser != uuid.Nil {
			if userID, ok := c.User(); ok && userID == skipUser {
				continue
			}
		}
		if !c.TrySend(payload) {
			logrus.WithFields(logrus.Fields{
				"conn_id": c.ID,
				"type":    msg.Type,
			}).Warn("dropping frame for stale connection")
		}
	}
}
