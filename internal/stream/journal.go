// internal/stream/journal.go

// Package stream publishes lobby lifecycle records onto the platform's
// Redis queue, where the tournament and stats subsystems pick them up.
// Publishing is fire and forget: a lobby operation never fails because
// the queue is down.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/quickmatch-gg/lobby-service/internal/models"
)

// LobbyRecord is the shape consumers read off the queue.
type LobbyRecord struct {
	Event     string    `json:"event"`
	LobbyID   uuid.UUID `json:"lobby_id"`
	GameID    uuid.UUID `json:"game_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Status    string    `json:"status"`
	Players   int       `json:"players"`
	PrizePool int64     `json:"prize_pool"`
	Timestamp int64     `json:"timestamp"`
}

type Journal struct {
	rdb   *redis.Client
	queue string
}

// Connect dials Redis and returns a journal publishing to the named
// list.
func Connect(ctx context.Context, addr string, db int, queue string) (*Journal, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Journal{rdb: rdb, queue: queue}, nil
}

// Publish pushes one lifecycle record. Safe on a nil journal, so dev
// setups without Redis need no wiring.
func (j *Journal) Publish(ctx context.Context, event string, lobby *models.Lobby) {
	if j == nil || j.rdb == nil {
		return
	}

	record := LobbyRecord{
		Event:     event,
		LobbyID:   lobby.ID,
		GameID:    lobby.GameID,
		OwnerID:   lobby.OwnerID,
		Status:    string(lobby.Status),
		Players:   lobby.CurrentPlayers,
		PrizePool: lobby.PrizePool,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal lobby record")
		return
	}
	if err := j.rdb.RPush(ctx, j.queue, data).Err(); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"queue": j.queue,
			"event": event,
		}).Warn("failed to push lobby record")
	}
}

func (j *Journal) Close() error {
	if j == nil || j.rdb == nil {
		return nil
	}
	return j.rdb.Close()
}
