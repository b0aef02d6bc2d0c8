// Package presence tracks which live connection belongs to which (room, user)
// pair. It is the single owner of the fanout membership table; nothing else
// writes these keys.
package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Binding ties one websocket connection to a room and the identity it joined
// with.
type Binding struct {
	ConnID   string
	RoomID   string
	UserID   string
	Name     string
	PhotoURL string
}

type Tracker struct {
	rdb *redis.Client
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb}
}

func connKey(connID string) string { return fmt.Sprintf("presence:conn:%s", connID) }
func roomKey(roomID string) string { return fmt.Sprintf("presence:room:%s", roomID) }

// Bind associates the connection with a room. Re-binding the same connection
// to the same room is a no-op and reports alreadyBound; binding it to a
// different room moves it.
func (t *Tracker) Bind(ctx context.Context, b Binding) (alreadyBound bool, err error) {
	existing, err := t.Get(ctx, b.ConnID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.RoomID == b.RoomID {
			return true, nil
		}
		if _, _, err := t.Unbind(ctx, b.ConnID); err != nil {
			return false, err
		}
	}

	pipe := t.rdb.TxPipeline()
	pipe.HSet(ctx, connKey(b.ConnID), map[string]any{
		"roomId":   b.RoomID,
		"userId":   b.UserID,
		"name":     b.Name,
		"photoURL": b.PhotoURL,
	})
	pipe.SAdd(ctx, roomKey(b.RoomID), b.ConnID)
	_, err = pipe.Exec(ctx)
	return false, err
}

// Unbind drops the connection's binding and returns it along with the number
// of live connections left in its room. Returns a nil binding when the
// connection was never bound.
func (t *Tracker) Unbind(ctx context.Context, connID string) (*Binding, int64, error) {
	b, err := t.Get(ctx, connID)
	if err != nil {
		return nil, 0, err
	}
	if b == nil {
		return nil, 0, nil
	}

	pipe := t.rdb.TxPipeline()
	pipe.Del(ctx, connKey(connID))
	pipe.SRem(ctx, roomKey(b.RoomID), connID)
	remaining := pipe.SCard(ctx, roomKey(b.RoomID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, 0, err
	}

	return b, remaining.Val(), nil
}

// Get returns the binding for a connection, or nil if none exists.
func (t *Tracker) Get(ctx context.Context, connID string) (*Binding, error) {
	fields, err := t.rdb.HGetAll(ctx, connKey(connID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	return &Binding{
		ConnID:   connID,
		RoomID:   fields["roomId"],
		UserID:   fields["userId"],
		Name:     fields["name"],
		PhotoURL: fields["photoURL"],
	}, nil
}

// ConnIDs lists the live connections bound to a room.
func (t *Tracker) ConnIDs(ctx context.Context, roomID string) ([]string, error) {
	return t.rdb.SMembers(ctx, roomKey(roomID)).Result()
}

// Count returns the live connection count for a room.
func (t *Tracker) Count(ctx context.Context, roomID string) (int64, error) {
	return t.rdb.SCard(ctx, roomKey(roomID)).Result()
}

// ClearRoom forcibly disassociates every connection from the room, for
// cancellation and match end. Returns the connection ids that were bound.
func (t *Tracker) ClearRoom(ctx context.Context, roomID string) ([]string, error) {
	connIDs, err := t.ConnIDs(ctx, roomID)
	if err != nil {
		return nil, err
	}

	pipe := t.rdb.TxPipeline()
	for _, id := range connIDs {
		pipe.Del(ctx, connKey(id))
	}
	pipe.Del(ctx, roomKey(roomID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	return connIDs, nil
}
