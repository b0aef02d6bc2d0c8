// Package bus fans orchestration events out to the connections currently
// bound to a room. Delivery is best-effort and at-most-once per connected
// recipient: there is no persistence and no replay, and a connection that
// fails to take a write is dropped.
package bus

import (
	"context"
	"log"
	"sync"

	"github.com/devdual/BattleRoomManagerService/internal/model"
	"github.com/devdual/BattleRoomManagerService/internal/presence"
)

// Conn is the slice of a websocket connection the bus needs. Satisfied by
// *websocket.Conn.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

type client struct {
	conn Conn
	// mu serializes writes: gorilla conns allow one concurrent writer, and the
	// lock also keeps one sender's publishes in order.
	mu sync.Mutex
}

func (c *client) send(event model.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(event)
}

// Bus pairs the presence membership table with the process-local connection
// registry. It is constructed once at bootstrap and handed to everything that
// publishes; there is no package-level instance.
type Bus struct {
	tracker *presence.Tracker

	mu    sync.RWMutex
	conns map[string]*client
}

func New(tracker *presence.Tracker) *Bus {
	return &Bus{
		tracker: tracker,
		conns:   make(map[string]*client),
	}
}

// Register makes a connection addressable for fanout.
func (b *Bus) Register(connID string, conn Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[connID] = &client{conn: conn}
}

// Unregister forgets a connection. The caller owns closing it.
func (b *Bus) Unregister(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, connID)
}

// Publish delivers the event to every connection bound to the room.
func (b *Bus) Publish(ctx context.Context, roomID string, event model.Event) {
	b.publish(ctx, roomID, "", event)
}

// PublishExcept delivers to every room connection except the sender's, for
// echo-avoidance on chat/sync events.
func (b *Bus) PublishExcept(ctx context.Context, roomID, exceptConnID string, event model.Event) {
	b.publish(ctx, roomID, exceptConnID, event)
}

// Send delivers an event to a single connection.
func (b *Bus) Send(connID string, event model.Event) error {
	b.mu.RLock()
	c, ok := b.conns[connID]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	return c.send(event)
}

func (b *Bus) publish(ctx context.Context, roomID, exceptConnID string, event model.Event) {
	connIDs, err := b.tracker.ConnIDs(ctx, roomID)
	if err != nil {
		log.Printf("[Bus] membership lookup failed for room %s: %v", roomID, err)
		return
	}

	for _, connID := range connIDs {
		if connID == exceptConnID {
			continue
		}

		b.mu.RLock()
		c, ok := b.conns[connID]
		b.mu.RUnlock()
		if !ok {
			continue
		}

		if err := c.send(event); err != nil {
			log.Printf("[Bus] write to %s failed, dropping connection: %v", connID, err)
			b.Unregister(connID)
			c.conn.Close()
		}
	}
}

// DisconnectRoom force-disassociates every connection from the room and
// closes them, after a cancellation or match end has been broadcast.
func (b *Bus) DisconnectRoom(ctx context.Context, roomID string) {
	connIDs, err := b.tracker.ClearRoom(ctx, roomID)
	if err != nil {
		log.Printf("[Bus] clear room %s failed: %v", roomID, err)
		return
	}

	for _, connID := range connIDs {
		b.mu.Lock()
		c, ok := b.conns[connID]
		delete(b.conns, connID)
		b.mu.Unlock()
		if ok {
			c.conn.Close()
		}
	}
}
