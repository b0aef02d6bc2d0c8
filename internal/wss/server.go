// Package wss is the realtime surface: one websocket per player, events
// dispatched by name, fanout through the room bus.
package wss

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/devdual/BattleRoomManagerService/internal/bus"
	"github.com/devdual/BattleRoomManagerService/internal/model"
	"github.com/devdual/BattleRoomManagerService/internal/presence"
	"github.com/devdual/BattleRoomManagerService/internal/service"
	wsstypes "github.com/devdual/BattleRoomManagerService/internal/wss/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WsHandler upgrades the connection and runs its read loop. Each connection
// gets a server-assigned id and an empty session; join-room fills the session
// in, and cleanup uses whatever presence recorded, so a client that never
// joined costs nothing to tear down.
func WsHandler(dispatcher *Dispatcher, tracker *presence.Tracker, b *bus.Bus, rooms *service.RoomService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("[WS] upgrade error:", err)
			return
		}

		connID := uuid.New().String()
		session := &wsstypes.Session{}
		b.Register(connID, conn)
		log.Printf("[WS] connection %s established", connID)

		defer func() {
			cleanupConnection(tracker, b, rooms, connID)
			conn.Close()
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Printf("[WS] read error on %s: %v", connID, err)
				return
			}

			var wsMsg wsstypes.WsMessage
			if err := json.Unmarshal(msg, &wsMsg); err != nil {
				log.Printf("[WS] invalid message format on %s: %v", connID, err)
				continue
			}

			ctx := &wsstypes.WsContext{
				Conn:    conn,
				ConnID:  connID,
				Payload: wsMsg.Payload,
				Session: session,
			}

			if err := dispatcher.Dispatch(wsMsg.Type, ctx); err != nil {
				log.Printf("[WS] dispatch error on %s: %v", connID, err)
			}
		}
	}
}

// cleanupConnection handles an unclean drop: unbind presence, tell the room,
// and reclaim the room if it was still waiting and now stands empty. A clean
// leave-room has already unbound, making this a no-op.
func cleanupConnection(tracker *presence.Tracker, b *bus.Bus, rooms *service.RoomService, connID string) {
	b.Unregister(connID)

	ctx := context.Background()
	binding, remaining, err := tracker.Unbind(ctx, connID)
	if err != nil {
		log.Printf("[WS] cleanup unbind failed for %s: %v", connID, err)
		return
	}
	if binding == nil {
		return
	}

	b.Publish(ctx, binding.RoomID, model.Event{
		Type:    model.EvtOpponentDisconnected,
		Payload: model.OpponentDisconnectedPayload{UserID: binding.UserID},
	})

	if remaining == 0 {
		if _, err := rooms.ReclaimIfAbandoned(ctx, binding.RoomID); err != nil {
			log.Printf("[WS] reclaim failed for %s: %v", binding.RoomID, err)
		}
	}
}
