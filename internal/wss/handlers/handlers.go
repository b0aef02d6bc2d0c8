// Package wsshandler implements the room-scoped websocket events. Every
// handler decodes its typed payload, calls into the orchestration services,
// and acks the sender through the bus; fanout to the rest of the room happens
// inside the services or via explicit relays here.
package wsshandler

import (
	"encoding/json"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/apperr"
	"github.com/devdual/BattleRoomManagerService/internal/bus"
	"github.com/devdual/BattleRoomManagerService/internal/jwt"
	"github.com/devdual/BattleRoomManagerService/internal/model"
	"github.com/devdual/BattleRoomManagerService/internal/presence"
	"github.com/devdual/BattleRoomManagerService/internal/service"
	wsstypes "github.com/devdual/BattleRoomManagerService/internal/wss/types"
)

// tokenBuffer pads the room token lifetime past the match duration so a
// client can still talk to the server while the finalizer wraps up.
const tokenBuffer = 5 * time.Minute

type Handlers struct {
	Rooms       *service.RoomService
	Submissions *service.SubmissionService
	Users       service.UserStore
	Tracker     *presence.Tracker
	Bus         *bus.Bus
	Jwt         *jwt.JWTManager
}

func (h *Handlers) ack(ctx *wsstypes.WsContext, event string, data any) error {
	return h.Bus.Send(ctx.ConnID, model.Event{
		Type:    event,
		Payload: wsstypes.AckPayload{Success: true, Data: data},
	})
}

func (h *Handlers) nack(ctx *wsstypes.WsContext, event, message string) error {
	return h.Bus.Send(ctx.ConnID, model.Event{
		Type:    event,
		Payload: wsstypes.AckPayload{Success: false, Message: message},
	})
}

// nackErr acks a service failure with its taxonomy message.
func (h *Handlers) nackErr(ctx *wsstypes.WsContext, event string, err error) error {
	return h.nack(ctx, event, apperr.Convert(err).Message)
}

func decode[T any](ctx *wsstypes.WsContext) (T, error) {
	var payload T
	err := json.Unmarshal(ctx.Payload, &payload)
	return payload, err
}

// requireSession rejects events sent before a successful join-room.
func (h *Handlers) requireSession(ctx *wsstypes.WsContext, event string) bool {
	if ctx.Session.Established() {
		return true
	}
	h.nack(ctx, event, "join a room first")
	return false
}
