package wss

import (
	"fmt"
	"log"

	wsstypes "github.com/devdual/BattleRoomManagerService/internal/wss/types"
)

// WsHandlerType is the signature for a websocket event handler.
type WsHandlerType func(*wsstypes.WsContext) error

type Dispatcher struct {
	handlers map[string]WsHandlerType
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]WsHandlerType),
	}
}

func (d *Dispatcher) Register(event string, handler WsHandlerType) {
	d.handlers[event] = handler
}

func (d *Dispatcher) Dispatch(event string, ctx *wsstypes.WsContext) error {
	handler, ok := d.handlers[event]
	if !ok {
		return fmt.Errorf("unknown event type: %s", event)
	}

	err := handler(ctx)
	if err != nil {
		log.Printf("[Dispatch] handler error for %s: %v", event, err)
	}
	return err
}
