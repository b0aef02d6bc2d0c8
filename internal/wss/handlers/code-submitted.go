package wsshandler

import (
	"context"

	"github.com/devdual/BattleRoomManagerService/internal/model"
	"github.com/devdual/BattleRoomManagerService/internal/service"
	wsstypes "github.com/devdual/BattleRoomManagerService/internal/wss/types"
)

// CodeSubmitted runs the submission pipeline for the session user. The
// pipeline fans submissionResult and battleProgress out to the whole room;
// this handler adds the opponent-submitted nudge and acks the sender with the
// full verdict.
func (h *Handlers) CodeSubmitted(ctx *wsstypes.WsContext) error {
	if !h.requireSession(ctx, model.EvtCodeSubmitted) {
		return nil
	}

	payload, err := decode[wsstypes.CodeSubmittedPayload](ctx)
	if err != nil {
		return h.nack(ctx, model.EvtCodeSubmitted, "invalid payload format")
	}

	bg := context.Background()

	result, err := h.Submissions.Submit(bg, service.SubmitRequest{
		MatchID:   payload.MatchID,
		UserID:    ctx.Session.UserID,
		ProblemID: payload.ProblemID,
		Code:      payload.Code,
		Language:  payload.Language,
	})
	if err != nil {
		return h.nackErr(ctx, model.EvtCodeSubmitted, err)
	}

	h.Bus.PublishExcept(bg, ctx.Session.RoomID, ctx.ConnID, model.Event{
		Type: model.EvtOpponentSubmitted,
		Payload: model.OpponentSubmittedPayload{
			UserID:    ctx.Session.UserID,
			ProblemID: payload.ProblemID,
			Result:    result.Verdict.Status,
		},
	})

	return h.ack(ctx, model.EvtCodeSubmitted, map[string]any{
		"verdict":  result.Verdict,
		"progress": result.Progress,
	})
}
