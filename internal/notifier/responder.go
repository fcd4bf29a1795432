package notifier

import (
	"context"

	"TickerBot/internal/model"
)

// Responder is the two-phase reply channel of one interaction:
// Defer acknowledges quickly, Deliver sends the final answer.
type Responder interface {
	Defer(ctx context.Context) error
	Deliver(ctx context.Context, reply model.Reply) error
}

// ChatResponder answers an interaction in its Telegram chat.
type ChatResponder struct {
	API       *Telegram
	ChatID    int64
	MessageID int64
	Action    string // chat action shown on Defer
}

// Responder returns a ChatResponder for in.
func (t *Telegram) Responder(in model.Interaction) *ChatResponder {
	return &ChatResponder{API: t, ChatID: in.ChatID, MessageID: in.MessageID, Action: "typing"}
}

func (r *ChatResponder) Defer(ctx context.Context) error {
	return r.API.SendChatAction(ctx, r.ChatID, r.Action)
}

// Deliver sends the reply. A photo carries the text as caption when it fits.
// Deleting the trigger message is best-effort.
func (r *ChatResponder) Deliver(ctx context.Context, reply model.Reply) error {
	replyTo := r.MessageID
	if reply.DeleteTrigger {
		replyTo = 0
		if err := r.API.DeleteMessage(ctx, r.ChatID, r.MessageID); err != nil {
			r.API.Log.WithField("chat", r.ChatID).Warnf("delete trigger message: %v", err)
		}
	}

	if reply.Photo == nil {
		return r.API.Send(ctx, r.ChatID, reply.Text, replyTo)
	}
	if len(reply.Text) <= maxCaptionLen {
		return r.API.SendPhoto(ctx, r.ChatID, *reply.Photo, reply.Text, replyTo)
	}
	if err := r.API.SendPhoto(ctx, r.ChatID, *reply.Photo, "", replyTo); err != nil {
		return err
	}
	return r.API.Send(ctx, r.ChatID, reply.Text, replyTo)
}
