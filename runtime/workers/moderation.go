package workers

import (
	"context"
	"log/slog"

	"sup-gateway/domain/event"
	"sup-gateway/moderation"

	"github.com/abadojack/whatlanggo"
)

// ModerationWorker sits between event producers and the fan-out notifier.
// Message content is censored before it reaches any live connection; every
// other event passes through untouched.
type ModerationWorker struct {
	moderator moderation.Moderator
	incoming  chan event.DomainEvent
	outgoing  chan event.DomainEvent
	log       *slog.Logger
}

func NewModerationWorker(moderator moderation.Moderator,
	incoming, outgoing chan event.DomainEvent, log *slog.Logger) *ModerationWorker {
	return &ModerationWorker{moderator: moderator, incoming: incoming, outgoing: outgoing, log: log}
}

func (w *ModerationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case e, ok := <-w.incoming:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case w.outgoing <- w.sanitize(e):
			}
		}
	}
}

// sanitize rewrites the content of message events; everything else is
// forwarded as-is.
func (w *ModerationWorker) sanitize(e event.DomainEvent) event.DomainEvent {
	msg, ok := e.(event.Message)
	if !ok {
		return e
	}

	censored, foundWords := w.moderator.Censor(msg.Message.Content)
	if len(foundWords) > 0 {
		info := whatlanggo.Detect(msg.Message.Content)
		w.log.Warn("Message censored",
			"message", msg.Message.ID,
			"author", msg.Message.SourceID,
			"lang", info.Lang.Iso6391(),
			"words", len(foundWords))
	}
	msg.Message.Content = censored
	return msg
}
