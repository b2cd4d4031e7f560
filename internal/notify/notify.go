// Package notify is the message-delivery capability the core consumes. The
// chat transport supplies the real implementation; delivery failures are
// per-recipient, counted, and never abort the operation that triggered them.
package notify

import (
	"github.com/rs/zerolog/log"
)

type Notifier interface {
	Notify(userID int64, text string) error
}

// Func adapts a function to the Notifier interface.
type Func func(userID int64, text string) error

func (f Func) Notify(userID int64, text string) error { return f(userID, text) }

// LogNotifier writes messages to the log. Default when no transport is wired.
type LogNotifier struct{}

func (LogNotifier) Notify(userID int64, text string) error {
	log.Info().Int64("user_id", userID).Str("text", text).Msg("notify")
	return nil
}

// Broadcaster fans a message out to a recipient list, swallowing and counting
// per-recipient failures.
type Broadcaster struct {
	N Notifier
}

func NewBroadcaster(n Notifier) *Broadcaster { return &Broadcaster{N: n} }

// Send delivers text to every id. Returns (delivered, failed).
func (b *Broadcaster) Send(ids []int64, text string) (int, int) {
	if b == nil || b.N == nil {
		return 0, 0
	}
	sent, failed := 0, 0
	for _, id := range ids {
		if err := b.N.Notify(id, text); err != nil {
			failed++
			log.Warn().Err(err).Int64("user_id", id).Msg("notify failed")
			continue
		}
		sent++
	}
	if failed > 0 {
		log.Warn().Int("sent", sent).Int("failed", failed).Msg("broadcast finished with failures")
	}
	return sent, failed
}
