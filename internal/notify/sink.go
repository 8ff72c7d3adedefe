package notify

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/lucashahnndev/radar-do-caos/internal/storage"
)

// HistoryStore is the slice of the store the sink needs.
type HistoryStore interface {
	AppendHistory(entry storage.HistoryEntry) error
}

// Sink couples delivery with the audit trail: every fired alert is sent to
// the user and appended to the immutable history. A delivery failure is
// logged and swallowed so one unreachable user never aborts a batch; the
// history row is written regardless.
type Sink struct {
	notifier Notifier
	history  HistoryStore

	// OnFire, when set, observes every fired alert by kind.
	OnFire func(kind string)
}

func NewSink(notifier Notifier, history HistoryStore) *Sink {
	return &Sink{notifier: notifier, history: history}
}

// Fire sends the alert text and records the history entry.
func (s *Sink) Fire(ctx context.Context, userID int64, ticker, kind string, triggerValue float64, message string) {
	if err := s.notifier.Notify(ctx, userID, message); err != nil {
		log.Errorf("failed to deliver %s alert to user %d: %v", kind, userID, err)
	}

	err := s.history.AppendHistory(storage.HistoryEntry{
		UserID:       userID,
		Ticker:       ticker,
		Kind:         kind,
		TriggerValue: triggerValue,
		Message:      message,
	})
	if err != nil {
		log.Errorf("failed to append %s alert history for user %d: %v", kind, userID, err)
	}

	if s.OnFire != nil {
		s.OnFire(kind)
	}
}
