// Package notify cross-references the tracker cache against fetched
// availability and dispatches at most one push per tracker.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/sriRacha21/rct-backend/internal/models"
	"github.com/sriRacha21/rct-backend/internal/soc"
)

// TrackerStore is the write-back surface the engine needs.
type TrackerStore interface {
	Deactivate(ctx context.Context, id string) error
}

// UserStore resolves a tracker owner to their push identity.
type UserStore interface {
	ByUID(ctx context.Context, uid string) (*models.User, error)
}

// Engine is the matcher/dispatcher. Reconcile is invoked once per
// cycle while the caller holds the cache; the tracker's active flag is
// the single source of truth for "already notified or no longer
// eligible".
type Engine struct {
	users    UserStore
	trackers TrackerStore
	sender   Sender
	log      *zap.Logger
}

func NewEngine(users UserStore, trackers TrackerStore, sender Sender, log *zap.Logger) *Engine {
	return &Engine{users: users, trackers: trackers, sender: sender, log: log}
}

// Reconcile walks the snapshot in order and dispatches a push for every
// active tracker whose section is open. Per-tracker failures never
// abort the rest of the cycle.
func (e *Engine) Reconcile(ctx context.Context, trackers []models.Tracker, open soc.OpenSet) {
	for i := range trackers {
		t := &trackers[i]
		if !t.Active {
			continue
		}
		if !open.IsOpen(t.Index) {
			continue
		}
		e.dispatch(ctx, t)
	}
}

func (e *Engine) dispatch(ctx context.Context, t *models.Tracker) {
	log := e.log.With(
		zap.String("tracker", t.ID),
		zap.String("index", t.Index),
		zap.String("user", t.UserID),
	)

	user, err := e.users.ByUID(ctx, t.UserID)
	if err != nil {
		// The user record may be transiently missing; never deactivate
		// on ambiguous data. Retried next cycle.
		log.Warn("user lookup failed", zap.Error(err))
		return
	}
	if user.Token == "" {
		log.Warn("user has no push token")
		return
	}

	result := e.sender.Send(ctx, user.Token, Notification{
		CourseTitle: t.Course,
		Index:       t.Index,
		Season:      t.Semester,
		Year:        t.Year(),
	})
	e.onDeliveryResult(ctx, result, t, log)
}

// onDeliveryResult drives the deactivation/retry decision for one
// delivery attempt.
func (e *Engine) onDeliveryResult(ctx context.Context, result DeliveryResult, t *models.Tracker, log *zap.Logger) {
	switch result.Status {
	case DeliverySent:
		log.Info("notification sent", zap.String("messageId", result.MessageID))
		e.deactivate(ctx, t, log)
	case DeliveryInvalidToken:
		log.Warn("recipient token no longer valid, retiring tracker", zap.Error(result.Err))
		e.deactivate(ctx, t, log)
	case DeliveryRetry:
		log.Error("delivery failed, will retry next cycle", zap.Error(result.Err))
	}
}

// deactivate writes active=false once. The write is best-effort: on
// failure the tracker stays active and the next cycle may notify
// again, which beats never deactivating.
func (e *Engine) deactivate(ctx context.Context, t *models.Tracker, log *zap.Logger) {
	if err := e.trackers.Deactivate(ctx, t.ID); err != nil {
		log.Error("deactivation write failed, duplicate notification possible", zap.Error(err))
		return
	}
	// Mark the in-memory copy too so re-running against the same
	// snapshot cannot double-notify while the change feed catches up.
	t.Active = false
	log.Info("tracker deactivated")
}
