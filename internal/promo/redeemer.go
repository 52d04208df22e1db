// Package promo redeems promotional event codes against the events table.
package promo

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/clicker-autopilot/internal/api"
	"github.com/yourorg/clicker-autopilot/internal/types"
)

// Redeemer submits externally supplied promo codes, one per known event,
// pacing each event by its configured cooldown. Attempt times are per-account
// session state so a code is not hammered every cycle.
type Redeemer struct {
	client api.Client
	log    *logrus.Entry

	lastAttempt map[types.EventID]time.Time
	now         func() time.Time
}

// NewRedeemer creates a promo code redeemer.
func NewRedeemer(client api.Client, log *logrus.Entry) *Redeemer {
	return &Redeemer{
		client:      client,
		log:         log,
		lastAttempt: make(map[types.EventID]time.Time),
		now:         time.Now,
	}
}

// Redeem submits each configured code whose event is known and off cooldown.
// An already-redeemed code is a normal miss; the next attempt still waits out
// the event's cooldown. The unrecoverable-session signal propagates, any
// other failure is reported through the returned error after all events were
// tried.
func (r *Redeemer) Redeem(ctx context.Context, codes map[types.EventID]string) error {
	ids := make([]types.EventID, 0, len(codes))
	for id := range codes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var firstErr error
	for _, id := range ids {
		event, ok := types.Lookup(id)
		if !ok {
			r.log.WithField("event", id).Warn("Unknown promo event, skipping")
			continue
		}
		if last, seen := r.lastAttempt[id]; seen && r.now().Sub(last) < event.Cooldown {
			continue
		}

		r.lastAttempt[id] = r.now()
		err := r.client.ApplyPromoCode(ctx, codes[id])
		switch {
		case err == nil:
			r.log.WithField("event", id).Info("Promo code redeemed")
		case api.IsConflict(err):
			r.log.WithField("event", id).Debug("Promo code already redeemed")
		case api.IsUnrecoverable(err) || ctx.Err() != nil:
			return err
		default:
			r.log.WithError(err).WithField("event", id).Warn("Promo redemption failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
