// Package energy converts available energy into currency through batched tap
// actions and applies the refill boost when the tank runs dry.
package energy

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/clicker-autopilot/internal/api"
	"github.com/yourorg/clicker-autopilot/internal/model"
)

// RefillBoostID is the catalog id of the full-energy refill boost.
const RefillBoostID = "BoostFullAvailableTaps"

// energyRounding is added to the energy figure reported alongside a tap
// batch to absorb server-side rounding asymmetries. The server occasionally
// accounts a few units more than the optimistic local estimate; reporting
// slightly high keeps the batch from being rejected.
const energyRounding = 9

// Loop drains one account's energy.
type Loop struct {
	client        api.Client
	limiter       *rate.Limiter
	refillEnabled bool
	log           *logrus.Entry
}

// maxTapBurst bounds a single batch for the limiter. The burst must cover
// the largest batch ever submitted or WaitN rejects it outright.
const maxTapBurst = 100000

// NewLoop creates a tap loop. The limiter self-throttles tap submission to
// tapsPerSecond, so waiting one token per tap delays proportionally to the
// batch size; it is our own pacing, not a server requirement.
func NewLoop(client api.Client, tapsPerSecond float64, refillEnabled bool, log *logrus.Entry) *Loop {
	limiter := rate.NewLimiter(rate.Limit(tapsPerSecond), maxTapBurst)
	// Drain the initial burst so the first batch also pays its delay.
	limiter.AllowN(time.Now(), maxTapBurst)
	return &Loop{
		client:        client,
		limiter:       limiter,
		refillEnabled: refillEnabled,
		log:           log,
	}
}

// Drain submits batched taps until the remaining energy can no longer fund a
// full-yield tap, updating the account view from each authoritative server
// response. When the tank is empty and the refill boost is ready it applies
// the boost once and reports that the cycle should restart from the top.
func (l *Loop) Drain(ctx context.Context, account *model.AccountView, catalog model.Catalog) (restart bool, err error) {
	yield := account.PerTapYield()

	for account.AvailableEnergy > yield {
		taps := account.AvailableEnergy / yield

		// Waiting one limiter token per tap throttles proportionally to the
		// batch size.
		if err := l.limiter.WaitN(ctx, taps); err != nil {
			return false, err
		}

		reported := ReportedEnergy(account.AvailableEnergy, taps, yield)
		fresh, err := l.client.Tap(ctx, reported, taps)
		if err != nil {
			return false, err
		}

		gained := fresh.Balance - account.Balance
		*account = fresh
		yield = account.PerTapYield()

		l.log.WithFields(logrus.Fields{
			"taps":    taps,
			"gained":  gained,
			"balance": account.Balance,
			"energy":  account.AvailableEnergy,
		}).Info("Tap batch accepted")
	}

	return l.maybeRefill(ctx, account, catalog)
}

// maybeRefill applies the refill boost when the tank is exhausted, the boost
// is off cooldown and it has levels left.
func (l *Loop) maybeRefill(ctx context.Context, account *model.AccountView, catalog model.Catalog) (bool, error) {
	if !l.refillEnabled {
		return false, nil
	}
	boost, ok := catalog.BoostByID(RefillBoostID)
	if !ok || !boost.Ready() {
		return false, nil
	}

	if err := l.client.ApplyBoost(ctx, RefillBoostID); err != nil {
		if api.IsConflict(err) {
			l.log.WithField("reason", err).Info("Refill boost rejected, state moved")
			return false, nil
		}
		return false, err
	}

	l.log.Info("Energy refill boost applied")
	return true, nil
}

// ReportedEnergy returns the energy figure submitted with a batch of taps:
// the optimistic remainder plus the rounding allowance.
func ReportedEnergy(availableEnergy, taps, yield int) int {
	return availableEnergy - taps*yield + energyRounding
}
