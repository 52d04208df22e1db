// Package optimizer selects which upgrades to buy, in what order, under the
// budget reserve, level cap, cooldown and expiry constraints.
package optimizer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/clicker-autopilot/internal/api"
	"github.com/yourorg/clicker-autopilot/internal/model"
)

// prePurchasePause is the self-throttle before each buy attempt.
const prePurchasePause = 5 * time.Second

// Optimizer runs the greedy purchase loop for one account.
type Optimizer struct {
	client api.Client
	opts   Options
	log    *logrus.Entry

	// now and sleep are swappable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	// onPurchase is an optional hook invoked after every successful buy
	onPurchase func(c Candidate)
}

// New creates an optimizer.
func New(client api.Client, opts Options, log *logrus.Entry) *Optimizer {
	return &Optimizer{
		client: client,
		opts:   opts,
		log:    log,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// OnPurchase registers a hook invoked after every successful purchase.
func (o *Optimizer) OnPurchase(fn func(c Candidate)) {
	o.onPurchase = fn
}

// Run executes the greedy selection against the given catalog, mutating the
// account view as purchases land. The whole selection restarts from a fresh
// catalog after every successful purchase, because buying changes every
// other item's profit contribution and starts catalog-wide cooldowns; the
// stale remainder of a sorted queue is never consumed.
func (o *Optimizer) Run(ctx context.Context, account *model.AccountView, catalog model.Catalog) error {
	upgrades := catalog.Upgrades

	for {
		queue := BuildQueue(upgrades, account.Balance, o.opts, o.now())
		if len(queue) == 0 {
			return nil
		}

		bought, err := o.buyFirstViable(ctx, account, queue)
		if err != nil {
			return err
		}
		if !bought {
			return nil
		}
		if account.Balance <= o.opts.BalanceToSave {
			return nil
		}

		fresh, err := o.client.FetchCatalog(ctx)
		if err != nil {
			return err
		}
		upgrades = fresh.Upgrades
	}
}

// buyFirstViable walks the ranked queue and purchases the first candidate
// that still holds up, re-checking cooldown, level cap and price against the
// live account view since state may have shifted between snapshot and
// attempt. A server-side conflict is a normal miss: skip to the next
// candidate. The pass gives up after MaxAttempts misses.
func (o *Optimizer) buyFirstViable(ctx context.Context, account *model.AccountView, queue []Candidate) (bool, error) {
	attempts := 0
	for _, cand := range queue {
		if attempts >= o.opts.MaxAttempts {
			o.log.WithField("attempts", attempts).Debug("Purchase attempt cap reached")
			return false, nil
		}
		if cand.CooldownSeconds > 0 {
			attempts++
			continue
		}
		// A zero configured cap means unbounded.
		if o.opts.MaxLevel > 0 && cand.Level >= o.opts.MaxLevel {
			attempts++
			continue
		}
		if account.Balance-cand.Price < o.opts.BalanceToSave {
			attempts++
			continue
		}

		if err := o.sleep(ctx, prePurchasePause); err != nil {
			return false, err
		}

		err := o.client.BuyUpgrade(ctx, cand.ID)
		if api.IsConflict(err) {
			o.log.WithFields(logrus.Fields{
				"upgrade": cand.ID,
				"reason":  err,
			}).Info("Purchase rejected, state moved; skipping")
			attempts++
			continue
		}
		if err != nil {
			return false, err
		}

		account.Balance -= cand.Price
		account.EarnPerHour += cand.ProfitPerHourDelta
		o.log.WithFields(logrus.Fields{
			"upgrade":       cand.Name,
			"level":         cand.Level + 1,
			"price":         cand.Price,
			"earn_per_hour": account.EarnPerHour,
			"balance":       account.Balance,
		}).Info("Upgrade purchased")
		if o.onPurchase != nil {
			o.onPurchase(cand)
		}
		return true, nil
	}
	return false, nil
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
