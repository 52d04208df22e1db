// Package combo detects and completes the daily multi-item bonus event.
package combo

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/clicker-autopilot/internal/api"
	"github.com/yourorg/clicker-autopilot/internal/model"
)

// Resolver completes the daily combo when, and only when, the whole set can
// be bought and the bonus outweighs the spend. Partial completion is never
// attempted: paying for part of the set without the bonus is strictly worse
// than doing nothing.
type Resolver struct {
	client api.Client
	log    *logrus.Entry
	now    func() time.Time
}

// NewResolver creates a combo resolver.
func NewResolver(client api.Client, log *logrus.Entry) *Resolver {
	return &Resolver{client: client, log: log, now: time.Now}
}

// Resolve attempts the daily combo against the current catalog. It returns
// whether the bonus was claimed. The account view is mutated only for
// purchases that actually landed.
func (r *Resolver) Resolve(ctx context.Context, account *model.AccountView, catalog model.Catalog) (bool, error) {
	spec := catalog.Combo
	progress := catalog.ComboProgress
	if spec == nil || progress == nil || progress.IsClaimed {
		return false, nil
	}
	if !spec.Active(r.now()) {
		r.log.Debug("Daily combo outside its validity window")
		return false, nil
	}

	needed := neededIDs(spec.UpgradeIDs, progress.UpgradeIDs)
	if len(needed) == 0 {
		// Every member already counted; only the claim is outstanding.
		return r.claim(ctx, account, progress.BonusCoins)
	}

	purchasable := make([]model.Upgrade, 0, len(needed))
	for _, id := range needed {
		u, ok := catalog.UpgradeByID(id)
		if !ok || !u.Eligible() {
			continue
		}
		purchasable = append(purchasable, u)
	}

	// Full completability or nothing.
	if len(purchasable) != len(needed) {
		r.log.WithFields(logrus.Fields{
			"needed":      len(needed),
			"purchasable": len(purchasable),
		}).Info("Daily combo not fully completable, skipping")
		return false, nil
	}

	var totalPrice int64
	for _, u := range purchasable {
		totalPrice += u.Price
	}
	if totalPrice >= progress.BonusCoins {
		r.log.WithFields(logrus.Fields{
			"price": totalPrice,
			"bonus": progress.BonusCoins,
		}).Info("Daily combo costs more than its bonus, skipping")
		return false, nil
	}
	if account.Balance <= totalPrice {
		r.log.WithFields(logrus.Fields{
			"price":   totalPrice,
			"balance": account.Balance,
		}).Info("Insufficient balance for daily combo, skipping")
		return false, nil
	}

	// All members are mandatory, so order does not matter.
	for _, u := range purchasable {
		if err := r.client.BuyUpgrade(ctx, u.ID); err != nil {
			return false, err
		}
		account.Balance -= u.Price
		account.EarnPerHour += u.ProfitPerHourDelta
		r.log.WithFields(logrus.Fields{
			"upgrade": u.Name,
			"price":   u.Price,
		}).Info("Combo member purchased")
	}

	return r.claim(ctx, account, progress.BonusCoins)
}

// claim issues the single combo claim and credits the bonus locally.
func (r *Resolver) claim(ctx context.Context, account *model.AccountView, bonus int64) (bool, error) {
	if err := r.client.ClaimDailyCombo(ctx); err != nil {
		return false, err
	}
	account.Balance += bonus
	r.log.WithField("bonus", bonus).Info("Daily combo claimed")
	return true, nil
}

// neededIDs returns the combo members not yet counted by the server.
func neededIDs(members, counted []string) []string {
	have := make(map[string]bool, len(counted))
	for _, id := range counted {
		have[id] = true
	}
	var needed []string
	for _, id := range members {
		if !have[id] {
			needed = append(needed, id)
		}
	}
	return needed
}
