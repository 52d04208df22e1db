package optimizer

import (
	"sort"
	"time"

	"github.com/yourorg/clicker-autopilot/internal/model"
)

// firstLevelScore is the fixed score assigned to level-0 upgrades when the
// first-level priority policy is enabled. It only has to outrank every
// realistic profit-derived score.
const firstLevelScore = 100.0

// Significance is the dimensionless greedy-ranking value for an upgrade:
// the total hourly profit of the next tier per unit of price. A free
// upgrade scores zero so the strictly-greater threshold never auto-selects it.
func Significance(u model.Upgrade) float64 {
	if u.Price <= 0 {
		return 0
	}
	return float64(u.ProfitPerHourDelta+u.CurrentProfitPerHour) / float64(u.Price)
}

// Candidate is an upgrade admitted to the purchase queue with its score.
type Candidate struct {
	model.Upgrade
	Score float64
}

// Options tune the greedy selection.
type Options struct {
	// MinSignificance is the inclusion threshold for non-expiring upgrades
	// (strictly greater-than)
	MinSignificance float64

	// BalanceToSave is the budget reserve no purchase may dip below
	BalanceToSave int64

	// MaxLevel is the per-item level cap enforced at purchase time
	MaxLevel int

	// ExpireMultiplier scales the score of upgrades that carry a deadline
	ExpireMultiplier float64

	// PrioritizeFirstLevel short-circuits level-0 upgrades to a fixed high
	// score
	PrioritizeFirstLevel bool

	// MaxAttempts bounds purchase attempts per selection pass
	MaxAttempts int
}

// DefaultOptions returns the selection defaults.
func DefaultOptions() Options {
	return Options{
		MinSignificance:  0.1,
		BalanceToSave:    10000,
		MaxLevel:         20,
		ExpireMultiplier: 1.0,
		MaxAttempts:      10,
	}
}

// score computes the effective ranking value for one upgrade under the
// configured policy.
func score(u model.Upgrade, opts Options) float64 {
	s := Significance(u)
	if u.ExpiresAt != nil {
		s *= opts.ExpireMultiplier
	}
	if opts.PrioritizeFirstLevel && u.Level == 0 {
		s = firstLevelScore
	}
	return s
}

// paysBackBeforeExpiry applies the expiry inclusion heuristic: the hours
// remaining must exceed 2*(100/(s*100)), using the score as a proxy payback
// rate. The boundary at equality is excluded. The constants are deliberate
// and tunable; they are kept in this exact shape.
func paysBackBeforeExpiry(hoursRemaining, s float64) bool {
	if s <= 0 {
		return false
	}
	return hoursRemaining > 2*(100/(s*100))
}

// BuildQueue filters the catalog to purchasable candidates under the budget
// reserve and ranks them by descending score. Expiring candidates must
// additionally pass the payback heuristic; zero-score expiring candidates
// are dropped before that check so the heuristic never divides by zero.
func BuildQueue(upgrades []model.Upgrade, balance int64, opts Options, now time.Time) []Candidate {
	queue := make([]Candidate, 0, len(upgrades))
	for _, u := range upgrades {
		if !u.Eligible() {
			continue
		}
		if balance-u.Price < opts.BalanceToSave {
			continue
		}

		s := score(u, opts)
		if u.ExpiresAt == nil {
			if s <= opts.MinSignificance {
				continue
			}
		} else if !paysBackBeforeExpiry(u.HoursUntilExpiry(now), s) {
			continue
		}

		queue = append(queue, Candidate{Upgrade: u, Score: s})
	}

	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].Score > queue[j].Score
	})
	return queue
}
