// Package model defines the core data structures for the clicker autopilot.
package model

import (
	"time"
)

// AccountView is the in-process working copy of remote account state for one
// session. It is rebuilt from a fresh snapshot every cycle and mutated only by
// applying the result of a successful remote action, never speculatively.
type AccountView struct {
	// ID is the server-side account identifier
	ID string `json:"id"`

	// Balance is the spendable currency balance in whole units
	Balance int64 `json:"balanceCoins"`

	// TotalEarned is the lifetime earned total
	TotalEarned int64 `json:"totalCoins"`

	// EarnPerHour is the passive hourly income rate
	EarnPerHour int64 `json:"earnPassivePerHour"`

	// LastPassiveEarn is what accrued passively since the previous sync
	LastPassiveEarn int64 `json:"lastPassiveEarn"`

	// AvailableEnergy is the energy left to spend on taps
	AvailableEnergy int `json:"availableTaps"`

	// Level is the account level; it raises the per-tap yield
	Level int `json:"level"`

	// TapBoostLevel is the level of the per-tap yield boost
	TapBoostLevel int `json:"tapBoostLevel"`

	// ExchangeID is the exchange bound to the account, empty until selected
	ExchangeID string `json:"exchangeId"`
}

// PerTapYield is the energy spent (and currency earned) per single tap.
func (a AccountView) PerTapYield() int {
	y := a.Level + a.TapBoostLevel
	if y < 1 {
		return 1
	}
	return y
}

// Upgrade is one purchasable item from the catalog.
type Upgrade struct {
	// ID is the opaque key, unique within a catalog snapshot
	ID string `json:"id"`

	// Name is the display name, used only for logging
	Name string `json:"name"`

	// Level is the current tier
	Level int `json:"level"`

	// Price is the cost of the next tier
	Price int64 `json:"price"`

	// ProfitPerHourDelta is the hourly-rate gain from buying the next tier
	ProfitPerHourDelta int64 `json:"profitPerHourDelta"`

	// CurrentProfitPerHour is the contribution at the current tier
	CurrentProfitPerHour int64 `json:"currentProfitPerHour"`

	// MaxLevel caps the tier; zero means the server reported no cap
	MaxLevel int `json:"maxLevel"`

	// CooldownSeconds is the time until the item is purchasable again
	CooldownSeconds int `json:"cooldownSeconds"`

	// IsAvailable reports whether the server considers the item buyable
	IsAvailable bool `json:"isAvailable"`

	// IsExpired reports whether the item's offer window has closed
	IsExpired bool `json:"isExpired"`

	// ExpiresAt is the absolute purchase deadline, if any
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Eligible reports whether the upgrade may be purchased right now:
// available, not expired, off cooldown and below its level cap. An absent
// cap (MaxLevel == 0) means the server reported the item as unbounded.
func (u Upgrade) Eligible() bool {
	if !u.IsAvailable || u.IsExpired || u.CooldownSeconds > 0 {
		return false
	}
	if u.MaxLevel > 0 && u.Level >= u.MaxLevel {
		return false
	}
	return true
}

// HoursUntilExpiry returns the hours remaining before the upgrade expires,
// or zero when the upgrade carries no deadline.
func (u Upgrade) HoursUntilExpiry(now time.Time) float64 {
	if u.ExpiresAt == nil {
		return 0
	}
	return u.ExpiresAt.Sub(now).Hours()
}

// Boost is a consumable account booster, e.g. the full-energy refill.
type Boost struct {
	ID              string `json:"id"`
	Level           int    `json:"level"`
	MaxLevel        int    `json:"maxLevel"`
	CooldownSeconds int    `json:"cooldownSeconds"`
}

// Ready reports whether the boost can be applied: off cooldown and not
// past its level cap.
func (b Boost) Ready() bool {
	return b.CooldownSeconds == 0 && b.Level <= b.MaxLevel
}

// ComboSpec is the externally published daily combo: the member upgrade ids
// and the start of the 24-hour validity window.
type ComboSpec struct {
	// UpgradeIDs are the members that must all be purchased
	UpgradeIDs []string

	// StartsAt anchors the validity window [StartsAt, StartsAt+24h)
	StartsAt time.Time
}

// Active reports whether now falls inside the combo's validity window.
func (c ComboSpec) Active(now time.Time) bool {
	if c.StartsAt.IsZero() {
		return false
	}
	return !now.Before(c.StartsAt) && now.Before(c.StartsAt.Add(24*time.Hour))
}

// ComboProgress is the server-reported state of the daily combo for this
// account.
type ComboProgress struct {
	// UpgradeIDs already counted toward the combo
	UpgradeIDs []string `json:"upgradeIds"`

	// IsClaimed reports whether the bonus was already collected
	IsClaimed bool `json:"isClaimed"`

	// BonusCoins is the reward for completing the combo
	BonusCoins int64 `json:"bonusCoins"`
}

// DailyCipher is the daily cipher puzzle published by the server.
type DailyCipher struct {
	// Cipher is the obfuscated puzzle text as published
	Cipher string `json:"cipher"`

	// IsClaimed reports whether the reward was already collected
	IsClaimed bool `json:"isClaimed"`

	// BonusCoins is the reward for solving the cipher
	BonusCoins int64 `json:"bonusCoins"`
}

// MiniGame is the daily keys mini-game state.
type MiniGame struct {
	// IsClaimed reports whether today's reward was already collected
	IsClaimed bool `json:"isClaimed"`

	// RemainSecondsToNextAttempt is the cooldown before a new attempt
	RemainSecondsToNextAttempt int `json:"remainSecondsToNextAttempt"`

	// RemainSecondsToGuess is the window left to submit an answer
	RemainSecondsToGuess int `json:"remainSecondsToGuess"`
}

// DayReward is one entry of the streak task reward schedule.
type DayReward struct {
	Days        int   `json:"days"`
	RewardCoins int64 `json:"rewardCoins"`
}

// Task is a server-side task; the streak task is the one the autopilot
// claims daily.
type Task struct {
	ID            string      `json:"id"`
	IsCompleted   bool        `json:"isCompleted"`
	Days          int         `json:"days"`
	RewardsByDays []DayReward `json:"rewardsByDays"`
}

// Catalog is the server-side feature configuration fetched once per cycle:
// the purchasable upgrades plus the daily events attached to the account.
type Catalog struct {
	Upgrades []Upgrade
	Boosts   []Boost

	Combo         *ComboSpec
	ComboProgress *ComboProgress
	Cipher        *DailyCipher
	MiniGame      *MiniGame
	Tasks         []Task
}

// UpgradeByID returns the catalog upgrade with the given id.
func (c Catalog) UpgradeByID(id string) (Upgrade, bool) {
	for _, u := range c.Upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return Upgrade{}, false
}

// BoostByID returns the catalog boost with the given id.
func (c Catalog) BoostByID(id string) (Boost, bool) {
	for _, b := range c.Boosts {
		if b.ID == id {
			return b, true
		}
	}
	return Boost{}, false
}

// MinUpgradeCooldown returns the smallest nonzero cooldown across the
// catalog's upgrades, or zero when every upgrade is off cooldown.
func (c Catalog) MinUpgradeCooldown() time.Duration {
	min := 0
	for _, u := range c.Upgrades {
		if u.CooldownSeconds <= 0 {
			continue
		}
		if min == 0 || u.CooldownSeconds < min {
			min = u.CooldownSeconds
		}
	}
	return time.Duration(min) * time.Second
}
