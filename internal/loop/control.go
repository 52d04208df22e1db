// Package loop drives the per-account control cycle: authenticate, sync,
// act, cool down, repeat, with bounded retry and a hard abort threshold.
package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/clicker-autopilot/internal/api"
	"github.com/yourorg/clicker-autopilot/internal/combo"
	"github.com/yourorg/clicker-autopilot/internal/config"
	"github.com/yourorg/clicker-autopilot/internal/daily"
	"github.com/yourorg/clicker-autopilot/internal/energy"
	"github.com/yourorg/clicker-autopilot/internal/metrics"
	"github.com/yourorg/clicker-autopilot/internal/model"
	"github.com/yourorg/clicker-autopilot/internal/optimizer"
	"github.com/yourorg/clicker-autopilot/internal/promo"
	"github.com/yourorg/clicker-autopilot/internal/session"
	"github.com/yourorg/clicker-autopilot/internal/snapshot"
)

// State is the control loop's current phase.
type State int

// Control loop states
const (
	StateAuthenticating State = iota
	StateSyncing
	StateActing
	StateCoolingDown
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateSyncing:
		return "syncing"
	case StateActing:
		return "acting"
	case StateCoolingDown:
		return "cooling_down"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

const (
	// transientRetryDelay is the fixed pause after an absorbed cycle failure
	transientRetryDelay = 3 * time.Second

	// maxConsecutiveFailures aborts the account once reached
	maxConsecutiveFailures = 10

	// tapsPerSecond paces the energy loop's batched taps
	tapsPerSecond = 4.0
)

// Loop owns one account's control cycle. All per-account session state
// (credential age, failure count, loop phase) lives here as explicit fields,
// passed through the cycle rather than mutated as loop-local variables.
type Loop struct {
	accountName string
	cfg         config.Config
	log         *logrus.Entry
	mets        *metrics.Metrics

	client    api.Client
	session   *session.Manager
	fetcher   *snapshot.Fetcher
	optimizer *optimizer.Optimizer
	combo     *combo.Resolver
	energy    *energy.Loop
	daily     *daily.Claimer
	promo     *promo.Redeemer

	state    State
	failures *FailureBudget

	// runCycle and sleep are swappable for tests
	runCycle func(ctx context.Context) (time.Duration, error)
	sleep    func(ctx context.Context, d time.Duration) error
}

// New wires a control loop for one roster account.
func New(account config.Account, cfg config.Config, client api.Client, mets *metrics.Metrics) *Loop {
	log := logrus.WithField("account", account.Name)

	opts := optimizer.Options{
		MinSignificance:      cfg.MinSignificance,
		BalanceToSave:        cfg.BalanceToSave,
		MaxLevel:             cfg.MaxLevel,
		ExpireMultiplier:     cfg.ExpireMultiplier,
		PrioritizeFirstLevel: cfg.PrioritizeFirstLevel,
		MaxAttempts:          10,
	}

	l := &Loop{
		accountName: account.Name,
		cfg:         cfg,
		log:         log,
		mets:        mets,
		client:      client,
		session:     session.NewManager(client, session.StaticProof(account.Proof), log),
		fetcher:     snapshot.NewFetcher(client),
		optimizer:   optimizer.New(client, opts, log),
		combo:       combo.NewResolver(client, log),
		energy:      energy.NewLoop(client, tapsPerSecond, cfg.ApplyDailyEnergy, log),
		daily:       daily.NewClaimer(client, log),
		promo:       promo.NewRedeemer(client, log),
		failures:    NewFailureBudget(maxConsecutiveFailures),
		sleep:       sleepCtx,
	}
	l.runCycle = l.cycle
	if mets != nil {
		l.optimizer.OnPurchase(func(optimizer.Candidate) {
			mets.PurchasesTotal.WithLabelValues(account.Name).Inc()
		})
	}
	return l
}

// State returns the loop's current phase.
func (l *Loop) State() State {
	return l.state
}

// Failures returns the current consecutive-failure count.
func (l *Loop) Failures() int {
	return l.failures.Count()
}

// Run drives the control loop until the context is cancelled, the failure
// budget is exhausted, or the session proves unrecoverable. It is the only
// place errors escape: everything transient is absorbed here.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		cooldown, err := l.runCycle(ctx)
		if err != nil {
			// The unrecoverable-session signal bypasses the cycle handler:
			// no retry, no failure accounting.
			if api.IsUnrecoverable(err) {
				l.setState(StateAborted)
				l.log.WithError(err).Error("Session unrecoverable, stopping account")
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			exhausted := l.failures.Record()
			l.countError("transient")
			l.countCycle("error")
			l.log.WithError(err).WithField("consecutive_failures", l.failures.Count()).Error("Cycle failed")

			if exhausted {
				l.setState(StateAborted)
				return fmt.Errorf("aborted after %d consecutive failures: %w", l.failures.Count(), err)
			}
			if err := l.sleep(ctx, transientRetryDelay); err != nil {
				return err
			}
			continue
		}

		l.failures.Reset()
		l.countCycle("ok")

		if cooldown > 0 {
			l.setState(StateCoolingDown)
			l.log.WithField("sleep", cooldown).Info("Cycle complete, cooling down")
			if err := l.sleep(ctx, cooldown); err != nil {
				return err
			}
		}
	}
}

// cycle performs one full pass: ensure the credential, snapshot remote
// state, run the daily claims, the combo, the optimizer and the tap loop,
// then report how long to sleep. A zero cooldown means restart immediately
// (the energy refill boost was applied).
func (l *Loop) cycle(ctx context.Context) (time.Duration, error) {
	l.setState(StateAuthenticating)
	if _, err := l.session.EnsureValid(ctx); err != nil {
		return 0, err
	}

	l.setState(StateSyncing)
	snap, err := l.fetcher.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	account := snap.Account
	l.observeAccount(account)
	l.log.WithFields(logrus.Fields{
		"balance":       account.Balance,
		"earn_per_hour": account.EarnPerHour,
		"passive_earn":  account.LastPassiveEarn,
		"energy":        account.AvailableEnergy,
	}).Info("Snapshot")

	l.setState(StateActing)
	if err := l.runDailyClaims(ctx, account, snap.Catalog); err != nil {
		return 0, err
	}

	if l.cfg.AutoBuyCombo {
		if _, err := l.combo.Resolve(ctx, &account, snap.Catalog); err != nil {
			return 0, err
		}
	}

	if l.cfg.AutoUpgrade && account.Balance > l.cfg.BalanceToSave {
		if err := l.optimizer.Run(ctx, &account, snap.Catalog); err != nil {
			return 0, err
		}
	}

	tapsBefore := account.AvailableEnergy / account.PerTapYield()
	restart, err := l.energy.Drain(ctx, &account, snap.Catalog)
	if err != nil {
		return 0, err
	}
	if l.mets != nil && tapsBefore > 0 {
		l.mets.TapsTotal.WithLabelValues(l.accountName).Add(float64(tapsBefore))
	}
	l.observeAccount(account)

	if restart {
		// Fresh energy to spend: go straight back to the top of the loop.
		return 0, nil
	}
	return nextSleep(snap.Catalog.MinUpgradeCooldown(), l.cfg.SleepByMinEnergy), nil
}

// runDailyClaims performs the idempotent-per-day actions. Their transient
// failures are absorbed per sub-action so a flaky claim endpoint cannot
// starve the purchasing path; the unrecoverable signal still propagates.
func (l *Loop) runDailyClaims(ctx context.Context, account model.AccountView, catalog model.Catalog) error {
	steps := []struct {
		name    string
		enabled bool
		run     func() error
	}{
		{"select-exchange", true, func() error {
			return l.daily.EnsureExchange(ctx, account, l.cfg.DefaultExchange)
		}},
		{"streak", true, func() error {
			return l.daily.ClaimStreak(ctx, catalog.Tasks)
		}},
		{"cipher", l.cfg.AutoClaimDailyCipher, func() error {
			return l.daily.ClaimCipher(ctx, catalog.Cipher)
		}},
		{"minigame", l.cfg.AutoFinishMiniGame, func() error {
			return l.daily.FinishMiniGame(ctx, catalog.MiniGame, account.ID)
		}},
		{"promo", len(l.cfg.PromoCodes) > 0, func() error {
			return l.promo.Redeem(ctx, l.cfg.PromoCodes)
		}},
	}

	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if err := step.run(); err != nil {
			if api.IsUnrecoverable(err) || ctx.Err() != nil {
				return err
			}
			l.countError("daily")
			l.log.WithError(err).WithField("step", step.name).Warn("Daily claim failed, continuing cycle")
		}
	}
	return nil
}

// nextSleep picks the post-cycle sleep: the smallest nonzero upgrade
// cooldown seen this cycle, bounded above by the configured floor, so the
// next cycle starts as soon as something becomes actionable.
func nextSleep(minCooldown, floor time.Duration) time.Duration {
	if minCooldown > 0 && minCooldown < floor {
		return minCooldown
	}
	return floor
}

func (l *Loop) setState(s State) {
	l.state = s
	if l.mets != nil {
		l.mets.LoopState.WithLabelValues(l.accountName).Set(float64(s))
	}
}

func (l *Loop) observeAccount(a model.AccountView) {
	if l.mets == nil {
		return
	}
	l.mets.Balance.WithLabelValues(l.accountName).Set(float64(a.Balance))
	l.mets.EarnPerHour.WithLabelValues(l.accountName).Set(float64(a.EarnPerHour))
}

func (l *Loop) countCycle(status string) {
	if l.mets != nil {
		l.mets.CyclesTotal.WithLabelValues(l.accountName, status).Inc()
	}
}

func (l *Loop) countError(kind string) {
	if l.mets != nil {
		l.mets.ErrorsTotal.WithLabelValues(l.accountName, kind).Inc()
	}
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
