package optimizer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/clicker-autopilot/internal/api"
	"github.com/yourorg/clicker-autopilot/internal/model"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func newTestOptimizer(client api.Client, opts Options) *Optimizer {
	o := New(client, opts, testLogger())
	o.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return o
}

func availableUpgrade(id string, price, delta, current int64) model.Upgrade {
	return model.Upgrade{
		ID:                   id,
		Name:                 id,
		Price:                price,
		ProfitPerHourDelta:   delta,
		CurrentProfitPerHour: current,
		IsAvailable:          true,
	}
}

func TestSignificance(t *testing.T) {
	tests := []struct {
		name    string
		upgrade model.Upgrade
		want    float64
	}{
		{
			name:    "profit per price",
			upgrade: availableUpgrade("a", 500, 100, 50),
			want:    0.3,
		},
		{
			name:    "zero price scores zero",
			upgrade: availableUpgrade("b", 0, 100, 50),
			want:    0,
		},
		{
			name:    "no profit scores zero",
			upgrade: availableUpgrade("c", 500, 0, 0),
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Significance(tt.upgrade), 1e-9)
		})
	}
}

func TestBuildQueue_FiltersAndOrdering(t *testing.T) {
	now := time.Now()
	opts := Options{MinSignificance: 0.1, BalanceToSave: 1000, MaxLevel: 20, ExpireMultiplier: 1.0, MaxAttempts: 10}

	onCooldown := availableUpgrade("cooldown", 100, 100, 0)
	onCooldown.CooldownSeconds = 30

	expired := availableUpgrade("expired", 100, 100, 0)
	expired.IsExpired = true

	capped := availableUpgrade("capped", 100, 100, 0)
	capped.Level = 5
	capped.MaxLevel = 5

	tooExpensive := availableUpgrade("expensive", 5000, 10000, 0)

	weak := availableUpgrade("weak", 1000, 50, 50) // score 0.1, threshold is strictly greater-than

	mid := availableUpgrade("mid", 500, 100, 50)     // score 0.3
	strong := availableUpgrade("strong", 100, 40, 20) // score 0.6

	queue := BuildQueue([]model.Upgrade{onCooldown, expired, capped, tooExpensive, weak, mid, strong}, 5000, opts, now)

	require.Len(t, queue, 2)
	assert.Equal(t, "strong", queue[0].ID)
	assert.Equal(t, "mid", queue[1].ID)
	assert.GreaterOrEqual(t, queue[0].Score, queue[1].Score)
}

func TestBuildQueue_ScoreOrderingNonIncreasing(t *testing.T) {
	now := time.Now()
	opts := DefaultOptions()
	opts.BalanceToSave = 0

	var upgrades []model.Upgrade
	for i := 1; i <= 8; i++ {
		upgrades = append(upgrades, availableUpgrade(fmt.Sprintf("u%d", i), int64(i*100), int64(i*i*10), 0))
	}

	queue := BuildQueue(upgrades, 1_000_000, opts, now)
	for i := 1; i < len(queue); i++ {
		assert.GreaterOrEqual(t, queue[i-1].Score, queue[i].Score)
	}
}

func TestBuildQueue_ExpiryPaybackBoundary(t *testing.T) {
	// score = 0.5, threshold hours = 2*(100/(0.5*100)) = 4. The boundary at
	// exactly 4 hours must be excluded.
	opts := Options{MinSignificance: 0.1, BalanceToSave: 0, MaxLevel: 20, ExpireMultiplier: 1.0, MaxAttempts: 10}
	now := time.Now()

	tests := []struct {
		name      string
		hoursLeft float64
		want      int
	}{
		{"well past payback", 4.1, 1},
		{"exactly at boundary", 4.0, 0},
		{"below boundary", 3.9, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expiry := now.Add(time.Duration(tt.hoursLeft * float64(time.Hour)))
			u := availableUpgrade("exp", 200, 100, 0) // score 0.5
			u.ExpiresAt = &expiry

			queue := BuildQueue([]model.Upgrade{u}, 10_000, opts, now)
			assert.Len(t, queue, tt.want)
		})
	}
}

func TestBuildQueue_ZeroScoreExpiringExcluded(t *testing.T) {
	// A free expiring upgrade has score 0; it must be dropped before the
	// payback check rather than dividing by zero.
	now := time.Now()
	expiry := now.Add(100 * time.Hour)
	u := availableUpgrade("free", 0, 100, 0)
	u.ExpiresAt = &expiry

	queue := BuildQueue([]model.Upgrade{u}, 10_000, DefaultOptions(), now)
	assert.Empty(t, queue)
}

func TestBuildQueue_FirstLevelPriority(t *testing.T) {
	now := time.Now()
	opts := DefaultOptions()
	opts.BalanceToSave = 0
	opts.PrioritizeFirstLevel = true

	fresh := availableUpgrade("fresh", 10_000, 200, 0) // score 0.02, would normally miss the threshold
	strong := availableUpgrade("strong", 100, 60, 0)   // score 0.6
	strong.Level = 3

	queue := BuildQueue([]model.Upgrade{strong, fresh}, 1_000_000, opts, now)
	require.Len(t, queue, 2)
	assert.Equal(t, "fresh", queue[0].ID)
	assert.Equal(t, firstLevelScore, queue[0].Score)
}

func TestRun_SingleUpgradeScenario(t *testing.T) {
	// balance=10000, balanceToSave=9000, one upgrade {price:500,
	// profitDelta:100, currentProfit:50} -> score 0.3: exactly one purchase,
	// balance 9500, earn rate +100.
	upgrade := availableUpgrade("card", 500, 100, 50)

	client := &api.MockClient{}
	client.FetchCatalogFunc = func(ctx context.Context) (model.Catalog, error) {
		// After the first purchase the catalog-wide cooldown kicks in.
		bought := upgrade
		bought.Level = 1
		bought.CooldownSeconds = 3600
		return model.Catalog{Upgrades: []model.Upgrade{bought}}, nil
	}

	opts := Options{MinSignificance: 0.1, BalanceToSave: 9000, MaxLevel: 20, ExpireMultiplier: 1.0, MaxAttempts: 10}
	o := newTestOptimizer(client, opts)

	account := model.AccountView{Balance: 10000, EarnPerHour: 1000}
	err := o.Run(context.Background(), &account, model.Catalog{Upgrades: []model.Upgrade{upgrade}})

	require.NoError(t, err)
	assert.Equal(t, []string{"card"}, client.Purchases)
	assert.Equal(t, int64(9500), account.Balance)
	assert.Equal(t, int64(1100), account.EarnPerHour)
}

func TestRun_NoOverspend(t *testing.T) {
	// Every accepted purchase must satisfy balance' = balance - price >=
	// balanceToSave, over an arbitrary sequence of buys.
	const reserve = 2000

	makeCatalog := func(level int) model.Catalog {
		u := availableUpgrade("grinder", 700, 300, 0)
		u.Level = level
		return model.Catalog{Upgrades: []model.Upgrade{u}}
	}

	level := 0
	client := &api.MockClient{}
	client.FetchCatalogFunc = func(ctx context.Context) (model.Catalog, error) {
		return makeCatalog(level), nil
	}

	opts := Options{MinSignificance: 0.1, BalanceToSave: reserve, MaxLevel: 20, ExpireMultiplier: 1.0, MaxAttempts: 10}
	o := newTestOptimizer(client, opts)

	account := model.AccountView{Balance: 4000}
	balances := []int64{account.Balance}
	client.BuyUpgradeFunc = func(ctx context.Context, id string) error {
		level++
		return nil
	}
	o.OnPurchase(func(Candidate) {
		balances = append(balances, account.Balance)
	})

	require.NoError(t, o.Run(context.Background(), &account, makeCatalog(level)))

	// 4000 -> 3300 -> 2600; a third buy would breach the reserve.
	assert.Equal(t, 2, len(client.Purchases))
	for _, b := range balances[1:] {
		assert.GreaterOrEqual(t, b, int64(reserve))
	}
	assert.GreaterOrEqual(t, account.Balance, int64(reserve))
}

func TestRun_CooldownNeverAttempted(t *testing.T) {
	hot := availableUpgrade("hot", 100, 100, 0)
	hot.CooldownSeconds = 120

	client := &api.MockClient{}
	o := newTestOptimizer(client, DefaultOptions())

	account := model.AccountView{Balance: 100_000}
	require.NoError(t, o.Run(context.Background(), &account, model.Catalog{Upgrades: []model.Upgrade{hot}}))
	assert.Empty(t, client.Purchases)
}

func TestRun_ConflictSkipsToNextCandidate(t *testing.T) {
	best := availableUpgrade("best", 100, 100, 0)   // score 1.0
	backup := availableUpgrade("backup", 100, 50, 0) // score 0.5

	client := &api.MockClient{}
	client.BuyUpgradeFunc = func(ctx context.Context, id string) error {
		if id == "best" {
			return fmt.Errorf("buy-upgrade: %w", api.ErrConflict)
		}
		return nil
	}
	client.FetchCatalogFunc = func(ctx context.Context) (model.Catalog, error) {
		return model.Catalog{}, nil
	}

	opts := Options{MinSignificance: 0.1, BalanceToSave: 0, MaxLevel: 20, ExpireMultiplier: 1.0, MaxAttempts: 10}
	o := newTestOptimizer(client, opts)

	account := model.AccountView{Balance: 10_000}
	require.NoError(t, o.Run(context.Background(), &account, model.Catalog{Upgrades: []model.Upgrade{best, backup}}))

	// The conflicted purchase must not be applied locally; the backup lands.
	assert.Equal(t, []string{"best", "backup"}, client.Purchases)
	assert.Equal(t, int64(9900), account.Balance)
	assert.Equal(t, int64(50), account.EarnPerHour)
}

func TestRun_AttemptCap(t *testing.T) {
	// Every attempt conflicts; the pass must stop after MaxAttempts.
	var upgrades []model.Upgrade
	for i := 0; i < 15; i++ {
		upgrades = append(upgrades, availableUpgrade(fmt.Sprintf("u%d", i), 100, 100, 0))
	}

	client := &api.MockClient{}
	client.BuyUpgradeFunc = func(ctx context.Context, id string) error {
		return fmt.Errorf("buy-upgrade: %w", api.ErrConflict)
	}

	opts := Options{MinSignificance: 0.1, BalanceToSave: 0, MaxLevel: 20, ExpireMultiplier: 1.0, MaxAttempts: 10}
	o := newTestOptimizer(client, opts)

	account := model.AccountView{Balance: 1_000_000}
	require.NoError(t, o.Run(context.Background(), &account, model.Catalog{Upgrades: upgrades}))
	assert.Len(t, client.Purchases, 10)
}

func TestRun_ConfiguredLevelCap(t *testing.T) {
	high := availableUpgrade("high", 100, 100, 0)
	high.Level = 20

	t.Run("at cap never attempted", func(t *testing.T) {
		client := &api.MockClient{}
		opts := Options{MinSignificance: 0.1, BalanceToSave: 0, MaxLevel: 20, ExpireMultiplier: 1.0, MaxAttempts: 10}
		o := newTestOptimizer(client, opts)

		account := model.AccountView{Balance: 10_000}
		require.NoError(t, o.Run(context.Background(), &account, model.Catalog{Upgrades: []model.Upgrade{high}}))
		assert.Empty(t, client.Purchases)
	})

	t.Run("zero cap is unbounded", func(t *testing.T) {
		client := &api.MockClient{}
		client.FetchCatalogFunc = func(ctx context.Context) (model.Catalog, error) {
			return model.Catalog{}, nil
		}
		opts := Options{MinSignificance: 0.1, BalanceToSave: 0, MaxLevel: 0, ExpireMultiplier: 1.0, MaxAttempts: 10}
		o := newTestOptimizer(client, opts)

		account := model.AccountView{Balance: 10_000}
		require.NoError(t, o.Run(context.Background(), &account, model.Catalog{Upgrades: []model.Upgrade{high}}))
		assert.Equal(t, []string{"high"}, client.Purchases)
	})
}

func TestRun_TransientErrorPropagates(t *testing.T) {
	u := availableUpgrade("u", 100, 100, 0)

	client := &api.MockClient{}
	client.BuyUpgradeFunc = func(ctx context.Context, id string) error {
		return fmt.Errorf("buy-upgrade: status 502")
	}

	opts := Options{MinSignificance: 0.1, BalanceToSave: 0, MaxLevel: 20, ExpireMultiplier: 1.0, MaxAttempts: 10}
	o := newTestOptimizer(client, opts)

	account := model.AccountView{Balance: 10_000}
	err := o.Run(context.Background(), &account, model.Catalog{Upgrades: []model.Upgrade{u}})
	require.Error(t, err)
	// Nothing applied locally for a failed purchase.
	assert.Equal(t, int64(10_000), account.Balance)
}
