package api

import (
	"context"

	"github.com/yourorg/clicker-autopilot/internal/model"
)

// MockClient is a scriptable Client for tests. Unset hooks succeed with zero
// values, so a test only wires the calls it cares about.
type MockClient struct {
	LoginFunc             func(ctx context.Context, proof string) (string, error)
	FetchAccountStateFunc func(ctx context.Context) (model.AccountView, error)
	FetchCatalogFunc      func(ctx context.Context) (model.Catalog, error)
	SelectExchangeFunc    func(ctx context.Context, exchangeID string) error
	ClaimTaskFunc         func(ctx context.Context, taskID string) error
	ClaimDailyCipherFunc  func(ctx context.Context, plaintext string) error
	StartMiniGameFunc     func(ctx context.Context) (model.MiniGame, error)
	CompleteMiniGameFunc  func(ctx context.Context, answerToken string) error
	BuyUpgradeFunc        func(ctx context.Context, upgradeID string) error
	ApplyBoostFunc        func(ctx context.Context, boostID string) error
	ApplyPromoCodeFunc    func(ctx context.Context, code string) error
	TapFunc               func(ctx context.Context, availableEnergy, count int) (model.AccountView, error)
	ClaimDailyComboFunc   func(ctx context.Context) error

	// Credential records the last SetCredential value
	Credential string

	// Purchases records every BuyUpgrade id in call order
	Purchases []string
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Login(ctx context.Context, proof string) (string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, proof)
	}
	return "mock-token", nil
}

func (m *MockClient) SetCredential(token string) {
	m.Credential = token
}

func (m *MockClient) FetchAccountState(ctx context.Context) (model.AccountView, error) {
	if m.FetchAccountStateFunc != nil {
		return m.FetchAccountStateFunc(ctx)
	}
	return model.AccountView{}, nil
}

func (m *MockClient) FetchCatalog(ctx context.Context) (model.Catalog, error) {
	if m.FetchCatalogFunc != nil {
		return m.FetchCatalogFunc(ctx)
	}
	return model.Catalog{}, nil
}

func (m *MockClient) SelectExchange(ctx context.Context, exchangeID string) error {
	if m.SelectExchangeFunc != nil {
		return m.SelectExchangeFunc(ctx, exchangeID)
	}
	return nil
}

func (m *MockClient) ClaimTask(ctx context.Context, taskID string) error {
	if m.ClaimTaskFunc != nil {
		return m.ClaimTaskFunc(ctx, taskID)
	}
	return nil
}

func (m *MockClient) ClaimDailyCipher(ctx context.Context, plaintext string) error {
	if m.ClaimDailyCipherFunc != nil {
		return m.ClaimDailyCipherFunc(ctx, plaintext)
	}
	return nil
}

func (m *MockClient) StartMiniGame(ctx context.Context) (model.MiniGame, error) {
	if m.StartMiniGameFunc != nil {
		return m.StartMiniGameFunc(ctx)
	}
	return model.MiniGame{}, nil
}

func (m *MockClient) CompleteMiniGame(ctx context.Context, answerToken string) error {
	if m.CompleteMiniGameFunc != nil {
		return m.CompleteMiniGameFunc(ctx, answerToken)
	}
	return nil
}

func (m *MockClient) BuyUpgrade(ctx context.Context, upgradeID string) error {
	m.Purchases = append(m.Purchases, upgradeID)
	if m.BuyUpgradeFunc != nil {
		return m.BuyUpgradeFunc(ctx, upgradeID)
	}
	return nil
}

func (m *MockClient) ApplyBoost(ctx context.Context, boostID string) error {
	if m.ApplyBoostFunc != nil {
		return m.ApplyBoostFunc(ctx, boostID)
	}
	return nil
}

func (m *MockClient) ApplyPromoCode(ctx context.Context, code string) error {
	if m.ApplyPromoCodeFunc != nil {
		return m.ApplyPromoCodeFunc(ctx, code)
	}
	return nil
}

func (m *MockClient) Tap(ctx context.Context, availableEnergy, count int) (model.AccountView, error) {
	if m.TapFunc != nil {
		return m.TapFunc(ctx, availableEnergy, count)
	}
	return model.AccountView{}, nil
}

func (m *MockClient) ClaimDailyCombo(ctx context.Context) error {
	if m.ClaimDailyComboFunc != nil {
		return m.ClaimDailyComboFunc(ctx)
	}
	return nil
}
