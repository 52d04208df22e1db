// Package api provides the remote-action interface of the clicker service and
// its HTTP implementation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/clicker-autopilot/internal/model"
)

// Client defines the remote-action interface every component acts through.
// Implementations attach the current credential to each call and classify
// failures per the error taxonomy in this package.
type Client interface {
	// Login exchanges an externally obtained authentication proof for a
	// bearer credential. A revoked or deactivated account fails with
	// ErrUnrecoverableSession.
	Login(ctx context.Context, proof string) (string, error)

	// SetCredential attaches the bearer credential to all subsequent calls.
	SetCredential(token string)

	// FetchAccountState reads the current account profile. Idempotent.
	FetchAccountState(ctx context.Context) (model.AccountView, error)

	// FetchCatalog reads the purchasable upgrades, boosts and daily events.
	// Idempotent.
	FetchCatalog(ctx context.Context) (model.Catalog, error)

	// SelectExchange binds an exchange to the account. Idempotent per day.
	SelectExchange(ctx context.Context, exchangeID string) error

	// ClaimTask collects a completed task's reward. Repeat claims are a
	// harmless no-op on the remote side.
	ClaimTask(ctx context.Context, taskID string) error

	// ClaimDailyCipher submits the decoded daily cipher.
	ClaimDailyCipher(ctx context.Context, plaintext string) error

	// StartMiniGame opens today's keys mini-game attempt.
	StartMiniGame(ctx context.Context) (model.MiniGame, error)

	// CompleteMiniGame submits the mini-game answer token.
	CompleteMiniGame(ctx context.Context, answerToken string) error

	// BuyUpgrade purchases the next tier of an upgrade. Not safe to blindly
	// retry: ErrConflict means the price or cooldown moved underneath us.
	BuyUpgrade(ctx context.Context, upgradeID string) error

	// ApplyBoost applies a consumable boost. Same retry caveat as BuyUpgrade.
	ApplyBoost(ctx context.Context, boostID string) error

	// ApplyPromoCode redeems a promotional event code. An already-redeemed
	// code fails with ErrConflict.
	ApplyPromoCode(ctx context.Context, code string) error

	// Tap submits a batch of taps and returns the authoritative post-action
	// account state.
	Tap(ctx context.Context, availableEnergy, count int) (model.AccountView, error)

	// ClaimDailyCombo collects the combo bonus once all members are bought.
	ClaimDailyCombo(ctx context.Context) error
}

// HTTPClient implements Client against the clicker service's JSON API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
	now        func() time.Time
}

// NewHTTPClient creates an HTTP client for the clicker API with retry
// capabilities at the transport layer.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 3 * time.Second
	retryClient.HTTPClient.Timeout = timeout
	retryClient.Logger = nil

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: retryClient.StandardClient(),
		now:        time.Now,
	}
}

// SetCredential attaches the bearer credential to all subsequent calls.
func (c *HTTPClient) SetCredential(token string) {
	c.token = token
}

// Login exchanges the authentication proof for a bearer credential.
func (c *HTTPClient) Login(ctx context.Context, proof string) (string, error) {
	var resp struct {
		AuthToken string `json:"authToken"`
	}
	err := c.post(ctx, "login", "/auth/auth-by-webapp", map[string]any{
		"initDataRaw": proof,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.AuthToken == "" {
		return "", &RemoteError{Action: "login", Err: fmt.Errorf("empty auth token in response")}
	}
	return resp.AuthToken, nil
}

// FetchAccountState reads the current account profile.
func (c *HTTPClient) FetchAccountState(ctx context.Context) (model.AccountView, error) {
	var resp struct {
		ClickerUser model.AccountView `json:"clickerUser"`
	}
	if err := c.post(ctx, "sync", "/clicker/sync", map[string]any{}, &resp); err != nil {
		return model.AccountView{}, err
	}
	if resp.ClickerUser.ID == "" {
		return model.AccountView{}, &RemoteError{Action: "sync", Err: fmt.Errorf("unexpected response shape: missing clickerUser")}
	}
	return resp.ClickerUser, nil
}

// catalogConfig is the server-side feature config payload.
type catalogConfig struct {
	DailyCipher *model.DailyCipher `json:"dailyCipher"`
	MiniGame    *model.MiniGame    `json:"dailyKeysMiniGame"`
	DailyCombo  *struct {
		UpgradeIDs []string `json:"combo"`
		Date       string   `json:"date"`
	} `json:"dailyCombo"`
}

// comboWindowAnchorHour is the UTC hour at which the published daily combo
// rolls over.
const comboWindowAnchorHour = 12

// FetchCatalog reads the upgrade catalog, boosts, tasks and daily events.
// All four reads must succeed; a partial catalog is worse than none.
func (c *HTTPClient) FetchCatalog(ctx context.Context) (model.Catalog, error) {
	var upgrades struct {
		UpgradesForBuy []model.Upgrade      `json:"upgradesForBuy"`
		DailyCombo     *model.ComboProgress `json:"dailyCombo"`
	}
	if err := c.post(ctx, "upgrades-for-buy", "/clicker/upgrades-for-buy", map[string]any{}, &upgrades); err != nil {
		return model.Catalog{}, err
	}

	var boosts struct {
		BoostsForBuy []model.Boost `json:"boostsForBuy"`
	}
	if err := c.post(ctx, "boosts-for-buy", "/clicker/boosts-for-buy", map[string]any{}, &boosts); err != nil {
		return model.Catalog{}, err
	}

	var cfg catalogConfig
	if err := c.post(ctx, "config", "/clicker/config", map[string]any{}, &cfg); err != nil {
		return model.Catalog{}, err
	}

	var tasks struct {
		Tasks []model.Task `json:"tasks"`
	}
	if err := c.post(ctx, "list-tasks", "/clicker/list-tasks", map[string]any{}, &tasks); err != nil {
		return model.Catalog{}, err
	}

	catalog := model.Catalog{
		Upgrades:      upgrades.UpgradesForBuy,
		Boosts:        boosts.BoostsForBuy,
		ComboProgress: upgrades.DailyCombo,
		Cipher:        cfg.DailyCipher,
		MiniGame:      cfg.MiniGame,
		Tasks:         tasks.Tasks,
	}
	if cfg.DailyCombo != nil {
		spec, err := parseComboSpec(cfg.DailyCombo.UpgradeIDs, cfg.DailyCombo.Date)
		if err != nil {
			logrus.WithError(err).Warn("Ignoring malformed daily combo spec")
		} else {
			catalog.Combo = &spec
		}
	}
	return catalog, nil
}

// parseComboSpec anchors the published combo date at the daily rollover hour.
func parseComboSpec(ids []string, date string) (model.ComboSpec, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return model.ComboSpec{}, fmt.Errorf("bad combo date %q: %w", date, err)
	}
	return model.ComboSpec{
		UpgradeIDs: ids,
		StartsAt:   day.Add(comboWindowAnchorHour * time.Hour),
	}, nil
}

// SelectExchange binds an exchange to the account.
func (c *HTTPClient) SelectExchange(ctx context.Context, exchangeID string) error {
	return c.post(ctx, "select-exchange", "/clicker/select-exchange", map[string]any{
		"exchangeId": exchangeID,
	}, nil)
}

// ClaimTask collects a completed task's reward.
func (c *HTTPClient) ClaimTask(ctx context.Context, taskID string) error {
	return c.post(ctx, "check-task", "/clicker/check-task", map[string]any{
		"taskId": taskID,
	}, nil)
}

// ClaimDailyCipher submits the decoded daily cipher.
func (c *HTTPClient) ClaimDailyCipher(ctx context.Context, plaintext string) error {
	return c.post(ctx, "claim-daily-cipher", "/clicker/claim-daily-cipher", map[string]any{
		"cipher": plaintext,
	}, nil)
}

// StartMiniGame opens today's keys mini-game attempt.
func (c *HTTPClient) StartMiniGame(ctx context.Context) (model.MiniGame, error) {
	var resp struct {
		MiniGame model.MiniGame `json:"dailyKeysMiniGame"`
	}
	if err := c.post(ctx, "start-minigame", "/clicker/start-keys-minigame", map[string]any{}, &resp); err != nil {
		return model.MiniGame{}, err
	}
	return resp.MiniGame, nil
}

// CompleteMiniGame submits the mini-game answer token.
func (c *HTTPClient) CompleteMiniGame(ctx context.Context, answerToken string) error {
	return c.post(ctx, "claim-minigame", "/clicker/claim-daily-keys-minigame", map[string]any{
		"cipher": answerToken,
	}, nil)
}

// BuyUpgrade purchases the next tier of an upgrade.
func (c *HTTPClient) BuyUpgrade(ctx context.Context, upgradeID string) error {
	return c.post(ctx, "buy-upgrade", "/clicker/buy-upgrade", map[string]any{
		"upgradeId": upgradeID,
		"timestamp": c.now().Unix(),
	}, nil)
}

// ApplyBoost applies a consumable boost.
func (c *HTTPClient) ApplyBoost(ctx context.Context, boostID string) error {
	return c.post(ctx, "buy-boost", "/clicker/buy-boost", map[string]any{
		"boostId":   boostID,
		"timestamp": c.now().Unix(),
	}, nil)
}

// ApplyPromoCode redeems a promotional event code.
func (c *HTTPClient) ApplyPromoCode(ctx context.Context, code string) error {
	return c.post(ctx, "apply-promo", "/clicker/apply-promo", map[string]any{
		"promoCode": code,
	}, nil)
}

// Tap submits a batch of taps and returns the authoritative account state.
func (c *HTTPClient) Tap(ctx context.Context, availableEnergy, count int) (model.AccountView, error) {
	var resp struct {
		ClickerUser model.AccountView `json:"clickerUser"`
	}
	err := c.post(ctx, "tap", "/clicker/tap", map[string]any{
		"availableTaps": availableEnergy,
		"count":         count,
		"timestamp":     c.now().Unix(),
	}, &resp)
	if err != nil {
		return model.AccountView{}, err
	}
	if resp.ClickerUser.ID == "" {
		return model.AccountView{}, &RemoteError{Action: "tap", Err: fmt.Errorf("unexpected response shape: missing clickerUser")}
	}
	return resp.ClickerUser, nil
}

// ClaimDailyCombo collects the combo bonus.
func (c *HTTPClient) ClaimDailyCombo(ctx context.Context) error {
	return c.post(ctx, "claim-daily-combo", "/clicker/claim-daily-combo", map[string]any{}, nil)
}

// post issues a JSON POST and classifies the result. A 422 is the server
// rejecting an action whose preconditions moved; 401/403 on the auth
// endpoint mark the session as permanently invalid.
func (c *HTTPClient) post(ctx context.Context, action, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &RemoteError{Action: action, Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &RemoteError{Action: action, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logrus.Debugf("POST %s", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Action: action, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return &RemoteError{Action: action, StatusCode: resp.StatusCode, Body: truncateBody(raw), Err: ErrConflict}
	case (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) && path == "/auth/auth-by-webapp":
		return &RemoteError{Action: action, StatusCode: resp.StatusCode, Body: truncateBody(raw), Err: ErrUnrecoverableSession}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &RemoteError{
			Action:     action,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(raw),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &RemoteError{Action: action, StatusCode: resp.StatusCode, Body: truncateBody(raw), Err: fmt.Errorf("decoding response: %w", err)}
		}
	}
	return nil
}
