package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *HTTPClient) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewHTTPClient(server.URL, 5*time.Second)
	return server, client
}

func TestLogin_Succeeds(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/auth-by-webapp", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "the-proof", body["initDataRaw"])

		json.NewEncoder(w).Encode(map[string]string{"authToken": "tok-123"})
	})

	token, err := client.Login(context.Background(), "the-proof")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestLogin_RevokedAccountIsUnrecoverable(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"account deactivated"}`, http.StatusForbidden)
	})

	_, err := client.Login(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, IsUnrecoverable(err))
}

func TestBuyUpgrade_ConflictClassification(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error_code":"INSUFFICIENT_FUNDS"}`, http.StatusUnprocessableEntity)
	})
	client.SetCredential("tok")

	err := client.BuyUpgrade(context.Background(), "upgrade-1")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.False(t, IsUnrecoverable(err))
}

func TestPost_AttachesCredential(t *testing.T) {
	var auth string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{})
	})

	client.SetCredential("tok-9")
	require.NoError(t, client.SelectExchange(context.Background(), "bybit"))
	assert.Equal(t, "Bearer tok-9", auth)
}

func TestFetchAccountState_ParsesProfile(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"clickerUser": map[string]any{
				"id":                 "acct-1",
				"balanceCoins":       123456,
				"earnPassivePerHour": 9000,
				"availableTaps":      2500,
				"level":              12,
				"exchangeId":         "bybit",
			},
		})
	})

	account, err := client.FetchAccountState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acct-1", account.ID)
	assert.Equal(t, int64(123456), account.Balance)
	assert.Equal(t, int64(9000), account.EarnPerHour)
	assert.Equal(t, 2500, account.AvailableEnergy)
	assert.Equal(t, 12, account.Level)
	assert.Equal(t, "bybit", account.ExchangeID)
}

func TestFetchAccountState_RejectsUnexpectedShape(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"something": "else"})
	})

	_, err := client.FetchAccountState(context.Background())
	assert.Error(t, err)
}

func TestFetchCatalog_CombinesReads(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/clicker/upgrades-for-buy":
			json.NewEncoder(w).Encode(map[string]any{
				"upgradesForBuy": []map[string]any{
					{"id": "u1", "price": 500, "profitPerHourDelta": 100, "isAvailable": true},
				},
				"dailyCombo": map[string]any{
					"upgradeIds": []string{"u1"},
					"isClaimed":  false,
					"bonusCoins": 5000000,
				},
			})
		case "/clicker/boosts-for-buy":
			json.NewEncoder(w).Encode(map[string]any{
				"boostsForBuy": []map[string]any{
					{"id": "BoostFullAvailableTaps", "level": 1, "maxLevel": 6},
				},
			})
		case "/clicker/config":
			json.NewEncoder(w).Encode(map[string]any{
				"dailyCipher": map[string]any{"cipher": "U0V", "isClaimed": true},
				"dailyCombo":  map[string]any{"combo": []string{"u1", "u2"}, "date": "2026-08-30"},
			})
		case "/clicker/list-tasks":
			json.NewEncoder(w).Encode(map[string]any{
				"tasks": []map[string]any{{"id": "streak_days", "isCompleted": false}},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	catalog, err := client.FetchCatalog(context.Background())
	require.NoError(t, err)

	require.Len(t, catalog.Upgrades, 1)
	assert.Equal(t, "u1", catalog.Upgrades[0].ID)
	require.Len(t, catalog.Boosts, 1)
	require.NotNil(t, catalog.ComboProgress)
	assert.Equal(t, int64(5000000), catalog.ComboProgress.BonusCoins)
	require.NotNil(t, catalog.Cipher)
	assert.True(t, catalog.Cipher.IsClaimed)
	require.NotNil(t, catalog.Combo)
	assert.Equal(t, []string{"u1", "u2"}, catalog.Combo.UpgradeIDs)
	assert.Equal(t, time.Date(2026, 8, 30, comboWindowAnchorHour, 0, 0, 0, time.UTC), catalog.Combo.StartsAt)
	require.Len(t, catalog.Tasks, 1)
}

func TestFetchCatalog_PartialReadFails(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/clicker/config" {
			http.Error(w, "oops", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{})
	})

	_, err := client.FetchCatalog(context.Background())
	assert.Error(t, err)
}

func TestTap_EchoesAuthoritativeState(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(14), body["availableTaps"])
		assert.Equal(t, float64(9), body["count"])
		assert.NotZero(t, body["timestamp"])

		json.NewEncoder(w).Encode(map[string]any{
			"clickerUser": map[string]any{"id": "acct", "balanceCoins": 2000, "availableTaps": 5},
		})
	})

	account, err := client.Tap(context.Background(), 14, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), account.Balance)
	assert.Equal(t, 5, account.AvailableEnergy)
}

func TestRemoteErrorFormatting(t *testing.T) {
	err := &RemoteError{Action: "buy-upgrade", StatusCode: 500, Body: "boom"}
	assert.Contains(t, err.Error(), "buy-upgrade")
	assert.Contains(t, err.Error(), "500")

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, truncateBody(long), 131) // 128 chars plus ellipsis
}
