// Package daily handles the once-per-day claims: exchange binding, the
// streak task, the daily cipher and the keys mini-game. All of the remote
// actions here are idempotent per day; claiming again is a harmless no-op.
package daily

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/clicker-autopilot/internal/api"
	"github.com/yourorg/clicker-autopilot/internal/model"
)

// streakTaskID is the server-side id of the daily streak task.
const streakTaskID = "streak_days"

// Claimer runs the daily claims for one account.
type Claimer struct {
	client api.Client
	log    *logrus.Entry

	// sleep and randInt are swappable for tests
	sleep   func(ctx context.Context, d time.Duration) error
	randInt func(lo, hi int) int
}

// NewClaimer creates a daily claimer.
func NewClaimer(client api.Client, log *logrus.Entry) *Claimer {
	return &Claimer{
		client: client,
		log:    log,
		sleep:  sleepCtx,
		randInt: func(lo, hi int) int {
			if hi <= lo {
				return lo
			}
			return lo + rand.Intn(hi-lo+1)
		},
	}
}

// EnsureExchange binds the default exchange when the profile has none.
func (c *Claimer) EnsureExchange(ctx context.Context, account model.AccountView, exchangeID string) error {
	if account.ExchangeID != "" {
		return nil
	}
	if err := c.client.SelectExchange(ctx, exchangeID); err != nil {
		return err
	}
	c.log.WithField("exchange", exchangeID).Info("Exchange selected")
	return nil
}

// ClaimStreak collects the daily streak reward when the streak task is still
// open.
func (c *Claimer) ClaimStreak(ctx context.Context, tasks []model.Task) error {
	for _, task := range tasks {
		if task.ID != streakTaskID || task.IsCompleted {
			continue
		}
		if err := c.client.ClaimTask(ctx, task.ID); err != nil {
			return err
		}
		reward := int64(0)
		if task.Days >= 1 && task.Days <= len(task.RewardsByDays) {
			reward = task.RewardsByDays[task.Days-1].RewardCoins
		}
		c.log.WithFields(logrus.Fields{
			"days":   task.Days,
			"reward": reward,
		}).Info("Daily streak reward claimed")
	}
	return nil
}

// ClaimCipher decodes and submits the daily cipher when it is still open.
func (c *Claimer) ClaimCipher(ctx context.Context, cipher *model.DailyCipher) error {
	if cipher == nil || cipher.IsClaimed {
		return nil
	}

	plaintext, err := DecodeCipher(cipher.Cipher)
	if err != nil {
		// A malformed cipher is a local impossibility, not a remote failure:
		// skip this sub-action and let the cycle continue.
		c.log.WithError(err).Warn("Daily cipher undecodable, skipping")
		return nil
	}

	if err := c.client.ClaimDailyCipher(ctx, plaintext); err != nil {
		return err
	}
	c.log.WithField("cipher", plaintext).Info("Daily cipher claimed")
	return nil
}

// DecodeCipher reverses the published obfuscation: the character at index 3
// is an inserted decoy, the remainder is base64.
func DecodeCipher(obfuscated string) (string, error) {
	if len(obfuscated) < 4 {
		return "", fmt.Errorf("cipher too short: %d chars", len(obfuscated))
	}
	stripped := obfuscated[:3] + obfuscated[4:]
	decoded, err := base64.StdEncoding.DecodeString(stripped)
	if err != nil {
		return "", fmt.Errorf("decoding cipher: %w", err)
	}
	return string(decoded), nil
}

// FinishMiniGame plays the daily keys mini-game: start the attempt, wait a
// random span inside the allowed guessing window, then submit the answer
// token. A negative computed wait means the window is effectively gone; the
// sub-action is skipped and the cycle continues.
func (c *Claimer) FinishMiniGame(ctx context.Context, game *model.MiniGame, accountID string) error {
	if game == nil || game.IsClaimed {
		return nil
	}
	if game.RemainSecondsToNextAttempt > 0 {
		c.log.WithField("cooldown_s", game.RemainSecondsToNextAttempt).Info("Mini-game on cooldown")
		return nil
	}

	started, err := c.client.StartMiniGame(ctx)
	if err != nil {
		return err
	}

	lo := started.RemainSecondsToGuess / 2
	hi := started.RemainSecondsToGuess - 5
	if hi < 0 || lo > hi {
		c.log.WithField("remain_s", started.RemainSecondsToGuess).Warn("Mini-game guess window too short, skipping")
		return nil
	}
	wait := c.randInt(lo, hi)

	c.log.WithField("wait_s", wait).Info("Completing mini-game")
	if err := c.sleep(ctx, time.Duration(wait)*time.Second); err != nil {
		return err
	}

	token := MiniGameToken(accountID, c.randInt)
	if err := c.client.CompleteMiniGame(ctx, token); err != nil {
		return err
	}
	c.log.Info("Mini-game claimed")
	return nil
}

// MiniGameToken builds the answer token: a zero-padded ten-digit random
// prefix joined with the account id, base64 encoded.
func MiniGameToken(accountID string, randInt func(lo, hi int) int) string {
	n := randInt(10000000000, 99999999999)
	prefix := ("0" + fmt.Sprintf("%d", n))[:10]
	return base64.StdEncoding.EncodeToString([]byte(prefix + "|" + accountID))
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
