// Package session keeps one bearer credential valid per account, refreshing
// it on expiry rather than reacting to authorization failures.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/clicker-autopilot/internal/api"
)

// CredentialTTL is how long a credential is trusted regardless of what the
// server thinks. Refreshing proactively avoids relying on reactive 401
// handling mid-cycle.
const CredentialTTL = 3600 * time.Second

// ProofSource supplies the opaque authentication proof that is exchanged for
// a bearer credential. The real handshake with the messaging platform lives
// behind this interface; a static proof from the roster ships by default.
type ProofSource interface {
	Proof(ctx context.Context) (string, error)
}

// StaticProof is a ProofSource returning a fixed proof string.
type StaticProof string

// Proof returns the fixed proof.
func (p StaticProof) Proof(ctx context.Context) (string, error) {
	return string(p), nil
}

// Manager owns the credential lifecycle for one account.
type Manager struct {
	client api.Client
	source ProofSource
	log    *logrus.Entry

	token    string
	issuedAt time.Time

	now func() time.Time
}

// NewManager creates a session manager for one account.
func NewManager(client api.Client, source ProofSource, log *logrus.Entry) *Manager {
	return &Manager{
		client: client,
		source: source,
		log:    log,
		now:    time.Now,
	}
}

// EnsureValid returns a credential that is good for the coming cycle,
// performing the login exchange when none exists or the current one has aged
// past the TTL. The returned credential is already attached to the client.
func (m *Manager) EnsureValid(ctx context.Context) (string, error) {
	if m.token != "" && m.now().Sub(m.issuedAt) < CredentialTTL {
		return m.token, nil
	}

	proof, err := m.source.Proof(ctx)
	if err != nil {
		return "", fmt.Errorf("obtaining auth proof: %w", err)
	}

	token, err := m.client.Login(ctx, proof)
	if err != nil {
		return "", fmt.Errorf("login exchange: %w", err)
	}

	m.token = token
	m.issuedAt = m.now()
	m.client.SetCredential(token)
	m.log.Info("Credential refreshed")
	return m.token, nil
}

// Invalidate discards the current credential so the next EnsureValid call
// performs a fresh login exchange.
func (m *Manager) Invalidate() {
	m.token = ""
	m.issuedAt = time.Time{}
}

// Age returns how old the current credential is, or zero when none exists.
func (m *Manager) Age() time.Duration {
	if m.token == "" {
		return 0
	}
	return m.now().Sub(m.issuedAt)
}
