// Package snapshot pulls the account state and the server-side catalog as
// one logical read.
package snapshot

import (
	"context"
	"fmt"

	"github.com/yourorg/clicker-autopilot/internal/api"
	"github.com/yourorg/clicker-autopilot/internal/model"
)

// Snapshot is the per-cycle view of remote state. Both halves come from the
// same fetch; components never see a profile without its catalog.
type Snapshot struct {
	Account model.AccountView
	Catalog model.Catalog
}

// Fetcher reads snapshots through the remote-action interface.
type Fetcher struct {
	client api.Client
}

// NewFetcher creates a snapshot fetcher.
func NewFetcher(client api.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch performs the two logically independent reads. Partial success is
// total failure: acting on a half-known state risks spending against stale
// prices, so either read failing aborts the cycle.
func (f *Fetcher) Fetch(ctx context.Context) (Snapshot, error) {
	account, err := f.client.FetchAccountState(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetching account state: %w", err)
	}

	catalog, err := f.client.FetchCatalog(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetching catalog: %w", err)
	}

	return Snapshot{Account: account, Catalog: catalog}, nil
}
