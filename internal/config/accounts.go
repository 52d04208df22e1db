package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Account is one entry of the roster: a named account plus the opaque
// authentication proof the session manager exchanges for a credential.
type Account struct {
	// Name identifies the account in logs and metrics
	Name string `yaml:"name"`

	// Proof is the externally obtained authentication proof
	Proof string `yaml:"proof"`

	// Proxy is an optional proxy URL for this account's traffic
	Proxy string `yaml:"proxy,omitempty"`
}

// Roster is the set of accounts the autopilot runs, one independent loop each.
type Roster struct {
	Accounts []Account `yaml:"accounts"`
}

// LoadRoster reads the YAML accounts roster from path.
func LoadRoster(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, fmt.Errorf("reading accounts roster: %w", err)
	}

	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return Roster{}, fmt.Errorf("parsing accounts roster: %w", err)
	}

	if len(roster.Accounts) == 0 {
		return Roster{}, fmt.Errorf("accounts roster %s is empty", path)
	}
	for i, acc := range roster.Accounts {
		if acc.Name == "" {
			return Roster{}, fmt.Errorf("account %d has no name", i)
		}
		if acc.Proof == "" {
			return Roster{}, fmt.Errorf("account %q has no proof", acc.Name)
		}
	}
	return roster, nil
}
