// Package universe loads the company/asset registry and resolves free-text
// company and operator mentions against it. The universe is immutable once
// loaded; resolution is offline and deterministic.
package universe

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Company is one registry entry.
type Company struct {
	CompanyID string   `yaml:"company_id"`
	Name      string   `yaml:"name"`
	Aliases   []string `yaml:"aliases"`
	Tickers   []string `yaml:"tickers"`
}

// Asset is a named physical or project asset.
type Asset struct {
	AssetID   string `yaml:"asset_id"`
	Name      string `yaml:"name"`
	CompanyID string `yaml:"company_id"`
	Region    string `yaml:"region"`
}

// Watchlist groups company ids under a name.
type Watchlist struct {
	Name       string   `yaml:"name"`
	CompanyIDs []string `yaml:"company_ids"`
}

// Universe is the loaded registry.
type Universe struct {
	Version    int         `yaml:"version"`
	Assets     []Asset     `yaml:"assets"`
	Companies  []Company   `yaml:"companies"`
	Watchlists []Watchlist `yaml:"watchlists"`
}

// Load reads a universe YAML file.
func Load(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe: %w", err)
	}
	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}
	if u.Version == 0 {
		u.Version = 1
	}
	return &u, nil
}

// Watchlist returns the named watchlist, or nil.
func (u *Universe) Watchlist(name string) *Watchlist {
	for i := range u.Watchlists {
		if u.Watchlists[i].Name == name {
			return &u.Watchlists[i]
		}
	}
	return nil
}

// Company returns the company with the given id, or nil.
func (u *Universe) Company(companyID string) *Company {
	for i := range u.Companies {
		if u.Companies[i].CompanyID == companyID {
			return &u.Companies[i]
		}
	}
	return nil
}
