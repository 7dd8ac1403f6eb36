// Package catalog holds the immutable upgrade reference table.
// A Catalog is built once (Default, Parse or Load) and then only read; lookups by
// id report absence with a bool instead of failing.
package catalog

import (
	"fmt"
	"slices"
)

// EffectType names what an upgrade effect modifies.
type EffectType string

const (
	EffectIncomeBonus    EffectType = "income_bonus"    // flat gold per day
	EffectDefenseBonus   EffectType = "defense_bonus"   // flat defense score
	EffectIntelBonus     EffectType = "intel_bonus"     // intel per day
	EffectWageReduction  EffectType = "wage_reduction"  // percent off staff wages
	EffectMoraleBoost    EffectType = "morale_boost"    // extra morale recovered when paid
	EffectInfluenceBonus EffectType = "influence_bonus" // influence per day
)

// Valid reports whether t is a known effect type.
func (t EffectType) Valid() bool {
	switch t {
	case EffectIncomeBonus, EffectDefenseBonus, EffectIntelBonus,
		EffectWageReduction, EffectMoraleBoost, EffectInfluenceBonus:
		return true
	}
	return false
}

// Cost is the one-time price of an upgrade.
type Cost struct {
	Gold     int `json:"gold" yaml:"gold"`
	Supplies int `json:"supplies" yaml:"supplies"`
}

// Effect is one permanent modifier granted by an owned upgrade.
type Effect struct {
	Type  EffectType `json:"type" yaml:"type"`
	Value int        `json:"value" yaml:"value"`
}

// Upgrade is a catalog entry.
type Upgrade struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description,omitempty" yaml:"description"`
	Cost            Cost     `json:"cost" yaml:"cost"`
	BuildTimeDays   int      `json:"build_time_days" yaml:"build_time_days"`
	MaintenanceCost int      `json:"maintenance_cost" yaml:"maintenance_cost"`
	Effects         []Effect `json:"effects" yaml:"effects"`

	// Optional restrictions. Empty AllowedTypes means every stronghold type.
	AllowedTypes  []string `json:"allowed_types,omitempty" yaml:"allowed_types"`
	RequiredLevel int      `json:"required_level,omitempty" yaml:"required_level"`
	Prerequisites []string `json:"prerequisites,omitempty" yaml:"prerequisites"`
}

// EffectTotal sums the values of all effects of type t.
func (u Upgrade) EffectTotal(t EffectType) int {
	total := 0
	for _, e := range u.Effects {
		if e.Type == t {
			total += e.Value
		}
	}
	return total
}

// AllowsType reports whether the upgrade may be built on a stronghold of type typ.
func (u Upgrade) AllowsType(typ string) bool {
	return len(u.AllowedTypes) == 0 || slices.Contains(u.AllowedTypes, typ)
}

func (u Upgrade) clone() Upgrade {
	u.Effects = slices.Clone(u.Effects)
	u.AllowedTypes = slices.Clone(u.AllowedTypes)
	u.Prerequisites = slices.Clone(u.Prerequisites)
	return u
}

// Catalog is an immutable, ordered set of upgrades.
type Catalog struct {
	entries []Upgrade
	index   map[string]int
}

// New builds a catalog, rejecting empty or duplicate ids, unknown effect types and
// prerequisites that name no entry.
func New(upgrades ...Upgrade) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Upgrade, 0, len(upgrades)),
		index:   make(map[string]int, len(upgrades)),
	}
	for _, u := range upgrades {
		if u.ID == "" {
			return nil, fmt.Errorf("catalog: upgrade with empty id")
		}
		if _, dup := c.index[u.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate upgrade id %q", u.ID)
		}
		if u.Cost.Gold < 0 || u.Cost.Supplies < 0 || u.BuildTimeDays < 0 || u.MaintenanceCost < 0 {
			return nil, fmt.Errorf("catalog: upgrade %q has negative cost or build time", u.ID)
		}
		for _, e := range u.Effects {
			if !e.Type.Valid() {
				return nil, fmt.Errorf("catalog: upgrade %q: unknown effect type %q", u.ID, e.Type)
			}
		}
		c.index[u.ID] = len(c.entries)
		c.entries = append(c.entries, u.clone())
	}
	for _, u := range c.entries {
		for _, p := range u.Prerequisites {
			if _, ok := c.index[p]; !ok {
				return nil, fmt.Errorf("catalog: upgrade %q requires unknown upgrade %q", u.ID, p)
			}
		}
	}
	return c, nil
}

// Lookup returns the upgrade with the given id.
func (c *Catalog) Lookup(id string) (Upgrade, bool) {
	if c == nil {
		return Upgrade{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Upgrade{}, false
	}
	return c.entries[i].clone(), true
}

// All returns every upgrade in declaration order.
func (c *Catalog) All() []Upgrade {
	if c == nil {
		return nil
	}
	out := make([]Upgrade, len(c.entries))
	for i, u := range c.entries {
		out[i] = u.clone()
	}
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
