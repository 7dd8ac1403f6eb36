// Package legacy tracks a player's dynasty across characters: titles, monuments,
// heirs, reputation, and the succession that passes holdings to the next heir.
package legacy

import (
	"slices"
	"time"

	"github.com/talgya/holdfast/internal/stronghold"
)

// Title is an honor granted to the family.
type Title struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	GrantedBy   string    `json:"granted_by"`
	DateGranted time.Time `json:"date_granted"`
}

// Heir is a potential successor.
type Heir struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Relation     string `json:"relation"`
	Age          int    `json:"age"`
	Class        string `json:"class"`
	IsDesignated bool   `json:"is_designated"`
}

// Monument is a lasting work paid for by the family.
type Monument struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LocationID  string    `json:"location_id"`
	Cost        int       `json:"cost"`
	DateBuilt   time.Time `json:"date_built"`
}

// Reputation is the family's standing. History is an append-only chronicle.
type Reputation struct {
	Fame    int      `json:"fame"`
	Honor   int      `json:"honor"` // -100..100
	Infamy  int      `json:"infamy"`
	History []string `json:"history"`
}

// Organization is a guild, order or company the family controls. Succession only
// reads it.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Legacy is the dynastic record.
type Legacy struct {
	FamilyName      string        `json:"family_name"`
	StrongholdIDs   []string      `json:"stronghold_ids"`
	OrganizationIDs []string      `json:"organization_ids"`
	Titles          []Title       `json:"titles"`
	Heirs           []Heir        `json:"heirs"`
	Monuments       []Monument    `json:"monuments"`
	Reputation      Reputation    `json:"reputation"`
	TotalPlayTime   time.Duration `json:"total_play_time"`
	LegacyScore     int           `json:"legacy_score"`
}

// Clone returns a deep copy.
func (l Legacy) Clone() Legacy {
	out := l
	out.StrongholdIDs = slices.Clone(l.StrongholdIDs)
	out.OrganizationIDs = slices.Clone(l.OrganizationIDs)
	out.Titles = slices.Clone(l.Titles)
	out.Heirs = slices.Clone(l.Heirs)
	out.Monuments = slices.Clone(l.Monuments)
	out.Reputation.History = slices.Clone(l.Reputation.History)
	return out
}

// FindHeir returns the index of the heir with id, or -1.
func (l Legacy) FindHeir(id string) int {
	return slices.IndexFunc(l.Heirs, func(h Heir) bool { return h.ID == id })
}

// DesignatedHeir returns the heir currently in line, if any.
func (l Legacy) DesignatedHeir() (Heir, bool) {
	for _, h := range l.Heirs {
		if h.IsDesignated {
			return h, true
		}
	}
	return Heir{}, false
}

// ReputationChange is a delta applied by AdjustReputation.
type ReputationChange struct {
	Fame   int
	Honor  int
	Infamy int
}

// SuccessionRequest describes the outgoing character's estate. Strongholds and
// Organizations carry the objects whose ids appear in the legacy; ids without an
// object are assumed to transfer.
type SuccessionRequest struct {
	Gold          int
	HeirID        string
	Retirement    bool
	Strongholds   []stronghold.Stronghold
	Organizations []Organization
}

// Assets lists what moved, or what was lost, in a succession.
type Assets struct {
	Gold          int      `json:"gold"`
	Strongholds   []string `json:"strongholds"`
	Organizations []string `json:"organizations"`
}

// SuccessionResult reports the outcome of a succession.
type SuccessionResult struct {
	Success            bool     `json:"success"`
	HeirID             string   `json:"heir_id"`
	InheritanceTaxPaid int      `json:"inheritance_tax_paid"`
	AssetsTransferred  Assets   `json:"assets_transferred"`
	AssetsLost         Assets   `json:"assets_lost"`
	LegacyScore        int      `json:"legacy_score"`
	Log                []string `json:"log"`
}
