// Package stronghold implements player holdings: staff, upgrades, threats, missions
// and the daily upkeep pipeline.
package stronghold

import (
	"maps"
	"slices"
)

// Type is the kind of holding.
type Type string

const (
	TypeCastle      Type = "castle"
	TypeTower       Type = "tower"
	TypeTemple      Type = "temple"
	TypeGuildHall   Type = "guild_hall"
	TypeTradingPost Type = "trading_post"
)

// Valid reports whether t is a known stronghold type.
func (t Type) Valid() bool {
	switch t {
	case TypeCastle, TypeTower, TypeTemple, TypeGuildHall, TypeTradingPost:
		return true
	}
	return false
}

// Role is a staff member's job.
type Role string

const (
	RoleSteward    Role = "steward"    // -5% wages each
	RoleGuard      Role = "guard"      // +5 defense each
	RoleSpy        Role = "spy"        // best scout
	RoleMerchant   Role = "merchant"   // +5 gold per day each
	RoleBlacksmith Role = "blacksmith" // raid support
	RolePriest     Role = "priest"     // diplomacy support
)

var baseWages = map[Role]int{
	RoleSteward:    10,
	RoleGuard:      5,
	RoleSpy:        15,
	RoleMerchant:   8,
	RoleBlacksmith: 6,
	RolePriest:     4,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := baseWages[r]
	return ok
}

// BaseWage returns the daily wage for a role before reductions.
func BaseWage(r Role) int {
	return baseWages[r]
}

// Resources are the stockpiles of a stronghold. Never negative.
type Resources struct {
	Gold      int `json:"gold"`
	Supplies  int `json:"supplies"`
	Influence int `json:"influence"`
	Intel     int `json:"intel"`
}

// Staff is a hired NPC.
type Staff struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Role             Role           `json:"role"`
	DailyWage        int            `json:"daily_wage"`
	Morale           int            `json:"morale"` // 0–100
	Skills           map[string]int `json:"skills"`
	CurrentMissionID string         `json:"current_mission_id,omitempty"`
}

// OnMission reports whether the staff member is away on a mission.
func (st Staff) OnMission() bool {
	return st.CurrentMissionID != ""
}

// Construction is an upgrade being built.
type Construction struct {
	UpgradeID     string `json:"upgrade_id"`
	DaysRemaining int    `json:"days_remaining"`
}

// ThreatType categorizes a threat.
type ThreatType string

const (
	ThreatBandits   ThreatType = "bandits"
	ThreatMonster   ThreatType = "monster"
	ThreatDisaster  ThreatType = "disaster"
	ThreatPolitical ThreatType = "political"
	ThreatRebellion ThreatType = "rebellion"
)

// Consequences are applied when a threat is not repelled.
type Consequences struct {
	GoldLoss     int `json:"gold_loss"`
	SuppliesLoss int `json:"supplies_loss"`
	MoraleLoss   int `json:"morale_loss"`
}

// Threat is a time-boxed hazard resolved against the defense score.
type Threat struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Type             ThreatType   `json:"type"`
	Severity         int          `json:"severity"`
	DaysUntilTrigger int          `json:"days_until_trigger"`
	Resolved         bool         `json:"resolved"`
	Consequences     Consequences `json:"consequences"`
}

// MissionType is the kind of off-site task.
type MissionType string

const (
	MissionScout     MissionType = "scout"
	MissionTrade     MissionType = "trade"
	MissionDiplomacy MissionType = "diplomacy"
	MissionRaid      MissionType = "raid"
)

// Valid reports whether m is a known mission type.
func (m MissionType) Valid() bool {
	switch m {
	case MissionScout, MissionTrade, MissionDiplomacy, MissionRaid:
		return true
	}
	return false
}

// Mission is a timed task held by exactly one staff member.
type Mission struct {
	ID            string      `json:"id"`
	Type          MissionType `json:"type"`
	Difficulty    int         `json:"difficulty"`
	Description   string      `json:"description"`
	DaysRemaining int         `json:"days_remaining"`
	StaffID       string      `json:"staff_id"`
}

// Stronghold is a player-owned holding.
type Stronghold struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Type              Type           `json:"type"`
	LocationID        string         `json:"location_id"`
	Level             int            `json:"level"`
	Resources         Resources      `json:"resources"`
	Staff             []Staff        `json:"staff"`
	Upgrades          []string       `json:"upgrades"`
	ConstructionQueue []Construction `json:"construction_queue"`
	Threats           []Threat       `json:"threats"`
	Missions          []Mission      `json:"missions"`
	DailyIncome       int            `json:"daily_income"` // base passive income
	TaxRate           float64        `json:"tax_rate"`
}

// Clone returns a deep copy sharing no slices or maps with s.
func (s Stronghold) Clone() Stronghold {
	out := s
	out.Staff = make([]Staff, len(s.Staff))
	for i, st := range s.Staff {
		st.Skills = maps.Clone(st.Skills)
		out.Staff[i] = st
	}
	out.Upgrades = slices.Clone(s.Upgrades)
	out.ConstructionQueue = slices.Clone(s.ConstructionQueue)
	out.Threats = slices.Clone(s.Threats)
	out.Missions = slices.Clone(s.Missions)
	return out
}

// FindStaff returns the index of the staff member with id, or -1.
func (s Stronghold) FindStaff(id string) int {
	return slices.IndexFunc(s.Staff, func(st Staff) bool { return st.ID == id })
}

// HasUpgrade reports whether the upgrade is built.
func (s Stronghold) HasUpgrade(id string) bool {
	return slices.Contains(s.Upgrades, id)
}

// IsQueued reports whether the upgrade is under construction.
func (s Stronghold) IsQueued(id string) bool {
	return slices.ContainsFunc(s.ConstructionQueue, func(c Construction) bool { return c.UpgradeID == id })
}

// CountRole returns how many staff hold role r.
func (s Stronghold) CountRole(r Role) int {
	n := 0
	for _, st := range s.Staff {
		if st.Role == r {
			n++
		}
	}
	return n
}

// AverageMorale is the mean staff morale, or 100 for an unstaffed holding.
func (s Stronghold) AverageMorale() float64 {
	if len(s.Staff) == 0 {
		return 100
	}
	total := 0
	for _, st := range s.Staff {
		total += st.Morale
	}
	return float64(total) / float64(len(s.Staff))
}

// DailySummary records what happened to one stronghold during one upkeep tick.
type DailySummary struct {
	StrongholdID       string   `json:"stronghold_id"`
	StrongholdName     string   `json:"stronghold_name"`
	GoldChange         int      `json:"gold_change"`
	InfluenceChange    int      `json:"influence_change"`
	StaffEvents        []string `json:"staff_events"`
	ConstructionEvents []string `json:"construction_events"`
	ThreatEvents       []string `json:"threat_events"`
	MissionEvents      []string `json:"mission_events"`
	Alerts             []string `json:"alerts"`
	Tally              Tally    `json:"tally"`
}

// Tally counts the outcomes of one upkeep tick.
type Tally struct {
	ConstructionsCompleted int `json:"constructions_completed"`
	StaffQuit              int `json:"staff_quit"`
	ThreatsSpawned         int `json:"threats_spawned"`
	ThreatsRepelled        int `json:"threats_repelled"`
	ThreatsFailed          int `json:"threats_failed"`
	MissionsSucceeded      int `json:"missions_succeeded"`
	MissionsFailed         int `json:"missions_failed"`
	MissionsCancelled      int `json:"missions_cancelled"`
}

// Quiet reports whether nothing worth reporting happened.
func (d DailySummary) Quiet() bool {
	return d.GoldChange == 0 && d.InfluenceChange == 0 &&
		len(d.StaffEvents) == 0 && len(d.ConstructionEvents) == 0 &&
		len(d.ThreatEvents) == 0 && len(d.MissionEvents) == 0 &&
		len(d.Alerts) == 0
}
