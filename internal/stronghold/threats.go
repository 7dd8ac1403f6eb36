package stronghold

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/holdfast/internal/entropy"
)

// ThreatChance is the daily probability that a new threat appears.
const ThreatChance = 0.1

type threatTemplate struct {
	name         string
	desc         string
	baseSeverity int
}

// threatOrder fixes the draw order so a seed maps to the same threat type.
var threatOrder = []ThreatType{ThreatBandits, ThreatMonster, ThreatDisaster, ThreatPolitical, ThreatRebellion}

var threatTemplates = map[ThreatType]threatTemplate{
	ThreatBandits:   {"Bandit Raid", "Local bandits are targeting your supply lines.", 20},
	ThreatMonster:   {"Monster Attack", "A beast has been spotted near the walls.", 40},
	ThreatDisaster:  {"Natural Disaster", "Storms threaten the structural integrity.", 30},
	ThreatPolitical: {"Political Intrigue", "Rival factions are spreading rumors.", 25},
	ThreatRebellion: {"Peasant Rebellion", "Unrest is brewing among the populace.", 50},
}

// GenerateThreat rolls for a new threat. Severity grows with the treasury, the
// number of upgrades and the danger of the stronghold's region.
func (svc *Service) GenerateThreat(s Stronghold) (Threat, bool) {
	if !entropy.Chance(svc.rand, ThreatChance) {
		return Threat{}, false
	}

	typ := threatOrder[entropy.Intn(svc.rand, len(threatOrder))]
	tpl := threatTemplates[typ]

	severity := tpl.baseSeverity + s.Resources.Gold/2000 + 5*len(s.Upgrades) + svc.regions.Danger(s.LocationID)
	severity = min(100, severity)

	return Threat{
		ID:               uuid.NewString(),
		Name:             tpl.name,
		Description:      tpl.desc,
		Type:             typ,
		Severity:         severity,
		DaysUntilTrigger: entropy.Between(svc.rand, 3, 7),
		Consequences: Consequences{
			GoldLoss:     100 + severity*5,
			SuppliesLoss: 50,
			MoraleLoss:   10,
		},
	}, true
}

// ThreatResolution is the outcome of a defense check.
type ThreatResolution struct {
	Success bool
	Defense int
	Roll    int
	Total   int
	Log     []string
}

// ResolveThreat checks defense + d20 against the threat's severity. The caller
// applies the threat's consequences on failure.
func (svc *Service) ResolveThreat(s Stronghold, t Threat) ThreatResolution {
	defense := svc.CalculateDefense(s)
	roll := entropy.D20(svc.rand)
	total := defense + roll

	r := ThreatResolution{
		Success: total >= t.Severity,
		Defense: defense,
		Roll:    roll,
		Total:   total,
	}
	if r.Success {
		r.Log = append(r.Log, fmt.Sprintf("Defeated %s (Severity: %d)", t.Name, t.Severity))
	} else {
		r.Log = append(r.Log, fmt.Sprintf("Failed to repel %s (Severity: %d)", t.Name, t.Severity))
	}
	r.Log = append(r.Log, fmt.Sprintf("Defense: %d + Roll: %d = %d", defense, roll, total))
	return r
}

// applyConsequences charges a failed threat against out, never going below zero.
func applyConsequences(out *Stronghold, c Consequences) []string {
	var events []string
	if c.GoldLoss > 0 {
		loss := min(c.GoldLoss, out.Resources.Gold)
		out.Resources.Gold -= loss
		events = append(events, fmt.Sprintf("Lost %d gold.", loss))
	}
	if c.SuppliesLoss > 0 {
		loss := min(c.SuppliesLoss, out.Resources.Supplies)
		out.Resources.Supplies -= loss
		events = append(events, fmt.Sprintf("Lost %d supplies.", loss))
	}
	if c.MoraleLoss > 0 && len(out.Staff) > 0 {
		for i := range out.Staff {
			out.Staff[i].Morale = max(0, out.Staff[i].Morale-c.MoraleLoss)
		}
		events = append(events, fmt.Sprintf("Staff morale dropped by %d.", c.MoraleLoss))
	}
	return events
}
