package stronghold

import "fmt"

// Upkeep tuning.
const (
	MerchantIncome         = 5
	StewardWageReduction   = 5  // percent per steward
	MaxWageReduction       = 50 // percent
	UnpaidMoraleLoss       = 20
	PaidMoraleRecovery     = 1
	LowTreasuryThreshold   = 50
	lowTreasuryAlert       = "Warning: Treasury is running low!"
	maintenanceUnpaidAlert = "Could not afford %d gold of maintenance; the treasury has been emptied."
)

// ProcessDailyUpkeep advances a stronghold by one day: construction, income,
// maintenance, wages, threats and missions, in that order. Shortfalls are
// reported as alerts and events, never as errors.
func (svc *Service) ProcessDailyUpkeep(s Stronghold) (Stronghold, DailySummary) {
	out := s.Clone()
	sum := DailySummary{StrongholdID: s.ID, StrongholdName: s.Name}

	// 1. Construction.
	queue := make([]Construction, 0, len(out.ConstructionQueue))
	for _, c := range out.ConstructionQueue {
		c.DaysRemaining--
		if c.DaysRemaining > 0 {
			queue = append(queue, c)
			continue
		}
		if out.HasUpgrade(c.UpgradeID) {
			continue
		}
		out.Upgrades = append(out.Upgrades, c.UpgradeID)
		name := c.UpgradeID
		if u, ok := svc.catalog.Lookup(c.UpgradeID); ok {
			name = u.Name
		}
		sum.ConstructionEvents = append(sum.ConstructionEvents, fmt.Sprintf("Construction completed: %s", name))
		sum.Tally.ConstructionsCompleted++
	}
	out.ConstructionQueue = queue

	// 2. Effects of everything owned, including what finished today.
	fx := svc.aggregate(out.Upgrades)

	// 3. Income.
	income := out.DailyIncome + fx.income + MerchantIncome*out.CountRole(RoleMerchant)
	out.Resources.Gold = max(0, out.Resources.Gold+income)
	out.Resources.Intel = max(0, out.Resources.Intel+fx.intel)
	out.Resources.Influence = max(0, out.Resources.Influence+fx.influence)

	// 4. Maintenance.
	if fx.maintenance > 0 {
		if out.Resources.Gold >= fx.maintenance {
			out.Resources.Gold -= fx.maintenance
		} else {
			out.Resources.Gold = 0
			sum.Alerts = append(sum.Alerts, fmt.Sprintf(maintenanceUnpaidAlert, fx.maintenance))
		}
	}

	// 5. Wages.
	reduction := min(MaxWageReduction, StewardWageReduction*out.CountRole(RoleSteward)+fx.wageReduction)
	reduction = max(0, reduction)
	staff := make([]Staff, 0, len(out.Staff))
	for _, st := range out.Staff {
		wage := st.DailyWage * (100 - reduction) / 100
		if out.Resources.Gold >= wage {
			out.Resources.Gold -= wage
			st.Morale = min(100, st.Morale+PaidMoraleRecovery+fx.moraleBoost)
			staff = append(staff, st)
			continue
		}
		st.Morale = max(0, st.Morale-UnpaidMoraleLoss)
		sum.StaffEvents = append(sum.StaffEvents,
			fmt.Sprintf("%s (%s) was not paid. Morale dropped to %d.", st.Name, st.Role, st.Morale))
		if st.Morale <= 0 {
			sum.StaffEvents = append(sum.StaffEvents, fmt.Sprintf("%s quit due to lack of payment!", st.Name))
			sum.Tally.StaffQuit++
			continue
		}
		staff = append(staff, st)
	}
	out.Staff = staff

	// 6. Treasury warning.
	if out.Resources.Gold < LowTreasuryThreshold {
		sum.Alerts = append(sum.Alerts, lowTreasuryAlert)
	}

	// 7. Threats: resolve what is due, then roll for a newcomer.
	threats := make([]Threat, 0, len(out.Threats)+1)
	for _, t := range out.Threats {
		t.DaysUntilTrigger--
		if t.DaysUntilTrigger > 0 {
			threats = append(threats, t)
			continue
		}
		res := svc.ResolveThreat(out, t)
		sum.ThreatEvents = append(sum.ThreatEvents, res.Log...)
		if res.Success {
			sum.Tally.ThreatsRepelled++
			continue
		}
		sum.Tally.ThreatsFailed++
		sum.ThreatEvents = append(sum.ThreatEvents, applyConsequences(&out, t.Consequences)...)
	}
	if t, ok := svc.GenerateThreat(out); ok {
		threats = append(threats, t)
		sum.Tally.ThreatsSpawned++
		sum.ThreatEvents = append(sum.ThreatEvents,
			fmt.Sprintf("New Threat: %s (Severity: %d), expected in %d days.", t.Name, t.Severity, t.DaysUntilTrigger))
	}
	out.Threats = threats

	// 8. Missions.
	missions := make([]Mission, 0, len(out.Missions))
	for _, m := range out.Missions {
		idx := out.FindStaff(m.StaffID)
		if idx < 0 {
			sum.MissionEvents = append(sum.MissionEvents,
				fmt.Sprintf("Mission '%s' cancelled: its agent is no longer in service.", m.Description))
			sum.Tally.MissionsCancelled++
			continue
		}
		m.DaysRemaining--
		if m.DaysRemaining > 0 {
			missions = append(missions, m)
			continue
		}
		line, ok := svc.resolveMission(&out, m, idx)
		if ok {
			sum.Tally.MissionsSucceeded++
		} else {
			sum.Tally.MissionsFailed++
		}
		sum.MissionEvents = append(sum.MissionEvents, line)
	}
	out.Missions = missions

	sum.GoldChange = out.Resources.Gold - s.Resources.Gold
	sum.InfluenceChange = out.Resources.Influence - s.Resources.Influence
	return out, sum
}
