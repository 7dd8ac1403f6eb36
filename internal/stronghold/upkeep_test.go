package stronghold

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/talgya/holdfast/internal/catalog"
	"github.com/talgya/holdfast/internal/entropy"
)

func TestWageReductionAndCap(t *testing.T) {
	svc := quietService()

	s := mustNew(t, TypeCastle)
	s, _ = mustRecruit(t, s, "A", RoleSteward)
	s, _ = mustRecruit(t, s, "B", RoleSteward)
	s.Upgrades = []string{"counting_house"}
	out, sum := svc.ProcessDailyUpkeep(s)
	// 10 income, 8 maintenance, 2 stewards at 10 * 80%.
	if sum.GoldChange != 10-8-16 {
		t.Fatalf("expected -14, got %d (gold %d)", sum.GoldChange, out.Resources.Gold)
	}

	crowd := mustNew(t, TypeCastle)
	for range 12 {
		crowd, _ = mustRecruit(t, crowd, "S", RoleSteward)
	}
	_, sum = svc.ProcessDailyUpkeep(crowd)
	if sum.GoldChange != 10-12*5 {
		t.Fatalf("expected reduction capped at 50%%, got change %d", sum.GoldChange)
	}
}

func TestMerchantIncomeAndMoraleBoost(t *testing.T) {
	s := mustNew(t, TypeTradingPost)
	s, _ = mustRecruit(t, s, "Tovin", RoleMerchant)
	s.Staff[0].Morale = 50
	s.Upgrades = []string{"shrine"}

	out, sum := quietService().ProcessDailyUpkeep(s)
	// 10 base + 5 merchant - 2 shrine upkeep - 8 wage.
	if sum.GoldChange != 5 {
		t.Fatalf("expected +5, got %d", sum.GoldChange)
	}
	if out.Staff[0].Morale != 53 {
		t.Fatalf("expected morale 53, got %d", out.Staff[0].Morale)
	}
}

func TestUnpaidStaffLoseMoraleAndQuit(t *testing.T) {
	s := mustNew(t, TypeTower)
	s.Resources.Gold = 0
	s.DailyIncome = 0
	s, _ = mustRecruit(t, s, "Leaving", RoleSpy)
	s, _ = mustRecruit(t, s, "Staying", RoleSpy)
	s.Staff[0].Morale = 15
	s.Staff[1].Morale = 50

	out, sum := quietService().ProcessDailyUpkeep(s)
	if len(out.Staff) != 1 || out.Staff[0].Name != "Staying" || out.Staff[0].Morale != 30 {
		t.Fatalf("unexpected staff after upkeep: %+v", out.Staff)
	}
	if len(sum.StaffEvents) != 3 {
		t.Fatalf("expected 3 staff events, got %v", sum.StaffEvents)
	}
	if !strings.Contains(sum.StaffEvents[1], "Leaving quit") {
		t.Fatalf("expected quit event, got %q", sum.StaffEvents[1])
	}
	if !slices.Contains(sum.Alerts, lowTreasuryAlert) {
		t.Fatalf("expected low treasury alert, got %v", sum.Alerts)
	}
}

func TestUnpaidMaintenanceIsAnAlert(t *testing.T) {
	s := mustNew(t, TypeCastle)
	s.Resources.Gold = 0
	s.DailyIncome = 0
	s.Upgrades = []string{"barracks"}

	out, sum := quietService().ProcessDailyUpkeep(s)
	if out.Resources.Gold != 0 {
		t.Fatalf("gold went to %d", out.Resources.Gold)
	}
	if len(sum.Alerts) != 2 || !strings.Contains(sum.Alerts[0], "maintenance") {
		t.Fatalf("expected maintenance and treasury alerts, got %v", sum.Alerts)
	}
	if sum.InfluenceChange != 2 || out.Resources.Influence != 2 {
		t.Fatalf("expected +2 influence, got %d", sum.InfluenceChange)
	}
}

func TestThreatResolution(t *testing.T) {
	threat := Threat{
		ID: "t1", Name: "Monster Attack", Type: ThreatMonster, DaysUntilTrigger: 1,
		Consequences: Consequences{GoldLoss: 300, SuppliesLoss: 50, MoraleLoss: 10},
	}

	t.Run("repelled", func(t *testing.T) {
		s := mustNew(t, TypeCastle)
		th := threat
		th.Severity = 15
		s.Threats = []Threat{th}

		out, sum := quietService().ProcessDailyUpkeep(s)
		if len(out.Threats) != 0 {
			t.Fatalf("threat not cleared: %+v", out.Threats)
		}
		if out.Resources.Gold != 1010 {
			t.Fatalf("expected untouched treasury, got %d", out.Resources.Gold)
		}
		want := []string{"Defeated Monster Attack (Severity: 15)", "Defense: 10 + Roll: 11 = 21"}
		if !reflect.DeepEqual(sum.ThreatEvents, want) {
			t.Fatalf("unexpected events %v", sum.ThreatEvents)
		}
	})

	t.Run("overrun", func(t *testing.T) {
		s := mustNew(t, TypeCastle)
		s, _ = mustRecruit(t, s, "Bram", RoleGuard)
		th := threat
		th.Severity = 40
		s.Threats = []Threat{th}

		out, sum := quietService().ProcessDailyUpkeep(s)
		// 1000 + 10 - 5 wage - 300 loss.
		if out.Resources.Gold != 705 || out.Resources.Supplies != 50 {
			t.Fatalf("unexpected resources %+v", out.Resources)
		}
		if out.Staff[0].Morale != 90 {
			t.Fatalf("expected morale 90, got %d", out.Staff[0].Morale)
		}
		if sum.GoldChange != -295 {
			t.Fatalf("expected net -295, got %d", sum.GoldChange)
		}
		if !strings.HasPrefix(sum.ThreatEvents[0], "Failed to repel") {
			t.Fatalf("unexpected events %v", sum.ThreatEvents)
		}
	})

	t.Run("pending", func(t *testing.T) {
		s := mustNew(t, TypeCastle)
		th := threat
		th.DaysUntilTrigger = 3
		s.Threats = []Threat{th}

		out, sum := quietService().ProcessDailyUpkeep(s)
		if len(out.Threats) != 1 || out.Threats[0].DaysUntilTrigger != 2 || len(sum.ThreatEvents) != 0 {
			t.Fatalf("expected countdown only, got %+v / %v", out.Threats, sum.ThreatEvents)
		}
	})
}

func TestGenerateThreat(t *testing.T) {
	s := mustNew(t, TypeCastle)
	s.Resources.Gold = 4000
	s.Upgrades = []string{"library", "shrine"}

	// Chance, threat type (0.3*5 -> monster), duration (0 -> 3 days).
	svc := NewService(nil, entropy.NewSequence(0.05, 0.3, 0))
	th, ok := svc.GenerateThreat(s)
	if !ok {
		t.Fatal("expected a threat")
	}
	if th.Type != ThreatMonster || th.Severity != 40+2+10 || th.DaysUntilTrigger != 3 {
		t.Fatalf("unexpected threat %+v", th)
	}
	if th.Consequences.GoldLoss != 100+5*52 {
		t.Fatalf("unexpected gold loss %d", th.Consequences.GoldLoss)
	}

	if _, ok := quietService().GenerateThreat(s); ok {
		t.Fatal("0.5 should not spawn a threat")
	}
}

func TestMissionLifecycle(t *testing.T) {
	s := mustNew(t, TypeTower)
	s, spyID := mustRecruit(t, s, "Mira", RoleSpy)

	// Duration draw of 0 gives the two-day minimum.
	starter := NewService(nil, entropy.NewSequence(0))
	s, err := starter.StartMission(s, spyID, MissionScout, 20, "Watch the pass")
	if err != nil {
		t.Fatalf("start mission: %v", err)
	}
	if s.Resources.Supplies != 90 || len(s.Missions) != 1 || s.Missions[0].DaysRemaining != 2 {
		t.Fatalf("unexpected state after start: %+v", s)
	}
	if s.Staff[0].CurrentMissionID != s.Missions[0].ID {
		t.Fatal("staff not linked to mission")
	}

	if _, err := starter.StartMission(s, spyID, MissionScout, 5, "again"); !errors.Is(err, ErrStaffOnMission) {
		t.Fatalf("expected busy staff error, got %v", err)
	}
	if _, err := FireStaff(s, spyID); !errors.Is(err, ErrStaffOnMission) {
		t.Fatalf("expected firing to be refused, got %v", err)
	}

	svc := quietService()
	s, sum := svc.ProcessDailyUpkeep(s)
	if len(s.Missions) != 1 || len(sum.MissionEvents) != 0 {
		t.Fatalf("mission resolved early: %v", sum.MissionEvents)
	}
	s, sum = svc.ProcessDailyUpkeep(s)
	if len(s.Missions) != 0 || s.Staff[0].OnMission() {
		t.Fatalf("mission not resolved: %+v", s.Missions)
	}
	// Power 15 + roll 11 beats 20; reward 1 + 20/5.
	if s.Resources.Intel != 5 || !strings.Contains(sum.MissionEvents[0], "completed") {
		t.Fatalf("expected success with 5 intel, got %d / %v", s.Resources.Intel, sum.MissionEvents)
	}
}

func TestMissionFailureCostsMorale(t *testing.T) {
	s := mustNew(t, TypeTower)
	s, id := mustRecruit(t, s, "Bram", RoleGuard)
	s.Missions = []Mission{{ID: "m1", Type: MissionTrade, Difficulty: 40, Description: "Sell wool", DaysRemaining: 1, StaffID: id}}
	s.Staff[0].CurrentMissionID = "m1"

	out, sum := quietService().ProcessDailyUpkeep(s)
	// Morale 100 + 1 paid, then -10 for the failure.
	if out.Staff[0].Morale != 90 || out.Staff[0].OnMission() {
		t.Fatalf("unexpected staff %+v", out.Staff[0])
	}
	if !strings.Contains(sum.MissionEvents[0], "failed") {
		t.Fatalf("unexpected events %v", sum.MissionEvents)
	}
}

func TestMissionCancelledWhenAgentLeaves(t *testing.T) {
	s := mustNew(t, TypeTower)
	s.Resources.Gold = 0
	s.DailyIncome = 0
	s, id := mustRecruit(t, s, "Mira", RoleSpy)
	s.Staff[0].Morale = 10
	s.Staff[0].CurrentMissionID = "m1"
	s.Missions = []Mission{{ID: "m1", Type: MissionScout, Difficulty: 5, Description: "Map the marsh", DaysRemaining: 3, StaffID: id}}

	out, sum := quietService().ProcessDailyUpkeep(s)
	if len(out.Staff) != 0 || len(out.Missions) != 0 {
		t.Fatalf("expected staff gone and mission cancelled: %+v", out)
	}
	if len(sum.MissionEvents) != 1 || !strings.Contains(sum.MissionEvents[0], "cancelled") {
		t.Fatalf("unexpected events %v", sum.MissionEvents)
	}
}

func TestStartMissionErrors(t *testing.T) {
	svc := quietService()
	s, id := mustRecruit(t, mustNew(t, TypeTower), "Mira", RoleSpy)

	if _, err := svc.StartMission(s, id, MissionType("heist"), 5, ""); !errors.Is(err, ErrUnknownMission) {
		t.Fatalf("expected unknown mission, got %v", err)
	}
	if _, err := svc.StartMission(s, id, MissionRaid, -1, ""); !errors.Is(err, ErrInvalidDifficulty) {
		t.Fatalf("expected invalid difficulty, got %v", err)
	}
	if _, err := svc.StartMission(s, "ghost", MissionRaid, 5, ""); !errors.Is(err, ErrStaffNotFound) {
		t.Fatalf("expected staff not found, got %v", err)
	}
	poor := s.Clone()
	poor.Resources.Supplies = 9
	if _, err := svc.StartMission(poor, id, MissionRaid, 5, ""); !errors.Is(err, ErrInsufficientSupplies) {
		t.Fatalf("expected insufficient supplies, got %v", err)
	}
}

func TestUpkeepDoesNotMutateInput(t *testing.T) {
	s := mustNew(t, TypeCastle)
	s, _ = mustRecruit(t, s, "Bram", RoleGuard)
	s.Staff[0].Skills["raid"] = 3
	s.ConstructionQueue = []Construction{{UpgradeID: "library", DaysRemaining: 1}}
	before := s.Clone()

	out, _ := quietService().ProcessDailyUpkeep(s)
	out.Staff[0].Skills["raid"] = 99
	out.Staff[0].Morale = 1

	if !reflect.DeepEqual(s, before) {
		t.Fatalf("input changed:\n got %+v\nwant %+v", s, before)
	}
}

func TestMissionPowerMonotonicInDifficulty(t *testing.T) {
	// With a fixed roll, success can only flip from true to false as difficulty rises.
	st := Staff{Role: RoleMerchant, Skills: map[string]int{"trade": 2}}
	power := MissionPower(st, MissionTrade)
	prev := true
	for d := 0; d <= 60; d++ {
		ok := power+11 >= d
		if ok && !prev {
			t.Fatalf("success regained at difficulty %d", d)
		}
		prev = ok
	}
	if power != 17 {
		t.Fatalf("expected power 17, got %d", power)
	}
}

func TestDefenseMonotonic(t *testing.T) {
	svc := NewService(nil, entropy.NewSeeded(1))
	all := catalog.Default().All()
	rapid.Check(t, func(t *rapid.T) {
		s := Stronghold{Type: TypeCastle, Level: 3}
		for _, u := range all {
			if rapid.Bool().Draw(t, "has_"+u.ID) {
				s.Upgrades = append(s.Upgrades, u.ID)
			}
		}
		guards := rapid.IntRange(0, 5).Draw(t, "guards")
		for range guards {
			s.Staff = append(s.Staff, Staff{Role: RoleGuard})
		}
		before := svc.CalculateDefense(s)

		more := s.Clone()
		more.Staff = append(more.Staff, Staff{Role: RoleGuard})
		if got := svc.CalculateDefense(more); got != before+5 {
			t.Fatalf("guard added %d defense", got-before)
		}
		extra := rapid.SampledFrom(all).Draw(t, "extra")
		if !s.HasUpgrade(extra.ID) {
			more = s.Clone()
			more.Upgrades = append(more.Upgrades, extra.ID)
			if got := svc.CalculateDefense(more); got < before {
				t.Fatalf("building %s lowered defense %d -> %d", extra.ID, before, got)
			}
		}
	})
}

// TestRandomPlayKeepsInvariants drives a stronghold through random actions and
// ticks and checks the state stays well formed after every step.
func TestRandomPlayKeepsInvariants(t *testing.T) {
	roles := []Role{RoleSteward, RoleGuard, RoleSpy, RoleMerchant, RoleBlacksmith, RolePriest}
	missions := []MissionType{MissionScout, MissionTrade, MissionDiplomacy, MissionRaid}
	ids := make([]string, 0)
	for _, u := range catalog.Default().All() {
		ids = append(ids, u.ID)
	}

	rapid.Check(t, func(t *rapid.T) {
		svc := NewService(nil, entropy.NewSeeded(rapid.Int64().Draw(t, "seed")))
		typ := rapid.SampledFrom([]Type{TypeCastle, TypeTower, TypeTemple, TypeGuildHall, TypeTradingPost}).Draw(t, "type")
		s, err := New("Prop", typ, "loc_prop")
		if err != nil {
			t.Fatal(err)
		}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				s, _ = RecruitStaff(s, "npc", rapid.SampledFrom(roles).Draw(t, "role"))
			case 1:
				next, err := svc.PurchaseUpgrade(s, rapid.SampledFrom(ids).Draw(t, "upgrade"))
				if err == nil {
					s = next
				} else if !reflect.DeepEqual(next, s) {
					t.Fatalf("failed purchase changed state")
				}
			case 2:
				if len(s.Staff) > 0 {
					st := s.Staff[rapid.IntRange(0, len(s.Staff)-1).Draw(t, "who")]
					if next, err := svc.StartMission(s, st.ID, rapid.SampledFrom(missions).Draw(t, "mission"),
						rapid.IntRange(0, 40).Draw(t, "difficulty"), "prop"); err == nil {
						s = next
					}
				}
			case 3:
				if len(s.Staff) > 0 {
					st := s.Staff[rapid.IntRange(0, len(s.Staff)-1).Draw(t, "fire")]
					if next, err := FireStaff(s, st.ID); err == nil {
						s = next
					} else if !st.OnMission() {
						t.Fatalf("could not fire idle staff: %v", err)
					}
				}
			default:
				s, _ = svc.ProcessDailyUpkeep(s)
			}
			checkInvariants(t, s)
		}
	})
}

func checkInvariants(t *rapid.T, s Stronghold) {
	r := s.Resources
	if r.Gold < 0 || r.Supplies < 0 || r.Influence < 0 || r.Intel < 0 {
		t.Fatalf("negative resources %+v", r)
	}
	seen := map[string]bool{}
	for _, id := range s.Upgrades {
		if seen[id] {
			t.Fatalf("duplicate upgrade %s", id)
		}
		seen[id] = true
	}
	for _, c := range s.ConstructionQueue {
		if seen[c.UpgradeID] {
			t.Fatalf("%s both built and queued", c.UpgradeID)
		}
		seen[c.UpgradeID] = true
	}
	missionByID := map[string]Mission{}
	for _, m := range s.Missions {
		missionByID[m.ID] = m
		i := s.FindStaff(m.StaffID)
		if i < 0 || s.Staff[i].CurrentMissionID != m.ID {
			t.Fatalf("mission %s not held by its staff", m.ID)
		}
	}
	for _, st := range s.Staff {
		if st.Morale < 0 || st.Morale > 100 {
			t.Fatalf("morale out of range: %d", st.Morale)
		}
		if st.OnMission() {
			if _, ok := missionByID[st.CurrentMissionID]; !ok {
				t.Fatalf("%s points at missing mission", st.ID)
			}
		}
	}
}

func TestSeedReplaysUpkeep(t *testing.T) {
	base := mustNew(t, TypeCastle)
	base, _ = mustRecruit(t, base, "Bram", RoleGuard)
	base, spyID := mustRecruit(t, base, "Mira", RoleSpy)
	base, _ = mustRecruit(t, base, "Osric", RoleSteward)
	base, err := quietService().StartMission(base, spyID, MissionScout, 15, "Watch the pass")
	if err != nil {
		t.Fatalf("start mission: %v", err)
	}
	base.Threats = []Threat{{
		ID: "t1", Name: "Bandit Raid", Type: ThreatBandits, Severity: 25, DaysUntilTrigger: 3,
		Consequences: Consequences{GoldLoss: 150, SuppliesLoss: 20, MoraleLoss: 5},
	}}

	replay := func(seed int64) (Stronghold, []DailySummary) {
		svc := NewService(catalog.Default(), entropy.NewSeeded(seed))
		s := base.Clone()
		var sums []DailySummary
		for range 40 {
			var sum DailySummary
			s, sum = svc.ProcessDailyUpkeep(s)
			sums = append(sums, sum)
		}
		return s, sums
	}

	first, firstSums := replay(99)
	second, secondSums := replay(99)
	if !reflect.DeepEqual(firstSums, secondSums) {
		t.Fatal("same seed produced different daily summaries")
	}
	if first.Resources != second.Resources {
		t.Fatalf("same seed produced different resources: %+v vs %+v", first.Resources, second.Resources)
	}
	if len(first.Staff) != len(second.Staff) {
		t.Fatalf("same seed produced different staff: %d vs %d", len(first.Staff), len(second.Staff))
	}
	for i := range first.Staff {
		if first.Staff[i].Morale != second.Staff[i].Morale {
			t.Fatalf("staff %s morale diverged", first.Staff[i].Name)
		}
	}
}
