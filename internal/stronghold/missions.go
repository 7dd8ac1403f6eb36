package stronghold

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/holdfast/internal/entropy"
	"github.com/talgya/holdfast/internal/errs"
)

// Mission constants.
const (
	MissionSupplyCost    = 10
	MissionMinDays       = 2
	MissionMaxDays       = 5
	missionBasePower     = 5
	missionFailureMorale = 10
)

// roleFit is how well each role suits each mission type.
var roleFit = map[MissionType]map[Role]int{
	MissionScout:     {RoleSpy: 10, RoleGuard: 4, RoleMerchant: 2},
	MissionTrade:     {RoleMerchant: 10, RoleSteward: 6, RoleSpy: 2},
	MissionDiplomacy: {RoleSteward: 8, RolePriest: 8, RoleSpy: 4, RoleMerchant: 4},
	MissionRaid:      {RoleGuard: 10, RoleBlacksmith: 4, RoleSpy: 4},
}

// MissionPower is the bonus a staff member brings to a mission of type t:
// a flat base, the role fit and any skill named after the mission type.
func MissionPower(st Staff, t MissionType) int {
	return missionBasePower + roleFit[t][st.Role] + st.Skills[string(t)]
}

// StartMission sends a staff member away. It costs MissionSupplyCost supplies
// and lasts between MissionMinDays and MissionMaxDays.
func (svc *Service) StartMission(s Stronghold, staffID string, typ MissionType, difficulty int, description string) (Stronghold, error) {
	if !typ.Valid() {
		return s, errs.New(ErrUnknownMission, fmt.Sprintf("unknown mission type %q", typ))
	}
	if difficulty < 0 {
		return s, errs.New(ErrInvalidDifficulty, "mission difficulty must be non-negative")
	}
	i := s.FindStaff(staffID)
	if i < 0 {
		return s, errs.New(ErrStaffNotFound, fmt.Sprintf("staff %s not found", staffID))
	}
	if s.Staff[i].OnMission() {
		return s, errs.New(ErrStaffOnMission, fmt.Sprintf("%s is already on a mission", s.Staff[i].Name))
	}
	if s.Resources.Supplies < MissionSupplyCost {
		return s, errs.New(ErrInsufficientSupplies,
			fmt.Sprintf("missions need %d supplies, have %d", MissionSupplyCost, s.Resources.Supplies))
	}

	m := Mission{
		ID:            uuid.NewString(),
		Type:          typ,
		Difficulty:    difficulty,
		Description:   description,
		DaysRemaining: entropy.Between(svc.rand, MissionMinDays, MissionMaxDays),
		StaffID:       staffID,
	}

	out := s.Clone()
	out.Resources.Supplies -= MissionSupplyCost
	out.Staff[i].CurrentMissionID = m.ID
	out.Missions = append(out.Missions, m)
	return out, nil
}

// resolveMission rolls the mission, frees the staff member and applies rewards or
// the morale penalty to out. Returns the log line and whether it succeeded.
func (svc *Service) resolveMission(out *Stronghold, m Mission, staffIdx int) (string, bool) {
	st := &out.Staff[staffIdx]
	power := MissionPower(*st, m.Type)
	roll := entropy.D20(svc.rand)
	score := power + roll
	st.CurrentMissionID = ""

	if score < m.Difficulty {
		st.Morale = max(0, st.Morale-missionFailureMorale)
		return fmt.Sprintf("%s failed the %s mission '%s' (Score: %d vs DC %d). Morale dropped by %d.",
			st.Name, m.Type, m.Description, score, m.Difficulty, missionFailureMorale), false
	}

	line := fmt.Sprintf("%s completed the %s mission '%s' (Score: %d vs DC %d).",
		st.Name, m.Type, m.Description, score, m.Difficulty)
	switch m.Type {
	case MissionScout:
		intel := 1 + m.Difficulty/5
		out.Resources.Intel += intel
		line += fmt.Sprintf(" Gained %d intel.", intel)
	case MissionTrade:
		gold := 10 * m.Difficulty
		out.Resources.Gold += gold
		line += fmt.Sprintf(" Gained %d gold.", gold)
	case MissionDiplomacy:
		influence := 1 + m.Difficulty/5
		out.Resources.Influence += influence
		line += fmt.Sprintf(" Gained %d influence.", influence)
	case MissionRaid:
		gold, supplies := 5*m.Difficulty, 2*m.Difficulty
		out.Resources.Gold += gold
		out.Resources.Supplies += supplies
		line += fmt.Sprintf(" Seized %d gold and %d supplies.", gold, supplies)
	}
	return line, true
}
