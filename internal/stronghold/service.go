package stronghold

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/holdfast/internal/catalog"
	"github.com/talgya/holdfast/internal/entropy"
	"github.com/talgya/holdfast/internal/errs"
	"github.com/talgya/holdfast/internal/world"
)

// Starting values for a newly founded stronghold.
const (
	StartingGold     = 1000
	StartingSupplies = 100
	BaseDailyIncome  = 10
	StartingMorale   = 100
)

// Service runs stronghold rules against an upgrade catalog and a random source.
// Methods never mutate their Stronghold argument; each returns a fresh value.
type Service struct {
	catalog *catalog.Catalog
	rand    entropy.Source
	regions *world.Regions
}

// Option configures a Service.
type Option func(*Service)

// WithRegions adds regional danger to generated threat severity.
func WithRegions(r *world.Regions) Option {
	return func(s *Service) { s.regions = r }
}

// NewService creates a stronghold service. A nil catalog means the default table.
func NewService(cat *catalog.Catalog, src entropy.Source, opts ...Option) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	if src == nil {
		src = entropy.Crypto{}
	}
	svc := &Service{catalog: cat, rand: src}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Catalog returns the upgrade catalog in use.
func (svc *Service) Catalog() *catalog.Catalog {
	return svc.catalog
}

// New founds a stronghold with starting resources.
func New(name string, typ Type, locationID string) (Stronghold, error) {
	if !typ.Valid() {
		return Stronghold{}, errs.New(ErrUnknownType, fmt.Sprintf("unknown stronghold type %q", typ))
	}
	return Stronghold{
		ID:          uuid.NewString(),
		Name:        name,
		Description: fmt.Sprintf("A modest %s", typ),
		Type:        typ,
		LocationID:  locationID,
		Level:       1,
		Resources: Resources{
			Gold:     StartingGold,
			Supplies: StartingSupplies,
		},
		Staff:             []Staff{},
		Upgrades:          []string{},
		ConstructionQueue: []Construction{},
		Threats:           []Threat{},
		Missions:          []Mission{},
		DailyIncome:       BaseDailyIncome,
	}, nil
}

// RecruitStaff hires a new staff member at the role's base wage.
func RecruitStaff(s Stronghold, name string, role Role) (Stronghold, error) {
	if !role.Valid() {
		return s, errs.New(ErrUnknownRole, fmt.Sprintf("unknown staff role %q", role))
	}
	out := s.Clone()
	out.Staff = append(out.Staff, Staff{
		ID:        uuid.NewString(),
		Name:      name,
		Role:      role,
		DailyWage: BaseWage(role),
		Morale:    StartingMorale,
		Skills:    map[string]int{},
	})
	return out, nil
}

// FireStaff dismisses a staff member who is not away on a mission.
func FireStaff(s Stronghold, staffID string) (Stronghold, error) {
	i := s.FindStaff(staffID)
	if i < 0 {
		return s, errs.New(ErrStaffNotFound, fmt.Sprintf("staff %s not found", staffID))
	}
	if s.Staff[i].OnMission() {
		return s, errs.New(ErrStaffOnMission, fmt.Sprintf("%s is away on a mission", s.Staff[i].Name))
	}
	out := s.Clone()
	out.Staff = append(out.Staff[:i], out.Staff[i+1:]...)
	return out, nil
}

// unavailableReason explains why u cannot be started on s, or returns "".
func unavailableReason(s Stronghold, u catalog.Upgrade) string {
	switch {
	case s.HasUpgrade(u.ID):
		return "already built"
	case s.IsQueued(u.ID):
		return "already under construction"
	case !u.AllowsType(string(s.Type)):
		return fmt.Sprintf("cannot be built at a %s", s.Type)
	case u.RequiredLevel > s.Level:
		return fmt.Sprintf("requires stronghold level %d", u.RequiredLevel)
	}
	for _, p := range u.Prerequisites {
		if !s.HasUpgrade(p) {
			return fmt.Sprintf("requires %s", p)
		}
	}
	return ""
}

// AvailableUpgrades lists the catalog entries that could be started right now,
// ignoring cost.
func (svc *Service) AvailableUpgrades(s Stronghold) []catalog.Upgrade {
	var out []catalog.Upgrade
	for _, u := range svc.catalog.All() {
		if unavailableReason(s, u) == "" {
			out = append(out, u)
		}
	}
	return out
}

// PurchaseUpgrade pays for an upgrade and queues its construction. Upgrades with
// no build time are finished immediately.
func (svc *Service) PurchaseUpgrade(s Stronghold, upgradeID string) (Stronghold, error) {
	u, ok := svc.catalog.Lookup(upgradeID)
	if !ok {
		return s, errs.New(ErrUpgradeNotFound, fmt.Sprintf("upgrade %s not found", upgradeID))
	}
	if why := unavailableReason(s, u); why != "" {
		return s, errs.New(ErrUpgradeUnavailable, fmt.Sprintf("%s unavailable: %s", u.Name, why))
	}
	if s.Resources.Gold < u.Cost.Gold {
		return s, errs.New(ErrInsufficientFunds,
			fmt.Sprintf("not enough gold for %s: need %d, have %d", u.Name, u.Cost.Gold, s.Resources.Gold))
	}
	if s.Resources.Supplies < u.Cost.Supplies {
		return s, errs.New(ErrInsufficientSupplies,
			fmt.Sprintf("not enough supplies for %s: need %d, have %d", u.Name, u.Cost.Supplies, s.Resources.Supplies))
	}

	out := s.Clone()
	out.Resources.Gold -= u.Cost.Gold
	out.Resources.Supplies -= u.Cost.Supplies
	if u.BuildTimeDays <= 0 {
		out.Upgrades = append(out.Upgrades, u.ID)
	} else {
		out.ConstructionQueue = append(out.ConstructionQueue, Construction{
			UpgradeID:     u.ID,
			DaysRemaining: u.BuildTimeDays,
		})
	}
	return out, nil
}

// StartConstruction is PurchaseUpgrade under its queue-oriented name.
func (svc *Service) StartConstruction(s Stronghold, upgradeID string) (Stronghold, error) {
	return svc.PurchaseUpgrade(s, upgradeID)
}

// effectTotals is the sum of every owned upgrade's effects.
type effectTotals struct {
	maintenance   int
	income        int
	defense       int
	intel         int
	influence     int
	wageReduction int // percent
	moraleBoost   int
}

func (svc *Service) aggregate(upgradeIDs []string) effectTotals {
	var t effectTotals
	for _, id := range upgradeIDs {
		u, ok := svc.catalog.Lookup(id)
		if !ok {
			continue
		}
		t.maintenance += u.MaintenanceCost
		for _, e := range u.Effects {
			switch e.Type {
			case catalog.EffectIncomeBonus:
				t.income += e.Value
			case catalog.EffectDefenseBonus:
				t.defense += e.Value
			case catalog.EffectIntelBonus:
				t.intel += e.Value
			case catalog.EffectInfluenceBonus:
				t.influence += e.Value
			case catalog.EffectWageReduction:
				t.wageReduction += e.Value
			case catalog.EffectMoraleBoost:
				t.moraleBoost += e.Value
			}
		}
	}
	return t
}

// BaseDefense is the defense score of an empty holding.
const BaseDefense = 10

// CalculateDefense is base defense plus upgrade bonuses plus 5 per guard.
func (svc *Service) CalculateDefense(s Stronghold) int {
	return BaseDefense + svc.aggregate(s.Upgrades).defense + 5*s.CountRole(RoleGuard)
}
