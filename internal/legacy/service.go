package legacy

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/holdfast/internal/entropy"
	"github.com/talgya/holdfast/internal/errs"
	"github.com/talgya/holdfast/internal/stronghold"
)

// Reasons for rejected legacy operations.
var (
	ErrHeirNotFound  = errs.Reason(errs.CodeNotFound, "heir_not_found")
	ErrNegativeValue = errs.Reason(errs.CodeInvalidOperation, "negative_value")
)

// Reputation awards.
const (
	TitleFame     = 10
	FamePerCost   = 100 // one fame per this much monument cost
	HonorMax      = 100
	HonorMin      = -100
	historyLayout = "2006-01-02"
)

// Service applies legacy rules with an injected random source and clock.
type Service struct {
	rand entropy.Source
	now  func() time.Time
}

// NewService creates a legacy service. A nil clock means time.Now.
func NewService(src entropy.Source, clock func() time.Time) *Service {
	if src == nil {
		src = entropy.Crypto{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{rand: src, now: clock}
}

func (svc *Service) chronicle(l *Legacy, format string, args ...any) {
	line := svc.now().Format(historyLayout) + ": " + fmt.Sprintf(format, args...)
	l.Reputation.History = append(l.Reputation.History, line)
}

// New starts a family legacy.
func (svc *Service) New(familyName string) Legacy {
	l := Legacy{
		FamilyName:      familyName,
		StrongholdIDs:   []string{},
		OrganizationIDs: []string{},
		Titles:          []Title{},
		Heirs:           []Heir{},
		Monuments:       []Monument{},
		Reputation:      Reputation{History: []string{}},
	}
	svc.chronicle(&l, "The %s family legacy begins.", familyName)
	return l
}

// Score computes the legacy score.
func Score(l Legacy) int {
	score := 50*len(l.Titles) + 100*len(l.StrongholdIDs) + 75*len(l.OrganizationIDs)
	for _, m := range l.Monuments {
		score += m.Cost / FamePerCost
	}
	score += l.Reputation.Fame
	if l.Reputation.Infamy < 0 {
		score -= l.Reputation.Infamy
	} else {
		score += l.Reputation.Infamy
	}
	score += 25 * len(l.Heirs)
	return score
}

// GrantTitle records a title and the fame that comes with it.
func (svc *Service) GrantTitle(l Legacy, name, description, grantedBy string) Legacy {
	out := l.Clone()
	out.Titles = append(out.Titles, Title{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		GrantedBy:   grantedBy,
		DateGranted: svc.now(),
	})
	out.Reputation.Fame += TitleFame
	svc.chronicle(&out, "Granted the title %q by %s.", name, grantedBy)
	out.LegacyScore = Score(out)
	return out
}

// RecordMonument records a completed monument.
func (svc *Service) RecordMonument(l Legacy, name, description, locationID string, cost int) (Legacy, error) {
	if cost < 0 {
		return l, errs.New(ErrNegativeValue, "monument cost must be non-negative")
	}
	out := l.Clone()
	out.Monuments = append(out.Monuments, Monument{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		LocationID:  locationID,
		Cost:        cost,
		DateBuilt:   svc.now(),
	})
	out.Reputation.Fame += cost / FamePerCost
	svc.chronicle(&out, "Built the monument %q.", name)
	out.LegacyScore = Score(out)
	return out, nil
}

// RegisterHeir adds an heir. The first heir registered is designated.
func (svc *Service) RegisterHeir(l Legacy, name, relation string, age int, class string) Legacy {
	out := l.Clone()
	_, hasDesignated := out.DesignatedHeir()
	h := Heir{
		ID:           uuid.NewString(),
		Name:         name,
		Relation:     relation,
		Age:          age,
		Class:        class,
		IsDesignated: !hasDesignated,
	}
	out.Heirs = append(out.Heirs, h)
	svc.chronicle(&out, "%s (%s) was named an heir.", name, relation)
	out.LegacyScore = Score(out)
	return out
}

// DesignateHeir moves designation to the heir with id.
func (svc *Service) DesignateHeir(l Legacy, heirID string) (Legacy, error) {
	i := l.FindHeir(heirID)
	if i < 0 {
		return l, errs.New(ErrHeirNotFound, fmt.Sprintf("heir %s not found", heirID))
	}
	out := l.Clone()
	for j := range out.Heirs {
		out.Heirs[j].IsDesignated = j == i
	}
	svc.chronicle(&out, "%s is now first in line.", out.Heirs[i].Name)
	return out, nil
}

// AdjustReputation applies a reputation change with a reason for the chronicle.
// Fame and infamy stay non-negative; honor stays within HonorMin..HonorMax.
func (svc *Service) AdjustReputation(l Legacy, c ReputationChange, reason string) Legacy {
	out := l.Clone()
	out.Reputation.Fame = max(0, out.Reputation.Fame+c.Fame)
	out.Reputation.Infamy = max(0, out.Reputation.Infamy+c.Infamy)
	out.Reputation.Honor = min(HonorMax, max(HonorMin, out.Reputation.Honor+c.Honor))
	if reason != "" {
		svc.chronicle(&out, "%s", reason)
	}
	out.LegacyScore = Score(out)
	return out
}

// LinkStronghold adds a stronghold id to the legacy once.
func LinkStronghold(l Legacy, id string) Legacy {
	if slices.Contains(l.StrongholdIDs, id) {
		return l
	}
	out := l.Clone()
	out.StrongholdIDs = append(out.StrongholdIDs, id)
	out.LegacyScore = Score(out)
	return out
}

// LinkOrganization adds an organization id to the legacy once.
func LinkOrganization(l Legacy, id string) Legacy {
	if slices.Contains(l.OrganizationIDs, id) {
		return l
	}
	out := l.Clone()
	out.OrganizationIDs = append(out.OrganizationIDs, id)
	out.LegacyScore = Score(out)
	return out
}

// AddPlayTime accumulates time played across characters.
func AddPlayTime(l Legacy, d time.Duration) Legacy {
	out := l.Clone()
	out.TotalPlayTime += max(0, d)
	return out
}

// Succession tuning.
const (
	DeathTaxRate       = 0.20
	RetirementTaxRate  = 0.10
	ReputationTaxShift = 0.05
	MaxTaxRate         = 0.5
	HonorTaxThreshold  = 50
	BaseStability      = 70
	MoraleStability    = 0.3
	OrgTransferChance  = 80
)

// TaxRate returns the inheritance tax rate for a legacy's reputation.
func TaxRate(rep Reputation, retirement bool) float64 {
	rate := DeathTaxRate
	if retirement {
		rate = RetirementTaxRate
	}
	if rep.Infamy > rep.Fame {
		rate += ReputationTaxShift
	}
	if rep.Honor > HonorTaxThreshold {
		rate -= ReputationTaxShift
	}
	return math.Min(MaxTaxRate, math.Max(0, rate))
}

// ProcessSuccession passes the estate to an heir. Death taxes more than
// retirement and risks losing holdings with poor morale; retirement always
// transfers every holding.
func (svc *Service) ProcessSuccession(l Legacy, req SuccessionRequest) (Legacy, SuccessionResult, error) {
	hi := l.FindHeir(req.HeirID)
	if hi < 0 {
		return l, SuccessionResult{}, errs.New(ErrHeirNotFound, fmt.Sprintf("heir %s not found", req.HeirID))
	}
	if req.Gold < 0 {
		return l, SuccessionResult{}, errs.New(ErrNegativeValue, "estate gold must be non-negative")
	}

	out := l.Clone()
	heir := out.Heirs[hi]
	res := SuccessionResult{
		Success: true,
		HeirID:  heir.ID,
		AssetsTransferred: Assets{
			Strongholds:   []string{},
			Organizations: []string{},
		},
		AssetsLost: Assets{
			Strongholds:   []string{},
			Organizations: []string{},
		},
	}
	kind := "death"
	if req.Retirement {
		kind = "retirement"
	}
	res.Log = append(res.Log, fmt.Sprintf("Succession by %s to %s.", kind, heir.Name))

	rate := TaxRate(out.Reputation, req.Retirement)
	res.InheritanceTaxPaid = int(math.Floor(float64(req.Gold) * rate))
	res.AssetsTransferred.Gold = req.Gold - res.InheritanceTaxPaid
	res.Log = append(res.Log, fmt.Sprintf("Inheritance tax at %.0f%%: %d of %d gold.",
		rate*100, res.InheritanceTaxPaid, req.Gold))

	for _, id := range out.StrongholdIDs {
		i := slices.IndexFunc(req.Strongholds, func(s stronghold.Stronghold) bool { return s.ID == id })
		if i < 0 {
			res.AssetsTransferred.Strongholds = append(res.AssetsTransferred.Strongholds, id)
			continue
		}
		s := req.Strongholds[i]
		chance := BaseStability + MoraleStability*s.AverageMorale()
		roll := entropy.Percentile(svc.rand)
		if float64(roll) <= chance || req.Retirement {
			res.AssetsTransferred.Strongholds = append(res.AssetsTransferred.Strongholds, id)
			res.Log = append(res.Log, fmt.Sprintf("%s passed to %s.", s.Name, heir.Name))
			continue
		}
		res.AssetsLost.Strongholds = append(res.AssetsLost.Strongholds, id)
		res.Log = append(res.Log, fmt.Sprintf("%s was lost in the turmoil (roll %d vs %.0f).", s.Name, roll, chance))
	}

	orgChance := OrgTransferChance
	if req.Retirement {
		orgChance = 100
	}
	for _, id := range out.OrganizationIDs {
		i := slices.IndexFunc(req.Organizations, func(o Organization) bool { return o.ID == id })
		if i < 0 {
			res.AssetsTransferred.Organizations = append(res.AssetsTransferred.Organizations, id)
			continue
		}
		o := req.Organizations[i]
		roll := entropy.Percentile(svc.rand)
		if roll <= orgChance {
			res.AssetsTransferred.Organizations = append(res.AssetsTransferred.Organizations, id)
			res.Log = append(res.Log, fmt.Sprintf("%s passed to %s.", o.Name, heir.Name))
			continue
		}
		res.AssetsLost.Organizations = append(res.AssetsLost.Organizations, id)
		res.Log = append(res.Log, fmt.Sprintf("%s broke away (roll %d vs %d).", o.Name, roll, orgChance))
	}

	out.StrongholdIDs = slices.Clone(res.AssetsTransferred.Strongholds)
	out.OrganizationIDs = slices.Clone(res.AssetsTransferred.Organizations)

	out.Heirs = slices.Delete(out.Heirs, hi, hi+1)
	if _, ok := out.DesignatedHeir(); !ok && len(out.Heirs) > 0 {
		out.Heirs[0].IsDesignated = true
		res.Log = append(res.Log, fmt.Sprintf("%s is now first in line.", out.Heirs[0].Name))
	}

	svc.chronicle(&out, "%s succeeded to the %s estate by %s, inheriting %d gold.",
		heir.Name, out.FamilyName, kind, res.AssetsTransferred.Gold)
	out.LegacyScore = Score(out)
	res.LegacyScore = out.LegacyScore
	return out, res, nil
}

// RetireCharacter is a succession by retirement.
func (svc *Service) RetireCharacter(l Legacy, req SuccessionRequest) (Legacy, SuccessionResult, error) {
	req.Retirement = true
	return svc.ProcessSuccession(l, req)
}
