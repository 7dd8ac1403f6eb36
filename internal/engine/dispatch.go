package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/talgya/holdfast/internal/errs"
	"github.com/talgya/holdfast/internal/legacy"
	"github.com/talgya/holdfast/internal/report"
	"github.com/talgya/holdfast/internal/stronghold"
)

// Reasons for rejected actions.
var (
	ErrStrongholdNotFound = errs.Reason(errs.CodeNotFound, "stronghold_not_found")
	ErrStrongholdExists   = errs.Reason(errs.CodeInvalidOperation, "stronghold_exists")
	ErrLegacyMissing      = errs.Reason(errs.CodeInvalidOperation, "legacy_missing")
	ErrLegacyExists       = errs.Reason(errs.CodeInvalidOperation, "legacy_exists")
	ErrUnknownAction      = errs.Reason(errs.CodeInvalidOperation, "unknown_action")
)

// SuccessionMessageType tags succession messages.
const SuccessionMessageType = "succession"

// Action is a player command applied by Dispatch.
type Action interface {
	ActionName() string
}

// FoundStronghold creates a stronghold. ID is optional.
type FoundStronghold struct {
	ID         string
	Name       string
	Type       stronghold.Type
	LocationID string
}

// RecruitStaff hires a staff member into a stronghold.
type RecruitStaff struct {
	StrongholdID string
	Name         string
	Role         stronghold.Role
}

// FireStaff dismisses a staff member.
type FireStaff struct {
	StrongholdID string
	StaffID      string
}

// PurchaseUpgrade buys a catalog upgrade for a stronghold.
type PurchaseUpgrade struct {
	StrongholdID string
	UpgradeID    string
}

// StartMission sends an idle staff member on a mission.
type StartMission struct {
	StrongholdID string
	StaffID      string
	Type         stronghold.MissionType
	Difficulty   int
	Description  string
}

// InitLegacy starts the family legacy. Only one legacy may exist.
type InitLegacy struct {
	FamilyName string
}

// GrantTitle adds a title to the legacy.
type GrantTitle struct {
	Name        string
	Description string
	GrantedBy   string
}

// RegisterHeir adds a potential heir to the legacy.
type RegisterHeir struct {
	Name     string
	Relation string
	Age      int
	Class    string
}

// RecordMonument records a monument built by the family.
type RecordMonument struct {
	Name        string
	Description string
	LocationID  string
	Cost        int
}

// Succession hands the estate to an heir on death or retirement. The heir
// inherits every stronghold in the simulation that survives the succession.
type Succession struct {
	HeirID        string
	Gold          int
	Retirement    bool
	Organizations []legacy.Organization
}

func (FoundStronghold) ActionName() string { return "found_stronghold" }
func (RecruitStaff) ActionName() string    { return "recruit_staff" }
func (FireStaff) ActionName() string       { return "fire_staff" }
func (PurchaseUpgrade) ActionName() string { return "purchase_upgrade" }
func (StartMission) ActionName() string    { return "start_mission" }
func (InitLegacy) ActionName() string      { return "init_legacy" }
func (GrantTitle) ActionName() string      { return "grant_title" }
func (RegisterHeir) ActionName() string    { return "register_heir" }
func (RecordMonument) ActionName() string  { return "record_monument" }
func (Succession) ActionName() string      { return "succession" }

// Dispatch applies an action to the simulation. A rejected action leaves the
// state untouched; the error is logged and returned.
func (s *Simulation) Dispatch(a Action) error {
	err := s.apply(a)
	if err != nil {
		slog.Warn("action rejected", "action", a.ActionName(), "code", errs.CodeOf(err), "err", err)
		return err
	}
	slog.Debug("action applied", "action", a.ActionName())
	return nil
}

func (s *Simulation) apply(a Action) error {
	switch act := a.(type) {
	case FoundStronghold:
		h, err := stronghold.New(act.Name, act.Type, act.LocationID)
		if err != nil {
			return err
		}
		if act.ID != "" {
			h.ID = act.ID
		}
		if _, dup := s.Strongholds[h.ID]; dup {
			return errs.New(ErrStrongholdExists, fmt.Sprintf("stronghold %s already exists", h.ID))
		}
		s.Strongholds[h.ID] = h
		if s.Legacy != nil {
			l := legacy.LinkStronghold(*s.Legacy, h.ID)
			s.Legacy = &l
		}
		return nil

	case RecruitStaff:
		return s.update(act.StrongholdID, func(h stronghold.Stronghold) (stronghold.Stronghold, error) {
			return stronghold.RecruitStaff(h, act.Name, act.Role)
		})

	case FireStaff:
		return s.update(act.StrongholdID, func(h stronghold.Stronghold) (stronghold.Stronghold, error) {
			return stronghold.FireStaff(h, act.StaffID)
		})

	case PurchaseUpgrade:
		return s.update(act.StrongholdID, func(h stronghold.Stronghold) (stronghold.Stronghold, error) {
			return s.strongholds.PurchaseUpgrade(h, act.UpgradeID)
		})

	case StartMission:
		return s.update(act.StrongholdID, func(h stronghold.Stronghold) (stronghold.Stronghold, error) {
			return s.strongholds.StartMission(h, act.StaffID, act.Type, act.Difficulty, act.Description)
		})

	case InitLegacy:
		if s.Legacy != nil {
			return errs.New(ErrLegacyExists, fmt.Sprintf("legacy of house %s already exists", s.Legacy.FamilyName))
		}
		l := s.legacies.New(act.FamilyName)
		ids := make([]string, 0, len(s.Strongholds))
		for id := range s.Strongholds {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			l = legacy.LinkStronghold(l, id)
		}
		s.Legacy = &l
		return nil

	case GrantTitle:
		return s.updateLegacy(func(l legacy.Legacy) (legacy.Legacy, error) {
			return s.legacies.GrantTitle(l, act.Name, act.Description, act.GrantedBy), nil
		})

	case RegisterHeir:
		return s.updateLegacy(func(l legacy.Legacy) (legacy.Legacy, error) {
			return s.legacies.RegisterHeir(l, act.Name, act.Relation, act.Age, act.Class), nil
		})

	case RecordMonument:
		return s.updateLegacy(func(l legacy.Legacy) (legacy.Legacy, error) {
			return s.legacies.RecordMonument(l, act.Name, act.Description, act.LocationID, act.Cost)
		})

	case Succession:
		return s.succeed(act)
	}
	return errs.New(ErrUnknownAction, fmt.Sprintf("unknown action %T", a))
}

func (s *Simulation) update(id string, fn func(stronghold.Stronghold) (stronghold.Stronghold, error)) error {
	h, ok := s.Strongholds[id]
	if !ok {
		return errs.New(ErrStrongholdNotFound, fmt.Sprintf("stronghold %s not found", id))
	}
	next, err := fn(h)
	if err != nil {
		return err
	}
	s.Strongholds[id] = next
	return nil
}

func (s *Simulation) updateLegacy(fn func(legacy.Legacy) (legacy.Legacy, error)) error {
	if s.Legacy == nil {
		return errs.New(ErrLegacyMissing, "no legacy has been started")
	}
	next, err := fn(*s.Legacy)
	if err != nil {
		return err
	}
	s.Legacy = &next
	return nil
}

func (s *Simulation) succeed(act Succession) error {
	if s.Legacy == nil {
		return errs.New(ErrLegacyMissing, "no legacy has been started")
	}

	holds := make([]stronghold.Stronghold, 0, len(s.Legacy.StrongholdIDs))
	for _, id := range s.Legacy.StrongholdIDs {
		if h, ok := s.Strongholds[id]; ok {
			holds = append(holds, h)
		}
	}
	next, res, err := s.legacies.ProcessSuccession(*s.Legacy, legacy.SuccessionRequest{
		Gold:          act.Gold,
		HeirID:        act.HeirID,
		Retirement:    act.Retirement,
		Strongholds:   holds,
		Organizations: act.Organizations,
	})
	if err != nil {
		return err
	}

	s.Legacy = &next
	for _, id := range res.AssetsLost.Strongholds {
		delete(s.Strongholds, id)
	}

	kind := "death"
	if act.Retirement {
		kind = "retirement"
	}
	s.metrics.ObserveSuccession(kind)
	s.Messages = append(s.Messages, report.Message{
		ID:        uuid.NewString(),
		Text:      strings.Join(res.Log, report.Separator),
		Sender:    next.FamilyName,
		Timestamp: s.GameTime(),
		Metadata:  report.Metadata{Type: SuccessionMessageType},
	})
	slog.Info("succession",
		"family", next.FamilyName,
		"heir", res.HeirID,
		"kind", kind,
		"tax", res.InheritanceTaxPaid,
		"gold", res.AssetsTransferred.Gold,
		"strongholds_lost", len(res.AssetsLost.Strongholds),
		"legacy_score", res.LegacyScore,
	)
	return nil
}
