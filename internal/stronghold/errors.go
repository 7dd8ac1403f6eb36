package stronghold

import "github.com/talgya/holdfast/internal/errs"

// Reasons for rejected stronghold operations. Match with errors.Is.
var (
	ErrStaffNotFound   = errs.Reason(errs.CodeNotFound, "staff_not_found")
	ErrUpgradeNotFound = errs.Reason(errs.CodeNotFound, "upgrade_not_found")

	ErrStaffOnMission     = errs.Reason(errs.CodeInvalidOperation, "staff_on_mission")
	ErrUpgradeUnavailable = errs.Reason(errs.CodeInvalidOperation, "upgrade_unavailable")
	ErrUnknownType        = errs.Reason(errs.CodeInvalidOperation, "unknown_stronghold_type")
	ErrUnknownRole        = errs.Reason(errs.CodeInvalidOperation, "unknown_role")
	ErrUnknownMission     = errs.Reason(errs.CodeInvalidOperation, "unknown_mission_type")
	ErrInvalidDifficulty  = errs.Reason(errs.CodeInvalidOperation, "invalid_difficulty")

	ErrInsufficientFunds    = errs.Reason(errs.CodeInsufficientResources, "insufficient_funds")
	ErrInsufficientSupplies = errs.Reason(errs.CodeInsufficientResources, "insufficient_supplies")
)
