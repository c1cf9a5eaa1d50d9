package game

import "fmt"

// ErrorKind classifies a rejected action.
type ErrorKind string

const (
	// KindAuthorization means the claim gate denied the action.
	KindAuthorization ErrorKind = "authorization"
	// KindPrecondition means a semantic check failed before any mutation.
	KindPrecondition ErrorKind = "precondition"
	// KindInvariant means post-mutation validation failed. These indicate a
	// server bug and are logged loudly.
	KindInvariant ErrorKind = "invariant"
	// KindTransport means the message itself was unusable.
	KindTransport ErrorKind = "transport"
)

// Stable error codes sent to clients.
const (
	CodeUnclaimed              = "unclaimed"
	CodeNotYourTurn            = "not_your_turn"
	CodeNotOwner               = "not_owner"
	CodeWrongParty             = "wrong_party"
	CodeBadAdminKey            = "bad_admin_key"
	CodeCombatantClaimed       = "combatant_claimed"
	CodeUnknownCombatant       = "unknown_combatant"
	CodeUnknownRecord          = "unknown_record"
	CodeUnknownTransaction     = "unknown_transaction"
	CodeBadRequest             = "bad_request"
	CodeBadFormula             = "bad_formula"
	CodeBadDecision            = "bad_decision"
	CodeNotSpellcaster         = "not_a_spellcaster"
	CodeNoUsesRemaining        = "no_uses_remaining"
	CodeNoMovementRemaining    = "no_movement_remaining"
	CodeMountedRiderCannotMove = "mounted_rider_cannot_move"
	CodeAlreadyMounted         = "already_mounted"
	CodeMountPending           = "mount_pending"
	CodeNotMounted             = "not_mounted"
	CodeAlreadyTransformed     = "already_transformed"
	CodeNotTransformed         = "not_transformed"
	CodeFormNotAllowed         = "form_not_allowed"
	CodeTurnOrderLocked        = "turn_order_locked"
	CodeCannotRewind           = "cannot_rewind"
	CodeInvariantViolation     = "invariant_violation"
)

// Error is a rejected action. It is delivered to the originating client only
// and never mutates session state.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Kind, e.Code, e.Message)
}

func authorizationError(code string, format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: fmt.Sprintf(format, args...)}
}

func preconditionError(code string, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPrecondition, Code: code, Message: fmt.Sprintf(format, args...)}
}

func invariantError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvariant, Code: CodeInvariantViolation, Message: fmt.Sprintf(format, args...)}
}
