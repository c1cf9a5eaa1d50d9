package game

import (
	"github.com/hollowmere/encounterd/pkg/game/types"
)

// authorize is the claim gate every inbound action passes before any
// semantic validation. The subject is the combatant the action acts for.
// Turn-gated actions additionally require the subject to hold the active
// turn slot. Admin claims bypass both checks.
func authorize(claims *ClaimRegistry, turns *TurnController, clientID string, subject types.CombatantID, turnGated bool) *Error {
	claim, ok := claims.Get(clientID)
	if !ok {
		return authorizationError(CodeUnclaimed, "no claim held; claim a combatant first")
	}
	if claim.IsAdmin {
		return nil
	}
	if claim.CombatantID != subject {
		return authorizationError(CodeNotOwner, "combatant %d is not yours to act for", subject)
	}
	if turnGated {
		active, ok := turns.Active()
		if !ok || active != subject {
			return authorizationError(CodeNotYourTurn, "combatant %d does not hold the active turn", subject)
		}
	}
	return nil
}

// authorizeAdmin requires an admin claim.
func authorizeAdmin(claims *ClaimRegistry, clientID string) *Error {
	claim, ok := claims.Get(clientID)
	if !ok {
		return authorizationError(CodeUnclaimed, "no claim held; claim a combatant first")
	}
	if !claim.IsAdmin {
		return authorizationError(CodeNotOwner, "admin claim required")
	}
	return nil
}

// authorizeTransaction gates answers to a pending transaction. Only the
// client claiming the transaction's target may answer a peer-consent
// request; admins may answer anything.
func authorizeTransaction(claims *ClaimRegistry, tx *types.PendingTransaction, clientID string) *Error {
	claim, ok := claims.Get(clientID)
	if !ok {
		return authorizationError(CodeUnclaimed, "no claim held; claim a combatant first")
	}
	if claim.IsAdmin {
		return nil
	}
	if tx.State == types.TransactionRequested && claim.CombatantID == tx.TargetID {
		return nil
	}
	return authorizationError(CodeWrongParty, "transaction %s cannot be answered by combatant %d", tx.ID, claim.CombatantID)
}
