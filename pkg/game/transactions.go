package game

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/hollowmere/encounterd/pkg/messages"
)

// TransactionManager tracks multi-step approval workflows. Currently only
// mount attempts rest here; transformations resolve in a single action.
type TransactionManager struct {
	pending map[string]*types.PendingTransaction
}

// NewTransactionManager creates an empty transaction manager.
func NewTransactionManager() *TransactionManager {
	return &TransactionManager{
		pending: make(map[string]*types.PendingTransaction),
	}
}

// Get returns a pending transaction by id.
func (m *TransactionManager) Get(id string) (*types.PendingTransaction, bool) {
	tx, ok := m.pending[id]
	return tx, ok
}

// ForCombatant returns a pending transaction the combatant participates in,
// as initiator or target.
func (m *TransactionManager) ForCombatant(id types.CombatantID) (*types.PendingTransaction, bool) {
	for _, tx := range m.pending {
		if tx.InitiatorID == id || tx.TargetID == id {
			return tx, true
		}
	}
	return nil, false
}

// Len returns the number of pending transactions.
func (m *TransactionManager) Len() int {
	return len(m.pending)
}

// CreateMountRequest opens a mount workflow. Requests against a
// player-claimed target start in the peer-consent state; requests against an
// unclaimed target go straight to the admin.
func (m *TransactionManager) CreateMountRequest(rider, target types.CombatantID, peerControlled bool, version uint64, now time.Time) *types.PendingTransaction {
	state := types.TransactionAdminDecision
	if peerControlled {
		state = types.TransactionRequested
	}
	tx := &types.PendingTransaction{
		ID:               uuid.NewString(),
		Kind:             types.TransactionKindMount,
		InitiatorID:      rider,
		TargetID:         target,
		State:            state,
		CreatedAtVersion: version,
		Touched:          now,
	}
	m.pending[tx.ID] = tx
	return tx
}

// Resolve applies a decision to a pending transaction and returns its new
// state. Admin answers to a peer-consent request follow the same approve or
// deny transitions as the peer's own answer would.
func (m *TransactionManager) Resolve(tx *types.PendingTransaction, decision string, now time.Time) (types.TransactionState, *Error) {
	var next types.TransactionState
	switch tx.State {
	case types.TransactionRequested:
		switch decision {
		case messages.MountDecisionApprove:
			next = types.TransactionMounted
		case messages.MountDecisionDeny:
			next = types.TransactionDenied
		default:
			return tx.State, preconditionError(CodeBadDecision, "decision %q is not valid while awaiting consent", decision)
		}
	case types.TransactionAdminDecision:
		switch decision {
		case messages.MountDecisionApprove:
			next = types.TransactionMounted
		case messages.MountDecisionDeny:
			next = types.TransactionDeniedPendingSave
		default:
			return tx.State, preconditionError(CodeBadDecision, "decision %q is not valid while awaiting the admin", decision)
		}
	case types.TransactionDeniedPendingSave:
		switch decision {
		case messages.MountDecisionSavePass:
			next = types.TransactionMounted
		case messages.MountDecisionSaveFail:
			next = types.TransactionDenied
		default:
			return tx.State, preconditionError(CodeBadDecision, "decision %q is not valid while a save is contested", decision)
		}
	default:
		return tx.State, preconditionError(CodeBadDecision, "transaction %s is already resolved", tx.ID)
	}

	tx.State = next
	tx.Touched = now
	return next, nil
}

// Remove drops a transaction from the pending table.
func (m *TransactionManager) Remove(id string) {
	delete(m.pending, id)
}

// Sweep force-denies every pending transaction idle for longer than the
// window and returns them, still present in the table so the caller can
// broadcast the terminal state before removing them.
func (m *TransactionManager) Sweep(now time.Time, window time.Duration) []*types.PendingTransaction {
	var expired []*types.PendingTransaction
	for _, tx := range m.pending {
		if now.Sub(tx.Touched) < window {
			continue
		}
		tx.State = types.TransactionDenied
		tx.Touched = now
		expired = append(expired, tx)
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ID < expired[j].ID })
	return expired
}

// All returns every pending transaction ordered by id.
func (m *TransactionManager) All() []*types.PendingTransaction {
	out := make([]*types.PendingTransaction, 0, len(m.pending))
	for _, tx := range m.pending {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Restore replaces the pending table from a snapshot.
func (m *TransactionManager) Restore(txs []*types.PendingTransaction, now time.Time) {
	m.pending = make(map[string]*types.PendingTransaction, len(txs))
	for _, tx := range txs {
		copied := *tx
		copied.Touched = now
		m.pending[copied.ID] = &copied
	}
}
