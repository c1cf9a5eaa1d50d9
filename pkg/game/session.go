package game

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hollowmere/encounterd/pkg/catalog"
	"github.com/hollowmere/encounterd/pkg/formula"
	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/hollowmere/encounterd/pkg/hub"
	"github.com/hollowmere/encounterd/pkg/log"
	"github.com/hollowmere/encounterd/pkg/messages"
	"github.com/hollowmere/encounterd/pkg/queue"
)

const (
	// DefaultLoopInterval is how often the pipeline drains its queues.
	DefaultLoopInterval = 50 * time.Millisecond
	// DefaultPendingWindow is how long a pending transaction may sit idle
	// before the sweep force-denies it.
	DefaultPendingWindow = 2 * time.Minute
	// MovementFeetPerSquare converts grid distance to movement feet.
	MovementFeetPerSquare = 5
)

// SessionManager is the serialized mutation pipeline. Every inbound action
// funnels through its queues and is applied on a single goroutine, so state
// mutations never race and every committed mutation gets exactly one
// version number.
type SessionManager struct {
	hub                  *hub.Hub
	actionQueue          queue.Queue
	connectionEventQueue queue.Queue
	catalog              catalog.Catalog
	formulas             formula.Service

	store        *EntityStore
	turns        *TurnController
	claims       *ClaimRegistry
	transactions *TransactionManager

	adminKey      string
	loopInterval  time.Duration
	pendingWindow time.Duration

	version uint64
	latest  atomic.Value
	now     func() time.Time
}

// NewSessionManagerOptions contains options for creating a new SessionManager.
type NewSessionManagerOptions struct {
	Hub                  *hub.Hub
	ActionQueue          queue.Queue
	ConnectionEventQueue queue.Queue
	Catalog              catalog.Catalog
	Formulas             formula.Service
	AdminKey             string
	LoopInterval         time.Duration
	PendingWindow        time.Duration
}

func NewSessionManager(opts NewSessionManagerOptions) *SessionManager {
	loopInterval := opts.LoopInterval
	if loopInterval <= 0 {
		loopInterval = DefaultLoopInterval
	}
	pendingWindow := opts.PendingWindow
	if pendingWindow <= 0 {
		pendingWindow = DefaultPendingWindow
	}
	sm := &SessionManager{
		hub:                  opts.Hub,
		actionQueue:          opts.ActionQueue,
		connectionEventQueue: opts.ConnectionEventQueue,
		catalog:              opts.Catalog,
		formulas:             opts.Formulas,
		store:                NewEntityStore(),
		turns:                NewTurnController(),
		claims:               NewClaimRegistry(),
		transactions:         NewTransactionManager(),
		adminKey:             opts.AdminKey,
		loopInterval:         loopInterval,
		pendingWindow:        pendingWindow,
		now:                  time.Now,
	}
	sm.refreshSnapshot()
	return sm
}

// Store returns the entity store. Outside of tests it must only be touched
// from the pipeline goroutine.
func (sm *SessionManager) Store() *EntityStore {
	return sm.store
}

// Turns returns the turn controller.
func (sm *SessionManager) Turns() *TurnController {
	return sm.turns
}

// Claims returns the claim registry.
func (sm *SessionManager) Claims() *ClaimRegistry {
	return sm.claims
}

// Transactions returns the pending transaction manager.
func (sm *SessionManager) Transactions() *TransactionManager {
	return sm.transactions
}

// Version returns the current session version.
func (sm *SessionManager) Version() uint64 {
	return sm.version
}

// Latest returns the most recently committed snapshot blob. It is safe to
// call from other goroutines.
func (sm *SessionManager) Latest() (messages.SnapshotBlob, bool) {
	blob, ok := sm.latest.Load().(messages.SnapshotBlob)
	return blob, ok
}

// Start runs the pipeline loop until the context is cancelled.
func (sm *SessionManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(sm.loopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sm.processConnectionEvents()
			sm.processActions()
		}
	}
}

func (sm *SessionManager) processConnectionEvents() {
	pendingEvents, err := sm.connectionEventQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read connection events: %v", err)
		return
	}
	for _, item := range pendingEvents {
		switch event := item.(type) {
		case *types.ConnectClientEvent:
			log.Debug("Client %s connected", event.ClientID)
			sm.sendSnapshot(event.ClientID)
		case *types.DisconnectClientEvent:
			log.Debug("Client %s disconnected", event.ClientID)
			if claim, ok := sm.claims.Unclaim(event.ClientID); ok {
				sm.commit([]messages.Patch{{
					Kind: messages.PatchSessionClaim,
					Payload: messages.ClaimPayload{
						ClientID:    event.ClientID,
						CombatantID: claim.CombatantID,
						IsAdmin:     claim.IsAdmin,
						Released:    true,
					},
				}})
			}
			sm.hub.Unregister(event.ClientID)
		default:
			log.Error("Unhandled connection event type: %T", event)
		}
	}
}

func (sm *SessionManager) processActions() {
	pendingMessages, err := sm.actionQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read client actions: %v", err)
		return
	}
	for _, item := range pendingMessages {
		message, ok := item.(*messages.Message)
		if !ok {
			log.Error("Unhandled action item type: %T", item)
			continue
		}
		sm.handleMessage(message)
	}
}

// handleMessage applies one inbound action end to end: decode, authorize,
// validate, mutate, commit. A rejection at any stage reaches only the
// originating client and leaves the state untouched.
func (sm *SessionManager) handleMessage(message *messages.Message) {
	action, err := messages.DecodeAction(message)
	if err != nil {
		log.Debug("Failed to decode action from client %s: %v", message.ClientID, err)
		sm.hub.SendError(message.ClientID, messages.ServerError{
			Code:    CodeBadRequest,
			Message: err.Error(),
		})
		return
	}

	patches, gerr := sm.dispatch(message.ClientID, action)
	if gerr != nil {
		if gerr.Kind == KindInvariant {
			log.Error("Invariant violation applying %s from client %s: %s", message.Type, message.ClientID, gerr.Message)
		} else {
			log.Debug("Rejected %s from client %s: %s", message.Type, message.ClientID, gerr.Message)
		}
		sm.hub.SendError(message.ClientID, messages.ServerError{
			Code:    gerr.Code,
			Message: gerr.Message,
		})
		return
	}

	if len(patches) > 0 {
		sm.commit(patches)
	}

	// A fresh claim gets a snapshot so the client immediately sees its
	// owner-only fields.
	if _, ok := action.(*messages.ClientClaim); ok {
		sm.sendSnapshot(message.ClientID)
	}
}

func (sm *SessionManager) dispatch(clientID string, action interface{}) ([]messages.Patch, *Error) {
	switch a := action.(type) {
	case *messages.ClientClaim:
		return sm.applyClaim(clientID, a)
	case *messages.ClientUnclaim:
		return sm.applyUnclaim(clientID)
	case *messages.ClientMove:
		return sm.applyMove(clientID, a)
	case *messages.ClientAttack:
		return sm.applyAttack(clientID, a)
	case *messages.ClientCast:
		return sm.applyCast(clientID, a)
	case *messages.ClientEndTurn:
		return sm.applyEndTurn(clientID, a)
	case *messages.ClientAdvanceTurn:
		return sm.applyAdvanceTurn(clientID)
	case *messages.ClientRewindTurn:
		return sm.applyRewindTurn(clientID)
	case *messages.ClientInsertCombatant:
		return sm.applyInsertCombatant(clientID, a)
	case *messages.ClientRemoveCombatant:
		return sm.applyRemoveCombatant(clientID, a)
	case *messages.ClientSpawn:
		return sm.applySpawn(clientID, a)
	case *messages.ClientApplyDamage:
		return sm.applyDamage(clientID, a)
	case *messages.ClientHeal:
		return sm.applyHeal(clientID, a)
	case *messages.ClientMountRequest:
		return sm.applyMountRequest(clientID, a)
	case *messages.ClientMountRespond:
		return sm.applyMountRespond(clientID, a)
	case *messages.ClientUnmount:
		return sm.applyUnmount(clientID, a)
	case *messages.ClientTransformApply:
		return sm.applyTransformApply(clientID, a)
	case *messages.ClientTransformRevert:
		return sm.applyTransformRevert(clientID, a)
	case *messages.ClientResync:
		sm.sendSnapshot(clientID)
		return nil, nil
	case *messages.ClientChat:
		return sm.applyChat(clientID, a)
	case *messages.InternalSweep:
		return sm.applySweep(clientID)
	default:
		return nil, &Error{Kind: KindTransport, Code: CodeBadRequest, Message: fmt.Sprintf("unhandled action type %T", action)}
	}
}

// commit assigns the next version to a batch of patches and fans the delta
// out. Subscribers whose send queues overflowed are resynced with a full
// snapshot instead of a gapped delta stream.
func (sm *SessionManager) commit(patches []messages.Patch) {
	if err := sm.store.Validate(); err != nil {
		log.Error("Session state failed validation before commit: %v", err)
	}

	sm.version++
	delta := messages.ServerDelta{Version: sm.version, Patches: patches}
	sm.refreshSnapshot()

	for _, clientID := range sm.hub.Publish(delta, sm.claims) {
		log.Debug("Client %s overflowed, resyncing with snapshot", clientID)
		sm.sendSnapshot(clientID)
	}
}

func (sm *SessionManager) sendSnapshot(clientID string) {
	snapshot := sm.buildSnapshot()
	if err := sm.hub.SendSnapshot(clientID, &snapshot, sm.claims); err != nil {
		log.Trace("Failed to send snapshot to client %s: %v", clientID, err)
	}
}

func (sm *SessionManager) refreshSnapshot() {
	snapshot := sm.buildSnapshot()
	data, err := messages.EncodeSnapshot(&snapshot)
	if err != nil {
		log.Error("Failed to encode snapshot at version %d: %v", snapshot.Version, err)
		return
	}
	sm.latest.Store(messages.SnapshotBlob{Version: snapshot.Version, Data: data})
}

// buildSnapshot assembles the unredacted full session view.
func (sm *SessionManager) buildSnapshot() messages.ServerSnapshot {
	combatants := make([]messages.CombatantView, 0, sm.store.Len())
	for _, c := range sm.store.All() {
		combatants = append(combatants, sm.combatantView(c))
	}

	pending := sm.transactions.All()
	transactions := make([]messages.TransactionView, 0, len(pending))
	for _, tx := range pending {
		transactions = append(transactions, transactionView(tx))
	}

	entries := sm.claims.All()
	claims := make([]messages.ClaimView, 0, len(entries))
	for _, entry := range entries {
		claims = append(claims, messages.ClaimView{
			ClientID:    entry.ClientID,
			CombatantID: entry.Claim.CombatantID,
			IsAdmin:     entry.Claim.IsAdmin,
		})
	}

	return messages.ServerSnapshot{
		Version: sm.version,
		Session: messages.SessionView{
			Round:        sm.turns.Round(),
			TurnOrder:    sm.turns.Order(),
			ActiveIndex:  sm.turns.ActiveIndex(),
			Combatants:   combatants,
			Transactions: transactions,
			Claims:       claims,
		},
	}
}

func (sm *SessionManager) combatantView(c *types.Combatant) messages.CombatantView {
	clone := c.Clone()
	position, _ := sm.store.EffectivePosition(c.ID)

	armorClass := clone.ArmorClass
	view := messages.CombatantView{
		ID:             clone.ID,
		Name:           clone.Name,
		Side:           clone.Side,
		HP:             clone.HP,
		ArmorClass:     &armorClass,
		Speeds:         clone.Speeds,
		MovementBudget: clone.MovementBudget,
		Position:       position,
		Strength:       clone.Strength,
		Dexterity:      clone.Dexterity,
		Constitution:   clone.Constitution,
		Actions:        clone.Actions,
		BonusActions:   clone.BonusActions,
		Reactions:      clone.Reactions,
		Spellcaster:    clone.Spellcaster,
		Conditions:     clone.Conditions,
		Mount:          clone.Mount,
		AllowedForms:   clone.AllowedForms,
		Overlay:        clone.Overlay,
		ReactionUsed:   clone.ReactionUsed,
	}
	if clone.Overlay != nil {
		view.TransformedAs = clone.Overlay.FormID
	}
	if len(clone.Resources) > 0 {
		view.Resources = make(map[string]types.ResourcePool, len(clone.Resources))
		for id, pool := range clone.Resources {
			view.Resources[id] = *pool
		}
	}
	return view
}

func transactionView(tx *types.PendingTransaction) messages.TransactionView {
	return messages.TransactionView{
		ID:          tx.ID,
		Kind:        tx.Kind,
		State:       tx.State,
		InitiatorID: tx.InitiatorID,
		TargetID:    tx.TargetID,
	}
}

// RestoreSnapshot rebuilds the session from a persisted snapshot blob.
// Claims are deliberately not restored: client ids are connection-scoped and
// reconnecting clients claim again.
func (sm *SessionManager) RestoreSnapshot(data []byte) error {
	snapshot, err := messages.DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("failed to decode snapshot: %v", err)
	}

	store := NewEntityStore()
	for i := range snapshot.Session.Combatants {
		view := snapshot.Session.Combatants[i]
		c := &types.Combatant{
			ID:             view.ID,
			Name:           view.Name,
			Side:           view.Side,
			HP:             view.HP,
			Speeds:         view.Speeds,
			MovementBudget: view.MovementBudget,
			Position:       view.Position,
			Strength:       view.Strength,
			Dexterity:      view.Dexterity,
			Constitution:   view.Constitution,
			Actions:        view.Actions,
			BonusActions:   view.BonusActions,
			Reactions:      view.Reactions,
			Spellcaster:    view.Spellcaster,
			Conditions:     view.Conditions,
			AllowedForms:   view.AllowedForms,
			Mount:          view.Mount,
			Overlay:        view.Overlay,
			ReactionUsed:   view.ReactionUsed,
		}
		if view.ArmorClass != nil {
			c.ArmorClass = *view.ArmorClass
		}
		if len(view.Resources) > 0 {
			c.Resources = make(map[string]*types.ResourcePool, len(view.Resources))
			for id, pool := range view.Resources {
				p := pool
				c.Resources[id] = &p
			}
		}
		if err := store.Add(c); err != nil {
			return fmt.Errorf("failed to restore combatant %d: %v", view.ID, err)
		}
	}
	if err := store.Validate(); err != nil {
		return fmt.Errorf("failed to validate restored state: %v", err)
	}

	pending := make([]*types.PendingTransaction, 0, len(snapshot.Session.Transactions))
	for _, view := range snapshot.Session.Transactions {
		pending = append(pending, &types.PendingTransaction{
			ID:               view.ID,
			Kind:             view.Kind,
			InitiatorID:      view.InitiatorID,
			TargetID:         view.TargetID,
			State:            view.State,
			CreatedAtVersion: snapshot.Version,
		})
	}

	sm.store = store
	sm.turns.Restore(snapshot.Session.TurnOrder, snapshot.Session.ActiveIndex, snapshot.Session.Round)
	sm.transactions.Restore(pending, sm.now())
	sm.turns.SetLocked(sm.transactions.Len() > 0)
	sm.claims = NewClaimRegistry()
	sm.version = snapshot.Version
	sm.refreshSnapshot()
	log.Info("Restored session at version %d with %d combatants", sm.version, sm.store.Len())
	return nil
}
