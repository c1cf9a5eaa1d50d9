package game

import (
	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/hollowmere/encounterd/pkg/messages"
)

func (sm *SessionManager) applyClaim(clientID string, a *messages.ClientClaim) ([]messages.Patch, *Error) {
	if a.AdminKey != "" {
		if sm.adminKey == "" || a.AdminKey != sm.adminKey {
			return nil, authorizationError(CodeBadAdminKey, "admin key rejected")
		}
		sm.claims.Claim(clientID, 0, true)
		return []messages.Patch{claimPatch(clientID, types.Claim{IsAdmin: true}, false)}, nil
	}

	if _, ok := sm.store.Get(a.CombatantID); !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.CombatantID)
	}
	if owner, ok := sm.claims.OwnerOf(a.CombatantID); ok && owner != clientID {
		return nil, authorizationError(CodeCombatantClaimed, "combatant %d is already claimed", a.CombatantID)
	}

	sm.claims.Claim(clientID, a.CombatantID, false)
	return []messages.Patch{claimPatch(clientID, types.Claim{CombatantID: a.CombatantID}, false)}, nil
}

func (sm *SessionManager) applyUnclaim(clientID string) ([]messages.Patch, *Error) {
	claim, ok := sm.claims.Unclaim(clientID)
	if !ok {
		return nil, authorizationError(CodeUnclaimed, "no claim held")
	}
	return []messages.Patch{claimPatch(clientID, claim, true)}, nil
}

func (sm *SessionManager) applyMove(clientID string, a *messages.ClientMove) ([]messages.Patch, *Error) {
	if err := authorize(sm.claims, sm.turns, clientID, a.CombatantID, true); err != nil {
		return nil, err
	}
	c, ok := sm.store.Get(a.CombatantID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.CombatantID)
	}
	if c.IsMountedRider() {
		return nil, preconditionError(CodeMountedRiderCannotMove, "combatant %d rides combatant %d and moves with it", c.ID, c.Mount.PartnerID)
	}

	mode := a.Mode
	if mode == "" {
		mode = types.MovementWalk
	}
	if c.Speeds[mode] <= 0 {
		return nil, preconditionError(CodeBadRequest, "combatant %d has no %s speed", c.ID, mode)
	}

	destination := types.Position{X: a.X, Y: a.Y}
	cost := MovementFeetPerSquare * gridDistance(c.Position, destination)
	if cost == 0 {
		return nil, nil
	}
	if cost > c.MovementBudget {
		return nil, preconditionError(CodeNoMovementRemaining, "move costs %d ft but only %d ft remain", cost, c.MovementBudget)
	}

	c.Position = destination
	c.MovementBudget -= cost

	patches := []messages.Patch{
		{Kind: messages.PatchCombatantPosition, CombatantID: c.ID, Payload: messages.PositionPayload{Position: destination}},
		{Kind: messages.PatchCombatantMovement, CombatantID: c.ID, Payload: messages.MovementPayload{Budget: c.MovementBudget}},
	}
	// A carried rider follows; its position is derived, never written.
	if c.Mount != nil && c.Mount.Role == types.MountRoleMount {
		patches = append(patches, messages.Patch{
			Kind:        messages.PatchCombatantPosition,
			CombatantID: c.Mount.PartnerID,
			Payload:     messages.PositionPayload{Position: destination},
		})
	}
	return patches, nil
}

func (sm *SessionManager) applyAttack(clientID string, a *messages.ClientAttack) ([]messages.Patch, *Error) {
	if err := authorize(sm.claims, sm.turns, clientID, a.CombatantID, true); err != nil {
		return nil, err
	}
	attacker, ok := sm.store.Get(a.CombatantID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.CombatantID)
	}
	target, ok := sm.store.Get(a.TargetID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "target %d does not exist", a.TargetID)
	}

	result, err := sm.formulas.Evaluate(a.Formula, sm.formulaVars(attacker))
	if err != nil {
		return nil, preconditionError(CodeBadFormula, "failed to evaluate damage formula: %v", err)
	}
	damage := int(result)
	if damage < 0 {
		damage = 0
	}

	target.TakeDamage(damage)
	return []messages.Patch{hpPatch(target)}, nil
}

func (sm *SessionManager) applyCast(clientID string, a *messages.ClientCast) ([]messages.Patch, *Error) {
	if err := authorize(sm.claims, sm.turns, clientID, a.CombatantID, true); err != nil {
		return nil, err
	}
	caster, ok := sm.store.Get(a.CombatantID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.CombatantID)
	}
	if !caster.Spellcaster {
		return nil, preconditionError(CodeNotSpellcaster, "combatant %d cannot cast", caster.ID)
	}
	spell, err := sm.catalog.Spell(a.SpellID)
	if err != nil {
		return nil, preconditionError(CodeUnknownRecord, "%v", err)
	}
	pool, ok := caster.Resources[types.ResourceSpellSlots]
	if !ok || pool.Current <= 0 {
		return nil, preconditionError(CodeNoUsesRemaining, "combatant %d has no %s remaining", caster.ID, types.ResourceSpellSlots)
	}

	var target *types.Combatant
	if spell.DamageFormula != "" || spell.Condition != "" {
		target, ok = sm.store.Get(a.TargetID)
		if !ok {
			return nil, preconditionError(CodeUnknownCombatant, "target %d does not exist", a.TargetID)
		}
	}

	damage := 0
	if spell.DamageFormula != "" {
		result, err := sm.formulas.Evaluate(spell.DamageFormula, sm.formulaVars(caster))
		if err != nil {
			return nil, preconditionError(CodeBadFormula, "failed to evaluate spell formula: %v", err)
		}
		damage = int(result)
		if damage < 0 {
			damage = 0
		}
	}

	pool.Current--
	patches := []messages.Patch{{
		Kind:        messages.PatchCombatantResource,
		CombatantID: caster.ID,
		Payload:     messages.ResourcePayload{PoolID: types.ResourceSpellSlots, Pool: *pool},
	}}
	if spell.DamageFormula != "" {
		target.TakeDamage(damage)
		patches = append(patches, hpPatch(target))
	}
	if spell.Condition != "" {
		target.Conditions = append(target.Conditions, types.Condition{Kind: spell.Condition, Remaining: spell.Duration})
		patches = append(patches, messages.Patch{
			Kind:        messages.PatchCombatantConditions,
			CombatantID: target.ID,
			Payload:     messages.ConditionsPayload{Conditions: target.Conditions},
		})
	}
	return patches, nil
}

func (sm *SessionManager) applyEndTurn(clientID string, a *messages.ClientEndTurn) ([]messages.Patch, *Error) {
	if err := authorize(sm.claims, sm.turns, clientID, a.CombatantID, true); err != nil {
		return nil, err
	}
	return sm.advancePatches()
}

func (sm *SessionManager) applyAdvanceTurn(clientID string) ([]messages.Patch, *Error) {
	if err := authorizeAdmin(sm.claims, clientID); err != nil {
		return nil, err
	}
	return sm.advancePatches()
}

func (sm *SessionManager) applyRewindTurn(clientID string) ([]messages.Patch, *Error) {
	if err := authorizeAdmin(sm.claims, clientID); err != nil {
		return nil, err
	}
	report, err := sm.turns.Rewind(sm.store)
	if err != nil {
		return nil, preconditionError(CodeCannotRewind, "%v", err)
	}
	return sm.turnReportPatches(report), nil
}

func (sm *SessionManager) applyInsertCombatant(clientID string, a *messages.ClientInsertCombatant) ([]messages.Patch, *Error) {
	if err := authorizeAdmin(sm.claims, clientID); err != nil {
		return nil, err
	}
	if _, ok := sm.store.Get(a.CombatantID); !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.CombatantID)
	}
	if sm.turns.Locked() {
		return nil, preconditionError(CodeTurnOrderLocked, "turn order is locked while a transaction resolves")
	}
	if err := sm.turns.Insert(a.CombatantID, a.Position); err != nil {
		return nil, preconditionError(CodeBadRequest, "%v", err)
	}
	return []messages.Patch{sm.orderPatch(), sm.turnPatch()}, nil
}

func (sm *SessionManager) applyRemoveCombatant(clientID string, a *messages.ClientRemoveCombatant) ([]messages.Patch, *Error) {
	if err := authorizeAdmin(sm.claims, clientID); err != nil {
		return nil, err
	}
	c, ok := sm.store.Get(a.CombatantID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.CombatantID)
	}

	// Transactions the combatant participates in die with it. Unrelated
	// transactions keep the order locked and block the removal, checked
	// before anything mutates so a rejection leaves the table intact.
	for _, tx := range sm.transactions.All() {
		if tx.InitiatorID != c.ID && tx.TargetID != c.ID {
			return nil, preconditionError(CodeTurnOrderLocked, "turn order is locked while a transaction resolves")
		}
	}

	var patches []messages.Patch
	for {
		tx, ok := sm.transactions.ForCombatant(c.ID)
		if !ok {
			break
		}
		tx.State = types.TransactionDenied
		patches = append(patches, transactionPatch(tx))
		sm.transactions.Remove(tx.ID)
	}
	sm.turns.SetLocked(sm.transactions.Len() > 0)

	if c.Mount != nil {
		if partner, ok := sm.store.Get(c.Mount.PartnerID); ok {
			if partner.IsMountedRider() {
				partner.Position = c.Position
				patches = append(patches, messages.Patch{
					Kind:        messages.PatchCombatantPosition,
					CombatantID: partner.ID,
					Payload:     messages.PositionPayload{Position: partner.Position},
				})
			}
			partner.Mount = nil
			patches = append(patches, mountPatch(partner))
		}
		c.Mount = nil
	}

	if owner, ok := sm.claims.OwnerOf(c.ID); ok {
		claim, _ := sm.claims.Unclaim(owner)
		patches = append(patches, claimPatch(owner, claim, true))
	}

	if sm.turns.Contains(c.ID) {
		report, err := sm.turns.Remove(c.ID, sm.store)
		if err != nil {
			return nil, preconditionError(CodeBadRequest, "%v", err)
		}
		patches = append(patches, messages.Patch{Kind: messages.PatchCombatantRemove, CombatantID: c.ID})
		patches = append(patches, sm.orderPatch())
		if len(sm.turns.Order()) > 0 {
			patches = append(patches, sm.turnReportPatches(report)...)
		}
	} else {
		patches = append(patches, messages.Patch{Kind: messages.PatchCombatantRemove, CombatantID: c.ID})
	}

	sm.store.Remove(c.ID)
	return patches, nil
}

func (sm *SessionManager) applySpawn(clientID string, a *messages.ClientSpawn) ([]messages.Patch, *Error) {
	if err := authorizeAdmin(sm.claims, clientID); err != nil {
		return nil, err
	}
	record, err := sm.catalog.Creature(a.CreatureID)
	if err != nil {
		return nil, preconditionError(CodeUnknownRecord, "%v", err)
	}
	if sm.turns.Locked() {
		return nil, preconditionError(CodeTurnOrderLocked, "turn order is locked while a transaction resolves")
	}

	side := a.Side
	if side == "" {
		side = types.SideEnemy
	}

	c := &types.Combatant{
		ID:             sm.store.AllocateID(),
		Name:           record.Name,
		Side:           side,
		HP:             types.HealthPool{Current: record.MaxHP, Max: record.MaxHP},
		ArmorClass:     record.ArmorClass,
		Speeds:         copyFormSpeeds(record.Speeds),
		MovementBudget: record.Speeds[types.MovementWalk],
		Position:       types.Position{X: a.X, Y: a.Y},
		Strength:       record.Strength,
		Dexterity:      record.Dexterity,
		Constitution:   record.Constitution,
		Actions:        append([]string(nil), record.Actions...),
		BonusActions:   append([]string(nil), record.BonusActions...),
		Reactions:      append([]string(nil), record.Reactions...),
		Spellcaster:    record.Spellcaster,
		AllowedForms:   append([]string(nil), record.AllowedForms...),
	}
	if len(record.Resources) > 0 {
		c.Resources = make(map[string]*types.ResourcePool, len(record.Resources))
		for id, max := range record.Resources {
			c.Resources[id] = &types.ResourcePool{Current: max, Max: max}
		}
	}

	if err := sm.store.Add(c); err != nil {
		return nil, invariantError("failed to add spawned combatant: %v", err)
	}
	if err := sm.turns.Append(c.ID); err != nil {
		sm.store.Remove(c.ID)
		return nil, preconditionError(CodeBadRequest, "%v", err)
	}

	return []messages.Patch{
		{Kind: messages.PatchCombatantSpawn, CombatantID: c.ID, Payload: sm.combatantView(c)},
		sm.orderPatch(),
		sm.turnPatch(),
	}, nil
}

func (sm *SessionManager) applyDamage(clientID string, a *messages.ClientApplyDamage) ([]messages.Patch, *Error) {
	if err := authorize(sm.claims, sm.turns, clientID, a.TargetID, false); err != nil {
		return nil, err
	}
	target, ok := sm.store.Get(a.TargetID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.TargetID)
	}
	if a.Amount < 0 {
		return nil, preconditionError(CodeBadRequest, "amount must not be negative")
	}

	if a.Temporary {
		target.SetTemporaryHP(a.Amount)
	} else {
		target.TakeDamage(a.Amount)
	}
	return []messages.Patch{hpPatch(target)}, nil
}

func (sm *SessionManager) applyHeal(clientID string, a *messages.ClientHeal) ([]messages.Patch, *Error) {
	if err := authorize(sm.claims, sm.turns, clientID, a.TargetID, false); err != nil {
		return nil, err
	}
	target, ok := sm.store.Get(a.TargetID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.TargetID)
	}
	if a.Amount < 0 {
		return nil, preconditionError(CodeBadRequest, "amount must not be negative")
	}

	target.Heal(a.Amount)
	return []messages.Patch{hpPatch(target)}, nil
}

func (sm *SessionManager) applyMountRequest(clientID string, a *messages.ClientMountRequest) ([]messages.Patch, *Error) {
	if err := authorize(sm.claims, sm.turns, clientID, a.RiderID, false); err != nil {
		return nil, err
	}
	rider, ok := sm.store.Get(a.RiderID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.RiderID)
	}
	target, ok := sm.store.Get(a.TargetID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "target %d does not exist", a.TargetID)
	}
	if rider.ID == target.ID {
		return nil, preconditionError(CodeBadRequest, "combatant %d cannot mount itself", rider.ID)
	}
	if rider.Mount != nil {
		return nil, preconditionError(CodeAlreadyMounted, "combatant %d is already part of a mount link", rider.ID)
	}
	if target.Mount != nil {
		return nil, preconditionError(CodeAlreadyMounted, "target %d is already part of a mount link", target.ID)
	}
	if _, ok := sm.transactions.ForCombatant(rider.ID); ok {
		return nil, preconditionError(CodeMountPending, "combatant %d already has a transaction pending", rider.ID)
	}
	if _, ok := sm.transactions.ForCombatant(target.ID); ok {
		return nil, preconditionError(CodeMountPending, "target %d already has a transaction pending", target.ID)
	}

	_, peerControlled := sm.claims.OwnerOf(target.ID)
	tx := sm.transactions.CreateMountRequest(rider.ID, target.ID, peerControlled, sm.version, sm.now())
	sm.turns.SetLocked(true)

	return []messages.Patch{transactionPatch(tx)}, nil
}

func (sm *SessionManager) applyMountRespond(clientID string, a *messages.ClientMountRespond) ([]messages.Patch, *Error) {
	tx, ok := sm.transactions.Get(a.TransactionID)
	if !ok {
		return nil, preconditionError(CodeUnknownTransaction, "transaction %s does not exist", a.TransactionID)
	}
	if err := authorizeTransaction(sm.claims, tx, clientID); err != nil {
		return nil, err
	}
	rider, ok := sm.store.Get(tx.InitiatorID)
	if !ok {
		return nil, invariantError("transaction %s references missing rider %d", tx.ID, tx.InitiatorID)
	}
	mount, ok := sm.store.Get(tx.TargetID)
	if !ok {
		return nil, invariantError("transaction %s references missing mount %d", tx.ID, tx.TargetID)
	}

	state, gerr := sm.transactions.Resolve(tx, a.Decision, sm.now())
	if gerr != nil {
		return nil, gerr
	}

	patches := []messages.Patch{transactionPatch(tx)}
	switch state {
	case types.TransactionMounted:
		rider.Mount = &types.MountLink{Role: types.MountRoleRider, PartnerID: mount.ID}
		mount.Mount = &types.MountLink{Role: types.MountRoleMount, PartnerID: rider.ID}
		rider.MovementBudget -= types.MountCost
		if rider.MovementBudget < 0 {
			rider.MovementBudget = 0
		}
		patches = append(patches,
			mountPatch(rider),
			mountPatch(mount),
			messages.Patch{Kind: messages.PatchCombatantMovement, CombatantID: rider.ID, Payload: messages.MovementPayload{Budget: rider.MovementBudget}},
			messages.Patch{Kind: messages.PatchCombatantPosition, CombatantID: rider.ID, Payload: messages.PositionPayload{Position: mount.Position}},
		)
		sm.transactions.Remove(tx.ID)
	case types.TransactionDenied:
		sm.transactions.Remove(tx.ID)
	}
	sm.turns.SetLocked(sm.transactions.Len() > 0)

	return patches, nil
}

func (sm *SessionManager) applyUnmount(clientID string, a *messages.ClientUnmount) ([]messages.Patch, *Error) {
	if err := authorize(sm.claims, sm.turns, clientID, a.RiderID, false); err != nil {
		return nil, err
	}
	rider, ok := sm.store.Get(a.RiderID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.RiderID)
	}
	if !rider.IsMountedRider() {
		return nil, preconditionError(CodeNotMounted, "combatant %d is not riding", rider.ID)
	}
	mount, ok := sm.store.Get(rider.Mount.PartnerID)
	if !ok {
		return nil, invariantError("rider %d links to missing mount %d", rider.ID, rider.Mount.PartnerID)
	}

	// The derived position becomes the rider's own again.
	rider.Position = mount.Position
	rider.Mount = nil
	mount.Mount = nil

	return []messages.Patch{
		mountPatch(rider),
		mountPatch(mount),
		{Kind: messages.PatchCombatantPosition, CombatantID: rider.ID, Payload: messages.PositionPayload{Position: rider.Position}},
	}, nil
}

func (sm *SessionManager) applyTransformApply(clientID string, a *messages.ClientTransformApply) ([]messages.Patch, *Error) {
	if err := authorize(sm.claims, sm.turns, clientID, a.ActorID, false); err != nil {
		return nil, err
	}
	c, ok := sm.store.Get(a.ActorID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.ActorID)
	}
	form, err := sm.catalog.Form(a.FormID)
	if err != nil {
		return nil, preconditionError(CodeUnknownRecord, "%v", err)
	}

	if gerr := applyTransformation(c, form); gerr != nil {
		return nil, gerr
	}

	return []messages.Patch{
		{Kind: messages.PatchCombatantTransform, CombatantID: c.ID, Payload: messages.TransformPayload{FormID: form.ID, Stats: shadowedFields(c)}},
		hpPatch(c),
		{Kind: messages.PatchCombatantResource, CombatantID: c.ID, Payload: messages.ResourcePayload{
			PoolID: types.ResourceShapechange,
			Pool:   *c.Resources[types.ResourceShapechange],
		}},
	}, nil
}

func (sm *SessionManager) applyTransformRevert(clientID string, a *messages.ClientTransformRevert) ([]messages.Patch, *Error) {
	if err := authorize(sm.claims, sm.turns, clientID, a.ActorID, false); err != nil {
		return nil, err
	}
	c, ok := sm.store.Get(a.ActorID)
	if !ok {
		return nil, preconditionError(CodeUnknownCombatant, "combatant %d does not exist", a.ActorID)
	}

	if gerr := revertTransformation(c); gerr != nil {
		return nil, gerr
	}

	return []messages.Patch{
		{Kind: messages.PatchCombatantTransform, CombatantID: c.ID, Payload: messages.TransformPayload{Stats: shadowedFields(c)}},
		hpPatch(c),
	}, nil
}

func (sm *SessionManager) applyChat(clientID string, a *messages.ClientChat) ([]messages.Patch, *Error) {
	claim, ok := sm.claims.Get(clientID)
	if !ok {
		return nil, authorizationError(CodeUnclaimed, "no claim held; claim a combatant first")
	}

	name := "DM"
	if !claim.IsAdmin {
		c, ok := sm.store.Get(claim.CombatantID)
		if !ok {
			return nil, preconditionError(CodeUnknownCombatant, "claimed combatant %d no longer exists", claim.CombatantID)
		}
		name = c.Name
	}

	sm.hub.SendChat(messages.ServerChat{
		CombatantID: claim.CombatantID,
		Name:        name,
		Text:        a.Text,
	})
	return nil, nil
}

// applySweep force-denies pending transactions idle past the window. It is
// only ever injected by the sweep worker with an empty client id.
func (sm *SessionManager) applySweep(clientID string) ([]messages.Patch, *Error) {
	if clientID != "" {
		return nil, authorizationError(CodeWrongParty, "sweep is not a client action")
	}

	expired := sm.transactions.Sweep(sm.now(), sm.pendingWindow)
	if len(expired) == 0 {
		return nil, nil
	}

	patches := make([]messages.Patch, 0, len(expired))
	for _, tx := range expired {
		patches = append(patches, transactionPatch(tx))
		sm.transactions.Remove(tx.ID)
	}
	sm.turns.SetLocked(sm.transactions.Len() > 0)
	return patches, nil
}

func (sm *SessionManager) advancePatches() ([]messages.Patch, *Error) {
	report, err := sm.turns.Advance(sm.store)
	if err != nil {
		return nil, preconditionError(CodeBadRequest, "%v", err)
	}
	return sm.turnReportPatches(report), nil
}

// turnReportPatches converts a turn pointer move into its delta entries: the
// new active slot, the refreshed movement budget, and any condition lists
// that ticked on a round wrap.
func (sm *SessionManager) turnReportPatches(report TurnReport) []messages.Patch {
	patches := []messages.Patch{{
		Kind: messages.PatchSessionTurn,
		Payload: messages.TurnPayload{
			Round:       report.Round,
			ActiveIndex: report.ActiveIndex,
			ActiveID:    report.ActiveID,
		},
	}}
	if active, ok := sm.store.Get(report.ActiveID); ok {
		patches = append(patches, messages.Patch{
			Kind:        messages.PatchCombatantMovement,
			CombatantID: active.ID,
			Payload:     messages.MovementPayload{Budget: active.MovementBudget},
		})
	}
	for _, id := range report.ConditionsChanged {
		if c, ok := sm.store.Get(id); ok {
			patches = append(patches, messages.Patch{
				Kind:        messages.PatchCombatantConditions,
				CombatantID: id,
				Payload:     messages.ConditionsPayload{Conditions: c.Conditions},
			})
		}
	}
	return patches
}

func (sm *SessionManager) orderPatch() messages.Patch {
	return messages.Patch{
		Kind:    messages.PatchSessionOrder,
		Payload: messages.OrderPayload{TurnOrder: sm.turns.Order()},
	}
}

func (sm *SessionManager) turnPatch() messages.Patch {
	activeID, _ := sm.turns.Active()
	return messages.Patch{
		Kind: messages.PatchSessionTurn,
		Payload: messages.TurnPayload{
			Round:       sm.turns.Round(),
			ActiveIndex: sm.turns.ActiveIndex(),
			ActiveID:    activeID,
		},
	}
}

func (sm *SessionManager) formulaVars(c *types.Combatant) map[string]float64 {
	return map[string]float64{
		"strength":     float64(c.Strength),
		"dexterity":    float64(c.Dexterity),
		"constitution": float64(c.Constitution),
		"round":        float64(sm.turns.Round()),
	}
}

func hpPatch(c *types.Combatant) messages.Patch {
	return messages.Patch{
		Kind:        messages.PatchCombatantHP,
		CombatantID: c.ID,
		Payload:     messages.HPPayload{HP: c.HP},
	}
}

func mountPatch(c *types.Combatant) messages.Patch {
	return messages.Patch{
		Kind:        messages.PatchCombatantMount,
		CombatantID: c.ID,
		Payload:     messages.MountPayload{Link: c.Mount},
	}
}

func claimPatch(clientID string, claim types.Claim, released bool) messages.Patch {
	return messages.Patch{
		Kind: messages.PatchSessionClaim,
		Payload: messages.ClaimPayload{
			ClientID:    clientID,
			CombatantID: claim.CombatantID,
			IsAdmin:     claim.IsAdmin,
			Released:    released,
		},
	}
}

func transactionPatch(tx *types.PendingTransaction) messages.Patch {
	return messages.Patch{
		Kind:    messages.PatchTransaction,
		Payload: transactionView(tx),
	}
}

// gridDistance is the Chebyshev distance between two grid positions:
// diagonal steps cost the same as orthogonal ones.
func gridDistance(a, b types.Position) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
