package game

import (
	"testing"
	"time"

	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/hollowmere/encounterd/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionManager_CreateMountRequest(t *testing.T) {
	m := NewTransactionManager()
	now := time.Now()

	peer := m.CreateMountRequest(1, 2, true, 7, now)
	assert.Equal(t, types.TransactionRequested, peer.State)
	assert.Equal(t, uint64(7), peer.CreatedAtVersion)

	npc := m.CreateMountRequest(3, 4, false, 8, now)
	assert.Equal(t, types.TransactionAdminDecision, npc.State)

	assert.Equal(t, 2, m.Len())
	found, ok := m.ForCombatant(2)
	require.True(t, ok)
	assert.Equal(t, peer.ID, found.ID)
}

func TestTransactionManager_Resolve(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		state    types.TransactionState
		decision string
		want     types.TransactionState
		wantCode string
	}{
		{name: "consent approve mounts", state: types.TransactionRequested, decision: messages.MountDecisionApprove, want: types.TransactionMounted},
		{name: "consent deny ends it", state: types.TransactionRequested, decision: messages.MountDecisionDeny, want: types.TransactionDenied},
		{name: "admin approve mounts", state: types.TransactionAdminDecision, decision: messages.MountDecisionApprove, want: types.TransactionMounted},
		{name: "admin deny contests a save", state: types.TransactionAdminDecision, decision: messages.MountDecisionDeny, want: types.TransactionDeniedPendingSave},
		{name: "passed save mounts anyway", state: types.TransactionDeniedPendingSave, decision: messages.MountDecisionSavePass, want: types.TransactionMounted},
		{name: "failed save ends it", state: types.TransactionDeniedPendingSave, decision: messages.MountDecisionSaveFail, want: types.TransactionDenied},
		{name: "save decision is invalid while awaiting consent", state: types.TransactionRequested, decision: messages.MountDecisionSavePass, wantCode: CodeBadDecision},
		{name: "approve is invalid mid-save", state: types.TransactionDeniedPendingSave, decision: messages.MountDecisionApprove, wantCode: CodeBadDecision},
		{name: "terminal states accept nothing", state: types.TransactionMounted, decision: messages.MountDecisionApprove, wantCode: CodeBadDecision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewTransactionManager()
			tx := m.CreateMountRequest(1, 2, true, 1, now)
			tx.State = tt.state

			state, err := m.Resolve(tx, tt.decision, now)
			if tt.wantCode != "" {
				require.NotNil(t, err)
				assert.Equal(t, tt.wantCode, err.Code)
				assert.Equal(t, tt.state, tx.State, "a bad decision leaves the state alone")
				return
			}
			require.Nil(t, err)
			assert.Equal(t, tt.want, state)
			assert.Equal(t, tt.want, tx.State)
		})
	}
}

func TestTransactionManager_Sweep(t *testing.T) {
	m := NewTransactionManager()
	start := time.Now()

	stale := m.CreateMountRequest(1, 2, true, 1, start)
	fresh := m.CreateMountRequest(3, 4, false, 2, start.Add(90*time.Second))

	expired := m.Sweep(start.Add(2*time.Minute), 2*time.Minute)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
	assert.Equal(t, types.TransactionDenied, expired[0].State)

	_, ok := m.Get(fresh.ID)
	assert.True(t, ok)
	assert.Equal(t, types.TransactionAdminDecision, fresh.State)
}
