package hub

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/hollowmere/encounterd/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeSender) WriteMessage(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeSender) Close() error { return nil }

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeSender) frame(i int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames[i]
}

// blockingSender parks the write pump until released.
type blockingSender struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSender) WriteMessage(_ []byte) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func (b *blockingSender) Close() error { return nil }

type ownerMap map[string]types.CombatantID

func (m ownerMap) Owns(clientID string, combatantID types.CombatantID) bool {
	return m[clientID] == combatantID
}

func decodeDelta(t *testing.T, frame []byte) messages.ServerDelta {
	t.Helper()
	msg := &messages.Message{}
	require.NoError(t, json.Unmarshal(frame, msg))
	require.Equal(t, messages.MessageTypeServerDelta, msg.Type)
	delta := messages.ServerDelta{}
	require.NoError(t, json.Unmarshal(msg.Payload, &delta))
	return delta
}

func TestHub_PublishRedactsPerClient(t *testing.T) {
	h := NewHub(NewHubOptions{})
	alice := &fakeSender{}
	bob := &fakeSender{}
	h.Register("alice", alice)
	h.Register("bob", bob)

	delta := messages.ServerDelta{
		Version: 3,
		Patches: []messages.Patch{
			{Kind: messages.PatchCombatantHP, CombatantID: 1, Payload: messages.HPPayload{HP: types.HealthPool{Current: 5, Max: 10}}},
			{Kind: messages.PatchCombatantArmorClass, CombatantID: 1, Payload: messages.ArmorClassPayload{ArmorClass: 17}},
		},
	}
	overflowed := h.Publish(delta, ownerMap{"alice": 1})
	assert.Empty(t, overflowed)

	require.Eventually(t, func() bool {
		return alice.count() == 1 && bob.count() == 1
	}, time.Second, 5*time.Millisecond)

	forAlice := decodeDelta(t, alice.frame(0))
	assert.Equal(t, uint64(3), forAlice.Version)
	assert.Len(t, forAlice.Patches, 2, "the owner sees armor class")

	forBob := decodeDelta(t, bob.frame(0))
	assert.Equal(t, uint64(3), forBob.Version)
	require.Len(t, forBob.Patches, 1, "armor class is stripped for non-owners")
	assert.Equal(t, messages.PatchCombatantHP, forBob.Patches[0].Kind)
}

func TestHub_PublishReportsOverflow(t *testing.T) {
	h := NewHub(NewHubOptions{SendBufferSize: 1})
	blocked := &blockingSender{started: make(chan struct{}), release: make(chan struct{})}
	defer close(blocked.release)
	h.Register("slow", blocked)

	delta := messages.ServerDelta{Version: 1}

	// First delta is picked up by the write pump and parks there.
	assert.Empty(t, h.Publish(delta, ownerMap{}))
	<-blocked.started

	// Second delta fills the one-slot buffer, third one overflows.
	assert.Empty(t, h.Publish(delta, ownerMap{}))
	assert.Equal(t, []string{"slow"}, h.Publish(delta, ownerMap{}))
}

func TestHub_SendSnapshot(t *testing.T) {
	h := NewHub(NewHubOptions{})
	alice := &fakeSender{}
	h.Register("alice", alice)

	armorClass := 16
	snapshot := &messages.ServerSnapshot{
		Version: 9,
		Session: messages.SessionView{
			Round:     2,
			TurnOrder: []types.CombatantID{1, 2},
			Combatants: []messages.CombatantView{
				{ID: 1, Name: "Hero", ArmorClass: &armorClass},
				{ID: 2, Name: "Rival", ArmorClass: &armorClass},
			},
		},
	}
	require.NoError(t, h.SendSnapshot("alice", snapshot, ownerMap{"alice": 1}))

	require.Eventually(t, func() bool { return alice.count() == 1 }, time.Second, 5*time.Millisecond)

	msg := &messages.Message{}
	require.NoError(t, json.Unmarshal(alice.frame(0), msg))
	require.Equal(t, messages.MessageTypeServerSnapshot, msg.Type)

	blob := messages.SnapshotBlob{}
	require.NoError(t, json.Unmarshal(msg.Payload, &blob))
	assert.Equal(t, uint64(9), blob.Version)

	decoded, err := messages.DecodeSnapshot(blob.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), decoded.Version)
	require.Len(t, decoded.Session.Combatants, 2)
	assert.NotNil(t, decoded.Session.Combatants[0].ArmorClass, "owned combatant keeps armor class")
	assert.Nil(t, decoded.Session.Combatants[1].ArmorClass, "unowned combatant is redacted")

	assert.Error(t, h.SendSnapshot("nobody", snapshot, ownerMap{}))
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	h := NewHub(NewHubOptions{})
	alice := &fakeSender{}
	h.Register("alice", alice)
	h.Unregister("alice")

	assert.Equal(t, 0, h.ClientCount())
	assert.Error(t, h.Send("alice", messages.MessageTypeServerError, messages.ServerError{Code: "x"}))
}
