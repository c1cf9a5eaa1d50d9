package messages

import (
	"encoding/json"
	"fmt"

	"github.com/hollowmere/encounterd/pkg/game/types"
)

// MessageType identifies a wire message.
type MessageType string

// Client message types (inbound actions).
const (
	MessageTypeClientClaim           MessageType = "claim"
	MessageTypeClientUnclaim         MessageType = "unclaim"
	MessageTypeClientMove            MessageType = "move"
	MessageTypeClientAttack          MessageType = "attack"
	MessageTypeClientCast            MessageType = "cast"
	MessageTypeClientEndTurn         MessageType = "end_turn"
	MessageTypeClientAdvanceTurn     MessageType = "advance_turn"
	MessageTypeClientRewindTurn      MessageType = "rewind_turn"
	MessageTypeClientInsertCombatant MessageType = "insert_combatant"
	MessageTypeClientRemoveCombatant MessageType = "remove_combatant"
	MessageTypeClientSpawn           MessageType = "spawn"
	MessageTypeClientApplyDamage     MessageType = "apply_damage"
	MessageTypeClientHeal            MessageType = "heal"
	MessageTypeClientMountRequest    MessageType = "mount_request"
	MessageTypeClientMountRespond    MessageType = "mount_respond"
	MessageTypeClientUnmount         MessageType = "unmount"
	MessageTypeClientTransformApply  MessageType = "transform_apply"
	MessageTypeClientTransformRevert MessageType = "transform_revert"
	MessageTypeClientResync          MessageType = "resync"
	MessageTypeClientChat            MessageType = "chat"
)

// Server message types (outbound).
const (
	MessageTypeServerAssignID MessageType = "assign_id"
	MessageTypeServerDelta    MessageType = "delta"
	MessageTypeServerSnapshot MessageType = "snapshot"
	MessageTypeServerError    MessageType = "error"
	MessageTypeServerChat     MessageType = "chat_relay"
)

// MessageTypeInternalSweep is injected by the sweep worker, never accepted
// from clients.
const MessageTypeInternalSweep MessageType = "sweep"

// Message represents a generic message for serialization/deserialization.
type Message struct {
	ClientID string          `json:"clientID"`
	Type     MessageType     `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Mount respond decisions.
const (
	MountDecisionApprove  = "approve"
	MountDecisionDeny     = "deny"
	MountDecisionSavePass = "save_pass"
	MountDecisionSaveFail = "save_fail"
)

// ClientClaim binds the sending client to a combatant. An empty combatant id
// with a valid admin key produces an admin claim.
type ClientClaim struct {
	CombatantID types.CombatantID `json:"combatantID"`
	AdminKey    string            `json:"adminKey,omitempty"`
}

type ClientUnclaim struct{}

// ClientMove moves a combatant to a destination using one movement mode.
type ClientMove struct {
	CombatantID types.CombatantID  `json:"combatantID"`
	X           int                `json:"x"`
	Y           int                `json:"y"`
	Mode        types.MovementMode `json:"mode,omitempty"`
}

// ClientAttack resolves a damage formula against a target.
type ClientAttack struct {
	CombatantID types.CombatantID `json:"combatantID"`
	TargetID    types.CombatantID `json:"targetID"`
	Formula     string            `json:"formula"`
}

// ClientCast casts a catalog spell, optionally at a target.
type ClientCast struct {
	CombatantID types.CombatantID `json:"combatantID"`
	TargetID    types.CombatantID `json:"targetID,omitempty"`
	SpellID     string            `json:"spellID"`
}

type ClientEndTurn struct {
	CombatantID types.CombatantID `json:"combatantID"`
}

type ClientAdvanceTurn struct{}

type ClientRewindTurn struct{}

// ClientInsertCombatant inserts an existing combatant into the turn order.
type ClientInsertCombatant struct {
	CombatantID types.CombatantID `json:"combatantID"`
	Position    int               `json:"position"`
}

// ClientRemoveCombatant removes a combatant from the session entirely.
type ClientRemoveCombatant struct {
	CombatantID types.CombatantID `json:"combatantID"`
}

// ClientSpawn creates a combatant from a catalog creature record.
type ClientSpawn struct {
	CreatureID string     `json:"creatureID"`
	Side       types.Side `json:"side"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
}

// ClientApplyDamage deals damage, or grants temporary HP when Temporary is
// set (a grant always replaces the previous temporary value).
type ClientApplyDamage struct {
	TargetID  types.CombatantID `json:"targetID"`
	Amount    int               `json:"amount"`
	Kind      string            `json:"kind,omitempty"`
	Temporary bool              `json:"temporary,omitempty"`
}

type ClientHeal struct {
	TargetID types.CombatantID `json:"targetID"`
	Amount   int               `json:"amount"`
}

type ClientMountRequest struct {
	RiderID  types.CombatantID `json:"riderID"`
	TargetID types.CombatantID `json:"targetID"`
}

type ClientMountRespond struct {
	TransactionID string `json:"transactionID"`
	Decision      string `json:"decision"`
}

type ClientUnmount struct {
	RiderID types.CombatantID `json:"riderID"`
}

type ClientTransformApply struct {
	ActorID types.CombatantID `json:"actorID"`
	FormID  string            `json:"formID"`
}

type ClientTransformRevert struct {
	ActorID types.CombatantID `json:"actorID"`
}

// ClientResync asks for a full snapshot, e.g. after a detected version gap.
type ClientResync struct {
	Version uint64 `json:"version"`
}

type ClientChat struct {
	Text string `json:"text"`
}

// InternalSweep force-resolves pending transactions past the inactivity
// window. It is only ever enqueued by the server itself.
type InternalSweep struct{}

// ServerAssignID tells a freshly connected client its session id.
type ServerAssignID struct {
	ClientID string `json:"clientID"`
}

// ServerError reports a rejected action to the originating client only.
type ServerError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServerChat relays a chat line to all clients.
type ServerChat struct {
	CombatantID types.CombatantID `json:"combatantID"`
	Name        string            `json:"name"`
	Text        string            `json:"text"`
}

// DecodeAction parses a message payload into its typed action struct.
// Parsing happens before an action is enqueued, so a malformed message is
// discarded at the transport boundary without any state change.
func DecodeAction(msg *Message) (interface{}, error) {
	var action interface{}
	switch msg.Type {
	case MessageTypeClientClaim:
		action = &ClientClaim{}
	case MessageTypeClientUnclaim:
		action = &ClientUnclaim{}
	case MessageTypeClientMove:
		action = &ClientMove{}
	case MessageTypeClientAttack:
		action = &ClientAttack{}
	case MessageTypeClientCast:
		action = &ClientCast{}
	case MessageTypeClientEndTurn:
		action = &ClientEndTurn{}
	case MessageTypeClientAdvanceTurn:
		action = &ClientAdvanceTurn{}
	case MessageTypeClientRewindTurn:
		action = &ClientRewindTurn{}
	case MessageTypeClientInsertCombatant:
		action = &ClientInsertCombatant{}
	case MessageTypeClientRemoveCombatant:
		action = &ClientRemoveCombatant{}
	case MessageTypeClientSpawn:
		action = &ClientSpawn{}
	case MessageTypeClientApplyDamage:
		action = &ClientApplyDamage{}
	case MessageTypeClientHeal:
		action = &ClientHeal{}
	case MessageTypeClientMountRequest:
		action = &ClientMountRequest{}
	case MessageTypeClientMountRespond:
		action = &ClientMountRespond{}
	case MessageTypeClientUnmount:
		action = &ClientUnmount{}
	case MessageTypeClientTransformApply:
		action = &ClientTransformApply{}
	case MessageTypeClientTransformRevert:
		action = &ClientTransformRevert{}
	case MessageTypeClientResync:
		action = &ClientResync{}
	case MessageTypeClientChat:
		action = &ClientChat{}
	case MessageTypeInternalSweep:
		action = &InternalSweep{}
	default:
		return nil, fmt.Errorf("unknown message type: %s", msg.Type)
	}

	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, action); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %v", msg.Type, err)
		}
	}
	return action, nil
}
