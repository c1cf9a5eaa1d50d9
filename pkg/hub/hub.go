package hub

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/hollowmere/encounterd/pkg/log"
	"github.com/hollowmere/encounterd/pkg/messages"
)

// DefaultSendBufferSize is the per-subscriber outbound queue depth.
const DefaultSendBufferSize = 64

// Sender writes encoded messages to one client connection.
type Sender interface {
	WriteMessage(data []byte) error
	Close() error
}

// AccessView answers ownership queries for per-client redaction. The claim
// registry implements it.
type AccessView interface {
	Owns(clientID string, combatantID types.CombatantID) bool
}

type subscriber struct {
	clientID string
	sender   Sender
	send     chan []byte
	done     chan struct{}
	once     sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() {
		close(s.done)
		if err := s.sender.Close(); err != nil {
			log.Trace("failed to close sender for client %s: %v", s.clientID, err)
		}
	})
}

func (s *subscriber) writePump() {
	for {
		select {
		case data := <-s.send:
			if err := s.sender.WriteMessage(data); err != nil {
				log.Warn("failed to write to client %s: %v", s.clientID, err)
				return
			}
		case <-s.done:
			return
		}
	}
}

// Hub fans committed deltas out to every subscribed client, applying
// per-client redaction on the way. Sends are non-blocking: a subscriber
// whose queue is full is reported back so the pipeline can resync it with a
// snapshot instead of delivering a gapped delta stream.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	bufferSize  int
}

// NewHubOptions are the options for creating a new Hub.
type NewHubOptions struct {
	// SendBufferSize overrides the per-subscriber queue depth.
	SendBufferSize int
}

// NewHub creates an empty hub.
func NewHub(opts NewHubOptions) *Hub {
	bufferSize := opts.SendBufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultSendBufferSize
	}
	return &Hub{
		subscribers: make(map[string]*subscriber),
		bufferSize:  bufferSize,
	}
}

// Register adds a client connection, replacing any previous subscription
// under the same id.
func (h *Hub) Register(clientID string, sender Sender) {
	sub := &subscriber{
		clientID: clientID,
		sender:   sender,
		send:     make(chan []byte, h.bufferSize),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	previous := h.subscribers[clientID]
	h.subscribers[clientID] = sub
	h.mu.Unlock()

	if previous != nil {
		previous.stop()
	}
	go sub.writePump()
}

// Unregister removes a client and closes its connection.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	sub := h.subscribers[clientID]
	delete(h.subscribers, clientID)
	h.mu.Unlock()

	if sub != nil {
		sub.stop()
	}
}

// ClientCount returns the number of subscribed clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Publish sends a delta to every subscriber, redacted per client. It returns
// the ids of subscribers whose queues overflowed; those clients missed the
// delta and must be resynced with a full snapshot.
func (h *Hub) Publish(delta messages.ServerDelta, access AccessView) []string {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()
	sort.Slice(subs, func(i, j int) bool { return subs[i].clientID < subs[j].clientID })

	var overflowed []string
	for _, sub := range subs {
		redacted := delta.Redacted(func(id types.CombatantID) bool {
			return access.Owns(sub.clientID, id)
		})
		data, err := encodeMessage(messages.MessageTypeServerDelta, redacted)
		if err != nil {
			log.Error("failed to encode delta for client %s: %v", sub.clientID, err)
			continue
		}
		select {
		case sub.send <- data:
		default:
			overflowed = append(overflowed, sub.clientID)
		}
	}
	return overflowed
}

// SendSnapshot delivers a compressed full snapshot to one client, redacted
// for it. Any queued deltas are discarded first since the snapshot
// supersedes them.
func (h *Hub) SendSnapshot(clientID string, snapshot *messages.ServerSnapshot, access AccessView) error {
	sub := h.subscriber(clientID)
	if sub == nil {
		return fmt.Errorf("client %s is not subscribed", clientID)
	}

	redacted := snapshot.Redacted(func(id types.CombatantID) bool {
		return access.Owns(clientID, id)
	})
	compressed, err := messages.EncodeSnapshot(&redacted)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %v", err)
	}
	data, err := encodeMessage(messages.MessageTypeServerSnapshot, messages.SnapshotBlob{
		Version: snapshot.Version,
		Data:    compressed,
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot message: %v", err)
	}

	for {
		select {
		case <-sub.send:
		default:
			select {
			case sub.send <- data:
				return nil
			default:
				return fmt.Errorf("failed to queue snapshot for client %s", clientID)
			}
		}
	}
}

// SendError reports a rejected action to the originating client.
func (h *Hub) SendError(clientID string, serverError messages.ServerError) {
	if err := h.Send(clientID, messages.MessageTypeServerError, serverError); err != nil {
		log.Trace("failed to send error to client %s: %v", clientID, err)
	}
}

// SendChat relays a chat line to every subscriber.
func (h *Hub) SendChat(chat messages.ServerChat) {
	data, err := encodeMessage(messages.MessageTypeServerChat, chat)
	if err != nil {
		log.Error("failed to encode chat message: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers {
		select {
		case sub.send <- data:
		default:
			log.Trace("dropped chat for client %s: queue full", sub.clientID)
		}
	}
}

// Send queues one typed message for a single client.
func (h *Hub) Send(clientID string, msgType messages.MessageType, payload interface{}) error {
	sub := h.subscriber(clientID)
	if sub == nil {
		return fmt.Errorf("client %s is not subscribed", clientID)
	}
	data, err := encodeMessage(msgType, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %v", msgType, err)
	}
	select {
	case sub.send <- data:
		return nil
	default:
		return fmt.Errorf("failed to queue %s for client %s", msgType, clientID)
	}
}

func (h *Hub) subscriber(clientID string) *subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subscribers[clientID]
}

func encodeMessage(msgType messages.MessageType, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %v", err)
	}
	return json.Marshal(&messages.Message{
		Type:    msgType,
		Payload: raw,
	})
}
