package servers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hollowmere/encounterd/pkg/game"
	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/hollowmere/encounterd/pkg/hub"
	"github.com/hollowmere/encounterd/pkg/log"
	"github.com/hollowmere/encounterd/pkg/messages"
	"github.com/hollowmere/encounterd/pkg/queue"
)

// WSServer accepts client WebSocket connections, assigns each a session id
// and feeds parsed actions into the pipeline's queues.
type WSServer struct {
	port                 int
	tls                  *TLSConfig
	hub                  *hub.Hub
	actionQueue          queue.Queue
	connectionEventQueue queue.Queue
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// NewWSServerOptions contains options for creating a new WSServer.
type NewWSServerOptions struct {
	Port                 int
	TLS                  *TLSConfig
	Hub                  *hub.Hub
	ActionQueue          queue.Queue
	ConnectionEventQueue queue.Queue
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		port:                 opts.Port,
		tls:                  opts.TLS,
		hub:                  opts.Hub,
		actionQueue:          opts.ActionQueue,
		connectionEventQueue: opts.ConnectionEventQueue,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Start starts the WebSocket server and blocks until the context is done.
func (s *WSServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("Failed to upgrade to WebSocket: %v", err)
			return
		}
		log.Debug("New WebSocket connection from %s", conn.RemoteAddr().String())
		go s.handleConnection(conn)
	})

	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	var listenAndServe func() error
	if s.tls != nil {
		log.Info("WebSocket server listening on %s with TLS", addr)
		listenAndServe = func() error {
			return server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("WebSocket server listening on %s", addr)
		listenAndServe = server.ListenAndServe
	}
	if err := listenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %v", err)
	}
	return nil
}

// handleConnection owns one client connection for its lifetime.
func (s *WSServer) handleConnection(conn *websocket.Conn) {
	clientID := uuid.NewString()
	s.hub.Register(clientID, &wsSender{conn: conn})

	defer func() {
		if err := s.connectionEventQueue.Enqueue(&types.DisconnectClientEvent{ClientID: clientID}); err != nil {
			log.Error("Failed to enqueue disconnect event for client %s: %v", clientID, err)
		}
	}()

	if err := s.hub.Send(clientID, messages.MessageTypeServerAssignID, messages.ServerAssignID{ClientID: clientID}); err != nil {
		log.Error("Failed to send id to client %s: %v", clientID, err)
		return
	}
	if err := s.connectionEventQueue.Enqueue(&types.ConnectClientEvent{ClientID: clientID}); err != nil {
		log.Error("Failed to enqueue connect event for client %s: %v", clientID, err)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading from client %s: %v", clientID, err)
			}
			log.Trace("Connection closed for client %s", clientID)
			return
		}
		s.handleClientMessage(clientID, data)
	}
}

// handleClientMessage parses an inbound frame and enqueues the action.
// Malformed or forged messages die here, before they ever reach the pipeline.
func (s *WSServer) handleClientMessage(clientID string, data []byte) {
	message := &messages.Message{}
	if err := json.Unmarshal(data, message); err != nil {
		log.Debug("Failed to unmarshal message from client %s: %v", clientID, err)
		s.hub.SendError(clientID, messages.ServerError{Code: game.CodeBadRequest, Message: "malformed message"})
		return
	}

	// The sender's identity comes from the connection, never the payload.
	message.ClientID = clientID

	if message.Type == messages.MessageTypeInternalSweep {
		s.hub.SendError(clientID, messages.ServerError{Code: game.CodeBadRequest, Message: "reserved message type"})
		return
	}
	if _, err := messages.DecodeAction(message); err != nil {
		log.Debug("Failed to decode action from client %s: %v", clientID, err)
		s.hub.SendError(clientID, messages.ServerError{Code: game.CodeBadRequest, Message: err.Error()})
		return
	}

	if err := s.actionQueue.Enqueue(message); err != nil {
		log.Warn("Failed to enqueue action from client %s: %v", clientID, err)
		s.hub.SendError(clientID, messages.ServerError{Code: game.CodeBadRequest, Message: "server busy, try again"})
	}
}

// wsSender adapts a WebSocket connection to the hub's Sender. The hub's
// write pump is the only writer, so a single mutex is enough to guard
// against a concurrent close.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsSender) WriteMessage(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsSender) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Close()
}
