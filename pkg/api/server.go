package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hollowmere/encounterd/pkg/game/types"
	"github.com/hollowmere/encounterd/pkg/hub"
	"github.com/hollowmere/encounterd/pkg/log"
	"github.com/hollowmere/encounterd/pkg/messages"
	"github.com/hollowmere/encounterd/pkg/version"
)

// SnapshotSource exposes the pipeline's most recent committed snapshot.
type SnapshotSource interface {
	Latest() (messages.SnapshotBlob, bool)
}

// APIServer serves the read-only operator surface: health, status and the
// unredacted session state. It is meant for the host machine, not players.
type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// NewAPIServerOptions contains options for creating a new APIServer.
type NewAPIServerOptions struct {
	Port   int
	TLS    *TLSConfig
	Source SnapshotSource
	Hub    *hub.Hub
}

// NewAPIServer creates a new http.Server for handling API requests.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/status", handleStatus(opts.Source, opts.Hub)).Methods(http.MethodGet)
	router.HandleFunc("/session", handleSession(opts.Source)).Methods(http.MethodGet)
	router.HandleFunc("/session/combatants/{combatantID}", handleCombatant(opts.Source)).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer.
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer.
func (s *APIServer) Stop() error {
	return s.server.Close()
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func handleStatus(source SnapshotSource, h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		status := map[string]interface{}{
			"version": version.Get(),
			"clients": h.ClientCount(),
		}
		if blob, ok := source.Latest(); ok {
			status["sessionVersion"] = blob.Version
		}
		writeJSON(w, status)
	}
}

func handleSession(source SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snapshot, ok := latestSnapshot(source, w)
		if !ok {
			return
		}
		writeJSON(w, snapshot)
	}
}

func handleCombatant(source SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["combatantID"], 10, 64)
		if err != nil {
			http.Error(w, "invalid combatant id", http.StatusBadRequest)
			return
		}
		snapshot, ok := latestSnapshot(source, w)
		if !ok {
			return
		}
		for i := range snapshot.Session.Combatants {
			if snapshot.Session.Combatants[i].ID == types.CombatantID(id) {
				writeJSON(w, snapshot.Session.Combatants[i])
				return
			}
		}
		http.Error(w, "combatant not found", http.StatusNotFound)
	}
}

func latestSnapshot(source SnapshotSource, w http.ResponseWriter) (*messages.ServerSnapshot, bool) {
	blob, ok := source.Latest()
	if !ok {
		http.Error(w, "no snapshot available", http.StatusServiceUnavailable)
		return nil, false
	}
	snapshot, err := messages.DecodeSnapshot(blob.Data)
	if err != nil {
		log.Error("Failed to decode snapshot for API: %v", err)
		http.Error(w, "failed to decode snapshot", http.StatusInternalServerError)
		return nil, false
	}
	return snapshot, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write API response: %v", err)
	}
}
