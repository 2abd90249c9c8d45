// Package httpapi exposes the world over HTTP: entry, actions, read-model
// endpoints and a server-sent-events feed of the audit log.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"monworld.ai/internal/economy"
	"monworld.ai/internal/persistence/snapshot"
	"monworld.ai/internal/persistence/store"
	"monworld.ai/internal/protocol"
	"monworld.ai/internal/sim/engine"
	"monworld.ai/internal/sim/world"
	"monworld.ai/internal/transport/events"
)

const maxBodyBytes = 1 << 20

type Server struct {
	store       store.Store
	engine      *engine.Engine
	entry       *economy.EntryService
	wallets     economy.WalletService
	hub         *events.Hub
	snapshotDir string
	entryFeeMon float64
	storeMode   string
	log         *log.Logger
	started     time.Time
}

type Config struct {
	Store       store.Store
	Engine      *engine.Engine
	Entry       *economy.EntryService
	Wallets     economy.WalletService
	Hub         *events.Hub
	SnapshotDir string
	EntryFeeMon float64
	StoreMode   string
	Logger      *log.Logger
}

func New(cfg Config) *Server {
	return &Server{
		store:       cfg.Store,
		engine:      cfg.Engine,
		entry:       cfg.Entry,
		wallets:     cfg.Wallets,
		hub:         cfg.Hub,
		snapshotDir: cfg.SnapshotDir,
		entryFeeMon: cfg.EntryFeeMon,
		storeMode:   cfg.StoreMode,
		log:         cfg.Logger,
		started:     time.Now(),
	}
}

// Routes wires all endpoints. wsHandler is mounted at /ws when non-nil.
func (s *Server) Routes(wsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /protocol", s.handleProtocol)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /agents/{id}", s.handleAgentByID)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("POST /entry", s.handleEntry)
	mux.HandleFunc("POST /action", s.handleAction)
	mux.HandleFunc("POST /faucet", s.handleFaucet)
	mux.HandleFunc("POST /snapshot", s.handleSnapshot)
	if wsHandler != nil {
		mux.Handle("GET /ws", wsHandler)
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"uptimeSec": int(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleProtocol(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, protocol.Descriptor(s.entryFeeMon, s.storeMode))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Read()
	if err != nil {
		s.internalError(w, "read state", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAgentByID(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Read()
	if err != nil {
		s.internalError(w, "read state", err)
		return
	}
	agent, ok := st.Agents[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "message": "agent not found"})
		return
	}
	wallet := st.Wallets[agent.WalletAddress]
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "agent": agent, "wallet": wallet})
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	req, err := protocol.ParseEntryRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}

	var res economy.EntryResult
	var appended []world.Event
	err = s.store.Update(func(st *world.State) error {
		before := len(st.Events)
		res = s.entry.Enter(st, req)
		appended = append(appended, st.Events[before:]...)
		return nil
	})
	if err != nil {
		s.internalError(w, "entry", err)
		return
	}
	s.hub.Publish(appended...)

	status := http.StatusOK
	if !res.OK {
		status = http.StatusPaymentRequired
	}
	writeJSON(w, status, res)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	req, err := protocol.ParseActionRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}

	var res engine.Result
	var appended []world.Event
	err = s.store.Update(func(st *world.State) error {
		before := len(st.Events)
		res = s.engine.Resolve(st, req)
		appended = append(appended, st.Events[before:]...)
		return nil
	})
	if err != nil {
		s.internalError(w, "action", err)
		return
	}
	s.hub.Publish(appended...)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": err.Error()})
		return
	}
	var req struct {
		WalletAddress string  `json:"walletAddress"`
		AmountMon     float64 `json:"amountMon"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.WalletAddress == "" || req.AmountMon <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "walletAddress and positive amountMon are required"})
		return
	}

	var balance float64
	var appended []world.Event
	err = s.store.Update(func(st *world.State) error {
		before := len(st.Events)
		balance = s.entry.Faucet(st, s.wallets, req.WalletAddress, req.AmountMon)
		appended = append(appended, st.Events[before:]...)
		return nil
	})
	if err != nil {
		s.internalError(w, "faucet", err)
		return
	}
	s.hub.Publish(appended...)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "balance": balance})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Read()
	if err != nil {
		s.internalError(w, "read state", err)
		return
	}
	path, err := snapshot.Save(s.snapshotDir, st)
	if err != nil {
		s.internalError(w, "save snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "path": path, "tick": st.Tick})
}

// handleEvents streams the audit log over SSE: a short backlog first, then
// live events as they are published.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	if st, err := s.store.Read(); err == nil {
		backlog := st.Events
		if len(backlog) > 20 {
			backlog = backlog[len(backlog)-20:]
		}
		for _, ev := range backlog {
			writeSSE(w, ev)
		}
		flusher.Flush()
	}

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-sub:
			if !ok {
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, ev world.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	return body, nil
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Printf("%s: %v", op, err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "message": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
