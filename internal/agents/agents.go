// Package agents drives rule-based autonomous agents. Each agent gets a
// deterministic profile derived from its id and acts on its own pace through
// the same engine and store path as external callers.
package agents

import (
	"log"
	"math/rand"
	"sort"
	"time"

	"monworld.ai/internal/persistence/store"
	"monworld.ai/internal/protocol"
	"monworld.ai/internal/sim/engine"
	"monworld.ai/internal/sim/world"
	"monworld.ai/internal/transport/events"
)

type Config struct {
	Interval        time.Duration
	ActionsPerCycle int
	MinActionDelay  time.Duration
	MaxActionDelay  time.Duration
	// Controls lets callers exclude externally driven agents. Nil means
	// every agent in the world is rule-driven.
	Controls func(agentID string) bool
}

type Service struct {
	store  store.Store
	engine *engine.Engine
	cfg    Config
	log    *log.Logger
	hub    *events.Hub

	rng *rand.Rand
	now func() time.Time

	nextActionAt map[string]time.Time
	worldPauseTo time.Time

	stop chan struct{}
	done chan struct{}
}

func New(st store.Store, eng *engine.Engine, cfg Config, logger *log.Logger, hub *events.Hub) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 2500 * time.Millisecond
	}
	if cfg.ActionsPerCycle < 1 {
		cfg.ActionsPerCycle = 1
	}
	if cfg.MinActionDelay <= 0 {
		cfg.MinActionDelay = 5 * time.Second
	}
	if cfg.MaxActionDelay < cfg.MinActionDelay {
		cfg.MaxActionDelay = cfg.MinActionDelay
	}
	return &Service{
		store:        st,
		engine:       eng,
		cfg:          cfg,
		log:          logger,
		hub:          hub,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
		nextActionAt: map[string]time.Time{},
	}
}

func (s *Service) Start() {
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if err := s.RunCycle(); err != nil {
					s.log.Printf("agent cycle: %v", err)
				}
			}
		}
	}()
}

func (s *Service) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
}

// RunCycle lets at most ActionsPerCycle ready agents act. World-level pacing
// spaces actions out so the audit stream reads like independent actors rather
// than a batch job.
func (s *Service) RunCycle() error {
	now := s.now()
	if now.Before(s.worldPauseTo) {
		return nil
	}

	var appended []world.Event
	for i := 0; i < s.cfg.ActionsPerCycle; i++ {
		err := s.store.Update(func(st *world.State) error {
			before := len(st.Events)
			s.step(st, now)
			appended = append(appended, st.Events[before:]...)
			return nil
		})
		if err != nil {
			return err
		}
	}
	if len(appended) > 0 {
		s.hub.Publish(appended...)
	}
	return nil
}

func (s *Service) step(st *world.State, now time.Time) {
	ids := s.controlledAgentIDs(st)
	if len(ids) == 0 {
		return
	}
	s.pruneSchedule(ids)
	for _, id := range ids {
		if _, ok := s.nextActionAt[id]; !ok {
			s.nextActionAt[id] = now.Add(s.actionDelay(st, st.Agents[id]))
		}
	}

	ready := ids[:0:0]
	for _, id := range ids {
		if !now.Before(s.nextActionAt[id]) {
			ready = append(ready, id)
		}
	}
	if len(ready) == 0 {
		return
	}

	actorID := ready[s.rng.Intn(len(ready))]
	actor, ok := st.Agents[actorID]
	if !ok {
		return
	}
	profile := ProfileFor(actorID)

	req := s.chooseAction(st, actor, profile)
	res := s.engine.Resolve(st, req)
	if !res.OK {
		if actor.Energy <= 1 {
			rest := protocol.ActionRequest{AgentID: actorID, Action: protocol.ActionRest}
			if s.engine.Resolve(st, rest).OK {
				s.scheduleNext(st, actor, now)
			}
			return
		}
		// Failed plans fall back to gathering or repositioning so the
		// agent keeps momentum instead of retrying into the same wall.
		if s.engine.Resolve(st, s.fallbackAction(st, actor, profile)).OK {
			s.scheduleNext(st, actor, now)
		}
		return
	}

	st.AppendEvent(st.Tick, actorID, world.EventReasoning, renderReasoning(st, actor, profile, req))
	s.scheduleNext(st, actor, now)
}

func (s *Service) controlledAgentIDs(st *world.State) []string {
	ids := make([]string, 0, len(st.Agents))
	for id := range st.Agents {
		if s.cfg.Controls == nil || s.cfg.Controls(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *Service) pruneSchedule(active []string) {
	known := make(map[string]struct{}, len(active))
	for _, id := range active {
		known[id] = struct{}{}
	}
	for id := range s.nextActionAt {
		if _, ok := known[id]; !ok {
			delete(s.nextActionAt, id)
		}
	}
}

func (s *Service) scheduleNext(st *world.State, a *world.Agent, now time.Time) {
	delay := s.actionDelay(st, a)
	s.nextActionAt[a.ID] = now.Add(delay)
	s.worldPauseTo = now.Add(delay)
}

// actionDelay paces richer agents more slowly: wealth, a full pack and high
// reputation all add think time, while near-empty energy shortens it.
func (s *Service) actionDelay(st *world.State, a *world.Agent) time.Duration {
	var balance float64
	if w, ok := st.Wallets[a.WalletAddress]; ok {
		balance = w.MonBalance
	}
	invUnits := a.InventoryUnits()

	profileDelay := ProfileFor(a.ID).baseDelay()
	monDelay := time.Duration(minFloat(1, balance) * 8000 * float64(time.Millisecond))
	invDelay := time.Duration(minInt(30, invUnits)) * 250 * time.Millisecond
	repDelay := time.Duration(minInt(10, maxInt(0, a.Reputation))) * 180 * time.Millisecond
	var urgencyDiscount time.Duration
	if a.Energy <= 2 {
		urgencyDiscount = 2000 * time.Millisecond
	}

	d := s.cfg.MinActionDelay + profileDelay + monDelay + invDelay + repDelay - urgencyDiscount
	if d < s.cfg.MinActionDelay {
		return s.cfg.MinActionDelay
	}
	if d > s.cfg.MaxActionDelay {
		return s.cfg.MaxActionDelay
	}
	return d
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
