// Package governor runs the periodic economy adjustment loop. It reads a
// trailing window of audit events, recomputes aggregate activity rates and
// nudges market prices, the attack penalty and the cooperative-action rewards.
// All adjustments run through the same store Update as ordinary actions.
package governor

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"monworld.ai/internal/persistence/store"
	"monworld.ai/internal/sim/world"
)

type Config struct {
	Interval     time.Duration
	WindowEvents int
	MinPriceMon  float64
	MaxPriceMon  float64
}

// Notifier receives events the governor appended, for fan-out to live feeds.
type Notifier func(events []world.Event)

type Service struct {
	store  store.Store
	cfg    Config
	log    *log.Logger
	notify Notifier

	stop chan struct{}
	done chan struct{}
}

func New(st store.Store, cfg Config, logger *log.Logger, notify Notifier) *Service {
	if cfg.WindowEvents <= 0 {
		cfg.WindowEvents = 60
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &Service{store: st, cfg: cfg, log: logger, notify: notify}
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
				if err := s.RunOnce(); err != nil {
					s.log.Printf("governor run: %v", err)
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

// RunOnce performs a single adjustment pass.
func (s *Service) RunOnce() error {
	var appended []world.Event
	err := s.store.Update(func(st *world.State) error {
		before := len(st.Events)
		s.adjust(st)
		appended = append(appended, st.Events[before:]...)
		return nil
	})
	if err != nil {
		return err
	}
	if s.notify != nil && len(appended) > 0 {
		s.notify(appended)
	}
	return nil
}

func (s *Service) adjust(st *world.State) {
	window := st.Events
	if len(window) > s.cfg.WindowEvents {
		window = window[len(window)-s.cfg.WindowEvents:]
	}
	rates := computeRates(window)

	var deltas []string

	// High supply lowers prices; scarcity recovers them slowly.
	items := make([]string, 0, len(st.Economy.MarketPricesMon))
	for item := range st.Economy.MarketPricesMon {
		items = append(items, item)
	}
	sort.Strings(items)
	for _, item := range items {
		current := st.Economy.MarketPricesMon[item]
		next := current
		switch gathered := rates.GatherByItem[item]; {
		case gathered >= 18:
			next = current * 0.9
		case gathered <= 4:
			next = current * 1.04
		}
		next = round9(clamp(next, s.cfg.MinPriceMon, s.cfg.MaxPriceMon))
		if math.Abs(next-current) >= 1e-10 {
			st.Economy.MarketPricesMon[item] = next
			deltas = append(deltas, fmt.Sprintf("%s %.9f->%.9f (gather=%d)", item, current, next, rates.GatherByItem[item]))
		}
	}

	// Frequent conflict raises the attack penalty; calm decays it.
	basePenalty := round9(math.Max(0, st.Economy.AttackPenaltyMon))
	nextPenalty := basePenalty
	switch {
	case rates.Attacks >= 3:
		nextPenalty = round9(clamp(basePenalty*1.25, 0, 0.01))
	case rates.Attacks == 0:
		nextPenalty = round9(clamp(basePenalty*0.97, 0, 0.01))
	}
	if nextPenalty != basePenalty {
		st.Economy.AttackPenaltyMon = nextPenalty
		deltas = append(deltas, fmt.Sprintf("attackPenalty %.9f->%.9f (attacks=%d)", basePenalty, nextPenalty, rates.Attacks))
	}

	// Helping pays more while conflict outpaces cooperation.
	baseAidRep := st.Economy.AidReputationReward
	nextAidRep := baseAidRep
	if rates.Attacks >= 3 && rates.Aids < rates.Attacks {
		nextAidRep = clampInt(baseAidRep+1, 1, 6)
	}
	if rates.Attacks == 0 && baseAidRep > 2 {
		nextAidRep = clampInt(baseAidRep-1, 2, 6)
	}
	if nextAidRep != baseAidRep {
		st.Economy.AidReputationReward = nextAidRep
		deltas = append(deltas, fmt.Sprintf("aidRep %d->%d", baseAidRep, nextAidRep))
	}

	baseTradeRep := st.Economy.TradeReputationReward
	nextTradeRep := baseTradeRep
	if rates.Trades < 2 && rates.Attacks >= 2 {
		nextTradeRep = clampInt(baseTradeRep+1, 1, 5)
	}
	if rates.Trades >= 6 && baseTradeRep > 1 {
		nextTradeRep = clampInt(baseTradeRep-1, 1, 5)
	}
	if nextTradeRep != baseTradeRep {
		st.Economy.TradeReputationReward = nextTradeRep
		deltas = append(deltas, fmt.Sprintf("tradeRep %d->%d", baseTradeRep, nextTradeRep))
	}

	st.Economy.Governor.LastEventIndex = len(st.Events)
	st.Economy.Governor.LastRunAt = time.Now().UTC().Format(time.RFC3339)

	// Only log when something changed, to keep the audit stream signal-dense.
	if len(deltas) > 0 {
		st.Tick++
		st.AppendEvent(st.Tick, "world", world.EventGovernor,
			"Governor adjusted economy: "+strings.Join(deltas, "; "))
	}
}

// Rates are the aggregate activity counts over the trailing window.
type Rates struct {
	GatherByItem map[string]int
	Attacks      int
	Trades       int
	Aids         int
}

var gatherFragment = regexp.MustCompile(`\+([a-zA-Z_]+):([0-9]+)`)

func computeRates(events []world.Event) Rates {
	r := Rates{GatherByItem: map[string]int{}}
	for _, ev := range events {
		switch ev.Type {
		case "attack":
			r.Attacks++
		case "trade":
			r.Trades++
		case "aid":
			r.Aids++
		case "gather":
			for _, m := range gatherFragment.FindAllStringSubmatch(ev.Message, -1) {
				qty, err := strconv.Atoi(m[2])
				if err != nil || qty <= 0 {
					continue
				}
				r.GatherByItem[strings.ToLower(m[1])] += qty
			}
		}
	}
	return r
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Prices live at the 1e-6 MON scale, so they round at nine decimals; a
// six-decimal round would swallow the governor's own nudges.
func round9(v float64) float64 { return math.Round(v*1e9) / 1e9 }
