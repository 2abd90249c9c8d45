package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"monworld.ai/internal/agents"
	"monworld.ai/internal/economy"
	persistlog "monworld.ai/internal/persistence/log"
	"monworld.ai/internal/persistence/store"
	"monworld.ai/internal/sim/engine"
	"monworld.ai/internal/sim/governor"
	"monworld.ai/internal/sim/tuning"
	"monworld.ai/internal/sim/world"
	"monworld.ai/internal/transport/events"
	"monworld.ai/internal/transport/httpapi"
	"monworld.ai/internal/transport/ws"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		tuningPath  = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		seedPath    = flag.String("seed", "./data/seeds/world.seed.json", "seed world document (installed when no state exists)")
		storeMode   = flag.String("store", "json", "persistence backend: json or sqlite")
		runAgents   = flag.Bool("agents", true, "run the autonomous rule agents")
		runGovernor = flag.Bool("governor", true, "run the economy governor")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}
	st, err := store.Open(*storeMode,
		filepath.Join(*dataDir, "world.state.json"),
		filepath.Join(*dataDir, "world.db"))
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	if _, err := os.Stat(*seedPath); err == nil {
		state, err := st.InitFromSeed(*seedPath)
		if err != nil {
			logger.Fatalf("init from seed: %v", err)
		}
		logger.Printf("world ready: tick=%d agents=%d events=%d store=%s",
			state.Tick, len(state.Agents), len(state.Events), *storeMode)
	} else {
		logger.Printf("no seed at %s; starting from existing or default state", *seedPath)
	}

	eng := engine.New(engine.Config{
		RewardPerUnitMon: tune.RewardPerUnitMon,
		PassiveDripMon:   tune.PassiveDripMon,
		CooldownMin:      time.Duration(tune.Cooldown.MinMs) * time.Millisecond,
		CooldownMax:      time.Duration(tune.Cooldown.MaxMs) * time.Millisecond,
	})

	wallets := economy.WalletService{InitialBalanceMon: tune.WalletInitialBalanceMon}
	entry := economy.NewEntryService(economy.WalletGateway{
		Wallets: wallets,
		FeeMon:  tune.EntryFeeMon,
	})

	hub := events.NewHub()

	// The audit logger is just another hub subscriber.
	auditLog := persistlog.NewEventLogger(filepath.Join(*dataDir, "events"))
	defer auditLog.Close()
	auditSub := hub.Subscribe()
	go func() {
		for ev := range auditSub {
			if err := auditLog.WriteEvent(ev); err != nil {
				logger.Printf("audit log: %v", err)
			}
		}
	}()

	var gov *governor.Service
	if *runGovernor && tune.Governor.Enabled {
		gov = governor.New(st, governor.Config{
			Interval:     time.Duration(tune.Governor.IntervalMs) * time.Millisecond,
			WindowEvents: tune.Governor.WindowEvents,
			MinPriceMon:  tune.Governor.MinPriceMon,
			MaxPriceMon:  tune.Governor.MaxPriceMon,
		}, logger, func(evs []world.Event) { hub.Publish(evs...) })
		gov.Start()
		defer gov.Stop()
	}

	var auto *agents.Service
	if *runAgents && tune.Agents.Enabled {
		auto = agents.New(st, eng, agents.Config{
			Interval:        time.Duration(tune.Agents.IntervalMs) * time.Millisecond,
			ActionsPerCycle: tune.Agents.ActionsPerCycle,
			MinActionDelay:  time.Duration(tune.Agents.MinActionDelayMs) * time.Millisecond,
			MaxActionDelay:  time.Duration(tune.Agents.MaxActionDelayMs) * time.Millisecond,
		}, logger, hub)
		auto.Start()
		defer auto.Stop()
	}

	wsServer := ws.NewServer(hub, logger)
	api := httpapi.New(httpapi.Config{
		Store:       st,
		Engine:      eng,
		Entry:       entry,
		Wallets:     wallets,
		Hub:         hub,
		SnapshotDir: filepath.Join(*dataDir, "snapshots"),
		EntryFeeMon: tune.EntryFeeMon,
		StoreMode:   strings.ToLower(*storeMode),
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           api.Routes(wsServer.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Printf("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}
