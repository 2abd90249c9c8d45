// Command bot is a demo client: it enters one agent over HTTP, follows the
// live event feed over websocket and fires simple actions on a timer.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"monworld.ai/internal/protocol"
	"monworld.ai/internal/sim/world"
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "server base url")
		name    = flag.String("name", "bot", "agent id")
		wallet  = flag.String("wallet", "", "wallet address (default: wallet_<name>)")
		every   = flag.Duration("every", 6*time.Second, "action interval")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	base := strings.TrimRight(*baseURL, "/")
	walletAddr := *wallet
	if walletAddr == "" {
		walletAddr = "wallet_" + *name
	}

	entry := protocol.EntryRequest{AgentID: *name, WalletAddress: walletAddr}
	var entryRes struct {
		OK      bool    `json:"ok"`
		Reason  string  `json:"reason"`
		Balance float64 `json:"balance"`
	}
	if err := postJSON(base+"/entry", entry, &entryRes); err != nil {
		logger.Fatalf("entry: %v", err)
	}
	if !entryRes.OK {
		logger.Fatalf("entry rejected: %s", entryRes.Reason)
	}
	logger.Printf("entered as %s (balance %.6f MON)", *name, entryRes.Balance)

	wsURL := strings.Replace(base, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		logger.Fatalf("dial %s: %v", wsURL, err)
	}
	defer conn.Close()

	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var ev world.Event
			if json.Unmarshal(msg, &ev) == nil {
				logger.Printf("event %s [%s] %s", ev.ID, ev.Type, ev.Message)
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			req := nextAction(rng, *name)
			var res struct {
				OK      bool   `json:"ok"`
				Message string `json:"message"`
			}
			if err := postJSON(base+"/action", req, &res); err != nil {
				logger.Printf("action: %v", err)
				continue
			}
			logger.Printf("%s -> ok=%v %s", req.Action, res.OK, res.Message)
		}
	}
}

// nextAction keeps the bot simple on purpose: mostly gather, rest when the
// dice say so, and the occasional wander.
func nextAction(rng *rand.Rand, agentID string) protocol.ActionRequest {
	switch rng.Intn(6) {
	case 0:
		return protocol.ActionRequest{AgentID: agentID, Action: protocol.ActionRest}
	case 1:
		locs := world.Locations()
		return protocol.ActionRequest{
			AgentID: agentID,
			Action:  protocol.ActionMove,
			Target:  locs[rng.Intn(len(locs))],
		}
	default:
		return protocol.ActionRequest{AgentID: agentID, Action: protocol.ActionGather}
	}
}

func postJSON(url string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	return nil
}
