package protocol

import (
	"errors"
	"strings"
	"testing"

	"monworld.ai/internal/sim/world"
)

func TestParseEntryRequest(t *testing.T) {
	req, err := ParseEntryRequest([]byte(`{"agentId":"alice","walletAddress":"w_alice"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.AgentID != "alice" || req.WalletAddress != "w_alice" {
		t.Fatalf("req = %+v", req)
	}
}

func TestParseEntryRequestRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `"hello"`},
		{"empty agent id", `{"agentId":"","walletAddress":"w"}`},
		{"agent id with spaces", `{"agentId":"a b","walletAddress":"w"}`},
		{"agent id too long", `{"agentId":"` + strings.Repeat("a", 65) + `","walletAddress":"w"}`},
		{"missing wallet", `{"agentId":"alice"}`},
		{"short tx hash", `{"agentId":"alice","walletAddress":"w","paymentTxHash":"0x1234"}`},
		{"unprefixed tx hash", `{"agentId":"alice","walletAddress":"w","paymentTxHash":"` + strings.Repeat("ab", 33) + `"}`},
	}
	for _, c := range cases {
		_, err := ParseEntryRequest([]byte(c.payload))
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: err = %T, want *ValidationError", c.name, err)
		}
	}
}

func TestParseEntryRequestAcceptsValidTxHash(t *testing.T) {
	payload := `{"agentId":"alice","walletAddress":"w","paymentTxHash":"0x` + strings.Repeat("Ab", 32) + `"}`
	if _, err := ParseEntryRequest([]byte(payload)); err != nil {
		t.Fatalf("parse: %v", err)
	}
}

func TestParseActionRequestPerActionValidation(t *testing.T) {
	valid := []string{
		`{"agentId":"a","action":"rest"}`,
		`{"agentId":"a","action":"gather"}`,
		`{"agentId":"a","action":"claim"}`,
		`{"agentId":"a","action":"move","target":"forest"}`,
		`{"agentId":"a","action":"vote","votePolicy":"cooperative"}`,
		`{"agentId":"a","action":"trade","targetAgentId":"b","itemGive":"wood","qtyGive":1,"itemTake":"ore","qtyTake":1}`,
		`{"agentId":"a","action":"attack","targetAgentId":"b"}`,
		`{"agentId":"a","action":"sell","itemGive":"wood","qtyGive":2}`,
		`{"agentId":"a","action":"aid","targetAgentId":"b"}`,
		`{"agentId":"a","action":"aid","targetAgentId":"b","itemGive":"herb","qtyGive":1}`,
	}
	for _, payload := range valid {
		if _, err := ParseActionRequest([]byte(payload)); err != nil {
			t.Errorf("valid payload rejected: %s: %v", payload, err)
		}
	}

	invalid := []string{
		`{"agentId":"a","action":"fly"}`,
		`{"agentId":"a","action":"move"}`,
		`{"agentId":"a","action":"move","target":"atlantis"}`,
		`{"agentId":"a","action":"vote"}`,
		`{"agentId":"a","action":"vote","votePolicy":"anarchic"}`,
		`{"agentId":"a","action":"trade","targetAgentId":"b","itemGive":"wood","qtyGive":0,"itemTake":"ore","qtyTake":1}`,
		`{"agentId":"a","action":"trade","targetAgentId":"b"}`,
		`{"agentId":"a","action":"attack"}`,
		`{"agentId":"a","action":"sell"}`,
		`{"agentId":"a","action":"sell","itemGive":"wood","qtyGive":-1}`,
		`{"agentId":"a","action":"aid","targetAgentId":"b","qtyGive":2}`,
		`{"agentId":"","action":"rest"}`,
	}
	for _, payload := range invalid {
		if _, err := ParseActionRequest([]byte(payload)); err == nil {
			t.Errorf("invalid payload accepted: %s", payload)
		}
	}
}

func TestParseActionRequestDecodesFields(t *testing.T) {
	req, err := ParseActionRequest([]byte(
		`{"agentId":"a","action":"trade","targetAgentId":"b","itemGive":"wood","qtyGive":2,"itemTake":"ore","qtyTake":3}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Action != ActionTrade || req.QtyGive != 2 || req.QtyTake != 3 {
		t.Fatalf("req = %+v", req)
	}
	mv, err := ParseActionRequest([]byte(`{"agentId":"a","action":"move","target":"cavern"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if mv.Target != world.LocationCavern {
		t.Fatalf("target = %s", mv.Target)
	}
}

func TestDescriptorListsEverything(t *testing.T) {
	d := Descriptor(0.0001, "json")
	if d["version"] != Version {
		t.Fatalf("version = %v", d["version"])
	}
	actions := d["actions"].([]string)
	if len(actions) != 9 {
		t.Fatalf("actions = %v", actions)
	}
	endpoints := d["endpoints"].(map[string]string)
	for _, key := range []string{"entry", "action", "state", "events", "ws", "faucet", "snapshot"} {
		if endpoints[key] == "" {
			t.Errorf("missing endpoint %s", key)
		}
	}
}
