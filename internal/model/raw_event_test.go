package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestRawEventJSONRoundTrip(t *testing.T) {
	original := RawEvent{
		Chain:          EVMChain("ethereum", 1),
		TxHash:         "0xdef456",
		BlockNumber:    19000000,
		BlockTimestamp: 1700000000,
		LogIndex:       12,
		Topics:         []string{"0xaaa", "0xbbb"},
		Data:           []byte{0xde, 0xad, 0xbe, 0xef},
		Address:        "0x1111111111111111111111111111111111111111",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(b), `"data":"0xdeadbeef"`) {
		t.Fatalf("data should be hex encoded: %s", b)
	}

	var decoded RawEvent
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestRawEventChainSlug(t *testing.T) {
	line := `{"chain":"osmosis","tx_hash":"ABC","topics":["transfer"],"data":"0x"}`

	var raw RawEvent
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if raw.Chain.Family != FamilyCosmos || raw.Chain.Slug != "osmosis" {
		t.Fatalf("chain mismatch: %+v", raw.Chain)
	}
	if raw.Topic(0) != "transfer" || raw.Topic(3) != "" {
		t.Fatalf("topic accessor mismatch")
	}

	if err := json.Unmarshal([]byte(`{"chain":"nowhere"}`), &raw); err == nil {
		t.Fatalf("expected error for unknown slug")
	}
}

func TestChainObjectFillsFamily(t *testing.T) {
	var c ChainID
	if err := json.Unmarshal([]byte(`{"slug":"base"}`), &c); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if c.Family != FamilyEVM || c.EVMChainID == nil || *c.EVMChainID != 8453 {
		t.Fatalf("chain mismatch: %+v", c)
	}
}
