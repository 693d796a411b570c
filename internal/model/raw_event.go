package model

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RawEvent is the wire-format event handed to a chain decoder.
type RawEvent struct {
	Chain          ChainID  `json:"chain"`
	TxHash         string   `json:"tx_hash"`
	BlockNumber    uint64   `json:"block_number"`
	BlockTimestamp int64    `json:"block_timestamp"`
	LogIndex       uint32   `json:"log_index"`
	Topics         []string `json:"topics"`
	Data           []byte   `json:"data"`
	Address        string   `json:"address"`
}

// Topic returns topics[i] or "" when absent.
func (e RawEvent) Topic(i int) string {
	if i < 0 || i >= len(e.Topics) {
		return ""
	}
	return e.Topics[i]
}

// MarshalJSON encodes Data as 0x-prefixed hex.
func (e RawEvent) MarshalJSON() ([]byte, error) {
	type Alias RawEvent
	return json.Marshal(struct {
		Alias
		Data hexutil.Bytes `json:"data"`
	}{Alias: Alias(e), Data: e.Data})
}

// UnmarshalJSON decodes a RawEvent with hex Data.
func (e *RawEvent) UnmarshalJSON(data []byte) error {
	type Alias RawEvent
	var a struct {
		Alias
		Data hexutil.Bytes `json:"data"`
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = RawEvent(a.Alias)
	e.Data = a.Data
	return nil
}
