package evm

import (
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"chaincodec/internal/model"
)

func TestRawEventFromLog(t *testing.T) {
	topic0 := common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	from := common.HexToHash("0x0000000000000000000000001111111111111111111111111111111111111111")
	log := types.Log{
		Address:     common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Topics:      []common.Hash{topic0, from},
		Data:        []byte{0x01, 0x02},
		BlockNumber: 99,
		TxHash:      common.HexToHash("0xabc"),
		Index:       7,
	}

	chain := model.EVMChain("ethereum", 1)
	raw := RawEventFromLog(chain, log, 1700000000)

	if raw.BlockNumber != 99 || raw.LogIndex != 7 || raw.BlockTimestamp != 1700000000 {
		t.Fatalf("envelope mismatch: %+v", raw)
	}
	if raw.Address != log.Address.Hex() || raw.TxHash != log.TxHash.Hex() {
		t.Fatalf("identity mismatch: %+v", raw)
	}
	if !reflect.DeepEqual(raw.Topics, []string{topic0.Hex(), from.Hex()}) {
		t.Fatalf("topics mismatch: %v", raw.Topics)
	}

	log.Data[0] = 0xff
	if raw.Data[0] != 0x01 {
		t.Fatalf("data should be copied")
	}
	if NewDecoder().Fingerprint(raw) != model.EventFingerprint(topic0.Hex()) {
		t.Fatalf("fingerprint mismatch")
	}
}
