package evm

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"chaincodec/internal/model"
)

const v3PoolABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "recipient", "type": "address"},
      {"indexed": false, "internalType": "int256", "name": "amount0", "type": "int256"},
      {"indexed": false, "internalType": "int256", "name": "amount1", "type": "int256"},
      {"indexed": false, "internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
      {"indexed": false, "internalType": "uint128", "name": "liquidity", "type": "uint128"},
      {"indexed": false, "internalType": "int24", "name": "tick", "type": "int24"}
    ],
    "name": "Swap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "address", "name": "sender", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": true, "internalType": "int24", "name": "tickLower", "type": "int24"},
      {"indexed": true, "internalType": "int24", "name": "tickUpper", "type": "int24"},
      {"indexed": false, "internalType": "uint128", "name": "amount", "type": "uint128"},
      {"indexed": false, "internalType": "uint256", "name": "amount0", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "amount1", "type": "uint256"}
    ],
    "name": "Mint",
    "type": "event"
  }
]`

func poolABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(v3PoolABIJSON))
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	return parsed
}

func field(name string, typ model.CanonicalType, indexed bool) model.NamedField {
	return model.NamedField{Name: name, FieldDef: model.FieldDef{Type: typ, Indexed: indexed}}
}

func nullable(f model.NamedField) model.NamedField {
	f.Nullable = true
	return f
}

func schemaFor(t *testing.T, event string, fields ...model.NamedField) *model.Schema {
	t.Helper()
	s := &model.Schema{Name: event, Version: 1, Event: event, Fields: fields}
	fp, err := SchemaFingerprint(s)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	s.Fingerprint = fp
	return s
}

func swapSchema(t *testing.T) *model.Schema {
	return schemaFor(t, "Swap",
		field("sender", model.AddressType(), true),
		field("recipient", model.AddressType(), true),
		field("amount0", model.IntType(256), false),
		field("amount1", model.IntType(256), false),
		field("sqrtPriceX96", model.UintType(160), false),
		field("liquidity", model.UintType(128), false),
		field("tick", model.IntType(24), false),
	)
}

func mintSchema(t *testing.T) *model.Schema {
	return schemaFor(t, "Mint",
		field("sender", model.AddressType(), false),
		field("owner", model.AddressType(), true),
		field("tickLower", model.IntType(24), true),
		field("tickUpper", model.IntType(24), true),
		field("amount", model.UintType(128), false),
		field("amount0", model.UintType(256), false),
		field("amount1", model.UintType(256), false),
	)
}

func buildRawEvent(emitter common.Address, topic0 common.Hash, data []byte, indexed []common.Hash) model.RawEvent {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return model.RawEvent{
		Chain:          model.EVMChain("bsc", 56),
		TxHash:         "0xdef",
		BlockNumber:    12345,
		BlockTimestamp: 1700000000,
		LogIndex:       1,
		Topics:         topics,
		Data:           data,
		Address:        emitter.Hex(),
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func topicFromInt24(value int32) common.Hash {
	bigVal := big.NewInt(int64(value))
	if value < 0 {
		bigVal = new(big.Int).Add(bigVal, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return common.BigToHash(bigVal)
}

func word(v int64) []byte {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func expectField(t *testing.T, event *model.DecodedEvent, name string, want model.NormalizedValue) {
	t.Helper()
	got, ok := event.Field(name)
	if !ok {
		t.Fatalf("field %s missing", name)
	}
	if !got.Equal(want) {
		t.Fatalf("field %s: got %s (%s), want %s (%s)", name, got, got.Kind(), want, want.Kind())
	}
}
