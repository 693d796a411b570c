package evm

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"chaincodec/internal/model"
)

var zeroFingerprint = model.EventFingerprint(common.Hash{}.Hex())

// FingerprintFor returns the keccak256 topic of an event signature such as
// "Transfer(address,address,uint256)".
func FingerprintFor(signature string) model.EventFingerprint {
	return model.EventFingerprint(crypto.Keccak256Hash([]byte(signature)).Hex())
}

// Signature builds the canonical event signature from the schema's event name
// and field types in declared order.
func Signature(schema *model.Schema) (string, error) {
	if schema.Event == "" {
		return "", fmt.Errorf("%w: %s has no event name", model.ErrInvalidSchema, schema.Name)
	}
	parts := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		part, err := signatureType(f.Type)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", f.Name, err)
		}
		parts = append(parts, part)
	}
	return schema.Event + "(" + strings.Join(parts, ",") + ")", nil
}

// SchemaFingerprint derives the topic0 a schema matches.
func SchemaFingerprint(schema *model.Schema) (model.EventFingerprint, error) {
	sig, err := Signature(schema)
	if err != nil {
		return "", err
	}
	return FingerprintFor(sig), nil
}

// fingerprintFromTopics normalizes topics[0]; anything that is not a 32-byte
// hex string maps to the zero hash.
func fingerprintFromTopics(topics []string) model.EventFingerprint {
	if len(topics) == 0 {
		return zeroFingerprint
	}
	topic, err := decodeTopic(topics[0])
	if err != nil {
		return zeroFingerprint
	}
	return model.EventFingerprint("0x" + hex.EncodeToString(topic))
}

func decodeTopic(topic string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(topic), "0x"), "0X")
	data, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid topic hex: %w", err)
	}
	if len(data) != common.HashLength {
		return nil, fmt.Errorf("topic length %d", len(data))
	}
	return data, nil
}
