package cosmos

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"chaincodec/internal/model"
)

// FingerprintFor returns sha256(eventType)[:16] for an ABCI event type,
// optionally suffixed with a CosmWasm action as in "wasm/transfer".
func FingerprintFor(eventType string) model.EventFingerprint {
	sum := sha256.Sum256([]byte(eventType))
	return model.EventFingerprint("0x" + hex.EncodeToString(sum[:16]))
}

// SchemaFingerprint derives the fingerprint from the schema's event type.
func SchemaFingerprint(schema *model.Schema) (model.EventFingerprint, error) {
	if strings.TrimSpace(schema.Event) == "" {
		return "", fmt.Errorf("%w: %s has no event type", model.ErrInvalidSchema, schema.Name)
	}
	return FingerprintFor(strings.TrimSpace(schema.Event)), nil
}

// eventKey joins topics[0] (event type) and topics[1] (action) when present.
func eventKey(topics []string) string {
	if len(topics) == 0 {
		return ""
	}
	key := strings.TrimSpace(topics[0])
	if len(topics) > 1 {
		if action := strings.TrimSpace(topics[1]); action != "" {
			key += "/" + action
		}
	}
	return key
}
