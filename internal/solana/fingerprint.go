package solana

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"chaincodec/internal/model"
)

// DiscriminatorSize is the length of an Anchor event discriminator.
const DiscriminatorSize = 8

// Discriminator returns sha256("event:<name>")[:8].
func Discriminator(eventName string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte("event:" + eventName))
	var out [DiscriminatorSize]byte
	copy(out[:], sum[:DiscriminatorSize])
	return out
}

// FingerprintFor returns the hex discriminator of an event name.
func FingerprintFor(eventName string) model.EventFingerprint {
	d := Discriminator(eventName)
	return model.EventFingerprint("0x" + hex.EncodeToString(d[:]))
}

// SchemaFingerprint derives the fingerprint from the schema's event name,
// falling back to the schema name.
func SchemaFingerprint(schema *model.Schema) (model.EventFingerprint, error) {
	name := schema.Event
	if name == "" {
		name = schema.Name
	}
	if name == "" {
		return "", fmt.Errorf("%w: schema has no event name", model.ErrInvalidSchema)
	}
	return FingerprintFor(name), nil
}

// normalizeTopic lowercases a discriminator topic and ensures a 0x prefix.
func normalizeTopic(topic string) string {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return ""
	}
	return "0x" + strings.TrimPrefix(topic, "0x")
}
