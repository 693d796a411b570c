package batch

import (
	"fmt"
	"strings"

	"chaincodec/internal/cosmos"
	"chaincodec/internal/evm"
	"chaincodec/internal/model"
	"chaincodec/internal/solana"
)

// FingerprintFor hashes an identifier the way the family's decoder does:
// an event signature for EVM, an event name for Solana, an event type for Cosmos.
func FingerprintFor(family model.ChainFamily, identifier string) (model.EventFingerprint, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", fmt.Errorf("identifier is required")
	}
	switch family {
	case model.FamilyEVM:
		return evm.FingerprintFor(identifier), nil
	case model.FamilySolana:
		return solana.FingerprintFor(identifier), nil
	case model.FamilyCosmos:
		return cosmos.FingerprintFor(identifier), nil
	default:
		return "", fmt.Errorf("unknown chain family %q", family)
	}
}

// SchemaFingerprint derives a fingerprint for a schema that omits one, using
// the decoder family of its first chain. It is meant for registry loaders.
func (e *Engine) SchemaFingerprint(schema *model.Schema) (model.EventFingerprint, error) {
	if len(schema.Chains) == 0 {
		return "", fmt.Errorf("%w: %s needs a fingerprint or a chain", model.ErrInvalidSchema, schema.Name)
	}
	dec, err := e.DecoderFor(model.ChainID{Slug: schema.Chains[0]})
	if err != nil {
		return "", err
	}
	switch dec.Family() {
	case model.FamilyEVM:
		return evm.SchemaFingerprint(schema)
	case model.FamilySolana:
		return solana.SchemaFingerprint(schema)
	case model.FamilyCosmos:
		return cosmos.SchemaFingerprint(schema)
	default:
		return "", fmt.Errorf("cannot derive fingerprint for family %q", dec.Family())
	}
}
