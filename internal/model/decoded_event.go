package model

// EventFingerprint identifies an event's on-wire signature.
type EventFingerprint string

func (f EventFingerprint) String() string { return string(f) }

// DecodedEvent is a raw event decoded against a schema.
type DecodedEvent struct {
	Chain          ChainID                    `json:"chain"`
	Schema         string                     `json:"schema"`
	SchemaVersion  uint32                     `json:"schema_version"`
	TxHash         string                     `json:"tx_hash"`
	BlockNumber    uint64                     `json:"block_number"`
	BlockTimestamp int64                      `json:"block_timestamp"`
	LogIndex       uint32                     `json:"log_index"`
	Address        string                     `json:"address"`
	Fields         map[string]NormalizedValue `json:"fields"`
	Fingerprint    EventFingerprint           `json:"fingerprint"`
	DecodeErrors   map[string]string          `json:"decode_errors,omitempty"`
}

// NewDecodedEvent copies the envelope of raw and the identity of schema.
func NewDecodedEvent(raw RawEvent, schema *Schema, fp EventFingerprint) *DecodedEvent {
	return &DecodedEvent{
		Chain:          raw.Chain,
		Schema:         schema.Name,
		SchemaVersion:  schema.Version,
		TxHash:         raw.TxHash,
		BlockNumber:    raw.BlockNumber,
		BlockTimestamp: raw.BlockTimestamp,
		LogIndex:       raw.LogIndex,
		Address:        raw.Address,
		Fields:         make(map[string]NormalizedValue, len(schema.Fields)),
		Fingerprint:    fp,
		DecodeErrors:   map[string]string{},
	}
}

// Field returns a decoded field by name.
func (e *DecodedEvent) Field(name string) (NormalizedValue, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

func (e *DecodedEvent) HasErrors() bool { return len(e.DecodeErrors) > 0 }
