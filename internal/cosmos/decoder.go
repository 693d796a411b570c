package cosmos

import (
	"strings"

	"chaincodec/internal/decoder"
	"chaincodec/internal/model"
)

// Decoder decodes ABCI events whose attributes arrive as strings. topics[0]
// is the event type and topics[1], when set, the CosmWasm action; data holds
// the attributes as JSON.
type Decoder struct{}

var _ decoder.ChainDecoder = (*Decoder)(nil)

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Family() model.ChainFamily { return model.FamilyCosmos }

func (d *Decoder) Fingerprint(raw model.RawEvent) model.EventFingerprint {
	key := eventKey(raw.Topics)
	if key == "" {
		return ""
	}
	return FingerprintFor(key)
}

// DecodeEvent coerces each schema field from its attribute. Only a malformed
// payload fails the event; missing or uncoercible attributes are recorded per
// field.
func (d *Decoder) DecodeEvent(raw model.RawEvent, schema *model.Schema) (*model.DecodedEvent, error) {
	fp := d.Fingerprint(raw)
	attrs, err := parseAttributes(raw.Data)
	if err != nil {
		if de, ok := err.(*model.DecodeError); ok {
			de.Fingerprint = fp
		}
		return nil, err
	}

	event := model.NewDecodedEvent(raw, schema, fp)
	for _, f := range schema.Fields {
		value, ok := attrs[f.Name]
		if !ok || (f.Nullable && f.Type.Kind != model.KindStr && strings.TrimSpace(value) == "") {
			if f.Nullable {
				event.Fields[f.Name] = model.Null()
				continue
			}
			decoder.Lenient(event, f.Name, model.MissingField(f.Name))
			continue
		}

		v, err := coerce(f.Type, value)
		if err != nil {
			decoder.Lenient(event, f.Name, err)
			continue
		}
		event.Fields[f.Name] = v
	}
	return event, nil
}
