package evm

import (
	"testing"

	"chaincodec/internal/model"
)

func TestFingerprintFromTopics(t *testing.T) {
	transfer := "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

	tests := []struct {
		name   string
		topics []string
		want   model.EventFingerprint
	}{
		{name: "lowercase", topics: []string{transfer}, want: model.EventFingerprint(transfer)},
		{name: "uppercase", topics: []string{"0xDDF252AD1BE2C89B69C2B068FC378DAA952BA7F163C4A11628F55A4DF523B3EF"}, want: model.EventFingerprint(transfer)},
		{name: "no prefix", topics: []string{transfer[2:]}, want: model.EventFingerprint(transfer)},
		{name: "garbage", topics: []string{"0xzz"}, want: zeroFingerprint},
		{name: "short", topics: []string{"0xddf252ad"}, want: zeroFingerprint},
		{name: "empty", topics: nil, want: zeroFingerprint},
	}

	dec := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dec.Fingerprint(model.RawEvent{Topics: tt.topics})
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSignatureNestedTypes(t *testing.T) {
	schema := &model.Schema{
		Name:  "Order",
		Event: "OrderFilled",
		Fields: []model.NamedField{
			field("maker", model.AddressType(), true),
			field("legs", model.VecOf(model.TupleOf(
				model.TupleField{Name: "token", Type: model.AddressType()},
				model.TupleField{Name: "amount", Type: model.UintType(256)},
			)), false),
			field("salt", model.BytesType(32), false),
			field("ids", model.ArrayOf(model.UintType(64), 3), false),
		},
	}
	sig, err := Signature(schema)
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	want := "OrderFilled(address,(address,uint256)[],bytes32,uint64[3])"
	if sig != want {
		t.Fatalf("got %s, want %s", sig, want)
	}
	fp, err := SchemaFingerprint(schema)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if fp != FingerprintFor(want) {
		t.Fatalf("fingerprint mismatch: %s", fp)
	}
}

func TestSignatureRequiresEventName(t *testing.T) {
	if _, err := Signature(&model.Schema{Name: "x"}); err == nil {
		t.Fatalf("expected error for missing event name")
	}
}
