package model

import (
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestCanonicalTypeStringParse(t *testing.T) {
	cases := []struct {
		text string
		want CanonicalType
	}{
		{"uint256", UintType(256)},
		{"int24", IntType(24)},
		{"bool", BoolType()},
		{"bytes32", BytesType(32)},
		{"bytes", BytesVecType()},
		{"string", StrType()},
		{"address", AddressType()},
		{"pubkey", PubkeyType()},
		{"bech32", Bech32Type()},
		{"hash256", Hash256Type()},
		{"timestamp", TimestampType()},
		{"decimal(18)", DecimalType(18)},
		{"address[]", VecOf(AddressType())},
		{"uint8[4]", ArrayOf(UintType(8), 4)},
		{"uint64[2][]", VecOf(ArrayOf(UintType(64), 2))},
		{
			"tuple(owner:address,amounts:uint128[],inner:tuple(ok:bool))",
			TupleOf(
				TupleField{Name: "owner", Type: AddressType()},
				TupleField{Name: "amounts", Type: VecOf(UintType(128))},
				TupleField{Name: "inner", Type: TupleOf(TupleField{Name: "ok", Type: BoolType()})},
			),
		},
	}

	for _, tc := range cases {
		got, err := ParseCanonicalType(tc.text)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.text, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("parse %q: got %s", tc.text, got)
		}
		if got.String() != tc.text {
			t.Fatalf("display mismatch: %q != %q", got.String(), tc.text)
		}
	}
}

func TestCanonicalTypeAliases(t *testing.T) {
	got, err := ParseCanonicalType("uint")
	if err != nil || !got.Equal(UintType(256)) {
		t.Fatalf("uint alias: %v %s", err, got)
	}
	got, err = ParseCanonicalType("str")
	if err != nil || !got.Equal(StrType()) {
		t.Fatalf("str alias: %v %s", err, got)
	}
}

func TestCanonicalTypeInvalid(t *testing.T) {
	for _, text := range []string{"", "uint7", "uint264", "bytes33", "bytes0", "float", "address[0]", "tuple(a:bool,a:bool)", "[]"} {
		_, err := ParseCanonicalType(text)
		if err == nil {
			t.Fatalf("expected error for %q", text)
		}
		if !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("error for %q should be ErrUnsupportedType: %v", text, err)
		}
	}
}

func TestCanonicalTypeReference(t *testing.T) {
	for _, ct := range []CanonicalType{StrType(), BytesVecType(), VecOf(BoolType()), ArrayOf(BoolType(), 2), TupleOf(TupleField{Name: "a", Type: BoolType()})} {
		if !ct.IsReference() {
			t.Fatalf("%s should be a reference type", ct)
		}
	}
	for _, ct := range []CanonicalType{UintType(256), BoolType(), AddressType(), BytesType(32), Hash256Type()} {
		if ct.IsReference() {
			t.Fatalf("%s should be a value type", ct)
		}
	}
}

func TestFieldDefEncodings(t *testing.T) {
	var viaYAML FieldDef
	if err := yaml.Unmarshal([]byte("type: uint128[]\nindexed: true\n"), &viaYAML); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if !viaYAML.Type.Equal(VecOf(UintType(128))) || !viaYAML.Indexed {
		t.Fatalf("yaml field mismatch: %+v", viaYAML)
	}

	var viaJSON FieldDef
	if err := json.Unmarshal([]byte(`{"type":"decimal(6)","nullable":true}`), &viaJSON); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if !viaJSON.Type.Equal(DecimalType(6)) || !viaJSON.Nullable {
		t.Fatalf("json field mismatch: %+v", viaJSON)
	}

	out, err := json.Marshal(viaJSON)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	if string(out) != `{"type":"decimal(6)","nullable":true}` {
		t.Fatalf("json encoding mismatch: %s", out)
	}
}
