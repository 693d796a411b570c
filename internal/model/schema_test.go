package model

import (
	"errors"
	"testing"
)

func transferSchema() Schema {
	return Schema{
		Name:        "ERC20Transfer",
		Version:     1,
		Chains:      []string{"ethereum", "base"},
		Event:       "Transfer",
		Fingerprint: "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		Fields: []NamedField{
			{Name: "from", FieldDef: FieldDef{Type: AddressType(), Indexed: true}},
			{Name: "to", FieldDef: FieldDef{Type: AddressType(), Indexed: true}},
			{Name: "value", FieldDef: FieldDef{Type: UintType(256)}},
		},
	}
}

func TestSchemaFieldPartition(t *testing.T) {
	s := transferSchema()
	indexed := s.IndexedFields()
	data := s.DataFields()
	if len(indexed) != 2 || indexed[0].Name != "from" || indexed[1].Name != "to" {
		t.Fatalf("indexed fields mismatch: %+v", indexed)
	}
	if len(data) != 1 || data[0].Name != "value" {
		t.Fatalf("data fields mismatch: %+v", data)
	}
}

func TestSchemaMatching(t *testing.T) {
	s := transferSchema()
	if !s.AppliesTo("BASE") || s.AppliesTo("solana") {
		t.Fatalf("chain matching mismatch")
	}
	if !s.MatchesAddress("0xanything") {
		t.Fatalf("empty allow-list should match")
	}
	s.Address = []string{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"}
	if !s.MatchesAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48") {
		t.Fatalf("allow-list should be case-insensitive")
	}
	if s.MatchesAddress("0x0000000000000000000000000000000000000000") {
		t.Fatalf("unlisted address matched")
	}
}

func TestSchemaValidate(t *testing.T) {
	s := transferSchema()
	if err := s.Validate(); err != nil {
		t.Fatalf("valid schema rejected: %v", err)
	}

	broken := []func(*Schema){
		func(s *Schema) { s.Name = "" },
		func(s *Schema) { s.Version = 0 },
		func(s *Schema) { s.Fingerprint = "" },
		func(s *Schema) { s.Fields[1].Name = "from" },
		func(s *Schema) { s.Fields[2].Type = UintType(7) },
		func(s *Schema) { s.Meta.TrustLevel = "trusted" },
	}
	for i, mutate := range broken {
		s := transferSchema()
		mutate(&s)
		if err := s.Validate(); !errors.Is(err, ErrInvalidSchema) {
			t.Fatalf("case %d: expected ErrInvalidSchema, got %v", i, err)
		}
	}
}

func TestErrorType(t *testing.T) {
	wrapped := &BatchItemError{Index: 5, Err: SchemaNotFound("0xabc")}
	if ErrorType(wrapped) != "schema_not_found" {
		t.Fatalf("error type mismatch: %s", ErrorType(wrapped))
	}
	if !errors.Is(wrapped, ErrSchemaNotFound) {
		t.Fatalf("batch error should unwrap to schema not found")
	}
	if ErrorType(MissingField("to")) != "missing_field" {
		t.Fatalf("missing field type mismatch")
	}
	if ErrorType(DecodeFailed("x", "bad")) != "decode_failed" {
		t.Fatalf("decode failed type mismatch")
	}
	conflict := &ConflictError{Name: "a", Version: 1}
	if !errors.Is(conflict, ErrSchemaExists) {
		t.Fatalf("conflict should unwrap to ErrSchemaExists")
	}
}
