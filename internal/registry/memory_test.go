package registry

import (
	"errors"
	"sync"
	"testing"

	"chaincodec/internal/model"
)

func testSchema(name string, version uint32, fp string) model.Schema {
	return model.Schema{
		Name:        name,
		Version:     version,
		Chains:      []string{"ethereum"},
		Event:       name,
		Fingerprint: model.EventFingerprint(fp),
		Fields: []model.NamedField{
			{Name: "value", FieldDef: model.FieldDef{Type: model.UintType(256)}},
		},
	}
}

func TestInsertRejectsDuplicateVersion(t *testing.T) {
	reg := NewMemory()
	if err := reg.Insert(testSchema("Transfer", 1, "0xaa")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := reg.Insert(testSchema("Transfer", 1, "0xbb"))
	if !errors.Is(err, model.ErrSchemaExists) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var conflict *model.ConflictError
	if !errors.As(err, &conflict) || conflict.Name != "Transfer" || conflict.Version != 1 {
		t.Fatalf("conflict detail mismatch: %v", err)
	}

	if s, ok := reg.GetByFingerprint("0xaa"); !ok || s.Version != 1 {
		t.Fatalf("original schema should remain")
	}
	if _, ok := reg.GetByFingerprint("0xbb"); ok {
		t.Fatalf("rejected schema should not be indexed")
	}
}

func TestGetByNameSkipsDeprecated(t *testing.T) {
	reg := NewMemory()
	v1 := testSchema("Swap", 1, "0x01")
	v2 := testSchema("Swap", 2, "0x02")
	v3 := testSchema("Swap", 3, "0x03")
	v3.Deprecated = true

	for _, s := range []model.Schema{v3, v1, v2} {
		if err := reg.Insert(s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	latest, ok := reg.GetByName("Swap", 0)
	if !ok || latest.Version != 2 {
		t.Fatalf("latest should be v2, got %+v", latest)
	}
	if exact, ok := reg.GetByName("Swap", 3); !ok || !exact.Deprecated {
		t.Fatalf("explicit version lookup should still return deprecated v3")
	}

	history := reg.History("Swap")
	if len(history) != 3 || history[0].Version != 1 || history[2].Version != 3 {
		t.Fatalf("history order mismatch: %+v", history)
	}
}

func TestGetByNameAllDeprecated(t *testing.T) {
	reg := NewMemory()
	s := testSchema("Old", 1, "0x01")
	s.Deprecated = true
	if err := reg.Insert(s); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, ok := reg.GetByName("Old", 0); ok {
		t.Fatalf("all-deprecated name should not resolve")
	}
	if _, ok := reg.GetByName("Missing", 0); ok {
		t.Fatalf("unknown name should not resolve")
	}
}

func TestFingerprintReturnsMostRecentInsert(t *testing.T) {
	reg := NewMemory()
	if err := reg.Insert(testSchema("Transfer", 2, "0xABCD")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := reg.Insert(testSchema("Transfer", 1, "0xabcd")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s, ok := reg.GetByFingerprint("0xAbCd")
	if !ok || s.Version != 1 {
		t.Fatalf("expected most recent insert (v1), got %+v", s)
	}
}

func TestInsertAllIsAtomic(t *testing.T) {
	reg := NewMemory()
	if err := reg.Insert(testSchema("B", 1, "0xb1")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	err := reg.InsertAll([]model.Schema{
		testSchema("A", 1, "0xa1"),
		testSchema("B", 1, "0xb2"),
	})
	if !errors.Is(err, model.ErrSchemaExists) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("failed batch must not insert anything, len=%d", reg.Len())
	}

	err = reg.InsertAll([]model.Schema{testSchema("C", 1, "0xc1"), testSchema("C", 1, "0xc2")})
	if !errors.Is(err, model.ErrSchemaExists) {
		t.Fatalf("expected in-batch conflict, got %v", err)
	}
}

func TestInsertRejectsInvalidSchema(t *testing.T) {
	reg := NewMemory()
	s := testSchema("Bad", 1, "")
	if err := reg.Insert(s); !errors.Is(err, model.ErrInvalidSchema) {
		t.Fatalf("expected invalid schema, got %v", err)
	}
}

func TestListingHelpers(t *testing.T) {
	reg := NewMemory()
	sol := testSchema("SolEvent", 1, "0x99")
	sol.Chains = []string{"solana"}
	dep := testSchema("Legacy", 1, "0x77")
	dep.Deprecated = true

	for _, s := range []model.Schema{testSchema("Transfer", 1, "0x01"), testSchema("Transfer", 2, "0x01"), sol, dep} {
		if err := reg.Insert(s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	evm := reg.ListForChain("ethereum")
	if len(evm) != 3 || evm[0].Name != "Legacy" || evm[2].Version != 2 {
		t.Fatalf("ethereum listing mismatch: %d", len(evm))
	}
	if names := reg.AllNames(); len(names) != 3 || names[0] != "Legacy" {
		t.Fatalf("names mismatch: %v", names)
	}
	all := reg.AllSchemas()
	if len(all) != 2 || all[0].Name != "SolEvent" || all[1].Version != 2 {
		t.Fatalf("all schemas mismatch")
	}
}

func TestConcurrentReaders(t *testing.T) {
	reg := NewMemory()
	var wg sync.WaitGroup
	for i := uint32(1); i <= 20; i++ {
		wg.Add(2)
		go func(v uint32) {
			defer wg.Done()
			_ = reg.Insert(testSchema("Hot", v, "0xfe"))
		}(i)
		go func() {
			defer wg.Done()
			reg.GetByFingerprint("0xfe")
			reg.GetByName("Hot", 0)
		}()
	}
	wg.Wait()
	if got := len(reg.History("Hot")); got != 20 {
		t.Fatalf("expected 20 versions, got %d", got)
	}
}

func TestRegistryInterfaceInsertAndLookup(t *testing.T) {
	var reg Registry = NewMemory()
	if err := reg.Insert(testSchema("Approval", 1, "0xCC")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := reg.Insert(testSchema("Approval", 1, "0xdd")); !errors.Is(err, model.ErrSchemaExists) {
		t.Fatalf("expected conflict through interface, got %v", err)
	}
	s, ok := reg.GetByFingerprint("0xcc")
	if !ok || s.Name != "Approval" {
		t.Fatalf("lookup after insert failed: %v %v", s, ok)
	}
	if got := reg.History("Approval"); len(got) != 1 {
		t.Fatalf("expected 1 version, got %d", len(got))
	}
}
