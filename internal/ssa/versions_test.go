package ssa

import "testing"

func TestBumpFreshNameStartsAtZero(t *testing.T) {
	vm := NewVersionMap(nil)
	if v := vm.Bump("x"); v != 0 {
		t.Fatalf("expected 0, got %d", v)
	}
}

func TestBumpExistingNameIncrements(t *testing.T) {
	vm := NewVersionMap([]string{"n"})
	if v := vm.Bump("n"); v != 1 {
		t.Fatalf("argument's first reassignment should be version 1, got %d", v)
	}
	if v := vm.Bump("n"); v != 2 {
		t.Fatalf("expected 2, got %d", v)
	}
}

func TestCurrentReportsAbsence(t *testing.T) {
	vm := NewVersionMap(nil)
	if _, ok := vm.Current("missing"); ok {
		t.Fatal("expected absent name to report not-ok")
	}
	vm.Bump("x")
	v, ok := vm.Current("x")
	if !ok || v != 0 {
		t.Fatalf("expected (0, true), got (%d, %v)", v, ok)
	}
}

func TestSnapshotRestore(t *testing.T) {
	vm := NewVersionMap([]string{"a"})
	snap := vm.Snapshot()
	vm.Bump("a")
	vm.Bump("b")
	vm.Restore(snap)
	if _, ok := vm.Current("b"); ok {
		t.Fatal("restore should drop writes made after the snapshot")
	}
	v, _ := vm.Current("a")
	if v != 0 {
		t.Fatalf("expected a to be restored to 0, got %d", v)
	}
}
