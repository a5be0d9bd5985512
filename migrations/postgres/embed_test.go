package migrations

import (
	"strings"
	"testing"
)

func TestOrdered(t *testing.T) {
	stmts, err := Ordered()
	if err != nil {
		t.Fatalf("Ordered: %v", err)
	}
	if len(stmts) == 0 {
		t.Fatal("expected at least one migration")
	}
	if !strings.Contains(stmts[0], "signing_keys") {
		t.Fatalf("first migration should create signing_keys")
	}
}
