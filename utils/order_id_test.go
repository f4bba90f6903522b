package utils

import (
	"strings"
	"testing"
)

func TestGenerateOrderID_Prefix(t *testing.T) {
	id := GenerateOrderID(42)
	if !strings.HasPrefix(id, "SFT-") {
		t.Fatalf("expected SFT- prefix, got %s", id)
	}
	if !strings.HasSuffix(id, "42") {
		t.Fatalf("expected user id suffix, got %s", id)
	}
}

func TestGenerateOrderID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := GenerateOrderID(7)
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate order id after %d iterations: %s", i, id)
		}
		seen[id] = struct{}{}
	}
}
