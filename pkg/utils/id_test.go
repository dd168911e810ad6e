package utils

import (
	"strings"
	"testing"
)

func TestGenerateGroupID(t *testing.T) {
	id := GenerateGroupID()
	if !strings.HasPrefix(id, "grp-") {
		t.Fatalf("expected grp- prefix, got %s", id)
	}
	if id == GenerateGroupID() {
		t.Fatalf("expected unique group IDs")
	}
}

func TestGenerateSweepIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateSweepID()
		if seen[id] {
			t.Fatalf("duplicate sweep id %s", id)
		}
		seen[id] = true
	}
}

func TestRunIDStable(t *testing.T) {
	if got := RunID("grp-1", 3); got != "grp-1/run-0003" {
		t.Fatalf("unexpected run id %s", got)
	}
	if RunID("grp-1", 3) != RunID("grp-1", 3) {
		t.Fatalf("expected run id to be deterministic")
	}
}
