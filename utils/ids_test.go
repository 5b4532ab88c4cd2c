package utils

import (
	"strings"
	"testing"
)

func TestDerivePlaceIDDeterministic(t *testing.T) {
	a := DerivePlaceID("pin-123")
	b := DerivePlaceID("pin-123")
	if a != b {
		t.Errorf("same pin id yielded different placeIds: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "place-") {
		t.Errorf("placeId %q missing place- prefix", a)
	}
}

func TestDerivePlaceIDDistinct(t *testing.T) {
	if DerivePlaceID("pin-1") == DerivePlaceID("pin-2") {
		t.Error("different pin ids must derive different placeIds")
	}
}

func TestGeneratePinIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GeneratePinID()
		if id == "" {
			t.Fatal("empty pin id generated")
		}
		if seen[id] {
			t.Fatalf("duplicate pin id %s", id)
		}
		seen[id] = true
	}
}

func TestValidatePinTag(t *testing.T) {
	valid := []string{"coffee", "late night", "rooftop-bar"}
	for _, tag := range valid {
		if !ValidatePinTag(tag) {
			t.Errorf("tag %q should be accepted", tag)
		}
	}
	invalid := []string{"", "   ", "a,b", "line\nbreak"}
	for _, tag := range invalid {
		if ValidatePinTag(tag) {
			t.Errorf("tag %q should be rejected", tag)
		}
	}
}
