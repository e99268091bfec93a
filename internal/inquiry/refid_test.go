package inquiry

import (
	"strings"
	"testing"
	"time"
)

func TestNewReferenceID_Format(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		id, err := NewReferenceID(now)
		if err != nil {
			t.Fatalf("NewReferenceID: %v", err)
		}
		if !ReferencePattern.MatchString(id) {
			t.Fatalf("id %q does not match %s", id, ReferencePattern)
		}
		if !strings.HasPrefix(id, "INQ-20261014-") {
			t.Fatalf("id %q has wrong date segment", id)
		}
	}
}

func TestNewReferenceID_UsesUTCDate(t *testing.T) {
	// 01:30 on the 15th in India is still the 14th in UTC.
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, 10, 15, 1, 30, 0, 0, ist)

	id, err := NewReferenceID(now)
	if err != nil {
		t.Fatalf("NewReferenceID: %v", err)
	}
	if !strings.HasPrefix(id, "INQ-20261014-") {
		t.Errorf("expected UTC date 20261014, got %q", id)
	}
}

func TestNewReferenceID_Varies(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, _ := NewReferenceID(now)
		seen[id] = true
	}
	if len(seen) < 45 {
		t.Errorf("expected mostly distinct ids, got %d unique of 50", len(seen))
	}
}
