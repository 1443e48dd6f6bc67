package truthsync

import (
	"testing"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/semantic"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

func TestRestamp(t *testing.T) {
	original := &semantic.StructuredData{
		Document:     wiki.DocumentID{Title: "Welcome"},
		Facts:        []semantic.Fact{{Property: "X", Value: "0"}},
		VersionStamp: 4,
	}

	stamped := Restamp(original, 10)

	if stamped.VersionStamp != 10 {
		t.Errorf("stamped VersionStamp = %d, want 10", stamped.VersionStamp)
	}
	if original.VersionStamp != 4 {
		t.Errorf("original VersionStamp mutated to %d, want 4", original.VersionStamp)
	}
	if len(stamped.Facts) != 1 || stamped.Facts[0] != original.Facts[0] {
		t.Errorf("stamped facts = %v, want copy of %v", stamped.Facts, original.Facts)
	}

	// The fact slice is a copy, not shared backing storage
	stamped.Facts[0].Value = "mutated"
	if original.Facts[0].Value != "0" {
		t.Error("mutating stamped facts leaked into the original")
	}
}
