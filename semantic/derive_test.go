package semantic

import (
	"testing"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

func factSet(sd *StructuredData) map[Fact]bool {
	set := make(map[Fact]bool, len(sd.Facts))
	for _, f := range sd.Facts {
		set[f] = true
	}
	return set
}

// TestDerive_Annotations tests inline [[Property::value]] extraction
func TestDerive_Annotations(t *testing.T) {
	doc := wiki.DocumentID{Title: "Welcome"}
	sd := NewDeriver().Derive(doc, 7, "Intro text [[Status::draft]] more [[Author::alice]] text")

	if sd.VersionStamp != 7 {
		t.Errorf("VersionStamp = %d, want 7", sd.VersionStamp)
	}
	facts := factSet(sd)
	if !facts[Fact{Property: "Status", Value: "draft"}] {
		t.Error("missing fact Status=draft")
	}
	if !facts[Fact{Property: "Author", Value: "alice"}] {
		t.Error("missing fact Author=alice")
	}
	if len(sd.Facts) != 2 {
		t.Errorf("fact count = %d, want 2", len(sd.Facts))
	}
}

// TestDerive_KeyValueLines tests whole-line key=value extraction
func TestDerive_KeyValueLines(t *testing.T) {
	content := "X=1\nsome prose line\nColor = blue\n"
	sd := NewDeriver().Derive(wiki.DocumentID{Title: "T"}, 1, content)

	facts := factSet(sd)
	if !facts[Fact{Property: "X", Value: "1"}] {
		t.Error("missing fact X=1")
	}
	if !facts[Fact{Property: "Color", Value: "blue"}] {
		t.Error("missing fact Color=blue (whitespace should be trimmed)")
	}
	if len(sd.Facts) != 2 {
		t.Errorf("fact count = %d, want 2: %v", len(sd.Facts), sd.Facts)
	}
}

// TestDerive_Deduplicates tests that repeated pairs collapse to one fact
func TestDerive_Deduplicates(t *testing.T) {
	content := "[[Status::draft]] and again [[Status::draft]]"
	sd := NewDeriver().Derive(wiki.DocumentID{Title: "T"}, 1, content)
	if len(sd.Facts) != 1 {
		t.Errorf("fact count = %d, want 1", len(sd.Facts))
	}
}

// TestDerive_IgnoresMalformed tests annotation and assignment edge cases
func TestDerive_IgnoresMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty content", "", 0},
		{"plain prose", "nothing structured here", 0},
		{"empty value", "[[Status::]]", 0},
		{"empty key assignment", "=value", 0},
		{"annotation line not double-parsed", "[[X::1]]", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sd := NewDeriver().Derive(wiki.DocumentID{Title: "T"}, 1, tt.content)
			if len(sd.Facts) != tt.want {
				t.Errorf("fact count = %d, want %d: %v", len(sd.Facts), tt.want, sd.Facts)
			}
		})
	}
}

// TestStructuredData_Get tests property value lookup on a derived set
func TestStructuredData_Get(t *testing.T) {
	sd := NewDeriver().Derive(wiki.DocumentID{Title: "T"}, 3, "[[X::1]]\n[[X::2]]\n[[Y::only]]")

	xs := sd.Get("X")
	if len(xs) != 2 {
		t.Fatalf("Get(X) = %v, want 2 values", xs)
	}
	if got := sd.Get("Missing"); len(got) != 0 {
		t.Errorf("Get(Missing) = %v, want empty", got)
	}
}
