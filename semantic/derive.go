package semantic

import (
	"regexp"
	"strings"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// annotationPattern matches inline [[Property::value]] annotations
var annotationPattern = regexp.MustCompile(`\[\[\s*([^:\[\]|]+?)\s*::\s*([^\[\]|]+?)\s*\]\]`)

// Deriver extracts structured facts from raw content. This is the same
// content-to-structured-data pipeline used for normal saves; the sync engine
// invokes it on-demand for arbitrary historical revisions.
type Deriver struct{}

// NewDeriver creates a content deriver
func NewDeriver() *Deriver {
	return &Deriver{}
}

// Derive parses raw content into a StructuredData set stamped with the
// revision id the content came from. Two syntaxes produce facts:
//
//	[[Property::value]]   inline annotations, anywhere in the text
//	key=value             whole-line assignments
//
// Duplicate property/value pairs collapse to one fact.
func (d *Deriver) Derive(doc wiki.DocumentID, revID int64, content string) *StructuredData {
	sd := &StructuredData{
		Document:     doc,
		VersionStamp: revID,
	}

	seen := make(map[Fact]bool)
	add := func(property, value string) {
		f := Fact{Property: strings.TrimSpace(property), Value: strings.TrimSpace(value)}
		if f.Property == "" || f.Value == "" || seen[f] {
			return
		}
		seen[f] = true
		sd.Facts = append(sd.Facts, f)
	}

	for _, m := range annotationPattern.FindAllStringSubmatch(content, -1) {
		add(m[1], m[2])
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[[") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		add(key, value)
	}

	return sd
}
