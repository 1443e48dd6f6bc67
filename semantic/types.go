// Package semantic derives structured property/value facts from raw document
// content and stores the current fact set per document in a SQLite index.
package semantic

import (
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// Fact is a single property/value assertion extracted from content
type Fact struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// StructuredData is the derived, queryable representation of one revision's
// content. The index keys it by document identity, not revision id: there is
// one current StructuredData set per document, tagged with a VersionStamp
// used for freshness comparisons.
type StructuredData struct {
	Document wiki.DocumentID `json:"document"`
	Facts    []Fact          `json:"facts"`

	// VersionStamp is the revision id this data claims to have been derived
	// from. The reconciler deliberately overwrites it with the document's
	// latest revision id, which may differ from the revision the content
	// actually came from.
	VersionStamp int64 `json:"version_stamp"`
}

// Get returns the values recorded for a property
func (sd *StructuredData) Get(property string) []string {
	var values []string
	for _, f := range sd.Facts {
		if f.Property == property {
			values = append(values, f.Value)
		}
	}
	return values
}
