package truthsync

import (
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/semantic"
)

// Restamp overwrites the structured data's version stamp with the document's
// latest revision id and returns the restamped copy. The input is not
// modified.
//
// This is the crux of the design: the index accepts data only when its stamp
// is >= what it already holds for the document, so data derived from an
// older approved revision would normally be rejected or shadowed by a later
// save of the draft. Restamping makes the index treat approved-but-older
// content as authoritative for the current version.
func Restamp(sd *semantic.StructuredData, latestRevID int64) *semantic.StructuredData {
	stamped := &semantic.StructuredData{
		Document:     sd.Document,
		Facts:        make([]semantic.Fact, len(sd.Facts)),
		VersionStamp: latestRevID,
	}
	copy(stamped.Facts, sd.Facts)
	return stamped
}
