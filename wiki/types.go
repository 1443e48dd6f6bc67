// Package wiki models document identity, revisions, and approval state,
// and provides the SQLite-backed content store behind them.
package wiki

import "time"

// DocumentID is the stable identity of a piece of content: namespace + title.
// Documents own a sequence of revisions; identity never changes when content does.
type DocumentID struct {
	Namespace string `json:"namespace"`
	Title     string `json:"title"`
}

// String renders the canonical "Namespace:Title" form ("Title" for the main namespace)
func (d DocumentID) String() string {
	if d.Namespace == "" {
		return d.Title
	}
	return d.Namespace + ":" + d.Title
}

// Document is a content identity with its current latest revision
type Document struct {
	ID          DocumentID `json:"id"`
	LatestRevID int64      `json:"latest_rev_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Revision is immutable once created: it belongs to exactly one document and
// holds that document's raw content at a point in time. Revisions are never
// mutated or deleted.
type Revision struct {
	ID        int64      `json:"id"`
	Document  DocumentID `json:"document"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

// ContentStore supplies document and revision lookup
type ContentStore interface {
	// GetDocument returns the document, or errors.ErrNotFound
	GetDocument(doc DocumentID) (*Document, error)

	// GetLatestRevisionID returns the id of the document's latest revision
	// (0 when the document has no revisions)
	GetLatestRevisionID(doc DocumentID) (int64, error)

	// GetRevisionByID returns the revision with its raw content, or
	// errors.ErrRevisionNotFound
	GetRevisionByID(id int64) (*Revision, error)
}

// ApprovalTracker supplies which revision is "approved" for a document
type ApprovalTracker interface {
	// ApprovedRevisionID returns the approved revision id for the document.
	// ok is false when no revision is approved.
	ApprovedRevisionID(doc DocumentID) (id int64, ok bool, err error)

	// Approve marks a revision as the document's approved revision
	Approve(doc DocumentID, revID int64) error

	// Unapprove clears the document's approval state
	Unapprove(doc DocumentID) error
}
