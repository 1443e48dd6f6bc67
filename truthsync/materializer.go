package truthsync

import (
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/semantic"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// Materializer fetches raw content for a resolved revision and derives
// structured data from it. This is the normal index-a-saved-page pipeline
// invoked on-demand for an arbitrary historical revision.
type Materializer struct {
	content wiki.ContentStore
	deriver *semantic.Deriver
}

// NewMaterializer creates a content materializer
func NewMaterializer(content wiki.ContentStore, deriver *semantic.Deriver) *Materializer {
	return &Materializer{
		content: content,
		deriver: deriver,
	}
}

// Materialize derives structured data from the target revision's raw content.
// Returns errors.ErrRevisionNotFound (wrapped) when the revision does not
// exist; the caller must then skip reconciliation entirely for this
// invocation. No index writes happen here.
func (m *Materializer) Materialize(doc wiki.DocumentID, targetRevID int64) (*semantic.StructuredData, error) {
	rev, err := m.content.GetRevisionByID(targetRevID)
	if err != nil {
		return nil, err
	}

	return m.deriver.Derive(doc, rev.ID, rev.Content), nil
}
