package truthsync

import (
	"go.uber.org/zap"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/semantic"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// Index is the slice of the semantic index the reconciler writes through.
// The reconciler is the only component permitted to clear or replace a
// document's structured data.
type Index interface {
	ClearData(doc wiki.DocumentID) error
	UpdateData(sd *semantic.StructuredData) error
}

// RenderCache invalidates cached page renders so readers immediately observe
// the reconciled state
type RenderCache interface {
	Invalidate(doc wiki.DocumentID)
}

// Reconciler replaces a document's indexed structured data and invalidates
// its render cache. This is the single commit point of the engine; it is
// idempotent and safe to repeat.
type Reconciler struct {
	index  Index
	cache  RenderCache
	logger *zap.SugaredLogger
}

// NewReconciler creates an index reconciler
func NewReconciler(index Index, cache RenderCache, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		index:  index,
		cache:  cache,
		logger: logger,
	}
}

// Reconcile clears all previously stored structured data for the document,
// writes the restamped data, then invalidates the document's render cache.
// Cache invalidation is best-effort: it never rolls back the index write.
// Clear-then-write leaves the document cleared-but-not-rewritten when the
// write fails; the fallback job corrects that on a later pass.
func (rc *Reconciler) Reconcile(doc wiki.DocumentID, sd *semantic.StructuredData) error {
	if err := rc.index.ClearData(doc); err != nil {
		return errors.Wrapf(err, "failed to clear index for %s", doc)
	}

	if err := rc.index.UpdateData(sd); err != nil {
		return errors.Wrapf(err, "failed to write index for %s", doc)
	}

	if rc.cache != nil {
		rc.cache.Invalidate(doc)
	}

	if rc.logger != nil {
		rc.logger.Infow("Index reconciled",
			"document", doc.String(),
			"facts", len(sd.Facts),
			"version_stamp", sd.VersionStamp,
		)
	}

	return nil
}
