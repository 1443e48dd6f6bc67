package truthsync

import (
	"context"

	"go.uber.org/zap"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/semantic"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// Engine wires resolver, materializer, spoofer, and reconciler into the
// full reconciliation pass. Both the interactive phase-2 render and the
// fallback job execute the same pass; only error propagation differs.
type Engine struct {
	content      wiki.ContentStore
	resolver     *Resolver
	materializer *Materializer
	reconciler   *Reconciler
	enabled      bool
	logger       *zap.SugaredLogger
}

// NewEngine creates the sync engine. enabled is the process-wide capability
// toggle: when false, SyncDocument is a no-op (the semantic index is treated
// as absent).
func NewEngine(
	content wiki.ContentStore,
	approvals wiki.ApprovalTracker,
	index Index,
	cache RenderCache,
	enabled bool,
	logger *zap.SugaredLogger,
) *Engine {
	return &Engine{
		content:      content,
		resolver:     NewResolver(content, approvals),
		materializer: NewMaterializer(content, semantic.NewDeriver()),
		reconciler:   NewReconciler(index, cache, logger),
		enabled:      enabled,
		logger:       logger,
	}
}

// Enabled reports whether the semantic index capability is on
func (e *Engine) Enabled() bool {
	return e.enabled
}

// Resolve exposes target resolution for display purposes (phase 1 resolves
// the target without doing any reconciliation work)
func (e *Engine) Resolve(doc wiki.DocumentID, override int64) (int64, error) {
	return e.resolver.Resolve(doc, override)
}

// SyncDocument runs one reconciliation pass for the document:
// resolve target -> materialize -> restamp with latest -> reconcile index.
//
// State is read at call time, never captured earlier, so a pass executed
// long after it was requested still acts on current truth. A missing target
// revision skips the pass entirely (zero index calls); any other failure is
// returned for the caller to log or retry.
func (e *Engine) SyncDocument(ctx context.Context, doc wiki.DocumentID, override int64) error {
	if !e.enabled {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	latest, err := e.content.GetLatestRevisionID(doc)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve latest revision for %s", doc)
	}
	if latest == 0 {
		// Document has no revisions; nothing to index
		e.logger.Warnw("Reconciliation skipped",
			"document", doc.String(),
			"reason", "document has no revisions",
		)
		return nil
	}

	target, err := e.resolver.Resolve(doc, override)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve target revision for %s", doc)
	}

	sd, err := e.materializer.Materialize(doc, target)
	if errors.Is(err, errors.ErrRevisionNotFound) {
		// Skipped, nothing to fix: distinct from an attempted-and-failed pass
		e.logger.Warnw("Reconciliation skipped",
			"document", doc.String(),
			"target_rev_id", target,
			"reason", "target revision not found",
		)
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "failed to materialize revision %d for %s", target, doc)
	}

	stamped := Restamp(sd, latest)

	if err := e.reconciler.Reconcile(doc, stamped); err != nil {
		return err
	}

	e.logger.Infow("Document reconciled",
		"document", doc.String(),
		"target_rev_id", target,
		"latest_rev_id", latest,
		"spoofed", target != latest,
	)

	return nil
}
