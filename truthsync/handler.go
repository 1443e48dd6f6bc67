package truthsync

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/jobs"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// ReconcileHandlerName identifies the fallback reconciliation job handler
const ReconcileHandlerName = "truthsync.reconcile"

// ReconcilePayload carries only the document identity. Target and latest
// revisions are deliberately NOT captured at enqueue time: execution
// re-resolves current state, so a job acting on stale information is
// impossible by construction.
type ReconcilePayload struct {
	Namespace string `json:"namespace"`
	Title     string `json:"title"`
}

// ReconcileHandler executes queued reconciliation jobs through the engine
type ReconcileHandler struct {
	engine *Engine
}

// NewReconcileHandler creates the fallback job handler
func NewReconcileHandler(engine *Engine) *ReconcileHandler {
	return &ReconcileHandler{engine: engine}
}

// Name implements jobs.JobHandler
func (h *ReconcileHandler) Name() string {
	return ReconcileHandlerName
}

// Execute implements jobs.JobHandler. Errors propagate so the worker pool
// retries: unlike the interactive path, the fallback is the authoritative
// consistency mechanism and must not swallow failures.
func (h *ReconcileHandler) Execute(ctx context.Context, job *jobs.Job) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return errors.Wrap(err, "failed to decode reconcile payload")
	}

	doc := wiki.DocumentID{Namespace: payload.Namespace, Title: payload.Title}
	return h.engine.SyncDocument(ctx, doc, 0)
}

// EnqueueReconciliation queues one reconciliation job for the document.
// Called on every observed approval-state change, whether or not the
// interactive workflow runs. It never fails: enqueue problems are logged
// and swallowed so the approval action itself is never blocked. An already
// pending job for the same document is reused rather than duplicated.
func EnqueueReconciliation(queue *jobs.Queue, doc wiki.DocumentID, logger *zap.SugaredLogger) {
	existing, err := queue.FindActiveJobBySourceAndHandler(doc.String(), ReconcileHandlerName)
	if err != nil {
		logger.Errorw("Failed to check for pending reconciliation job",
			"document", doc.String(),
			"error", err,
		)
		// Fall through and try to enqueue anyway
	}
	if existing != nil {
		logger.Debugw("Reconciliation already pending, skipping enqueue",
			"document", doc.String(),
			"job_id", existing.ID,
		)
		return
	}

	payload, err := json.Marshal(ReconcilePayload{
		Namespace: doc.Namespace,
		Title:     doc.Title,
	})
	if err != nil {
		logger.Errorw("Failed to marshal reconcile payload",
			"document", doc.String(),
			"error", err,
		)
		return
	}

	job, err := jobs.NewJob(ReconcileHandlerName, doc.String(), payload)
	if err != nil {
		logger.Errorw("Failed to create reconciliation job",
			"document", doc.String(),
			"error", err,
		)
		return
	}

	if err := queue.Enqueue(job); err != nil {
		logger.Errorw("Failed to enqueue reconciliation job",
			"document", doc.String(),
			"job_id", job.ID,
			"error", err,
		)
		return
	}

	logger.Infow("Reconciliation job enqueued",
		"document", doc.String(),
		"job_id", job.ID,
	)
}
