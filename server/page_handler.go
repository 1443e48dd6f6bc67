package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/truthsync"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// HandleDocument serves document pages and drives the staged sync workflow.
//
// The workflow is a cooperative, request-per-phase protocol: each request is
// a complete unit of work and all cross-phase state travels in the URL.
//
//	action=approve|unapprove  -> PHASE1: change approval state, enqueue the
//	                             fallback job, render the overlay at 0%.
//	                             No reconciliation work happens here.
//	syncstage=2&revsync=<id>  -> PHASE2: release the session lock, run the
//	                             full reconciliation pass synchronously,
//	                             render the overlay continuing at 85%.
//	action=purge (POST)       -> drop the document's render cache entry.
func (s *Server) HandleDocument(w http.ResponseWriter, r *http.Request) {
	doc := docFromRequest(r)

	release := s.sessions.Acquire(sessionID(w, r))
	defer release()

	q := r.URL.Query()
	switch {
	case q.Get("action") == "purge":
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		s.cache.Invalidate(doc)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"purged":   true,
			"document": doc.String(),
		})

	case q.Get("action") == "approve":
		s.handleApprove(w, r, doc)

	case q.Get("action") == "unapprove":
		s.handleUnapprove(w, r, doc)

	case q.Get("syncstage") == "2":
		s.handleSyncPhase2(w, r, doc, release)

	default:
		s.servePage(w, doc, "")
	}
}

// handleApprove marks a revision approved and enters PHASE1 of the workflow.
// The fallback job is enqueued unconditionally: even if the client never
// follows the redirect chain, eventual consistency is guaranteed.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, doc wiki.DocumentID) {
	revID, err := parseRevID(r.URL.Query().Get("rev"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rev parameter")
		return
	}
	if revID == 0 {
		latest, err := s.store.GetLatestRevisionID(doc)
		if err != nil {
			s.respondStoreError(w, doc, err)
			return
		}
		revID = latest
	}

	if _, err := s.store.GetRevisionByID(revID); err != nil {
		s.respondStoreError(w, doc, err)
		return
	}

	if err := s.store.Approve(doc, revID); err != nil {
		s.respondStoreError(w, doc, err)
		return
	}
	s.cache.Invalidate(doc)

	truthsync.EnqueueReconciliation(s.queue, doc, s.logger)

	s.enterPhase1(w, r, doc)
}

// handleUnapprove clears approval state and enters PHASE1
func (s *Server) handleUnapprove(w http.ResponseWriter, r *http.Request, doc wiki.DocumentID) {
	if err := s.store.Unapprove(doc); err != nil {
		s.respondStoreError(w, doc, err)
		return
	}
	s.cache.Invalidate(doc)

	truthsync.EnqueueReconciliation(s.queue, doc, s.logger)

	s.enterPhase1(w, r, doc)
}

// enterPhase1 renders the progress overlay at 0% and returns immediately.
// The target revision is resolved for display only; the actual pass in
// phase 2 re-resolves everything. When the sync capability is off the
// staged workflow is skipped entirely.
func (s *Server) enterPhase1(w http.ResponseWriter, r *http.Request, doc wiki.DocumentID) {
	if !s.engine.Enabled() {
		http.Redirect(w, r, docURL(doc), http.StatusSeeOther)
		return
	}

	target, err := s.engine.Resolve(doc, 0)
	if err != nil {
		s.logger.Errorw("Failed to resolve target revision for phase 1",
			"document", doc.String(),
			"error", err,
		)
		http.Redirect(w, r, docURL(doc), http.StatusSeeOther)
		return
	}

	overlay, err := renderOverlay(s.overlayPayload(doc, "1", target))
	if err != nil {
		s.logger.Errorw("Failed to render phase 1 overlay", "error", err)
		http.Redirect(w, r, docURL(doc), http.StatusSeeOther)
		return
	}

	s.servePage(w, doc, overlay)
}

// handleSyncPhase2 runs the reconciliation pass synchronously inside the
// page render. The session lock is released first so the client's upcoming
// purge POST is not serialized behind this request. Failures are logged and
// swallowed: nothing from the sync engine may become a fatal error during a
// page render, the fallback job is the authoritative retry path.
func (s *Server) handleSyncPhase2(w http.ResponseWriter, r *http.Request, doc wiki.DocumentID, release func()) {
	release()

	override, err := parseRevID(r.URL.Query().Get("revsync"))
	if err != nil {
		s.logger.Warnw("Ignoring invalid revsync override",
			"document", doc.String(),
			"revsync", r.URL.Query().Get("revsync"),
		)
		override = 0
	}

	if s.engine.Enabled() {
		if err := s.engine.SyncDocument(r.Context(), doc, override); err != nil {
			s.logger.Errorw("Reconciliation failed",
				"document", doc.String(),
				"override_rev_id", override,
				"error", err,
			)
		}
	}

	overlay, err := renderOverlay(s.overlayPayload(doc, "2", override))
	if err != nil {
		s.logger.Errorw("Failed to render phase 2 overlay", "error", err)
		s.servePage(w, doc, "")
		return
	}

	s.servePage(w, doc, overlay)
}

// servePage writes the rendered document page, with the overlay injected
// before </body> when present
func (s *Server) servePage(w http.ResponseWriter, doc wiki.DocumentID, overlay string) {
	html, err := s.renderDocument(doc)
	if err != nil {
		s.respondStoreError(w, doc, err)
		return
	}

	if overlay != "" {
		if idx := strings.LastIndex(html, "</body>"); idx >= 0 {
			html = html[:idx] + overlay + html[idx:]
		} else {
			html += overlay
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func (s *Server) respondStoreError(w http.ResponseWriter, doc wiki.DocumentID, err error) {
	if errors.IsNotFoundError(err) {
		writeError(w, http.StatusNotFound, "document or revision not found: "+doc.String())
		return
	}
	s.logger.Errorw("Store error",
		"document", doc.String(),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) overlayPayload(doc wiki.DocumentID, stage string, targetRevID int64) overlayPayload {
	plain := docURL(doc)
	return overlayPayload{
		URL:             plain,
		Stage:           stage,
		TargetRevID:     targetRevID,
		PurgeURL:        plain + "?action=purge",
		AdvanceDelayMS:  s.cfg.Sync.AdvanceDelayMS,
		RedirectDelayMS: s.cfg.Sync.RedirectDelayMS,
		CompleteDelayMS: s.cfg.Sync.CompleteDelayMS,
	}
}

// docFromRequest extracts the document identity from the route.
// The single-segment form addresses the main (empty) namespace.
func docFromRequest(r *http.Request) wiki.DocumentID {
	return wiki.DocumentID{
		Namespace: r.PathValue("namespace"),
		Title:     r.PathValue("title"),
	}
}

// docURL builds the plain document URL (no query parameters)
func docURL(doc wiki.DocumentID) string {
	if doc.Namespace == "" {
		return "/wiki/" + url.PathEscape(doc.Title)
	}
	return "/wiki/" + url.PathEscape(doc.Namespace) + "/" + url.PathEscape(doc.Title)
}

// parseRevID parses a revision id query parameter ("" means absent)
func parseRevID(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, errors.NewInvalidRequestError("invalid revision id %q", raw)
	}
	return id, nil
}
