package server

import (
	"encoding/json"
	"net/http"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/jobs"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// HandleHealth reports process liveness and queue depth
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queue.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read queue stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"sync_enabled": s.engine.Enabled(),
		"jobs":         stats,
	})
}

type createDocumentRequest struct {
	Namespace string `json:"namespace"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// HandleCreateDocument creates a document with its first revision and runs
// the normal save pipeline: derive structured data and index it stamped
// with the new revision id.
func (s *Server) HandleCreateDocument(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	doc := wiki.DocumentID{Namespace: req.Namespace, Title: req.Title}
	if err := s.store.CreateDocument(doc); err != nil {
		s.logger.Errorw("Failed to create document", "document", doc.String(), "error", err)
		writeError(w, http.StatusConflict, "failed to create document")
		return
	}

	revID, err := s.saveRevision(doc, req.Content)
	if err != nil {
		s.logger.Errorw("Failed to save first revision", "document", doc.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save revision")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"document": doc,
		"rev_id":   revID,
	})
}

type addRevisionRequest struct {
	Content string `json:"content"`
}

// HandleAddRevision appends a revision to an existing document (normal save)
func (s *Server) HandleAddRevision(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	doc := docFromRequest(r)
	if _, err := s.store.GetDocument(doc); err != nil {
		s.respondStoreError(w, doc, err)
		return
	}

	var req addRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	revID, err := s.saveRevision(doc, req.Content)
	if err != nil {
		s.logger.Errorw("Failed to save revision", "document", doc.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save revision")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"document": doc,
		"rev_id":   revID,
	})
}

// saveRevision is the normal save pipeline: store the revision, index its
// derived data stamped with the new revision id, drop the cached render.
// When an approval is in place the indexed draft data will later be
// overwritten by reconciliation; that asymmetry is the point of the engine.
func (s *Server) saveRevision(doc wiki.DocumentID, content string) (int64, error) {
	revID, err := s.store.AddRevision(doc, content)
	if err != nil {
		return 0, err
	}

	if s.engine.Enabled() {
		sd := s.deriver.Derive(doc, revID, content)
		if err := s.index.UpdateData(sd); err != nil && !errors.IsStaleDataError(err) {
			s.logger.Errorw("Failed to index saved revision",
				"document", doc.String(),
				"rev_id", revID,
				"error", err,
			)
			// The save itself stands; the index catches up on the next pass
		}
	}

	s.cache.Invalidate(doc)
	return revID, nil
}

// HandleSemantic returns the document's currently indexed facts
func (s *Server) HandleSemantic(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	doc := docFromRequest(r)
	data, err := s.index.GetData(doc)
	if err != nil {
		s.logger.Errorw("Failed to read semantic data", "document", doc.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read semantic data")
		return
	}

	writeJSON(w, http.StatusOK, data)
}

// HandleJobs lists fallback reconciliation jobs, optionally by status
func (s *Server) HandleJobs(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	var statusFilter *jobs.JobStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		if !jobs.IsValidStatus(raw) {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		status := jobs.JobStatus(raw)
		statusFilter = &status
	}

	list, err := s.queue.ListJobs(statusFilter, 100)
	if err != nil {
		s.logger.Errorw("Failed to list jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": list,
	})
}

// HandleJob returns one job by id
func (s *Server) HandleJob(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	job, err := s.queue.GetJob(r.PathValue("id"))
	if err != nil {
		if errors.IsNotFoundError(err) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get job")
		return
	}

	writeJSON(w, http.StatusOK, job)
}
