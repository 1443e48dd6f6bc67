package wiki

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
)

// Query constants
const (
	documentInsertQuery = `
		INSERT INTO documents (namespace, title, latest_rev_id)
		VALUES (?, ?, 0)`

	documentSelectQuery = `
		SELECT namespace, title, latest_rev_id, created_at
		FROM documents WHERE namespace = ? AND title = ?`

	documentLatestRevQuery = `
		SELECT latest_rev_id FROM documents WHERE namespace = ? AND title = ?`

	revisionInsertQuery = `
		INSERT INTO revisions (namespace, title, content, created_at)
		VALUES (?, ?, ?, ?)`

	revisionSelectQuery = `
		SELECT id, namespace, title, content, created_at
		FROM revisions WHERE id = ?`

	approvalUpsertQuery = `
		INSERT INTO approvals (namespace, title, rev_id, approved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, title) DO UPDATE SET rev_id = excluded.rev_id, approved_at = excluded.approved_at`

	approvalSelectQuery = `
		SELECT rev_id FROM approvals WHERE namespace = ? AND title = ?`

	approvalDeleteQuery = `
		DELETE FROM approvals WHERE namespace = ? AND title = ?`
)

// SQLStore implements ContentStore and ApprovalTracker with a SQLite backend
type SQLStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewSQLStore creates a new SQL-based content store
func NewSQLStore(db *sql.DB, logger *zap.SugaredLogger) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: logger,
	}
}

// CreateDocument inserts a new document with no revisions yet
func (s *SQLStore) CreateDocument(doc DocumentID) error {
	if _, err := s.db.Exec(documentInsertQuery, doc.Namespace, doc.Title); err != nil {
		return errors.Wrapf(err, "failed to create document %s", doc)
	}
	return nil
}

// GetDocument returns the document, or errors.ErrNotFound
func (s *SQLStore) GetDocument(doc DocumentID) (*Document, error) {
	var d Document
	err := s.db.QueryRow(documentSelectQuery, doc.Namespace, doc.Title).
		Scan(&d.ID.Namespace, &d.ID.Title, &d.LatestRevID, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("document %s", doc)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get document %s", doc)
	}
	return &d, nil
}

// AddRevision appends a new revision to the document and advances the
// document's latest revision id. The revision id is assigned by the database.
func (s *SQLStore) AddRevision(doc DocumentID, content string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "begin tx for revision")
	}

	res, err := tx.Exec(revisionInsertQuery, doc.Namespace, doc.Title, content, time.Now())
	if err != nil {
		tx.Rollback()
		return 0, errors.Wrapf(err, "failed to insert revision for %s", doc)
	}

	revID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, errors.Wrap(err, "failed to read revision id")
	}

	if _, err := tx.Exec(
		"UPDATE documents SET latest_rev_id = ? WHERE namespace = ? AND title = ?",
		revID, doc.Namespace, doc.Title,
	); err != nil {
		tx.Rollback()
		return 0, errors.Wrapf(err, "failed to advance latest revision for %s", doc)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit revision")
	}

	if s.logger != nil {
		s.logger.Debugw("Revision added",
			"document", doc.String(),
			"rev_id", revID,
		)
	}

	return revID, nil
}

// GetLatestRevisionID returns the document's latest revision id (0 when the
// document has no revisions)
func (s *SQLStore) GetLatestRevisionID(doc DocumentID) (int64, error) {
	var revID int64
	err := s.db.QueryRow(documentLatestRevQuery, doc.Namespace, doc.Title).Scan(&revID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.NewNotFoundError("document %s", doc)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get latest revision for %s", doc)
	}
	return revID, nil
}

// GetRevisionByID returns the revision with its raw content, or
// errors.ErrRevisionNotFound
func (s *SQLStore) GetRevisionByID(id int64) (*Revision, error) {
	var rev Revision
	err := s.db.QueryRow(revisionSelectQuery, id).
		Scan(&rev.ID, &rev.Document.Namespace, &rev.Document.Title, &rev.Content, &rev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrRevisionNotFound, "revision %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get revision %d", id)
	}
	return &rev, nil
}

// Approve marks a revision as the document's approved revision
func (s *SQLStore) Approve(doc DocumentID, revID int64) error {
	if _, err := s.db.Exec(approvalUpsertQuery, doc.Namespace, doc.Title, revID, time.Now()); err != nil {
		return errors.Wrapf(err, "failed to approve revision %d for %s", revID, doc)
	}
	if s.logger != nil {
		s.logger.Infow("Revision approved",
			"document", doc.String(),
			"rev_id", revID,
		)
	}
	return nil
}

// Unapprove clears the document's approval state
func (s *SQLStore) Unapprove(doc DocumentID) error {
	if _, err := s.db.Exec(approvalDeleteQuery, doc.Namespace, doc.Title); err != nil {
		return errors.Wrapf(err, "failed to unapprove %s", doc)
	}
	if s.logger != nil {
		s.logger.Infow("Approval cleared",
			"document", doc.String(),
		)
	}
	return nil
}

// ApprovedRevisionID returns the approved revision id for the document.
// ok is false when no revision is approved.
func (s *SQLStore) ApprovedRevisionID(doc DocumentID) (int64, bool, error) {
	var revID int64
	err := s.db.QueryRow(approvalSelectQuery, doc.Namespace, doc.Title).Scan(&revID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "failed to get approved revision for %s", doc)
	}
	return revID, true, nil
}
