package semantic

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// Query constants
const (
	semanticInsertQuery = `
		INSERT OR REPLACE INTO semantic_data (namespace, title, property, value, version_stamp, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	semanticClearQuery = `
		DELETE FROM semantic_data WHERE namespace = ? AND title = ?`

	semanticStampQuery = `
		SELECT MAX(version_stamp) FROM semantic_data WHERE namespace = ? AND title = ?`

	semanticFactsQuery = `
		SELECT property, value, version_stamp FROM semantic_data
		WHERE namespace = ? AND title = ?
		ORDER BY property, value`

	semanticValuesQuery = `
		SELECT value FROM semantic_data
		WHERE namespace = ? AND title = ? AND property = ?
		ORDER BY value`
)

// SQLIndex is the SQLite-backed semantic index. It holds one current
// StructuredData set per document. Writes obey the freshness rule: data is
// accepted only if its version stamp is >= what the index already has for
// the document; older stamps are rejected with errors.ErrStaleData.
type SQLIndex struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewSQLIndex creates a new SQL-backed semantic index
func NewSQLIndex(db *sql.DB, logger *zap.SugaredLogger) *SQLIndex {
	return &SQLIndex{
		db:     db,
		logger: logger,
	}
}

// ClearData removes all structured data for the document. Clearing a
// document with no data is a no-op, so repeated clears are safe.
func (x *SQLIndex) ClearData(doc wiki.DocumentID) error {
	if _, err := x.db.Exec(semanticClearQuery, doc.Namespace, doc.Title); err != nil {
		return errors.Wrapf(err, "failed to clear semantic data for %s", doc)
	}
	return nil
}

// UpdateData writes the structured data set for its document. All facts are
// written in one transaction so readers never observe a half-written set.
func (x *SQLIndex) UpdateData(sd *StructuredData) error {
	if sd == nil {
		return errors.New("structured data is nil")
	}

	current, ok, err := x.VersionStamp(sd.Document)
	if err != nil {
		return err
	}
	if ok && sd.VersionStamp < current {
		return errors.Wrapf(errors.ErrStaleData,
			"stamp %d < indexed %d for %s", sd.VersionStamp, current, sd.Document)
	}

	tx, err := x.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin tx for semantic update")
	}

	now := time.Now()
	for _, f := range sd.Facts {
		if _, err := tx.Exec(semanticInsertQuery,
			sd.Document.Namespace, sd.Document.Title,
			f.Property, f.Value, sd.VersionStamp, now,
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "failed to insert fact %s=%s for %s", f.Property, f.Value, sd.Document)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit semantic update")
	}

	if x.logger != nil {
		x.logger.Debugw("Semantic data updated",
			"document", sd.Document.String(),
			"facts", len(sd.Facts),
			"version_stamp", sd.VersionStamp,
		)
	}

	return nil
}

// VersionStamp returns the stamp of the document's indexed data.
// ok is false when the index holds no data for the document.
func (x *SQLIndex) VersionStamp(doc wiki.DocumentID) (int64, bool, error) {
	var stamp sql.NullInt64
	err := x.db.QueryRow(semanticStampQuery, doc.Namespace, doc.Title).Scan(&stamp)
	if err != nil {
		return 0, false, errors.Wrapf(err, "failed to get version stamp for %s", doc)
	}
	if !stamp.Valid {
		return 0, false, nil
	}
	return stamp.Int64, true, nil
}

// GetData returns the document's current structured data set.
// Returns an empty set (not an error) when nothing is indexed.
func (x *SQLIndex) GetData(doc wiki.DocumentID) (*StructuredData, error) {
	rows, err := x.db.Query(semanticFactsQuery, doc.Namespace, doc.Title)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query semantic data for %s", doc)
	}
	defer rows.Close()

	sd := &StructuredData{Document: doc}
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.Property, &f.Value, &sd.VersionStamp); err != nil {
			return nil, errors.Wrap(err, "failed to scan fact")
		}
		sd.Facts = append(sd.Facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate facts")
	}

	return sd, nil
}

// Query returns the values indexed for a property on the document
func (x *SQLIndex) Query(doc wiki.DocumentID, property string) ([]string, error) {
	rows, err := x.db.Query(semanticValuesQuery, doc.Namespace, doc.Title, property)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query %s on %s", property, doc)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "failed to scan value")
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate values")
	}

	return values, nil
}
