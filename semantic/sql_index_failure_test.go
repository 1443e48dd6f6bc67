package semantic

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// TestUpdateData_StampLookupFailure tests that a failing freshness check
// aborts before any write
func TestUpdateData_StampLookupFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT MAX\\(version_stamp\\)").
		WillReturnError(sqlmock.ErrCancelled)

	index := NewSQLIndex(db, nil)
	sd := &StructuredData{
		Document:     wiki.DocumentID{Title: "Welcome"},
		Facts:        []Fact{{Property: "X", Value: "1"}},
		VersionStamp: 5,
	}

	if err := index.UpdateData(sd); err == nil {
		t.Error("UpdateData() error = nil, want stamp lookup failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database calls: %v", err)
	}
}

// TestUpdateData_RollsBackOnInsertFailure tests that a mid-transaction
// insert failure rolls the whole write back
func TestUpdateData_RollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT MAX\\(version_stamp\\)").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT OR REPLACE INTO semantic_data").
		WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	index := NewSQLIndex(db, nil)
	sd := &StructuredData{
		Document:     wiki.DocumentID{Title: "Welcome"},
		Facts:        []Fact{{Property: "X", Value: "1"}},
		VersionStamp: 5,
	}

	if err := index.UpdateData(sd); err == nil {
		t.Error("UpdateData() error = nil, want insert failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("transaction not rolled back as expected: %v", err)
	}
}

// TestClearData_Failure tests error propagation from the delete
func TestClearData_Failure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM semantic_data").
		WillReturnError(sqlmock.ErrCancelled)

	index := NewSQLIndex(db, nil)
	if err := index.ClearData(wiki.DocumentID{Title: "Welcome"}); err == nil {
		t.Error("ClearData() error = nil, want delete failure")
	}
}
