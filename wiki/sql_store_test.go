package wiki

import (
	"testing"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	enginetest "github.com/walkwithdeath/SMWApprovedRevsDataSync/internal/testing"
)

// TestCreateAndGetDocument tests basic document round-trip
func TestCreateAndGetDocument(t *testing.T) {
	db := enginetest.CreateTestDB(t)
	store := NewSQLStore(db, nil)

	doc := DocumentID{Namespace: "Policy", Title: "Style_guide"}
	if err := store.CreateDocument(doc); err != nil {
		t.Fatalf("CreateDocument() error: %v", err)
	}

	got, err := store.GetDocument(doc)
	if err != nil {
		t.Fatalf("GetDocument() error: %v", err)
	}
	if got.ID != doc {
		t.Errorf("GetDocument() ID = %v, want %v", got.ID, doc)
	}
	if got.LatestRevID != 0 {
		t.Errorf("new document LatestRevID = %d, want 0", got.LatestRevID)
	}
}

// TestGetDocument_NotFound tests lookup of a missing document
func TestGetDocument_NotFound(t *testing.T) {
	db := enginetest.CreateTestDB(t)
	store := NewSQLStore(db, nil)

	_, err := store.GetDocument(DocumentID{Title: "Nope"})
	if !errors.IsNotFoundError(err) {
		t.Errorf("GetDocument() error = %v, want not-found", err)
	}
}

// TestAddRevision_AdvancesLatest tests that each revision advances latest_rev_id
func TestAddRevision_AdvancesLatest(t *testing.T) {
	db := enginetest.CreateTestDB(t)
	store := NewSQLStore(db, nil)

	doc := DocumentID{Title: "Welcome"}
	if err := store.CreateDocument(doc); err != nil {
		t.Fatalf("CreateDocument() error: %v", err)
	}

	first, err := store.AddRevision(doc, "first draft")
	if err != nil {
		t.Fatalf("AddRevision() error: %v", err)
	}
	second, err := store.AddRevision(doc, "second draft")
	if err != nil {
		t.Fatalf("AddRevision() error: %v", err)
	}
	if second <= first {
		t.Errorf("revision ids not monotonic: first=%d second=%d", first, second)
	}

	latest, err := store.GetLatestRevisionID(doc)
	if err != nil {
		t.Fatalf("GetLatestRevisionID() error: %v", err)
	}
	if latest != second {
		t.Errorf("GetLatestRevisionID() = %d, want %d", latest, second)
	}
}

// TestGetRevisionByID tests revision content round-trip and identity
func TestGetRevisionByID(t *testing.T) {
	db := enginetest.CreateTestDB(t)
	store := NewSQLStore(db, nil)

	doc := DocumentID{Namespace: "Help", Title: "Editing"}
	if err := store.CreateDocument(doc); err != nil {
		t.Fatalf("CreateDocument() error: %v", err)
	}
	revID, err := store.AddRevision(doc, "[[Topic::editing]]")
	if err != nil {
		t.Fatalf("AddRevision() error: %v", err)
	}

	rev, err := store.GetRevisionByID(revID)
	if err != nil {
		t.Fatalf("GetRevisionByID() error: %v", err)
	}
	if rev.Content != "[[Topic::editing]]" {
		t.Errorf("revision content = %q, want %q", rev.Content, "[[Topic::editing]]")
	}
	if rev.Document != doc {
		t.Errorf("revision document = %v, want %v", rev.Document, doc)
	}
}

// TestGetRevisionByID_NotFound tests the sentinel for missing revisions
func TestGetRevisionByID_NotFound(t *testing.T) {
	db := enginetest.CreateTestDB(t)
	store := NewSQLStore(db, nil)

	_, err := store.GetRevisionByID(999)
	if !errors.Is(err, errors.ErrRevisionNotFound) {
		t.Errorf("GetRevisionByID(999) error = %v, want ErrRevisionNotFound", err)
	}
}

// TestApprovalLifecycle tests approve, re-approve, and unapprove
func TestApprovalLifecycle(t *testing.T) {
	db := enginetest.CreateTestDB(t)
	store := NewSQLStore(db, nil)

	doc := DocumentID{Title: "Welcome"}
	if err := store.CreateDocument(doc); err != nil {
		t.Fatalf("CreateDocument() error: %v", err)
	}
	rev1, _ := store.AddRevision(doc, "v1")
	rev2, _ := store.AddRevision(doc, "v2")

	// No approval yet
	if _, ok, err := store.ApprovedRevisionID(doc); err != nil || ok {
		t.Fatalf("ApprovedRevisionID() = ok=%v err=%v, want ok=false err=nil", ok, err)
	}

	if err := store.Approve(doc, rev1); err != nil {
		t.Fatalf("Approve() error: %v", err)
	}
	if id, ok, _ := store.ApprovedRevisionID(doc); !ok || id != rev1 {
		t.Errorf("ApprovedRevisionID() = (%d, %v), want (%d, true)", id, ok, rev1)
	}

	// Re-approving replaces the existing approval
	if err := store.Approve(doc, rev2); err != nil {
		t.Fatalf("Approve() re-approve error: %v", err)
	}
	if id, ok, _ := store.ApprovedRevisionID(doc); !ok || id != rev2 {
		t.Errorf("ApprovedRevisionID() after re-approve = (%d, %v), want (%d, true)", id, ok, rev2)
	}

	if err := store.Unapprove(doc); err != nil {
		t.Fatalf("Unapprove() error: %v", err)
	}
	if _, ok, _ := store.ApprovedRevisionID(doc); ok {
		t.Error("ApprovedRevisionID() ok = true after Unapprove, want false")
	}

	// Unapproving twice is a no-op
	if err := store.Unapprove(doc); err != nil {
		t.Errorf("second Unapprove() error: %v", err)
	}
}

// TestDocumentID_String tests canonical rendering of document identity
func TestDocumentID_String(t *testing.T) {
	tests := []struct {
		doc  DocumentID
		want string
	}{
		{DocumentID{Title: "Welcome"}, "Welcome"},
		{DocumentID{Namespace: "Policy", Title: "Style_guide"}, "Policy:Style_guide"},
	}
	for _, tt := range tests {
		if got := tt.doc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
