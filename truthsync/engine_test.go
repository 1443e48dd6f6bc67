package truthsync

import (
	"context"
	"testing"

	"go.uber.org/zap"

	enginetest "github.com/walkwithdeath/SMWApprovedRevsDataSync/internal/testing"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/rendercache"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/semantic"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

type engineFixture struct {
	store  *wiki.SQLStore
	index  *semantic.SQLIndex
	cache  *rendercache.Cache
	engine *Engine
}

func newEngineFixture(t *testing.T, enabled bool) *engineFixture {
	t.Helper()

	db := enginetest.CreateTestDB(t)
	logger := zap.NewNop().Sugar()

	store := wiki.NewSQLStore(db, logger)
	index := semantic.NewSQLIndex(db, logger)
	cache := rendercache.New()

	return &engineFixture{
		store:  store,
		index:  index,
		cache:  cache,
		engine: NewEngine(store, store, index, cache, enabled, logger),
	}
}

// TestSyncDocument_SpoofsVersionStamp is the core scenario: the approved
// revision's content becomes the indexed truth, but stamped with the latest
// revision id so the index's freshness rule accepts it.
func TestSyncDocument_SpoofsVersionStamp(t *testing.T) {
	fx := newEngineFixture(t, true)
	doc := wiki.DocumentID{Title: "Welcome"}

	if err := fx.store.CreateDocument(doc); err != nil {
		t.Fatalf("CreateDocument() error: %v", err)
	}
	approvedRev, err := fx.store.AddRevision(doc, "X=0")
	if err != nil {
		t.Fatalf("AddRevision() error: %v", err)
	}
	latestRev, err := fx.store.AddRevision(doc, "X=1")
	if err != nil {
		t.Fatalf("AddRevision() error: %v", err)
	}
	if err := fx.store.Approve(doc, approvedRev); err != nil {
		t.Fatalf("Approve() error: %v", err)
	}

	// Simulate the normal save having indexed the latest (draft) content
	draft := semantic.NewDeriver().Derive(doc, latestRev, "X=1")
	if err := fx.index.UpdateData(draft); err != nil {
		t.Fatalf("UpdateData() error: %v", err)
	}

	if err := fx.engine.SyncDocument(context.Background(), doc, 0); err != nil {
		t.Fatalf("SyncDocument() error: %v", err)
	}

	// Content from the approved revision...
	values, err := fx.index.Query(doc, "X")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(values) != 1 || values[0] != "0" {
		t.Errorf("Query(X) = %v, want [0] (approved content)", values)
	}

	// ...stamped with the latest revision id
	stamp, ok, err := fx.index.VersionStamp(doc)
	if err != nil || !ok {
		t.Fatalf("VersionStamp() = ok=%v err=%v", ok, err)
	}
	if stamp != latestRev {
		t.Errorf("VersionStamp = %d, want latest %d", stamp, latestRev)
	}
}

// TestSyncDocument_NoApproval indexes the latest revision when no approval
// exists; the stamp then matches the content's actual revision.
func TestSyncDocument_NoApproval(t *testing.T) {
	fx := newEngineFixture(t, true)
	doc := wiki.DocumentID{Title: "Welcome"}

	if err := fx.store.CreateDocument(doc); err != nil {
		t.Fatalf("CreateDocument() error: %v", err)
	}
	latestRev, err := fx.store.AddRevision(doc, "[[Status::current]]")
	if err != nil {
		t.Fatalf("AddRevision() error: %v", err)
	}

	if err := fx.engine.SyncDocument(context.Background(), doc, 0); err != nil {
		t.Fatalf("SyncDocument() error: %v", err)
	}

	values, _ := fx.index.Query(doc, "Status")
	if len(values) != 1 || values[0] != "current" {
		t.Errorf("Query(Status) = %v, want [current]", values)
	}
	stamp, _, _ := fx.index.VersionStamp(doc)
	if stamp != latestRev {
		t.Errorf("VersionStamp = %d, want %d", stamp, latestRev)
	}
}

// TestSyncDocument_Idempotent runs the same pass twice; the second run must
// converge on the identical index state without error
func TestSyncDocument_Idempotent(t *testing.T) {
	fx := newEngineFixture(t, true)
	doc := wiki.DocumentID{Title: "Welcome"}

	fx.store.CreateDocument(doc)
	approvedRev, _ := fx.store.AddRevision(doc, "X=0")
	fx.store.AddRevision(doc, "X=1")
	fx.store.Approve(doc, approvedRev)

	for i := 0; i < 2; i++ {
		if err := fx.engine.SyncDocument(context.Background(), doc, 0); err != nil {
			t.Fatalf("SyncDocument() pass %d error: %v", i+1, err)
		}
	}

	values, _ := fx.index.Query(doc, "X")
	if len(values) != 1 || values[0] != "0" {
		t.Errorf("Query(X) after repeated sync = %v, want [0]", values)
	}
}

// TestSyncDocument_SubsequentSaveStillAccepted verifies the point of the
// spoofed stamp: after reconciliation, a newer save's index write is not
// rejected as stale.
func TestSyncDocument_SubsequentSaveStillAccepted(t *testing.T) {
	fx := newEngineFixture(t, true)
	doc := wiki.DocumentID{Title: "Welcome"}

	fx.store.CreateDocument(doc)
	approvedRev, _ := fx.store.AddRevision(doc, "X=0")
	fx.store.AddRevision(doc, "X=1")
	fx.store.Approve(doc, approvedRev)

	if err := fx.engine.SyncDocument(context.Background(), doc, 0); err != nil {
		t.Fatalf("SyncDocument() error: %v", err)
	}

	newRev, err := fx.store.AddRevision(doc, "X=2")
	if err != nil {
		t.Fatalf("AddRevision() error: %v", err)
	}
	newData := semantic.NewDeriver().Derive(doc, newRev, "X=2")
	if err := fx.index.UpdateData(newData); err != nil {
		t.Errorf("UpdateData() for newer save error = %v, want nil", err)
	}
}

// countingIndex records index calls without storing anything
type countingIndex struct {
	clears  int
	updates int
}

func (c *countingIndex) ClearData(doc wiki.DocumentID) error {
	c.clears++
	return nil
}

func (c *countingIndex) UpdateData(sd *semantic.StructuredData) error {
	c.updates++
	return nil
}

// TestSyncDocument_MissingTargetSkips verifies that a vanished target
// revision aborts the pass before any index mutation
func TestSyncDocument_MissingTargetSkips(t *testing.T) {
	db := enginetest.CreateTestDB(t)
	logger := zap.NewNop().Sugar()
	store := wiki.NewSQLStore(db, logger)
	index := &countingIndex{}
	engine := NewEngine(store, store, index, rendercache.New(), true, logger)

	doc := wiki.DocumentID{Title: "Welcome"}
	store.CreateDocument(doc)
	store.AddRevision(doc, "content")

	if err := engine.SyncDocument(context.Background(), doc, 999); err != nil {
		t.Fatalf("SyncDocument() with missing override error = %v, want nil (skip)", err)
	}
	if index.clears != 0 || index.updates != 0 {
		t.Errorf("index calls = %d clears, %d updates, want 0/0", index.clears, index.updates)
	}
}

// TestSyncDocument_NoRevisionsSkips tests a document with no revisions yet
func TestSyncDocument_NoRevisionsSkips(t *testing.T) {
	fx := newEngineFixture(t, true)
	doc := wiki.DocumentID{Title: "Empty"}

	fx.store.CreateDocument(doc)

	if err := fx.engine.SyncDocument(context.Background(), doc, 0); err != nil {
		t.Fatalf("SyncDocument() on empty document error = %v, want nil", err)
	}
	if _, ok, _ := fx.index.VersionStamp(doc); ok {
		t.Error("index holds data for a document with no revisions")
	}
}

// TestSyncDocument_DisabledIsNoOp tests the capability toggle
func TestSyncDocument_DisabledIsNoOp(t *testing.T) {
	fx := newEngineFixture(t, false)
	doc := wiki.DocumentID{Title: "Welcome"}

	fx.store.CreateDocument(doc)
	rev, _ := fx.store.AddRevision(doc, "X=1")
	fx.store.Approve(doc, rev)

	if fx.engine.Enabled() {
		t.Fatal("Enabled() = true, want false")
	}
	if err := fx.engine.SyncDocument(context.Background(), doc, 0); err != nil {
		t.Fatalf("SyncDocument() disabled error = %v, want nil", err)
	}
	if _, ok, _ := fx.index.VersionStamp(doc); ok {
		t.Error("disabled engine wrote to the index")
	}
}

// TestSyncDocument_CancelledContext tests early exit on a dead context
func TestSyncDocument_CancelledContext(t *testing.T) {
	fx := newEngineFixture(t, true)
	doc := wiki.DocumentID{Title: "Welcome"}
	fx.store.CreateDocument(doc)
	fx.store.AddRevision(doc, "X=1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := fx.engine.SyncDocument(ctx, doc, 0); err == nil {
		t.Error("SyncDocument() with cancelled context error = nil, want context error")
	}
}

// TestSyncDocument_InvalidatesRenderCache tests that reconciliation drops the
// document's cached render
func TestSyncDocument_InvalidatesRenderCache(t *testing.T) {
	fx := newEngineFixture(t, true)
	doc := wiki.DocumentID{Title: "Welcome"}

	fx.store.CreateDocument(doc)
	fx.store.AddRevision(doc, "X=1")
	fx.cache.Put(doc, "<html>stale</html>")

	if err := fx.engine.SyncDocument(context.Background(), doc, 0); err != nil {
		t.Fatalf("SyncDocument() error: %v", err)
	}
	if _, ok := fx.cache.Get(doc); ok {
		t.Error("render cache entry survived reconciliation")
	}
}
