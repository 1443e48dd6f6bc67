package truthsync

import (
	"testing"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// fakeContent serves fixed revision state for resolver tests
type fakeContent struct {
	latest    int64
	latestErr error
}

func (f *fakeContent) GetDocument(doc wiki.DocumentID) (*wiki.Document, error) {
	return &wiki.Document{ID: doc, LatestRevID: f.latest}, nil
}

func (f *fakeContent) GetLatestRevisionID(doc wiki.DocumentID) (int64, error) {
	return f.latest, f.latestErr
}

func (f *fakeContent) GetRevisionByID(id int64) (*wiki.Revision, error) {
	return nil, errors.Wrapf(errors.ErrRevisionNotFound, "revision %d", id)
}

// fakeApprovals serves fixed approval state for resolver tests
type fakeApprovals struct {
	approved int64
	ok       bool
	err      error
}

func (f *fakeApprovals) ApprovedRevisionID(doc wiki.DocumentID) (int64, bool, error) {
	return f.approved, f.ok, f.err
}

func (f *fakeApprovals) Approve(doc wiki.DocumentID, revID int64) error { return nil }
func (f *fakeApprovals) Unapprove(doc wiki.DocumentID) error            { return nil }

func TestResolve_Precedence(t *testing.T) {
	doc := wiki.DocumentID{Title: "Welcome"}

	tests := []struct {
		name     string
		override int64
		approved int64
		hasAppr  bool
		latest   int64
		want     int64
	}{
		{"override wins over approval", 7, 4, true, 10, 7},
		{"override wins without approval", 7, 0, false, 10, 7},
		{"approval wins over latest", 0, 4, true, 10, 4},
		{"latest when nothing else", 0, 0, false, 10, 10},
		{"zero override is absent", 0, 4, true, 10, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(
				&fakeContent{latest: tt.latest},
				&fakeApprovals{approved: tt.approved, ok: tt.hasAppr},
			)
			got, err := r.Resolve(doc, tt.override)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolve_ApprovalLookupError(t *testing.T) {
	r := NewResolver(
		&fakeContent{latest: 10},
		&fakeApprovals{err: errors.New("approvals unavailable")},
	)
	if _, err := r.Resolve(wiki.DocumentID{Title: "Welcome"}, 0); err == nil {
		t.Error("Resolve() error = nil, want approval lookup error")
	}
}
