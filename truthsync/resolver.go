// Package truthsync implements the revision truth synchronization engine:
// when a document's approved revision diverges from its latest revision, the
// semantic index is forced to treat the approved content as if it were
// produced by the latest revision, without touching revision history.
package truthsync

import (
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/wiki"
)

// Resolver picks the revision whose content should become "truth" for a
// document at sync time.
type Resolver struct {
	content   wiki.ContentStore
	approvals wiki.ApprovalTracker
}

// NewResolver creates a target resolver
func NewResolver(content wiki.ContentStore, approvals wiki.ApprovalTracker) *Resolver {
	return &Resolver{
		content:   content,
		approvals: approvals,
	}
}

// Resolve returns the target revision id for the document.
// Precedence, first non-empty wins:
//  1. explicit override supplied by the caller (non-zero)
//  2. the currently approved revision
//  3. the document's latest revision
//
// Whether the resolved revision actually exists is checked downstream by the
// materializer, not here.
func (r *Resolver) Resolve(doc wiki.DocumentID, override int64) (int64, error) {
	if override > 0 {
		return override, nil
	}

	if approved, ok, err := r.approvals.ApprovedRevisionID(doc); err != nil {
		return 0, err
	} else if ok {
		return approved, nil
	}

	return r.content.GetLatestRevisionID(doc)
}
