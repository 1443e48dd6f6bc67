package jobs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
	enginetest "github.com/walkwithdeath/SMWApprovedRevsDataSync/internal/testing"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(enginetest.CreateTestDB(t))

	job, err := NewJob("truthsync.reconcile", "Welcome", json.RawMessage(`{"title":"Welcome"}`))
	require.NoError(t, err)
	require.NoError(t, store.CreateJob(job))

	got, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "truthsync.reconcile", got.HandlerName)
	assert.Equal(t, "Welcome", got.Source)
	assert.Equal(t, JobStatusQueued, got.Status)
	assert.JSONEq(t, `{"title":"Welcome"}`, string(got.Payload))
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)
}

func TestStore_CreateWithoutPayload(t *testing.T) {
	store := NewStore(enginetest.CreateTestDB(t))

	job, err := NewJob("truthsync.reconcile", "Welcome", nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateJob(job))

	got, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Payload)
}

func TestStore_UpdateMissingJob(t *testing.T) {
	store := NewStore(enginetest.CreateTestDB(t))

	job, err := NewJob("truthsync.reconcile", "Welcome", nil)
	require.NoError(t, err)

	// Never created; update must report not-found via RowsAffected
	err = store.UpdateJob(job)
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStore_ListFiltersByStatus(t *testing.T) {
	store := NewStore(enginetest.CreateTestDB(t))

	a, _ := NewJob("truthsync.reconcile", "A", nil)
	b, _ := NewJob("truthsync.reconcile", "B", nil)
	require.NoError(t, store.CreateJob(a))
	require.NoError(t, store.CreateJob(b))

	b.Start()
	require.NoError(t, store.UpdateJob(b))

	queued := JobStatusQueued
	list, err := store.ListJobs(&queued, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	all, err := store.ListJobs(nil, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNewJob_RequiresHandlerName(t *testing.T) {
	_, err := NewJob("", "source", nil)
	assert.Error(t, err)
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{"queued", "running", "completed", "failed", "cancelled"} {
		assert.True(t, IsValidStatus(s), s)
	}
	assert.False(t, IsValidStatus("pending"))
	assert.False(t, IsValidStatus(""))
}
