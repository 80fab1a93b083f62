package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/cli/internal/api"
	"github.com/docsage/cli/internal/viz"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutAndListThreads(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	older := api.Thread{ID: "t1", Title: "first", CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour), MessageCount: 2}
	newer := api.Thread{ID: "t2", Title: "second", CreatedAt: now, UpdatedAt: now, MessageCount: 4, SelectedDocuments: []string{"d1"}}

	require.NoError(t, c.PutThreads(ctx, []api.Thread{older, newer}))

	threads, err := c.ListThreads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "t2", threads[0].ID)
	assert.Equal(t, []string{"d1"}, threads[0].SelectedDocuments)
	assert.Equal(t, "t1", threads[1].ID)
}

func TestPutThread_Upsert(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	th := api.Thread{ID: "t1", Title: "before", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, c.PutThread(ctx, &th))

	th.Title = "after"
	th.MessageCount = 3
	require.NoError(t, c.PutThread(ctx, &th))

	threads, err := c.ListThreads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "after", threads[0].Title)
	assert.Equal(t, 3, threads[0].MessageCount)
}

func TestReplaceMessages_PreservesOrder(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	msgs := []api.Message{
		{ID: "m1", Role: "user", Content: "hello", Timestamp: now},
		{ID: "m2", Role: "assistant", Content: "hi", Timestamp: now.Add(time.Second)},
		{ID: "m3", Role: "user", Content: "chart", Timestamp: now.Add(2 * time.Second)},
	}
	require.NoError(t, c.ReplaceMessages(ctx, "t1", msgs))

	got, err := c.GetMessages(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range msgs {
		assert.Equal(t, msgs[i].ID, got[i].ID)
		assert.Equal(t, msgs[i].Content, got[i].Content)
	}

	// Wholesale replacement, not a merge.
	require.NoError(t, c.ReplaceMessages(ctx, "t1", msgs[:1]))
	got, err = c.GetMessages(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
}

func TestMessages_VisualizationRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	msg := api.Message{
		ID: "m1", Role: "assistant", Content: "here", Timestamp: time.Now().UTC(),
		Visualization: &viz.Visualization{
			Kind: viz.KindBar,
			Bar:  &viz.BarChart{Title: "t", Labels: []string{"a"}, Values: []float64{1}},
		},
	}
	require.NoError(t, c.ReplaceMessages(ctx, "t1", []api.Message{msg}))

	got, err := c.GetMessages(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Visualization)
	assert.Equal(t, viz.KindBar, got[0].Visualization.Kind)
	assert.Equal(t, "t", got[0].Visualization.Bar.Title)
}

func TestDeleteThread_RemovesMessages(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, c.PutThread(ctx, &api.Thread{ID: "t1", Title: "x", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, c.ReplaceMessages(ctx, "t1", []api.Message{{ID: "m1", Role: "user", Content: "a", Timestamp: now}}))

	require.NoError(t, c.DeleteThread(ctx, "t1"))

	threads, err := c.ListThreads(ctx)
	require.NoError(t, err)
	assert.Empty(t, threads)

	msgs, err := c.GetMessages(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestReset(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, c.PutThread(ctx, &api.Thread{ID: "t1", Title: "x", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, c.Reset(ctx))

	threads, err := c.ListThreads(ctx)
	require.NoError(t, err)
	assert.Empty(t, threads)
}
