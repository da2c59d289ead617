package platform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwatch/emberwatch/internal/apperr"
	"github.com/emberwatch/emberwatch/internal/domain"
)

type fakeQueue struct {
	enqueued []*domain.RawPost
	failIDs  map[string]bool
}

func (q *fakeQueue) Enqueue(_ context.Context, _ string, post *domain.RawPost) error {
	if q.failIDs[post.ID] {
		return errors.New("store unavailable")
	}
	q.enqueued = append(q.enqueued, post)
	return nil
}

func (q *fakeQueue) DequeueOldest(context.Context, string, []string) (*domain.RawPost, error) {
	return nil, apperr.ErrQueueEmpty
}

func (q *fakeQueue) Delete(context.Context, string, string) error { return nil }

func (q *fakeQueue) LatestQueued(context.Context, string) (*domain.RawPost, error) {
	return nil, apperr.ErrNotFound
}

const sampleFeed = `
{"id":"p1","text":"first","user_id":"u1","user_screen_name":"one","urls":["http://example.com/a"]}
{"id":"p2","text":"no links here","user_id":"u2","user_screen_name":"two"}

{"text":"missing id","user_id":"u3"}
{not json at all}
{"id":"p3","text":"third","user_id":"u1","user_screen_name":"one","urls":["http://example.com/b","http://example.com/c"]}
`

func TestCollectFromNDJSON(t *testing.T) {
	queue := &fakeQueue{}
	c := NewCollector("testverse", NewNDJSONSource(strings.NewReader(sampleFeed)), queue)

	stats, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Enqueued, "link-less posts are still enqueued")
	assert.Equal(t, 1, stats.Skipped, "posts without an id are dropped")
	assert.Equal(t, 1, stats.Failed, "a malformed line does not stop the run")

	require.Len(t, queue.enqueued, 3)
	assert.Equal(t, "p1", queue.enqueued[0].ID)
	assert.Equal(t, []string{"http://example.com/b", "http://example.com/c"}, queue.enqueued[2].URLs)
}

func TestCollectCountsEnqueueFailures(t *testing.T) {
	queue := &fakeQueue{failIDs: map[string]bool{"p1": true}}
	c := NewCollector("testverse", NewNDJSONSource(strings.NewReader(sampleFeed)), queue)

	stats, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Enqueued)
	assert.Equal(t, 2, stats.Failed)
}

func TestCollectStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	queue := &fakeQueue{}
	c := NewCollector("testverse", NewNDJSONSource(strings.NewReader(sampleFeed)), queue)

	_, err := c.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
