package crawler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fengxsong/douyin-crawler/pkg/douyin"
	"github.com/fengxsong/douyin-crawler/pkg/errors"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

// scriptedFetcher returns canned pages in order and records the cursors it
// was asked for.
type scriptedFetcher struct {
	pages   []*douyin.CommentPage
	failAt  int // page index that errors, -1 for never
	calls   int
	cursors []int64
}

func newScriptedFetcher(pages ...*douyin.CommentPage) *scriptedFetcher {
	return &scriptedFetcher{pages: pages, failAt: -1}
}

func (f *scriptedFetcher) GetAwemeComments(ctx context.Context, awemeID string, cursor int64, keyword string) (*douyin.CommentPage, error) {
	f.cursors = append(f.cursors, cursor)
	idx := f.calls
	f.calls++
	if idx == f.failAt {
		return nil, errors.Transport("boom", nil, "")
	}
	if idx >= len(f.pages) {
		return &douyin.CommentPage{}, nil
	}
	return f.pages[idx], nil
}

func makeComments(n int, prefix string) []douyin.Comment {
	out := make([]douyin.Comment, n)
	for i := range out {
		out[i] = douyin.Comment{
			ID:   fmt.Sprintf("%s-%d", prefix, i),
			Text: fmt.Sprintf("%s comment %d", prefix, i),
		}
	}
	return out
}

func collect(t *testing.T, ch <-chan Batch) ([][]douyin.Comment, error) {
	t.Helper()
	var batches [][]douyin.Comment
	for batch := range ch {
		if batch.Err != nil {
			return batches, batch.Err
		}
		batches = append(batches, batch.Comments)
	}
	return batches, nil
}

func TestHarvestTwoPagesWithQuota(t *testing.T) {
	// Page 1: 15 comments, more to come. Page 2: 10 comments, last page.
	// With a quota of 20 the harvester yields 15 then 5 and stops.
	fetcher := newScriptedFetcher(
		&douyin.CommentPage{Cursor: 15, HasMore: true, Comments: makeComments(15, "p1")},
		&douyin.CommentPage{Cursor: 25, HasMore: false, Comments: makeComments(10, "p2")},
	)
	h := NewHarvester(fetcher, logger.NewTestLogger())

	batches, err := collect(t, h.Harvest(context.Background(), "A", HarvestOptions{MaxComments: 20}))
	require.NoError(t, err)

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 15)
	assert.Len(t, batches[1], 5)
	assert.Equal(t, []int64{0, 15}, fetcher.cursors, "cursor must come from the previous response")
}

func TestHarvestUnlimited(t *testing.T) {
	fetcher := newScriptedFetcher(
		&douyin.CommentPage{Cursor: 20, HasMore: true, Comments: makeComments(20, "p1")},
		&douyin.CommentPage{Cursor: 40, HasMore: true, Comments: makeComments(20, "p2")},
		&douyin.CommentPage{Cursor: 47, HasMore: false, Comments: makeComments(7, "p3")},
	)
	h := NewHarvester(fetcher, logger.NewTestLogger())

	batches, err := collect(t, h.Harvest(context.Background(), "A", HarvestOptions{MaxComments: 0}))
	require.NoError(t, err)

	total := 0
	for _, b := range batches {
		total += len(b)
	}
	assert.Equal(t, 47, total, "zero quota means bounded only by has_more")
	assert.Equal(t, 3, fetcher.calls)
}

func TestHarvestQuotaNeverExceeded(t *testing.T) {
	for _, max := range []int{1, 7, 15, 16, 30} {
		fetcher := newScriptedFetcher(
			&douyin.CommentPage{Cursor: 8, HasMore: true, Comments: makeComments(8, "p1")},
			&douyin.CommentPage{Cursor: 16, HasMore: true, Comments: makeComments(8, "p2")},
			&douyin.CommentPage{Cursor: 24, HasMore: false, Comments: makeComments(8, "p3")},
		)
		h := NewHarvester(fetcher, logger.NewTestLogger())

		batches, err := collect(t, h.Harvest(context.Background(), "A", HarvestOptions{MaxComments: max}))
		require.NoError(t, err)

		total := 0
		for _, b := range batches {
			total += len(b)
		}
		assert.LessOrEqual(t, total, max, "max %d", max)
	}
}

func TestHarvestEmptyPageContinues(t *testing.T) {
	fetcher := newScriptedFetcher(
		&douyin.CommentPage{Cursor: 5, HasMore: true},
		&douyin.CommentPage{Cursor: 10, HasMore: false, Comments: makeComments(3, "p2")},
	)
	h := NewHarvester(fetcher, logger.NewTestLogger())

	batches, err := collect(t, h.Harvest(context.Background(), "A", HarvestOptions{}))
	require.NoError(t, err)

	// The empty page yields nothing but must not terminate the walk.
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
	assert.Equal(t, 2, fetcher.calls)
}

func TestHarvestKeywordFilter(t *testing.T) {
	comments := []douyin.Comment{
		{ID: "1", Text: "great video"},
		{ID: "2", Text: "Great video"},
		{ID: "3", Text: "nothing to see"},
		{ID: "4", Text: "simply great stuff"},
	}
	fetcher := newScriptedFetcher(&douyin.CommentPage{Cursor: 4, HasMore: false, Comments: comments})
	h := NewHarvester(fetcher, logger.NewTestLogger())

	batches, err := collect(t, h.Harvest(context.Background(), "A", HarvestOptions{
		Keywords: []string{"great"},
	}))
	require.NoError(t, err)

	require.Len(t, batches, 1)
	// Substring match is case-sensitive: "Great video" is filtered out.
	require.Len(t, batches[0], 2)
	assert.Equal(t, "1", batches[0][0].ID)
	assert.Equal(t, "4", batches[0][1].ID)
}

func TestHarvestCallbackGetsUnfilteredPages(t *testing.T) {
	fetcher := newScriptedFetcher(
		&douyin.CommentPage{Cursor: 4, HasMore: false, Comments: []douyin.Comment{
			{ID: "1", Text: "match me"},
			{ID: "2", Text: "not relevant"},
		}},
	)
	h := NewHarvester(fetcher, logger.NewTestLogger())

	var callbackIDs []string
	batches, err := collect(t, h.Harvest(context.Background(), "A", HarvestOptions{
		Keywords: []string{"match"},
		OnPage: func(awemeID string, comments []douyin.Comment) {
			assert.Equal(t, "A", awemeID)
			for _, c := range comments {
				callbackIDs = append(callbackIDs, c.ID)
			}
		},
	}))
	require.NoError(t, err)

	// The stream is filtered, the callback is not.
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 1)
	assert.Equal(t, []string{"1", "2"}, callbackIDs)
}

func TestHarvestFetchErrorEndsStream(t *testing.T) {
	fetcher := newScriptedFetcher(
		&douyin.CommentPage{Cursor: 5, HasMore: true, Comments: makeComments(5, "p1")},
	)
	fetcher.failAt = 1
	h := NewHarvester(fetcher, logger.NewTestLogger())

	batches, err := collect(t, h.Harvest(context.Background(), "A", HarvestOptions{}))
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	// The batch before the failure was still delivered.
	assert.Len(t, batches, 1)
}

func TestHarvestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := newScriptedFetcher(
		&douyin.CommentPage{Cursor: 5, HasMore: true, Comments: makeComments(5, "p1")},
		&douyin.CommentPage{Cursor: 10, HasMore: false, Comments: makeComments(5, "p2")},
	)
	h := NewHarvester(fetcher, logger.NewTestLogger())

	_, err := collect(t, h.Harvest(ctx, "A", HarvestOptions{Interval: time.Second}))
	require.Error(t, err)
}

func TestFilterByKeywordsEmptyListKeepsAll(t *testing.T) {
	comments := makeComments(5, "c")
	assert.Equal(t, comments, filterByKeywords(comments, nil))
}
