package crawler

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/fengxsong/douyin-crawler/pkg/douyin"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

// PlatformClient is the slice of the douyin client the orchestrator drives.
type PlatformClient interface {
	CommentFetcher
	GetAwemeDetail(ctx context.Context, awemeID string) (*douyin.AwemeDetail, error)
	Search(ctx context.Context, keyword string, offset int) ([]string, error)
}

// searchPageSize is how many results one search page returns.
const searchPageSize = 10

// Orchestrator fans harvesting work out over many target items under a
// shared concurrency ceiling. Items fail independently: one bad item is
// logged and dropped, siblings are unaffected, and completion order is
// whatever the scheduler produces.
type Orchestrator struct {
	client    PlatformClient
	harvester *Harvester
	limit     int64
	logger    logger.Logger
}

// NewOrchestrator builds an orchestrator. concurrency caps in-flight
// fetches; zero means one permit per available CPU.
func NewOrchestrator(client PlatformClient, concurrency int, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Orchestrator{
		client:    client,
		harvester: NewHarvester(client, log),
		limit:     int64(concurrency),
		logger:    log,
	}
}

// FetchDetails fetches item metadata for every id. Failed items are absent
// from the result.
func (o *Orchestrator) FetchDetails(ctx context.Context, ids []string) map[string]*douyin.AwemeDetail {
	sem := semaphore.NewWeighted(o.limit)
	var g errgroup.Group
	var mu sync.Mutex
	details := make(map[string]*douyin.AwemeDetail)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			detail, err := o.client.GetAwemeDetail(ctx, id)
			if err != nil {
				o.logger.WithError(err).WithField("aweme_id", id).Error("failed to fetch aweme detail")
				return nil
			}
			mu.Lock()
			details[id] = detail
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return details
}

// FetchAllComments harvests comments for every id. A failed item is logged
// and omitted entirely; partial pages from before the failure are not
// returned.
func (o *Orchestrator) FetchAllComments(ctx context.Context, ids []string, opts HarvestOptions) map[string][]douyin.Comment {
	sem := semaphore.NewWeighted(o.limit)
	var g errgroup.Group
	var mu sync.Mutex
	results := make(map[string][]douyin.Comment)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			var collected []douyin.Comment
			for batch := range o.harvester.Harvest(ctx, id, opts) {
				if batch.Err != nil {
					o.logger.WithError(batch.Err).WithField("aweme_id", id).Error("failed to fetch comments")
					return nil
				}
				collected = append(collected, batch.Comments...)
			}
			mu.Lock()
			results[id] = collected
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return results
}

// SearchAwemes pages through general search results for a keyword and
// returns the discovered aweme ids, up to maxNotes. A failed page stops the
// search for that keyword and returns what was found so far.
func (o *Orchestrator) SearchAwemes(ctx context.Context, keyword string, maxNotes int) []string {
	if maxNotes <= 0 {
		maxNotes = searchPageSize
	}
	var ids []string
	for page := 0; (page+1)*searchPageSize <= maxNotes; page++ {
		found, err := o.client.Search(ctx, keyword, page*searchPageSize)
		if err != nil {
			o.logger.WithError(err).WithField("keyword", keyword).Error("search page failed")
			break
		}
		ids = append(ids, found...)
	}
	return ids
}
