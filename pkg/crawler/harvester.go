package crawler

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fengxsong/douyin-crawler/pkg/douyin"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

// CommentFetcher is the slice of the platform client the harvester needs.
type CommentFetcher interface {
	GetAwemeComments(ctx context.Context, awemeID string, cursor int64, keyword string) (*douyin.CommentPage, error)
}

// PageCallback receives every raw, unfiltered page as it arrives. It exists
// for side-channel consumers that want the full payload regardless of the
// keyword filter and quota.
type PageCallback func(awemeID string, comments []douyin.Comment)

// HarvestOptions control one harvest run.
type HarvestOptions struct {
	// Interval is the courtesy delay between page fetches.
	Interval time.Duration

	// MaxComments caps the number of comments yielded. Zero means
	// unlimited.
	MaxComments int

	// Keywords, when non-empty, keeps only comments whose text contains
	// at least one entry. Matching is case-sensitive substring.
	Keywords []string

	// OnPage, when set, is invoked once per non-empty page with the
	// unfiltered comments.
	OnPage PageCallback

	// FetchSubComments requests recursive sub-comment expansion. Not
	// implemented; the flag is accepted so callers can express intent.
	FetchSubComments bool
}

// Batch is one yielded page of filtered comments. A non-nil Err terminates
// the stream; no further batches follow it.
type Batch struct {
	Comments []douyin.Comment
	Err      error
}

// Harvester walks the paginated comment list of one target item.
type Harvester struct {
	fetcher CommentFetcher
	logger  logger.Logger
}

// NewHarvester wraps a comment fetcher.
func NewHarvester(fetcher CommentFetcher, log logger.Logger) *Harvester {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Harvester{fetcher: fetcher, logger: log}
}

// Harvest streams filtered comment batches for one aweme. The returned
// channel is closed when the quota is exhausted, the platform reports no
// more pages, or a fetch fails. Fetch errors are not retried here; they end
// the stream and it is the caller's job to decide what to do with the item.
//
// Pages are strictly sequential: each cursor comes from the platform's
// previous response and is never synthesized locally.
func (h *Harvester) Harvest(ctx context.Context, awemeID string, opts HarvestOptions) <-chan Batch {
	out := make(chan Batch)
	go func() {
		defer close(out)
		h.run(ctx, awemeID, opts, out)
	}()
	return out
}

func (h *Harvester) run(ctx context.Context, awemeID string, opts HarvestOptions, out chan<- Batch) {
	log := h.logger.WithField("aweme_id", awemeID)

	var limiter *rate.Limiter
	if opts.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Interval), 1)
		// Consume the initial token so the first wait actually waits.
		limiter.Allow()
	}

	if opts.FetchSubComments {
		// Sub-comment expansion would recurse on each comment with a
		// non-zero reply count. Not implemented.
		log.Debug("sub-comment expansion requested but not implemented")
	}

	var cursor int64
	hasMore := true
	collected := 0

	for hasMore && (opts.MaxComments == 0 || collected < opts.MaxComments) {
		page, err := h.fetcher.GetAwemeComments(ctx, awemeID, cursor, "")
		if err != nil {
			out <- Batch{Err: err}
			return
		}
		hasMore = page.HasMore
		cursor = page.Cursor

		// An empty page can still have more pages behind it, e.g. a
		// moderation hold. Keep walking instead of terminating.
		if len(page.Comments) == 0 {
			continue
		}

		filtered := filterByKeywords(page.Comments, opts.Keywords)

		if opts.MaxComments > 0 {
			remaining := opts.MaxComments - collected
			if len(filtered) > remaining {
				filtered = filtered[:remaining]
			}
		}
		collected += len(filtered)

		if opts.OnPage != nil {
			opts.OnPage(awemeID, page.Comments)
		}

		select {
		case out <- Batch{Comments: filtered}:
		case <-ctx.Done():
			// The consumer may already be gone; don't block on the
			// terminal error.
			select {
			case out <- Batch{Err: ctx.Err()}:
			default:
			}
			return
		}

		if opts.MaxComments > 0 && collected >= opts.MaxComments {
			log.InfoWithFields("comment quota reached", map[string]interface{}{
				"collected": collected,
			})
			break
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				out <- Batch{Err: err}
				return
			}
		}

	}
}

// filterByKeywords keeps comments whose text contains at least one keyword.
// An empty keyword list keeps everything.
func filterByKeywords(comments []douyin.Comment, keywords []string) []douyin.Comment {
	if len(keywords) == 0 {
		return comments
	}
	var kept []douyin.Comment
	for _, c := range comments {
		for _, kw := range keywords {
			if strings.Contains(c.Text, kw) {
				kept = append(kept, c)
				break
			}
		}
	}
	return kept
}
