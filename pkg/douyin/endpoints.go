package douyin

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

const (
	// BaseURL is the web origin all API calls go against.
	BaseURL = "https://www.douyin.com"

	// Host is the Host header value for API calls.
	Host = "www.douyin.com"

	// DetailEndpoint returns metadata for a single aweme.
	DetailEndpoint = "/aweme/v1/web/aweme/detail/"

	// CommentListEndpoint returns one page of top-level comments.
	CommentListEndpoint = "/aweme/v1/web/comment/list/"

	// SearchEndpoint returns general search results for a keyword.
	SearchEndpoint = "/aweme/v1/web/general/search/single/"

	// CommentPageSize is the fixed page size the web client requests.
	CommentPageSize = 20
)

// SearchRefererURL builds the search-page referer the platform expects on
// comment list calls. The aid parameter mimics the web client's per-session
// search token.
func SearchRefererURL(keyword string) string {
	return fmt.Sprintf(
		"%s/search/%s?aid=%s&publish_time=0&sort_type=0&source=search_history&type=general",
		BaseURL, url.PathEscape(keyword), uuid.NewString(),
	)
}
