package douyin

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	tlsclient "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"

	"github.com/fengxsong/douyin-crawler/pkg/errors"
	"github.com/fengxsong/douyin-crawler/pkg/logger"
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Cookie    string
	Evaluator Evaluator
	Logger    logger.Logger
	Timeout   int // seconds
}

// Client talks to the platform web API. Every request goes out through a
// TLS-fingerprinted transport with the shared header set and a freshly
// signed query.
type Client struct {
	httpClient tlsclient.HttpClient
	signer     *Signer
	session    *Session
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient builds a client. The anti-bot gateway fingerprints TLS, so the
// transport impersonates a desktop Chrome profile rather than using the
// default Go handshake.
func NewClient(opts Options) (*Client, error) {
	if opts.Evaluator == nil {
		ev, err := NewGojaEvaluator()
		if err != nil {
			return nil, err
		}
		opts.Evaluator = ev
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30
	}

	httpClient, err := tlsclient.NewHttpClient(tlsclient.NewNoopLogger(),
		tlsclient.WithClientProfile(profiles.Chrome_133),
		tlsclient.WithNotFollowRedirects(),
		tlsclient.WithTimeoutSeconds(opts.Timeout),
	)
	if err != nil {
		return nil, errors.Transport("failed to build http client", err, "")
	}

	session := ParseSession(opts.Cookie)
	return &Client{
		httpClient: httpClient,
		signer:     NewSigner(opts.Evaluator),
		session:    session,
		headers: map[string]string{
			"User-Agent":   opts.UserAgent,
			"Cookie":       session.Header(),
			"Host":         Host,
			"Origin":       BaseURL + "/",
			"Referer":      BaseURL + "/",
			"Content-Type": "application/json;charset=UTF-8",
		},
		baseURL: opts.BaseURL,
		logger:  opts.Logger,
	}, nil
}

// Session returns the current cookie snapshot.
func (c *Client) Session() *Session {
	return c.session
}

// Pong reports whether the current session carries a valid login. A false
// result should drive the login flow; it is not an error.
func (c *Client) Pong() bool {
	return c.session.IsLoggedIn()
}

// EnsureLoggedIn returns ErrLoginRequired when the session carries no
// valid login, for callers that cannot proceed anonymously.
func (c *Client) EnsureLoggedIn() error {
	if !c.Pong() {
		return errors.ErrLoginRequired
	}
	return nil
}

// RefreshSession replaces the cookie snapshot wholesale from the browser's
// current cookie set and installs the new header string. There is no
// incremental path: the browser owns the cookies and may have changed any
// of them since the last snapshot.
func (c *Client) RefreshSession(cookies []Cookie) {
	c.session = NewSession(cookies)
	c.headers["Cookie"] = c.session.Header()
}

// get signs params, issues the request, and returns the decoded payload.
// extraHeaders override the shared set for this call only.
func (c *Client) get(ctx context.Context, uri string, params *Params, extraHeaders map[string]string) (gjson.Result, error) {
	if token := c.session.MsToken(); token != "" && params != nil && params.Len() > 0 {
		params.Set("msToken", token)
	}
	if err := c.signer.Sign(params, c.headers["User-Agent"]); err != nil {
		return gjson.Result{}, err
	}

	reqURL := c.baseURL + uri
	if params != nil && params.Len() > 0 {
		reqURL += "?" + encodeQuery(params)
	}

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, reqURL, nil)
	if err != nil {
		return gjson.Result{}, errors.Transport("failed to build request", err, "")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range extraHeaders {
		if v == "" {
			req.Header.Del(k)
			continue
		}
		req.Header.Set(k, v)
	}

	c.logger.DebugWithFields("sending request", map[string]interface{}{
		"uri": uri,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, errors.Transport("request failed", err, "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, errors.Transport("failed to read response body", err, "")
	}

	if resp.StatusCode != fhttp.StatusOK {
		c.logger.WarnWithFields("unexpected status", map[string]interface{}{
			"uri":    uri,
			"status": resp.StatusCode,
		})
		return gjson.Result{}, errors.Transport(
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil, string(body))
	}

	if !gjson.ValidBytes(body) {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("response is not JSON", map[string]interface{}{
			"uri":          uri,
			"body_preview": preview,
		})
		return gjson.Result{}, errors.Transport("response is not JSON", nil, string(body))
	}
	return gjson.ParseBytes(body), nil
}

// encodeQuery escapes the signed parameters for the URL, preserving
// insertion order. The signature is computed over the unescaped form, so
// escaping must happen after signing.
func encodeQuery(params *Params) string {
	pairs := make([]string, 0, params.Len())
	for _, k := range params.keys {
		pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(params.values[k]))
	}
	return strings.Join(pairs, "&")
}

// GetAwemeDetail fetches metadata for one video. The detail endpoint
// rejects requests that carry an Origin header, so it is stripped for this
// call.
func (c *Client) GetAwemeDetail(ctx context.Context, awemeID string) (*AwemeDetail, error) {
	params := NewParams()
	params.Set("aweme_id", awemeID)

	data, err := c.get(ctx, DetailEndpoint, params, map[string]string{"Origin": ""})
	if err != nil {
		return nil, fmt.Errorf("fetch detail for %s: %w", awemeID, err)
	}
	return parseAwemeDetail(data), nil
}

// GetAwemeComments fetches one page of top-level comments. keyword only
// shapes the Referer; pass "" outside a search context.
func (c *Client) GetAwemeComments(ctx context.Context, awemeID string, cursor int64, keyword string) (*CommentPage, error) {
	params := NewParams()
	params.Set("aweme_id", awemeID)
	params.Set("cursor", strconv.FormatInt(cursor, 10))
	params.Set("count", strconv.Itoa(CommentPageSize))
	params.Set("item_type", "0")

	data, err := c.get(ctx, CommentListEndpoint, params, map[string]string{
		"Referer": SearchRefererURL(keyword),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch comments for %s at cursor %d: %w", awemeID, cursor, err)
	}
	return parseCommentPage(data), nil
}

// Search returns the aweme ids of general search results for a keyword,
// starting at offset.
func (c *Client) Search(ctx context.Context, keyword string, offset int) ([]string, error) {
	params := NewParams()
	params.Set("keyword", keyword)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("count", "10")
	params.Set("search_channel", "aweme_general")

	data, err := c.get(ctx, SearchEndpoint, params, nil)
	if err != nil {
		return nil, fmt.Errorf("search %q at offset %d: %w", keyword, offset, err)
	}

	var ids []string
	for _, item := range data.Get("data").Array() {
		info := item.Get("aweme_info")
		if !info.Exists() {
			info = item.Get("aweme_mix_info.mix_items.0")
		}
		if id := info.Get("aweme_id").String(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
