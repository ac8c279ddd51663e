package douyin

import "github.com/tidwall/gjson"

// Comment is one top-level comment. The full platform payload is carried in
// Raw untouched; the struct fields are the handful the pipeline reads.
type Comment struct {
	ID              string
	Text            string
	SubCommentCount int64
	Raw             gjson.Result
}

// CommentPage is one page of the cursor-driven comment list.
type CommentPage struct {
	Cursor   int64
	HasMore  bool
	Comments []Comment
}

// parseCommentPage extracts the pagination fields and comments from a raw
// comment list payload.
func parseCommentPage(data gjson.Result) *CommentPage {
	page := &CommentPage{
		Cursor:  data.Get("cursor").Int(),
		HasMore: data.Get("has_more").Int() != 0,
	}
	for _, c := range data.Get("comments").Array() {
		page.Comments = append(page.Comments, Comment{
			ID:              c.Get("cid").String(),
			Text:            c.Get("text").String(),
			SubCommentCount: c.Get("reply_comment_total").Int(),
			Raw:             c,
		})
	}
	return page
}

// AwemeDetail is the metadata for one video post.
type AwemeDetail struct {
	ID     string
	Desc   string
	Author string
	Raw    gjson.Result
}

func parseAwemeDetail(data gjson.Result) *AwemeDetail {
	detail := data.Get("aweme_detail")
	return &AwemeDetail{
		ID:     detail.Get("aweme_id").String(),
		Desc:   detail.Get("desc").String(),
		Author: detail.Get("author.nickname").String(),
		Raw:    detail,
	}
}
