package domain

import (
	"fmt"
	"time"
)

// RefKind distinguishes the two content types the bot resolves.
type RefKind string

const (
	KindDynamic RefKind = "dynamic"
	KindVideo   RefKind = "video"
	KindArticle RefKind = "article"
)

// ContentReference is the canonical identifier extracted from an inbound URL.
type ContentReference struct {
	Kind RefKind
	ID   string
}

// VideoURL returns the canonical long-form URL for a video reference.
func (r ContentReference) VideoURL() string {
	return fmt.Sprintf("https://www.bilibili.com/video/%s", r.ID)
}

// DynamicURL returns the canonical timeline URL for a dynamic reference.
func (r ContentReference) DynamicURL() string {
	return fmt.Sprintf("https://t.bilibili.com/%s", r.ID)
}

// ArticleURL returns the canonical read URL for an article reference. The ID
// is the bare cv number.
func (r ContentReference) ArticleURL() string {
	return fmt.Sprintf("https://www.bilibili.com/read/cv%s", r.ID)
}

// Dynamic is the normalized result of resolving a post reference.
// Content merges title and body per the source schema's rule; Images keep
// the order of the single source that produced them.
type Dynamic struct {
	DynamicID   string
	AuthorUID   string
	AuthorName  string
	Content     string
	Images      []string
	PublishedAt time.Time
}

// Article is the normalized result of resolving a read/cv reference.
type Article struct {
	CVID       string
	Title      string
	AuthorName string
	Summary    string
	CoverURL   string
}

// VideoStats is the counter block of a video detail response.
type VideoStats struct {
	Views     int64
	Danmaku   int64
	Replies   int64
	Favorites int64
	Coins     int64
	Shares    int64
	Likes     int64
}

// VideoDetails is the normalized result of resolving a video reference.
// CID is the sub-stream identifier consumed only by the stream resolver.
type VideoDetails struct {
	BVID            string
	Title           string
	Description     string
	OwnerName       string
	Stats           VideoStats
	CoverURL        string
	DurationSeconds int
	CID             int64
}
