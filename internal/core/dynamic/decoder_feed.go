package dynamic

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/araddon/dateparse"

	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
)

// repostMarker prefixes the embedded video title when a post reposts a video.
const repostMarker = "转发视频"

// feedResponse is the current feed-detail shape
// (data.item.modules.module_dynamic).
type feedResponse struct {
	Code int `json:"code"`
	Data struct {
		Item *feedItem `json:"item"`
	} `json:"data"`
}

type feedItem struct {
	Modules struct {
		Author struct {
			Mid     int64  `json:"mid"`
			Name    string `json:"name"`
			PubTs   int64  `json:"pub_ts"`
			PubTime string `json:"pub_time"`
		} `json:"module_author"`
		Dynamic feedModuleDynamic `json:"module_dynamic"`
	} `json:"modules"`
}

type feedModuleDynamic struct {
	Desc *struct {
		Text string `json:"text"`
	} `json:"desc"`
	Major *feedMajor `json:"major"`
}

type feedMajor struct {
	Type string `json:"type"`
	Opus *struct {
		Title   string `json:"title"`
		Summary *struct {
			Text string `json:"text"`
		} `json:"summary"`
		Pics []feedPic `json:"pics"`
	} `json:"opus"`
	Draw *struct {
		Items []feedPic `json:"items"`
	} `json:"draw"`
	Archive *struct {
		BVID  string `json:"bvid"`
		Title string `json:"title"`
		Cover string `json:"cover"`
		Desc  string `json:"desc"`
	} `json:"archive"`
}

type feedPic struct {
	Src string `json:"src"`
	URL string `json:"url"`
}

func (p feedPic) address() string {
	if p.Src != "" {
		return p.Src
	}

	return p.URL
}

func decodeFeedDetail(in DecodeInput) (*Partial, error) {
	var resp feedResponse
	if err := json.Unmarshal(in.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: feed detail: %v", coreerrors.ErrSchemaMismatch, err)
	}

	if resp.Code != 0 || resp.Data.Item == nil {
		return nil, fmt.Errorf("%w: feed detail code %d", coreerrors.ErrSchemaMismatch, resp.Code)
	}

	item := resp.Data.Item
	author := item.Modules.Author

	p := &Partial{
		AuthorUID:   strconv.FormatInt(author.Mid, 10),
		AuthorName:  author.Name,
		PublishedAt: publishTime(author.PubTs, author.PubTime),
	}

	md := item.Modules.Dynamic
	desc := ""

	if md.Desc != nil {
		desc = md.Desc.Text
	}

	if err := applyFeedMajor(p, md.Major, desc); err != nil {
		return nil, err
	}

	if p.Title == "" && p.Body == "" && len(p.Images) == 0 {
		return nil, fmt.Errorf("%w: feed detail yielded nothing", coreerrors.ErrSchemaMismatch)
	}

	return p, nil
}

// applyFeedMajor maps the post-type variant onto the partial: opus and draw
// posts are title-bearing, a bare desc is a plain-text post, and an archive
// major is a video repost.
func applyFeedMajor(p *Partial, major *feedMajor, desc string) error {
	switch {
	case major == nil:
		p.Body = desc
	case major.Archive != nil:
		arch := major.Archive
		p.Body = fmt.Sprintf("%s\n\n%s: %s\nhttps://www.bilibili.com/video/%s", desc, repostMarker, arch.Title, arch.BVID)

		if arch.Cover != "" {
			p.Images = []string{arch.Cover}
		}
	case major.Opus != nil:
		opus := major.Opus
		p.Title = opus.Title
		p.TitleBearing = true

		if opus.Summary != nil {
			p.Body = opus.Summary.Text
		}

		if p.Body == "" {
			p.Body = desc
		}

		for _, pic := range opus.Pics {
			if addr := pic.address(); addr != "" {
				p.Images = append(p.Images, addr)
			}
		}
	case major.Draw != nil:
		p.Body = desc
		p.TitleBearing = true

		for _, pic := range major.Draw.Items {
			if addr := pic.address(); addr != "" {
				p.Images = append(p.Images, addr)
			}
		}
	default:
		p.Body = desc
	}

	return nil
}

// publishTime prefers the unix field; some generations only send a formatted
// string.
func publishTime(unix int64, formatted string) time.Time {
	if unix > 0 {
		return time.Unix(unix, 0)
	}

	if formatted != "" {
		if t, err := dateparse.ParseAny(formatted); err == nil {
			return t
		}
	}

	return time.Time{}
}
