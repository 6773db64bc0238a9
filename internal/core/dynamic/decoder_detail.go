package dynamic

import (
	"encoding/json"
	"fmt"
	"strconv"

	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
)

// detailResponse is the generic dynamic-detail shape
// (data.dynamic / data.user).
type detailResponse struct {
	Code int `json:"code"`
	Data struct {
		Dynamic *struct {
			Title     string    `json:"title"`
			Content   string    `json:"content"`
			Summary   string    `json:"summary"`
			Pics      []feedPic `json:"pics"`
			PublishTs int64     `json:"publish_ts"`
		} `json:"dynamic"`
		User *struct {
			UID  int64  `json:"uid"`
			Name string `json:"name"`
		} `json:"user"`
	} `json:"data"`
}

func decodeDynamicDetail(in DecodeInput) (*Partial, error) {
	var resp detailResponse
	if err := json.Unmarshal(in.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: dynamic detail: %v", coreerrors.ErrSchemaMismatch, err)
	}

	if resp.Code != 0 || resp.Data.Dynamic == nil {
		return nil, fmt.Errorf("%w: dynamic detail code %d", coreerrors.ErrSchemaMismatch, resp.Code)
	}

	dyn := resp.Data.Dynamic

	body := dyn.Content
	if body == "" {
		body = dyn.Summary
	}

	p := &Partial{
		Title:       dyn.Title,
		Body:        body,
		PublishedAt: publishTime(dyn.PublishTs, ""),
	}

	if user := resp.Data.User; user != nil {
		p.AuthorUID = strconv.FormatInt(user.UID, 10)
		p.AuthorName = user.Name
	}

	for _, pic := range dyn.Pics {
		if addr := pic.address(); addr != "" {
			p.Images = append(p.Images, addr)
		}
	}

	// Only image posts are expected to carry a title in this shape.
	p.TitleBearing = len(p.Images) > 0

	if p.Title == "" && p.Body == "" && len(p.Images) == 0 {
		return nil, fmt.Errorf("%w: dynamic detail yielded nothing", coreerrors.ErrSchemaMismatch)
	}

	return p, nil
}
