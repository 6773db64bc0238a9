package dynamic

import (
	"encoding/json"
	"fmt"
	"strconv"

	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
)

// opusResponse is the opus-view shape (data.opus / data.user).
type opusResponse struct {
	Code int `json:"code"`
	Data struct {
		Opus *struct {
			Title   string    `json:"title"`
			Summary string    `json:"summary"`
			Pics    []feedPic `json:"pics"`
			PubTs   int64     `json:"pub_ts"`
			PubTime string    `json:"pub_time"`
		} `json:"opus"`
		User *struct {
			UID  int64  `json:"uid"`
			Name string `json:"name"`
		} `json:"user"`
	} `json:"data"`
}

func decodeOpusView(in DecodeInput) (*Partial, error) {
	var resp opusResponse
	if err := json.Unmarshal(in.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: opus view: %v", coreerrors.ErrSchemaMismatch, err)
	}

	if resp.Code != 0 || resp.Data.Opus == nil {
		return nil, fmt.Errorf("%w: opus view code %d", coreerrors.ErrSchemaMismatch, resp.Code)
	}

	opus := resp.Data.Opus

	p := &Partial{
		Title:        opus.Title,
		Body:         opus.Summary,
		PublishedAt:  publishTime(opus.PubTs, opus.PubTime),
		TitleBearing: true,
	}

	if user := resp.Data.User; user != nil {
		p.AuthorUID = strconv.FormatInt(user.UID, 10)
		p.AuthorName = user.Name
	}

	for _, pic := range opus.Pics {
		if addr := pic.address(); addr != "" {
			p.Images = append(p.Images, addr)
		}
	}

	if p.Title == "" && p.Body == "" && len(p.Images) == 0 {
		return nil, fmt.Errorf("%w: opus view yielded nothing", coreerrors.ErrSchemaMismatch)
	}

	return p, nil
}
