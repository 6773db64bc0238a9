package dynamic

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
)

// descTypeVideoRepost marks a legacy card that reposts a video.
const descTypeVideoRepost = 8

// cardResponse is the oldest shape: data.card wraps a second JSON document as
// a string, and the post body lives under card.card.item.
type cardResponse struct {
	Code int `json:"code"`
	Data struct {
		Card *cardEnvelope `json:"card"`
	} `json:"data"`
}

type cardEnvelope struct {
	Desc struct {
		Type        int    `json:"type"`
		UID         int64  `json:"uid"`
		Timestamp   int64  `json:"timestamp"`
		BVID        string `json:"bvid"`
		UserProfile struct {
			Info struct {
				UID   int64  `json:"uid"`
				Uname string `json:"uname"`
			} `json:"info"`
		} `json:"user_profile"`
	} `json:"desc"`
	Card       string `json:"card"`
	ExtendJSON string `json:"extend_json"`
}

// cardItem is the inner document for picture and text posts.
type cardItem struct {
	Item *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		Pictures    []struct {
			ImgSrc string `json:"img_src"`
		} `json:"pictures"`
	} `json:"item"`
	User *struct {
		Name  string `json:"name"`
		Uname string `json:"uname"`
	} `json:"user"`
}

// videoCard is the inner document for a video repost (desc.type 8).
type videoCard struct {
	Title   string `json:"title"`
	Pic     string `json:"pic"`
	Dynamic string `json:"dynamic"`
	Owner   struct {
		Name string `json:"name"`
	} `json:"owner"`
}

func decodeLegacyCard(in DecodeInput) (*Partial, error) {
	var resp cardResponse
	if err := json.Unmarshal(in.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: legacy card: %v", coreerrors.ErrSchemaMismatch, err)
	}

	if resp.Code != 0 || resp.Data.Card == nil || resp.Data.Card.Card == "" {
		return nil, fmt.Errorf("%w: legacy card code %d", coreerrors.ErrSchemaMismatch, resp.Code)
	}

	envelope := resp.Data.Card

	p := &Partial{
		AuthorUID:   strconv.FormatInt(envelope.Desc.UserProfile.Info.UID, 10),
		AuthorName:  envelope.Desc.UserProfile.Info.Uname,
		PublishedAt: time.Unix(envelope.Desc.Timestamp, 0),
	}

	if envelope.Desc.Timestamp == 0 {
		p.PublishedAt = time.Time{}
	}

	if envelope.Desc.Type == descTypeVideoRepost {
		if err := applyVideoCard(p, envelope); err != nil {
			return nil, err
		}

		return p, nil
	}

	return applyItemCard(p, envelope, in.TitleHint)
}

// applyVideoCard composes the repost body: reused post text, the repost
// marker with the video title, and the canonical video URL. The cover is the
// sole image when the card carries no others.
func applyVideoCard(p *Partial, envelope *cardEnvelope) error {
	var card videoCard
	if err := json.Unmarshal([]byte(envelope.Card), &card); err != nil {
		return fmt.Errorf("%w: video card: %v", coreerrors.ErrSchemaMismatch, err)
	}

	if card.Title == "" {
		return fmt.Errorf("%w: video card without title", coreerrors.ErrSchemaMismatch)
	}

	videoURL := ""
	if envelope.Desc.BVID != "" {
		videoURL = "\nhttps://www.bilibili.com/video/" + envelope.Desc.BVID
	}

	p.Body = fmt.Sprintf("%s\n\n%s: %s%s", card.Dynamic, repostMarker, card.Title, videoURL)

	if len(p.Images) == 0 && card.Pic != "" {
		p.Images = []string{card.Pic}
	}

	return nil
}

func applyItemCard(p *Partial, envelope *cardEnvelope, titleHint string) (*Partial, error) {
	var card cardItem
	if err := json.Unmarshal([]byte(envelope.Card), &card); err != nil || card.Item == nil {
		return nil, fmt.Errorf("%w: card item", coreerrors.ErrSchemaMismatch)
	}

	item := card.Item

	description := item.Description
	if description == "" {
		description = item.Content
	}

	for _, pic := range item.Pictures {
		if pic.ImgSrc != "" {
			p.Images = append(p.Images, pic.ImgSrc)
		}
	}

	p.TitleBearing = len(p.Images) > 0

	if item.Title != "" {
		p.Title = item.Title
		p.Body = description

		return p, nil
	}

	guess := guessCardTitle(heuristicInput{
		ExtendJSON:  envelope.ExtendJSON,
		Hint:        titleHint,
		Description: description,
	})

	p.Title = guess.Title
	p.Body = guess.Body

	if p.Title == "" && p.Body == "" && len(p.Images) == 0 {
		return nil, fmt.Errorf("%w: card yielded nothing", coreerrors.ErrSchemaMismatch)
	}

	return p, nil
}
