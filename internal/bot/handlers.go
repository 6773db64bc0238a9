package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bilichat/bili-parse-bot/internal/core/domain"
	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
	"github.com/bilichat/bili-parse-bot/internal/platform/htmlutils"
)

const (
	// MaxMessageSize is the maximum size for a single Telegram message part.
	MaxMessageSize = 4000
	// SleepBetweenParts is the delay between sending message parts to avoid rate limits.
	SleepBetweenParts = 500 * time.Millisecond

	dynamicFailureReply = "❌ 解析动态失败或动态不存在"
	videoFailureReply   = "❌ 解析视频失败或视频不存在"
	articleFailureReply = "❌ 解析专栏失败或专栏不存在"
	durationGateReply   = "视频时长不在配置范围内，跳过下载"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	if text == "" {
		return
	}

	ref, err := b.extractor.Resolve(ctx, text)
	if err != nil {
		// Most chat traffic is not a reference; stay silent unless the
		// message looked like one and broke mid-resolution.
		if !errors.Is(err, coreerrors.ErrNotRecognized) {
			b.logger.Debug().Err(err).Msg("reference extraction failed")
		}

		return
	}

	b.logger.Info().
		Str("kind", string(ref.Kind)).
		Str("id", ref.ID).
		Int64("chat_id", msg.Chat.ID).
		Msg("reference recognized")

	switch ref.Kind {
	case domain.KindDynamic:
		b.handleDynamic(ctx, msg, ref)
	case domain.KindVideo:
		b.handleVideo(ctx, msg, ref)
	case domain.KindArticle:
		b.handleArticle(ctx, msg, ref)
	}
}

func (b *Bot) handleArticle(ctx context.Context, msg *tgbotapi.Message, ref domain.ContentReference) {
	a, err := b.articles.Resolve(ctx, ref.ID)
	if err != nil {
		b.logger.Warn().Err(err).Str("cvid", ref.ID).Msg("article resolution failed")
		b.reply(msg, articleFailureReply)

		return
	}

	text := RenderArticle(a)

	if a.CoverURL != "" {
		photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileURL(a.CoverURL))
		photo.Caption = truncateRunes(text, 1024)
		photo.ReplyToMessageID = msg.MessageID

		if _, err := b.api.Send(photo); err != nil {
			b.logger.Warn().Err(err).Msg("failed to send article cover")
			b.reply(msg, text)
		}

		return
	}

	b.reply(msg, text)
}

func (b *Bot) handleDynamic(ctx context.Context, msg *tgbotapi.Message, ref domain.ContentReference) {
	d, err := b.dynamics.Resolve(ctx, ref.ID, "")
	if err != nil {
		b.logger.Warn().Err(err).Str("dynamic_id", ref.ID).Msg("dynamic resolution failed")
		b.reply(msg, dynamicFailureReply)

		return
	}

	text := RenderDynamic(d)

	if len(d.Images) > 0 {
		b.sendAlbum(msg, text, d.Images)

		return
	}

	b.reply(msg, text)
}

func (b *Bot) handleVideo(ctx context.Context, msg *tgbotapi.Message, ref domain.ContentReference) {
	d, err := b.videos.Details(ctx, ref.ID)
	if err != nil {
		b.logger.Warn().Err(err).Str("bvid", ref.ID).Msg("video resolution failed")
		b.reply(msg, videoFailureReply)

		return
	}

	link := VideoLink(d.BVID, b.cfg.UseShortLink)

	caption := fmt.Sprintf("【%s】\nUP主: %s\n链接: %s", d.Title, d.OwnerName, link)
	if b.cfg.EnableDetailedInfo {
		caption = renderVideo(d, link)
	}

	if !b.cfg.EnableSendLink {
		caption = stripLinkLine(caption)
	}

	if d.CoverURL != "" {
		photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileURL(d.CoverURL))
		photo.Caption = truncateRunes(caption, 1024)
		photo.ReplyToMessageID = msg.MessageID

		if _, err := b.api.Send(photo); err != nil {
			b.logger.Warn().Err(err).Msg("failed to send cover photo")
			b.reply(msg, caption)
		}
	} else {
		b.reply(msg, caption)
	}

	if !b.cfg.EnableDownload {
		return
	}

	if !b.withinDurationGates(d.DurationSeconds) {
		b.reply(msg, durationGateReply)

		return
	}

	b.sendVideoFile(ctx, msg, d)
}

// withinDurationGates applies the configured length window; a zero bound is
// open on that side.
func (b *Bot) withinDurationGates(durationSeconds int) bool {
	minutes := float64(durationSeconds) / 60

	if b.cfg.MinimumDurationMin > 0 && minutes < b.cfg.MinimumDurationMin {
		return false
	}

	if b.cfg.MaximumDurationMin > 0 && minutes > b.cfg.MaximumDurationMin {
		return false
	}

	return true
}

func (b *Bot) sendVideoFile(ctx context.Context, msg *tgbotapi.Message, d *domain.VideoDetails) {
	streamURL, err := b.videos.StreamURL(ctx, d.BVID, d.CID)
	if err != nil {
		b.logger.Warn().Err(err).Str("bvid", d.BVID).Msg("stream resolution failed")

		return
	}

	path, err := b.downloader.Download(ctx, streamURL, d.BVID)
	if err != nil {
		b.logger.Warn().Err(err).Str("bvid", d.BVID).Msg("video download failed")

		return
	}

	video := tgbotapi.NewVideo(msg.Chat.ID, tgbotapi.FilePath(path))
	video.ReplyToMessageID = msg.MessageID

	if _, err := b.api.Send(video); err != nil {
		b.logger.Warn().Err(err).Str("bvid", d.BVID).Msg("failed to send video")
	}
}

// sendAlbum sends post images as a media group with the text as the first
// item's caption, falling back to a plain reply when the group fails.
func (b *Bot) sendAlbum(msg *tgbotapi.Message, text string, images []string) {
	if len(images) > b.cfg.MaxImagesPerReply {
		images = images[:b.cfg.MaxImagesPerReply]
	}

	media := make([]interface{}, 0, len(images))

	for i, img := range images {
		photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(img))
		if i == 0 {
			photo.Caption = truncateRunes(text, 1024)
		}

		media = append(media, photo)
	}

	group := tgbotapi.NewMediaGroup(msg.Chat.ID, media)
	group.ReplyToMessageID = msg.MessageID

	if _, err := b.api.SendMediaGroup(group); err != nil {
		b.logger.Warn().Err(err).Msg("failed to send media group")
		b.reply(msg, text)
	}
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	for i, part := range htmlutils.SplitPlain(text, MaxMessageSize) {
		if i > 0 {
			time.Sleep(SleepBetweenParts)
		}

		reply := tgbotapi.NewMessage(msg.Chat.ID, part)
		reply.ReplyToMessageID = msg.MessageID

		if _, err := b.api.Send(reply); err != nil {
			b.logger.Warn().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to send reply")

			return
		}
	}
}
