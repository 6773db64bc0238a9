package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bilichat/bili-parse-bot/internal/core/domain"
)

const descriptionLimitRunes = 200

// VideoLink returns the canonical or short-form URL for a video.
func VideoLink(bvid string, short bool) string {
	if short {
		return "https://b23.tv/" + bvid
	}

	return "https://www.bilibili.com/video/" + bvid
}

// RenderVideo formats a resolved video into the reply caption.
func RenderVideo(d *domain.VideoDetails) string {
	return renderVideo(d, VideoLink(d.BVID, false))
}

func renderVideo(d *domain.VideoDetails, link string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("【%s】\n", d.Title))
	sb.WriteString(fmt.Sprintf("UP主: %s\n", d.OwnerName))
	sb.WriteString(fmt.Sprintf("时长: %s\n", formatDuration(d.DurationSeconds)))
	sb.WriteString(fmt.Sprintf("播放: %s | 弹幕: %s\n", formatStat(d.Stats.Views), formatStat(d.Stats.Danmaku)))
	sb.WriteString(fmt.Sprintf("评论: %s | 收藏: %s\n", formatStat(d.Stats.Replies), formatStat(d.Stats.Favorites)))
	sb.WriteString(fmt.Sprintf("投币: %s | 分享: %s | 点赞: %s\n", formatStat(d.Stats.Coins), formatStat(d.Stats.Shares), formatStat(d.Stats.Likes)))

	if desc := strings.TrimSpace(d.Description); desc != "" {
		sb.WriteString(fmt.Sprintf("简介: %s\n", truncateRunes(desc, descriptionLimitRunes)))
	}

	sb.WriteString(fmt.Sprintf("链接: %s", link))

	return sb.String()
}

// RenderDynamic formats a resolved post into the reply text.
func RenderDynamic(d *domain.Dynamic) string {
	var sb strings.Builder

	sb.WriteString("【B站动态】\n")

	if d.AuthorName != "" {
		sb.WriteString(fmt.Sprintf("作者: %s\n", d.AuthorName))
	}

	if content := strings.TrimSpace(d.Content); content != "" {
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("链接: https://t.bilibili.com/%s", d.DynamicID))

	return sb.String()
}

// RenderArticle formats a resolved article into the reply text.
func RenderArticle(a *domain.Article) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("【%s】\n", a.Title))

	if a.AuthorName != "" {
		sb.WriteString(fmt.Sprintf("作者: %s\n", a.AuthorName))
	}

	if summary := strings.TrimSpace(a.Summary); summary != "" {
		sb.WriteString(fmt.Sprintf("摘要: %s\n", truncateRunes(summary, descriptionLimitRunes)))
	}

	sb.WriteString(fmt.Sprintf("链接: https://www.bilibili.com/read/cv%s", a.CVID))

	return sb.String()
}

// formatStat renders large counters the way the platform's own UI does.
func formatStat(n int64) string {
	if n >= 100000000 {
		return strings.TrimSuffix(fmt.Sprintf("%.1f", float64(n)/100000000), ".0") + "亿"
	}

	if n >= 10000 {
		return strings.TrimSuffix(fmt.Sprintf("%.1f", float64(n)/10000), ".0") + "万"
	}

	return fmt.Sprintf("%d", n)
}

func formatDuration(seconds int) string {
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
	}

	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// stripLinkLine drops the link line when link sending is disabled.
func stripLinkLine(caption string) string {
	lines := strings.Split(caption, "\n")
	kept := lines[:0]

	for _, line := range lines {
		if strings.HasPrefix(line, "链接: ") {
			continue
		}

		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	return string([]rune(s)[:limit]) + "…"
}
