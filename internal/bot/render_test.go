package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bilichat/bili-parse-bot/internal/core/domain"
)

func TestRenderVideo(t *testing.T) {
	d := &domain.VideoDetails{
		BVID:            "BV1xx411c7mD",
		Title:           "测试视频",
		Description:     "一段简介",
		OwnerName:       "up主",
		DurationSeconds: 213,
		Stats: domain.VideoStats{
			Views:     123456,
			Danmaku:   500,
			Replies:   300,
			Favorites: 2000,
			Coins:     1500,
			Shares:    100,
			Likes:     98765,
		},
	}

	out := RenderVideo(d)

	require.True(t, strings.HasPrefix(out, "【测试视频】\n"))
	require.Contains(t, out, "UP主: up主")
	require.Contains(t, out, "时长: 3:33")
	require.Contains(t, out, "播放: 12.3万")
	require.Contains(t, out, "点赞: 9.9万")
	require.Contains(t, out, "弹幕: 500")
	require.Contains(t, out, "简介: 一段简介")
	require.True(t, strings.HasSuffix(out, "链接: https://www.bilibili.com/video/BV1xx411c7mD"))
}

func TestRenderVideo_LongDescriptionTruncated(t *testing.T) {
	d := &domain.VideoDetails{
		BVID:        "BV1a",
		Title:       "t",
		Description: strings.Repeat("长", 300),
	}

	out := RenderVideo(d)

	require.Contains(t, out, "简介: "+strings.Repeat("长", descriptionLimitRunes)+"…")
	require.NotContains(t, out, strings.Repeat("长", descriptionLimitRunes+1))
}

func TestRenderDynamic(t *testing.T) {
	d := &domain.Dynamic{
		DynamicID:   "712345678901234567",
		AuthorName:  "某作者",
		Content:     "标题\n正文内容",
		PublishedAt: time.Now(),
	}

	out := RenderDynamic(d)

	require.True(t, strings.HasPrefix(out, "【B站动态】\n"))
	require.Contains(t, out, "作者: 某作者")
	require.Contains(t, out, "标题\n正文内容")
	require.True(t, strings.HasSuffix(out, "链接: https://t.bilibili.com/712345678901234567"))
}

func TestRenderDynamic_NoAuthor(t *testing.T) {
	out := RenderDynamic(&domain.Dynamic{DynamicID: "1", Content: "仅有标题"})

	require.NotContains(t, out, "作者:")
	require.Contains(t, out, "仅有标题")
}

func TestFormatStat(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{9999, "9999"},
		{10000, "1万"},
		{123456, "12.3万"},
		{100000000, "1亿"},
		{250000000, "2.5亿"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, formatStat(tc.in))
	}
}

func TestFormatDuration(t *testing.T) {
	require.Equal(t, "0:45", formatDuration(45))
	require.Equal(t, "3:33", formatDuration(213))
	require.Equal(t, "1:02:03", formatDuration(3723))
}

func TestRenderArticle(t *testing.T) {
	a := &domain.Article{
		CVID:       "12345678",
		Title:      "专栏标题",
		AuthorName: "专栏作者",
		Summary:    "专栏摘要",
	}

	out := RenderArticle(a)

	require.True(t, strings.HasPrefix(out, "【专栏标题】\n"))
	require.Contains(t, out, "作者: 专栏作者")
	require.Contains(t, out, "摘要: 专栏摘要")
	require.True(t, strings.HasSuffix(out, "链接: https://www.bilibili.com/read/cv12345678"))
}

func TestVideoLink(t *testing.T) {
	require.Equal(t, "https://www.bilibili.com/video/BV1GJ411x7h7", VideoLink("BV1GJ411x7h7", false))
	require.Equal(t, "https://b23.tv/BV1GJ411x7h7", VideoLink("BV1GJ411x7h7", true))
}

func TestStripLinkLine(t *testing.T) {
	in := "【标题】\n播放: 1\n链接: https://www.bilibili.com/video/BV1a"

	require.Equal(t, "【标题】\n播放: 1", stripLinkLine(in))
}
