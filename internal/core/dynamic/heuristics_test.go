package dynamic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestGuessCardTitle_ExtendJSONWins(t *testing.T) {
	g := guessCardTitle(heuristicInput{
		ExtendJSON:  `{"from": {"verify": {"title": "扩展字段里的标题"}}}`,
		Hint:        "分享标题",
		Description: "正文内容在这里",
	})

	require.Equal(t, "扩展字段里的标题", g.Title)
	require.Equal(t, "正文内容在这里", g.Body)
}

func TestGuessCardTitle_HintBeforeFreeText(t *testing.T) {
	g := guessCardTitle(heuristicInput{
		Hint:        "分享标题",
		Description: "这是一段很长的描述文字内容",
	})

	require.Equal(t, "分享标题", g.Title)
}

func TestGuessCardTitle_FirstLine(t *testing.T) {
	g := guessCardTitle(heuristicInput{
		Description: "这是一个标题行\n后面是正文第一段。\n还有第二段。",
	})

	require.Equal(t, "这是一个标题行", g.Title)
	require.Equal(t, "后面是正文第一段。\n还有第二段。", g.Body)
}

func TestGuessCardTitle_SingleLineLeavesBodyEmpty(t *testing.T) {
	// The whole description is promoted to the title; nothing remains for the
	// body, and the title must not be repeated there.
	g := guessCardTitle(heuristicInput{Description: "这是一个标题行"})

	require.Equal(t, "这是一个标题行", g.Title)
	require.Empty(t, g.Body)
}

func TestGuessCardTitle_FirstLineRejectedByPunctuation(t *testing.T) {
	// The first line ends in a full stop, so the first-clause rule picks the
	// leading sentence instead. The body keeps the full description.
	g := guessCardTitle(heuristicInput{
		Description: "今天天气很好。我们去爬山了，拍了很多照片。",
	})

	require.Equal(t, "今天天气很好", g.Title)
	require.Equal(t, "今天天气很好。我们去爬山了，拍了很多照片。", g.Body)
}

func TestGuessCardTitle_ClauseSkipsMarkers(t *testing.T) {
	g := guessCardTitle(heuristicInput{
		Description: "感谢 @某某某 一直以来的支持！这一句没有任何链接标记。",
	})

	require.Equal(t, "这一句没有任何链接标记", g.Title)
}

func TestGuessCardTitle_Truncation(t *testing.T) {
	long := strings.Repeat("好", 80) + "。"

	g := guessCardTitle(heuristicInput{Description: long})

	require.Equal(t, strings.Repeat("好", 50)+"…", g.Title)
}

func TestGuessCardTitle_Deterministic(t *testing.T) {
	in := heuristicInput{Description: "今天天气很好。我们去爬山了，拍了很多照片。"}

	first := guessCardTitle(in)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, guessCardTitle(in))
	}
}

func TestGuessCardTitle_EmptyDescription(t *testing.T) {
	g := guessCardTitle(heuristicInput{})

	require.Empty(t, g.Title)
	require.Empty(t, g.Body)
}

func TestFindStringField_NestedArrays(t *testing.T) {
	res := gjson.Parse(`{"a": [{"b": {"text": "嵌套文本"}}]}`)

	require.Equal(t, "嵌套文本", findStringField(res, "title", "text"))
}
