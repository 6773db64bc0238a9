package htmlutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripHTMLTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text unchanged",
			in:   "今天天气很好",
			want: "今天天气很好",
		},
		{
			name: "tags removed",
			in:   "<p>hello <b>world</b></p>",
			want: "hello world",
		},
		{
			name: "entities unescaped",
			in:   "a &amp; b",
			want: "a & b",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  <div>text</div>  ",
			want: "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, StripHTMLTags(tt.in))
		})
	}
}

func TestSplitPlain(t *testing.T) {
	t.Run("short message untouched", func(t *testing.T) {
		parts := SplitPlain("hello\nworld", 100)
		require.Equal(t, []string{"hello\nworld"}, parts)
	})

	t.Run("splits at line breaks", func(t *testing.T) {
		text := strings.Repeat("aaaa\n", 10)

		parts := SplitPlain(text, 12)
		require.Greater(t, len(parts), 1)

		for _, p := range parts {
			require.LessOrEqual(t, UTF16Len(p), 12)
		}
	})

	t.Run("hard cut for oversized line", func(t *testing.T) {
		parts := SplitPlain(strings.Repeat("x", 30), 10)
		require.Len(t, parts, 3)
	})
}

func TestUTF16Len(t *testing.T) {
	// Emoji outside the BMP needs a surrogate pair.
	require.Equal(t, 2, UTF16Len("😀"))
	require.Equal(t, 2, UTF16Len("你好"))
}
