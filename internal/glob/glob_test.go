package glob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    bool
	}{
		{"exact", "file_1", "file_1", true},
		{"exact mismatch", "file_1", "file_2", false},
		{"star suffix", "file_*", "file_1", true},
		{"star matches empty", "file_*", "file_", true},
		{"star anchored", "file_*", "my_file_1", false},
		{"star middle", "a*z", "abcz", true},
		{"double star", "a**z", "az", true},
		{"question", "file_?", "file_1", true},
		{"question needs one char", "file_?", "file_", false},
		{"question only one char", "file_?", "file_12", false},
		{"class", "file_[12]", "file_2", true},
		{"class miss", "file_[12]", "file_3", false},
		{"range", "log[0-9]", "log7", true},
		{"range miss", "log[0-9]", "logx", false},
		{"negated bang", "[!a]*", "b.txt", true},
		{"negated bang miss", "[!a]*", "a.txt", false},
		{"negated caret", "[^a]*", "a.txt", false},
		{"escaped star", `a\*`, "a*", true},
		{"escaped star literal only", `a\*`, "ab", false},
		{"regexp metachars are literal", "a.b+(c)", "a.b+(c)", true},
		{"dot is not any char", "a.b", "axb", false},
		{"unterminated class is literal", "[abc", "[abc", true},
		{"bracket first member", "[]a]", "]", true},
		{"dash at end of class", "[a-]", "-", true},
		{"star skips leading dot", "*", ".housekeeper_ignore", false},
		{"question skips leading dot", "?profile", ".profile", false},
		{"class skips leading dot", "[.]x", ".x", false},
		{"explicit leading dot", ".*", ".housekeeper_ignore", true},
		{"escaped leading dot", `\.*`, ".profile", true},
		{"star matches inner dot", "*.log", "app.log", true},
		{"trailing whitespace significant", "file ", "file", false},
		{"nfc pattern nfd name", "caf\u00e9", "cafe\u0301", true},
		{"nfd pattern nfc name", "cafe\u0301*", "caf\u00e9.txt", true},
		{"unicode question", "?", "é", true},
		{"star spans invalid utf8", "*.log", "report\xff.log", true},
		{"question is one invalid byte", "a?b", "a\xffb", true},
		{"question is not two invalid bytes", "a?b", "a\xff\xfeb", false},
		{"invalid utf8 miss", "*.log", "report\xff.txt", false},
		{"truncated sequence", "caf*", "caf\xc3", true},
		{"invalid utf8 in pattern", "report\xff*", "report\xff.log", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.pattern, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "pattern %q vs %q", tt.pattern, tt.input)
		})
	}
}

func TestCompile_InvalidRange(t *testing.T) {
	_, err := Compile("[z-a]")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadPattern)
}

func TestMatchAny(t *testing.T) {
	patterns := []*Pattern{MustCompile("*.tmp"), MustCompile("keep_*")}

	got := MatchAny(patterns, "keep_me")
	require.NotNil(t, got)
	assert.Equal(t, "keep_*", got.String())

	assert.Nil(t, MatchAny(patterns, "report.pdf"))
	assert.Nil(t, MatchAny(nil, "anything"))
}

func TestParseList(t *testing.T) {
	t.Run("strips line terminators", func(t *testing.T) {
		patterns, err := ParseList([]byte("file_1\r\nfile_*\n"))
		require.NoError(t, err)
		require.Len(t, patterns, 2)
		assert.Equal(t, "file_1", patterns[0].String())
		assert.True(t, patterns[0].Match("file_1"))
		assert.True(t, patterns[1].Match("file_9"))
	})

	t.Run("skips empty lines", func(t *testing.T) {
		patterns, err := ParseList([]byte("\n\na\n\n"))
		require.NoError(t, err)
		require.Len(t, patterns, 1)
		assert.Equal(t, "a", patterns[0].String())
	})

	t.Run("no trailing newline", func(t *testing.T) {
		patterns, err := ParseList([]byte("x\ny"))
		require.NoError(t, err)
		assert.Len(t, patterns, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		patterns, err := ParseList(nil)
		require.NoError(t, err)
		assert.Empty(t, patterns)
	})

	t.Run("reports bad line", func(t *testing.T) {
		_, err := ParseList([]byte("ok\n[b-a]\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadPattern)
		assert.Contains(t, err.Error(), "line 2")
	})
}
