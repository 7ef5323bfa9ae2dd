package similarity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTooSimilar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate string
		corpus    []string
		prefix    string
		want      bool
	}{
		{
			name:      "exact duplicate",
			candidate: "合肥有哪些著名的旅游景点？",
			corpus:    []string{"合肥有哪些著名的旅游景点？"},
			want:      true,
		},
		{
			name:      "near duplicate with trailing particle",
			candidate: "合肥有哪些著名的旅游景点呢？",
			corpus:    []string{"合肥有哪些著名的旅游景点？"},
			want:      true,
		},
		{
			name:      "near duplicate with inserted word",
			candidate: "what is the capital city of anhui province",
			corpus:    []string{"what is the capital of anhui province"},
			want:      true,
		},
		{
			name:      "distinct question",
			candidate: "黄山的主峰海拔是多少？",
			corpus:    []string{"合肥的气候怎么样？"},
			want:      false,
		},
		{
			name:      "empty corpus",
			candidate: "合肥的气候怎么样？",
			corpus:    nil,
			want:      false,
		},
		{
			name:      "any single match flags",
			candidate: "合肥有哪些著名的旅游景点？",
			corpus: []string{
				"黄山的主峰海拔是多少？",
				"安徽的特色美食有哪些？",
				"合肥有哪些著名的旅游景点？",
			},
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := NewScorer()
			got := s.TooSimilar(tc.candidate, tc.corpus, tc.prefix)
			assert.Equal(t, tc.want, got)
		})
	}
}

// A long shared prompt prefix must not make unrelated questions look alike:
// stripped, the two tails are clearly distinct; unstripped, the prefix
// dominates both signals.
func TestTooSimilarDomainPrefixStripping(t *testing.T) {
	t.Parallel()

	const prefix = "请回答关于中国安徽省的问题："
	candidate := prefix + "省会是哪里"
	corpus := []string{prefix + "面积是多少"}

	withStrip := NewScorer()
	assert.False(t, withStrip.TooSimilar(candidate, corpus, prefix))

	withoutStrip := NewScorer()
	assert.True(t, withoutStrip.TooSimilar(candidate, corpus, ""))
}

func TestTooSimilarFlagsSyntheticRewordings(t *testing.T) {
	t.Parallel()

	base := "安徽省黄山市有哪些值得一去的自然景观和人文景点"
	rewordings := []string{
		base + "呢",
		"请问" + base,
		"安徽省黄山市有哪些值得一去的自然景观与人文景点",
	}

	s := NewScorer()
	for i, reworded := range rewordings {
		assert.True(t, s.TooSimilar(reworded, []string{base}, ""),
			"rewording %d should be flagged as near-duplicate", i)
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, score("identical text", "identical text"))
	assert.Equal(t, 0.0, score("ab", "cd"))

	// "hello world" vs "hello there": edit distance 5 over max length 11,
	// token overlap 1 of 3.
	got := score("hello world", "hello there")
	want := 0.7*(1.0-5.0/11.0) + 0.3*(1.0/3.0)
	assert.InDelta(t, want, got, 1e-9)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		prefix string
		want   string
	}{
		{name: "lowercase and punctuation", text: "Hello,   World!!", want: "hello world"},
		{name: "prefix stripped", text: "关于安徽：合肥的美食", prefix: "关于安徽：", want: "合肥的美食"},
		{name: "prefix only stripped at start", text: "美食关于安徽", prefix: "关于安徽", want: "美食关于安徽"},
		{name: "interior punctuation collapses", text: "合肥、芜湖、蚌埠", want: "合肥 芜湖 蚌埠"},
		{name: "leading and trailing punctuation trimmed", text: "？合肥？", want: "合肥"},
		{name: "empty", text: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, normalize(tc.text, tc.prefix))
		})
	}
}

func TestNormCacheEviction(t *testing.T) {
	t.Parallel()

	c := newNormCache(3)
	for i := 0; i < 3; i++ {
		c.normalized(fmt.Sprintf("Text %d!", i), "")
	}
	require.Equal(t, 3, c.len())

	// One more insertion evicts the oldest; the cache never grows past cap.
	c.normalized("Text 3!", "")
	assert.Equal(t, 3, c.len())
	_, oldestStillCached := c.vals["\x00Text 0!"]
	assert.False(t, oldestStillCached)
	_, newestCached := c.vals["\x00Text 3!"]
	assert.True(t, newestCached)

	// Hits do not change size.
	c.normalized("Text 3!", "")
	assert.Equal(t, 3, c.len())
}
