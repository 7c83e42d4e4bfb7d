package ngram

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"hello how are you",
	"i am fine thank you",
	"what is your name",
	"my name is chatbot",
	"i can help you with math",
	"today is a beautiful day",
	"goodbye see you later",
	"i like learning new things",
}

func TestGenerate_Structure(t *testing.T) {
	m := New(corpus, rand.NewSource(42))
	for i := 0; i < 200; i++ {
		out := m.Generate("hello", 6)
		words := strings.Fields(out)
		require.NotEmpty(t, words)
		assert.Equal(t, "hello", words[0])
		assert.LessOrEqual(t, len(words), 7)
		for j := 0; j+1 < len(words); j++ {
			assert.True(t, m.Follows(words[j], words[j+1]), "unexpected pair %q -> %q in %q", words[j], words[j+1], out)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := New(corpus, rand.NewSource(7))
	b := New(corpus, rand.NewSource(7))
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Generate("i", 6), b.Generate("i", 6))
	}
}

func TestGenerate_UnknownSeed(t *testing.T) {
	m := New(corpus, rand.NewSource(1))
	assert.Equal(t, "zebra", m.Generate("zebra", 6))
	assert.Equal(t, "", m.Generate("", 6))
}

func TestGenerate_StopsAtEnd(t *testing.T) {
	m := New([]string{"alpha beta"}, rand.NewSource(1))
	assert.Equal(t, "alpha beta", m.Generate("alpha", 6))
	assert.Equal(t, "beta", m.Generate("beta", 6))
}

func TestGenerate_MaxWords(t *testing.T) {
	m := New([]string{"a a a a a a a a a a a a a a a a a a a a"}, rand.NewSource(3))
	for i := 0; i < 50; i++ {
		assert.LessOrEqual(t, len(strings.Fields(m.Generate("a", 3))), 4)
	}
	assert.Equal(t, "a", m.Generate("a", 0))
}

func TestTransitions(t *testing.T) {
	m := New(corpus, rand.NewSource(1))
	assert.True(t, m.Follows("how", "are"))
	assert.False(t, m.Follows("you", ""))
	assert.ElementsMatch(t, []string{"how"}, m.Successors("hello"))
	assert.Len(t, m.Starts(), len(corpus))
}
