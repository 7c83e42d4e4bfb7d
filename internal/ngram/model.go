// Package ngram is a tiny bigram model used for small-talk replies when no
// other intent matches.
package ngram

import (
	"math/rand"
	"strings"
	"sync"
)

// endOfSequence marks the end of a training sentence. Whitespace tokenization
// never yields an empty token, so it cannot collide with a real word.
const endOfSequence = ""

// Model maps a word to every successor seen in training, with repetition, so
// that a uniform pick reproduces the observed frequencies.
type Model struct {
	next   map[string][]string
	starts []string

	mu  sync.Mutex
	rng *rand.Rand
}

// New trains a model on corpus. src drives Generate; pass a fixed source in
// tests for reproducible output.
func New(corpus []string, src rand.Source) *Model {
	m := &Model{
		next: make(map[string][]string),
		rng:  rand.New(src),
	}
	for _, sentence := range corpus {
		words := strings.Fields(strings.ToLower(sentence))
		if len(words) == 0 {
			continue
		}
		m.starts = append(m.starts, words[0])
		for i, w := range words {
			succ := endOfSequence
			if i+1 < len(words) {
				succ = words[i+1]
			}
			m.next[w] = append(m.next[w], succ)
		}
	}
	return m
}

// Generate walks the model from seed for at most maxWords steps and returns
// the space-joined words, seed included.
func (m *Model) Generate(seed string, maxWords int) string {
	if seed == "" {
		return ""
	}
	reply := []string{seed}
	word := seed
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < maxWords; i++ {
		succ, ok := m.next[word]
		if !ok || len(succ) == 0 {
			break
		}
		word = succ[m.rng.Intn(len(succ))]
		if word == endOfSequence {
			break
		}
		reply = append(reply, word)
	}
	return strings.Join(reply, " ")
}

// Successors returns a copy of the recorded successors of w, excluding the
// end marker.
func (m *Model) Successors(w string) []string {
	var out []string
	for _, s := range m.next[w] {
		if s != endOfSequence {
			out = append(out, s)
		}
	}
	return out
}

// Follows reports whether b was seen directly after a in training.
func (m *Model) Follows(a, b string) bool {
	for _, s := range m.next[a] {
		if s == b && s != endOfSequence {
			return true
		}
	}
	return false
}

// Starts returns the first word of every training sentence.
func (m *Model) Starts() []string {
	return append([]string(nil), m.starts...)
}
