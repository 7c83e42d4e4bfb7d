// Package chatbot turns one line of user text into a reply. Handlers are
// tried in a fixed order and the first match answers; see intents.go.
package chatbot

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"assistify-backend/internal/ngram"
	"assistify-backend/internal/sentiment"
	"assistify-backend/internal/store"
)

// Reply is the outcome of one turn.
type Reply struct {
	Text    string
	Intent  IntentKind
	Payload map[string]any
}

type Bot struct {
	book     Phrasebook
	model    *ngram.Model
	now      func() time.Time
	maxWords int
	chain    []intent
}

type Option func(*Bot)

// WithClock replaces time.Now for the time intent.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

// WithRandSource seeds the small-talk generator.
func WithRandSource(src rand.Source) Option {
	return func(b *Bot) { b.model = ngram.New(b.book.Corpus, src) }
}

// WithMaxWords caps the generated small-talk length.
func WithMaxWords(n int) Option {
	return func(b *Bot) { b.maxWords = n }
}

func New(book Phrasebook, opts ...Option) *Bot {
	b := &Bot{
		book:     book,
		now:      time.Now,
		maxWords: 6,
	}
	for _, o := range opts {
		o(b)
	}
	if b.model == nil {
		b.model = ngram.New(book.Corpus, rand.NewSource(time.Now().UnixNano()))
	}
	b.chain = b.intents()
	return b
}

// Respond answers input within sess and records both sides of the turn in
// the session history.
func (b *Bot) Respond(sess *store.Session, input string) Reply {
	sess.Lock()
	defer sess.Unlock()

	t := newTurn(sess, input)
	reply := b.dispatch(t)
	sess.Append(store.Message{Role: "user", Content: input})
	sess.Append(store.Message{Role: "assistant", Content: reply.Text})
	log.Debug().Str("component", "chatbot").Str("session", sess.ID).Str("intent", string(reply.Intent)).Msg("handled turn")
	return reply
}

// RespondText is Respond without the intent details.
func (b *Bot) RespondText(sess *store.Session, input string) string {
	return b.Respond(sess, input).Text
}

// Classify reports which intent would answer input, without running it.
func (b *Bot) Classify(sess *store.Session, input string) IntentKind {
	sess.Lock()
	defer sess.Unlock()
	t := newTurn(sess, input)
	for _, in := range b.chain {
		if in.match(t) {
			return in.kind
		}
	}
	return IntentGenerated
}

// Intents lists the dispatch order.
func (b *Bot) Intents() []IntentKind {
	out := make([]IntentKind, len(b.chain))
	for i, in := range b.chain {
		out[i] = in.kind
	}
	return out
}

func (b *Bot) dispatch(t *turn) Reply {
	for _, in := range b.chain {
		if !in.match(t) {
			continue
		}
		r := in.handle(t)
		r.Intent = in.kind
		return r
	}
	// unreachable: the generated intent always matches
	return Reply{Text: b.book.say("prompt"), Intent: IntentGenerated}
}

// turn is the per-message scratch state shared by matchers and handlers.
type turn struct {
	sess   *store.Session
	raw    string
	text   string
	tokens []string
	set    map[string]bool

	name string
	expr string

	moodDone bool
	moodVal  sentiment.Band
}

func newTurn(sess *store.Session, input string) *turn {
	text := strings.ToLower(strings.TrimSpace(input))
	t := &turn{sess: sess, raw: input, text: text, set: map[string]bool{}}
	for _, f := range strings.Fields(text) {
		f = trimWord(f)
		if f == "" {
			continue
		}
		t.tokens = append(t.tokens, f)
		t.set[f] = true
	}
	return t
}

// trimWord drops the punctuation around a whitespace field.
func trimWord(f string) string {
	return strings.TrimFunc(f, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
}

// without returns the text with every adjacent pair of fields that reads
// first+second removed, punctuation around the two words ignored. The
// remaining fields keep their spelling and are joined by single spaces.
func (t *turn) without(first, second string) string {
	fields := strings.Fields(t.text)
	keep := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		if i+1 < len(fields) && trimWord(fields[i]) == first && trimWord(fields[i+1]) == second {
			i++
			continue
		}
		keep = append(keep, fields[i])
	}
	return strings.Join(keep, " ")
}

func (t *turn) hasAll(words ...string) bool {
	for _, w := range words {
		if !t.set[w] {
			return false
		}
	}
	return true
}

func (t *turn) hasAny(words ...string) bool {
	for _, w := range words {
		if t.set[w] {
			return true
		}
	}
	return false
}

func (t *turn) mood() sentiment.Band {
	if !t.moodDone {
		t.moodVal = sentiment.Classify(t.raw)
		t.moodDone = true
	}
	return t.moodVal
}
