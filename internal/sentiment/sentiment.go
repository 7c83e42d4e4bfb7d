// Package sentiment scores the polarity of short chat messages.
//
// The scorer is lexicon based: every known opinion word contributes its
// polarity, a preceding intensifier scales it and a preceding negation flips
// and halves it. The message score is the mean over opinion words, clamped to
// [-1, 1]. Messages with no opinion words score 0.
package sentiment

import (
	"strings"
	"unicode"
)

// Band thresholds used by the chat fallback.
const (
	PositiveThreshold = 0.2
	NegativeThreshold = -0.2
)

// Band is a coarse classification of a polarity score.
type Band int

const (
	Neutral Band = iota
	Positive
	Negative
)

func (b Band) String() string {
	switch b {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "neutral"
	}
}

var lexicon = map[string]float64{
	"good": 0.7, "great": 0.8, "awesome": 1.0, "amazing": 0.6, "excellent": 1.0,
	"wonderful": 1.0, "fantastic": 0.4, "happy": 0.8, "glad": 0.5, "love": 0.5,
	"loved": 0.7, "like": 0.3, "nice": 0.6, "fine": 0.4, "beautiful": 0.85,
	"best": 1.0, "better": 0.5, "cool": 0.35, "fun": 0.3, "excited": 0.4,
	"thanks": 0.2, "thank": 0.2, "perfect": 1.0, "brilliant": 0.9, "lovely": 0.5,
	"enjoy": 0.4, "enjoyed": 0.4, "pleased": 0.5, "proud": 0.8, "calm": 0.3,
	"bad": -0.7, "terrible": -1.0, "awful": -1.0, "horrible": -1.0, "sad": -0.5,
	"angry": -0.5, "upset": -0.5, "hate": -0.8, "worst": -1.0, "worse": -0.4,
	"tired": -0.4, "sick": -0.7, "lonely": -0.5, "depressed": -0.6, "annoyed": -0.4,
	"annoying": -0.8, "frustrated": -0.7, "stressed": -0.5, "worried": -0.4,
	"anxious": -0.3, "scared": -0.6, "afraid": -0.6, "boring": -1.0, "bored": -0.5,
	"poor": -0.4, "disappointed": -0.75, "miserable": -0.8, "hurt": -0.5, "pain": -0.5,
	"stupid": -0.8, "unhappy": -0.6, "broken": -0.4, "fail": -0.5, "failed": -0.5,
}

var intensifiers = map[string]float64{
	"very": 1.3, "really": 1.2, "so": 1.2, "extremely": 1.5, "super": 1.4,
	"quite": 1.1, "totally": 1.3, "too": 1.2, "incredibly": 1.5,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "isn't": true, "don't": true,
	"doesn't": true, "didn't": true, "wasn't": true, "aren't": true, "can't": true,
	"won't": true, "nothing": true, "hardly": true,
}

// Polarity scores text in [-1, 1].
func Polarity(text string) float64 {
	words := tokenize(text)
	var sum float64
	var n int
	for i, w := range words {
		score, ok := lexicon[w]
		if !ok {
			continue
		}
		// look back over at most two modifiers: "not very good"
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			prev := words[j]
			if f, ok := intensifiers[prev]; ok {
				score *= f
				continue
			}
			if negations[prev] {
				score *= -0.5
			}
			break
		}
		sum += score
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp(sum / float64(n))
}

// Classify maps text to its band using the chat thresholds.
func Classify(text string) Band {
	p := Polarity(text)
	switch {
	case p > PositiveThreshold:
		return Positive
	case p < NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && r != '\''
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
