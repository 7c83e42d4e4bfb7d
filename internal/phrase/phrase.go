// Package phrase turns natural-language fragments into structured input for
// the dispatcher: spoken arithmetic into symbols, names and task numbers into
// typed values.
package phrase

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var operatorWords = map[string]string{
	"plus":     "+",
	"add":      "+",
	"minus":    "-",
	"subtract": "-",
	"times":    "*",
	"multiply": "*",
	"x":        "*",
	"divide":   "/",
	"power":    "**",
	"^":        "**",
}

var (
	inlineTimes = regexp.MustCompile(`^(\d+(?:\.\d+)?)x(\d+(?:\.\d+)?)$`)
	namePattern = regexp.MustCompile(`my name is (.+)`)
	taskPattern = regexp.MustCompile(`delete task (\d+)`)
	titleCaser  = cases.Title(language.Und)
)

// ToExpression replaces operator words with their symbols, one token at a
// time. Words that merely contain an operator word ("box", "address") are
// left alone.
func ToExpression(text string) string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		// "divided by" / "divide by"
		if (tok == "divided" || tok == "divide") && i+1 < len(fields) && fields[i+1] == "by" {
			out = append(out, "/")
			i++
			continue
		}
		if sym, ok := operatorWords[tok]; ok {
			out = append(out, sym)
			continue
		}
		if m := inlineTimes.FindStringSubmatch(tok); m != nil {
			tok = m[1] + "*" + m[2]
		}
		out = append(out, strings.ReplaceAll(tok, "^", "**"))
	}
	return strings.Join(out, " ")
}

// ExtractName finds "my name is <rest>" and returns the remainder title-cased.
func ExtractName(text string) (string, bool) {
	m := namePattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return "", false
	}
	return titleCaser.String(name), true
}

// ExtractTaskIndex finds "delete task <n>" and returns n (1-indexed, as the
// user said it). A digit run too large for int parses as math.MaxInt so the
// caller still treats it as out of range.
func ExtractTaskIndex(text string) (int, bool) {
	m := taskPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return math.MaxInt, true
	}
	return n, true
}
