package chatbot

import (
	"fmt"
	"strings"

	"assistify-backend/internal/mathexpr"
	"assistify-backend/internal/phrase"
	"assistify-backend/internal/sentiment"
)

type IntentKind string

const (
	IntentAddTask      IntentKind = "add_task"
	IntentShowTasks    IntentKind = "show_tasks"
	IntentDeleteTask   IntentKind = "delete_task"
	IntentTime         IntentKind = "time"
	IntentRememberName IntentKind = "remember_name"
	IntentRecallName   IntentKind = "recall_name"
	IntentCalculate    IntentKind = "calculate"
	IntentSentiment    IntentKind = "sentiment"
	IntentGreeting     IntentKind = "greeting"
	IntentWellbeing    IntentKind = "wellbeing"
	IntentFarewell     IntentKind = "farewell"
	IntentGenerated    IntentKind = "generated"
)

// intent is one entry of the dispatch chain. match must not mutate the
// session; handle may.
type intent struct {
	kind   IntentKind
	match  func(t *turn) bool
	handle func(t *turn) Reply
}

// intents returns the dispatch chain in priority order. The order is the only
// disambiguation: "add task do math 2+2" is a task, never a calculation.
func (b *Bot) intents() []intent {
	return []intent{
		{IntentAddTask, func(t *turn) bool { return t.hasAll("add", "task") }, b.addTask},
		{IntentShowTasks, func(t *turn) bool { return t.hasAll("show", "tasks") }, b.showTasks},
		{IntentDeleteTask, func(t *turn) bool { return t.hasAll("delete", "task") }, b.deleteTask},
		{IntentTime, func(t *turn) bool { return t.hasAny("time", "date") }, b.currentTime},
		{IntentRememberName, matchName, b.rememberName},
		{IntentRecallName, func(t *turn) bool { return t.hasAll("what", "name") }, b.recallName},
		{IntentCalculate, matchCalculation, b.calculate},
		{IntentSentiment, func(t *turn) bool { return t.mood() != sentiment.Neutral }, b.sentiment},
		{IntentGreeting, func(t *turn) bool { return t.hasAny("hello", "hi") }, b.canned("greeting")},
		{IntentWellbeing, func(t *turn) bool { return t.hasAll("how", "you") }, b.canned("wellbeing")},
		{IntentFarewell, func(t *turn) bool { return t.hasAny("bye") }, b.canned("farewell")},
		{IntentGenerated, func(t *turn) bool { return true }, b.generate},
	}
}

func (b *Bot) addTask(t *turn) Reply {
	task := strings.TrimSpace(t.without("add", "task"))
	if !t.sess.Tasks.Add(task) {
		return Reply{Text: b.book.say("task_missing")}
	}
	return Reply{Text: b.book.say("task_added", task), Payload: map[string]any{"task": task}}
}

func (b *Bot) showTasks(t *turn) Reply {
	tasks := t.sess.Tasks.All()
	if len(tasks) == 0 {
		return Reply{Text: b.book.say("tasks_empty"), Payload: map[string]any{"tasks": []string{}}}
	}
	var sb strings.Builder
	sb.WriteString(b.book.say("tasks_header"))
	for i, task := range tasks {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, task)
	}
	return Reply{Text: sb.String(), Payload: map[string]any{"tasks": tasks}}
}

func (b *Bot) deleteTask(t *turn) Reply {
	n, ok := phrase.ExtractTaskIndex(t.text)
	if !ok {
		return Reply{Text: b.book.say("task_delete_usage")}
	}
	removed, ok := t.sess.Tasks.Remove(n - 1)
	if !ok {
		return Reply{Text: b.book.say("task_not_found")}
	}
	return Reply{Text: b.book.say("task_deleted", removed), Payload: map[string]any{"task": removed, "number": n}}
}

func (b *Bot) currentTime(t *turn) Reply {
	return Reply{Text: b.book.say("time", b.now().Format("2006-01-02 15:04:05"))}
}

func matchName(t *turn) bool {
	name, ok := phrase.ExtractName(t.text)
	t.name = name
	return ok
}

func (b *Bot) rememberName(t *turn) Reply {
	t.sess.Memory.Set("name", t.name)
	return Reply{Text: b.book.say("name_saved", t.name), Payload: map[string]any{"name": t.name}}
}

func (b *Bot) recallName(t *turn) Reply {
	if name, ok := t.sess.Memory.Get("name"); ok && name != "" {
		return Reply{Text: b.book.say("name_known", name)}
	}
	return Reply{Text: b.book.say("name_unknown")}
}

func matchCalculation(t *turn) bool {
	t.expr = phrase.ToExpression(t.text)
	return strings.ContainsAny(t.expr, "+-*/()")
}

func (b *Bot) calculate(t *turn) Reply {
	v, ok := mathexpr.Evaluate(t.expr)
	if !ok {
		return Reply{Text: b.book.say("calc_failed"), Payload: map[string]any{"expression": t.expr}}
	}
	return Reply{Text: b.book.say("calc_result", mathexpr.Format(v)), Payload: map[string]any{"expression": t.expr, "result": v}}
}

func (b *Bot) sentiment(t *turn) Reply {
	if t.mood() == sentiment.Positive {
		return Reply{Text: b.book.say("positive"), Payload: map[string]any{"mood": "positive"}}
	}
	return Reply{Text: b.book.say("negative"), Payload: map[string]any{"mood": "negative"}}
}

func (b *Bot) canned(key string) func(*turn) Reply {
	return func(*turn) Reply { return Reply{Text: b.book.say(key)} }
}

func (b *Bot) generate(t *turn) Reply {
	if len(t.tokens) == 0 {
		return Reply{Text: b.book.say("prompt")}
	}
	return Reply{Text: b.model.Generate(t.tokens[0], b.maxWords)}
}
